package engine

import "strings"

type matchTier int

const (
	tierExact matchTier = iota
	tierPartial
)

type match struct {
	userID  string
	display string
	tier    matchTier
}

// FindPlayer resolves a free-text query to a participant ID using the
// matching ladder: exact full name, then exact name component (the
// color or animal of an anonymous identity), then partial matches of
// four or more characters. An exact tier with more than one hit is
// ambiguous even if a partial would have narrowed it.
func (g *Game) FindPlayer(query string, aliveOnly bool) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var matches []match

	for _, id := range g.JoinOrder {
		p, ok := g.Players[id]
		if !ok {
			continue
		}
		if aliveOnly && !p.Alive {
			continue
		}
		if g.Config.AnonMode {
			if p.AnonIdentity == "" {
				continue
			}
			full := strings.ToLower(p.AnonIdentity)
			parts := strings.Fields(full)
			switch {
			case full == q:
				matches = append(matches, match{id, p.AnonIdentity, tierExact})
			case componentEquals(parts, q):
				matches = append(matches, match{id, p.AnonIdentity, tierExact})
			case len(q) >= 4 && strings.Contains(full, q):
				matches = append(matches, match{id, p.AnonIdentity, tierPartial})
			}
		} else {
			name := strings.ToLower(p.DisplayName)
			username := strings.ToLower(p.Username)
			switch {
			case name == q || username == q:
				matches = append(matches, match{id, p.DisplayName, tierExact})
			case len(q) >= 4 && (strings.Contains(name, q) || strings.Contains(username, q)):
				matches = append(matches, match{id, p.DisplayName, tierPartial})
			}
		}
	}

	if len(matches) == 0 {
		qualifier := ""
		if aliveOnly {
			qualifier = "living "
		}
		return "", "", notFoundf("could not find %splayer matching %q", qualifier, strings.TrimSpace(query))
	}
	if len(matches) == 1 {
		return matches[0].userID, matches[0].display, nil
	}

	var exact []match
	for _, m := range matches {
		if m.tier == tierExact {
			exact = append(exact, m)
		}
	}
	if len(exact) == 1 {
		return exact[0].userID, exact[0].display, nil
	}

	pool := matches
	if len(exact) > 1 {
		pool = exact
	}
	names := make([]string, 0, len(pool))
	for _, m := range pool {
		names = append(names, m.display)
	}
	return "", "", ambiguousTarget(strings.TrimSpace(query), names)
}

func componentEquals(parts []string, q string) bool {
	if len(parts) != 2 {
		return false
	}
	return parts[0] == q || parts[1] == q
}

var noVoteWords = map[string]bool{
	"none": true, "no one": true, "no elimination": true, "no lynch": true,
}

var noKillWords = map[string]bool{
	"none": true, "no one": true, "no kill": true,
}

// ResolveVoteTarget parses a vote target, honoring the no-elimination
// sentinel when the game allows it.
func (g *Game) ResolveVoteTarget(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if noVoteWords[q] {
		if !g.Config.AllowNoElim {
			return "", "", deniedf("voting for no elimination is not allowed in this game")
		}
		return VoteNone, "No One", nil
	}
	return g.FindPlayer(query, true)
}

// ResolveKillTarget parses a kill target, honoring the no-kill sentinel.
func (g *Game) ResolveKillTarget(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if noKillWords[q] {
		return KillNone, "No One", nil
	}
	return g.FindPlayer(query, true)
}
