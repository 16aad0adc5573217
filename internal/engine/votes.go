package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tyrian-games/luthadel/internal/roles"
)

// VoteResult reports a recorded vote.
type VoteResult struct {
	TargetID      string
	TargetDisplay string
	// Secret marks a vote that must not be announced publicly.
	Secret bool
	// Announcement carries the public vote announcement when one is
	// appropriate for the game mode.
	Announcement *Notification
}

func (g *Game) checkVoter(voterID string, fromPrivateThread bool) error {
	if g.Status != StatusActive {
		return invalidPhasef("the game is not active")
	}
	if !g.IsDay() {
		return invalidPhasef("voting only happens during the day phase")
	}
	p, ok := g.Players[voterID]
	if !ok {
		return deniedf("you are not in this game")
	}
	if !p.Alive {
		return deniedf("dead players cannot vote")
	}
	if g.Config.AnonMode && !fromPrivateThread {
		return deniedf("in anonymous mode, vote in your private GM thread")
	}
	return nil
}

// Vote records a vote for the current day. Re-voting overwrites the
// previous target.
func (r *Registry) Vote(guildID, voterID, targetQuery string, fromPrivateThread bool) (*VoteResult, error) {
	var res VoteResult
	err := r.WithGame(guildID, func(g *Game) error {
		if err := g.checkVoter(voterID, fromPrivateThread); err != nil {
			return err
		}
		targetID, targetDisplay, err := g.ResolveVoteTarget(targetQuery)
		if err != nil {
			return err
		}
		g.DayVotes()[voterID] = targetID
		res.TargetID = targetID
		res.TargetDisplay = targetDisplay
		if g.Config.SecretVotes && fromPrivateThread {
			res.Secret = true
			return nil
		}
		n := note(DestPublic, fmt.Sprintf("🗳️ **%s** votes for **%s**", g.DisplayName(voterID), targetDisplay))
		res.Announcement = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Unvote withdraws the voter's current vote.
func (r *Registry) Unvote(guildID, voterID string, fromPrivateThread bool) (*VoteResult, error) {
	var res VoteResult
	err := r.WithGame(guildID, func(g *Game) error {
		if err := g.checkVoter(voterID, fromPrivateThread); err != nil {
			return err
		}
		votes := g.DayVotes()
		if _, ok := votes[voterID]; !ok {
			return notFoundf("you have no vote to withdraw")
		}
		delete(votes, voterID)
		if g.Config.SecretVotes && fromPrivateThread {
			res.Secret = true
			return nil
		}
		n := note(DestPublic, fmt.Sprintf("🗳️ **%s** withdraws their vote", g.DisplayName(voterID)))
		res.Announcement = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ClearVotes wipes the current day's votes.
func (r *Registry) ClearVotes(guildID, byID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		delete(g.Votes, g.DayNumber)
		return nil
	})
}

// effectiveVotes applies Soother and Rioter modifications to the raw
// vote map. With feedback set, the actors get private result messages
// queued. A Rioter's own vote is nullified whether or not the riot
// lands; a shielded target blocks the modification itself.
func (g *Game) effectiveVotes(feedback bool) map[string]int {
	raw := g.DayVotes()
	dayActions := g.dayActionsFor(g.DayNumber)

	cancelled := make(map[string]bool)
	redirected := make(map[string]string)
	rioterSpent := make(map[string]bool)

	for _, actorID := range sortedActors(dayActions[roles.ActionCancel]) {
		rec := dayActions[roles.ActionCancel][actorID]
		actor, ok := g.Players[actorID]
		if !ok || !actor.Alive {
			continue
		}
		if _, ok := g.Players[rec.Target]; !ok {
			continue
		}
		if g.IsSmoked(rec.Target) {
			if feedback {
				g.queueResult(actorID, "😶 Your Soothe was blocked. The target was protected from your influence.")
			}
			continue
		}
		cancelled[rec.Target] = true
		if feedback {
			g.queueResult(actorID, fmt.Sprintf("😶 You successfully Soothed **%s**'s vote.", g.DisplayName(rec.Target)))
		}
	}

	for _, actorID := range sortedActors(dayActions[roles.ActionRedirect]) {
		rec := dayActions[roles.ActionRedirect][actorID]
		actor, ok := g.Players[actorID]
		if !ok || !actor.Alive {
			continue
		}
		if _, ok := g.Players[rec.Target]; !ok {
			continue
		}
		if rec.Redirect == "" {
			continue
		}
		rioterSpent[actorID] = true
		if g.IsSmoked(rec.Target) {
			if feedback {
				g.queueResult(actorID, "😤 Your Riot was blocked. The target was protected from your influence. Your vote is still cancelled.")
			}
			continue
		}
		redirected[rec.Target] = rec.Redirect
		if feedback {
			g.queueResult(actorID, fmt.Sprintf("😤 You successfully Rioted **%s**'s vote to **%s**.",
				g.DisplayName(rec.Target), g.voteTargetName(rec.Redirect)))
		}
	}

	effective := make(map[string]int)
	for voterID, targetID := range raw {
		if cancelled[voterID] || rioterSpent[voterID] {
			continue
		}
		if to, ok := redirected[voterID]; ok {
			targetID = to
		}
		effective[targetID]++
	}
	return effective
}

func (g *Game) voteTargetName(targetID string) string {
	if targetID == VoteNone {
		return "No Elimination"
	}
	return g.DisplayName(targetID)
}

// FormatVoteCount renders the vote tally: effective counts after vote
// modifications, with the raw public voter names under each target.
// Targets whose effective count dropped to zero disappear; targets
// that gained votes only through a Riot show a count with no names.
func (g *Game) FormatVoteCount() string {
	raw := g.DayVotes()
	effective := g.effectiveVotes(false)

	rawGroups := make(map[string][]string)
	for voterID, targetID := range raw {
		rawGroups[targetID] = append(rawGroups[targetID], voterID)
	}

	targets := make(map[string]bool)
	for t := range rawGroups {
		targets[t] = true
	}
	for t := range effective {
		targets[t] = true
	}

	sorted := make([]string, 0, len(targets))
	for t := range targets {
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := effective[sorted[i]], effective[sorted[j]]
		if ci != cj {
			return ci > cj
		}
		return g.voteTargetName(sorted[i]) < g.voteTargetName(sorted[j])
	})

	lines := []string{"📊 **Final Vote Count**"}
	for _, targetID := range sorted {
		count := effective[targetID]
		if count == 0 {
			continue
		}
		voters := rawGroups[targetID]
		sort.Slice(voters, func(i, j int) bool {
			return g.DisplayName(voters[i]) < g.DisplayName(voters[j])
		})
		names := make([]string, 0, len(voters))
		for _, v := range voters {
			names = append(names, g.DisplayName(v))
		}
		if len(names) > 0 {
			lines = append(lines, fmt.Sprintf("**%s** (%d): %s", g.voteTargetName(targetID), count, strings.Join(names, ", ")))
		} else {
			lines = append(lines, fmt.Sprintf("**%s** (%d):", g.voteTargetName(targetID), count))
		}
	}

	var abstainers []string
	for _, p := range g.AlivePlayers() {
		if _, voted := raw[p.UserID]; !voted {
			abstainers = append(abstainers, g.DisplayName(p.UserID))
		}
	}
	if len(abstainers) > 0 {
		lines = append(lines, fmt.Sprintf("**No Vote** (%d): %s", len(abstainers), strings.Join(abstainers, ", ")))
	}

	return strings.Join(lines, "\n")
}

// VoteCount renders the current tally for the vote count command.
func (r *Registry) VoteCount(guildID string) (string, error) {
	var out string
	err := r.WithGame(guildID, func(g *Game) error {
		if g.Status != StatusActive {
			return invalidPhasef("the game is not active")
		}
		out = g.FormatVoteCount()
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
