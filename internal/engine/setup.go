package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/roles"
)

// JoinResult reports a successful game join.
type JoinResult struct {
	AnonIdentity string
	PlayerCount  int
}

// Join adds a user to a game during setup. In anonymous mode an
// identity is drawn from the pool immediately.
func (r *Registry) Join(guildID, userID, username, displayName string) (*JoinResult, error) {
	var res JoinResult
	err := r.WithGame(guildID, func(g *Game) error {
		if g.Status != StatusSetup {
			return invalidPhasef("the game has already started")
		}
		if _, ok := g.Players[userID]; ok {
			return conflictf("you are already in the game")
		}
		p := &Participant{
			UserID:      userID,
			Username:    username,
			DisplayName: displayName,
			Alive:       true,
		}
		if g.Config.AnonMode {
			id, ok := g.takeIdentity(r.intn)
			if !ok {
				return exhaustedf("the anonymous identity pool is empty")
			}
			p.AnonIdentity = id.Name
			res.AnonIdentity = id.Name
		}
		g.Players[userID] = p
		g.JoinOrder = append(g.JoinOrder, userID)
		res.PlayerCount = len(g.Players)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Leave removes a user from a game during setup, returning any drawn
// identity to the pool.
func (r *Registry) Leave(guildID, userID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		if g.Status != StatusSetup {
			return invalidPhasef("you cannot leave a running game; ask a GM to remove you")
		}
		p, ok := g.Players[userID]
		if !ok {
			return notFoundf("you are not in the game")
		}
		g.returnIdentity(r.identities, p.AnonIdentity)
		delete(g.Players, userID)
		for i, id := range g.JoinOrder {
			if id == userID {
				g.JoinOrder = append(g.JoinOrder[:i], g.JoinOrder[i+1:]...)
				break
			}
		}
		return nil
	})
}

// Spectate registers a user as a spectator.
func (r *Registry) Spectate(guildID, userID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		if _, ok := g.Players[userID]; ok {
			return conflictf("players cannot spectate their own game")
		}
		if g.IsSpectator(userID) {
			return conflictf("you are already spectating")
		}
		g.Spectators = append(g.Spectators, userID)
		return nil
	})
}

// AddGM grants moderator rights; RemoveGM revokes them.
func (r *Registry) AddGM(guildID, byID, userID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if g.IsGM(userID) {
			return conflictf("that user is already a GM")
		}
		g.GMs = append(g.GMs, userID)
		return nil
	})
}

func (r *Registry) RemoveGM(guildID, byID, userID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if len(g.GMs) == 1 && g.GMs[0] == userID {
			return conflictf("cannot remove the last GM")
		}
		for i, id := range g.GMs {
			if id == userID {
				g.GMs = append(g.GMs[:i], g.GMs[i+1:]...)
				return nil
			}
		}
		return notFoundf("that user is not a GM")
	})
}

func requireGM(g *Game, userID string) error {
	if !g.IsGM(userID) {
		return deniedf("only a GM can do that")
	}
	return nil
}

// ConfigUpdate holds optional setting changes; nil fields are left
// untouched.
type ConfigUpdate struct {
	AnonMode       *bool
	SecretVotes    *bool
	DayLengthMin   *int
	NightLengthMin *int
	WinCondition   *string
	WinExpr        *string
	AutoPhase      *bool
	AllowNoElim    *bool
	MinVotes       *int
	VillageName    *string
	ElimName       *string
	GameTag        *string
	FlavorName     *string
	PMsEnabled     *bool
	GMsSeePMs      *bool

	GameMode     *string
	SeekerMode   *string
	ThugMode     *string
	CoinshotAmmo *int
	SmokerPhase  *string
	TineyePhase  *string
}

// Configure applies GM setting changes and returns human-readable
// change descriptions.
func (r *Registry) Configure(guildID, byID string, u ConfigUpdate) ([]string, error) {
	var changes []string
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if u.AnonMode != nil {
			if g.Status != StatusSetup {
				return invalidPhasef("anonymous mode can only change during setup")
			}
			g.Config.AnonMode = *u.AnonMode
			changes = append(changes, fmt.Sprintf("Anonymous mode: %v", *u.AnonMode))
		}
		if u.SecretVotes != nil {
			g.Config.SecretVotes = *u.SecretVotes
			changes = append(changes, fmt.Sprintf("Secret votes: %v", *u.SecretVotes))
		}
		if u.DayLengthMin != nil {
			if *u.DayLengthMin <= 0 {
				return conflictf("day length must be positive")
			}
			g.Config.DayLengthMin = *u.DayLengthMin
			changes = append(changes, fmt.Sprintf("Day length: %d minutes", *u.DayLengthMin))
		}
		if u.NightLengthMin != nil {
			if *u.NightLengthMin <= 0 {
				return conflictf("night length must be positive")
			}
			g.Config.NightLengthMin = *u.NightLengthMin
			changes = append(changes, fmt.Sprintf("Night length: %d minutes", *u.NightLengthMin))
		}
		if u.WinCondition != nil {
			wc := strings.ToLower(*u.WinCondition)
			switch wc {
			case "parity", "overparity", "last_man_standing", "custom":
			default:
				return conflictf("win condition must be parity, overparity, last_man_standing, or custom")
			}
			if wc == "custom" && g.Config.WinExpr == "" && (u.WinExpr == nil || *u.WinExpr == "") {
				return conflictf("custom win condition requires a win expression")
			}
			g.Config.WinCondition = wc
			changes = append(changes, fmt.Sprintf("Win condition: %s", wc))
		}
		if u.WinExpr != nil {
			if *u.WinExpr != "" {
				if err := CheckWinExpr(*u.WinExpr); err != nil {
					return conflictf("invalid win expression: %v", err)
				}
			}
			g.Config.WinExpr = *u.WinExpr
			changes = append(changes, "Win expression updated")
		}
		if u.AutoPhase != nil {
			g.Config.AutoPhase = *u.AutoPhase
			changes = append(changes, fmt.Sprintf("Automatic phase transitions: %v", *u.AutoPhase))
		}
		if u.AllowNoElim != nil {
			g.Config.AllowNoElim = *u.AllowNoElim
			changes = append(changes, fmt.Sprintf("No-elimination votes allowed: %v", *u.AllowNoElim))
		}
		if u.MinVotes != nil {
			if *u.MinVotes < -1 {
				return conflictf("minimum votes must be -1, 0, or positive")
			}
			g.Config.MinVotes = *u.MinVotes
			changes = append(changes, fmt.Sprintf("Minimum votes to eliminate: %d", *u.MinVotes))
		}
		if u.VillageName != nil {
			g.Config.VillageName = *u.VillageName
			changes = append(changes, fmt.Sprintf("Village faction name: %s", *u.VillageName))
		}
		if u.ElimName != nil {
			g.Config.ElimName = *u.ElimName
			changes = append(changes, fmt.Sprintf("Eliminator faction name: %s", *u.ElimName))
		}
		if u.GameTag != nil {
			g.Config.GameTag = *u.GameTag
			changes = append(changes, fmt.Sprintf("Game tag: %s", *u.GameTag))
		}
		if u.FlavorName != nil {
			g.Config.FlavorName = *u.FlavorName
			changes = append(changes, fmt.Sprintf("Flavor name: %s", *u.FlavorName))
		}
		if u.PMsEnabled != nil {
			g.Config.PMsEnabled = *u.PMsEnabled
			changes = append(changes, fmt.Sprintf("PMs enabled: %v", *u.PMsEnabled))
		}
		if u.GMsSeePMs != nil {
			g.Config.GMsSeePMs = *u.GMsSeePMs
			changes = append(changes, fmt.Sprintf("GMs see PMs: %v", *u.GMsSeePMs))
		}
		if u.GameMode != nil {
			m := strings.ToLower(*u.GameMode)
			if m != "all" && m != "tyrian" {
				return conflictf("game mode must be all or tyrian")
			}
			g.Roles.GameMode = m
			changes = append(changes, fmt.Sprintf("Game mode: %s", m))
		}
		if u.SeekerMode != nil {
			m := strings.ToLower(*u.SeekerMode)
			switch m {
			case "role_only", "alignment_only", "both":
			default:
				return conflictf("seeker mode must be role_only, alignment_only, or both")
			}
			g.Roles.SeekerMode = m
			changes = append(changes, fmt.Sprintf("Seeker mode: %s", m))
		}
		if u.ThugMode != nil {
			m := strings.ToLower(*u.ThugMode)
			switch m {
			case "survive", "delayed_phase", "delayed_cycle":
			default:
				return conflictf("thug mode must be survive, delayed_phase, or delayed_cycle")
			}
			g.Roles.ThugMode = m
			changes = append(changes, fmt.Sprintf("Thug mode: %s", m))
		}
		if u.CoinshotAmmo != nil {
			if *u.CoinshotAmmo < 0 {
				return conflictf("coinshot ammo must be 0 (unlimited) or positive")
			}
			g.Roles.CoinshotAmmo = *u.CoinshotAmmo
			if *u.CoinshotAmmo == 0 {
				changes = append(changes, "Coinshot ammo: unlimited")
			} else {
				changes = append(changes, fmt.Sprintf("Coinshot ammo: %d kill(s)", *u.CoinshotAmmo))
			}
		}
		if u.SmokerPhase != nil {
			pr, err := roles.ParsePhaseRule(*u.SmokerPhase)
			if err != nil {
				return conflictf("%v", err)
			}
			g.Roles.SmokerPhase = pr
			changes = append(changes, fmt.Sprintf("Smoker phase: %s", pr))
		}
		if u.TineyePhase != nil {
			pr, err := roles.ParsePhaseRule(*u.TineyePhase)
			if err != nil {
				return conflictf("%v", err)
			}
			g.Roles.TineyePhase = pr
			changes = append(changes, fmt.Sprintf("Tineye phase: %s", pr))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// AssignRole sets a participant's alignment and role. The role must
// exist and be legal for the configured game mode.
func (r *Registry) AssignRole(guildID, byID, targetQuery string, alignment Alignment, roleName string) (*Notification, error) {
	var noteOut *Notification
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		targetID, _, err := g.FindPlayer(targetQuery, false)
		if err != nil {
			return err
		}
		def, ok := r.roles.Lookup(roleName)
		if !ok {
			return notFoundf("unknown role %q", roleName)
		}
		if alignment != AlignVillage && alignment != AlignElims {
			return conflictf("alignment must be village or elims")
		}
		p := g.Players[targetID]
		p.Alignment = alignment
		p.Role = def.Name
		n := privateNote(targetID, fmt.Sprintf(
			"🎭 **Your Role Assignment:**\n**Alignment:** %s\n**Role:** %s",
			g.FactionName(alignment), def.Name))
		noteOut = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return noteOut, nil
}

// RandomizeAlignments shuffles the roster into eliminators and
// villagers. Zero elims means the default of a quarter of the roster,
// rounded up, minimum one.
func (r *Registry) RandomizeAlignments(guildID, byID string, numElims int) ([]string, error) {
	var lines []string
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if g.Status != StatusSetup {
			return invalidPhasef("alignments can only be randomized during setup")
		}
		total := len(g.Players)
		if total < 3 {
			return conflictf("need at least 3 players to randomize alignments")
		}
		if numElims <= 0 {
			numElims = max(1, (total+3)/4)
		}
		if numElims >= total {
			return conflictf("number of elims must be less than total players")
		}
		ids := make([]string, len(g.JoinOrder))
		copy(ids, g.JoinOrder)
		r.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		for i, id := range ids {
			p := g.Players[id]
			p.Role = roles.Vanilla
			if i < numElims {
				p.Alignment = AlignElims
				lines = append(lines, fmt.Sprintf("%s → **%s**", p.DisplayName, g.Config.ElimName))
			} else {
				p.Alignment = AlignVillage
				lines = append(lines, fmt.Sprintf("%s → **%s**", p.DisplayName, g.Config.VillageName))
			}
		}
		r.log.Info("alignments randomized",
			zap.String("guild_id", guildID),
			zap.Int("players", total),
			zap.Int("elims", numElims))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// AssignIdentities draws anonymous identities for players who lack one.
func (r *Registry) AssignIdentities(guildID, byID string) ([]Notification, error) {
	var notes []Notification
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if !g.Config.AnonMode {
			return conflictf("anonymous mode is not enabled")
		}
		for _, id := range g.JoinOrder {
			p := g.Players[id]
			if p.AnonIdentity != "" {
				continue
			}
			ident, ok := g.takeIdentity(r.intn)
			if !ok {
				return exhaustedf("the anonymous identity pool is empty")
			}
			p.AnonIdentity = ident.Name
			notes = append(notes, privateNote(id,
				fmt.Sprintf("🎭 **Your Anonymous Identity:** %s", ident.Name)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}
