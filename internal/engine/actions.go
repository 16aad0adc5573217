package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tyrian-games/luthadel/internal/roles"
)

// TineyeMessageLimit caps anonymous day-start messages.
const TineyeMessageLimit = 500

// ActionResult reports a recorded role action back to the actor.
type ActionResult struct {
	Action          roles.Action
	TargetID        string
	TargetDisplay   string
	RedirectID      string
	RedirectDisplay string
	// AmmoRemaining is set for Coinshots playing with limited ammo. It
	// reflects the state after this night resolves.
	AmmoRemaining *int
}

// actorContext validates that a participant exists, lives, and may use
// the given action right now, resolving Mistborn indirection. It
// returns the effective role definition.
func (r *Registry) actorContext(g *Game, actorID string, action roles.Action) (roles.Definition, error) {
	p, ok := g.Players[actorID]
	if !ok {
		return roles.Definition{}, deniedf("you are not in this game")
	}
	if !p.Alive {
		return roles.Definition{}, deniedf("dead players cannot use actions")
	}
	if g.Status != StatusActive {
		return roles.Definition{}, invalidPhasef("the game is not active")
	}
	eff := g.EffectiveRole(actorID)
	if p.Role == roles.Mistborn && eff == roles.None {
		return roles.Definition{}, invalidPhasef("you have not been assigned a power yet")
	}
	if !r.roles.Allows(eff, action) {
		return roles.Definition{}, deniedf("your current role (%s) cannot perform this action", g.RoleName(actorID))
	}
	def, _ := r.roles.Get(eff)
	rule := def.ActionPhase
	switch action {
	case roles.ActionSmoke:
		rule = g.Roles.SmokerPhase
	case roles.ActionMessage:
		rule = g.Roles.TineyePhase
	}
	if !roles.PhaseAllowed(rule, g.IsDay()) {
		if rule == roles.PhaseDay {
			return roles.Definition{}, invalidPhasef("this action can only be used during the day")
		}
		return roles.Definition{}, invalidPhasef("this action can only be used at night")
	}
	return def, nil
}

// SubmitAction records a targeted role action. Resubmitting overwrites
// the previous one; the latest submission stands when the phase
// resolves.
func (r *Registry) SubmitAction(guildID, actorID string, action roles.Action, targetQuery, redirectQuery string) (*ActionResult, error) {
	var res ActionResult
	err := r.WithGame(guildID, func(g *Game) error {
		def, err := r.actorContext(g, actorID, action)
		if err != nil {
			return err
		}

		var targetID, targetDisplay string
		if action == roles.ActionKill {
			targetID, targetDisplay, err = g.ResolveKillTarget(targetQuery)
		} else {
			targetID, targetDisplay, err = g.FindPlayer(targetQuery, true)
		}
		if err != nil {
			return err
		}

		switch action {
		case roles.ActionKill:
			if g.Roles.CoinshotAmmo > 0 && g.CoinshotKillsUsed[actorID] >= g.Roles.CoinshotAmmo {
				return exhaustedf("you have used all your Coinshot ammunition (%d kill(s))", g.Roles.CoinshotAmmo)
			}
			if g.Roles.CoinshotAmmo > 0 {
				remaining := g.Roles.CoinshotAmmo - g.CoinshotKillsUsed[actorID] - 1
				res.AmmoRemaining = &remaining
			}
		case roles.ActionProtect:
			if def.Restricted("no_consecutive_target") && g.LurcherLastTarget[actorID] == targetID {
				return conflictf("you cannot protect the same player two nights in a row")
			}
		case roles.ActionRedirect:
			redirectID, redirectDisplay, err := g.ResolveVoteTarget(redirectQuery)
			if err != nil {
				return err
			}
			res.RedirectID = redirectID
			res.RedirectDisplay = redirectDisplay
		}

		rec := ActionRecord{
			Actor:       actorID,
			Target:      targetID,
			Redirect:    res.RedirectID,
			SubmittedAt: r.now(),
		}
		if def.ActionPhase == roles.PhaseDay || action == roles.ActionRedirect || action == roles.ActionCancel {
			g.recordAction(g.dayActionsFor(g.DayNumber), action, rec)
		} else {
			g.recordAction(g.nightActionsFor(g.DayNumber), action, rec)
		}

		res.Action = action
		res.TargetID = targetID
		res.TargetDisplay = targetDisplay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitElimKill records the eliminator faction's night kill. Any
// living eliminator may submit; the latest submission per actor stands.
func (r *Registry) SubmitElimKill(guildID, actorID, targetQuery string) (*ActionResult, error) {
	var res ActionResult
	err := r.WithGame(guildID, func(g *Game) error {
		p, ok := g.Players[actorID]
		if !ok {
			return deniedf("you are not in this game")
		}
		if !p.Alive {
			return deniedf("dead players cannot use actions")
		}
		if g.Status != StatusActive {
			return invalidPhasef("the game is not active")
		}
		if p.Alignment != AlignElims {
			return deniedf("you are not an eliminator")
		}
		if g.IsDay() {
			return invalidPhasef("night kills only happen during the night phase")
		}
		targetID, targetDisplay, err := g.ResolveKillTarget(targetQuery)
		if err != nil {
			return err
		}
		byActor, ok := g.ElimKills[g.DayNumber]
		if !ok {
			byActor = make(map[string]ActionRecord)
			g.ElimKills[g.DayNumber] = byActor
		}
		byActor[actorID] = ActionRecord{Actor: actorID, Target: targetID, SubmittedAt: r.now()}
		res.Action = roles.ActionElimKill
		res.TargetID = targetID
		res.TargetDisplay = targetDisplay
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SmokeStatus describes a Smoker's coppercloud for the !smoke command.
type SmokeStatus struct {
	Active          bool
	ExtendedDisplay string
}

// Smoke reads or changes a Smoker's coppercloud. Mode is "status",
// "on", "off", or "target" (with a target query).
func (r *Registry) Smoke(guildID, actorID, mode, targetQuery string) (*SmokeStatus, error) {
	var res SmokeStatus
	err := r.WithGame(guildID, func(g *Game) error {
		if mode == "status" {
			// Viewing is allowed in any phase; only changes honor the
			// configured phase window.
			p, ok := g.Players[actorID]
			if !ok {
				return deniedf("you are not in this game")
			}
			if !p.Alive {
				return deniedf("dead players cannot use actions")
			}
			if g.EffectiveRole(actorID) != roles.Smoker {
				return deniedf("your current role (%s) cannot perform this action", g.RoleName(actorID))
			}
		} else if _, err := r.actorContext(g, actorID, roles.ActionSmoke); err != nil {
			return err
		}
		st, ok := g.Smoke[actorID]
		if !ok {
			// Coppercloud starts on.
			st = &SmokeState{Active: true}
			g.Smoke[actorID] = st
		}
		switch mode {
		case "status":
		case "on":
			st.Active = true
		case "off":
			st.Active = false
		case "target":
			targetID, _, err := g.FindPlayer(targetQuery, true)
			if err != nil {
				return err
			}
			st.Extended = targetID
		default:
			return conflictf("unknown smoke mode %q", mode)
		}
		res.Active = st.Active
		if st.Extended != "" {
			res.ExtendedDisplay = g.DisplayName(st.Extended)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// TineyeMessage records (or, with empty text, reads) the Tineye's
// pending anonymous message for the next day start.
func (r *Registry) TineyeMessage(guildID, actorID, text string) (string, error) {
	var current string
	err := r.WithGame(guildID, func(g *Game) error {
		if _, err := r.actorContext(g, actorID, roles.ActionMessage); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			current = g.TineyeMessages[actorID]
			return nil
		}
		if utf8.RuneCountInString(text) > TineyeMessageLimit {
			return exhaustedf("messages are limited to %d characters", TineyeMessageLimit)
		}
		g.TineyeMessages[actorID] = text
		current = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return current, nil
}

// RoleStatus describes what a participant can currently do.
type RoleStatus struct {
	Role          roles.Role
	EffectiveRole roles.Role
	Alignment     Alignment
	Alive         bool
	Help          string
	Commands      []string
}

// RoleStatusFor returns a participant's role, their effective role
// after Mistborn indirection, and the matching help text.
func (r *Registry) RoleStatusFor(guildID, userID string) (*RoleStatus, error) {
	var res RoleStatus
	err := r.WithGame(guildID, func(g *Game) error {
		p, ok := g.Players[userID]
		if !ok {
			return deniedf("you are not in this game")
		}
		res.Role = p.Role
		res.EffectiveRole = g.EffectiveRole(userID)
		res.Alignment = p.Alignment
		res.Alive = p.Alive
		if def, ok := r.roles.Get(res.EffectiveRole); ok {
			res.Help = def.Help
			res.Commands = def.Commands
		} else if def, ok := r.roles.Get(p.Role); ok {
			res.Help = def.Help
			res.Commands = def.Commands
		}
		if p.Role == roles.Mistborn && res.EffectiveRole != roles.None {
			res.Help = fmt.Sprintf("Your current Mistborn power: **%s**\n\n%s", res.EffectiveRole, res.Help)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
