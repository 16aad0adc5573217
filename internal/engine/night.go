package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tyrian-games/luthadel/internal/roles"
)

// nightOutcome is what a resolved night did to the roster.
type nightOutcome struct {
	// deaths are the participants killed tonight, in a stable order.
	deaths []string
	// saves are participants who were attacked and lived.
	saves []string
}

// resolveNightActions runs the night pipeline: collect kills, apply
// protections, apply one-time survivals, then investigations. Private
// feedback is queued on the game for the phase-end drain.
func (r *Registry) resolveNightActions(g *Game) nightOutcome {
	var out nightOutcome
	actions := g.nightActionsFor(g.DayNumber)

	// Kill claims per target, eliminator faction first.
	killTargets := make(map[string][]string)
	for _, actorID := range sortedElimActors(g) {
		rec := g.ElimKills[g.DayNumber][actorID]
		if rec.Target != "" && rec.Target != KillNone {
			killTargets[rec.Target] = append(killTargets[rec.Target], actorID)
		}
	}
	for _, actorID := range sortedActors(actions[roles.ActionKill]) {
		rec := actions[roles.ActionKill][actorID]
		if rec.Target == "" || rec.Target == KillNone {
			continue
		}
		killTargets[rec.Target] = append(killTargets[rec.Target], actorID)
		// Ammo is spent by submitting, whatever the outcome.
		g.CoinshotKillsUsed[actorID]++
	}

	// Protections block one kill each.
	protections := make(map[string][]string)
	for _, actorID := range sortedActors(actions[roles.ActionProtect]) {
		rec := actions[roles.ActionProtect][actorID]
		protections[rec.Target] = append(protections[rec.Target], actorID)
		g.LurcherLastTarget[actorID] = rec.Target
	}

	targets := make([]string, 0, len(killTargets))
	for t := range killTargets {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	for _, targetID := range targets {
		p, ok := g.Players[targetID]
		if !ok || !p.Alive {
			continue
		}
		// Each protection cancels one kill claim; attackers beyond the
		// protector count still get through.
		remaining := len(killTargets[targetID])
		if protectors := protections[targetID]; len(protectors) > 0 {
			remaining -= len(protectors)
			for _, protectorID := range protectors {
				g.queueResult(protectorID, "🛡️ Your target was attacked last night. Your protection saved them!")
			}
		}
		if remaining <= 0 {
			out.saves = append(out.saves, targetID)
			continue
		}
		if g.EffectiveRole(targetID) == roles.Thug && !g.ThugUsed[targetID] {
			g.ThugUsed[targetID] = true
			out.saves = append(out.saves, targetID)
			switch g.Roles.ThugMode {
			case "delayed_phase":
				// Attacked during Night N: survive Day N+1, die when
				// Night N+1 starts.
				g.DelayedDeaths = append(g.DelayedDeaths, DelayedDeath{UserID: targetID, Day: g.DayNumber + 1, Phase: PhaseNight})
				g.queueResult(targetID, "💪 You were attacked! Your Thug ability lets you survive one more phase before death.")
			case "delayed_cycle":
				// Attacked during Night N: survive the full next cycle,
				// die when Day N+2 starts.
				g.DelayedDeaths = append(g.DelayedDeaths, DelayedDeath{UserID: targetID, Day: g.DayNumber + 2, Phase: PhaseDay})
				g.queueResult(targetID, "💪 You were attacked! Your Thug ability lets you survive one more full cycle before death.")
			default:
				g.queueResult(targetID, "💪 You were attacked but your Thug ability saved you! (One-time use expended)")
			}
			continue
		}
		out.deaths = append(out.deaths, targetID)
	}

	// Investigations run after kills; a dead Seeker learns nothing.
	for _, actorID := range sortedActors(actions[roles.ActionSeek]) {
		rec := actions[roles.ActionSeek][actorID]
		seeker, ok := g.Players[actorID]
		if !ok || !seeker.Alive || diedTonight(out.deaths, actorID) {
			continue
		}
		target, ok := g.Players[rec.Target]
		if !ok {
			continue
		}
		if g.IsSmoked(rec.Target) {
			g.queueResult(actorID, "🔍 Your investigation was blocked by interference. You learned nothing.")
			continue
		}
		name := g.DisplayName(rec.Target)
		switch g.Roles.SeekerMode {
		case "role_only":
			g.queueResult(actorID, fmt.Sprintf("🔍 **%s** has the role: **%s**", name, g.RoleName(rec.Target)))
		case "alignment_only":
			g.queueResult(actorID, fmt.Sprintf("🔍 **%s** is aligned with: **%s**", name, g.FactionName(target.Alignment)))
		default:
			g.queueResult(actorID, fmt.Sprintf("🔍 **%s** is **%s** - **%s**", name, g.FactionName(target.Alignment), g.RoleName(rec.Target)))
		}
	}

	return out
}

func sortedElimActors(g *Game) []string {
	byActor := g.ElimKills[g.DayNumber]
	ids := make([]string, 0, len(byActor))
	for id := range byActor {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func diedTonight(deaths []string, userID string) bool {
	for _, id := range deaths {
		if id == userID {
			return true
		}
	}
	return false
}

// formatTineyeMessages renders and clears pending anonymous messages
// for the day start announcement.
func (g *Game) formatTineyeMessages() string {
	if len(g.TineyeMessages) == 0 {
		return ""
	}
	ids := make([]string, 0, len(g.TineyeMessages))
	for id := range g.TineyeMessages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lines := []string{"\n📜 **Anonymous Messages:**"}
	for i, id := range ids {
		if i > 0 {
			lines = append(lines, "---")
		}
		lines = append(lines, fmt.Sprintf("*%s*", g.TineyeMessages[id]))
	}
	g.TineyeMessages = make(map[string]string)
	return strings.Join(lines, "\n")
}
