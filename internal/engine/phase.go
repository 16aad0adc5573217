package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/roles"
)

// TransitionResult reports a completed phase transition.
type TransitionResult struct {
	From   PhaseStamp
	To     PhaseStamp
	Winner Winner
	// Deaths lists participants who died during this transition, so
	// the platform layer can move them to the dead thread.
	Deaths []string
	Notes  []Notification
}

// EndPhase resolves the current phase and switches to the next one.
// byID must be a GM, or empty for the automatic timer. expect, when
// non-nil, is the phase stamp the caller observed; a stale stamp means
// the phase was already resolved by someone else and the call fails
// cleanly instead of ending the next phase too.
func (r *Registry) EndPhase(guildID, byID string, expect *PhaseStamp) (*TransitionResult, error) {
	var res *TransitionResult
	err := r.WithGame(guildID, func(g *Game) error {
		if byID != "" {
			if err := requireGM(g, byID); err != nil {
				return err
			}
		}
		if g.Status != StatusActive {
			return invalidPhasef("the game is not active")
		}
		if expect != nil && *expect != g.Stamp() {
			return conflictf("this phase has already been resolved")
		}
		if g.resolving {
			return conflictf("phase resolution is already in progress")
		}
		g.resolving = true
		defer func() { g.resolving = false }()

		if g.IsDay() {
			res = r.endDay(g)
		} else {
			res = r.endNight(g)
		}
		r.log.Info("phase resolved",
			zap.String("guild_id", guildID),
			zap.String("from", string(res.From.Phase)),
			zap.Int("from_day", res.From.Day),
			zap.String("to", string(res.To.Phase)),
			zap.Int("to_day", res.To.Day),
			zap.Int("deaths", len(res.Deaths)),
			zap.String("winner", string(res.Winner)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// endDay resolves the day election and enters night.
func (r *Registry) endDay(g *Game) *TransitionResult {
	res := &TransitionResult{From: g.Stamp()}

	voteCount := g.FormatVoteCount()
	elimMsg := r.resolveElection(g, res)

	res.Notes = append(res.Notes, note(DestPublic, fmt.Sprintf(
		"☀️ **Day %d has ended.**\n\n%s\n\n%s\n\n🌙 **Night %d begins...**",
		g.DayNumber, voteCount, elimMsg, g.DayNumber)))

	g.Phase = PhaseNight
	g.PhaseEndsAt = r.now().Add(time.Duration(g.Config.NightLengthMin) * time.Minute)
	g.WarningsSent = make(map[string]bool)
	res.To = g.Stamp()

	r.applyDelayedDeaths(g, res)

	if w := r.evaluateWin(g); w != WinnerNone {
		r.finishGame(g, w, res)
	}
	res.Notes = append(res.Notes, g.drainResults()...)
	return res
}

// endNight resolves night actions and enters the next day.
func (r *Registry) endNight(g *Game) *TransitionResult {
	res := &TransitionResult{From: g.Stamp()}

	outcome := r.resolveNightActions(g)

	g.DayNumber++
	g.Phase = PhaseDay
	g.PhaseEndsAt = r.now().Add(time.Duration(g.Config.DayLengthMin) * time.Minute)
	g.WarningsSent = make(map[string]bool)
	res.To = g.Stamp()

	var killMsgs []string
	for _, id := range outcome.deaths {
		killMsgs = append(killMsgs, r.killPlayerOutright(g, id, res,
			fmt.Sprintf("💀 **%s was killed during the night!**", g.DisplayName(id))))
	}
	killMsg := "🛡️ **No one died during the night.**"
	if len(killMsgs) > 0 {
		killMsg = strings.Join(killMsgs, "\n")
	}

	r.applyDelayedDeaths(g, res)

	dayStart := fmt.Sprintf("☀️ **Day %d begins!**\n\n%s", g.DayNumber, killMsg)
	if tineye := g.formatTineyeMessages(); tineye != "" {
		dayStart += "\n" + tineye
	}
	dayStart += "\n\nDiscussion and voting are now open."
	res.Notes = append(res.Notes, note(DestPublic, dayStart))

	if w := r.evaluateWin(g); w != WinnerNone {
		r.finishGame(g, w, res)
	} else {
		r.drawMistbornPowers(g)
	}

	res.Notes = append(res.Notes, g.drainResults()...)
	return res
}

// resolveElection decides the day's elimination from the effective
// votes and returns the public announcement fragment.
func (r *Registry) resolveElection(g *Game, res *TransitionResult) string {
	raw := g.DayVotes()
	effective := g.effectiveVotes(true)

	// The forced-elimination sentinel keys off effective votes, so a
	// day where every cast vote was cancelled still forces one.
	if len(effective) == 0 {
		if g.Config.MinVotes == -1 {
			return r.randomElimination(g, res)
		}
		if len(raw) == 0 {
			return "**No votes were cast. No one was eliminated.**"
		}
		return "**No one was eliminated today.**"
	}

	maxVotes := 0
	for _, c := range effective {
		if c > maxVotes {
			maxVotes = c
		}
	}
	var top []string
	for t, c := range effective {
		if c == maxVotes {
			top = append(top, t)
		}
	}
	sort.Strings(top)

	if g.Config.MinVotes > 0 && maxVotes < g.Config.MinVotes {
		plural := ""
		if g.Config.MinVotes != 1 {
			plural = "s"
		}
		return fmt.Sprintf("**No one was eliminated today.** (Minimum %d vote%s required, only %d received)",
			g.Config.MinVotes, plural, maxVotes)
	}

	// The no-elimination option wins any tie it is part of.
	for _, t := range top {
		if t == VoteNone {
			return "**No one was eliminated today.** (Vote for no elimination won)"
		}
	}

	target := top[0]
	if len(top) > 1 {
		target = top[r.intn(len(top))]
	}
	return r.executePlayer(g, target, res)
}

// randomElimination picks a living player uniformly when no effective
// votes exist and the game forces an elimination.
func (r *Registry) randomElimination(g *Game, res *TransitionResult) string {
	alive := g.AlivePlayers()
	if len(alive) == 0 {
		return "**No votes were cast. No one was eliminated.**"
	}
	target := alive[r.intn(len(alive))].UserID
	msg := r.executePlayer(g, target, res)
	return strings.Replace(msg, "has been eliminated!", "has been randomly eliminated!", 1) + "\n*(No effective votes)*"
}

// executePlayer applies a day elimination, honoring the Thug's
// one-time survival.
func (r *Registry) executePlayer(g *Game, userID string, res *TransitionResult) string {
	p, ok := g.Players[userID]
	if !ok || !p.Alive {
		return "**No one was eliminated today.**"
	}
	if g.EffectiveRole(userID) == roles.Thug && !g.ThugUsed[userID] {
		g.ThugUsed[userID] = true
		name := g.DisplayName(userID)
		switch g.Roles.ThugMode {
		case "delayed_phase":
			// Executed during Day N: survive Night N, die when Day N+1
			// starts.
			g.DelayedDeaths = append(g.DelayedDeaths, DelayedDeath{UserID: userID, Day: g.DayNumber + 1, Phase: PhaseDay})
			g.queueResult(userID, "💪 The vote fell on you! Your Thug ability lets you survive one more phase before death.")
		case "delayed_cycle":
			// Executed during Day N: survive the full next cycle, die
			// when Night N+1 starts.
			g.DelayedDeaths = append(g.DelayedDeaths, DelayedDeath{UserID: userID, Day: g.DayNumber + 1, Phase: PhaseNight})
			g.queueResult(userID, "💪 The vote fell on you! Your Thug ability lets you survive one more full cycle before death.")
		default:
			g.queueResult(userID, "💪 The vote fell on you but your Thug ability saved you! (One-time use expended)")
			return fmt.Sprintf("**%s was voted for but survived!**", name)
		}
		return fmt.Sprintf("**%s was voted for but survived!**", name)
	}
	return r.killPlayerOutright(g, userID, res,
		fmt.Sprintf("💀 **%s has been eliminated!**", g.DisplayName(userID)))
}

// killPlayerOutright marks a participant dead and returns the reveal
// announcement. No protections apply here.
func (r *Registry) killPlayerOutright(g *Game, userID string, res *TransitionResult, headline string) string {
	p, ok := g.Players[userID]
	if !ok || !p.Alive {
		return headline
	}
	p.Alive = false
	g.Eliminated = append(g.Eliminated, userID)
	res.Deaths = append(res.Deaths, userID)
	return fmt.Sprintf("%s\nThey were: **%s - %s**", headline,
		g.FactionName(p.Alignment), g.RoleName(userID))
}

// applyDelayedDeaths kills participants whose postponed Thug deaths
// fall due at the phase that just began.
func (r *Registry) applyDelayedDeaths(g *Game, res *TransitionResult) {
	var remaining []DelayedDeath
	for _, d := range g.DelayedDeaths {
		if d.Day == g.DayNumber && d.Phase == g.Phase {
			msg := r.killPlayerOutright(g, d.UserID, res,
				fmt.Sprintf("💀 **%s succumbs to their wounds!**", g.DisplayName(d.UserID)))
			res.Notes = append(res.Notes, note(DestPublic, msg))
			continue
		}
		remaining = append(remaining, d)
	}
	g.DelayedDeaths = remaining
}

// finishGame ends the game and appends the winner announcement with a
// full role reveal.
func (r *Registry) finishGame(g *Game, w Winner, res *TransitionResult) {
	g.Status = StatusEnded
	g.Winner = w
	res.Winner = w

	var headline string
	switch w {
	case WinnerVillage:
		headline = fmt.Sprintf("🎉 **The %s wins!** All eliminators are dead.", g.Config.VillageName)
	case WinnerElims:
		headline = fmt.Sprintf("🔴 **The %s win!** They have reached parity with the village.", g.Config.ElimName)
	case WinnerLastStanding:
		survivorName := "No one"
		for _, p := range g.AlivePlayers() {
			survivorName = g.DisplayName(p.UserID)
		}
		headline = fmt.Sprintf("🏆 **%s is the last one standing!**", survivorName)
	default:
		headline = "🏁 **The game has been ended by the GM.**"
	}

	lines := []string{headline, "", "🎭 **Final Roles:**"}
	for _, id := range g.JoinOrder {
		p, ok := g.Players[id]
		if !ok {
			continue
		}
		status := "💀"
		if p.Alive {
			status = "❤️"
		}
		lines = append(lines, fmt.Sprintf("%s %s - **%s - %s**",
			status, g.DisplayName(id), g.FactionName(p.Alignment), g.RoleName(id)))
	}
	res.Notes = append(res.Notes, note(DestPublic, strings.Join(lines, "\n")))
	r.log.Info("game finished",
		zap.String("guild_id", g.GuildID),
		zap.String("winner", string(w)),
		zap.Int("day", g.DayNumber))
}

// ForceKill lets a GM kill a participant outright, bypassing
// protections and the Thug survival.
func (r *Registry) ForceKill(guildID, byID, targetQuery string) (*TransitionResult, error) {
	res := &TransitionResult{}
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		targetID, _, err := g.FindPlayer(targetQuery, true)
		if err != nil {
			return err
		}
		msg := r.killPlayerOutright(g, targetID, res,
			fmt.Sprintf("💀 **%s has been killed by the GM!**", g.DisplayName(targetID)))
		res.Notes = append(res.Notes, note(DestPublic, msg))
		res.From, res.To = g.Stamp(), g.Stamp()
		if g.Status == StatusActive {
			if w := r.evaluateWin(g); w != WinnerNone {
				r.finishGame(g, w, res)
			}
		}
		res.Notes = append(res.Notes, g.drainResults()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Revive brings a dead participant back. Win conditions are not
// re-evaluated; reviving is a GM correction tool.
func (r *Registry) Revive(guildID, byID, targetQuery string) (*Notification, error) {
	var out *Notification
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		targetID, _, err := g.FindPlayer(targetQuery, false)
		if err != nil {
			return err
		}
		p := g.Players[targetID]
		if p.Alive {
			return conflictf("%s is already alive", g.DisplayName(targetID))
		}
		p.Alive = true
		for i, id := range g.Eliminated {
			if id == targetID {
				g.Eliminated = append(g.Eliminated[:i], g.Eliminated[i+1:]...)
				break
			}
		}
		n := note(DestPublic, fmt.Sprintf("✨ **%s has been revived!**", g.DisplayName(targetID)))
		out = &n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EndGame ends a game early and returns the full reveal.
func (r *Registry) EndGame(guildID, byID string) (*TransitionResult, error) {
	res := &TransitionResult{}
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if g.Status == StatusEnded {
			return conflictf("the game has already ended")
		}
		r.finishGame(g, WinnerNone, res)
		res.From, res.To = g.Stamp(), g.Stamp()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// TimeRemaining reports the current phase and its remaining duration.
func (r *Registry) TimeRemaining(guildID string) (Phase, int, time.Duration, error) {
	var (
		phase Phase
		day   int
		left  time.Duration
	)
	err := r.WithGame(guildID, func(g *Game) error {
		if g.Status != StatusActive {
			return invalidPhasef("the game is not active")
		}
		phase = g.Phase
		day = g.DayNumber
		left = g.PhaseEndsAt.Sub(r.now())
		if left < 0 {
			left = 0
		}
		return nil
	})
	if err != nil {
		return "", 0, 0, err
	}
	return phase, day, left, nil
}

// ExtendPhase moves the current deadline by the given amount, which
// may be negative to shorten the phase.
func (r *Registry) ExtendPhase(guildID, byID string, delta time.Duration) (time.Time, error) {
	var deadline time.Time
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if g.Status != StatusActive {
			return invalidPhasef("the game is not active")
		}
		g.PhaseEndsAt = g.PhaseEndsAt.Add(delta)
		deadline = g.PhaseEndsAt
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return deadline, nil
}
