package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// warningThreshold is one rung of the phase-end warning ladder. Each
// window is twice the sweep cadence, so a rung cannot fall between two
// ticks even when the scheduler jitters; the sent-set keeps each rung
// to one firing per phase.
type warningThreshold struct {
	minSec, maxSec float64
	key            string
	text           string
}

var warningLadder = []warningThreshold{
	{290, 310, "5min", "⏰ **5 minutes remaining** in this phase!"},
	{110, 130, "2min", "⏰ **2 minutes remaining** in this phase!"},
	{50, 70, "1min", "⏰ **1 minute remaining** in this phase!"},
	{2, 22, "10sec", "⏰ **10 seconds remaining** in this phase!"},
}

// SweepEvent is everything one sweep produced for one game.
type SweepEvent struct {
	GuildID    string
	Notes      []Notification
	Transition *TransitionResult
}

// Sweep walks every game, fires due phase warnings, and resolves
// phases whose deadline has passed. The time is explicit so the cron
// binding stays a one-liner and tests control the clock.
func (r *Registry) Sweep(now time.Time) []SweepEvent {
	var events []SweepEvent
	for _, guildID := range r.GuildIDs() {
		ev := SweepEvent{GuildID: guildID}
		var due *PhaseStamp

		err := r.WithGame(guildID, func(g *Game) error {
			if g.Status != StatusActive || !g.Config.AutoPhase || g.PhaseEndsAt.IsZero() {
				return nil
			}
			remaining := g.PhaseEndsAt.Sub(now).Seconds()

			for _, w := range warningLadder {
				if remaining >= w.minSec && remaining < w.maxSec && !g.WarningsSent[w.key] {
					g.WarningsSent[w.key] = true
					ev.Notes = append(ev.Notes, note(DestPublic, w.text))
					ev.Notes = append(ev.Notes, g.warningReminders(w.text)...)
				}
			}

			if remaining <= 0 {
				stamp := g.Stamp()
				due = &stamp
			}
			return nil
		})
		if err != nil {
			continue
		}

		if due != nil {
			tr, err := r.EndPhase(guildID, "", due)
			if err != nil {
				// A concurrent manual end already resolved it.
				r.log.Debug("sweep transition skipped",
					zap.String("guild_id", guildID),
					zap.Error(err))
			} else {
				ev.Transition = tr
			}
		}

		if len(ev.Notes) > 0 || ev.Transition != nil {
			events = append(events, ev)
		}
	}
	return events
}

// warningReminders adds the targeted nudges that ride along with a
// phase warning: eliminators who have not submitted a kill, and, in
// anonymous games, players who have not voted.
func (g *Game) warningReminders(text string) []Notification {
	var notes []Notification
	if g.Phase == PhaseNight {
		if len(g.ElimKills[g.DayNumber]) == 0 && g.Channels.ElimThreadID != "" {
			notes = append(notes, note(DestElim, fmt.Sprintf(
				"%s\n⚠️ **Reminder:** You haven't submitted a kill yet! Use `!kill [player]` or `!kill none`", text)))
		}
		return notes
	}
	if !g.Config.AnonMode {
		return notes
	}
	votes := g.DayVotes()
	suffix := ""
	if g.Config.AllowNoElim {
		suffix = " or `!vote none`"
	}
	for _, p := range g.AlivePlayers() {
		if _, voted := votes[p.UserID]; !voted {
			notes = append(notes, privateNote(p.UserID, fmt.Sprintf(
				"%s\n⚠️ **Reminder:** You haven't voted yet! Use `!vote [player]`%s", text, suffix)))
		}
	}
	return notes
}
