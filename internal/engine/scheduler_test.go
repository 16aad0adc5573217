package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepFiresWarningsOnce(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))

	// Quiet until a warning window opens.
	events := r.Sweep(clock.Now())
	assert.Empty(t, events)

	clock.Advance(2880*time.Minute - 5*time.Minute)
	events = r.Sweep(clock.Now())
	require.Len(t, events, 1)
	require.Len(t, events[0].Notes, 1)
	assert.Contains(t, events[0].Notes[0].Text, "5 minutes remaining")
	assert.Nil(t, events[0].Transition)

	// The same rung never fires twice.
	clock.Advance(2 * time.Second)
	events = r.Sweep(clock.Now())
	assert.Empty(t, events)

	clock.Advance(3 * time.Minute)
	events = r.Sweep(clock.Now())
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Notes[0].Text, "2 minutes remaining")
}

func TestSweepJitteredCadenceHitsEveryRung(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))

	// A cron tick lands wherever it lands; 13-second steps never align
	// with a window edge, and every rung must still fire exactly once.
	clock.Advance(2880*time.Minute - 370*time.Second)
	fired := make(map[string]int)
	for i := 0; i < 40; i++ {
		events := r.Sweep(clock.Now())
		done := false
		for _, ev := range events {
			for _, n := range ev.Notes {
				fired[n.Text]++
			}
			if ev.Transition != nil {
				done = true
			}
		}
		if done {
			break
		}
		clock.Advance(13 * time.Second)
	}

	for _, w := range warningLadder {
		assert.Equal(t, 1, fired[w.text], w.key)
	}
}

func TestSweepResolvesExpiredPhase(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))

	clock.Advance(2880*time.Minute + time.Second)
	events := r.Sweep(clock.Now())
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Transition)
	assert.Equal(t, PhaseStamp{Phase: PhaseDay, Day: 1}, events[0].Transition.From)
	assert.Equal(t, PhaseStamp{Phase: PhaseNight, Day: 1}, events[0].Transition.To)

	// The warnings reset for the new phase.
	mustGame(t, r, "g", func(g *Game) {
		assert.Empty(t, g.WarningsSent)
	})
}

func TestSweepHonorsManualTransitions(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))

	clock.Advance(2880*time.Minute + time.Second)

	// A GM beat the timer; the sweep must not end night 1 as well.
	_, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)

	events := r.Sweep(clock.Now())
	for _, ev := range events {
		assert.Nil(t, ev.Transition)
	}
	mustGame(t, r, "g", func(g *Game) {
		assert.Equal(t, PhaseStamp{Phase: PhaseNight, Day: 1}, g.Stamp())
	})
}

func TestSweepSkipsManualModeAndInactiveGames(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "auto", defaultRoster(4, 1))
	activeGame(t, r, "manual", defaultRoster(4, 1))
	mustGame(t, r, "manual", func(g *Game) {
		g.Config.AutoPhase = false
	})
	setupGame(t, r, "lobby", "p1")

	clock.Advance(2880*time.Minute + time.Second)
	events := r.Sweep(clock.Now())
	require.Len(t, events, 1)
	assert.Equal(t, "auto", events[0].GuildID)
}

func TestSweepRemindsSilentEliminators(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Channels.ElimThreadID = "elim-1"
	})
	toNight(t, r, "g")

	// toNight pushes the deadline a night length past the day deadline.
	clock.Advance(4320*time.Minute - time.Minute)
	events := r.Sweep(clock.Now())
	require.Len(t, events, 1)
	require.Len(t, events[0].Notes, 2)
	assert.Equal(t, DestElim, events[0].Notes[1].Dest)
	assert.Contains(t, events[0].Notes[1].Text, "haven't submitted a kill")

	// Once a kill is in, the nudge stops riding along.
	mustGame(t, r, "g", func(g *Game) {
		g.WarningsSent = make(map[string]bool)
	})
	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	events = r.Sweep(clock.Now())
	require.Len(t, events, 1)
	assert.Len(t, events[0].Notes, 1)
}

func TestSweepRemindsAnonNonVoters(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(3, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.AnonMode = true
	})

	_, err := r.Vote("g", "p2", "Player p3", true)
	require.NoError(t, err)

	clock.Advance(2880*time.Minute - time.Minute)
	events := r.Sweep(clock.Now())
	require.Len(t, events, 1)

	var reminded []string
	for _, n := range events[0].Notes {
		if n.Dest == DestPrivate {
			reminded = append(reminded, n.UserID)
		}
	}
	assert.ElementsMatch(t, []string{"p1", "p3"}, reminded)
}
