package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyrian-games/luthadel/internal/roles"
)

func privateNotes(notes []Notification, userID string) []string {
	var out []string
	for _, n := range notes {
		if n.Dest == DestPrivate && n.UserID == userID {
			out = append(out, n.Text)
		}
	}
	return out
}

func publicText(t *testing.T, notes []Notification) string {
	t.Helper()
	var out string
	for _, n := range notes {
		if n.Dest == DestPublic {
			out += n.Text + "\n"
		}
	}
	require.NotEmpty(t, out)
	return out
}

func TestElimKillResolvesAtNightEnd(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(6, 1))
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseStamp{Phase: PhaseNight, Day: 1}, res.From)
	assert.Equal(t, PhaseStamp{Phase: PhaseDay, Day: 2}, res.To)
	assert.Equal(t, []string{"p3"}, res.Deaths)

	out := publicText(t, res.Notes)
	assert.Contains(t, out, "**Player p3 was killed during the night!**")
	assert.Contains(t, out, "Vanilla")

	mustGame(t, r, "g", func(g *Game) {
		assert.False(t, g.Players["p3"].Alive)
		assert.Equal(t, []string{"p3"}, g.Eliminated)
	})
}

func TestElimKillOverwriteLatestStands(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(6, 1))
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	_, err = r.SubmitElimKill("g", "p1", "Player p4")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, res.Deaths)
}

func TestLurcherProtectionSavesTarget(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[1].role = roles.Lurcher // p2
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p2", roles.ActionProtect, "Player p3", "")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "No one died during the night")

	fb := privateNotes(res.Notes, "p2")
	require.Len(t, fb, 1)
	assert.Contains(t, fb[0], "Your protection saved them")

	mustGame(t, r, "g", func(g *Game) {
		assert.True(t, g.Players["p3"].Alive)
		assert.Equal(t, "p3", g.LurcherLastTarget["p2"])
	})

	// The same target cannot be protected two nights running.
	toNight(t, r, "g")
	_, err = r.SubmitAction("g", "p2", roles.ActionProtect, "Player p3", "")
	assert.Equal(t, KindConflict, KindOf(err))
	_, err = r.SubmitAction("g", "p2", roles.ActionProtect, "Player p4", "")
	assert.NoError(t, err)
}

func TestTwoKillsOverwhelmOneProtection(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(7, 1)
	specs[1].role = roles.Coinshot // p2
	specs[2].role = roles.Lurcher  // p3
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p5")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p2", roles.ActionKill, "Player p5", "")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p3", roles.ActionProtect, "Player p5", "")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, res.Deaths)
}

func TestEachProtectionCancelsOneKill(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(8, 1)
	specs[1].role = roles.Coinshot // p2
	specs[2].role = roles.Lurcher  // p3
	specs[3].role = roles.Lurcher  // p4
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	// Two attackers, two protectors: one-for-one cancellation saves
	// the target.
	_, err := r.SubmitElimKill("g", "p1", "Player p5")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p2", roles.ActionKill, "Player p5", "")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p3", roles.ActionProtect, "Player p5", "")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p4", roles.ActionProtect, "Player p5", "")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "No one died during the night")

	mustGame(t, r, "g", func(g *Game) {
		assert.True(t, g.Players["p5"].Alive)
	})
	for _, protectorID := range []string{"p3", "p4"} {
		fb := privateNotes(res.Notes, protectorID)
		require.Len(t, fb, 1)
		assert.Contains(t, fb[0], "Your protection saved them")
	}
}

func TestCoinshotAmmoSpendAndExhaustion(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(7, 1)
	specs[1].role = roles.Coinshot // p2
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Roles.CoinshotAmmo = 1
	})
	toNight(t, r, "g")

	res, err := r.SubmitAction("g", "p2", roles.ActionKill, "Player p4", "")
	require.NoError(t, err)
	require.NotNil(t, res.AmmoRemaining)
	assert.Equal(t, 0, *res.AmmoRemaining)

	tr, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, tr.Deaths)

	mustGame(t, r, "g", func(g *Game) {
		assert.Equal(t, 1, g.CoinshotKillsUsed["p2"])
	})

	toNight(t, r, "g")
	_, err = r.SubmitAction("g", "p2", roles.ActionKill, "Player p5", "")
	assert.Equal(t, KindResourceExhausted, KindOf(err))
}

func TestCoinshotAmmoSpentEvenWhenBlocked(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(7, 1)
	specs[1].role = roles.Coinshot // p2
	specs[2].role = roles.Lurcher  // p3
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Roles.CoinshotAmmo = 1
	})
	toNight(t, r, "g")

	_, err := r.SubmitAction("g", "p2", roles.ActionKill, "Player p5", "")
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p3", roles.ActionProtect, "Player p5", "")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)

	mustGame(t, r, "g", func(g *Game) {
		assert.Equal(t, 1, g.CoinshotKillsUsed["p2"])
	})
}

func TestThugSurvivesFirstAttackOnly(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[2].role = roles.Thug // p3
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)

	fb := privateNotes(res.Notes, "p3")
	require.Len(t, fb, 1)
	assert.Contains(t, fb[0], "Thug ability saved you")

	toNight(t, r, "g")
	_, err = r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, res.Deaths)
}

func TestThugDelayedPhaseDiesNextNightfall(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[2].role = roles.Thug // p3
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Roles.ThugMode = "delayed_phase"
	})
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)

	mustGame(t, r, "g", func(g *Game) {
		require.Len(t, g.DelayedDeaths, 1)
		assert.Equal(t, DelayedDeath{UserID: "p3", Day: 2, Phase: PhaseNight}, g.DelayedDeaths[0])
		assert.True(t, g.Players["p3"].Alive)
	})

	// The wound falls due when day 2 ends and night begins.
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "succumbs to their wounds")
}

func TestThugDelayedCycleDiesNextDaybreak(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[2].role = roles.Thug // p3
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Roles.ThugMode = "delayed_cycle"
	})
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	_, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)

	// Survives all of day 2 and night 2.
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)

	// Dies when day 3 begins.
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "succumbs to their wounds")
}

func TestSeekerRevealModes(t *testing.T) {
	cases := []struct {
		mode     string
		contains []string
		excludes []string
	}{
		{mode: "both", contains: []string{"Elims", "Coinshot"}},
		{mode: "role_only", contains: []string{"Coinshot"}, excludes: []string{"Elims"}},
		{mode: "alignment_only", contains: []string{"Elims"}, excludes: []string{"Coinshot"}},
	}
	for _, tc := range cases {
		t.Run(tc.mode, func(t *testing.T) {
			r, _ := testRegistry(t, 1)
			specs := defaultRoster(6, 1)
			specs[0].role = roles.Coinshot // p1, eliminator
			specs[1].role = roles.Seeker   // p2
			activeGame(t, r, "g", specs)
			mustGame(t, r, "g", func(g *Game) {
				g.Roles.SeekerMode = tc.mode
			})
			toNight(t, r, "g")

			_, err := r.SubmitAction("g", "p2", roles.ActionSeek, "Player p1", "")
			require.NoError(t, err)
			res, err := r.EndPhase("g", "gm", nil)
			require.NoError(t, err)

			fb := privateNotes(res.Notes, "p2")
			require.Len(t, fb, 1)
			for _, want := range tc.contains {
				assert.Contains(t, fb[0], want)
			}
			for _, not := range tc.excludes {
				assert.NotContains(t, fb[0], not)
			}
		})
	}
}

func TestSeekerBlockedByCoppercloud(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[1].role = roles.Seeker // p2
	specs[2].role = roles.Smoker // p3, cloud on by default
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	_, err := r.SubmitAction("g", "p2", roles.ActionSeek, "Player p3", "")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)

	fb := privateNotes(res.Notes, "p2")
	require.Len(t, fb, 1)
	assert.Contains(t, fb[0], "blocked by interference")
}

func TestSeekerSeesThroughDisabledCloud(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[1].role = roles.Seeker // p2
	specs[2].role = roles.Smoker // p3
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Smoke["p3"] = &SmokeState{Active: false}
	})
	toNight(t, r, "g")

	_, err := r.SubmitAction("g", "p2", roles.ActionSeek, "Player p3", "")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)

	fb := privateNotes(res.Notes, "p2")
	require.Len(t, fb, 1)
	assert.Contains(t, fb[0], "Smoker")
}

func TestDeadSeekerLearnsNothing(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[1].role = roles.Seeker // p2
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	_, err := r.SubmitAction("g", "p2", roles.ActionSeek, "Player p4", "")
	require.NoError(t, err)
	_, err = r.SubmitElimKill("g", "p1", "Player p2")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, res.Deaths)
	assert.Empty(t, privateNotes(res.Notes, "p2"))
}

func TestTineyeMessagePostedAtDaybreakThenCleared(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[1].role = roles.Tineye // p2
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	_, err := r.TineyeMessage("g", "p2", "The mists are restless tonight.")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	out := publicText(t, res.Notes)
	assert.Contains(t, out, "Anonymous Messages")
	assert.Contains(t, out, "The mists are restless tonight.")

	mustGame(t, r, "g", func(g *Game) {
		assert.Empty(t, g.TineyeMessages)
	})
}

func TestTineyeMessageLengthLimit(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(4, 1)
	specs[1].role = roles.Tineye // p2
	activeGame(t, r, "g", specs)
	toNight(t, r, "g")

	long := make([]rune, TineyeMessageLimit+1)
	for i := range long {
		long[i] = 'm'
	}
	_, err := r.TineyeMessage("g", "p2", string(long))
	assert.Equal(t, KindResourceExhausted, KindOf(err))
}
