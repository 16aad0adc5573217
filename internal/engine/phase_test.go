package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyrian-games/luthadel/internal/roles"
)

func TestEndDayEliminatesPluralityTarget(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(6, 1))

	for _, voter := range []string{"p2", "p3", "p4"} {
		_, err := r.Vote("g", voter, "Player p5", false)
		require.NoError(t, err)
	}
	_, err := r.Vote("g", "p5", "Player p2", false)
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseStamp{Phase: PhaseDay, Day: 1}, res.From)
	assert.Equal(t, PhaseStamp{Phase: PhaseNight, Day: 1}, res.To)
	assert.Equal(t, []string{"p5"}, res.Deaths)

	out := publicText(t, res.Notes)
	assert.Contains(t, out, "**Player p5 has been eliminated!**")
	assert.Contains(t, out, "Final Vote Count")
	assert.Contains(t, out, "Night 1 begins")
}

func TestEndDayNoVotesNoElimination(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(5, 1))

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "No votes were cast. No one was eliminated.")
}

func TestEndDayRandomEliminationWhenForced(t *testing.T) {
	r, _ := testRegistry(t, 7)
	activeGame(t, r, "g", defaultRoster(5, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.MinVotes = -1
	})

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	require.Len(t, res.Deaths, 1)
	assert.Contains(t, publicText(t, res.Notes), "has been randomly eliminated!")
}

func TestEndDayForcedEliminationWhenAllVotesCancelled(t *testing.T) {
	r, _ := testRegistry(t, 7)
	specs := defaultRoster(5, 1)
	specs[1].role = roles.Soother // p2
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Config.MinVotes = -1
	})

	// The only cast vote is soothed away, so no effective votes
	// remain and the forced elimination still fires.
	_, err := r.Vote("g", "p3", "Player p4", false)
	require.NoError(t, err)
	_, err = r.SubmitAction("g", "p2", roles.ActionCancel, "Player p3", "")
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	require.Len(t, res.Deaths, 1)
	assert.Contains(t, publicText(t, res.Notes), "has been randomly eliminated!")
}

func TestEndDayMinVotesThreshold(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(6, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.MinVotes = 2
	})

	_, err := r.Vote("g", "p2", "Player p5", false)
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "Minimum 2 votes required, only 1 received")
}

func TestEndDayNoEliminationWinsTies(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(6, 1))

	_, err := r.Vote("g", "p2", "Player p5", false)
	require.NoError(t, err)
	_, err = r.Vote("g", "p3", "none", false)
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "Vote for no elimination won")
}

func TestEndDayTieBreaksAmongTiedPlayers(t *testing.T) {
	r, _ := testRegistry(t, 3)
	activeGame(t, r, "g", defaultRoster(6, 1))

	_, err := r.Vote("g", "p2", "Player p5", false)
	require.NoError(t, err)
	_, err = r.Vote("g", "p3", "Player p6", false)
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	require.Len(t, res.Deaths, 1)
	assert.Contains(t, []string{"p5", "p6"}, res.Deaths[0])
}

func TestEndDayThugSurvivesExecution(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[4].role = roles.Thug // p5
	activeGame(t, r, "g", specs)

	_, err := r.Vote("g", "p2", "Player p5", false)
	require.NoError(t, err)

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "**Player p5 was voted for but survived!**")

	mustGame(t, r, "g", func(g *Game) {
		assert.True(t, g.ThugUsed["p5"])
	})
}

func TestEndDayThugDelayedPhaseExecutionDiesNextDaybreak(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[4].role = roles.Thug // p5
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Roles.ThugMode = "delayed_phase"
	})

	_, err := r.Vote("g", "p2", "Player p5", false)
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)

	mustGame(t, r, "g", func(g *Game) {
		require.Len(t, g.DelayedDeaths, 1)
		assert.Equal(t, DelayedDeath{UserID: "p5", Day: 2, Phase: PhaseDay}, g.DelayedDeaths[0])
	})

	// Survives night 1, dies when day 2 begins.
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, res.Deaths)
}

func TestEndDayThugDelayedCycleExecutionDiesNextNightfall(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[4].role = roles.Thug // p5
	activeGame(t, r, "g", specs)
	mustGame(t, r, "g", func(g *Game) {
		g.Roles.ThugMode = "delayed_cycle"
	})

	_, err := r.Vote("g", "p2", "Player p5", false)
	require.NoError(t, err)
	_, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)

	// Survives night 1 and day 2.
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Deaths)

	// Dies when night 2 begins.
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, res.Deaths)
}

func TestEndPhasePermissionsAndStaleness(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))

	_, err := r.EndPhase("g", "p2", nil)
	assert.Equal(t, KindPermissionDenied, KindOf(err))

	stale := PhaseStamp{Phase: PhaseDay, Day: 1}
	_, err = r.EndPhase("g", "gm", &stale)
	require.NoError(t, err)

	// The same observed stamp cannot end the next phase too.
	_, err = r.EndPhase("g", "", &stale)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestVillageWinsWhenLastEliminatorDies(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(5, 1))

	for _, voter := range []string{"p2", "p3", "p4"} {
		_, err := r.Vote("g", voter, "Player p1", false)
		require.NoError(t, err)
	}
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerVillage, res.Winner)

	out := publicText(t, res.Notes)
	assert.Contains(t, out, "All eliminators are dead")
	assert.Contains(t, out, "Final Roles")

	mustGame(t, r, "g", func(g *Game) {
		assert.Equal(t, StatusEnded, g.Status)
		assert.Equal(t, WinnerVillage, g.Winner)
	})

	_, err = r.Vote("g", "p2", "Player p3", false)
	assert.Equal(t, KindInvalidPhase, KindOf(err))
}

func TestElimsWinAtParity(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))
	toNight(t, r, "g")

	// 1 eliminator vs 3 villagers; one kill leaves 1 vs 2, a second
	// night reaches 1 vs 1 parity.
	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerNone, res.Winner)

	toNight(t, r, "g")
	_, err = r.SubmitElimKill("g", "p1", "Player p4")
	require.NoError(t, err)
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerElims, res.Winner)
	assert.Contains(t, publicText(t, res.Notes), "reached parity")
}

func TestOverparityNeedsStrictMajority(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.WinCondition = "overparity"
	})
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerNone, res.Winner)

	toNight(t, r, "g")
	_, err = r.SubmitElimKill("g", "p1", "Player p4")
	require.NoError(t, err)

	// 1 vs 1 is not enough under overparity.
	res, err = r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerNone, res.Winner)
}

func TestLastManStandingWin(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(3, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.WinCondition = "last_man_standing"
		g.Players["p2"].Alive = false
	})
	toNight(t, r, "g")

	_, err := r.SubmitElimKill("g", "p1", "Player p3")
	require.NoError(t, err)
	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerLastStanding, res.Winner)
	assert.Contains(t, publicText(t, res.Notes), "**Player p1 is the last one standing!**")
}

func TestCustomWinExpression(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.WinCondition = "custom"
		g.Config.WinExpr = `day >= 2 ? "village" : ""`
	})
	toNight(t, r, "g")

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerVillage, res.Winner)
}

func TestBrokenCustomWinExpressionNeverDecidesGame(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Config.WinCondition = "custom"
		g.Config.WinExpr = `day +` // does not compile
	})

	res, err := r.EndPhase("g", "gm", nil)
	require.NoError(t, err)
	assert.Equal(t, WinnerNone, res.Winner)
	mustGame(t, r, "g", func(g *Game) {
		assert.Equal(t, StatusActive, g.Status)
	})
}

func TestForceKillBypassesProtections(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(6, 1)
	specs[4].role = roles.Thug // p5
	activeGame(t, r, "g", specs)

	_, err := r.ForceKill("g", "p2", "Player p5")
	assert.Equal(t, KindPermissionDenied, KindOf(err))

	res, err := r.ForceKill("g", "gm", "Player p5")
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, res.Deaths)
	assert.Contains(t, publicText(t, res.Notes), "killed by the GM")

	mustGame(t, r, "g", func(g *Game) {
		assert.False(t, g.Players["p5"].Alive)
		assert.False(t, g.ThugUsed["p5"])
	})
}

func TestReviveRestoresPlayer(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(5, 1))

	_, err := r.ForceKill("g", "gm", "Player p3")
	require.NoError(t, err)

	n, err := r.Revive("g", "gm", "Player p3")
	require.NoError(t, err)
	assert.Contains(t, n.Text, "has been revived")

	mustGame(t, r, "g", func(g *Game) {
		assert.True(t, g.Players["p3"].Alive)
		assert.NotContains(t, g.Eliminated, "p3")
	})

	_, err = r.Revive("g", "gm", "Player p3")
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestEndGameRevealsAllRoles(t *testing.T) {
	r, _ := testRegistry(t, 1)
	specs := defaultRoster(4, 1)
	specs[1].role = roles.Seeker // p2
	activeGame(t, r, "g", specs)

	res, err := r.EndGame("g", "gm")
	require.NoError(t, err)
	assert.Equal(t, WinnerNone, res.Winner)

	out := publicText(t, res.Notes)
	assert.Contains(t, out, "ended by the GM")
	assert.Contains(t, out, "Seeker")

	_, err = r.EndGame("g", "gm")
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestTimeRemainingAndExtend(t *testing.T) {
	r, clock := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(4, 1))

	clock.Advance(30 * time.Minute)
	phase, day, left, err := r.TimeRemaining("g")
	require.NoError(t, err)
	assert.Equal(t, PhaseDay, phase)
	assert.Equal(t, 1, day)
	assert.Equal(t, 2850*time.Minute, left)

	deadline, err := r.ExtendPhase("g", "gm", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(2880*time.Minute).Add(time.Hour), deadline)

	// Shrinking past the clock clamps the report at zero.
	_, err = r.ExtendPhase("g", "gm", -5000*time.Minute)
	require.NoError(t, err)
	_, _, left, err = r.TimeRemaining("g")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), left)
}
