package engine

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/data"
	"github.com/tyrian-games/luthadel/internal/roles"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock for registry tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testRegistry(t *testing.T, seed int64) (*Registry, *testClock) {
	t.Helper()
	roleReg, err := roles.NewRegistry()
	require.NoError(t, err)
	ids, err := data.NewLoader(nil).LoadIdentities()
	require.NoError(t, err)
	clock := &testClock{now: testStart}
	r := NewRegistry(roleReg, ids, zap.NewNop(),
		WithRand(rand.New(rand.NewSource(seed))),
		WithClock(clock.Now))
	return r, clock
}

// playerSpec describes one roster entry for test games.
type playerSpec struct {
	id        string
	role      roles.Role
	alignment Alignment
}

// activeGame builds a running game on day 1 with the given roster.
func activeGame(t *testing.T, r *Registry, guildID string, specs []playerSpec) {
	t.Helper()
	_, err := r.CreateGame(guildID, "gm")
	require.NoError(t, err)
	for _, s := range specs {
		_, err := r.Join(guildID, s.id, s.id+"_user", displayFor(s.id))
		require.NoError(t, err)
	}
	err = r.WithGame(guildID, func(g *Game) error {
		for _, s := range specs {
			p := g.Players[s.id]
			p.Role = s.role
			p.Alignment = s.alignment
		}
		g.Status = StatusActive
		g.Phase = PhaseDay
		g.DayNumber = 1
		g.PhaseEndsAt = testStart.Add(time.Duration(g.Config.DayLengthMin) * time.Minute)
		return nil
	})
	require.NoError(t, err)
}

// displayFor gives each test player a distinctive display name.
func displayFor(id string) string {
	return "Player " + id
}

// toNight flips an active game to its night phase without resolving
// the day.
func toNight(t *testing.T, r *Registry, guildID string) {
	t.Helper()
	err := r.WithGame(guildID, func(g *Game) error {
		g.Phase = PhaseNight
		g.PhaseEndsAt = g.PhaseEndsAt.Add(time.Duration(g.Config.NightLengthMin) * time.Minute)
		return nil
	})
	require.NoError(t, err)
}

func mustGame(t *testing.T, r *Registry, guildID string, fn func(*Game)) {
	t.Helper()
	err := r.WithGame(guildID, func(g *Game) error {
		fn(g)
		return nil
	})
	require.NoError(t, err)
}

func defaultRoster(n, elims int) []playerSpec {
	specs := make([]playerSpec, 0, n)
	for i := 1; i <= n; i++ {
		s := playerSpec{id: fmt.Sprintf("p%d", i), role: roles.Vanilla, alignment: AlignVillage}
		if i <= elims {
			s.alignment = AlignElims
		}
		specs = append(specs, s)
	}
	return specs
}
