package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyrian-games/luthadel/internal/roles"
)

func anonGame(t *testing.T, r *Registry, guildID string, identities map[string]string) {
	t.Helper()
	specs := make([]playerSpec, 0, len(identities))
	for id := range identities {
		specs = append(specs, playerSpec{id: id, role: roles.Vanilla, alignment: AlignVillage})
	}
	activeGame(t, r, guildID, specs)
	mustGame(t, r, guildID, func(g *Game) {
		g.Config.AnonMode = true
		for id, ident := range identities {
			g.Players[id].AnonIdentity = ident
		}
	})
}

func TestFindPlayerAnonLadder(t *testing.T) {
	r, _ := testRegistry(t, 1)
	anonGame(t, r, "g", map[string]string{
		"u1": "Amber Vulture",
		"u2": "Crimson Wolf",
		"u3": "Amber Stag",
	})

	err := r.WithGame("g", func(g *Game) error {
		t.Run("exact full name", func(t *testing.T) {
			id, display, err := g.FindPlayer("amber vulture", true)
			require.NoError(t, err)
			assert.Equal(t, "u1", id)
			assert.Equal(t, "Amber Vulture", display)
		})

		t.Run("exact animal component", func(t *testing.T) {
			id, _, err := g.FindPlayer("wolf", true)
			require.NoError(t, err)
			assert.Equal(t, "u2", id)
		})

		t.Run("exact color with two matches is ambiguous", func(t *testing.T) {
			_, _, err := g.FindPlayer("amber", true)
			require.Error(t, err)
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, KindNotFound, e.Kind)
			assert.Len(t, e.Candidates, 2)
		})

		t.Run("partial of four or more characters", func(t *testing.T) {
			id, _, err := g.FindPlayer("vult", true)
			require.NoError(t, err)
			assert.Equal(t, "u1", id)
		})

		t.Run("short partial does not match", func(t *testing.T) {
			_, _, err := g.FindPlayer("vul", true)
			assert.Error(t, err)
		})

		t.Run("ambiguous exact never falls through to partial", func(t *testing.T) {
			// "amber" matches two identities exactly by color; the
			// partial tier could disambiguate but must not be reached.
			_, _, err := g.FindPlayer("Amber", true)
			assert.Error(t, err)
		})
		return nil
	})
	require.NoError(t, err)
}

func TestFindPlayerExactComponentBeatsPartial(t *testing.T) {
	r, _ := testRegistry(t, 1)
	anonGame(t, r, "g", map[string]string{
		"u1": "Amber Vulture",
		"u2": "Crimson Amberfin",
	})

	err := r.WithGame("g", func(g *Game) error {
		// "amber" is an exact color component of Amber Vulture and only
		// a partial hit inside Amberfin; the single exact match wins
		// without an ambiguity prompt.
		id, display, err := g.FindPlayer("Amber", true)
		require.NoError(t, err)
		assert.Equal(t, "u1", id)
		assert.Equal(t, "Amber Vulture", display)
		return nil
	})
	require.NoError(t, err)
}

func TestFindPlayerStandardMode(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", []playerSpec{
		{id: "alice", role: roles.Vanilla, alignment: AlignVillage},
		{id: "bob", role: roles.Vanilla, alignment: AlignElims},
	})

	err := r.WithGame("g", func(g *Game) error {
		id, _, err := g.FindPlayer("Player alice", true)
		require.NoError(t, err)
		assert.Equal(t, "alice", id)

		// Username matches too.
		id, _, err = g.FindPlayer("bob_user", true)
		require.NoError(t, err)
		assert.Equal(t, "bob", id)

		id, _, err = g.FindPlayer("alic", true)
		require.NoError(t, err)
		assert.Equal(t, "alice", id)
		return nil
	})
	require.NoError(t, err)
}

func TestFindPlayerSkipsDeadWhenAliveOnly(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(3, 1))
	mustGame(t, r, "g", func(g *Game) {
		g.Players["p2"].Alive = false
	})

	err := r.WithGame("g", func(g *Game) error {
		_, _, err := g.FindPlayer("Player p2", true)
		assert.Error(t, err)

		id, _, err := g.FindPlayer("Player p2", false)
		require.NoError(t, err)
		assert.Equal(t, "p2", id)
		return nil
	})
	require.NoError(t, err)
}

func TestResolveVoteTargetSentinels(t *testing.T) {
	r, _ := testRegistry(t, 1)
	activeGame(t, r, "g", defaultRoster(3, 1))

	err := r.WithGame("g", func(g *Game) error {
		id, display, err := g.ResolveVoteTarget("none")
		require.NoError(t, err)
		assert.Equal(t, VoteNone, id)
		assert.Equal(t, "No One", display)

		id, _, err = g.ResolveVoteTarget("no lynch")
		require.NoError(t, err)
		assert.Equal(t, VoteNone, id)

		g.Config.AllowNoElim = false
		_, _, err = g.ResolveVoteTarget("none")
		require.Error(t, err)
		assert.Equal(t, KindPermissionDenied, KindOf(err))

		id, _, err = g.ResolveKillTarget("no kill")
		require.NoError(t, err)
		assert.Equal(t, KillNone, id)
		return nil
	})
	require.NoError(t, err)
}
