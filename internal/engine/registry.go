package engine

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/data"
	"github.com/tyrian-games/luthadel/internal/roles"
)

// Registry owns every game, one per guild, and serializes all access
// to each of them. Role capabilities, the identity pool, randomness,
// and the clock are injected so tests can pin them down.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*slot

	roles      *roles.Registry
	identities []data.Identity
	log        *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

type slot struct {
	mu   sync.Mutex
	game *Game
}

// Option customizes a Registry.
type Option func(*Registry)

// WithRand pins the random source, used for alignment shuffles,
// Mistborn draws, tiebreaks, and random eliminations.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) { r.rng = rng }
}

// WithClock pins the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry builds a game registry around a role table and an
// anonymous identity pool.
func NewRegistry(roleReg *roles.Registry, identities []data.Identity, log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		games:      make(map[string]*slot),
		roles:      roleReg,
		identities: identities,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// intn draws from the shared random source under its own lock; game
// slots are locked independently and can draw concurrently.
func (r *Registry) intn(n int) int {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Intn(n)
}

func (r *Registry) shuffle(n int, swap func(i, j int)) {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	r.rng.Shuffle(n, swap)
}

// CreateGame makes a new game for a guild with the creator as first GM.
func (r *Registry) CreateGame(guildID, creatorID string) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.games[guildID]; exists {
		return nil, conflictf("a game already exists in this server")
	}
	g := newGame(guildID, creatorID, r.identities, r.now())
	r.games[guildID] = &slot{game: g}
	r.log.Info("game created",
		zap.String("guild_id", guildID),
		zap.String("game_id", g.ID.String()),
		zap.String("creator_id", creatorID))
	return g, nil
}

// DeleteGame removes a guild's game entirely.
func (r *Registry) DeleteGame(guildID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[guildID]; !ok {
		return false
	}
	delete(r.games, guildID)
	r.log.Info("game deleted", zap.String("guild_id", guildID))
	return true
}

// WithGame runs fn with exclusive access to a guild's game.
func (r *Registry) WithGame(guildID string, fn func(*Game) error) error {
	r.mu.RLock()
	s, ok := r.games[guildID]
	r.mu.RUnlock()
	if !ok {
		return notFoundf("no game exists in this server")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.game)
}

// IsGM reports whether the user moderates the guild's game. A missing
// game counts as no.
func (r *Registry) IsGM(guildID, userID string) bool {
	ok := false
	_ = r.WithGame(guildID, func(g *Game) error {
		ok = g.IsGM(userID)
		return nil
	})
	return ok
}

// GuildIDs returns a stable snapshot of guilds with games, for sweeps.
func (r *Registry) GuildIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.games))
	for id := range r.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
