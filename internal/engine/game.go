package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tyrian-games/luthadel/internal/data"
	"github.com/tyrian-games/luthadel/internal/roles"
)

// Phase is the current half of the day/night cycle.
type Phase string

const (
	PhaseDay   Phase = "Day"
	PhaseNight Phase = "Night"
)

// Status is the game lifecycle stage.
type Status string

const (
	StatusSetup  Status = "setup"
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Alignment is a participant's faction.
type Alignment string

const (
	AlignVillage Alignment = "village"
	AlignElims   Alignment = "elims"
)

// Winner identifies the outcome of a finished game.
type Winner string

const (
	WinnerVillage      Winner = "village"
	WinnerElims        Winner = "elims"
	WinnerLastStanding Winner = "last_standing"
	WinnerNone         Winner = ""
)

// Sentinel targets for votes and kills that deliberately select no one.
const (
	VoteNone = "vote_none"
	KillNone = "kill_none"
)

// Participant is one player in a game.
type Participant struct {
	UserID          string
	Username        string
	DisplayName     string
	AnonIdentity    string
	PrivateThreadID string
	Alignment       Alignment
	Role            roles.Role
	Alive           bool
	CharacterName   string
}

// Config carries GM-tunable game settings.
type Config struct {
	AnonMode       bool
	SecretVotes    bool
	DayLengthMin   int
	NightLengthMin int
	WinCondition   string // "parity", "overparity", "last_man_standing", or "custom"
	WinExpr        string // CEL expression, used when WinCondition is "custom"
	AutoPhase      bool
	AllowNoElim    bool
	MinVotes       int // 0=plurality, -1=random elimination when no votes, >0=threshold
	VillageName    string
	ElimName       string
	GameTag        string
	FlavorName     string
	PMsEnabled     bool
	GMsSeePMs      bool
}

// RoleConfig carries GM-tunable role behavior.
type RoleConfig struct {
	GameMode        string // "all" or "tyrian"
	SeekerMode      string // "role_only", "alignment_only", "both"
	ThugMode        string // "survive", "delayed_phase", "delayed_cycle"
	CoinshotAmmo    int    // 0=unlimited
	SmokerPhase     roles.PhaseRule
	TineyePhase     roles.PhaseRule
	PMEnablingRoles []roles.Role
}

// Channels holds the platform space identifiers attached to a game.
type Channels struct {
	GameChannelID    string
	DeadSpecThreadID string
	ElimThreadID     string
}

// ActionRecord is one submitted role action. Target and Redirect hold
// resolved participant IDs or a sentinel.
type ActionRecord struct {
	Actor       string
	Target      string
	Redirect    string // redirect_vote only: where the vote goes
	SubmittedAt time.Time
}

// SmokeState tracks a Smoker's coppercloud.
type SmokeState struct {
	Active   bool
	Extended string // second protected participant, optional
}

// DelayedDeath schedules a Thug's postponed demise for the start of a
// particular phase.
type DelayedDeath struct {
	UserID string
	Day    int
	Phase  Phase
}

// PhaseStamp identifies one specific phase of one specific day. A
// caller requesting a transition presents the stamp it observed; a
// stale stamp means someone else already resolved that phase.
type PhaseStamp struct {
	Phase Phase
	Day   int
}

type pmKey struct {
	a, b string
}

func newPMKey(x, y string) pmKey {
	if x > y {
		x, y = y, x
	}
	return pmKey{a: x, b: y}
}

// Game is one elimination game instance, keyed by guild. All access
// goes through the Registry, which serializes it.
type Game struct {
	ID      uuid.UUID
	GuildID string
	GMs     []string

	Players    map[string]*Participant
	JoinOrder  []string
	Spectators []string

	Status       Status
	Phase        Phase
	DayNumber    int
	PhaseEndsAt  time.Time
	WarningsSent map[string]bool

	Config   Config
	Roles    RoleConfig
	Channels Channels

	// Votes maps day number to voter to target (participant ID or
	// VoteNone). Latest submission wins.
	Votes map[int]map[string]string

	// NightActions and DayActions map day number to action to actor to
	// record. Keying by actor gives overwrite-on-resubmit for free.
	NightActions map[int]map[roles.Action]map[string]ActionRecord
	DayActions   map[int]map[roles.Action]map[string]ActionRecord

	// ElimKills holds the eliminator faction kill submissions per day,
	// keyed by actor.
	ElimKills map[int]map[string]ActionRecord

	Eliminated        []string
	CoinshotKillsUsed map[string]int
	ThugUsed          map[string]bool
	LurcherLastTarget map[string]string
	Smoke             map[string]*SmokeState
	MistbornUsed      map[string][]roles.Role
	MistbornPower     map[string]roles.Role
	TineyeMessages    map[string]string
	DelayedDeaths     []DelayedDeath

	PMThreads map[pmKey]string

	AvailableIdentities []data.Identity

	// actionResults queues private feedback accumulated during
	// resolution, drained into notifications at phase end.
	actionResults map[string][]string

	Winner    Winner
	CreatedAt time.Time

	resolving bool
}

func newGame(guildID, creatorID string, identities []data.Identity, now time.Time) *Game {
	pool := make([]data.Identity, len(identities))
	copy(pool, identities)
	return &Game{
		ID:      uuid.New(),
		GuildID: guildID,
		GMs:     []string{creatorID},
		Players: make(map[string]*Participant),
		Status:  StatusSetup,
		Phase:   PhaseDay,
		Config: Config{
			DayLengthMin:   2880,
			NightLengthMin: 1440,
			WinCondition:   "parity",
			AutoPhase:      true,
			AllowNoElim:    true,
			VillageName:    "Village",
			ElimName:       "Elims",
			PMsEnabled:     true,
			GMsSeePMs:      true,
		},
		Roles: RoleConfig{
			GameMode:    "tyrian",
			SeekerMode:  "both",
			ThugMode:    "survive",
			SmokerPhase: roles.PhaseBoth,
			TineyePhase: roles.PhaseNight,
		},
		WarningsSent:        make(map[string]bool),
		Votes:               make(map[int]map[string]string),
		NightActions:        make(map[int]map[roles.Action]map[string]ActionRecord),
		DayActions:          make(map[int]map[roles.Action]map[string]ActionRecord),
		ElimKills:           make(map[int]map[string]ActionRecord),
		CoinshotKillsUsed:   make(map[string]int),
		ThugUsed:            make(map[string]bool),
		LurcherLastTarget:   make(map[string]string),
		Smoke:               make(map[string]*SmokeState),
		MistbornUsed:        make(map[string][]roles.Role),
		MistbornPower:       make(map[string]roles.Role),
		TineyeMessages:      make(map[string]string),
		PMThreads:           make(map[pmKey]string),
		AvailableIdentities: pool,
		actionResults:       make(map[string][]string),
		CreatedAt:           now,
	}
}

// Stamp returns the current phase stamp.
func (g *Game) Stamp() PhaseStamp {
	return PhaseStamp{Phase: g.Phase, Day: g.DayNumber}
}

// IsDay reports whether the game is in a day phase.
func (g *Game) IsDay() bool {
	return g.Phase == PhaseDay
}

// IsGM reports whether the user moderates this game.
func (g *Game) IsGM(userID string) bool {
	for _, id := range g.GMs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsSpectator reports whether the user spectates this game.
func (g *Game) IsSpectator(userID string) bool {
	for _, id := range g.Spectators {
		if id == userID {
			return true
		}
	}
	return false
}

// DisplayName returns the name a participant goes by in this game:
// the anonymous identity when anonymous mode is on, otherwise the
// platform display name.
func (g *Game) DisplayName(userID string) string {
	p, ok := g.Players[userID]
	if !ok {
		return "Unknown"
	}
	if g.Config.AnonMode && p.AnonIdentity != "" {
		return p.AnonIdentity
	}
	return p.DisplayName
}

// FactionName returns the flavor name for an alignment.
func (g *Game) FactionName(a Alignment) string {
	if a == AlignElims {
		return g.Config.ElimName
	}
	return g.Config.VillageName
}

// RoleName returns a participant's role for reveal purposes, with
// Vanilla standing in for an unset role.
func (g *Game) RoleName(userID string) string {
	p, ok := g.Players[userID]
	if !ok || p.Role == roles.None {
		return string(roles.Vanilla)
	}
	return string(p.Role)
}

// AlivePlayers returns living participants in join order.
func (g *Game) AlivePlayers() []*Participant {
	out := make([]*Participant, 0, len(g.Players))
	for _, id := range g.JoinOrder {
		if p, ok := g.Players[id]; ok && p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AliveCounts returns the living village and eliminator counts.
func (g *Game) AliveCounts() (village, elims int) {
	for _, p := range g.Players {
		if !p.Alive {
			continue
		}
		switch p.Alignment {
		case AlignVillage:
			village++
		case AlignElims:
			elims++
		}
	}
	return village, elims
}

// EffectiveRole resolves the role whose ability a participant can use
// right now. A Mistborn acts as their currently drawn power; before
// any draw they act as nothing.
func (g *Game) EffectiveRole(userID string) roles.Role {
	p, ok := g.Players[userID]
	if !ok {
		return roles.None
	}
	if p.Role == roles.Mistborn {
		return g.MistbornPower[userID]
	}
	return p.Role
}

// IsSmoked reports whether a participant sits inside an active
// coppercloud, their own or an extended one. A Smoker who never
// touched their cloud has it burning over themselves.
func (g *Game) IsSmoked(userID string) bool {
	for smokerID, smoker := range g.Players {
		if !smoker.Alive || g.EffectiveRole(smokerID) != roles.Smoker {
			continue
		}
		st, ok := g.Smoke[smokerID]
		if !ok {
			if smokerID == userID {
				return true
			}
			continue
		}
		if st == nil || !st.Active {
			continue
		}
		if smokerID == userID || st.Extended == userID {
			return true
		}
	}
	return false
}

// DayVotes returns the vote map for the current day, never nil.
func (g *Game) DayVotes() map[string]string {
	v, ok := g.Votes[g.DayNumber]
	if !ok {
		v = make(map[string]string)
		g.Votes[g.DayNumber] = v
	}
	return v
}

// PMsAvailable reports whether player-to-player PM threads may be used
// right now, honoring the role gate when one is configured.
func (g *Game) PMsAvailable() bool {
	if !g.Config.PMsEnabled {
		return false
	}
	if len(g.Roles.PMEnablingRoles) == 0 {
		return true
	}
	for _, p := range g.Players {
		if !p.Alive {
			continue
		}
		for _, r := range g.Roles.PMEnablingRoles {
			if p.Role == r {
				return true
			}
		}
	}
	return false
}

// PMThreadID returns the recorded PM thread between two participants.
func (g *Game) PMThreadID(a, b string) (string, bool) {
	id, ok := g.PMThreads[newPMKey(a, b)]
	return id, ok
}

// SetPMThreadID records a PM thread between two participants.
func (g *Game) SetPMThreadID(a, b, threadID string) {
	g.PMThreads[newPMKey(a, b)] = threadID
}

func (g *Game) nightActionsFor(day int) map[roles.Action]map[string]ActionRecord {
	m, ok := g.NightActions[day]
	if !ok {
		m = make(map[roles.Action]map[string]ActionRecord)
		g.NightActions[day] = m
	}
	return m
}

func (g *Game) dayActionsFor(day int) map[roles.Action]map[string]ActionRecord {
	m, ok := g.DayActions[day]
	if !ok {
		m = make(map[roles.Action]map[string]ActionRecord)
		g.DayActions[day] = m
	}
	return m
}

func (g *Game) recordAction(m map[roles.Action]map[string]ActionRecord, action roles.Action, rec ActionRecord) {
	byActor, ok := m[action]
	if !ok {
		byActor = make(map[string]ActionRecord)
		m[action] = byActor
	}
	byActor[rec.Actor] = rec
}

// sortedActors returns the actor IDs of an action bucket in a stable
// order so resolution and feedback are deterministic.
func sortedActors(byActor map[string]ActionRecord) []string {
	ids := make([]string, 0, len(byActor))
	for id := range byActor {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Game) queueResult(userID, text string) {
	g.actionResults[userID] = append(g.actionResults[userID], text)
}

// drainResults converts queued private feedback into notifications.
func (g *Game) drainResults() []Notification {
	ids := make([]string, 0, len(g.actionResults))
	for id := range g.actionResults {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var notes []Notification
	for _, id := range ids {
		for _, text := range g.actionResults[id] {
			notes = append(notes, privateNote(id, text))
		}
	}
	g.actionResults = make(map[string][]string)
	return notes
}

// takeIdentity removes and returns a random identity from the pool.
func (g *Game) takeIdentity(pick func(n int) int) (data.Identity, bool) {
	if len(g.AvailableIdentities) == 0 {
		return data.Identity{}, false
	}
	i := pick(len(g.AvailableIdentities))
	id := g.AvailableIdentities[i]
	g.AvailableIdentities = append(g.AvailableIdentities[:i], g.AvailableIdentities[i+1:]...)
	return id, true
}

// returnIdentity puts a departing participant's identity back in the pool.
func (g *Game) returnIdentity(identities []data.Identity, name string) {
	if name == "" {
		return
	}
	for _, id := range identities {
		if strings.EqualFold(id.Name, name) {
			g.AvailableIdentities = append(g.AvailableIdentities, id)
			return
		}
	}
}
