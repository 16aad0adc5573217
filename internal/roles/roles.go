package roles

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var rolesYAML []byte

// Role is a closed enumeration of the Allomantic roles.
type Role string

const (
	Vanilla  Role = "Vanilla"
	Coinshot Role = "Coinshot"
	Lurcher  Role = "Lurcher"
	Rioter   Role = "Rioter"
	Soother  Role = "Soother"
	Smoker   Role = "Smoker"
	Seeker   Role = "Seeker"
	Tineye   Role = "Tineye"
	Thug     Role = "Thug"
	Mistborn Role = "Mistborn"
	None     Role = ""
)

// Action identifies a role ability as submitted by a player or resolved
// by the engine.
type Action string

const (
	ActionKill        Action = "kill"
	ActionProtect     Action = "protect"
	ActionRedirect    Action = "redirect_vote"
	ActionCancel      Action = "cancel_vote"
	ActionSeek        Action = "investigate"
	ActionMessage     Action = "anonymous_message"
	ActionSmoke       Action = "smoke"
	ActionSurvive     Action = "survive_kill"
	ActionElimKill    Action = "elim_kill"
	ActionRandomPower Action = "random_power"
)

// PhaseRule constrains when an action may be submitted.
type PhaseRule string

const (
	PhaseDay     PhaseRule = "day"
	PhaseNight   PhaseRule = "night"
	PhaseBoth    PhaseRule = "both"
	PhasePassive PhaseRule = "passive"
	PhaseSpecial PhaseRule = "special"
)

// ResolutionOrder maps actions to their processing priority. Lower
// resolves first. Vote modifiers resolve in a separate band at day end.
var ResolutionOrder = map[Action]int{
	ActionSmoke:    1,
	ActionProtect:  2,
	ActionSurvive:  3,
	ActionKill:     4,
	ActionSeek:     5,
	ActionMessage:  6,
	ActionRedirect: 10,
	ActionCancel:   11,
}

// Definition describes a single role: its ability, when the ability may
// be used, and player-facing text.
type Definition struct {
	Name         Role      `yaml:"name"`
	Description  string    `yaml:"description"`
	Equivalent   string    `yaml:"equivalent"`
	Action       Action    `yaml:"action"`
	ActionPhase  PhaseRule `yaml:"action_phase"`
	Commands     []string  `yaml:"commands"`
	Restrictions []string  `yaml:"restrictions"`
	Special      []string  `yaml:"special"`
	Powers       []Role    `yaml:"powers"`
	Help         string    `yaml:"help"`
}

// Restricted reports whether the role carries the named restriction,
// e.g. "no_consecutive_target" for the Lurcher.
func (d Definition) Restricted(name string) bool {
	for _, r := range d.Restrictions {
		if r == name {
			return true
		}
	}
	return false
}

// HasSpecial reports whether the role carries the named special marker,
// e.g. "enables_pms" for the Tineye.
func (d Definition) HasSpecial(name string) bool {
	for _, s := range d.Special {
		if s == name {
			return true
		}
	}
	return false
}

// Registry is the closed table of role definitions. It is built once
// from embedded data and injected wherever role capabilities are
// checked; a role absent from the table simply has no capabilities.
type Registry struct {
	defs  map[Role]Definition
	order []Role
}

type rolesFile struct {
	Roles []Definition `yaml:"roles"`
}

var known = map[Role]bool{
	Vanilla: true, Coinshot: true, Lurcher: true, Rioter: true,
	Soother: true, Smoker: true, Seeker: true, Tineye: true,
	Thug: true, Mistborn: true,
}

// NewRegistry parses the embedded role table.
func NewRegistry() (*Registry, error) {
	var f rolesFile
	if err := yaml.Unmarshal(rolesYAML, &f); err != nil {
		return nil, fmt.Errorf("failed to parse role table: %w", err)
	}
	r := &Registry{defs: make(map[Role]Definition, len(f.Roles))}
	for _, d := range f.Roles {
		if !known[d.Name] {
			return nil, fmt.Errorf("unknown role %q in role table", d.Name)
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate role %q in role table", d.Name)
		}
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for program initialization paths where
// a broken embedded table is unrecoverable.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the definition for a role. Unknown roles return ok=false
// rather than an error so callers can treat them as ability-less.
func (r *Registry) Get(role Role) (Definition, bool) {
	d, ok := r.defs[role]
	return d, ok
}

// Lookup finds a role by name, case-insensitively.
func (r *Registry) Lookup(name string) (Definition, bool) {
	for _, d := range r.defs {
		if strings.EqualFold(string(d.Name), name) {
			return d, true
		}
	}
	return Definition{}, false
}

// All returns every definition in table order.
func (r *Registry) All() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Allows reports whether the role's active ability is the given action.
// Passive abilities and Mistborn power indirection are not resolved
// here; callers resolve the effective role first.
func (r *Registry) Allows(role Role, action Action) bool {
	d, ok := r.defs[role]
	if !ok {
		return false
	}
	return d.Action == action && action != ""
}

// PhaseAllowed reports whether an action bound to rule may be submitted
// during a day (isDay) or night phase. Passive and special rules never
// accept direct submissions.
func PhaseAllowed(rule PhaseRule, isDay bool) bool {
	switch rule {
	case PhaseBoth:
		return true
	case PhaseDay:
		return isDay
	case PhaseNight:
		return !isDay
	default:
		return false
	}
}

// ParsePhaseRule validates a GM-supplied phase window.
func ParsePhaseRule(s string) (PhaseRule, error) {
	switch strings.ToLower(s) {
	case "day":
		return PhaseDay, nil
	case "night":
		return PhaseNight, nil
	case "both":
		return PhaseBoth, nil
	}
	return "", fmt.Errorf("invalid phase window %q: want day, night, or both", s)
}

// MistbornPool returns the powers a Mistborn can draw from.
func (r *Registry) MistbornPool() []Role {
	d, ok := r.defs[Mistborn]
	if !ok {
		return nil
	}
	return d.Powers
}
