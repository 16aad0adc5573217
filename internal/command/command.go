package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/engine"
)

// Prefix starts every text command.
const Prefix = "!"

// Source describes where a command arrived from. The engine cares
// about the difference between the open game channel, a player's
// private GM thread, and the eliminator thread.
type Source struct {
	GuildID     string
	ChannelID   string
	UserID      string
	Username    string
	DisplayName string

	// InPrivateThread is set when the message came from the author's
	// own private GM thread.
	InPrivateThread bool
	// InElimThread is set when the message came from the eliminator
	// faction thread.
	InElimThread bool
}

// Platform is what command handlers need from the chat layer beyond
// plain replies: creating threads and posting through the anonymous
// webhook.
type Platform interface {
	// CreateStartSpaces creates the dead/spectator thread, the
	// eliminator thread, and one private thread per player.
	CreateStartSpaces(guildID string, plan *engine.StartPlan) (engine.StartSpaces, error)
	// CreatePMThread creates a private thread for two players, with the
	// GMs included when gmsIncluded is set.
	CreatePMThread(guildID, userA, userB string, gmsIncluded bool) (string, error)
	// PostAnonymous posts to the game channel through the anonymous
	// webhook using the given identity name and embed color.
	PostAnonymous(guildID, identity string, color int, text string) error
}

// Reply is a handler's answer: text for the channel the command came
// from, notifications to fan out, and, for phase commands, the
// transition so the platform layer can move the dead.
type Reply struct {
	Text       string
	Notes      []engine.Notification
	Transition *engine.TransitionResult
}

// Context carries everything one command execution needs.
type Context struct {
	Games    *engine.Registry
	Platform Platform
	Log      *zap.Logger
	Source   Source
}

// Handler executes one command with the remainder of the line as args.
type Handler func(ctx *Context, args string) (*Reply, error)

type entry struct {
	name    string
	aliases []string
	usage   string
	summary string
	gmOnly  bool
	fn      Handler
}

// Dispatcher routes prefixed messages to handlers.
type Dispatcher struct {
	byName map[string]*entry
	order  []string
}

// NewDispatcher builds the full command table.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{byName: make(map[string]*entry)}
	d.registerLobby()
	d.registerPlayer()
	d.registerActions()
	d.registerGM()
	d.register(entry{
		name:    "help",
		usage:   "!help [command]",
		summary: "Show available commands or detail on one.",
		fn: func(_ *Context, args string) (*Reply, error) {
			return d.help(args)
		},
	})
	return d
}

func (d *Dispatcher) register(e entry) {
	stored := e
	d.byName[e.name] = &stored
	for _, a := range e.aliases {
		d.byName[a] = &stored
	}
	d.order = append(d.order, e.name)
}

// Dispatch parses a raw message line. The second return is false when
// the line is not a known command and should be ignored as chatter.
func (d *Dispatcher) Dispatch(ctx *Context, line string) (*Reply, bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Prefix) {
		return nil, false, nil
	}
	rest := strings.TrimPrefix(line, Prefix)
	name := rest
	args := ""
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		name, args = rest[:i], strings.TrimSpace(rest[i+1:])
	}
	e, ok := d.byName[strings.ToLower(name)]
	if !ok {
		return nil, false, nil
	}
	if e.gmOnly && !ctx.Games.IsGM(ctx.Source.GuildID, ctx.Source.UserID) {
		return nil, true, fmt.Errorf("only a GM can use %s%s", Prefix, e.name)
	}
	ctx.Log.Debug("command dispatched",
		zap.String("guild_id", ctx.Source.GuildID),
		zap.String("user_id", ctx.Source.UserID),
		zap.String("command", e.name))
	reply, err := e.fn(ctx, args)
	return reply, true, err
}

// Names returns the registered command names in registration order.
func (d *Dispatcher) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Dispatcher) help(args string) (*Reply, error) {
	args = strings.ToLower(strings.TrimSpace(args))
	if args != "" {
		e, ok := d.byName[args]
		if !ok {
			return &Reply{Text: "Unknown command: " + args}, nil
		}
		text := "**" + Prefix + e.name + "**\nUsage: `" + e.usage + "`\n" + e.summary
		if e.gmOnly {
			text += "\n*GM only.*"
		}
		return &Reply{Text: text}, nil
	}

	names := d.Names()
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("**Commands:**\n")
	for _, n := range names {
		e := d.byName[n]
		if e.gmOnly {
			continue
		}
		sb.WriteString("• `" + e.usage + "` - " + e.summary + "\n")
	}
	sb.WriteString("\n**GM commands:**\n")
	for _, n := range names {
		e := d.byName[n]
		if !e.gmOnly {
			continue
		}
		sb.WriteString("• `" + e.usage + "` - " + e.summary + "\n")
	}
	return &Reply{Text: strings.TrimSpace(sb.String())}, nil
}

func textReply(text string) (*Reply, error) {
	return &Reply{Text: text}, nil
}

func privateTo(userID, text string) engine.Notification {
	return engine.Notification{
		ID:     uuid.New(),
		Dest:   engine.DestPrivate,
		UserID: userID,
		Text:   text,
	}
}
