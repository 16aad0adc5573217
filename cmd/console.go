/*
Copyright © 2026 Tyrian Games
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/command"
	"github.com/tyrian-games/luthadel/internal/engine"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run a game locally without Discord",
	Long: `Starts an interactive console that moderates a game in-process, with
no Discord connection. Useful for trying out role setups and rule
configurations before running a real game.

Game commands use the same syntax as on Discord (!join, !vote, ...).
Console directives switch who and where you are speaking:
	as Alice        speak as the player Alice
	in game         speak in the game channel
	in private      speak in your private GM thread
	in elim         speak in the eliminator thread`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := zap.NewNop()
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			var err error
			if log, err = zap.NewDevelopment(); err != nil {
				return err
			}
		}
		games, err := buildRegistry(cmd, log)
		if err != nil {
			return err
		}
		return RunConsole(games, log)
	},
}

// consolePlatform stands in for Discord when moderating locally. It
// invents thread identifiers and echoes anonymous posts to the log.
type consolePlatform struct {
	threads int
	output  func(string)
}

func (p *consolePlatform) nextThread(kind string) string {
	p.threads++
	return fmt.Sprintf("console-%s-%d", kind, p.threads)
}

func (p *consolePlatform) CreateStartSpaces(_ string, plan *engine.StartPlan) (engine.StartSpaces, error) {
	spaces := engine.StartSpaces{
		DeadSpecThreadID: p.nextThread("dead"),
		ElimThreadID:     p.nextThread("elim"),
		PlayerThreads:    make(map[string]string, len(plan.Players)),
	}
	for _, pl := range plan.Players {
		spaces.PlayerThreads[pl.UserID] = p.nextThread("player")
	}
	return spaces, nil
}

func (p *consolePlatform) CreatePMThread(_, _, _ string, _ bool) (string, error) {
	return p.nextThread("pm"), nil
}

func (p *consolePlatform) PostAnonymous(_, identity string, _ int, text string) error {
	p.output(fmt.Sprintf("[anon] %s: %s", identity, text))
	return nil
}

// place is where console input is treated as coming from.
type place int

const (
	placeGame place = iota
	placePrivate
	placeElim
)

func (pl place) String() string {
	switch pl {
	case placePrivate:
		return "private"
	case placeElim:
		return "elim"
	default:
		return "game"
	}
}

// console routes input lines through the command dispatcher on behalf
// of a switchable actor.
type console struct {
	games    *engine.Registry
	commands *command.Dispatcher
	platform *consolePlatform
	log      *zap.Logger

	actor string
	where place
}

const consoleGuild = "console"

// handle executes one console line and returns the output to show.
func (c *console) handle(line string) []string {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(strings.ToLower(line), "as "):
		c.actor = strings.TrimSpace(line[3:])
		return []string{fmt.Sprintf("Now speaking as %s.", c.actor)}
	case strings.HasPrefix(strings.ToLower(line), "in "):
		switch strings.ToLower(strings.TrimSpace(line[3:])) {
		case "game":
			c.where = placeGame
		case "private":
			c.where = placePrivate
		case "elim":
			c.where = placeElim
		default:
			return []string{"Places are: game, private, elim."}
		}
		return []string{fmt.Sprintf("Now speaking in the %s channel.", c.where)}
	}

	ctx := &command.Context{
		Games:    c.games,
		Platform: c.platform,
		Log:      c.log,
		Source:   c.source(),
	}
	reply, handled, err := c.commands.Dispatch(ctx, line)
	if !handled {
		return []string{fmt.Sprintf("Unrecognized input. Game commands start with %s; try %shelp.", command.Prefix, command.Prefix)}
	}
	if err != nil {
		return []string{"Error: " + err.Error()}
	}
	var out []string
	if reply != nil && reply.Text != "" {
		out = append(out, reply.Text)
	}
	if reply != nil {
		out = append(out, c.renderNotes(reply.Notes)...)
	}
	return out
}

// source builds the command source for the current actor and place,
// resolving real thread identifiers once the game has them.
func (c *console) source() command.Source {
	userID := strings.ToLower(strings.ReplaceAll(c.actor, " ", "-"))
	src := command.Source{
		GuildID:     consoleGuild,
		ChannelID:   "console-game",
		UserID:      userID,
		Username:    userID,
		DisplayName: c.actor,
	}
	info, err := c.games.Routing(consoleGuild)
	switch c.where {
	case placePrivate:
		src.InPrivateThread = true
		if err == nil && info.PrivateThreads[userID] != "" {
			src.ChannelID = info.PrivateThreads[userID]
		}
	case placeElim:
		src.InElimThread = true
		if err == nil && info.ElimThreadID != "" {
			src.ChannelID = info.ElimThreadID
		}
	}
	return src
}

// renderNotes flattens notifications into log lines tagged with where
// they would have been delivered.
func (c *console) renderNotes(notes []engine.Notification) []string {
	var out []string
	for _, n := range notes {
		switch n.Dest {
		case engine.DestPublic:
			out = append(out, "[public] "+n.Text)
		case engine.DestDeadSpec:
			out = append(out, "[dead] "+n.Text)
		case engine.DestElim:
			out = append(out, "[elim] "+n.Text)
		case engine.DestPrivate:
			out = append(out, fmt.Sprintf("[dm %s] %s", n.UserID, n.Text))
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().String("data_dir", "", "Directory with identity data files (built-in data is used when empty)")
	consoleCmd.Flags().Bool("debug", false, "Log engine activity to stderr")
}
