package command

import (
	"fmt"
	"strings"

	"github.com/tyrian-games/luthadel/internal/engine"
)

// registerLobby wires the commands that manage a game before and after
// it runs: creating it, joining it, and watching it.
func (d *Dispatcher) registerLobby() {
	d.register(entry{
		name:    "creategame",
		aliases: []string{"newgame"},
		usage:   "!creategame",
		summary: "Create a new game with yourself as GM.",
		fn:      executeCreateGame,
	})
	d.register(entry{
		name:    "join",
		aliases: []string{"in"},
		usage:   "!join",
		summary: "Join the game during setup.",
		fn:      executeJoin,
	})
	d.register(entry{
		name:    "leave",
		aliases: []string{"out"},
		usage:   "!leave",
		summary: "Leave the game during setup.",
		fn:      executeLeave,
	})
	d.register(entry{
		name:    "spectate",
		usage:   "!spectate",
		summary: "Watch the game from the dead/spectator thread.",
		fn:      executeSpectate,
	})
	d.register(entry{
		name:    "status",
		aliases: []string{"game"},
		usage:   "!status",
		summary: "Show the game's current state.",
		fn:      executeStatus,
	})
}

func executeCreateGame(ctx *Context, _ string) (*Reply, error) {
	g, err := ctx.Games.CreateGame(ctx.Source.GuildID, ctx.Source.UserID)
	if err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf(
		"🎮 **Game created!** You are the GM.\nGame ID: `%s`\nPlayers can now `%sjoin`. Set the game channel with `%schannel` and start with `%sstart`.",
		g.ID, Prefix, Prefix, Prefix))
}

func executeJoin(ctx *Context, _ string) (*Reply, error) {
	res, err := ctx.Games.Join(ctx.Source.GuildID, ctx.Source.UserID, ctx.Source.Username, ctx.Source.DisplayName)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("✅ **%s** joined the game! (%d player(s))", ctx.Source.DisplayName, res.PlayerCount)
	reply := &Reply{Text: text}
	if res.AnonIdentity != "" {
		reply.Notes = append(reply.Notes, privateTo(ctx.Source.UserID,
			fmt.Sprintf("🎭 **Your Anonymous Identity:** %s\nKeep it secret!", res.AnonIdentity)))
		reply.Text = fmt.Sprintf("✅ A player joined the game! (%d player(s))", res.PlayerCount)
	}
	return reply, nil
}

func executeLeave(ctx *Context, _ string) (*Reply, error) {
	if err := ctx.Games.Leave(ctx.Source.GuildID, ctx.Source.UserID); err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf("👋 **%s** left the game.", ctx.Source.DisplayName))
}

func executeSpectate(ctx *Context, _ string) (*Reply, error) {
	if err := ctx.Games.Spectate(ctx.Source.GuildID, ctx.Source.UserID); err != nil {
		return nil, err
	}
	return textReply("👀 You are now spectating. You'll be added to the dead/spectator thread when the game starts.")
}

func executeStatus(ctx *Context, _ string) (*Reply, error) {
	info, err := ctx.Games.GameStatus(ctx.Source.GuildID)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("📋 **Game Status**\n")
	sb.WriteString(fmt.Sprintf("State: %s\n", info.Status))
	if info.Status == engine.StatusActive {
		phase := "Night"
		if info.Phase == engine.PhaseDay {
			phase = "Day"
		}
		sb.WriteString(fmt.Sprintf("Phase: %s %d\n", phase, info.DayNumber))
		sb.WriteString(fmt.Sprintf("Alive: %d of %d players\n", info.Village+info.Elims, info.Players))
	} else {
		sb.WriteString(fmt.Sprintf("Players: %d\n", info.Players))
	}
	if info.AnonMode {
		sb.WriteString("Mode: Anonymous\n")
	}
	if info.Winner != "" {
		sb.WriteString(fmt.Sprintf("Winner: %s\n", info.Winner))
	}
	return textReply(strings.TrimSpace(sb.String()))
}
