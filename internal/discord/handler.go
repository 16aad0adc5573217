package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tyrian-games/luthadel/internal/command"
	"github.com/tyrian-games/luthadel/internal/engine"
)

// onMessage turns a guild message into a command execution. Plain
// chatter and unknown commands pass through untouched.
func (b *Bot) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, command.Prefix) {
		return
	}

	src := command.Source{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		UserID:      m.Author.ID,
		Username:    m.Author.Username,
		DisplayName: displayName(m),
	}
	if info, err := b.games.Routing(m.GuildID); err == nil {
		src.InPrivateThread = m.ChannelID != "" && info.PrivateThreads[m.Author.ID] == m.ChannelID
		src.InElimThread = info.ElimThreadID != "" && m.ChannelID == info.ElimThreadID
	}

	ctx := &command.Context{
		Games:    b.games,
		Platform: b,
		Log:      b.log,
		Source:   src,
	}
	reply, handled, err := b.commands.Dispatch(ctx, m.Content)
	if !handled {
		return
	}
	if err != nil {
		b.send(m.ChannelID, errorText(err))
		return
	}
	if reply == nil {
		return
	}
	if reply.Text != "" {
		b.send(m.ChannelID, reply.Text)
	}
	b.deliver(m.GuildID, reply.Notes)
	if reply.Transition != nil {
		b.moveDead(m.GuildID, reply.Transition.Deaths)
	}
}

// displayName prefers the guild nickname, then the global display
// name, then the account name.
func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// errorText phrases a failure for the channel the command came from.
func errorText(err error) string {
	var e *engine.Error
	if errors.As(err, &e) && len(e.Candidates) > 0 {
		return fmt.Sprintf("❌ %s\nDid you mean: %s?", e.Message, strings.Join(e.Candidates, ", "))
	}
	return "❌ " + err.Error()
}
