package discord

import (
	"strings"

	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/engine"
)

// messageLimit is Discord's content cap in characters.
const messageLimit = 2000

// deliver fans engine notifications out to the guild's channels and
// threads. A private notification for someone without a thread, which
// in practice means a GM, falls back to a DM.
func (b *Bot) deliver(guildID string, notes []engine.Notification) {
	if len(notes) == 0 {
		return
	}
	info, err := b.games.Routing(guildID)
	if err != nil {
		b.log.Warn("dropping notifications for unknown game",
			zap.String("guild_id", guildID),
			zap.Int("count", len(notes)),
			zap.Error(err))
		return
	}
	for _, n := range notes {
		var channelID string
		switch n.Dest {
		case engine.DestPublic:
			channelID = info.GameChannelID
		case engine.DestDeadSpec:
			channelID = info.DeadSpecThreadID
		case engine.DestElim:
			channelID = info.ElimThreadID
		case engine.DestPrivate:
			channelID = info.PrivateThreads[n.UserID]
			if channelID == "" {
				channelID = b.dmChannel(n.UserID)
			}
		}
		if channelID == "" {
			b.log.Warn("notification had nowhere to go",
				zap.String("guild_id", guildID),
				zap.String("dest", string(n.Dest)),
				zap.String("user_id", n.UserID))
			continue
		}
		b.send(channelID, n.Text)
	}
}

// send posts text to a channel, splitting anything over the message
// limit at line boundaries.
func (b *Bot) send(channelID, text string) {
	for _, chunk := range splitMessage(text) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			b.log.Warn("message send failed",
				zap.String("channel_id", channelID),
				zap.Error(err))
		}
	}
}

// splitMessage breaks text into chunks under the message limit,
// preferring newline boundaries. A single oversized line is cut on
// rune boundaries.
func splitMessage(text string) []string {
	if len(text) <= messageLimit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > messageLimit {
			cut := messageLimit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(line) > messageLimit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// dmChannel opens, or reuses, a DM channel with a user.
func (b *Bot) dmChannel(userID string) string {
	b.mu.Lock()
	id := b.dms[userID]
	b.mu.Unlock()
	if id != "" {
		return id
	}
	ch, err := b.session.UserChannelCreate(userID)
	if err != nil {
		b.log.Warn("DM channel open failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return ""
	}
	b.mu.Lock()
	b.dms[userID] = ch.ID
	b.mu.Unlock()
	return ch.ID
}

// moveDead invites freshly dead players into the dead and spectator
// thread. Private threads keep their members, so nothing is revoked.
func (b *Bot) moveDead(guildID string, deaths []string) {
	if len(deaths) == 0 {
		return
	}
	info, err := b.games.Routing(guildID)
	if err != nil || info.DeadSpecThreadID == "" {
		return
	}
	for _, userID := range deaths {
		if err := b.session.ThreadMemberAdd(info.DeadSpecThreadID, userID); err != nil {
			b.log.Warn("could not add player to dead thread",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
}
