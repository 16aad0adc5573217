package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/engine"
)

// threadArchiveMinutes keeps game threads from auto-archiving mid
// game. 10080 is Discord's seven day maximum.
const threadArchiveMinutes = 10080

// anonWebhookName identifies the webhook used for anonymous posting so
// a restarted bot finds it again instead of piling up duplicates.
const anonWebhookName = "Anonymous Courier"

// CreateStartSpaces makes the dead and spectator thread, the
// eliminator thread, and one private GM thread per player, all under
// the game channel.
func (b *Bot) CreateStartSpaces(guildID string, plan *engine.StartPlan) (engine.StartSpaces, error) {
	spaces := engine.StartSpaces{PlayerThreads: make(map[string]string, len(plan.Players))}
	info, err := b.games.Routing(guildID)
	if err != nil {
		return spaces, err
	}

	tag := plan.GameTag
	if tag == "" {
		tag = "Game"
	}

	deadMembers := append(append([]string{}, plan.Spectators...), info.GMs...)
	spaces.DeadSpecThreadID, err = b.privateThread(plan.GameChannelID, tag+" - Dead and Spectators", deadMembers)
	if err != nil {
		return spaces, fmt.Errorf("dead thread: %w", err)
	}

	elimMembers := append(append([]string{}, plan.ElimIDs...), info.GMs...)
	spaces.ElimThreadID, err = b.privateThread(plan.GameChannelID, tag+" - Eliminators", elimMembers)
	if err != nil {
		return spaces, fmt.Errorf("eliminator thread: %w", err)
	}

	for _, p := range plan.Players {
		members := append([]string{p.UserID}, info.GMs...)
		threadID, err := b.privateThread(plan.GameChannelID, fmt.Sprintf("%s - %s", tag, p.Username), members)
		if err != nil {
			return spaces, fmt.Errorf("thread for %s: %w", p.Username, err)
		}
		spaces.PlayerThreads[p.UserID] = threadID
	}
	return spaces, nil
}

// CreatePMThread makes a private thread for two players under the game
// channel, with the GMs included when the game says they read PMs.
func (b *Bot) CreatePMThread(guildID, userA, userB string, gmsIncluded bool) (string, error) {
	info, err := b.games.Routing(guildID)
	if err != nil {
		return "", err
	}
	if info.GameChannelID == "" {
		return "", fmt.Errorf("no game channel to host the PM thread")
	}
	members := []string{userA, userB}
	if gmsIncluded {
		members = append(members, info.GMs...)
	}
	name := fmt.Sprintf("PM - %s & %s", b.memberName(guildID, userA), b.memberName(guildID, userB))
	return b.privateThread(info.GameChannelID, name, members)
}

// PostAnonymous posts to the game channel through the anonymous
// webhook, wearing the given identity name and embed color.
func (b *Bot) PostAnonymous(guildID, identity string, color int, text string) error {
	info, err := b.games.Routing(guildID)
	if err != nil {
		return err
	}
	if info.GameChannelID == "" {
		return fmt.Errorf("no game channel to post in")
	}
	wh, err := b.anonWebhook(info.GameChannelID)
	if err != nil {
		return fmt.Errorf("anonymous webhook: %w", err)
	}
	_, err = b.session.WebhookExecute(wh.ID, wh.Token, false, &discordgo.WebhookParams{
		Username: identity,
		Embeds: []*discordgo.MessageEmbed{{
			Description: text,
			Color:       color,
		}},
	})
	if err != nil {
		return fmt.Errorf("anonymous post: %w", err)
	}
	return nil
}

// privateThread creates an invite-only thread and adds its members.
// A failed invite is logged rather than failing the whole start, since
// a GM can re-invite by hand.
func (b *Bot) privateThread(parentID, name string, members []string) (string, error) {
	ch, err := b.session.ThreadStartComplex(parentID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		Invitable:           false,
	})
	if err != nil {
		return "", err
	}
	seen := make(map[string]bool, len(members))
	for _, id := range members {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if err := b.session.ThreadMemberAdd(ch.ID, id); err != nil {
			b.log.Warn("thread invite failed",
				zap.String("thread_id", ch.ID),
				zap.String("user_id", id),
				zap.Error(err))
		}
	}
	return ch.ID, nil
}

// anonWebhook finds or creates the anonymous-posting webhook for a
// channel.
func (b *Bot) anonWebhook(channelID string) (*discordgo.Webhook, error) {
	b.mu.Lock()
	wh := b.webhooks[channelID]
	b.mu.Unlock()
	if wh != nil {
		return wh, nil
	}
	if existing, err := b.session.ChannelWebhooks(channelID); err == nil {
		for _, w := range existing {
			if w.Name == anonWebhookName {
				wh = w
				break
			}
		}
	}
	if wh == nil {
		var err error
		wh, err = b.session.WebhookCreate(channelID, anonWebhookName, "")
		if err != nil {
			return nil, err
		}
	}
	b.mu.Lock()
	b.webhooks[channelID] = wh
	b.mu.Unlock()
	return wh, nil
}

// memberName resolves a user to something readable for a thread title.
func (b *Bot) memberName(guildID, userID string) string {
	member, err := b.session.GuildMember(guildID, userID)
	if err != nil {
		return userID
	}
	if member.Nick != "" {
		return member.Nick
	}
	return member.User.Username
}
