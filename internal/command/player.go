package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/tyrian-games/luthadel/internal/engine"
)

func (d *Dispatcher) registerPlayer() {
	d.register(entry{
		name:    "vote",
		aliases: []string{"v"},
		usage:   "!vote <player|none>",
		summary: "Vote to eliminate a player (or no one).",
		fn:      executeVote,
	})
	d.register(entry{
		name:    "unvote",
		usage:   "!unvote",
		summary: "Withdraw your current vote.",
		fn:      executeUnvote,
	})
	d.register(entry{
		name:    "votecount",
		aliases: []string{"vc"},
		usage:   "!votecount",
		summary: "Show the current vote tally.",
		fn:      executeVoteCount,
	})
	d.register(entry{
		name:    "players",
		aliases: []string{"playerlist"},
		usage:   "!players",
		summary: "List the players and who is still alive.",
		fn:      executePlayers,
	})
	d.register(entry{
		name:    "time",
		aliases: []string{"timeleft"},
		usage:   "!time",
		summary: "Show how long the current phase has left.",
		fn:      executeTime,
	})
	d.register(entry{
		name:    "actions",
		aliases: []string{"role", "myrole"},
		usage:   "!actions",
		summary: "Show your role and its commands (private thread).",
		fn:      executeActions,
	})
	d.register(entry{
		name:    "pm",
		aliases: []string{"whisper"},
		usage:   "!pm <player>",
		summary: "Open (or find) a private thread with another player.",
		fn:      executePM,
	})
	d.register(entry{
		name:    "say",
		usage:   "!say <message>",
		summary: "Post to the game channel under your anonymous identity.",
		fn:      executeSay,
	})
}

func executeVote(ctx *Context, args string) (*Reply, error) {
	if args == "" {
		return textReply(fmt.Sprintf("Usage: `%svote <player|none>`", Prefix))
	}
	res, err := ctx.Games.Vote(ctx.Source.GuildID, ctx.Source.UserID, args, ctx.Source.InPrivateThread)
	if err != nil {
		return nil, err
	}
	reply := &Reply{}
	if res.Announcement != nil {
		reply.Notes = append(reply.Notes, *res.Announcement)
	}
	if res.Secret || ctx.Source.InPrivateThread {
		reply.Text = fmt.Sprintf("🗳️ Vote recorded: **%s**", res.TargetDisplay)
	}
	return reply, nil
}

func executeUnvote(ctx *Context, _ string) (*Reply, error) {
	res, err := ctx.Games.Unvote(ctx.Source.GuildID, ctx.Source.UserID, ctx.Source.InPrivateThread)
	if err != nil {
		return nil, err
	}
	reply := &Reply{}
	if res.Announcement != nil {
		reply.Notes = append(reply.Notes, *res.Announcement)
	}
	if res.Secret || ctx.Source.InPrivateThread {
		reply.Text = "🗳️ Vote withdrawn."
	}
	return reply, nil
}

func executeVoteCount(ctx *Context, _ string) (*Reply, error) {
	out, err := ctx.Games.VoteCount(ctx.Source.GuildID)
	if err != nil {
		return nil, err
	}
	return textReply(out)
}

func executePlayers(ctx *Context, _ string) (*Reply, error) {
	out, err := ctx.Games.PlayerList(ctx.Source.GuildID, false)
	if err != nil {
		return nil, err
	}
	return textReply(out)
}

func executeTime(ctx *Context, _ string) (*Reply, error) {
	phase, day, left, err := ctx.Games.TimeRemaining(ctx.Source.GuildID)
	if err != nil {
		return nil, err
	}
	name := "Night"
	if phase == engine.PhaseDay {
		name = "Day"
	}
	return textReply(fmt.Sprintf("⏳ **%s %d** has **%s** remaining.", name, day, formatDuration(left)))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0 && m == 0:
		return "less than a minute"
	case h == 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func executeActions(ctx *Context, _ string) (*Reply, error) {
	st, err := ctx.Games.RoleStatusFor(ctx.Source.GuildID, ctx.Source.UserID)
	if err != nil {
		return nil, err
	}
	if !ctx.Source.InPrivateThread {
		return textReply("Check your private GM thread; role details never go in public channels.")
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎭 **Role:** %s\n", st.Role))
	if st.EffectiveRole != st.Role {
		sb.WriteString(fmt.Sprintf("**Current power:** %s\n", st.EffectiveRole))
	}
	if st.Help != "" {
		sb.WriteString("\n" + st.Help + "\n")
	}
	if len(st.Commands) > 0 {
		sb.WriteString("\n**Commands:** " + strings.Join(st.Commands, ", "))
	}
	return textReply(strings.TrimSpace(sb.String()))
}

func executePM(ctx *Context, args string) (*Reply, error) {
	if args == "" {
		return textReply(fmt.Sprintf("Usage: `%spm <player>`", Prefix))
	}
	req, err := ctx.Games.RequestPM(ctx.Source.GuildID, ctx.Source.UserID, args)
	if err != nil {
		return nil, err
	}
	threadID := req.ThreadID
	if req.NeedsThread {
		threadID, err = ctx.Platform.CreatePMThread(ctx.Source.GuildID, ctx.Source.UserID, req.OtherID, req.GMsIncluded)
		if err != nil {
			return nil, fmt.Errorf("creating PM thread: %w", err)
		}
		if err := ctx.Games.RecordPMThread(ctx.Source.GuildID, ctx.Source.UserID, req.OtherID, threadID); err != nil {
			return nil, err
		}
	}
	return textReply(fmt.Sprintf("💬 Your PM thread with **%s**: <#%s>", req.OtherDisplay, threadID))
}

func executeSay(ctx *Context, args string) (*Reply, error) {
	if args == "" {
		return textReply(fmt.Sprintf("Usage: `%ssay <message>`", Prefix))
	}
	if !ctx.Source.InPrivateThread {
		return textReply("Use `!say` from your private GM thread so the message stays anonymous.")
	}
	name, color, err := ctx.Games.AnonIdentityColor(ctx.Source.GuildID, ctx.Source.UserID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Platform.PostAnonymous(ctx.Source.GuildID, name, color, args); err != nil {
		return nil, fmt.Errorf("posting anonymous message: %w", err)
	}
	return textReply("📣 Posted.")
}
