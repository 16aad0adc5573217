package command

import (
	"fmt"
	"strings"

	"github.com/tyrian-games/luthadel/internal/engine"
	"github.com/tyrian-games/luthadel/internal/roles"
)

func (d *Dispatcher) registerActions() {
	d.register(entry{
		name:    "kill",
		usage:   "!kill <player|none>",
		summary: "Eliminator night kill (eliminator thread).",
		fn:      executeKill,
	})
	d.register(entry{
		name:    "coinshot",
		aliases: []string{"cs", "shoot"},
		usage:   "!coinshot <player|none>",
		summary: "Coinshot: kill a player at night.",
		fn:      actionCommand(roles.ActionKill),
	})
	d.register(entry{
		name:    "lurch",
		aliases: []string{"protect"},
		usage:   "!lurch <player>",
		summary: "Lurcher: protect a player from one kill tonight.",
		fn:      actionCommand(roles.ActionProtect),
	})
	d.register(entry{
		name:    "riot",
		usage:   "!riot <player> to <player|none>",
		summary: "Rioter: redirect a player's vote. Costs your own.",
		fn:      executeRiot,
	})
	d.register(entry{
		name:    "soothe",
		usage:   "!soothe <player>",
		summary: "Soother: cancel a player's vote today.",
		fn:      actionCommand(roles.ActionCancel),
	})
	d.register(entry{
		name:    "seek",
		aliases: []string{"investigate"},
		usage:   "!seek <player>",
		summary: "Seeker: investigate a player tonight.",
		fn:      actionCommand(roles.ActionSeek),
	})
	d.register(entry{
		name:    "smoke",
		usage:   "!smoke [on|off|status|<player>]",
		summary: "Smoker: manage your coppercloud or extend it.",
		fn:      executeSmoke,
	})
	d.register(entry{
		name:    "tin",
		aliases: []string{"message"},
		usage:   "!tin <message>",
		summary: "Tineye: queue an anonymous message for daybreak.",
		fn:      executeTin,
	})
}

// actionCommand builds a handler for simple single-target actions.
func actionCommand(action roles.Action) Handler {
	return func(ctx *Context, args string) (*Reply, error) {
		if args == "" {
			return textReply("This command needs a target.")
		}
		if !ctx.Source.InPrivateThread {
			return textReply("Use role actions in your private GM thread.")
		}
		res, err := ctx.Games.SubmitAction(ctx.Source.GuildID, ctx.Source.UserID, action, args, "")
		if err != nil {
			return nil, err
		}
		return textReply(confirmAction(res))
	}
}

func confirmAction(res *engine.ActionResult) string {
	target := res.TargetDisplay
	if res.TargetID == engine.KillNone {
		target = "no one"
	}
	text := fmt.Sprintf("✅ Action recorded: **%s** on **%s**. The latest submission before the phase ends is the one that counts.", res.Action, target)
	if res.AmmoRemaining != nil {
		text += fmt.Sprintf("\n🔩 Ammo remaining after tonight: %d", *res.AmmoRemaining)
	}
	return text
}

func executeKill(ctx *Context, args string) (*Reply, error) {
	if args == "" {
		return textReply(fmt.Sprintf("Usage: `%skill <player|none>`", Prefix))
	}
	if !ctx.Source.InElimThread {
		return textReply("Use `!kill` in the eliminator thread.")
	}
	res, err := ctx.Games.SubmitElimKill(ctx.Source.GuildID, ctx.Source.UserID, args)
	if err != nil {
		return nil, err
	}
	target := res.TargetDisplay
	if res.TargetID == engine.KillNone {
		target = "no one"
	}
	return textReply(fmt.Sprintf("🔪 Kill target recorded: **%s**.", target))
}

func executeRiot(ctx *Context, args string) (*Reply, error) {
	target, redirect, ok := splitRiotArgs(args)
	if !ok {
		return textReply(fmt.Sprintf("Usage: `%sriot <player> to <player|none>`", Prefix))
	}
	if !ctx.Source.InPrivateThread {
		return textReply("Use role actions in your private GM thread.")
	}
	res, err := ctx.Games.SubmitAction(ctx.Source.GuildID, ctx.Source.UserID, roles.ActionRedirect, target, redirect)
	if err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf(
		"😤 Riot recorded: **%s**'s vote will go to **%s**. Your own vote is forfeit.",
		res.TargetDisplay, res.RedirectDisplay))
}

// splitRiotArgs parses "<target> to <redirect>" with a case-insensitive
// separator so multi-word anonymous identities still work.
func splitRiotArgs(args string) (target, redirect string, ok bool) {
	lower := strings.ToLower(args)
	i := strings.Index(lower, " to ")
	if i < 0 {
		return "", "", false
	}
	target = strings.TrimSpace(args[:i])
	redirect = strings.TrimSpace(args[i+4:])
	return target, redirect, target != "" && redirect != ""
}

func executeSmoke(ctx *Context, args string) (*Reply, error) {
	if !ctx.Source.InPrivateThread {
		return textReply("Use role actions in your private GM thread.")
	}
	mode := "status"
	target := ""
	switch strings.ToLower(args) {
	case "", "status":
	case "on":
		mode = "on"
	case "off":
		mode = "off"
	default:
		mode = "target"
		target = args
	}
	st, err := ctx.Games.Smoke(ctx.Source.GuildID, ctx.Source.UserID, mode, target)
	if err != nil {
		return nil, err
	}
	state := "OFF"
	if st.Active {
		state = "ON"
	}
	text := fmt.Sprintf("💨 Coppercloud: **%s**", state)
	if st.ExtendedDisplay != "" {
		text += fmt.Sprintf("\nExtended over: **%s**", st.ExtendedDisplay)
	}
	return textReply(text)
}

func executeTin(ctx *Context, args string) (*Reply, error) {
	if !ctx.Source.InPrivateThread {
		return textReply("Use role actions in your private GM thread.")
	}
	msg, err := ctx.Games.TineyeMessage(ctx.Source.GuildID, ctx.Source.UserID, args)
	if err != nil {
		return nil, err
	}
	if args == "" {
		if msg == "" {
			return textReply("📜 No message queued. `!tin <message>` to set one.")
		}
		return textReply(fmt.Sprintf("📜 Queued for daybreak:\n*%s*", msg))
	}
	return textReply(fmt.Sprintf("📜 Message queued for daybreak:\n*%s*", msg))
}
