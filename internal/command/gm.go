package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tyrian-games/luthadel/internal/engine"
)

func (d *Dispatcher) registerGM() {
	d.register(entry{
		name:    "channel",
		usage:   "!channel",
		summary: "Set the current channel as the game channel.",
		gmOnly:  true,
		fn:      executeChannel,
	})
	d.register(entry{
		name:    "config",
		aliases: []string{"set"},
		usage:   "!config <setting> <value>",
		summary: "Change a game setting.",
		gmOnly:  true,
		fn:      executeConfig,
	})
	d.register(entry{
		name:    "assign",
		usage:   "!assign <player> <village|elims> <role>",
		summary: "Assign a player's alignment and role.",
		gmOnly:  true,
		fn:      executeAssign,
	})
	d.register(entry{
		name:    "randomize",
		usage:   "!randomize [num_elims]",
		summary: "Randomly split the roster into factions.",
		gmOnly:  true,
		fn:      executeRandomize,
	})
	d.register(entry{
		name:    "identities",
		usage:   "!identities",
		summary: "Draw anonymous identities for players who lack one.",
		gmOnly:  true,
		fn:      executeIdentities,
	})
	d.register(entry{
		name:    "start",
		usage:   "!start",
		summary: "Start the game: create threads and open Day 1.",
		gmOnly:  true,
		fn:      executeStart,
	})
	d.register(entry{
		name:    "endphase",
		aliases: []string{"nextphase"},
		usage:   "!endphase",
		summary: "Resolve the current phase now.",
		gmOnly:  true,
		fn:      executeEndPhase,
	})
	d.register(entry{
		name:    "extend",
		usage:   "!extend <duration, e.g. 12h or -30m>",
		summary: "Move the current phase deadline.",
		gmOnly:  true,
		fn:      executeExtend,
	})
	d.register(entry{
		name:    "forcekill",
		usage:   "!forcekill <player>",
		summary: "Kill a player outright, past any protection.",
		gmOnly:  true,
		fn:      executeForceKill,
	})
	d.register(entry{
		name:    "revive",
		usage:   "!revive <player>",
		summary: "Bring a dead player back.",
		gmOnly:  true,
		fn:      executeRevive,
	})
	d.register(entry{
		name:    "clearvotes",
		usage:   "!clearvotes",
		summary: "Wipe today's votes.",
		gmOnly:  true,
		fn:      executeClearVotes,
	})
	d.register(entry{
		name:    "endgame",
		usage:   "!endgame",
		summary: "End the game early with a full reveal.",
		gmOnly:  true,
		fn:      executeEndGame,
	})
	d.register(entry{
		name:    "addgm",
		usage:   "!addgm <user id>",
		summary: "Add a co-GM.",
		gmOnly:  true,
		fn:      executeAddGM,
	})
	d.register(entry{
		name:    "removegm",
		usage:   "!removegm <user id>",
		summary: "Remove a co-GM.",
		gmOnly:  true,
		fn:      executeRemoveGM,
	})
	d.register(entry{
		name:    "roster",
		usage:   "!roster",
		summary: "Player list with alignments and roles.",
		gmOnly:  true,
		fn:      executeRoster,
	})
}

func executeChannel(ctx *Context, _ string) (*Reply, error) {
	err := ctx.Games.SetGameChannel(ctx.Source.GuildID, ctx.Source.UserID, ctx.Source.ChannelID)
	if err != nil {
		return nil, err
	}
	return textReply("📍 This is now the game channel.")
}

// executeConfig maps "!config key value" onto a single-field update.
func executeConfig(ctx *Context, args string) (*Reply, error) {
	key, value := args, ""
	if i := strings.IndexAny(args, " \t"); i >= 0 {
		key, value = args[:i], strings.TrimSpace(args[i+1:])
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || value == "" {
		return textReply(fmt.Sprintf("Usage: `%sconfig <setting> <value>`. Settings: anon, secretvotes, daylength, nightlength, wincondition, winexpr, autophase, allownoelim, minvotes, villagename, elimname, gametag, flavorname, pms, gmseepms, gamemode, seekermode, thugmode, coinshotammo, smokerphase, tineyephase", Prefix))
	}

	var u engine.ConfigUpdate
	switch key {
	case "anon", "anonymous":
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		u.AnonMode = &b
	case "secretvotes":
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		u.SecretVotes = &b
	case "daylength":
		n, err := parseMinutes(value)
		if err != nil {
			return nil, err
		}
		u.DayLengthMin = &n
	case "nightlength":
		n, err := parseMinutes(value)
		if err != nil {
			return nil, err
		}
		u.NightLengthMin = &n
	case "wincondition":
		u.WinCondition = &value
	case "winexpr":
		u.WinExpr = &value
	case "autophase":
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		u.AutoPhase = &b
	case "allownoelim":
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		u.AllowNoElim = &b
	case "minvotes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("minvotes needs a number: %w", err)
		}
		u.MinVotes = &n
	case "villagename":
		u.VillageName = &value
	case "elimname":
		u.ElimName = &value
	case "gametag":
		u.GameTag = &value
	case "flavorname":
		u.FlavorName = &value
	case "pms":
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		u.PMsEnabled = &b
	case "gmseepms":
		b, err := parseBool(value)
		if err != nil {
			return nil, err
		}
		u.GMsSeePMs = &b
	case "gamemode":
		u.GameMode = &value
	case "seekermode":
		u.SeekerMode = &value
	case "thugmode":
		u.ThugMode = &value
	case "coinshotammo":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("coinshotammo needs a number: %w", err)
		}
		u.CoinshotAmmo = &n
	case "smokerphase":
		u.SmokerPhase = &value
	case "tineyephase":
		u.TineyePhase = &value
	default:
		return textReply(fmt.Sprintf("Unknown setting %q. `%sconfig` lists the settings.", key, Prefix))
	}

	changes, err := ctx.Games.Configure(ctx.Source.GuildID, ctx.Source.UserID, u)
	if err != nil {
		return nil, err
	}
	return textReply("⚙️ " + strings.Join(changes, "\n"))
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on/off, got %q", s)
}

func parseMinutes(s string) (int, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return int(d.Minutes()), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected minutes or a duration like 48h, got %q", s)
	}
	return n, nil
}

// executeAssign parses "<player...> <alignment> <role>" from the end so
// multi-word player names work.
func executeAssign(ctx *Context, args string) (*Reply, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return textReply(fmt.Sprintf("Usage: `%sassign <player> <village|elims> <role>`", Prefix))
	}
	roleName := fields[len(fields)-1]
	alignWord := strings.ToLower(fields[len(fields)-2])
	target := strings.Join(fields[:len(fields)-2], " ")

	var alignment engine.Alignment
	switch alignWord {
	case "village", "v":
		alignment = engine.AlignVillage
	case "elims", "elim", "e":
		alignment = engine.AlignElims
	default:
		return textReply(fmt.Sprintf("Alignment must be village or elims, got %q.", alignWord))
	}

	n, err := ctx.Games.AssignRole(ctx.Source.GuildID, ctx.Source.UserID, target, alignment, roleName)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Text:  fmt.Sprintf("✅ Assigned **%s** as %s %s.", target, alignWord, roleName),
		Notes: []engine.Notification{*n},
	}, nil
}

func executeRandomize(ctx *Context, args string) (*Reply, error) {
	numElims := 0
	if args != "" {
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return nil, fmt.Errorf("randomize takes a number of eliminators: %w", err)
		}
		numElims = n
	}
	lines, err := ctx.Games.RandomizeAlignments(ctx.Source.GuildID, ctx.Source.UserID, numElims)
	if err != nil {
		return nil, err
	}
	return textReply("🎲 **Alignments randomized:**\n" + strings.Join(lines, "\n"))
}

func executeIdentities(ctx *Context, _ string) (*Reply, error) {
	notes, err := ctx.Games.AssignIdentities(ctx.Source.GuildID, ctx.Source.UserID)
	if err != nil {
		return nil, err
	}
	return &Reply{
		Text:  fmt.Sprintf("🎭 Drew identities for %d player(s).", len(notes)),
		Notes: notes,
	}, nil
}

func executeStart(ctx *Context, _ string) (*Reply, error) {
	plan, err := ctx.Games.PrepareStart(ctx.Source.GuildID, ctx.Source.UserID)
	if err != nil {
		return nil, err
	}
	spaces, err := ctx.Platform.CreateStartSpaces(ctx.Source.GuildID, plan)
	if err != nil {
		return nil, fmt.Errorf("creating game spaces: %w", err)
	}
	res, err := ctx.Games.ActivateGame(ctx.Source.GuildID, ctx.Source.UserID, spaces)
	if err != nil {
		return nil, err
	}
	return &Reply{Notes: res.Notes}, nil
}

func executeEndPhase(ctx *Context, _ string) (*Reply, error) {
	res, err := ctx.Games.EndPhase(ctx.Source.GuildID, ctx.Source.UserID, nil)
	if err != nil {
		return nil, err
	}
	return &Reply{Notes: res.Notes, Transition: res}, nil
}

func executeExtend(ctx *Context, args string) (*Reply, error) {
	d, err := time.ParseDuration(strings.TrimSpace(args))
	if err != nil {
		return nil, fmt.Errorf("extend takes a duration like 12h or -30m: %w", err)
	}
	deadline, err := ctx.Games.ExtendPhase(ctx.Source.GuildID, ctx.Source.UserID, d)
	if err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf("⏳ Phase deadline moved to <t:%d:f>.", deadline.Unix()))
}

func executeForceKill(ctx *Context, args string) (*Reply, error) {
	if args == "" {
		return textReply(fmt.Sprintf("Usage: `%sforcekill <player>`", Prefix))
	}
	res, err := ctx.Games.ForceKill(ctx.Source.GuildID, ctx.Source.UserID, args)
	if err != nil {
		return nil, err
	}
	return &Reply{Notes: res.Notes, Transition: res}, nil
}

func executeRevive(ctx *Context, args string) (*Reply, error) {
	if args == "" {
		return textReply(fmt.Sprintf("Usage: `%srevive <player>`", Prefix))
	}
	n, err := ctx.Games.Revive(ctx.Source.GuildID, ctx.Source.UserID, args)
	if err != nil {
		return nil, err
	}
	return &Reply{Notes: []engine.Notification{*n}}, nil
}

func executeClearVotes(ctx *Context, _ string) (*Reply, error) {
	if err := ctx.Games.ClearVotes(ctx.Source.GuildID, ctx.Source.UserID); err != nil {
		return nil, err
	}
	return textReply("🗳️ Votes cleared.")
}

func executeEndGame(ctx *Context, _ string) (*Reply, error) {
	res, err := ctx.Games.EndGame(ctx.Source.GuildID, ctx.Source.UserID)
	if err != nil {
		return nil, err
	}
	return &Reply{Notes: res.Notes, Transition: res}, nil
}

func executeAddGM(ctx *Context, args string) (*Reply, error) {
	id := parseUserID(args)
	if id == "" {
		return textReply(fmt.Sprintf("Usage: `%saddgm <user id or @mention>`", Prefix))
	}
	if err := ctx.Games.AddGM(ctx.Source.GuildID, ctx.Source.UserID, id); err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf("👑 <@%s> is now a GM.", id))
}

func executeRemoveGM(ctx *Context, args string) (*Reply, error) {
	id := parseUserID(args)
	if id == "" {
		return textReply(fmt.Sprintf("Usage: `%sremovegm <user id or @mention>`", Prefix))
	}
	if err := ctx.Games.RemoveGM(ctx.Source.GuildID, ctx.Source.UserID, id); err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf("👑 <@%s> is no longer a GM.", id))
}

// parseUserID accepts a raw snowflake or a <@...> mention.
func parseUserID(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	s = strings.TrimSuffix(s, ">")
	if s == "" || strings.ContainsAny(s, " \t") {
		return ""
	}
	return s
}

func executeRoster(ctx *Context, _ string) (*Reply, error) {
	out, err := ctx.Games.PlayerList(ctx.Source.GuildID, true)
	if err != nil {
		return nil, err
	}
	// Roles must not hit a shared channel; hand the list to the GM
	// directly instead of echoing where the command was typed.
	return &Reply{Notes: []engine.Notification{privateTo(ctx.Source.UserID, out)}}, nil
}
