package engine

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StartPlan tells the platform layer which spaces to create before a
// game can go active.
type StartPlan struct {
	GameChannelID string
	GameTag       string
	// Players lists the roster in join order with platform identifiers
	// so threads can be created and members invited.
	Players []StartPlayer
	// ElimIDs are the eliminator participants who share a faction
	// thread.
	ElimIDs []string
	// Spectators get access to the dead/spectator thread from the
	// beginning.
	Spectators []string
}

// StartPlayer is one roster entry in a StartPlan.
type StartPlayer struct {
	UserID   string
	Username string
	IsElim   bool
}

// StartSpaces reports the spaces the platform layer created.
type StartSpaces struct {
	DeadSpecThreadID string
	ElimThreadID     string
	PlayerThreads    map[string]string
}

// StartResult reports a game going active.
type StartResult struct {
	Notes []Notification
}

// SetGameChannel records the main channel for a game.
func (r *Registry) SetGameChannel(guildID, byID, channelID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		g.Channels.GameChannelID = channelID
		return nil
	})
}

// PrepareStart validates that a game can start and returns the plan of
// spaces to create. The game stays in setup until ActivateGame.
func (r *Registry) PrepareStart(guildID, byID string) (*StartPlan, error) {
	var plan StartPlan
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if g.Status != StatusSetup {
			return invalidPhasef("the game has already started")
		}
		if len(g.Players) < 3 {
			return conflictf("need at least 3 players to start the game")
		}
		if g.Channels.GameChannelID == "" {
			return conflictf("no game channel set")
		}
		var unassigned []string
		for _, id := range g.JoinOrder {
			if g.Players[id].Alignment == "" {
				unassigned = append(unassigned, g.Players[id].DisplayName)
			}
		}
		if len(unassigned) > 0 {
			return conflictf("players without alignments: %s", strings.Join(unassigned, ", "))
		}
		plan.GameChannelID = g.Channels.GameChannelID
		plan.GameTag = g.Config.GameTag
		for _, id := range g.JoinOrder {
			p := g.Players[id]
			plan.Players = append(plan.Players, StartPlayer{
				UserID:   id,
				Username: p.Username,
				IsElim:   p.Alignment == AlignElims,
			})
			if p.Alignment == AlignElims {
				plan.ElimIDs = append(plan.ElimIDs, id)
			}
		}
		plan.Spectators = append(plan.Spectators, g.Spectators...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ActivateGame records the created spaces and flips the game to Day 1.
// Mistborn powers are drawn and every player gets a welcome note in
// their private thread.
func (r *Registry) ActivateGame(guildID, byID string, spaces StartSpaces) (*StartResult, error) {
	var res StartResult
	err := r.WithGame(guildID, func(g *Game) error {
		if err := requireGM(g, byID); err != nil {
			return err
		}
		if g.Status != StatusSetup {
			return invalidPhasef("the game has already started")
		}
		g.Channels.DeadSpecThreadID = spaces.DeadSpecThreadID
		g.Channels.ElimThreadID = spaces.ElimThreadID
		for userID, threadID := range spaces.PlayerThreads {
			if p, ok := g.Players[userID]; ok {
				p.PrivateThreadID = threadID
			}
		}

		g.Status = StatusActive
		g.Phase = PhaseDay
		g.DayNumber = 1
		g.PhaseEndsAt = r.now().Add(time.Duration(g.Config.DayLengthMin) * time.Minute)
		g.WarningsSent = make(map[string]bool)

		for _, id := range g.JoinOrder {
			g.queueResult(id, g.welcomeMessage(id))
		}
		r.drawMistbornPowers(g)

		village, elims := g.AliveCounts()
		gameName := "Elimination Game"
		if g.Config.GameTag != "" && g.Config.FlavorName != "" {
			gameName = fmt.Sprintf("%s - %s", g.Config.GameTag, g.Config.FlavorName)
		}
		mode := "Standard"
		if g.Config.AnonMode {
			mode = "Anonymous"
		}
		plural := ""
		if elims != 1 {
			plural = "s"
		}
		res.Notes = append(res.Notes, note(DestPublic, fmt.Sprintf(
			"🎮 **%s has begun!**\n**Phase:** Day 1\n**Players:** %d (%d %s, %d %s%s)\n**Mode:** %s\n\nGood luck!",
			gameName, len(g.Players), village, g.Config.VillageName, elims, g.Config.ElimName, plural, mode)))
		res.Notes = append(res.Notes, g.drainResults()...)

		r.log.Info("game started",
			zap.String("guild_id", guildID),
			zap.Int("players", len(g.Players)),
			zap.Int("elims", elims),
			zap.Bool("anon", g.Config.AnonMode))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// welcomeMessage builds the private thread welcome for one player.
func (g *Game) welcomeMessage(userID string) string {
	p := g.Players[userID]
	parts := []string{"Welcome! This is your private thread with the GM."}

	if p.Alignment != "" {
		parts = append(parts, fmt.Sprintf("\n\n🎭 **Your Role:**\n**Alignment:** %s\n**Role:** %s",
			g.FactionName(p.Alignment), g.RoleName(userID)))
	}
	if g.Config.AnonMode && p.AnonIdentity != "" {
		parts = append(parts, fmt.Sprintf("\n\n🎭 **Your Anonymous Identity:** %s", p.AnonIdentity))
	}
	if p.Alignment == AlignElims && g.Channels.ElimThreadID != "" {
		parts = append(parts, fmt.Sprintf("\n\n🔴 You share a private **%s** discussion thread. Use `!kill [player]` or `!kill none` there at night.",
			g.Config.ElimName))
	}

	voteCmd := "`!vote [player]`"
	if g.Config.AllowNoElim {
		voteCmd += " or `!vote none`"
	}
	if g.Config.AnonMode {
		parts = append(parts, fmt.Sprintf(
			"\n\n**Commands (use in this thread):**\n• `!say [message]` - Post anonymously\n• %s - Vote during day\n• `!unvote` - Remove your current vote\n• `!actions` - See your role's commands",
			voteCmd))
	} else {
		parts = append(parts, fmt.Sprintf(
			"\n\n**Commands:**\n• %s - Vote during day\n• `!unvote` - Remove your current vote\n• `!actions` - See your role's commands",
			voteCmd))
	}
	return strings.Join(parts, "")
}
