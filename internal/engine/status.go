package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// StatusInfo is a read-only snapshot for status commands.
type StatusInfo struct {
	Status      Status
	Phase       Phase
	DayNumber   int
	PhaseEndsAt time.Time
	Players     int
	Village     int
	Elims       int
	AnonMode    bool
	Winner      Winner
}

// GameStatus snapshots the game for display.
func (r *Registry) GameStatus(guildID string) (*StatusInfo, error) {
	var info StatusInfo
	err := r.WithGame(guildID, func(g *Game) error {
		v, e := g.AliveCounts()
		info = StatusInfo{
			Status:      g.Status,
			Phase:       g.Phase,
			DayNumber:   g.DayNumber,
			PhaseEndsAt: g.PhaseEndsAt,
			Players:     len(g.Players),
			Village:     v,
			Elims:       e,
			AnonMode:    g.Config.AnonMode,
			Winner:      g.Winner,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// PlayerList renders the roster. forGM adds alignment and role, which
// must never reach a public channel.
func (r *Registry) PlayerList(guildID string, forGM bool) (string, error) {
	var out string
	err := r.WithGame(guildID, func(g *Game) error {
		var alive, dead []string
		for _, id := range g.JoinOrder {
			p := g.Players[id]
			line := g.DisplayName(id)
			if forGM {
				line += fmt.Sprintf(" - %s - %s", g.FactionName(p.Alignment), g.RoleName(id))
			}
			if p.Alive {
				alive = append(alive, "❤️ "+line)
			} else {
				dead = append(dead, "💀 "+line)
			}
		}
		lines := []string{fmt.Sprintf("👥 **Players** (%d alive / %d total)", len(alive), len(g.Players))}
		lines = append(lines, alive...)
		lines = append(lines, dead...)
		out = strings.Join(lines, "\n")
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// RoutingInfo is the channel map a platform layer needs to deliver
// notifications for one game.
type RoutingInfo struct {
	GameChannelID    string
	DeadSpecThreadID string
	ElimThreadID     string
	// PrivateThreads maps a participant to their private GM thread.
	PrivateThreads map[string]string
	GMs            []string
}

// Routing snapshots the delivery targets for a guild's game.
func (r *Registry) Routing(guildID string) (*RoutingInfo, error) {
	var info RoutingInfo
	err := r.WithGame(guildID, func(g *Game) error {
		info.GameChannelID = g.Channels.GameChannelID
		info.DeadSpecThreadID = g.Channels.DeadSpecThreadID
		info.ElimThreadID = g.Channels.ElimThreadID
		info.PrivateThreads = make(map[string]string, len(g.Players))
		for id, p := range g.Players {
			if p.PrivateThreadID != "" {
				info.PrivateThreads[id] = p.PrivateThreadID
			}
		}
		info.GMs = append(info.GMs, g.GMs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// PMRequest is the engine's answer to a PM attempt: which thread to
// use, or which thread to create.
type PMRequest struct {
	OtherID      string
	OtherDisplay string
	ThreadID     string
	NeedsThread  bool
	GMsIncluded  bool
}

// RequestPM validates a player-to-player PM and returns the thread to
// use. When NeedsThread is set the platform layer creates the thread
// and records it with RecordPMThread.
func (r *Registry) RequestPM(guildID, fromID, targetQuery string) (*PMRequest, error) {
	var req PMRequest
	err := r.WithGame(guildID, func(g *Game) error {
		if g.Status != StatusActive {
			return invalidPhasef("the game is not active")
		}
		from, ok := g.Players[fromID]
		if !ok {
			return deniedf("you are not in this game")
		}
		if !from.Alive {
			return deniedf("dead players cannot send PMs")
		}
		if !g.PMsAvailable() {
			return deniedf("PMs are currently disabled")
		}
		otherID, otherDisplay, err := g.FindPlayer(targetQuery, true)
		if err != nil {
			return err
		}
		if otherID == fromID {
			return conflictf("you cannot PM yourself")
		}
		req.OtherID = otherID
		req.OtherDisplay = otherDisplay
		req.GMsIncluded = g.Config.GMsSeePMs
		if id, ok := g.PMThreadID(fromID, otherID); ok {
			req.ThreadID = id
		} else {
			req.NeedsThread = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// RecordPMThread stores a created PM thread for reuse.
func (r *Registry) RecordPMThread(guildID, a, b, threadID string) error {
	return r.WithGame(guildID, func(g *Game) error {
		g.SetPMThreadID(a, b, threadID)
		return nil
	})
}

// PMThreadIDs returns every PM thread, for closing them when PMs shut
// off.
func (r *Registry) PMThreadIDs(guildID string) ([]string, error) {
	var ids []string
	err := r.WithGame(guildID, func(g *Game) error {
		for _, id := range g.PMThreads {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AnonIdentityColor resolves the embed color for a participant's
// anonymous identity.
func (r *Registry) AnonIdentityColor(guildID, userID string) (string, int, error) {
	var (
		name  string
		color int
	)
	err := r.WithGame(guildID, func(g *Game) error {
		p, ok := g.Players[userID]
		if !ok {
			return deniedf("you are not in this game")
		}
		if p.AnonIdentity == "" {
			return notFoundf("you have no anonymous identity")
		}
		name = p.AnonIdentity
		for _, id := range r.identities {
			if strings.EqualFold(id.Name, name) {
				color = id.Color
				break
			}
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return name, color, nil
}
