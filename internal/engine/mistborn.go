package engine

import (
	"fmt"
	"strings"

	"github.com/tyrian-games/luthadel/internal/roles"
)

// drawMistbornPowers assigns every living Mistborn a power for the new
// day. A Mistborn never repeats a power until they have held them all,
// at which point their history resets.
func (r *Registry) drawMistbornPowers(g *Game) {
	pool := r.roles.MistbornPool()
	if len(pool) == 0 {
		return
	}
	for _, id := range g.JoinOrder {
		p, ok := g.Players[id]
		if !ok || p.Role != roles.Mistborn || !p.Alive {
			continue
		}
		used := g.MistbornUsed[id]
		if len(used) >= len(pool) {
			used = nil
		}
		var available []roles.Role
		for _, power := range pool {
			if !containsRole(used, power) {
				available = append(available, power)
			}
		}
		if len(available) == 0 {
			continue
		}
		power := available[r.intn(len(available))]
		g.MistbornUsed[id] = append(used, power)
		g.MistbornPower[id] = power
		g.queueResult(id, fmt.Sprintf(
			"🎲 **Your Mistborn power for Day %d: %s**\nUse the `!%s` command to use this ability.",
			g.DayNumber, power, strings.ToLower(string(power))))
	}
}

func containsRole(rs []roles.Role, want roles.Role) bool {
	for _, r := range rs {
		if r == want {
			return true
		}
	}
	return false
}
