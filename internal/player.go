package internal

import (
	"time"
)

type Player struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	TimeoutCount int       `json:"timeout_count"`
	JoinSeq      int       `json:"-"`
	JoinedAt     time.Time `json:"joined_at"`
}

type PlayerSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	TimeoutCount int    `json:"timeout_count"`
}

// IsThinker reports whether p holds the secret this round.
func (p *Player) IsThinker() bool {
	return p.Role == RoleThinker
}

// ResetTimeouts is called on every voluntary action by the player.
func (p *Player) ResetTimeouts() {
	p.TimeoutCount = 0
}

func CreatePlayerSnapshot(p *Player) PlayerSnapshot {
	return PlayerSnapshot{
		ID:           p.Id,
		Name:         p.Name,
		Role:         p.Role,
		TimeoutCount: p.TimeoutCount,
	}
}
