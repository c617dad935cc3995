package game

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ErrNotEnoughPlayers is returned when role assignment cannot guarantee one
// Mafioso, one Ispettore and one Sgarrista.
var ErrNotEnoughPlayers = errors.New("need at least 3 players to assign roles")

// Player is a single roster entry. Records are never removed once a game is
// running; elimination only flips IsAlive so the player can keep spectating.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        Role   `json:"role,omitempty"`
	IsAlive     bool   `json:"isAlive"`
	IsProtected bool   `json:"isProtected"`
	Confirmed   bool   `json:"confirmed"`
	Voted       bool   `json:"voted"`
}

// Registry is the single owner of player records for one room. Other
// components hold player ids and look records up here, so there is exactly
// one copy of every player.
type Registry struct {
	players []*Player
}

func NewRegistry() *Registry {
	return &Registry{players: make([]*Player, 0)}
}

// AddByName creates a player with a fresh id, or returns the existing record
// when the name is already taken. Names double as join identity, so the add
// is idempotent.
func (r *Registry) AddByName(name string) *Player {
	if p := r.FindByName(name); p != nil {
		return p
	}
	p := &Player{
		ID:      uuid.New().String(),
		Name:    name,
		IsAlive: true,
	}
	r.players = append(r.players, p)
	return p
}

// Add inserts an existing record, keeping the by-name idempotency of
// AddByName.
func (r *Registry) Add(p *Player) *Player {
	if existing := r.FindByName(p.Name); existing != nil {
		return existing
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.players = append(r.players, p)
	return p
}

func (r *Registry) RemoveByName(name string) {
	for i, p := range r.players {
		if p.Name == name {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

func (r *Registry) FindByID(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Registry) FindByName(name string) *Player {
	for _, p := range r.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// All returns the roster in join order.
func (r *Registry) All() []*Player {
	out := make([]*Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Registry) Living() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.IsAlive {
			out = append(out, p)
		}
	}
	return out
}

// ByRole returns every holder of the role, dead or alive.
func (r *Registry) ByRole(role Role) []*Player {
	out := make([]*Player, 0)
	for _, p := range r.players {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// LivingByRole returns the living holders of the role, in roster order.
func (r *Registry) LivingByRole(role Role) []*Player {
	out := make([]*Player, 0)
	for _, p := range r.players {
		if p.IsAlive && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// MafiaAligned returns the living mafia-side players.
func (r *Registry) MafiaAligned() []*Player {
	out := make([]*Player, 0)
	for _, p := range r.players {
		if p.IsAlive && p.Role.MafiaAligned() {
			out = append(out, p)
		}
	}
	return out
}

// NonMafiaAligned returns the living citizen-side players.
func (r *Registry) NonMafiaAligned() []*Player {
	out := make([]*Player, 0)
	for _, p := range r.players {
		if p.IsAlive && !p.Role.MafiaAligned() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.players)
}

func (r *Registry) Clear() {
	r.players = r.players[:0]
}

// AssignRoles deals exactly one Mafioso, one Ispettore and one Sgarrista,
// fills the remaining seats with Paesano, shuffles the deal uniformly and
// hands roles out in roster order. Fails when fewer than 3 players joined.
func (r *Registry) AssignRoles(rng *rand.Rand) error {
	if len(r.players) < 3 {
		return ErrNotEnoughPlayers
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	roles := []Role{RoleMafioso, RoleIspettore, RoleSgarrista}
	for i := 3; i < len(r.players); i++ {
		roles = append(roles, RolePaesano)
	}
	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	for i, p := range r.players {
		p.Role = roles[i]
	}
	return nil
}
