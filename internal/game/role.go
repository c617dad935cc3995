package game

// Role is one of the four fixed role kinds. The set is closed, so role
// behavior is dispatched with a switch instead of an interface hierarchy.
type Role string

const (
	RoleMafioso   Role = "Mafioso"
	RoleIspettore Role = "Ispettore"
	RoleSgarrista Role = "Sgarrista"
	RolePaesano   Role = "Paesano"
)

// AllRoles lists every role kind, in display order.
var AllRoles = []Role{RoleMafioso, RoleIspettore, RoleSgarrista, RolePaesano}

func (r Role) Description() string {
	switch r {
	case RoleMafioso:
		return "Select a person to kill"
	case RoleIspettore:
		return "Select a person to inspect"
	case RoleSgarrista:
		return "Select a person to protect"
	case RolePaesano:
		return "No action required"
	default:
		return ""
	}
}

// MafiaAligned reports whether the role counts for the mafia faction in
// win-condition checks.
func (r Role) MafiaAligned() bool {
	return r == RoleMafioso
}

// HasNightAction reports whether holders of this role take a turn during
// the night phase. Paesano sleeps through the night.
func (r Role) HasNightAction() bool {
	switch r {
	case RoleMafioso, RoleIspettore, RoleSgarrista:
		return true
	default:
		return false
	}
}

// PerformAction applies the role's night effect to target. The roster is
// passed so that future roles can see global state; the current kinds only
// touch the target. Callers observe the effect by re-reading the target's
// fields afterward.
//
// The Mafioso kill is negated when the target is protected. The spent
// protection flag is cleared when the night resolves, not here.
func (r Role) PerformAction(roster []*Player, target *Player) {
	if target == nil {
		return
	}
	switch r {
	case RoleMafioso:
		if !target.IsProtected {
			target.IsAlive = false
		}
	case RoleSgarrista:
		target.IsProtected = true
	case RoleIspettore:
		// Read-only: the inspection result is the target's role, surfaced
		// to the inspecting player by the session layer.
	case RolePaesano:
	}
}
