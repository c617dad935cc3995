package game

// NightRoleSequence is the fixed order in which roles act at night.
// Paesano never acts.
var NightRoleSequence = []Role{RoleIspettore, RoleMafioso, RoleSgarrista}

// NightSequencer walks role holders through the night phase: one role is
// active at a time, and within that role one acting player submits before
// the next is revealed. It is driven by the Game and owns no players of its
// own; it looks everything up through the registry.
type NightSequencer struct {
	registry *Registry
	sequence []Role

	roleIndex         int
	rolePlayers       []*Player
	actingPlayerIndex int

	// The Mafioso choice is held back and resolved when the night pass
	// completes, so the Sgarrista turn (last in the sequence) can still
	// shield a victim picked earlier the same night.
	pendingKillID string
}

func NewNightSequencer(reg *Registry) *NightSequencer {
	return &NightSequencer{
		registry: reg,
		sequence: NightRoleSequence,
	}
}

// NextNightRole advances to and returns the next role in the sequence.
// ok is false once the sequence is exhausted.
func (s *NightSequencer) NextNightRole() (role Role, ok bool) {
	if s.roleIndex >= len(s.sequence) {
		return "", false
	}
	role = s.sequence[s.roleIndex]
	s.roleIndex++
	return role, true
}

// PrepareRolePlayers loads the living holders of roleName as the acting
// subset and reports whether any exist. Roles with no living holders are
// skipped by the caller.
func (s *NightSequencer) PrepareRolePlayers(role Role) bool {
	s.rolePlayers = s.registry.LivingByRole(role)
	s.actingPlayerIndex = 0
	return len(s.rolePlayers) > 0
}

// CurrentRole returns the role currently acting, or "" before the first
// advance and after exhaustion.
func (s *NightSequencer) CurrentRole() Role {
	if s.roleIndex == 0 || s.roleIndex > len(s.sequence) {
		return ""
	}
	return s.sequence[s.roleIndex-1]
}

// ActingPlayer returns whose turn it is within the current role, or nil.
func (s *NightSequencer) ActingPlayer() *Player {
	if s.actingPlayerIndex >= len(s.rolePlayers) {
		return nil
	}
	return s.rolePlayers[s.actingPlayerIndex]
}

// AdvanceActingPlayer moves to the next holder of the current role and
// reports whether one remains.
func (s *NightSequencer) AdvanceActingPlayer() bool {
	s.actingPlayerIndex++
	return s.actingPlayerIndex < len(s.rolePlayers)
}

// ProcessNightAction applies the acting player's role effect to the target.
// Actors without a role are a no-op. The Mafioso target is recorded and
// resolved at the end of the pass; other roles apply immediately.
func (s *NightSequencer) ProcessNightAction(actor, target *Player) {
	if actor == nil || actor.Role == "" {
		return
	}
	if actor.Role == RoleMafioso {
		s.pendingKillID = target.ID
		return
	}
	actor.Role.PerformAction(s.registry.Living(), target)
}

// PendingKillTarget returns the id the Mafioso picked this night, if any.
func (s *NightSequencer) PendingKillTarget() string {
	return s.pendingKillID
}

// ResolvePendingKill applies the held-back Mafioso action. A protected
// target survives and the spent protection is cleared; anyone else dies.
// Returns the victim, or nil when nobody died.
func (s *NightSequencer) ResolvePendingKill() *Player {
	if s.pendingKillID == "" {
		return nil
	}
	target := s.registry.FindByID(s.pendingKillID)
	s.pendingKillID = ""
	if target == nil || !target.IsAlive {
		return nil
	}
	protected := target.IsProtected
	RoleMafioso.PerformAction(s.registry.Living(), target)
	if protected {
		// The protection absorbed the kill; it does not carry over.
		target.IsProtected = false
		return nil
	}
	return target
}

// ResetNightSequence zeroes the role cursor, the acting subset and any
// pending kill. Called once per night before the first role acts.
func (s *NightSequencer) ResetNightSequence() {
	s.roleIndex = 0
	s.rolePlayers = nil
	s.actingPlayerIndex = 0
	s.pendingKillID = ""
}
