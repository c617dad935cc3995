package game

import (
	"errors"
	"math/rand"
	"time"
)

// Phase is the current stage of the session.
type Phase string

const (
	PhaseLobby         Phase = "LOBBY"
	PhaseNightAction   Phase = "NIGHT_ACTION"
	PhaseDayDiscussion Phase = "DAY_DISCUSSION"
	PhaseDayVoting     Phase = "DAY_VOTING"
	PhaseGameOver      Phase = "GAME_OVER"
)

// Status mirrors the lifecycle of the room itself.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
)

// Winner identifies the faction that won a finished game.
type Winner string

const (
	WinnerNone     Winner = ""
	WinnerCitizens Winner = "CITIZENS"
	WinnerMafia    Winner = "MAFIA"
	WinnerDraw     Winner = "DRAW"
)

var (
	ErrWrongPhase    = errors.New("operation not allowed in the current phase")
	ErrUnknownPlayer = errors.New("player not found in this room")
	ErrDeadPlayer    = errors.New("player is no longer alive")
	ErrOutOfTurn     = errors.New("it is not this player's turn to act")
)

// Game is the authoritative session state machine for one room. It owns the
// player registry, the vote ledger and the night sequencer, and it is the
// only mutator of all three. Callers must serialize access; the session hub
// guarantees that by applying every inbound message on a single goroutine.
type Game struct {
	roomID   string
	hostName string

	phase  Phase
	status Status
	winner Winner

	registry  *Registry
	ledger    *VoteLedger
	sequencer *NightSequencer

	rng *rand.Rand
}

func NewGame(roomID string) *Game {
	reg := NewRegistry()
	return &Game{
		roomID:    roomID,
		phase:     PhaseLobby,
		status:    StatusWaiting,
		registry:  reg,
		ledger:    NewVoteLedger(),
		sequencer: NewNightSequencer(reg),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Game) RoomID() string            { return g.roomID }
func (g *Game) Phase() Phase              { return g.phase }
func (g *Game) Status() Status            { return g.status }
func (g *Game) Winner() Winner            { return g.winner }
func (g *Game) Registry() *Registry       { return g.registry }
func (g *Game) Ledger() *VoteLedger       { return g.ledger }
func (g *Game) Sequencer() *NightSequencer { return g.sequencer }
func (g *Game) HostName() string          { return g.hostName }

// SetHostName records who created the room; the first joiner when unset.
func (g *Game) SetHostName(name string) {
	g.hostName = name
}

// Join adds a player to the lobby. Joining an already running game is
// rejected; the roster is fixed once roles are dealt.
func (g *Game) Join(name string) (*Player, error) {
	if g.phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	p := g.registry.AddByName(name)
	if g.hostName == "" {
		g.hostName = name
	}
	return p, nil
}

// Leave removes a player while the room is still in the lobby. Once the
// game is running the record stays for spectating and history.
func (g *Game) Leave(name string) {
	if g.phase == PhaseLobby {
		g.registry.RemoveByName(name)
	}
}

// Start deals roles and opens the first night. Requires the lobby phase and
// at least 3 players so that every special role can be dealt exactly once.
func (g *Game) Start() error {
	if g.phase != PhaseLobby {
		return ErrWrongPhase
	}
	if err := g.registry.AssignRoles(g.rng); err != nil {
		return err
	}
	g.status = StatusRunning
	g.StartNightPhase()
	return nil
}

// StartNightPhase opens a fresh night pass: protection from the previous
// night expires, confirmations reset, and the sequencer is positioned on
// the first role with living holders.
func (g *Game) StartNightPhase() {
	g.phase = PhaseNightAction
	for _, p := range g.registry.All() {
		p.IsProtected = false
		p.Confirmed = false
	}
	g.sequencer.ResetNightSequence()
	g.advanceNightRole()
}

// advanceNightRole walks the sequence until a role with living holders is
// active, ending the night when the sequence is exhausted.
func (g *Game) advanceNightRole() {
	for {
		role, ok := g.sequencer.NextNightRole()
		if !ok {
			g.endNight()
			return
		}
		if g.sequencer.PrepareRolePlayers(role) {
			return
		}
	}
}

// endNight resolves the held-back kill and moves into day discussion, or
// straight to game over when the night elimination decided the game.
func (g *Game) endNight() {
	victim := g.sequencer.ResolvePendingKill()
	if victim != nil {
		if w := g.checkWin(); w != WinnerNone {
			g.finish(w)
			return
		}
	}
	g.phase = PhaseDayDiscussion
}

// ActingPlayer returns whose night turn it is, or nil outside the night.
func (g *Game) ActingPlayer() *Player {
	if g.phase != PhaseNightAction {
		return nil
	}
	return g.sequencer.ActingPlayer()
}

// SubmitNightAction applies the acting player's choice of target. Only the
// player whose turn it is may act; dead targets and unknown ids are
// rejected before anything mutates. Self-targeting is allowed.
//
// When the actor is the Ispettore the target's role is returned so the
// session layer can reveal it to the inspector alone.
func (g *Game) SubmitNightAction(actorID, targetID string) (inspected Role, err error) {
	if g.phase != PhaseNightAction {
		return "", ErrWrongPhase
	}
	actor := g.registry.FindByID(actorID)
	target := g.registry.FindByID(targetID)
	if actor == nil || target == nil {
		return "", ErrUnknownPlayer
	}
	if !target.IsAlive {
		return "", ErrDeadPlayer
	}
	acting := g.sequencer.ActingPlayer()
	if acting == nil || acting.ID != actorID {
		return "", ErrOutOfTurn
	}

	g.sequencer.ProcessNightAction(actor, target)
	actor.Confirmed = true
	if actor.Role == RoleIspettore {
		inspected = target.Role
	}

	if !g.sequencer.AdvanceActingPlayer() {
		g.advanceNightRole()
	}
	return inspected, nil
}

// BeginVoting moves from discussion to the vote once the announcement delay
// (a presentation concern owned by the host client) has elapsed.
func (g *Game) BeginVoting() error {
	if g.phase != PhaseDayDiscussion {
		return ErrWrongPhase
	}
	g.phase = PhaseDayVoting
	g.ledger.Reset()
	for _, p := range g.registry.All() {
		p.Voted = false
	}
	return nil
}

// SubmitVote records a living player's vote, overwriting any earlier one.
// An empty target is an explicit abstention. The vote phase resolves on its
// own once every living player has an entry.
func (g *Game) SubmitVote(voterID, targetID string) error {
	if g.phase != PhaseDayVoting {
		return ErrWrongPhase
	}
	voter := g.registry.FindByID(voterID)
	if voter == nil {
		return ErrUnknownPlayer
	}
	if !voter.IsAlive {
		return ErrDeadPlayer
	}
	if targetID != VoteAbstain {
		target := g.registry.FindByID(targetID)
		if target == nil {
			return ErrUnknownPlayer
		}
		if !target.IsAlive {
			return ErrDeadPlayer
		}
	}

	g.ledger.RegisterVote(voterID, targetID)
	voter.Voted = true

	if g.ledger.HaveAllVoted(g.registry) {
		g.resolve()
	}
	return nil
}

// ForceResolve closes the vote early on a host override or timeout. The
// forced transition is ordinary, not an error; missing voters simply count
// as silent abstainers.
func (g *Game) ForceResolve() error {
	if g.phase != PhaseDayVoting {
		return ErrWrongPhase
	}
	g.resolve()
	return nil
}

// resolve tallies the day vote, eliminates the sole plurality target if one
// exists (ties spare everyone), clears the per-day flags and either finishes
// the game or loops back into the night.
func (g *Game) resolve() {
	victimID, _ := g.ledger.CountVotes(g.registry)
	if victimID != "" {
		if victim := g.registry.FindByID(victimID); victim != nil {
			victim.IsAlive = false
		}
	}
	for _, p := range g.registry.All() {
		p.Voted = false
	}
	g.ledger.Reset()

	if w := g.checkWin(); w != WinnerNone {
		g.finish(w)
		return
	}
	g.StartNightPhase()
}

// checkWin evaluates the win condition over the living factions.
// A simultaneous wipe of both sides is a draw. With two or fewer players
// left and a mafioso among them the mafia can no longer be outvoted.
func (g *Game) checkWin() Winner {
	mafia := g.registry.MafiaAligned()
	citizens := g.registry.NonMafiaAligned()
	switch {
	case len(mafia) == 0 && len(citizens) == 0:
		return WinnerDraw
	case len(mafia) == 0:
		return WinnerCitizens
	case len(citizens) == 0:
		return WinnerMafia
	case len(mafia)+len(citizens) <= 2:
		return WinnerMafia
	default:
		return WinnerNone
	}
}

func (g *Game) finish(w Winner) {
	g.winner = w
	g.phase = PhaseGameOver
	g.status = StatusFinished
}

// ConfirmPlayer flags that a player's client acknowledged the current step.
func (g *Game) ConfirmPlayer(playerID string) error {
	p := g.registry.FindByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Confirmed = true
	return nil
}

// ResetConfirmations clears the acknowledgement flag for every player.
func (g *Game) ResetConfirmations() {
	for _, p := range g.registry.All() {
		p.Confirmed = false
	}
}

// UpdatePlayerAttribute is the out-of-band single-field mutation used for
// the voted/isAlive/confirmed flags, bypassing a full state payload.
func (g *Game) UpdatePlayerAttribute(playerID, field string, value bool) error {
	p := g.registry.FindByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	switch field {
	case "voted":
		p.Voted = value
	case "isAlive":
		p.IsAlive = value
	case "confirmed":
		p.Confirmed = value
	default:
		return errors.New("unknown player attribute: " + field)
	}
	return nil
}

// PlayerState is the per-player slice of a state update payload.
type PlayerState struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsAlive     bool   `json:"isAlive"`
	IsProtected bool   `json:"isProtected"`
}

// StatePayload is the flattened GAME_STATE_UPDATE wire shape. It must
// round-trip through JSON without losing fields.
type StatePayload struct {
	RoomID       string                 `json:"roomId"`
	State        Status                 `json:"state"`
	CurrentPhase Phase                  `json:"currentPhase"`
	Winner       Winner                 `json:"winner,omitempty"`
	Players      map[string]PlayerState `json:"players"`
}

// Snapshot flattens the session state for broadcast.
func (g *Game) Snapshot() StatePayload {
	players := make(map[string]PlayerState, g.registry.Len())
	for _, p := range g.registry.All() {
		players[p.ID] = PlayerState{
			Name:        p.Name,
			Role:        string(p.Role),
			IsAlive:     p.IsAlive,
			IsProtected: p.IsProtected,
		}
	}
	return StatePayload{
		RoomID:       g.roomID,
		State:        g.status,
		CurrentPhase: g.phase,
		Winner:       g.winner,
		Players:      players,
	}
}
