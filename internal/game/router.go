package game

import (
	"encoding/json"

	"palermoJusticeAPI/internal/logger"
)

// Outbound is a delivery produced by applying an inbound message: either a
// broadcast to the whole room or a private message for one player.
type Outbound struct {
	TargetID string // player id; empty means broadcast
	Message  GameMessage
}

// Callback observes messages of one type after they have been applied.
type Callback func(GameMessage)

// CallbackHandle identifies a registration so it can be removed again.
type CallbackHandle struct {
	msgType MessageType
	id      int
}

// Router turns inbound envelopes into state-machine mutations and outbound
// deliveries, then notifies locally registered callbacks. It is not safe
// for concurrent use: the owning session applies messages one at a time.
type Router struct {
	game      *Game
	callbacks map[MessageType]map[int]Callback
	nextID    int

	// Callbacks may feed new messages back in; those are queued and applied
	// after the current one instead of re-entering the state machine.
	dispatching bool
	pending     []GameMessage
}

func NewRouter(g *Game) *Router {
	return &Router{
		game:      g,
		callbacks: make(map[MessageType]map[int]Callback),
	}
}

func (r *Router) Game() *Game { return r.game }

// RegisterCallback subscribes fn to every routed message of type t. Multiple
// subscribers per type are allowed; delivery order is unspecified.
func (r *Router) RegisterCallback(t MessageType, fn Callback) *CallbackHandle {
	if r.callbacks[t] == nil {
		r.callbacks[t] = make(map[int]Callback)
	}
	r.nextID++
	r.callbacks[t][r.nextID] = fn
	return &CallbackHandle{msgType: t, id: r.nextID}
}

func (r *Router) UnregisterCallback(h *CallbackHandle) {
	if h == nil {
		return
	}
	delete(r.callbacks[h.msgType], h.id)
}

// Route decodes raw bytes and applies the message. Malformed input is
// logged and dropped; the state machine is untouched.
func (r *Router) Route(raw []byte) []Outbound {
	msg, err := DecodeMessage(raw)
	if err != nil {
		logger.Log.Warnf("room %s: dropping message: %v", r.game.RoomID(), err)
		return nil
	}
	return r.RouteMessage(msg)
}

// RouteMessage applies one message against the state machine, fires the
// callbacks for its type and returns the resulting deliveries. Re-entrant
// calls from inside a callback are queued and applied afterward.
func (r *Router) RouteMessage(msg GameMessage) []Outbound {
	if r.dispatching {
		r.pending = append(r.pending, msg)
		return nil
	}

	outs := r.applyAndNotify(msg)
	for len(r.pending) > 0 {
		next := r.pending[0]
		r.pending = r.pending[1:]
		outs = append(outs, r.applyAndNotify(next)...)
	}
	return outs
}

func (r *Router) applyAndNotify(msg GameMessage) []Outbound {
	r.dispatching = true
	defer func() { r.dispatching = false }()

	outs := r.apply(msg)
	for _, fn := range r.callbacks[msg.Type] {
		fn(msg)
	}
	return outs
}

// Payload shapes for the handled message kinds.
type (
	JoinPayload struct {
		RoomID     string `json:"roomId,omitempty"`
		PlayerName string `json:"playerName"`
	}
	LeavePayload struct {
		PlayerName string `json:"playerName"`
	}
	ActionPayload struct {
		ActorID  string `json:"actorId"`
		TargetID string `json:"targetId"`
		Role     string `json:"role,omitempty"`
	}
	VotePayload struct {
		VoterID  string `json:"voterId"`
		TargetID string `json:"targetId"`
	}
	PhaseRequestPayload struct {
		CurrentPhase Phase `json:"currentPhase"`
	}
	PlayerUpdatePayload struct {
		PlayerID string `json:"playerId"`
		Field    string `json:"field"`
		Value    bool   `json:"value"`
	}
	ConfirmationPayload struct {
		PlayerID  string `json:"playerId"`
		RolePhase string `json:"rolePhase,omitempty"`
		Confirmed bool   `json:"confirmed"`
	}
	RoleAssignmentPayload struct {
		PlayerID string `json:"playerId"`
		Role     string `json:"role"`
	}
	InspectionPayload struct {
		TargetID   string `json:"targetId"`
		TargetRole string `json:"targetRole"`
	}
)

func (r *Router) apply(msg GameMessage) []Outbound {
	g := r.game
	drop := func(err error) []Outbound {
		logger.Log.Warnf("room %s: %s rejected: %v", g.RoomID(), msg.Type, err)
		return nil
	}

	switch msg.Type {
	case MessageJoinRoom:
		var p JoinPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		if p.PlayerName == "" {
			return nil
		}
		if _, err := g.Join(p.PlayerName); err != nil {
			return drop(err)
		}
		return []Outbound{r.stateUpdate()}

	case MessageLeaveRoom:
		var p LeavePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		g.Leave(p.PlayerName)
		return []Outbound{r.stateUpdate()}

	case MessageStartGame:
		if err := g.Start(); err != nil {
			return drop(err)
		}
		outs := make([]Outbound, 0, g.Registry().Len()+1)
		for _, p := range g.Registry().All() {
			outs = append(outs, privateMessage(p.ID, MessageRoleAssignment, RoleAssignmentPayload{
				PlayerID: p.ID,
				Role:     string(p.Role),
			}))
		}
		return append(outs, r.stateUpdate())

	case MessagePlayerAction:
		var p ActionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		inspected, err := g.SubmitNightAction(p.ActorID, p.TargetID)
		if err != nil {
			return drop(err)
		}
		outs := make([]Outbound, 0, 2)
		if inspected != "" {
			outs = append(outs, privateMessage(p.ActorID, MessagePlayerAction, InspectionPayload{
				TargetID:   p.TargetID,
				TargetRole: string(inspected),
			}))
		}
		return append(outs, r.stateUpdate())

	case MessageVote:
		var p VotePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		if err := g.SubmitVote(p.VoterID, p.TargetID); err != nil {
			return drop(err)
		}
		return []Outbound{r.stateUpdate()}

	case MessageGameStateUpdate:
		// Inbound state updates are host phase requests, the same way the
		// original clients pushed phase changes to the shared room record.
		var p PhaseRequestPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		switch p.CurrentPhase {
		case PhaseDayVoting:
			if err := g.BeginVoting(); err != nil {
				return drop(err)
			}
		case PhaseNightAction:
			// The host closing the vote early: tally whatever is in the
			// ledger and move on.
			if err := g.ForceResolve(); err != nil {
				return drop(err)
			}
		default:
			// Other phases are server-driven; accept and ignore.
			return nil
		}
		return []Outbound{r.stateUpdate()}

	case MessagePlayerUpdate:
		var p PlayerUpdatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		if err := g.UpdatePlayerAttribute(p.PlayerID, p.Field, p.Value); err != nil {
			return drop(err)
		}
		return []Outbound{r.stateUpdate()}

	case MessageConfirmation:
		var p ConfirmationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return drop(err)
		}
		if err := g.ConfirmPlayer(p.PlayerID); err != nil {
			return drop(err)
		}
		// Confirmations fan out as-is; clients track who is ready.
		return []Outbound{{Message: msg}}

	case MessageResetConfirmations:
		g.ResetConfirmations()
		return []Outbound{{Message: msg}}

	case MessageChat:
		// Relayed untouched.
		return []Outbound{{Message: msg}}

	case MessageRoleAssignment:
		// Accepted but inert: the server is the only role authority.
		return nil

	default:
		return nil
	}
}

func (r *Router) stateUpdate() Outbound {
	raw, err := json.Marshal(r.game.Snapshot())
	if err != nil {
		logger.Log.Errorf("room %s: snapshot marshal: %v", r.game.RoomID(), err)
		return Outbound{Message: GameMessage{Type: MessageGameStateUpdate}}
	}
	return Outbound{Message: GameMessage{Type: MessageGameStateUpdate, Payload: raw}}
}

func privateMessage(targetID string, t MessageType, payload any) Outbound {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("marshal %s payload: %v", t, err)
	}
	return Outbound{TargetID: targetID, Message: GameMessage{Type: t, Payload: raw}}
}
