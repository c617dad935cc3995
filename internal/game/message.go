package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType enumerates every envelope kind the room protocol speaks.
// Kinds with no server-side effect yet are still listed so that wiring them
// later cannot silently fail.
type MessageType string

const (
	MessageJoinRoom           MessageType = "JOIN_ROOM"
	MessageLeaveRoom          MessageType = "LEAVE_ROOM"
	MessageStartGame          MessageType = "START_GAME"
	MessagePlayerAction       MessageType = "PLAYER_ACTION"
	MessageVote               MessageType = "VOTE"
	MessageGameStateUpdate    MessageType = "GAME_STATE_UPDATE"
	MessageRoleAssignment     MessageType = "ROLE_ASSIGNMENT"
	MessageChat               MessageType = "CHAT"
	MessagePlayerUpdate       MessageType = "PLAYER_UPDATE"
	MessageConfirmation       MessageType = "CONFIRMATION"
	MessageResetConfirmations MessageType = "RESET_CONFIRMATIONS"
)

var knownMessageTypes = map[MessageType]bool{
	MessageJoinRoom:           true,
	MessageLeaveRoom:          true,
	MessageStartGame:          true,
	MessagePlayerAction:       true,
	MessageVote:               true,
	MessageGameStateUpdate:    true,
	MessageRoleAssignment:     true,
	MessageChat:               true,
	MessagePlayerUpdate:       true,
	MessageConfirmation:       true,
	MessageResetConfirmations: true,
}

var ErrUnknownMessageType = errors.New("unknown game message type")

// GameMessage is the envelope used both on the wire and for local callback
// dispatch. The payload stays raw JSON until a handler picks it apart, so
// Decode(Encode(m)) round-trips every supported shape byte for byte.
type GameMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeMessage wraps a payload value into a serialized envelope.
func EncodeMessage(t MessageType, payload any) ([]byte, error) {
	if !knownMessageTypes[t] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, t)
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", t, err)
		}
		raw = b
	}
	return json.Marshal(GameMessage{Type: t, Payload: raw})
}

// DecodeMessage parses a serialized envelope, rejecting unknown types.
func DecodeMessage(data []byte) (GameMessage, error) {
	var msg GameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return GameMessage{}, fmt.Errorf("decode game message: %w", err)
	}
	if !knownMessageTypes[msg.Type] {
		return GameMessage{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}
	return msg, nil
}
