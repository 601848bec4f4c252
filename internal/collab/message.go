package collab

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message kinds accepted from clients.
const (
	KindCodeUpdate     = "code_update"
	KindCursorUpdate   = "cursor_update"
	KindChatMessage    = "chat_message"
	KindTypingStart    = "typing_start"
	KindTypingStop     = "typing_stop"
	KindLanguageChange = "language_change"
	KindPing           = "ping"
)

// Outbound message kinds sent to clients.
const (
	KindRoomState  = "room_state"
	KindUserJoined = "user_joined"
	KindUserLeft   = "user_left"
	KindPong       = "pong"
	KindError      = "error"
)

var ErrMalformedFrame = errors.New("malformed frame")

// UnknownKindError reports an envelope whose type is not part of the
// protocol. It is reported to the offending connection only.
type UnknownKindError struct {
	Type string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// Inbound is the decoded form of a client frame. The concrete variants
// below are the only implementations; dispatch switches over them
// exhaustively.
type Inbound interface {
	kind() string
}

type CodeUpdate struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursorPosition"`
}

type CursorUpdate struct {
	CursorPosition int        `json:"cursorPosition"`
	Selection      *Selection `json:"selection"`
}

type ChatSend struct {
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

type TypingStart struct{}

type TypingStop struct{}

type LanguageChange struct {
	Language string `json:"language"`
}

type Ping struct{}

func (CodeUpdate) kind() string     { return KindCodeUpdate }
func (CursorUpdate) kind() string   { return KindCursorUpdate }
func (ChatSend) kind() string       { return KindChatMessage }
func (TypingStart) kind() string    { return KindTypingStart }
func (TypingStop) kind() string     { return KindTypingStop }
func (LanguageChange) kind() string { return KindLanguageChange }
func (Ping) kind() string           { return KindPing }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeInbound parses a client frame into its typed variant. Broken JSON
// and payloads of the wrong shape return ErrMalformedFrame; a valid
// envelope with an unrecognized type returns *UnknownKindError.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	decode := func(v Inbound) (Inbound, error) {
		if len(env.Payload) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(env.Payload, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return v, nil
	}

	switch env.Type {
	case KindCodeUpdate:
		return decode(&CodeUpdate{})
	case KindCursorUpdate:
		return decode(&CursorUpdate{})
	case KindChatMessage:
		return decode(&ChatSend{})
	case KindTypingStart:
		return TypingStart{}, nil
	case KindTypingStop:
		return TypingStop{}, nil
	case KindLanguageChange:
		return decode(&LanguageChange{})
	case KindPing:
		return Ping{}, nil
	default:
		return nil, &UnknownKindError{Type: env.Type}
	}
}

type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// EncodeFrame builds an outbound wire frame.
func EncodeFrame(kind string, payload any) []byte {
	b, err := json.Marshal(frame{Type: kind, Payload: payload})
	if err != nil {
		// Payloads are plain structs and maps; this cannot fail in practice.
		return nil
	}
	return b
}

// ErrorFrame builds the typed error frame sent to an offending connection.
func ErrorFrame(message string) []byte {
	return EncodeFrame(KindError, map[string]string{"message": message})
}
