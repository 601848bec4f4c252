package collab

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, msg Inbound)
	}{
		{
			name:  "code update",
			frame: `{"type":"code_update","payload":{"code":"print(1)","cursorPosition":8}}`,
			check: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*CodeUpdate)
				if !ok {
					t.Fatalf("got %T", msg)
				}
				if m.Code != "print(1)" || m.CursorPosition != 8 {
					t.Errorf("unexpected fields: %+v", m)
				}
			},
		},
		{
			name:  "cursor update with selection",
			frame: `{"type":"cursor_update","payload":{"cursorPosition":4,"selection":{"start":1,"end":4}}}`,
			check: func(t *testing.T, msg Inbound) {
				m, ok := msg.(*CursorUpdate)
				if !ok {
					t.Fatalf("got %T", msg)
				}
				if m.CursorPosition != 4 || m.Selection == nil || m.Selection.Start != 1 || m.Selection.End != 4 {
					t.Errorf("unexpected fields: %+v", m)
				}
			},
		},
		{
			name:  "cursor update without selection",
			frame: `{"type":"cursor_update","payload":{"cursorPosition":9}}`,
			check: func(t *testing.T, msg Inbound) {
				m := msg.(*CursorUpdate)
				if m.Selection != nil {
					t.Errorf("selection should be nil, got %+v", m.Selection)
				}
			},
		},
		{
			name:  "chat message",
			frame: `{"type":"chat_message","payload":{"content":"hi","messageType":"message"}}`,
			check: func(t *testing.T, msg Inbound) {
				m := msg.(*ChatSend)
				if m.Content != "hi" || m.MessageType != "message" {
					t.Errorf("unexpected fields: %+v", m)
				}
			},
		},
		{
			name:  "typing start without payload",
			frame: `{"type":"typing_start"}`,
			check: func(t *testing.T, msg Inbound) {
				if _, ok := msg.(TypingStart); !ok {
					t.Fatalf("got %T", msg)
				}
			},
		},
		{
			name:  "typing stop",
			frame: `{"type":"typing_stop","payload":{}}`,
			check: func(t *testing.T, msg Inbound) {
				if _, ok := msg.(TypingStop); !ok {
					t.Fatalf("got %T", msg)
				}
			},
		},
		{
			name:  "language change",
			frame: `{"type":"language_change","payload":{"language":"go"}}`,
			check: func(t *testing.T, msg Inbound) {
				m := msg.(*LanguageChange)
				if m.Language != "go" {
					t.Errorf("language = %q", m.Language)
				}
			},
		},
		{
			name:  "ping",
			frame: `{"type":"ping"}`,
			check: func(t *testing.T, msg Inbound) {
				if _, ok := msg.(Ping); !ok {
					t.Fatalf("got %T", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeInbound([]byte(tt.frame))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			tt.check(t, msg)
		})
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"teleport","payload":{}}`))
	var unknown *UnknownKindError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownKindError, got %v", err)
	}
	if unknown.Type != "teleport" {
		t.Errorf("reported type = %q", unknown.Type)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, frame := range []string{
		`not json at all`,
		`{"type":"code_update","payload":"string instead of object"}`,
		``,
	} {
		_, err := DecodeInbound([]byte(frame))
		if !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("frame %q: expected ErrMalformedFrame, got %v", frame, err)
		}
	}
}

func TestEncodeFrame(t *testing.T) {
	data := EncodeFrame(KindPong, nil)
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != KindPong {
		t.Errorf("type = %q", env.Type)
	}
	if len(env.Payload) != 0 {
		t.Errorf("nil payload should be omitted, got %s", env.Payload)
	}

	data = ErrorFrame("unknown message type")
	var errEnv struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(data, &errEnv); err != nil {
		t.Fatal(err)
	}
	if errEnv.Type != KindError || errEnv.Payload["message"] != "unknown message type" {
		t.Errorf("unexpected error frame: %+v", errEnv)
	}
}

func TestColorForDeterministic(t *testing.T) {
	if ColorFor("alice") != ColorFor("alice") {
		t.Error("same id should always map to the same color")
	}
	color := ColorFor("alice")
	found := false
	for _, c := range userColors {
		if c == color {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("color %q not in palette", color)
	}
}
