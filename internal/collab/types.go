package collab

import "time"

// MaxChatHistory bounds the retained chat log per room; the oldest entry is
// evicted first.
const MaxChatHistory = 50

// User is a participant's presence record, keyed by user id within a room.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Color      string `json:"color"`
	IsTyping   bool   `json:"isTyping"`
	LastActive string `json:"lastActive"`
}

// Selection is an optional selected range reported with a cursor.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CursorState is a user's last reported cursor, denormalized with
// username and color for display. Positions are opaque client-reported
// offsets and are not range-checked against the buffer.
type CursorState struct {
	Position  int        `json:"position"`
	Selection *Selection `json:"selection"`
	Username  string     `json:"username"`
	Color     string     `json:"color"`
}

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// RoomCache holds the fields that survive a room emptying out, keyed by
// room id in the registry until process shutdown. There is no eviction;
// retention duration is intentionally unbounded.
type RoomCache struct {
	Code     string
	Language string
	Chat     []ChatMessage
}

// Snapshot is the consistent point-in-time room state handed to a newly
// joined session as the room_state payload.
type Snapshot struct {
	Code        string                  `json:"code"`
	Language    string                  `json:"language"`
	ActiveUsers int                     `json:"activeUsers"`
	Users       map[string]*User        `json:"users"`
	Cursors     map[string]*CursorState `json:"cursors"`
	UserID      string                  `json:"userId"`
	ChatHistory []ChatMessage           `json:"chatHistory"`
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
