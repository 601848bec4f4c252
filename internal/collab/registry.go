package collab

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Fallback room content for rooms that were never primed from the store.
const (
	defaultCode     = "# Welcome to Pair Programming!\n# Start coding together...\n\n"
	defaultLanguage = "python"
)

// Conn is the outbound half of a client connection. Send enqueues a frame
// and must not block; an error marks the connection dead and causes its
// lazy eviction from the room.
type Conn interface {
	Send(frame []byte) error
}

// Session binds one connection to a room and user identity.
type Session struct {
	conn     Conn
	room     *room
	RoomID   string
	UserID   string
	Username string
	Color    string

	left bool // guarded by the room lock; makes Leave idempotent
}

// room is the live state of a hot room. All fields are guarded by mu,
// which is held for the whole read-snapshot / mutate / enqueue-broadcast
// unit but never across a socket write (sends are buffered enqueues).
type room struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	users    map[string]*User
	cursors  map[string]*CursorState
	typing   map[string]struct{}
	retired  bool // set once the room is dropped from the live index
	cache    *RoomCache
}

// Registry owns the room-id → room mapping and the retained caches. It is
// the only mutable state shared across connections; handlers never touch
// room fields directly.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	caches map[string]*RoomCache
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		caches: make(map[string]*RoomCache),
	}
}

// PrimeCache seeds a cold room cache with the store's code and language.
// A warm cache wins: in-memory state is authoritative while the room is
// hot or retained.
func (reg *Registry) PrimeCache(roomID, code, language string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.caches[roomID]; ok {
		return
	}
	reg.caches[roomID] = &RoomCache{Code: code, Language: language}
}

func (reg *Registry) getOrCreateRoom(roomID string) *room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok {
		return r
	}
	cache, ok := reg.caches[roomID]
	if !ok {
		cache = &RoomCache{Code: defaultCode, Language: defaultLanguage}
		reg.caches[roomID] = cache
	}
	r := &room{
		sessions: make(map[*Session]struct{}),
		users:    make(map[string]*User),
		cursors:  make(map[string]*CursorState),
		typing:   make(map[string]struct{}),
		cache:    cache,
	}
	reg.rooms[roomID] = r
	return r
}

func (reg *Registry) lookup(roomID string) *room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[roomID]
}

// Join registers a connection with a room, creating the room state on
// first join. The joining client receives its room_state snapshot before
// any other broadcast can reach it, and everyone else receives a
// user_joined notice; both are produced under the same lock hold, so the
// snapshot is atomic with respect to concurrent mutation. Returns nil if
// the welcome could not be delivered.
func (reg *Registry) Join(roomID string, conn Conn, userID, username, color string) *Session {
	var r *room
	for {
		r = reg.getOrCreateRoom(roomID)
		r.mu.Lock()
		if !r.retired {
			break
		}
		// Lost a race with the last leave: this room object was already
		// dropped from the index. Retry against a fresh one.
		r.mu.Unlock()
	}
	defer r.mu.Unlock()

	s := &Session{conn: conn, room: r, RoomID: roomID, UserID: userID, Username: username, Color: color}
	r.sessions[s] = struct{}{}
	r.users[userID] = &User{
		ID:         userID,
		Username:   username,
		Color:      color,
		LastActive: nowStamp(),
	}
	r.cursors[userID] = &CursorState{Position: 0, Username: username, Color: color}

	welcome := EncodeFrame(KindRoomState, Snapshot{
		Code:        r.cache.Code,
		Language:    r.cache.Language,
		ActiveUsers: len(r.sessions),
		Users:       r.users,
		Cursors:     r.cursors,
		UserID:      userID,
		ChatHistory: append([]ChatMessage(nil), r.cache.Chat...),
	})
	if err := conn.Send(welcome); err != nil {
		log.Warn().Str("module", "collab").Str("room", roomID).Str("user", userID).Err(err).Msg("welcome rejected, dropping session")
		delete(r.sessions, s)
		delete(r.users, userID)
		delete(r.cursors, userID)
		return nil
	}

	joined := EncodeFrame(KindUserJoined, map[string]any{
		"userId":      userID,
		"username":    username,
		"color":       color,
		"activeUsers": len(r.sessions),
		"users":       r.users,
		"cursors":     r.cursors,
	})
	r.broadcastLocked(joined, s)
	return s
}

// Leave removes a session and its presence state. It is idempotent: only
// the first call per session reports ok, even when a dead connection was
// already lazily evicted by a failed broadcast. When the last session is
// gone the room is dropped from the live index; its cache stays retained
// for reconnection.
func (reg *Registry) Leave(roomID string, s *Session) (username string, ok bool) {
	if s == nil || s.room == nil {
		return "", false
	}
	// The session's own room pointer, not an index lookup: after a
	// retire/recreate cycle the index may hold a different room object for
	// the same id, and touching that one would corrupt its presence maps.
	r := s.room

	r.mu.Lock()
	if s.left {
		r.mu.Unlock()
		return "", false
	}
	s.left = true

	username = s.Username
	if u, found := r.users[s.UserID]; found {
		username = u.Username
	}
	delete(r.sessions, s)
	delete(r.users, s.UserID)
	delete(r.cursors, s.UserID)
	delete(r.typing, s.UserID)
	empty := len(r.sessions) == 0
	r.mu.Unlock()

	if empty {
		reg.retire(roomID, r)
	}
	return username, true
}

// retire drops an empty room from the live index. Re-checked under both
// locks because a join may have raced the last leave; the retired flag is
// set in the same critical section as the index delete so a join that
// already holds the stale room pointer can detect it and retry.
func (reg *Registry) retire(roomID string, r *room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.rooms[roomID] != r {
		return
	}
	r.mu.Lock()
	if len(r.sessions) == 0 {
		r.retired = true
		delete(reg.rooms, roomID)
		log.Debug().Str("module", "collab").Str("room", roomID).Msg("room retired, cache retained")
	}
	r.mu.Unlock()
}

// UserCount reports live connections in a room, 0 for an unknown room.
func (reg *Registry) UserCount(roomID string) int {
	r := reg.lookup(roomID)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RoomCount reports the number of hot rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// ClientCount reports live connections across all rooms.
func (reg *Registry) ClientCount() int {
	reg.mu.RLock()
	rooms := make([]*room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	total := 0
	for _, r := range rooms {
		r.mu.Lock()
		total += len(r.sessions)
		r.mu.Unlock()
	}
	return total
}

// Broadcast fans a frame out to every session in the room except exclude.
func (reg *Registry) Broadcast(roomID string, data []byte, exclude *Session) {
	r := reg.lookup(roomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(data, exclude)
}

// broadcastLocked enqueues a frame to every session except exclude. A
// recipient whose send fails is evicted from the connection set; its
// presence state stays until the protocol-level disconnect runs Leave, so
// no user_left is synthesized here. Caller holds r.mu, which keeps each
// recipient's outbound queue in room-operation order.
func (r *room) broadcastLocked(data []byte, exclude *Session) {
	if data == nil {
		return
	}
	for s := range r.sessions {
		if s == exclude {
			continue
		}
		if err := s.conn.Send(data); err != nil {
			log.Debug().Str("module", "collab").Str("user", s.UserID).Err(err).Msg("send failed, evicting connection")
			delete(r.sessions, s)
		}
	}
}

// CodeUpdate replaces the shared buffer (last-write-wins), moves the
// sender's cursor, and notifies everyone else. Persistence is the
// caller's concern.
func (reg *Registry) CodeUpdate(s *Session, code string, cursorPosition int) {
	r := reg.lookup(s.RoomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Code = code
	r.cursors[s.UserID] = &CursorState{
		Position: cursorPosition,
		Username: s.Username,
		Color:    s.Color,
	}
	if u, ok := r.users[s.UserID]; ok {
		u.LastActive = nowStamp()
	}

	r.broadcastLocked(EncodeFrame(KindCodeUpdate, map[string]any{
		"code":           code,
		"cursorPosition": cursorPosition,
		"userId":         s.UserID,
		"username":       s.Username,
		"timestamp":      nowStamp(),
	}), s)
}

// CursorUpdate records the sender's cursor and notifies everyone else.
func (reg *Registry) CursorUpdate(s *Session, cursorPosition int, selection *Selection) {
	r := reg.lookup(s.RoomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cursors[s.UserID] = &CursorState{
		Position:  cursorPosition,
		Selection: selection,
		Username:  s.Username,
		Color:     s.Color,
	}

	r.broadcastLocked(EncodeFrame(KindCursorUpdate, map[string]any{
		"userId":         s.UserID,
		"username":       s.Username,
		"cursorPosition": cursorPosition,
		"selection":      selection,
	}), s)
}

// AppendChat stores a chat message, evicting beyond MaxChatHistory, and
// broadcasts it to the whole room including the sender. Content must be
// validated (non-empty after trimming) by the caller.
func (reg *Registry) AppendChat(s *Session, content, messageType string) {
	r := reg.lookup(s.RoomID)
	if r == nil {
		return
	}
	if messageType == "" {
		messageType = "message"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    s.UserID,
		Username:  s.Username,
		Content:   content,
		Timestamp: nowStamp(),
		Type:      messageType,
	}
	r.cache.Chat = append(r.cache.Chat, msg)
	if n := len(r.cache.Chat); n > MaxChatHistory {
		r.cache.Chat = append([]ChatMessage(nil), r.cache.Chat[n-MaxChatHistory:]...)
	}

	r.broadcastLocked(EncodeFrame(KindChatMessage, map[string]any{
		"message": msg,
	}), nil)
}

// SetTyping flips the sender's typing flag and notifies everyone else.
func (reg *Registry) SetTyping(s *Session, typing bool) {
	r := reg.lookup(s.RoomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := KindTypingStop
	if typing {
		kind = KindTypingStart
		r.typing[s.UserID] = struct{}{}
	} else {
		delete(r.typing, s.UserID)
	}
	if u, ok := r.users[s.UserID]; ok {
		u.IsTyping = typing
	}

	r.broadcastLocked(EncodeFrame(kind, map[string]any{
		"userId":   s.UserID,
		"username": s.Username,
	}), s)
}

// SetLanguage switches the room language and notifies the whole room,
// sender included. Persistence is the caller's concern.
func (reg *Registry) SetLanguage(s *Session, language string) {
	r := reg.lookup(s.RoomID)
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Language = language

	r.broadcastLocked(EncodeFrame(KindLanguageChange, map[string]any{
		"language": language,
		"userId":   s.UserID,
		"username": s.Username,
	}), nil)
}
