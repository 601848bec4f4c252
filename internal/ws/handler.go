package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pairpad/internal/collab"
	"pairpad/internal/db"
	"pairpad/internal/metrics"
	"pairpad/internal/persist"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler owns the websocket endpoint: it binds connections to rooms,
// drives the receive loop, and routes decoded frames into the registry.
type Handler struct {
	registry   *collab.Registry
	bridge     *persist.Bridge
	database   *db.Database
	readLimit  int64
	pingPeriod time.Duration
}

func NewHandler(registry *collab.Registry, bridge *persist.Bridge, database *db.Database, readLimit int64, pingPeriod time.Duration) *Handler {
	return &Handler{
		registry:   registry,
		bridge:     bridge,
		database:   database,
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// ServeWS upgrades GET /ws/:roomID. Query parameters `username` and
// `userId` carry the client's persistent identity; both fall back to
// generated values. The durable room must exist before a join is allowed.
func (h *Handler) ServeWS(c *gin.Context) {
	roomID := c.Param("roomID")

	room, err := h.database.GetRoom(roomID)
	if err != nil {
		log.Error().Str("module", "ws").Str("room", roomID).Err(err).Msg("room lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	userID := c.Query("userId")
	if userID == "" {
		userID = uuid.NewString()[:8]
	}
	username := c.Query("username")
	if username == "" {
		username = "User_" + shortID(userID)
	}
	color := collab.ColorFor(userID)

	// Warm the cache from the store before the first join sees it.
	h.registry.PrimeCache(roomID, room.CodeContent, room.Language)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Str("module", "ws").Err(err).Msg("upgrade failed")
		return
	}

	client := newClient(conn, roomID)
	go client.writePump(h.pingPeriod)

	session := h.registry.Join(roomID, client, userID, username, color)
	if session == nil {
		client.Close()
		return
	}
	client.session = session

	h.bridge.BumpActiveUsers(roomID, 1)
	metrics.ConnectionsActive.Inc()
	log.Info().Str("module", "ws").Str("room", roomID).Str("user", userID).Str("username", username).Msg("joined")

	client.readPump(h)
}

// route dispatches one inbound frame. Protocol errors answer only the
// offending connection and never mutate room state.
func (h *Handler) route(c *Client, data []byte) {
	msg, err := collab.DecodeInbound(data)
	if err != nil {
		metrics.ProtocolErrors.Inc()
		_ = c.Send(collab.ErrorFrame(errorMessage(err)))
		return
	}

	switch m := msg.(type) {
	case *collab.CodeUpdate:
		metrics.MessagesInbound.WithLabelValues(collab.KindCodeUpdate).Inc()
		h.registry.CodeUpdate(c.session, m.Code, m.CursorPosition)
		h.bridge.SaveCode(c.roomID, m.Code)

	case *collab.CursorUpdate:
		metrics.MessagesInbound.WithLabelValues(collab.KindCursorUpdate).Inc()
		h.registry.CursorUpdate(c.session, m.CursorPosition, m.Selection)

	case *collab.ChatSend:
		metrics.MessagesInbound.WithLabelValues(collab.KindChatMessage).Inc()
		// Whitespace-only chat is silently dropped.
		if strings.TrimSpace(m.Content) == "" {
			return
		}
		h.registry.AppendChat(c.session, m.Content, m.MessageType)

	case collab.TypingStart:
		metrics.MessagesInbound.WithLabelValues(collab.KindTypingStart).Inc()
		h.registry.SetTyping(c.session, true)

	case collab.TypingStop:
		metrics.MessagesInbound.WithLabelValues(collab.KindTypingStop).Inc()
		h.registry.SetTyping(c.session, false)

	case *collab.LanguageChange:
		metrics.MessagesInbound.WithLabelValues(collab.KindLanguageChange).Inc()
		language := m.Language
		if language == "" {
			language = "python"
		}
		h.registry.SetLanguage(c.session, language)
		h.bridge.SaveLanguage(c.roomID, language)

	case collab.Ping:
		metrics.MessagesInbound.WithLabelValues(collab.KindPing).Inc()
		_ = c.Send(collab.EncodeFrame(collab.KindPong, nil))
	}
}

// disconnect runs the leave sequence once per session, no matter how the
// death of the connection was detected.
func (h *Handler) disconnect(c *Client) {
	if c.session == nil {
		return
	}
	username, ok := h.registry.Leave(c.roomID, c.session)
	if !ok {
		return
	}

	metrics.ConnectionsActive.Dec()
	h.bridge.BumpActiveUsers(c.roomID, -1)

	h.registry.Broadcast(c.roomID, collab.EncodeFrame(collab.KindUserLeft, map[string]any{
		"userId":      c.session.UserID,
		"username":    username,
		"activeUsers": h.registry.UserCount(c.roomID),
	}), nil)

	log.Info().Str("module", "ws").Str("room", c.roomID).Str("user", c.session.UserID).Msg("left")
}

func errorMessage(err error) string {
	if unknown, ok := err.(*collab.UnknownKindError); ok {
		return unknown.Error()
	}
	return "Invalid JSON format"
}

func shortID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
