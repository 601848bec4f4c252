package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pairpad/internal/autocomplete"
	"pairpad/internal/collab"
	"pairpad/internal/db"
	"pairpad/internal/execute"
)

type API struct {
	registry *collab.Registry
	database *db.Database
	runner   *execute.Runner
}

func New(registry *collab.Registry, database *db.Database, runner *execute.Runner) *API {
	return &API{
		registry: registry,
		database: database,
		runner:   runner,
	}
}

type RoomResponse struct {
	RoomID      string    `json:"roomId"`
	Language    string    `json:"language"`
	CodeContent string    `json:"codeContent"`
	ActiveUsers int       `json:"activeUsers"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateRoomRequest struct {
	Language string `json:"language"`
}

func (a *API) roomResponse(room *db.Room) RoomResponse {
	active := a.registry.UserCount(room.ID)
	if active == 0 {
		active = room.ActiveUsers
	}
	return RoomResponse{
		RoomID:      room.ID,
		Language:    room.Language,
		CodeContent: room.CodeContent,
		ActiveUsers: active,
		CreatedAt:   room.CreatedAt,
	}
}

func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(c *gin.Context) {
	stats := gin.H{
		"active_rooms":   a.registry.RoomCount(),
		"active_clients": a.registry.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if dbStats, err := a.database.GetStats(); err == nil {
		stats["total_rooms"] = dbStats["room_count"]
	}

	c.JSON(http.StatusOK, stats)
}

// CreateRoomHandler makes a new durable room seeded with starter code.
// The body is optional; language defaults to python.
func (a *API) CreateRoomHandler(c *gin.Context) {
	var req CreateRoomRequest
	// Tolerate an empty body.
	_ = c.ShouldBindJSON(&req)

	room, err := a.database.CreateRoom(req.Language)
	if err != nil {
		log.Error().Str("module", "api").Err(err).Msg("create room failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, a.roomResponse(room))
}

func (a *API) GetRoomHandler(c *gin.Context) {
	roomID := c.Param("roomID")

	room, err := a.database.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room '" + roomID + "' not found"})
		return
	}

	c.JSON(http.StatusOK, a.roomResponse(room))
}

func (a *API) ListRoomsHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset"))
	if offset < 0 {
		offset = 0
	}

	rooms, err := a.database.ListRooms(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	response := make([]RoomResponse, len(rooms))
	for i := range rooms {
		response[i] = a.roomResponse(&rooms[i])
	}
	c.JSON(http.StatusOK, response)
}

// AutocompleteHandler proxies the pure suggestion function.
func (a *API) AutocompleteHandler(c *gin.Context) {
	var req autocomplete.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.CursorPosition < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cursorPosition must be non-negative"})
		return
	}
	if req.Language == "" {
		req.Language = "python"
	}

	c.JSON(http.StatusOK, autocomplete.Suggest(req))
}

type ExecuteRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ExecuteHandler runs code in the sandbox. Sandbox failures surface inside
// the result; only an unsupported language is a client error.
func (a *API) ExecuteHandler(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := a.runner.Run(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		if errors.Is(err, execute.ErrUnsupportedLanguage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "execution failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
