package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"pairpad/internal/metrics"
	"pairpad/internal/ratelimit"
	"pairpad/internal/ws"
)

// Sandbox submissions are expensive upstream, so the execute and
// autocomplete routes carry a per-address token bucket.
const (
	computeRequestsPerSecond = 5
	computeRequestBurst      = 10
)

// rateLimitMiddleware rejects callers that exhaust their bucket.
func rateLimitMiddleware(limiters *ratelimit.ClientLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// NewRouter assembles the full HTTP surface: REST endpoints, the
// websocket route, health, stats, and Prometheus metrics. The returned
// handler is wrapped with CORS for the given origins.
func NewRouter(a *API, wsHandler *ws.Handler, mode string, corsAllow []string) http.Handler {
	gin.SetMode(ginMode(mode))

	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() != gin.ReleaseMode {
		r.Use(gin.Logger())
	}

	r.GET("/health", a.HealthHandler)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	computeLimiters := ratelimit.NewClientLimiters(computeRequestsPerSecond, computeRequestBurst)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/rooms", a.CreateRoomHandler)
		apiGroup.GET("/rooms", a.ListRoomsHandler)
		apiGroup.GET("/rooms/:roomID", a.GetRoomHandler)
		apiGroup.GET("/stats", a.StatsHandler)

		limited := apiGroup.Group("", rateLimitMiddleware(computeLimiters))
		limited.POST("/autocomplete", a.AutocompleteHandler)
		limited.POST("/execute", a.ExecuteHandler)
	}

	r.GET("/ws/:roomID", wsHandler.ServeWS)

	return cors.New(cors.Options{
		AllowedOrigins:   corsAllow,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
