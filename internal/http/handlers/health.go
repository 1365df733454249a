package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/clients/redis"
	"github.com/yungbote/studygraph-backend/internal/db"
	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

type HealthHandler struct {
	pg    *db.PostgresService
	store *graph.Store
	cache redis.Cache
	llm   *llm.Orchestrator
	log   *logger.Logger
}

func NewHealthHandler(pg *db.PostgresService, store *graph.Store, cache redis.Cache, orchestrator *llm.Orchestrator, baseLog *logger.Logger) *HealthHandler {
	return &HealthHandler{
		pg:    pg,
		store: store,
		cache: cache,
		llm:   orchestrator,
		log:   baseLog.With("handler", "HealthHandler"),
	}
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
}

// Health reports per-component status. Optional components that were never
// configured report "disabled" rather than failing the check.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	components := gin.H{}
	healthy := true

	if h.pg != nil {
		if err := h.pg.Ping(); err != nil {
			components["postgres"] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
		} else {
			components["postgres"] = gin.H{"status": "up"}
		}
	} else {
		components["postgres"] = gin.H{"status": "disabled"}
	}

	if h.store != nil && h.store.Available() {
		if err := h.store.Ping(ctx); err != nil {
			components["neo4j"] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
		} else {
			components["neo4j"] = gin.H{"status": "up"}
		}
	} else {
		components["neo4j"] = gin.H{"status": "disabled"}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			components["redis"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			components["redis"] = gin.H{"status": "up"}
		}
	} else {
		components["redis"] = gin.H{"status": "disabled"}
	}

	if h.llm != nil && h.llm.Available() {
		components["llm"] = gin.H{
			"status":  "up",
			"breaker": h.llm.Breaker().Snapshot(),
		}
	} else {
		components["llm"] = gin.H{"status": "disabled"}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}
