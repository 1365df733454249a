package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/http/middleware"
	"github.com/yungbote/studygraph-backend/internal/http/response"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/services"
)

type ContentHandler struct {
	ingestion services.IngestionService
	log       *logger.Logger
}

func NewContentHandler(ingestion services.IngestionService, baseLog *logger.Logger) *ContentHandler {
	return &ContentHandler{ingestion: ingestion, log: baseLog.With("handler", "ContentHandler")}
}

func (h *ContentHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/content")
	g.POST("/ingest", middleware.RequireInstructor(), h.Ingest)
	g.POST("/chunk/preview", middleware.RequireInstructor(), h.Preview)
	g.GET("/stats", h.Stats)
}

func (h *ContentHandler) Ingest(c *gin.Context) {
	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.ingestion.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

func (h *ContentHandler) Preview(c *gin.Context) {
	var req services.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.ingestion.PreviewChunks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

func (h *ContentHandler) Stats(c *gin.Context) {
	out, err := h.ingestion.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
