package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/http/middleware"
	"github.com/yungbote/studygraph-backend/internal/http/response"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/services"
)

type VectorHandler struct {
	search services.SearchService
	log    *logger.Logger
}

func NewVectorHandler(search services.SearchService, baseLog *logger.Logger) *VectorHandler {
	return &VectorHandler{search: search, log: baseLog.With("handler", "VectorHandler")}
}

func (h *VectorHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/vector")
	g.POST("/search", h.Search)
	g.POST("/search/enhanced", h.EnhancedSearch)
	g.POST("/search/compare", h.CompareSearch)
	g.POST("/chunks", middleware.RequireInstructor(), h.InsertChunk)
	g.POST("/prerequisites", middleware.RequireInstructor(), h.CreatePrerequisite)
	g.GET("/chunks/:id/prerequisites", h.PrerequisiteChain)
	g.GET("/chunks/:id/dependents", h.Dependents)
}

func (h *VectorHandler) Search(c *gin.Context) {
	var req services.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.search.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

func (h *VectorHandler) EnhancedSearch(c *gin.Context) {
	var req services.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.search.EnhancedSearch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

func (h *VectorHandler) CompareSearch(c *gin.Context) {
	var req services.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.search.CompareSearch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

func (h *VectorHandler) InsertChunk(c *gin.Context) {
	var chunk graph.ChunkNode
	if err := c.ShouldBindJSON(&chunk); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.search.InsertChunk(c.Request.Context(), chunk); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"chunk_id": chunk.ID})
}

type prerequisiteRequest struct {
	ChunkID       string `json:"chunk_id"`
	PrereqChunkID string `json:"prerequisite_chunk_id"`
	Requirement   string `json:"requirement_type,omitempty"`
}

func (h *VectorHandler) CreatePrerequisite(c *gin.Context) {
	var req prerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.search.CreatePrerequisite(c.Request.Context(), req.ChunkID, req.PrereqChunkID, req.Requirement); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"chunk_id":              req.ChunkID,
		"prerequisite_chunk_id": req.PrereqChunkID,
	})
}

func (h *VectorHandler) PrerequisiteChain(c *gin.Context) {
	chain, err := h.search.PrerequisiteChain(c.Request.Context(), c.Param("id"), queryInt(c, "max_depth", 3))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"chunk_id": c.Param("id"), "chain": chain})
}

func (h *VectorHandler) Dependents(c *gin.Context) {
	deps, err := h.search.Dependents(c.Request.Context(), c.Param("id"), queryInt(c, "max_depth", 3))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"chunk_id": c.Param("id"), "dependents": deps})
}
