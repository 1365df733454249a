package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/http/response"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/services"
)

type QuestionHandler struct {
	questions services.QuestionService
	log       *logger.Logger
}

func NewQuestionHandler(questions services.QuestionService, baseLog *logger.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, log: baseLog.With("handler", "QuestionHandler")}
}

func (h *QuestionHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/llm")
	g.POST("/generate-question", h.Generate)
	g.POST("/generate-multiple-questions", h.GenerateMultiple)
	g.POST("/generate-from-chunks", h.GenerateFromChunks)
}

func (h *QuestionHandler) Generate(c *gin.Context) {
	var req llm.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	q, err := h.questions.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, q)
}

func (h *QuestionHandler) GenerateMultiple(c *gin.Context) {
	var req llm.MultiQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.questions.GenerateMultiple(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"questions": out, "count": len(out)})
}

type fromChunksRequest struct {
	ChunkIDs   []string `json:"chunk_ids"`
	PerChunk   int      `json:"questions_per_chunk,omitempty"`
	Difficulty int      `json:"difficulty,omitempty"`
}

func (h *QuestionHandler) GenerateFromChunks(c *gin.Context) {
	var req fromChunksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.questions.GenerateFromChunks(c.Request.Context(), req.ChunkIDs, req.PerChunk, req.Difficulty)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"results": out})
}
