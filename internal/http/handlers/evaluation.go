package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/http/response"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/services"
)

type EvaluationHandler struct {
	evals services.EvaluationService
	log   *logger.Logger
}

func NewEvaluationHandler(evals services.EvaluationService, baseLog *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{evals: evals, log: baseLog.With("handler", "EvaluationHandler")}
}

func (h *EvaluationHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/evaluation")
	g.POST("/evaluate", h.Evaluate)
	g.GET("/history/:ticket_id", h.History)
}

func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req services.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.evals.Evaluate(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}

func (h *EvaluationHandler) History(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("ticket_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return
	}
	out, err := h.evals.History(c.Request.Context(), currentUserID(c), ticketID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
