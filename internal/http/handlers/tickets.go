package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studygraph-backend/internal/http/response"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/services"
)

type TicketHandler struct {
	paths services.LearningPathService
	log   *logger.Logger
}

func NewTicketHandler(paths services.LearningPathService, baseLog *logger.Logger) *TicketHandler {
	return &TicketHandler{paths: paths, log: baseLog.With("handler", "TicketHandler")}
}

func (h *TicketHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/tickets")
	g.POST("/learning-paths", h.CreatePath)
	g.POST("/learning-paths/from-vector-search", h.CreatePathFromSearch)
	g.GET("/learning-paths/:id/tickets", h.GetPathTickets)
	g.PUT("/tickets/:id/progress", h.UpdateProgress)
}

func (h *TicketHandler) CreatePath(c *gin.Context) {
	var req services.CreatePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	req.UserID = currentUserID(c)
	out, err := h.paths.CreatePath(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

type pathFromSearchRequest struct {
	Search     services.SearchRequest `json:"search"`
	Title      string                 `json:"title,omitempty"`
	Difficulty int                    `json:"difficulty,omitempty"`
}

func (h *TicketHandler) CreatePathFromSearch(c *gin.Context) {
	var req pathFromSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.paths.CreatePathFromSearch(c.Request.Context(), currentUserID(c), req.Search, req.Title, req.Difficulty)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

func (h *TicketHandler) GetPathTickets(c *gin.Context) {
	pathID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid path id")
		return
	}
	out, err := h.paths.GetPathTickets(c.Request.Context(), currentUserID(c), pathID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"path_id": pathID, "tickets": out})
}

func (h *TicketHandler) UpdateProgress(c *gin.Context) {
	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid ticket id")
		return
	}
	var update services.ProgressUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	out, err := h.paths.UpdateProgress(c.Request.Context(), currentUserID(c), ticketID, update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out)
}
