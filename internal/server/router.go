package server

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/studygraph-backend/internal/http/handlers"
	"github.com/yungbote/studygraph-backend/internal/http/middleware"
	"github.com/yungbote/studygraph-backend/internal/platform/envutil"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log               *logger.Logger
	VectorHandler     *handlers.VectorHandler
	QuestionHandler   *handlers.QuestionHandler
	TicketHandler     *handlers.TicketHandler
	EvaluationHandler *handlers.EvaluationHandler
	ContentHandler    *handlers.ContentHandler
	HealthHandler     *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if envutil.String("ENVIRONMENT", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS())

	// Public
	cfg.HealthHandler.Register(router)

	// Protected
	protected := router.Group("/")
	protected.Use(middleware.Auth(cfg.Log))
	cfg.VectorHandler.Register(protected)
	cfg.QuestionHandler.Register(protected)
	cfg.TicketHandler.Register(protected)
	cfg.EvaluationHandler.Register(protected)
	cfg.ContentHandler.Register(protected)

	return router
}
