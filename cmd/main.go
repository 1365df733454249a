package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/studygraph-backend/internal/chunking"
	"github.com/yungbote/studygraph-backend/internal/clients/redis"
	"github.com/yungbote/studygraph-backend/internal/db"
	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/http/handlers"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/envutil"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/platform/neo4jdb"
	"github.com/yungbote/studygraph-backend/internal/platform/openai"
	"github.com/yungbote/studygraph-backend/internal/repos"
	"github.com/yungbote/studygraph-backend/internal/server"
	"github.com/yungbote/studygraph-backend/internal/services"
)

const defaultEmbeddingDim = 1536

func main() {
	// Logger
	logMode := envutil.String("ENVIRONMENT", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	pathRepo := repos.NewLearningPathRepo(thePG, log)
	ticketRepo := repos.NewTicketRepo(thePG, log)
	ticketCustomRepo := repos.NewTicketCustomRepo(thePG, log)
	ticketChangeRepo := repos.NewTicketChangeRepo(thePG, log)
	conceptRepo := repos.NewConceptRecordRepo(thePG, log)
	prereqRepo := repos.NewPrerequisiteRepo(thePG, log)
	progressRepo := repos.NewProgressRepo(thePG, log)

	// Optional platform clients
	log.Info("Setting up platform clients from main...")
	redisCache, err := redis.NewCache(log)
	if err != nil {
		log.Warn("Redis init failed", "error", err)
	}
	neo4jClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed", "error", err)
	}
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Warn("LLM client init failed", "error", err)
	}

	// Graph store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dimension := defaultEmbeddingDim
	if aiClient != nil {
		if d, err := aiClient.Dimension(ctx); err == nil {
			dimension = d
		} else {
			log.Warn("Embedding dimension probe failed", "error", err)
		}
	}
	graphStore := graph.NewStore(neo4jClient, dimension, log)
	if graphStore.Available() {
		if err := graphStore.EnsureIndexes(ctx); err != nil {
			log.Warn("Graph index setup failed", "error", err)
		}
	}

	// Chunking
	controller := chunking.NewChunkingController(
		chunking.DefaultChunkerConfig(),
		chunking.DefaultDetectorConfig(),
		log,
	)

	// LLM orchestration
	responseCache := llm.NewResponseCache(redisCache, log)
	breaker := llm.NewCircuitBreaker(
		envutil.Int("LLM_BREAKER_THRESHOLD", 5),
		time.Duration(envutil.Int("LLM_BREAKER_TIMEOUT_SECONDS", 30))*time.Second,
		log,
	)
	orchestrator := llm.NewOrchestrator(aiClient, responseCache, breaker, log)

	// Services
	log.Info("Setting up Services from main...")
	searchService := services.NewSearchService(graphStore, aiClient, orchestrator, log)
	ingestionService := services.NewIngestionService(controller, aiClient, graphStore, log)
	questionService := services.NewQuestionService(orchestrator, graphStore, log)
	pathService := services.NewLearningPathService(
		postgresService, pathRepo, ticketRepo, ticketCustomRepo,
		conceptRepo, prereqRepo, progressRepo,
		orchestrator, searchService, graphStore, log,
	)
	evaluationService := services.NewEvaluationService(
		postgresService, ticketRepo, ticketCustomRepo, ticketChangeRepo,
		conceptRepo, progressRepo,
		orchestrator, responseCache, log,
	)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		VectorHandler:     handlers.NewVectorHandler(searchService, log),
		QuestionHandler:   handlers.NewQuestionHandler(questionService, log),
		TicketHandler:     handlers.NewTicketHandler(pathService, log),
		EvaluationHandler: handlers.NewEvaluationHandler(evaluationService, log),
		ContentHandler:    handlers.NewContentHandler(ingestionService, log),
		HealthHandler:     handlers.NewHealthHandler(postgresService, graphStore, redisCache, orchestrator, log),
	})

	addr := ":" + envutil.String("PORT", "8080")
	if err := server.Run(router, addr, log); err != nil {
		log.Error("Server exited", "error", err)
	}

	// Teardown
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if neo4jClient != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = neo4jClient.Close(closeCtx)
		closeCancel()
	}
}
