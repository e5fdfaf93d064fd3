package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castmap/castmap/internal/queue"
	mid "github.com/castmap/castmap/internal/server/middleware"
	"github.com/castmap/castmap/internal/util"
	"github.com/castmap/castmap/pkg/ai"
	oai "github.com/castmap/castmap/pkg/ai/ollama"
	gai "github.com/castmap/castmap/pkg/ai/openai"
	"github.com/castmap/castmap/pkg/cache"
	"github.com/castmap/castmap/pkg/gutenberg"
	"github.com/castmap/castmap/pkg/interactions"
	"github.com/castmap/castmap/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewModelClient builds the AI client selected by the AI_ADAPTER
// environment variable. The client is created once per process and shared
// by all requests.
func NewModelClient() ai.ModelClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewInteractionOllamaClient(oai.NewInteractionOllamaClientParams{
			ChatModel:       util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 5)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewInteractionOpenAIClient(gai.NewInteractionOpenAIClientParams{
			ChatModel:       util.GetEnv("AI_CHAT_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

// PipelineConfig reads the pipeline tuning knobs from the environment.
func PipelineConfig() interactions.Config {
	return interactions.Config{
		MaxInputLength:   util.GetEnvInt("MAX_INPUT_LENGTH", 0),
		ChunkSize:        util.GetEnvInt("CHUNK_SIZE", 0),
		CacheTTL:         util.GetEnvDuration("CACHE_TTL", 0),
		RequestTimeout:   util.GetEnvDuration("AI_REQUEST_TIMEOUT", 0),
		ParallelRequests: util.GetEnvInt("AI_PARALLEL_REQ", 0),
		MaxRetries:       util.GetEnvInt("AI_MAX_RETRIES", 0),
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		conn  *pgxpool.Pool
		store cache.Store
	)
	switch util.GetEnvString("CACHE_BACKEND", "memory") {
	case "postgres":
		var err error
		conn, err = pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer conn.Close()
		store = cache.NewPostgresStore(conn)
	default:
		store = cache.NewMemoryStore()
	}

	var ch *amqp091.Channel
	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()

		channel, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(channel, []string{queue.AnalyzeQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		ch = channel
	}

	aiClient := NewModelClient()
	pipeline := interactions.NewPipeline(aiClient, store, PipelineConfig())
	books := gutenberg.NewClient(gutenberg.NewClientParams{
		BaseURL: util.GetEnvString("GUTENDEX_URL", ""),
	})

	app := &mid.App{
		DBConn:       conn,
		Queue:        ch,
		Pipeline:     pipeline,
		Books:        books,
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("8M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
