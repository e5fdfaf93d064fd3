package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castmap/castmap/internal/queue"
	"github.com/castmap/castmap/internal/server"
	"github.com/castmap/castmap/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/castmap/castmap/pkg/cache"
	"github.com/castmap/castmap/pkg/gutenberg"
	"github.com/castmap/castmap/pkg/interactions"
	"github.com/castmap/castmap/pkg/logger"
	"github.com/castmap/castmap/pkg/logger/console"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleBackend(console.ConsoleBackendParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	aiClient := server.NewModelClient()

	// The worker shares its cache with the server, so the in-memory backend
	// would make precomputed results invisible to API requests.
	var store cache.Store
	switch util.GetEnvString("CACHE_BACKEND", "memory") {
	case "postgres":
		pgConn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pgConn.Close()
		store = cache.NewPostgresStore(pgConn)
	default:
		logger.Warn("Using in-memory cache, results are not shared with the server")
		store = cache.NewMemoryStore()
	}

	pipeline := interactions.NewPipeline(aiClient, store, server.PipelineConfig())
	books := gutenberg.NewClient(gutenberg.NewClientParams{
		BaseURL: util.GetEnvString("GUTENDEX_URL", ""),
	})

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.AnalyzeQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// One message at a time, a job can hold many model calls in flight
	// already.
	if err := ch.Qos(1, 0, true); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := ch.Consume(
		queue.AnalyzeQueue,
		fmt.Sprintf("%s_consumer", queue.AnalyzeQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnalyzeQueue, "err", err)
	}

	logger.Info("Worker started", "queue", queue.AnalyzeQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed", "queue", queue.AnalyzeQueue)
					return
				}

				startTime := time.Now()
				logger.Info("Received message", "queue", queue.AnalyzeQueue)

				processingErr := queue.ProcessAnalyzeMessage(ctx, books, pipeline, string(msg.Body))

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.AnalyzeQueue, "err", processingErr)
					handleProcessingError(ch, msg, queue.AnalyzeQueue)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.AnalyzeQueue)
				}

				metrics := aiClient.GetMetrics()
				aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
				logger.Info(
					"AI Metrics",
					"input_tokens", metrics.InputTokens,
					"output_tokens", metrics.OutputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", aiDuration.Round(time.Second).String(),
				)

				logger.Info(
					"Processing time",
					"duration", time.Since(startTime).Round(time.Second).String(),
				)
				logger.Info("Waiting for next message")
				aiClient.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// After 10 attempts the message goes to the dead-letter queue
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "text/plain",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
