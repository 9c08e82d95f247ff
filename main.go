package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-relay/internal/auth"
	"chat-relay/internal/cache"
	"chat-relay/internal/config"
	"chat-relay/internal/db"
	"chat-relay/internal/handlers"
	"chat-relay/internal/middleware"
	"chat-relay/internal/moderation"
	"chat-relay/internal/observability"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/repositories"
	"chat-relay/internal/rooms"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

const serviceName = "chat-relay"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.OTLPEndpoint, serviceName)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	words, err := moderation.LoadWordlist(cfg.WordlistPath)
	if err != nil {
		log.Fatalf("failed to load wordlist: %v", err)
	}
	matcher, err := moderation.NewMatcher(words)
	if err != nil {
		log.Fatalf("failed to build banned-word matcher: %v", err)
	}
	pipeline := moderation.NewPipeline(matcher)
	logger.Info("banned-word matcher ready", "words", len(words))

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	audit := telemetry.NewAuditEmitter(publisher, "moderation.rejected", serviceName, cfg.Environment)

	var roomCache cache.RoomCache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisRoomCache(cfg.RedisAddr, "rooms")
		if err != nil {
			logger.Warn("room cache disabled", "error", err)
		} else {
			roomCache = redisCache
			defer redisCache.Close()
		}
	}

	messageRepo := repositories.NewMessageRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	directory := rooms.NewDirectory(roomRepo, roomCache, logger)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry, pipeline, messageRepo, audit, logger, cfg.HideRejected)

	verifier := auth.NewCookieVerifier(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessCookieName)
	wsHandler := ws.NewHandler(hub, verifier, directory, logger, cfg.RequireExistingRooms)
	roomHandler := handlers.NewRoomHandler(directory)
	historyHandler := handlers.NewHistoryHandler(messageRepo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/healthz", handlers.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/rooms", authMiddleware, roomHandler.CreateRoom)
	router.GET("/rooms/:code", roomHandler.GetRoom)
	router.GET("/rooms/:code/exists", roomHandler.RoomExists)
	router.GET("/rooms/:code/messages", authMiddleware, historyHandler.GetRoomMessages)

	router.GET("/ws", wsHandler.Handle)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
