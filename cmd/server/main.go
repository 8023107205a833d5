package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"

	"go-chat-relay/internal/chat"
	"go-chat-relay/internal/config"
	"go-chat-relay/internal/db"
	"go-chat-relay/internal/notes"
	"go-chat-relay/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := chat.NewStore()
	registry := chat.NewRegistry()

	var tap chat.Tap = chat.NopTap{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
		}
		redisTap := chat.NewRedisTap(redisClient, cfg.RedisChannelPrefix, cfg.SendBufferSize, log)
		go redisTap.Run(ctx)
		tap = redisTap
		log.Info("Publishing chat broadcasts to Redis", "addr", cfg.RedisAddr, "prefix", cfg.RedisChannelPrefix)
	}

	var repo notes.Repository = notes.NewMemoryRepository()
	if cfg.NotesDSN != "" {
		database, err := db.NewDatabase(ctx, cfg.NotesDSN)
		if err != nil {
			return fmt.Errorf("connect to notes database: %w", err)
		}
		defer database.Close()
		if err := database.AutoMigrate(ctx); err != nil {
			return err
		}
		repo = notes.NewPostgresRepository(database.Conn)
		log.Info("Notes stored in PostgreSQL")
	}

	hub := chat.NewHub(store, registry, tap, log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	chatHandler := chat.NewHandler(hub, store, chat.HandlerOptions{
		HistoryLimit:   cfg.HistoryLimit,
		SendBufferSize: cfg.SendBufferSize,
		MaxMessageSize: cfg.MaxMessageSize,
		AllowedOrigins: cfg.Origins(),
	}, log)

	router := server.NewRouter(server.Deps{
		Chat:   chatHandler,
		Notes:  notes.NewHandler(repo, log),
		WSPath: cfg.WSPath,
		Log:    log,
	})

	srv := server.CreateServer(cfg.Addr, router)
	serveErr := server.Serve(ctx, srv, cfg.ShutdownTimeout, log)

	// Websocket connections are hijacked and survive srv.Shutdown; the hub closes them.
	stopHub()
	<-hub.Done()
	log.Info("Relay stopped")
	return serveErr
}
