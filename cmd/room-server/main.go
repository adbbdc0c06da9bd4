package main

import (
	"github.com/go-redis/redis/v8"

	"chat-room-client/internal/api"
	"chat-room-client/internal/config"
	"chat-room-client/internal/devserver"
	"chat-room-client/internal/queue"
)

func main() {
	cfg := config.Load()

	queueManager := queue.NewRequestQueueManager(10, 10)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
	}

	hub := devserver.NewHub()
	go hub.Run()

	store := devserver.NewHistoryStore(cfg.HistoryLimit)
	handler := devserver.NewHandler(hub, store, redisClient, queueManager)

	server := api.NewServer(
		cfg.ListenAddr,
		queueManager,
		api.CORSOptions{},
		devserver.Routes(handler),
	)
	server.Run()
}
