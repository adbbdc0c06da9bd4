// Package config loads runtime settings from the environment, with
// defaults suitable for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultListenAddr     = ":3000"
	defaultServerURL      = "http://localhost:3000"
	defaultHistoryTimeout = 10 * time.Second
	defaultAckTimeout     = 10 * time.Second
	defaultHistoryLimit   = 200
)

// Config holds the settings shared by the client and server binaries.
type Config struct {
	// ListenAddr is the room server's listen address.
	ListenAddr string

	// ServerURL is the base URL the client dials for history and the
	// channel endpoint.
	ServerURL string

	// RedisAddr enables cross-instance fanout on the room server when
	// non-empty.
	RedisAddr string
	RedisPass string

	HistoryTimeout time.Duration
	AckTimeout     time.Duration

	// HistoryLimit caps how many past messages the room server retains
	// per room.
	HistoryLimit int
}

// Load reads the environment, falling back to defaults for anything
// unset.
func Load() Config {
	return Config{
		ListenAddr:     envOr("LISTEN_ADDR", defaultListenAddr),
		ServerURL:      envOr("SERVER_URL", defaultServerURL),
		RedisAddr:      envOr("CHAT_REDIS_URL", ""),
		RedisPass:      envOr("CHAT_REDIS_PASS", ""),
		HistoryTimeout: envDuration("HISTORY_TIMEOUT", defaultHistoryTimeout),
		AckTimeout:     envDuration("ACK_TIMEOUT", defaultAckTimeout),
		HistoryLimit:   envInt("HISTORY_LIMIT", defaultHistoryLimit),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid %s=%s, fallback to default (%d)", key, v, def)
			return def
		}
		return i
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%s, fallback to default (%s)", key, v, def)
			return def
		}
		return d
	}
	return def
}
