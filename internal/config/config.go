package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               string
	DatabaseURL        string
	FixturesDir        string
	BroadcastInterval  time.Duration
	BroadcastBatchSize int
	RateLimitPerMinute int
	RateLimitBurst     int
	AuthTokenRequired  bool
	RealtimeToken      string
	RealtimeEndpoint   string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DB_DSN"),
		FixturesDir:        readString("FIXTURES_DIR", "fixtures"),
		BroadcastInterval:  readDurationSeconds("BROADCAST_POLL_SECONDS", 1),
		BroadcastBatchSize: readInt("BROADCAST_BATCH_SIZE", 100),
		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 30),
		AuthTokenRequired:  readBool("AUTH_TOKEN_REQUIRED", false),
		RealtimeToken:      os.Getenv("REALTIME_TOKEN"),
		RealtimeEndpoint:   os.Getenv("REALTIME_ENDPOINT"),
	}
}

func readString(key, fallback string) string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return raw
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
