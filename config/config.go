package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token       string        // Vercel API token (bearer credential)
	TeamID      string        // default team scope, overridable via --team-id
	APIBase     string        // Vercel API base URL
	Interval    time.Duration // sleep between polls
	MaxAttempts int           // status fetches before giving up
}

func Load() *Config {
	// .env is optional; real CI injects env vars directly
	_ = godotenv.Load()

	return &Config{
		Token:       os.Getenv("VERCEL_TOKEN"),
		TeamID:      os.Getenv("VERCEL_TEAM_ID"),
		APIBase:     envOr("VERCEL_API_URL", "https://api.vercel.com"),
		Interval:    time.Duration(envOrInt("HEIMDALL_POLL_INTERVAL", 30)) * time.Second,
		MaxAttempts: envOrInt("HEIMDALL_MAX_POLLS", 10),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid value for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
