// Package config reads server settings from LITGRAPH_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string // LITGRAPH_DATABASE_URL (required)
	GRPCAddr    string // LITGRAPH_GRPC_ADDR (default ":9090")
	HTTPAddr    string // LITGRAPH_HTTP_ADDR (default ":8080")
	NATSURL     string // LITGRAPH_NATS_URL (optional, empty = no events)
	AuthToken   string // LITGRAPH_AUTH_TOKEN (optional, empty = auth disabled)

	LogLevel slog.Level // LITGRAPH_LOG_LEVEL (debug, info, warn, error; default info)
	LogJSON  bool       // LITGRAPH_LOG_FORMAT=json

	PerPage         int           // LITGRAPH_PER_PAGE (default 20)
	SummaryMinWords int           // LITGRAPH_SUMMARY_MIN_WORDS (default 50)
	SummaryMaxWords int           // LITGRAPH_SUMMARY_MAX_WORDS (default 120)
	SessionIdle     time.Duration // LITGRAPH_SESSION_IDLE (default 15m)

	// Sync settings
	SyncInterval   time.Duration // LITGRAPH_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // LITGRAPH_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // LITGRAPH_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // LITGRAPH_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // LITGRAPH_SYNC_S3_KEY (default "litgraph/catalog.jsonl")
	SyncGitRepo    string        // LITGRAPH_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // LITGRAPH_SYNC_GIT_FILE (default "catalog.jsonl")
	SyncGitBranch  string        // LITGRAPH_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("LITGRAPH_DATABASE_URL"),
		GRPCAddr:       envOrDefault("LITGRAPH_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("LITGRAPH_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("LITGRAPH_NATS_URL"),
		AuthToken:      os.Getenv("LITGRAPH_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("LITGRAPH_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("LITGRAPH_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("LITGRAPH_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("LITGRAPH_SYNC_S3_KEY", "litgraph/catalog.jsonl"),
		SyncGitRepo:    os.Getenv("LITGRAPH_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("LITGRAPH_SYNC_GIT_FILE", "catalog.jsonl"),
		SyncGitBranch:  envOrDefault("LITGRAPH_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("LITGRAPH_DATABASE_URL is required")
	}

	var err error
	if c.PerPage, err = envInt("LITGRAPH_PER_PAGE", 20); err != nil {
		return nil, err
	}
	if c.SummaryMinWords, err = envInt("LITGRAPH_SUMMARY_MIN_WORDS", 50); err != nil {
		return nil, err
	}
	if c.SummaryMaxWords, err = envInt("LITGRAPH_SUMMARY_MAX_WORDS", 120); err != nil {
		return nil, err
	}
	if c.SummaryMinWords > c.SummaryMaxWords {
		return nil, fmt.Errorf("LITGRAPH_SUMMARY_MIN_WORDS (%d) exceeds LITGRAPH_SUMMARY_MAX_WORDS (%d)",
			c.SummaryMinWords, c.SummaryMaxWords)
	}
	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("LITGRAPH_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LITGRAPH_LOG_LEVEL: %w", err)
	}
	switch f := strings.ToLower(envOrDefault("LITGRAPH_LOG_FORMAT", "text")); f {
	case "text":
	case "json":
		c.LogJSON = true
	default:
		return nil, fmt.Errorf("LITGRAPH_LOG_FORMAT: want text or json, got %q", f)
	}
	if c.SyncInterval, err = envDuration("LITGRAPH_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}
	if c.SessionIdle, err = envDuration("LITGRAPH_SESSION_IDLE", "15m"); err != nil {
		return nil, err
	}

	return c, nil
}

// NewLogger returns a logger writing to w at the configured level and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads a positive integer.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
