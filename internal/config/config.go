// Package config loads all environment variables for the uploader connector.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the habitat uploader connector.
type Config struct {
	// Feed server (optional HTTP ingestion front-end for raw demodulator bytes)
	FeedEnabled bool
	FeedHost    string
	FeedPort    string

	// Document store (CouchDB-compatible, spec.md §6)
	CouchURI           string
	CouchDB            string
	MaxMergeAttempts   int
	HTTPRequestTimeout time.Duration

	// Uploader
	Callsign string

	// Extractor
	SkippedByteClamp int

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults matching the upstream habitat connector (couch_uri=http://habhub.org,
// couch_db=habitat, max_merge_attempts=20 — see spec.md §6).
func Load() (*Config, error) {
	cfg := &Config{
		FeedEnabled: envBool("FEED_ENABLED", false),
		FeedHost:    envOr("FEED_HOST", "0.0.0.0"),
		FeedPort:    envOr("FEED_PORT", "8042"),

		CouchURI:           envOr("COUCH_URI", "http://habhub.org"),
		CouchDB:            envOr("COUCH_DB", "habitat"),
		MaxMergeAttempts:   envInt("MAX_MERGE_ATTEMPTS", 20),
		HTTPRequestTimeout: time.Duration(envInt("HTTP_TIMEOUT_MS", 10000)) * time.Millisecond,

		Callsign: os.Getenv("CALLSIGN"),

		SkippedByteClamp: envInt("SKIPPED_BYTE_CLAMP", 20),

		ShutdownTimeout: time.Duration(envInt("SHUTDOWN_TIMEOUT_MS", 5000)) * time.Millisecond,
	}

	if cfg.Callsign == "" {
		return nil, fmt.Errorf("CALLSIGN is required")
	}

	return cfg, nil
}

// Addr returns the feed server listen address as "host:port".
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.FeedHost, c.FeedPort)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
