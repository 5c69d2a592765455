package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		StandardSeconds   int    `yaml:"standardSeconds"`
		UltimateSeconds   int    `yaml:"ultimateSeconds"`
		FastAnswerSeconds int    `yaml:"fastAnswerSeconds"`
		UltimateQuestions int    `yaml:"ultimateQuestions"`
		Catalog           string `yaml:"catalog"`
		CacheTTL          string `yaml:"cacheTTL"`
	} `yaml:"quiz"`
	Leaderboard struct {
		MinPercentage int    `yaml:"minPercentage"`
		Prefix        string `yaml:"prefix"`
	} `yaml:"leaderboard"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// RedisPrefix is the key prefix shared by the Redis adapters.
func (c Config) RedisPrefix() string {
	if c.Redis.Prefix == "" {
		return "quiz"
	}
	return c.Redis.Prefix
}

// LeaderboardPrefix falls back to the Redis prefix.
func (c Config) LeaderboardPrefix() string {
	if c.Leaderboard.Prefix == "" {
		return c.RedisPrefix()
	}
	return c.Leaderboard.Prefix
}

// LogLevel maps log.level to a slog level. Unknown values mean info.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds the process logger from the log section. Format "json"
// selects the JSON handler; anything else is text.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
