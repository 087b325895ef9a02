package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	LogLevel        slog.Level
	DefaultMetric   string
	AnomalyStdDev   float64
	ParetoCoverage  float64
	TrendWindow     int
	HistorySize     int
	RedisAddr       string // empty = in-memory history
	FetchTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func FromEnv() Config {
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		Port:            envOr("PORT", "8080"),
		LogLevel:        lvl,
		DefaultMetric:   envOr("DEFAULT_METRIC", "Spend"),
		AnomalyStdDev:   envFloat("ANOMALY_STDDEV", 2.0),
		ParetoCoverage:  envFloat("PARETO_COVERAGE", 0.8),
		TrendWindow:     envInt("TREND_WINDOW", 8),
		HistorySize:     envInt("HISTORY_SIZE", 50),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		FetchTimeout:    time.Duration(envInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return v
	}
	return def
}
