package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/report"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	Sources             ingest.Sources
	Report              report.Settings
	WatchSources        bool
	EnableMermaidCharts bool
	// HTTPAddr enables the JSON API and /metrics when set, e.g. ":8080".
	HTTPAddr string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	defaults := report.DefaultSettings()

	cfg := &AppConfig{
		DataPath: dataPath,
		Sources: ingest.Sources{
			AgingPath:   resolve(dataPath, getEnv("AGING_SOURCE", "")),
			AgingSheet:  getEnv("AGING_SHEET", ""),
			OTDPath:     resolve(dataPath, getEnv("OTD_SOURCE", "")),
			OTDSheet:    getEnv("OTD_SHEET", ""),
			TargetsPath: resolve(dataPath, getEnv("OTD_TARGETS", "")),
		},
		Report: report.Settings{
			AgingGoalDays:   getEnvFloat("AGING_GOAL_DAYS", defaults.AgingGoalDays),
			LeaderboardSize: getEnvInt("LEADERBOARD_SIZE", defaults.LeaderboardSize),
			OnTimeStatuses:  getEnvList("ON_TIME_STATUSES", defaults.OnTimeStatuses),
			LateStatuses:    getEnvList("LATE_STATUSES", defaults.LateStatuses),
		},
		WatchSources:        getEnvBool("WATCH_SOURCES", false),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		HTTPAddr:            getEnv("HTTP_ADDR", ""),
	}

	if len(cfg.Sources.Paths()) == 0 {
		log.Warn().Msg("No AGING_SOURCE, OTD_SOURCE or OTD_TARGETS configured")
	}

	return cfg, nil
}

// resolve makes relative source paths relative to the data path.
func resolve(dataPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataPath, p)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		v := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
		if floatVal, err := strconv.ParseFloat(v, 64); err == nil && floatVal >= 0 {
			return floatVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
