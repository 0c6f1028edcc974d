package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"tourstats/internal/stats"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath             string
	LogDir               string
	ReportDir            string
	ToursSheet           string
	TasksSheet           string
	PunctualityThreshold int
	SimulationSeed       int64
	EnableMermaidCharts  bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. The binary's directory wins, so an installed server finds its .env.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Working directory, for development runs.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	threshold, err := getEnvInt("PUNCTUALITY_THRESHOLD_SECONDS", stats.DefaultTolerance)
	if err != nil {
		return nil, err
	}
	if threshold < 0 {
		return nil, fmt.Errorf("PUNCTUALITY_THRESHOLD_SECONDS must be >= 0, got %d", threshold)
	}
	seed, err := getEnvInt("SIMULATION_SEED", 0)
	if err != nil {
		return nil, err
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	reportDir := filepath.Join(dataPath, "reports")
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", reportDir).Msg("Failed to create report directory")
	}

	return &AppConfig{
		DataPath:             dataPath,
		LogDir:               logDir,
		ReportDir:            reportDir,
		ToursSheet:           getEnv("TOURS_SHEET", ""),
		TasksSheet:           getEnv("TASKS_SHEET", ""),
		PunctualityThreshold: threshold,
		SimulationSeed:       int64(seed),
		EnableMermaidCharts:  getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}, nil
}

// LoadFilter reads a filter file (yaml, json or toml, by extension).
func LoadFilter(path string) (stats.Filter, error) {
	var f stats.Filter
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return f, fmt.Errorf("read filter file %s: %w", path, err)
	}
	if err := v.Unmarshal(&f); err != nil {
		return f, fmt.Errorf("decode filter file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("filter file %s: %w", path, err)
	}
	return f, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
