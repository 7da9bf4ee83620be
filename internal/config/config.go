package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const PlaceholderAPIKey = "YOUR_SERPAPI_KEY_HERE"

type Config struct {
	DBPath     string
	OutputFile string
	OutputDir  string

	Season        int
	WikiDomain    string
	TableSelector string

	SerpAPIKey        string
	SerpAPIBaseURL    string
	SerpAPIEngine     string
	SerpAPINumResults int

	HTTPTimeoutMs    int
	HTTPRateLimitRPS int
	HTTPUserAgent    string

	WatchIntervalSec int
	WatchAutoExport  bool

	APIAddr           string
	APIAllowedOrigins []string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "rocketpass.db")),
		OutputFile: getEnv("OUTPUT_FILE", filepath.Join(cwd, "src", "data", "rocket-pass.json")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		Season:        getEnvInt("ROCKET_PASS_SEASON", 21),
		WikiDomain:    getEnv("WIKI_DOMAIN", "rocketleague.fandom.com"),
		TableSelector: getEnv("WIKI_TABLE_SELECTOR", "table.wikitable"),

		SerpAPIKey:        getEnv("SERPAPI_KEY", ""),
		SerpAPIBaseURL:    getEnv("SERPAPI_BASE_URL", "https://serpapi.com/search"),
		SerpAPIEngine:     getEnv("SERPAPI_ENGINE", "google"),
		SerpAPINumResults: getEnvInt("SERPAPI_NUM_RESULTS", 5),

		HTTPTimeoutMs:    getEnvInt("HTTP_TIMEOUT_MS", 30000),
		HTTPRateLimitRPS: getEnvInt("HTTP_RATE_LIMIT_RPS", 2),
		HTTPUserAgent:    getEnv("HTTP_USER_AGENT", "rocketpass/1.0"),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 6*60*60),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", false),

		APIAddr:           getEnv("API_ADDR", ":8080"),
		APIAllowedOrigins: getEnvList("API_ALLOWED_ORIGINS", []string{"http://localhost:*"}),
	}

	if cfg.Season <= 0 {
		return Config{}, fmt.Errorf("ROCKET_PASS_SEASON must be positive, got %d", cfg.Season)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
