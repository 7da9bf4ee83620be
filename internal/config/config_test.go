package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ROCKET_PASS_SEASON", "WIKI_DOMAIN", "OUTPUT_FILE", "API_ALLOWED_ORIGINS", "WATCH_AUTO_EXPORT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Season != 21 {
		t.Fatalf("season=%d", cfg.Season)
	}
	if cfg.WikiDomain != "rocketleague.fandom.com" {
		t.Fatalf("wiki domain=%q", cfg.WikiDomain)
	}
	if filepath.Base(cfg.DBPath) != "rocketpass.db" {
		t.Fatalf("db path=%s", cfg.DBPath)
	}
	if len(cfg.APIAllowedOrigins) != 1 || cfg.APIAllowedOrigins[0] != "http://localhost:*" {
		t.Fatalf("origins=%v", cfg.APIAllowedOrigins)
	}
	if cfg.WatchAutoExport {
		t.Fatal("auto export should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROCKET_PASS_SEASON", "19")
	t.Setenv("SERPAPI_NUM_RESULTS", "notanumber")
	t.Setenv("WATCH_AUTO_EXPORT", "yes")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Season != 19 {
		t.Fatalf("season=%d", cfg.Season)
	}
	if cfg.SerpAPINumResults != 5 {
		t.Fatalf("num results=%d", cfg.SerpAPINumResults)
	}
	if !cfg.WatchAutoExport {
		t.Fatal("auto export not enabled")
	}
	if len(cfg.APIAllowedOrigins) != 2 || cfg.APIAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins=%v", cfg.APIAllowedOrigins)
	}
}

func TestLoadRejectsNonPositiveSeason(t *testing.T) {
	t.Setenv("ROCKET_PASS_SEASON", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for season 0")
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("SERPAPI_KEY", "  "); err == nil {
		t.Fatal("expected error")
	}
	if err := cfg.Require("SERPAPI_KEY", "abc"); err != nil {
		t.Fatal(err)
	}
}
