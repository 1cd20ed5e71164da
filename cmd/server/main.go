// Package main implements the entry point for the Watchtower API server,
// which tracks competitor GitHub repositories and serves AI-generated
// weekly intelligence reports.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/watchtowerhq/watchtower-api/internal/config"
	"github.com/watchtowerhq/watchtower-api/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "path to an optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"github_token_present", cfg.GitHub.Token != "",
		"gemini_key_present", cfg.LLM.GeminiAPIKey != "",
		"redis_cache_enabled", cfg.Redis.Addr != "",
		"schedule_enabled", cfg.Schedule.Enabled)

	app, err := newApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		slog.Error("server exited with error", "error", err)
		app.Cleanup()
		os.Exit(1)
	}

	app.Cleanup()
	fmt.Println("shutdown complete")
}
