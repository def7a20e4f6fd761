package main

import (
	"log"

	"github.com/clinicore/scribe/internal/config"
	"github.com/clinicore/scribe/internal/logger"
	"github.com/clinicore/scribe/internal/server"
	"github.com/clinicore/scribe/internal/soap"
	"github.com/clinicore/scribe/internal/store/sqlite"
	"github.com/clinicore/scribe/internal/transcription"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	lgr := logger.SetupLogger(cfg)

	lgr.Info("Starting scribe server",
		"env", cfg.Env,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
	)

	store, err := sqlite.Open(cfg.DatabasePath, lgr)
	if err != nil {
		lgr.Error("Failed to open encounter store", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
	defer store.Close()

	transcriber := transcription.NewTranscriber(cfg.OpenAIAPIKey)
	generator := soap.NewGenerator(cfg.AnthropicAPIKey)

	srv := server.New(cfg, lgr, transcriber, generator, store)

	if err := server.Run(srv); err != nil {
		lgr.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
