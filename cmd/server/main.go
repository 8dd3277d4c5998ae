package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "shutdown with error", "error", err)
		os.Exit(1)
	}
}
