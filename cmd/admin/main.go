package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pixkeeper/internal/admin/cli"
	"github.com/dmitrijs2005/pixkeeper/internal/flagx"
	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pixkeeper/internal/server/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	args := flagx.Positional(os.Args[1:], config.ValueFlags())
	if len(args) == 0 {
		cli.NewApp(nil, os.Stderr).Usage()
		return 2
	}

	db, err := server.OpenDatabase(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "migrations:", err)
		return 1
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	app := cli.NewApp(services.NewSignupService(db, rm, cfg, logger), os.Stdout)

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, cli.ErrUsage) {
			app.Usage()
			return 2
		}
		return 1
	}
	return 0
}
