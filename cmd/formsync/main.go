package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/formsync/internal/app"
	"github.com/dmitrijs2005/formsync/internal/config"
	"github.com/dmitrijs2005/formsync/internal/flagx"
	"github.com/dmitrijs2005/formsync/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx := context.Background()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	a, err := app.NewApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return 1
	}
	defer a.Close()

	if err := a.Run(ctx, flagx.Positional(args, config.ValuedFlags)); err != nil {
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		logger.Error(ctx, "command failed", "error", err)
		return 1
	}

	return 0
}
