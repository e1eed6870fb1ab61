package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sky-flux/recall"
	"github.com/sky-flux/recall/config"
	"github.com/sky-flux/recall/internal/cli"
	"github.com/sky-flux/recall/internal/logging"
	"github.com/sky-flux/recall/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "recall: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recall: %v\n", err)
		os.Exit(1)
	}

	cfg.Scheduler.Logger = logger
	sched, err := recall.NewScheduler(cfg.Scheduler)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recall: invalid scheduler config: %v\n", err)
		os.Exit(1)
	}

	// A broken database should not lock the user out of the tool: fall back
	// to an in-memory store and say so.
	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path, cfg.Storage.Dir, logger)
	if err != nil {
		if cfg.Storage.Backend == store.BackendMemory {
			fmt.Fprintf(os.Stderr, "recall: failed to open store: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "WARNING: cannot open %s store: %v\n", cfg.Storage.Backend, err)
		fmt.Fprintln(os.Stderr, "         falling back to in-memory store (no persistence)")
		st = store.NewMemory()
	}

	app := &cli.App{
		Config:    cfg,
		Store:     st,
		Scheduler: sched,
		Logger:    logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.NewRootCmd(app).ExecuteContext(ctx)
	stop()
	if cerr := st.Close(); cerr != nil {
		logger.Warn("close store", "error", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}
