package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/nrppa/internal/config"
	"github.com/danmuck/nrppa/internal/logging"
	"github.com/danmuck/nrppa/internal/observability"
)

func main() {
	path := flag.String("config", "", "config file path (defaults built in when empty)")
	initPath := flag.String("init", "", "write a sample config to this path and exit")
	force := flag.Bool("force", false, "overwrite an existing file with -init")
	validate := flag.Bool("validate", false, "load and validate the config, then exit")
	flag.Parse()

	if *initPath != "" {
		if err := config.WriteTemplate(*initPath, *force); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote sample config to %s\n", *initPath)
		return
	}

	cfg := config.DefaultConfig()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if *validate {
		fmt.Printf("config ok: %d dus\n", len(cfg.DUs))
		return
	}

	logging.ConfigureRuntimeLevel(cfg.LogLevel)
	logger := observability.InitLogger("nrppactl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("nrppactl stopped")
		os.Exit(1)
	}
	logger.Info().Msg("nrppactl stopped")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "nrppactl: %v\n", err)
	os.Exit(1)
}
