package main

import (
	"context"
	"fmt"
	"net"

	"github.com/danmuck/nrppa/internal/admin"
	"github.com/danmuck/nrppa/internal/config"
	"github.com/danmuck/nrppa/internal/du"
	"github.com/danmuck/nrppa/internal/nrppa"
	"github.com/danmuck/nrppa/internal/observability"
	"github.com/danmuck/nrppa/internal/protocol/messages"
	"github.com/danmuck/nrppa/internal/protocol/pdu"
	"github.com/danmuck/nrppa/internal/server"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// run wires the entity to its transport and admin surface and blocks until ctx ends
// or one of them fails.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	observability.RegisterMetrics()

	registry, err := messages.NewRegistry()
	if err != nil {
		return fmt.Errorf("procedure table: %w", err)
	}
	collab, err := du.NewStatic(cfg.DUs, logger)
	if err != nil {
		return fmt.Errorf("du table: %w", err)
	}

	trps := nrppa.NewTRPMap()
	notifiers := nrppa.NewNotifierRegistry()
	codec := pdu.NewCodec(registry, cfg.PDUOptions(), logger)
	transport := server.New(cfg.FrameLimits(), logger)
	driver := nrppa.NewDriver(nrppa.Deps{
		Codec:        codec,
		Collaborator: collab,
		TRPs:         trps,
		Notifiers:    notifiers,
		Upward:       transport,
	}, cfg.DriverOptions(), logger)
	entity := nrppa.NewEntity(codec, driver, transport, logger)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer entity.Wait()
		return transport.Serve(gctx, ln, entity)
	})
	if cfg.AdminAddr != "" {
		api := admin.New(admin.Deps{Registry: registry, TRPs: trps, Notifiers: notifiers}, cfg.AdminCORSOrigins, logger)
		g.Go(func() error {
			return api.Run(gctx, cfg.AdminAddr)
		})
	}
	logger.Info().
		Str("listen", cfg.ListenAddr).
		Str("admin", cfg.AdminAddr).
		Int("dus", len(cfg.DUs)).
		Int("procedures", registry.Len()).
		Msg("nrppactl running")
	return g.Wait()
}
