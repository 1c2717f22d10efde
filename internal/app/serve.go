package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/internal/history"
	"github.com/lucasjlepore/ridechat/internal/log"
	"github.com/lucasjlepore/ridechat/internal/server"
	"github.com/lucasjlepore/ridechat/internal/telemetry"
	"github.com/lucasjlepore/ridechat/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the session API: create a session, upload a ride or load the demo,
then post questions. Idle sessions expire after session.ttl.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.Logger()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	var store server.RideStore
	if cfg.Database.Path != "" {
		db, err := history.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		store = db
	}

	engineLog := logger.Named("engine")
	sessions := session.NewManager(
		func() *ridechat.Engine { return newEngine(engineLog) },
		session.WithTTL(cfg.Session.TTL),
		session.WithLogger(logger.Named("session")),
		session.OnChange(telemetry.SetActiveSessions),
	)

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		MaxUploadBytes:  cfg.Server.MaxUploadMB << 20,
		ShutdownTimeout: cfg.Server.Shutdown,
	}, sessions, store, logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sessions.Run(gctx, cfg.Session.SweepInterval) })

	logger.Infow("ridechat serving", "addr", cfg.Server.Addr, "units", cfg.Units, "narrative", cfg.NarrativeActive())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
