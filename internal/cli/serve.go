package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/wikiserve/internal/logger"
	"github.com/rcliao/wikiserve/internal/metrics"
	"github.com/rcliao/wikiserve/internal/store"
	"github.com/rcliao/wikiserve/internal/web"
)

const statsInterval = 30 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wiki over HTTP",
		Long:  "Serve the wiki over HTTP, with metrics, health checks and pprof on a separate listener.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default :4567)")
	cmd.Flags().String("metrics-addr", "", "Observability listen address, empty to disable (default :9090)")
	cmd.Flags().String("base-path", "", "Path prefix the wiki is mounted under")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().Bool("log-pretty", false, "Human readable console logs")
	cmd.Flags().StringSlice("trusted-proxies", nil, "CIDR blocks whose author and prefix headers are trusted")

	v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	v.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-addr"))
	v.BindPFlag("base_path", cmd.Flags().Lookup("base-path"))
	v.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	v.BindPFlag("log_pretty", cmd.Flags().Lookup("log-pretty"))
	v.BindPFlag("trusted_proxies", cmd.Flags().Lookup("trusted-proxies"))

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	log := logger.InitGlobalLogger(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	log.LogServerStart(cfg.Addr, cfg.DBPath)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	defer db.Close()

	m := metrics.NewMetrics(nil)
	srv, err := web.NewServer(web.Options{
		Config:  cfg,
		Store:   store.Instrument(db, m, log),
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		exitErr("create server", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	var obs *web.ObservabilityServer
	if cfg.MetricsAddr != "" {
		obs = web.NewObservabilityServer(cfg.MetricsAddr, nil, func(ctx context.Context) error {
			_, err := db.Head(ctx)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}, log)
		g.Go(obs.Start)
	}

	g.Go(func() error {
		m.RunUptime(time.Second, gctx.Done())
		return nil
	})

	g.Go(func() error {
		refreshStats(gctx, db, m, log)
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				refreshStats(gctx, db, m, log)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.LogServerShutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if obs != nil {
			err = errors.Join(err, obs.Shutdown(shutdownCtx))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		exitErr("serve", err)
	}
}

func refreshStats(ctx context.Context, db *store.SQLiteStore, m *metrics.Metrics, log *logger.Logger) {
	st, err := db.Stats(ctx)
	if err != nil {
		log.StoreLogger("stats").Warn("Stats refresh failed").Err(err).Send()
		return
	}
	m.UpdateStoreStats(st.DBSizeBytes, st.Pages, st.Commits)
}
