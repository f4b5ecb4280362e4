package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/florinutz/docsink"
	"github.com/florinutz/docsink/config"
	"github.com/florinutz/docsink/health"
	"github.com/florinutz/docsink/internal/safegoroutine"
	"github.com/florinutz/docsink/metrics"
	"github.com/florinutz/docsink/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const sinkComponent = "sink"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the destinations and serve health, metrics and the REST API",
	Long: `Builds the sink from the current properties and starts an HTTP server with
/healthz, /readyz, /metrics and the /api/v1 configuration endpoints.

SIGHUP re-reads the properties and rebuilds the sink. A failed rebuild keeps
the previous sink and reports the sink component as degraded.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "HTTP server address for API + metrics + health")
	mustBindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("addr")
	logger := slog.Default()

	checker := health.NewChecker()
	checker.Register(sinkComponent)
	sinks := &server.SinkHolder{}

	if err := rebuild(cmd, sinks, checker, logger); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.New(checker, sinks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	safegoroutine.Go(g, logger, "http", func() error {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
		logger.Info("HTTP server started", "addr", addr)
		if err := httpServer.Serve(ln); err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	safegoroutine.Go(g, logger, "reload", func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-hup:
				logger.Info("SIGHUP received, rebuilding sink")
				if err := rebuild(cmd, sinks, checker, logger); err != nil {
					logger.Error("rebuild failed, keeping previous sink", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// rebuild loads the properties and swaps in a freshly built sink. On
// failure the current sink stays in place; if there is none the sink is
// reported down, otherwise degraded.
func rebuild(cmd *cobra.Command, sinks *server.SinkHolder, checker *health.Checker, logger *slog.Logger) error {
	var s *docsink.Sink
	err := safegoroutine.Do(logger, "rebuild", func() error {
		var err error
		s, err = buildSink(cmd, logger)
		return err
	})
	if err != nil {
		status := health.StatusDegraded
		if sinks.Load() == nil {
			status = health.StatusDown
		}
		checker.SetStatus(sinkComponent, status, err.Error())
		metrics.SinkRebuilds.WithLabelValues("error").Inc()
		return err
	}
	sinks.Store(s)
	metrics.SinkRebuilds.WithLabelValues("ok").Inc()
	checker.SetStatus(sinkComponent, health.StatusUp, "")
	return nil
}

func buildSink(cmd *cobra.Command, logger *slog.Logger) (*docsink.Sink, error) {
	props, err := loadProperties(cmd)
	if err != nil {
		return nil, err
	}
	cfg := config.New(props)
	if errs := docsink.ValidateAll(props); len(errs) > 0 {
		for _, e := range errs {
			logger.Warn("invalid option", "option", e.Option, "destination", e.Destination, "error", e.Message)
		}
		return nil, fmt.Errorf("%d invalid options, first: %w", len(errs), errs[0])
	}
	return docsink.New(cfg, docsink.WithLogger(logger))
}
