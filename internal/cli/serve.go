package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/allyourbase/smspool/internal/cli/ui"
	"github.com/allyourbase/smspool/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the smspool HTTP API",
	Long: `Run the HTTP API. Routes:
  GET  /health          liveness
  GET  /metrics         Prometheus metrics
  GET  /api/providers   enabled providers in send order
  GET  /api/stats       delivery counts since startup
  POST /api/messages    send one message or a batch`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Host to bind (default from config)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, lvlVar := newLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	providers, err := buildProviders(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg, logger, providers, prometheus.NewRegistry())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := make(chan struct{})
	errc := make(chan error, 1)
	go func() { errc <- srv.StartWithReady(ready) }()

	select {
	case err := <-errc:
		return err
	case <-ready:
	}

	if colorEnabled() {
		fmt.Fprintf(os.Stderr, "\n  %s smspool %s listening on %s\n", ui.BrandEmoji, buildVersion,
			ui.StyleProvider.Render("http://"+cfg.Address()))
		for _, p := range newPool(cfg, logger, providers).Providers() {
			fmt.Fprintf(os.Stderr, "    %s %s (priority %d)\n", ui.SymbolArrow, p.Name(), p.Priority())
		}
		fmt.Fprintln(os.Stderr)
	}

	toggle, stopToggle := notifyLevelToggle()
	defer stopToggle()
	base := lvlVar.Level()

loop:
	for {
		select {
		case err := <-errc:
			return err
		case <-toggle:
			next := slog.LevelDebug
			if lvlVar.Level() == slog.LevelDebug {
				next = base
			}
			lvlVar.Set(next)
			logger.Info("log level changed", "level", next.String())
		case <-ctx.Done():
			break loop
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errc
}
