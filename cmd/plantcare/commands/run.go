package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/notexe/plant-care/internal/repl"
	"github.com/notexe/plant-care/internal/scheduler"
)

func newRunCommand(st *state) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the alert dispatcher until interrupted",
		Long:  "run polls for fired alerts, delivers them through Telegram (or the log when Telegram is not configured) and keeps alerts in step with stored reminders.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := st.app
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.Config.Metrics.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				srv := startMetricsServer(metricsAddr, a.Logger.Errorw)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				a.Logger.Infow("Serving metrics", "addr", metricsAddr)
			}

			sched := scheduler.New(
				a.Registrar,
				a.Sender(),
				a.Service,
				a.Logger,
				scheduler.WithClock(a.Now),
				scheduler.WithInterval(a.Config.Interval()),
			)
			return sched.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func startMetricsServer(addr string, logErr func(msg string, kv ...interface{})) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logErr("Metrics server failed", "error", err)
		}
	}()
	return srv
}

func newShellCommand(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive reminder shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repl.NewREPL(st.app.Service, st.colored(), st.app.Config.Database.Path, st.app.Now)
			if err != nil {
				return err
			}
			return r.Start(cmd.Context())
		},
	}
}
