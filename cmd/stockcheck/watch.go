package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockCheck/internal/notifier"
	"StockCheck/internal/scheduler"
)

func newWatchCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "watch [TICKER]",
		Short: "Re-analyze a ticker on a cron schedule",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := cfg.Watch.Ticker
			if len(args) == 1 {
				ticker = args[0]
			}
			if ticker == "" {
				return errors.New("watch needs a ticker argument or watch.ticker in config")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				tn     *notifier.TelegramNotifier
				sender scheduler.Sender
			)
			if cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Providers.Proxy)
				sender = tn
			} else {
				log.Info().Msg("telegram not configured, reports go to stdout")
			}

			sched := scheduler.NewScheduler(ctx, a.Analyzer, sender, ticker, cmd.OutOrStdout())
			if err := sched.Register(cfg.Watch.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}
			if cfg.Watch.MetricsAddr != "" {
				srv := &http.Server{Addr: cfg.Watch.MetricsAddr, Handler: metricsMux(a), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("metrics server")
					}
				}()
				defer shutdown(srv)
				log.Info().Str("addr", cfg.Watch.MetricsAddr).Msg("metrics server started")
			}
			if runOnStart {
				go sched.RunNow()
			}

			log.Info().Str("ticker", sched.Ticker).Str("cron", cfg.Watch.Cron).Msg("watching, press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-now", false, "analyze once immediately on start")
	return cmd
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}
}
