package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/server"
	"newsdesk/internal/storage"
	"newsdesk/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveNoPrewarm bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the cache pre-warm worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.App.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		ws := []worker.Worker{&worker.HTTPServer{
			Addr:    cfg.Server.Addr,
			Handler: server.NewRouter(a.service),
		}}
		if !serveNoPrewarm {
			langs := cfg.Prewarm.Languages
			if len(langs) == 0 {
				langs = a.catalog.Languages()
			}
			slog.Info("starting trending prewarmer", "languages", langs)
			ws = append(ws, &worker.Prewarmer{
				Service:   a.service,
				Languages: langs,
				Limit:     cfg.Trending.DefaultLimit,
				Interval: worker.IntervalFor(
					config.Duration(cfg.Prewarm.Interval, 15*time.Minute),
					config.Duration(cfg.Cache.TTL, storage.DefaultTTL),
				),
			})
		}

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		return worker.NewManager(ws...).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoPrewarm, "no-prewarm", false, "disable the trending cache pre-warm worker")
	rootCmd.AddCommand(serveCmd)
}
