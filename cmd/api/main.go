// Command api runs the sitemap HTTP server. The configuration file path is the
// optional first argument; SITEMAP_* variables override it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Project-Sylos/Sitemap/internal/api"
	"github.com/Project-Sylos/Sitemap/internal/config"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/telemetry"
	"github.com/Project-Sylos/Sitemap/sdk"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath()); err != nil {
		logger := xlog.WithComponent("main")
		logger.Error().Err(err).Msg("sitemap api stopped")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	xlog.Configure(xlog.Config{Level: cfg.Log.Level})
	logger := xlog.WithComponent("main")

	provider, err := telemetry.NewProvider(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer provider.Shutdown(context.Background())

	sm, err := sdk.NewWithConfig(ctx, cfg)
	if err != nil {
		return err
	}
	server := api.NewServer(sm, cfg.API, version)
	defer server.Stop()

	logger.Info().Str("version", version).Msg("sitemap api starting")
	return server.Run(ctx)
}

// configPath returns the configuration file path
func configPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return ""
}
