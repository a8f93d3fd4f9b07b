package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sentinella/pkg/analyzer"
	"sentinella/pkg/channel"
	"sentinella/pkg/channel/telegram"
	"sentinella/pkg/config"
	"sentinella/pkg/gateway"
	"sentinella/pkg/logger"
	"sentinella/pkg/provider"
	"sentinella/pkg/verify"

	"github.com/spf13/cobra"
)

const telegramChannelName = "telegram"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis gateway",
	Long:  "Runs Sentinella as an HTTP analysis gateway with health and readiness endpoints, optionally bridging enabled chat channels.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.serve")

		providerClient, err := provider.New(cfg)
		if err != nil {
			log.Error("Provider configuration invalid", "error", err)
			return
		}

		verifyClient, err := verify.NewClient(cfg, log)
		if err != nil {
			log.Error("Verification service configuration invalid", "error", err)
			return
		}

		intelClient, err := verify.NewIntelClient(cfg, log)
		if err != nil {
			log.Error("Intelligence search configuration invalid", "error", err)
			return
		}

		adapters, err := enabledAdapters(cfg, log)
		if err != nil {
			log.Error("Channel configuration invalid", "error", err)
			return
		}

		an := analyzer.New(providerClient, verifyClient, intelClient, log)

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := gateway.NewService(cfg, an, providerClient, adapters, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Gateway started", "routes", cfg.Gateway.Routes, "channels", enabledChannelNames(adapters), "model", cfg.Provider.Model)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 1)

	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", telegramChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	if len(adapters) == 0 {
		return "none"
	}

	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}
