package cmd

import (
	"context"
	"log"

	"github.com/sanketmuchhala/ApplicationAgent/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var testProviderCmd = &cobra.Command{
	Use:   "test-provider",
	Short: "Probe the configured matching provider",
	Run: func(_ *cobra.Command, _ []string) {
		testProvider()
	},
}

func init() {
	rootCmd.AddCommand(testProviderCmd)
}

func testProvider() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	provider, err := newProvider(ctx, config, logger)
	if err != nil {
		logger.Fatal("building matching provider", zap.Error(err))
	}

	ok, err := provider.TestConnection(ctx)
	if err != nil {
		logger.Fatal("provider probe failed", zap.String("provider", provider.ID()), zap.Error(err))
	}
	if !ok {
		logger.Fatal("provider probe returned not ok", zap.String("provider", provider.ID()))
	}

	logger.Info("provider is reachable", zap.String("provider", provider.ID()))
}
