package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Detect application forms on a page and print the result without filling",
	Run: func(cmd *cobra.Command, _ []string) {
		scan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("url", "u", "", "page url to open in a browser")
	scanCmd.Flags().String("html", "", "local html file to analyze instead of a live page")
}

func scan(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	doc, cleanup, err := openDocument(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("opening document", zap.Error(err))
	}
	defer cleanup()

	result := detect.NewClassifier(logger).Scan(doc)

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("encoding scan result", zap.Error(err))
	}
	fmt.Println(string(pretty))
}
