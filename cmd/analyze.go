/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"strings"

	"sentinella/pkg/analyzer"
	"sentinella/pkg/config"
	"sentinella/pkg/logger"
	"sentinella/pkg/provider"

	"github.com/spf13/cobra"
)

var (
	analyzePassword string
	analyzeThreat   string
	analyzeEmail    bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [message]",
	Short: "Analyze a message, password, or threat from the terminal",
	Long: `Loads Sentinella configuration, connects to the configured model provider,
and runs a single analysis. By default the argument is treated as a suspicious
message; use --password or --threat for the other analysis modes.`,
	Run: func(cmd *cobra.Command, args []string) {
		subject, mode, err := resolveAnalysis(args)
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}

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

		client, err := provider.New(cfg)
		if err != nil {
			fmt.Printf("failed to initialize provider: %v\n", err)
			return
		}

		ctx := context.Background()
		if err := client.Health(ctx); err != nil {
			fmt.Printf("provider health check failed: %v\n", err)
			return
		}

		an := analyzer.New(client, nil, nil, appLogger.With("component", "cmd.analyze"))

		response, err := runAnalysis(ctx, an, mode, subject)
		if err != nil {
			fmt.Printf("analysis failed: %v\n", err)
			return
		}

		fmt.Println(response)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzePassword, "password", "p", "", "audit a password instead of a message")
	analyzeCmd.Flags().StringVarP(&analyzeThreat, "threat", "t", "", "profile a threat term instead of a message")
	analyzeCmd.Flags().BoolVarP(&analyzeEmail, "email", "e", false, "treat the argument as an email body and check it for links")
}

const (
	analysisMessage  = "message"
	analysisEmail    = "email"
	analysisPassword = "password"
	analysisThreat   = "threat"
)

func resolveAnalysis(args []string) (string, string, error) {
	if value := strings.TrimSpace(analyzePassword); value != "" {
		return value, analysisPassword, nil
	}
	if value := strings.TrimSpace(analyzeThreat); value != "" {
		return value, analysisThreat, nil
	}

	value := strings.TrimSpace(strings.Join(args, " "))
	if value == "" {
		return "", "", fmt.Errorf("nothing to analyze: pass a message or use --password/--threat")
	}

	if analyzeEmail {
		return value, analysisEmail, nil
	}

	return value, analysisMessage, nil
}

func runAnalysis(ctx context.Context, an *analyzer.Analyzer, mode string, subject string) (string, error) {
	switch mode {
	case analysisPassword:
		return an.CheckPassword(ctx, subject)
	case analysisThreat:
		return an.AnalyzeThreat(ctx, subject)
	case analysisEmail:
		return an.CheckEmailText(ctx, subject)
	default:
		return an.Chat(ctx, subject)
	}
}
