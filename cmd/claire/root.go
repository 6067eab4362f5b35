package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sandevgo/clairebot/internal/config"
	"github.com/sandevgo/clairebot/internal/core"
	"github.com/sandevgo/clairebot/pkg/log"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:     "claire",
	Short:   core.ClaireName + " — a chat assistant with long-term memory",
	Long:    core.ClaireName + ` persists every conversation turn, recalls relevant history, tracks named entities over time and delivers scheduled follow-up messages.`,
	Version: core.ClaireVersion,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
