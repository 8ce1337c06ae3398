package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdulachik/weibobot/internal/app"
	"github.com/abdulachik/weibobot/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   "weibobot",
	Short: "Forward new Weibo posts to DingTalk",
	Long: `weibobot checks the configured Weibo accounts once and forwards the
first post it has not seen before to a DingTalk robot. The first run only
records the posts that are already visible.

Run it from cron or a systemd timer to poll periodically.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	// Load .env file if present
	_ = godotenv.Load()

	setupLogging(os.Getenv("LOG_LEVEL"))

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the notification instead of sending it")
}

func setupLogging(levelName string) {
	level := slog.LevelInfo
	if strings.EqualFold(levelName, "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	validate := cfg.ValidateForNotify
	if dryRun {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg, app.Options{DryRun: dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Debug("checking accounts", "accounts", len(cfg.Accounts), "store", a.Store.Location())

	_, err = a.Check(ctx)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
