package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/weibobot/internal/app"
	"github.com/abdulachik/weibobot/internal/config"
	"github.com/spf13/cobra"
)

var statsLast int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show seen store statistics",
	Long:  `Display the store backend, its location, and the most recently recorded post ids.`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVarP(&statsLast, "last", "n", 10, "Number of recent ids to show")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateStore(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ids, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== weibobot statistics ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Backend: %s\n", cfg.StoreBackend)
	fmt.Fprintf(out, "Location: %s\n", store.Location())
	fmt.Fprintf(out, "Seen posts: %d\n", len(ids))
	fmt.Fprintf(out, "Accounts: %d\n", len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		fmt.Fprintf(out, "  %s\n", account)
	}

	if len(ids) > 0 && statsLast > 0 {
		start := max(len(ids)-statsLast, 0)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Most recent:")
		for i := len(ids) - 1; i >= start; i-- {
			fmt.Fprintf(out, "  %s\n", ids[i])
		}
	}

	return nil
}
