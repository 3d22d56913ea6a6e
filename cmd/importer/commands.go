package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	api "chatsaid-backend/cmd/api"
	socialRepo "chatsaid-backend/internal/social/repository"
	socialUsecase "chatsaid-backend/internal/social/usecase"
	"chatsaid-backend/pkg/config"
	"chatsaid-backend/pkg/database"
	"chatsaid-backend/pkg/dedup"
	"chatsaid-backend/pkg/logger"

	"github.com/spf13/cobra"
)

// newRunCmd creates the run command
func newRunCmd() *cobra.Command {
	var accountIDs []string
	var autoConvert bool
	var migrate bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one import pass",
		Long: `Run one import pass over all active accounts, or the accounts named
with --account. Results are printed as one JSON object per line.`,
		Example: `  # Import every active account
  importer run

  # Import two accounts and build pre-drafts where the rule allows it
  importer run --account 3f0c... --account 9a1d... --auto-convert`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, cmd, accountIDs, autoConvert, migrate)
		},
	}

	cmd.Flags().StringArrayVar(&accountIDs, "account", nil, "Account ID to import (repeatable)")
	cmd.Flags().BoolVar(&autoConvert, "auto-convert", false, "Build pre-drafts for rules with auto_convert enabled")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Run schema migrations first")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, accountIDs []string, autoConvert, migrate bool) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate {
		if err := socialRepo.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	svc := api.NewServices(db, cfg, log)
	results, err := svc.Importer.ImportForAccounts(ctx, accountIDs, socialUsecase.ImportOptions{AutoConvert: autoConvert})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return printResults(cmd, results)
}

func printResults(cmd *cobra.Command, results []socialUsecase.ImportResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// newHashCmd creates the hash command
func newHashCmd() *cobra.Command {
	var in dedup.Input

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the dedup fingerprint of an item",
		Example: `  importer hash --platform rss --handle example --title "Post One" \
    --url https://example.com/1 --posted-at 2024-01-01T10:00:00.000Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), dedup.Hash(in))
			return err
		},
	}

	cmd.Flags().StringVar(&in.Platform, "platform", "", "Account platform")
	cmd.Flags().StringVar(&in.Handle, "handle", "", "Account handle")
	cmd.Flags().StringVar(&in.Title, "title", "", "Item title")
	cmd.Flags().StringVar(&in.Body, "body", "", "Item body")
	cmd.Flags().StringVar(&in.URL, "url", "", "Item URL")
	cmd.Flags().StringVar(&in.PostedAt, "posted-at", "", "Item publish date (ISO-8601)")

	return cmd
}
