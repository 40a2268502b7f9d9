// Package main is a command-line tool for managing API keys of the risk analysis server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/myhousemouse/Risk-api-server/internal/config"
	"github.com/myhousemouse/Risk-api-server/internal/store"
	"github.com/myhousemouse/Risk-api-server/pkg/models"
)

const commandTimeout = 30 * time.Second

// keyStore is the subset of the store the commands use.
type keyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

// openStore connects to the database named by DATABASE_URL. Tests replace it.
var openStore = func(ctx context.Context) (keyStore, func(), error) {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := store.Connect(ctx, config.DatabaseConfig{URL: url, MaxOpenConns: 2, ConnMaxLifetime: time.Minute})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return store.NewPostgresStore(pool), pool.Close, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "apikey",
		Short:        "Manage API keys for the risk analysis server",
		SilenceUsage: true,
	}
	root.AddCommand(newCreateCmd(), newListCmd(), newRevokeCmd())
	return root
}

func newCreateCmd() *cobra.Command {
	var (
		name   string
		scopes []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a key and print it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			return withStore(cmd, func(ctx context.Context, s keyStore) error {
				raw, key, err := store.NewAPIKey(name, scopes)
				if err != nil {
					return err
				}
				if err := s.CreateAPIKey(ctx, key); err != nil {
					return fmt.Errorf("create key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "id:     %s\nscopes: %s\nkey:    %s\n\nStore this key now; it cannot be shown again.\n",
					key.ID, strings.Join(key.Scopes, ","), raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "human-readable key name")
	cmd.Flags().StringSliceVar(&scopes, "scopes", []string{"read", "write"}, "comma-separated scopes (admin grants key management)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, s keyStore) error {
				keys, err := s.ListAPIKeys(ctx)
				if err != nil {
					return fmt.Errorf("list keys: %w", err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tLAST USED")
				for _, k := range keys {
					lastUsed := "never"
					if k.LastUsedAt != nil {
						lastUsed = k.LastUsedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.Name, k.KeyPrefix, strings.Join(k.Scopes, ","), lastUsed)
				}
				return tw.Flush()
			})
		},
	}
}

func newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid key id %q: %w", args[0], err)
			}
			return withStore(cmd, func(ctx context.Context, s keyStore) error {
				if err := s.RevokeAPIKey(ctx, id); err != nil {
					return fmt.Errorf("revoke key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", id)
				return nil
			})
		},
	}
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, s keyStore) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	s, closeFn, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, s)
}
