package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/smartfood/grocery-service/config"
)

var pingTimeout time.Duration

// pingCmd checks connectivity through database/sql and lib/pq, independent
// of the pgx pool the service uses.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured database is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL := config.GetDatabaseURL()
		if dbURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
		return ping(cmd.Context(), dbURL, pingTimeout)
	},
}

func init() {
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 5*time.Second, "Connection timeout")
	rootCmd.AddCommand(pingCmd)
}

func ping(ctx context.Context, dbURL string, timeout time.Duration) error {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read server version: %w", err)
	}
	fmt.Printf("Connection successful (PostgreSQL %s)\n", version)
	return nil
}
