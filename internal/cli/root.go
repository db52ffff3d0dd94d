// Package cli implements vidhubctl, the operator CLI for the vidhub database.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vidhub/internal/config"
	"vidhub/pkg/database"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
	DBPath  string
}

// config loads the environment and lets --db override DB_PATH.
func (o *RootOptions) config() config.Config {
	var cfg config.Config
	if o.EnvFile != "" {
		cfg = config.Load(o.EnvFile)
	} else {
		cfg = config.Load()
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}
	return cfg
}

// open opens and migrates the configured database.
func (o *RootOptions) open() (*sql.DB, config.Config, error) {
	cfg := o.config()
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, cfg, fmt.Errorf("create db dir: %w", err)
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, cfg, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, cfg, err
	}
	return db, cfg, nil
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vidhubctl",
		Short: "vidhub database tooling",
		Long:  "Migrate and seed the vidhub database, and mint access tokens for local testing.",

		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env", "", "env file to load (default .env)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (overrides DB_PATH)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
