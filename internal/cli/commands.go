package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vidhub/internal/auth"
	"vidhub/internal/user"
	"vidhub/pkg/database"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Migrated %s\n", cfg.DBPath)
			return nil
		},
	}
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and videos from a JSON file",
		Long: `Load demo users and videos from a JSON file.

Users are matched by username and videos by owner and title, so running
seed twice inserts nothing the second time.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			if file == "" {
				file = cfg.SeedPath
			}
			if file == "" {
				return fmt.Errorf("no seed file: pass --file or set SEED_PATH")
			}
			data, err := database.LoadSeedFromJSON(file)
			if err != nil {
				return err
			}
			users, videos, err := database.Seed(db, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Seeded %d user(s), %d video(s)\n", users, videos)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed JSON file (default SEED_PATH)")
	return cmd
}

// NewTokenCommand prints an access token for an existing user. The token
// only works against a server sharing ACCESS_TOKEN_SECRET.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:          "token <username>",
		Short:        "Mint an access token for a user",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := rootOpts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := user.GetByUsername(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}
			secret, ttl := cfg.AccessSecret, cfg.AccessTTL
			if refresh {
				secret, ttl = cfg.RefreshSecret, cfg.RefreshTTL
			}
			token, err := auth.SignJWT([]byte(secret), u.ID, u.Username, ttl)
			if err != nil {
				return err
			}
			if refresh {
				if err := user.SetRefreshToken(cmd.Context(), db, u.ID, token); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "mint and store a refresh token instead")
	return cmd
}
