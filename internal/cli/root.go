package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/sectorgate/internal/config"
	"github.com/harrylevesque/sectorgate/internal/storage"
)

var (
	dbPath   string
	siteFile string

	// cfg is filled by PersistentPreRunE; flags override the environment.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sitectl",
	Short:         "Operate a sectorgate deployment",
	Long:          "Offline administration for sectorgate: maintenance mode, admins, vendors and database checks.\nReads the same SECTORGATE_* environment as the server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadUnchecked()
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.DBPath = dbPath
		}
		if siteFile != "" {
			loaded.SiteFile = siteFile
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default $SECTORGATE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&siteFile, "site", "", "Site settings file (default $SECTORGATE_SITE_FILE)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (*storage.Store, error) {
	store, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
