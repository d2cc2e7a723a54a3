package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Open the database, apply migrations and count rows per table",
	Args:  cobra.NoArgs,
	RunE:  runDBCheck,
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.Check(cmd.Context())
	if err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database OK: %s\n", cfg.DBPath)
	for _, c := range counts {
		fmt.Fprintf(out, "  %-20s %d\n", c.Table, c.Rows)
	}
	return nil
}
