package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/sectorgate/internal/files"
)

var maintenanceBy string

func init() {
	rootCmd.AddCommand(maintenanceCmd)
	maintenanceCmd.AddCommand(maintenanceOnCmd, maintenanceOffCmd, maintenanceStatusCmd)
	maintenanceCmd.PersistentFlags().StringVar(&maintenanceBy, "by", "", "Operator recorded as updated_by (default $USER)")
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Show or change maintenance mode",
}

var maintenanceOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Lock the site down for everyone but ghost admins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaintenanceSet(cmd, true)
	},
}

var maintenanceOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Lift maintenance mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaintenanceSet(cmd, false)
	},
}

var maintenanceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current maintenance state",
	Args:  cobra.NoArgs,
	RunE:  runMaintenanceStatus,
}

func runMaintenanceSet(cmd *cobra.Command, active bool) error {
	store, err := files.NewSiteStore(cfg.SiteFile, false)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.SiteFile, err)
	}
	by := maintenanceBy
	if by == "" {
		by = os.Getenv("USER")
	}
	if by == "" {
		by = "sitectl"
	}
	if _, err := store.SetMaintenance(active, by); err != nil {
		return err
	}
	state := "off"
	if active {
		state = "on"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Maintenance mode %s (%s)\n", state, cfg.SiteFile)
	return nil
}

func runMaintenanceStatus(cmd *cobra.Command, args []string) error {
	store, err := files.NewSiteStore(cfg.SiteFile, cfg.MaintenanceFailClosed)
	out := cmd.OutOrStdout()
	if err != nil {
		fmt.Fprintf(out, "Site file unreadable: %v\n", err)
	}
	s := store.Snapshot()
	switch {
	case store.MaintenanceActive():
		fmt.Fprintln(out, "Maintenance: ACTIVE")
	case s.MaintenanceMode == nil:
		fmt.Fprintln(out, "Maintenance: off (flag undefined)")
	default:
		fmt.Fprintln(out, "Maintenance: off")
	}
	if s.UpdatedBy != "" {
		fmt.Fprintf(out, "Updated by %s at %s\n", s.UpdatedBy, s.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
