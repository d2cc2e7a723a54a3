package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/sectorgate/internal/auth"
	"github.com/harrylevesque/sectorgate/internal/crypto"
	"github.com/harrylevesque/sectorgate/internal/heartbeat"
)

var vendorTokenTTL time.Duration

func init() {
	rootCmd.AddCommand(vendorCmd)
	vendorCmd.AddCommand(vendorAddCmd, vendorTokenCmd, vendorListCmd)
	vendorTokenCmd.Flags().DurationVar(&vendorTokenTTL, "ttl", 0, "Token lifetime (default $SECTORGATE_VENDOR_TOKEN_TTL, 0 for no expiry)")
}

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Manage heartbeat vendors",
}

var vendorAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a vendor",
	Args:  cobra.ExactArgs(1),
	RunE:  runVendorAdd,
}

var vendorTokenCmd = &cobra.Command{
	Use:   "token <vendor-id>",
	Short: "Issue a heartbeat bearer token (needs SECTORGATE_MASTER_KEY_HEX)",
	Args:  cobra.ExactArgs(1),
	RunE:  runVendorToken,
}

var vendorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vendors and when they last pinged",
	Args:  cobra.NoArgs,
	RunE:  runVendorList,
}

func runVendorAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	vendor, err := store.CreateVendor(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created vendor %s (%s)\n", vendor.Name, vendor.ID)
	return nil
}

func runVendorToken(cmd *cobra.Command, args []string) error {
	master, err := cfg.MasterKey()
	if err != nil {
		return err
	}
	keys, err := crypto.DeriveKeys(master)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()
	vendor, err := store.VendorByID(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("vendor %s: %w", args[0], err)
	}

	ttl := vendorTokenTTL
	if !cmd.Flags().Changed("ttl") {
		ttl = cfg.VendorTokenTTL
	}
	token, err := auth.NewVendorTokens(keys.VendorToken).Issue(vendor.ID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runVendorList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	vendors, err := heartbeat.NewService(store, cfg.HeartbeatStaleAfter).Presence(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(vendors) == 0 {
		fmt.Fprintln(out, "No vendors registered")
		return nil
	}
	for _, v := range vendors {
		seen := "never"
		if v.LastSeen != nil {
			seen = v.LastSeen.Format(time.RFC3339)
		}
		status := "stale"
		if v.Online {
			status = "online"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", v.ID, v.Name, seen, status)
	}
	return nil
}
