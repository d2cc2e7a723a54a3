package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrylevesque/sectorgate/internal/auth"
	"github.com/harrylevesque/sectorgate/internal/models"
)

var (
	adminGhost    bool
	adminPassword string
	adminRevoke   bool
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminAddCmd, adminGhostCmd)
	adminAddCmd.Flags().BoolVar(&adminGhost, "ghost", false, "Grant ghost clearance (bypasses maintenance mode)")
	adminAddCmd.Flags().StringVar(&adminPassword, "password", "", "Password (default $SECTORGATE_ADMIN_PASSWORD, then one line of stdin)")
	adminGhostCmd.Flags().BoolVar(&adminRevoke, "revoke", false, "Revoke instead of grant")
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage dashboard administrators",
}

var adminAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an administrator",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminAdd,
}

var adminGhostCmd = &cobra.Command{
	Use:   "ghost <username>",
	Short: "Grant or revoke ghost clearance",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminGhost,
}

func readPassword(cmd *cobra.Command) (string, error) {
	if adminPassword != "" {
		return adminPassword, nil
	}
	if env := os.Getenv("SECTORGATE_ADMIN_PASSWORD"); env != "" {
		return env, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runAdminAdd(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	admin, err := store.CreateAdmin(cmd.Context(), models.Admin{
		Username:       args[0],
		PasswordHash:   hash,
		GhostClearance: adminGhost,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s) ghost=%t\n", admin.Username, admin.ID, admin.GhostClearance)
	return nil
}

func runAdminGhost(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetGhostClearance(cmd.Context(), args[0], !adminRevoke); err != nil {
		return err
	}
	if adminRevoke {
		fmt.Fprintf(cmd.OutOrStdout(), "Revoked ghost clearance from %s\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Granted ghost clearance to %s\n", args[0])
	}
	return nil
}
