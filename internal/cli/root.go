// Package cli is authctl, the admin tool for the login store.
package cli

import (
	"fmt"
	"os"

	"github.com/jrsteele09/go-auth-gate/internal/cli/commands"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the authctl command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "authctl",
		Short: "authctl - manage logins for the auth gate",
		Long: `authctl edits the login store used by the auth gate.

It reads the same AUTH_CONFIG settings file and DATABASE_URL as the server,
so hashes it writes use the configured scheme.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "authctl version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewHashCmd())
	rootCmd.AddCommand(commands.NewAddLoginCmd())
	rootCmd.AddCommand(commands.NewVerifyCmd())
	rootCmd.AddCommand(commands.NewBindAddressCmd())
	rootCmd.AddCommand(commands.NewMasqueradeCmd())
	rootCmd.AddCommand(commands.NewSettingCmd())
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
