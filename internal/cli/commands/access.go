package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewBindAddressCmd creates the bind-address command
func NewBindAddressCmd() *cobra.Command {
	var address, username string

	cmd := &cobra.Command{
		Use:   "bind-address",
		Short: "Log every request from an address in as a login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" || username == "" {
				return fmt.Errorf("--address and --username are required")
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.repo.BindRemoteAddress(context.Background(), address, username); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requests from %s log in as %s\n", address, username)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Remote IP address")
	cmd.Flags().StringVar(&username, "username", "", "Login name")
	return cmd
}

// NewMasqueradeCmd creates the masquerade command
func NewMasqueradeCmd() *cobra.Command {
	var (
		operator string
		userID   string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "masquerade",
		Short: "Allow an operator login to act as another user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if operator == "" || userID == "" {
				return fmt.Errorf("--operator and --user-id are required")
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := context.Background()
			rec, err := s.repo.FindByUsername(ctx, operator)
			if err != nil {
				return fmt.Errorf("operator %q: %w", operator, err)
			}
			if duration <= 0 {
				duration = s.cfg.GetKeepAlive()
			}
			until := time.Now().Add(duration)
			maskID, err := s.repo.StartMasquerade(ctx, rec.LoginID, userID, until)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mask %s: %s acts as %s until %s\n", maskID, operator, userID, until.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "Login name of the operator")
	cmd.Flags().StringVar(&userID, "user-id", "", "User to act as")
	cmd.Flags().DurationVar(&duration, "for", 0, "How long the mask lasts before it must be renewed (default: the keep-alive window)")
	return cmd
}

// NewSettingCmd creates the setting command
func NewSettingCmd() *cobra.Command {
	var userID, key, value string

	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Store a per-user setting loaded into the session at login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" || key == "" {
				return fmt.Errorf("--user-id and --key are required")
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.repo.SetSetting(context.Background(), userID, key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s for %s\n", key, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "User id")
	cmd.Flags().StringVar(&key, "key", "", "Setting name")
	cmd.Flags().StringVar(&value, "value", "", "Setting value")
	return cmd
}
