package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-auth-gate/credentials"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/jrsteele09/go-auth-gate/passwords"
	"github.com/spf13/cobra"
)

// NewHashCmd creates the hash command
func NewHashCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the digest of a password with the configured scheme",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.close()

			password, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			digest, err := s.hasher.Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (or set AUTHCTL_PASSWORD, will prompt if not provided)")
	return cmd
}

// NewAddLoginCmd creates the add-login command
func NewAddLoginCmd() *cobra.Command {
	var (
		username       string
		userID         string
		domain         string
		password       string
		changePassword bool
		weak           bool
		fields         map[string]string
	)

	cmd := &cobra.Command{
		Use:   "add-login",
		Short: "Create or replace a login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || userID == "" {
				return fmt.Errorf("--username and --user-id are required")
			}

			password, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if !weak {
				if err := passwords.ValidateStrength(password); err != nil {
					return err
				}
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.close()

			digest, err := s.hasher.Hash(password)
			if err != nil {
				return err
			}
			rec := &credentials.Record{
				UserID:         userID,
				Username:       username,
				PasswordHash:   digest,
				Domain:         domain,
				ChangePassword: changePassword,
				Fields:         fields,
			}
			if err := s.repo.Upsert(context.Background(), rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored login %s (%s) for user %s\n", rec.Username, rec.LoginID, rec.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name")
	cmd.Flags().StringVar(&userID, "user-id", "", "User the login belongs to")
	cmd.Flags().StringVar(&domain, "domain", "", "Domain the login is valid on (default: the configured hostname)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set AUTHCTL_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&changePassword, "change-password", false, "Send the user to the change password page after login")
	cmd.Flags().BoolVar(&weak, "allow-weak", false, "Skip the password strength check")
	cmd.Flags().StringToStringVar(&fields, "field", nil, "Extra session field as key=value (repeatable)")
	return cmd
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a password against a stored login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			password, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.close()

			ctx := context.Background()
			rec, err := s.repo.FindByUsername(ctx, username)
			if errors.Is(err, autherrors.ErrLoginNotFound) {
				return fmt.Errorf("no login named %q", username)
			}
			if err != nil {
				return err
			}
			if !s.hasher.Verify(ctx, password, rec.PasswordHash, rec.LoginID) {
				return autherrors.ErrInvalidCredentials
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password ok for %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set AUTHCTL_PASSWORD, will prompt if not provided)")
	return cmd
}
