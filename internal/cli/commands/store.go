package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/jrsteele09/go-auth-gate/credentials/gormrepo"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/jrsteele09/go-auth-gate/passwords"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const passwordEnvVar = "AUTHCTL_PASSWORD"

// store is the login store and hasher the commands share
type store struct {
	cfg    config.Config
	repo   *gormrepo.Repo
	hasher passwords.Hasher
	close  func()
}

func openStore() (*store, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := gormrepo.Open(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}
	repo := gormrepo.New(db)

	hasher, err := passwords.New(cfg, repo)
	if err != nil {
		return nil, err
	}

	return &store{
		cfg:    cfg,
		repo:   repo,
		hasher: hasher,
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}, nil
}

// readPassword takes the password from the flag, then AUTHCTL_PASSWORD, then
// a terminal prompt.
func readPassword(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if password = os.Getenv(passwordEnvVar); password != "" {
		return password, nil
	}

	// Check if stdin is a terminal (not piped)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", passwordEnvVar)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
