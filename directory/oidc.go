// Package directory is the secondary credential source consulted when a login
// is not in the local store or its password does not match. It trades the
// submitted username and password for an ID token at an OpenID Connect
// provider (resource owner password grant) and verifies the token.
package directory

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-gate/auth"
	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ auth.Directory = (*OIDCDirectory)(nil)

// Claims read from a verified ID token
type idTokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
}

type OIDCDirectory struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	// creds links directory users to local logins. May be nil.
	creds credentials.Repo
}

// New discovers the provider at cfg.Issuer. A configured TokenURL replaces
// the discovered token endpoint.
func New(ctx context.Context, cfg config.DirectorySettings, creds credentials.Repo) (*OIDCDirectory, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[directory New] failed to create OIDC provider")
	}

	endpoint := provider.Endpoint()
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return NewWithVerifier(cfg, endpoint, verifier, creds), nil
}

// NewWithVerifier builds a directory around an already configured endpoint and
// verifier, skipping discovery.
func NewWithVerifier(cfg config.DirectorySettings, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier, creds credentials.Repo) *OIDCDirectory {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	return &OIDCDirectory{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		verifier: verifier,
		creds:    creds,
	}
}

// Lookup exchanges the attempt's credentials for an ID token. Single sign on
// attempts carry no password and are never sent to the provider.
func (d *OIDCDirectory) Lookup(ctx context.Context, attempt *auth.LoginAttempt) (*credentials.Record, error) {
	if attempt.SingleSignOn {
		return nil, errors.Wrap(autherrors.ErrUnsupported, "[OIDCDirectory.Lookup] single sign on")
	}
	if attempt.Username == "" || attempt.Password == "" {
		return nil, errors.Wrap(autherrors.ErrEmptyCredentials, "[OIDCDirectory.Lookup]")
	}

	token, err := d.oauth.PasswordCredentialsToken(ctx, attempt.Username, attempt.Password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, errors.Wrapf(autherrors.ErrInvalidCredentials, "[OIDCDirectory.Lookup] %s", retrieveErr.ErrorCode)
		}
		return nil, errors.Wrap(err, "[OIDCDirectory.Lookup] token request failed")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.Wrap(autherrors.ErrInvalidCredentials, "[OIDCDirectory.Lookup] no id_token in token response")
	}
	idToken, err := d.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCDirectory.Lookup] id_token verification failed")
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[OIDCDirectory.Lookup] failed to decode claims")
	}
	if claims.PreferredUsername != "" && !strings.EqualFold(claims.PreferredUsername, attempt.Username) {
		return nil, errors.Wrapf(autherrors.ErrInvalidCredentials, "[OIDCDirectory.Lookup] token issued for %q", claims.PreferredUsername)
	}

	rec := &credentials.Record{
		UserID:   idToken.Subject,
		Username: attempt.Username,
		Fields:   map[string]string{},
	}
	if claims.Email != "" {
		rec.Fields["email"] = claims.Email
	}
	if claims.Name != "" {
		rec.Fields["name"] = claims.Name
	}

	return d.link(ctx, rec)
}

// link ties a verified directory user to a local login so activity can be
// recorded against it. An existing local login keeps its ids and password;
// a new one is stored without a password.
func (d *OIDCDirectory) link(ctx context.Context, rec *credentials.Record) (*credentials.Record, error) {
	if d.creds == nil {
		return rec, nil
	}

	existing, err := d.creds.FindByUsername(ctx, rec.Username)
	switch {
	case err == nil:
		linked := existing.Clone()
		linked.PasswordHash = ""
		if linked.Fields == nil {
			linked.Fields = map[string]string{}
		}
		for k, v := range rec.Fields {
			linked.Fields[k] = v
		}
		return linked, nil
	case !errors.Is(err, autherrors.ErrLoginNotFound):
		return nil, errors.Wrap(err, "[OIDCDirectory.link] failed to look up login")
	}

	if err := d.creds.Upsert(ctx, rec); err != nil {
		log.Warn().Err(err).Str("username", rec.Username).Msg("Failed to store directory login")
	}
	return rec, nil
}
