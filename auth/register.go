package auth

import (
	"context"
	"maps"

	"github.com/jrsteele09/go-auth-gate/credentials"
	"github.com/jrsteele09/go-auth-gate/internal/logger"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Register logs the session in as rec. A nil rec starts a masquerade: the
// operator's LoginID is kept while the session now acts as userID. The
// session token is always regenerated.
func (lf *LoginFlow) Register(ctx context.Context, rc *RequestContext, userID string, rec *credentials.Record) error {
	s, err := rc.Sessions.Start(ctx)
	if err != nil {
		return errors.Wrap(err, "[LoginFlow.Register] start session")
	}

	if rec == nil {
		masked, err := lf.creds.FindForMasquerade(ctx, userID)
		if err != nil {
			return errors.Wrapf(err, "[LoginFlow.Register] masquerade as %s", userID)
		}
		loginID := s.LoginID
		s.Reset()
		s.LoginID = loginID
		s.UserID = userID
		s.Masquerade = true
		mergeRecord(s, masked, false)
	} else {
		s.Masquerade = false
		s.MaskID = ""
		mergeRecord(s, rec, true)
	}
	s.LoggedIn = true

	if s.Domain == "" {
		s.Domain = lf.cfg.GetHostname()
	}
	if userID == "" {
		userID = s.UserID
	}
	if userID != "" {
		settings, err := lf.creds.LoadSettings(ctx, userID)
		if err != nil {
			logger.Notice().Err(err).Str("user_id", userID).Msg("Failed to load user settings")
		} else {
			s.Settings = settings
		}
	}

	s.LastClickAt = lf.nowTime()
	if err := rc.Sessions.Regenerate(ctx); err != nil {
		return errors.Wrap(err, "[LoginFlow.Register]")
	}
	return nil
}

// Masquerade switches a logged in operator session to act as userID. The
// operator's login must own an unexpired mask on userID, as opened by
// authctl masquerade.
func (lf *LoginFlow) Masquerade(ctx context.Context, rc *RequestContext, userID string) (Result, error) {
	s := rc.Sessions.Session()
	if s == nil || !s.LoggedIn || s.LoginID == "" {
		return Result{}, ErrMasqueradeDenied
	}
	operator := s.LoginID
	masked, err := lf.creds.FindForMasquerade(ctx, userID)
	if err != nil {
		return Result{}, errors.Wrapf(err, "[LoginFlow.Masquerade] %s", userID)
	}
	if masked.MaskID == "" || masked.MaskLoginID != operator {
		log.Warn().Str("login_id", operator).Str("user_id", userID).Msg("Masquerade refused")
		return Result{}, ErrMasqueradeDenied
	}

	if err := lf.Register(ctx, rc, userID, nil); err != nil {
		return Result{}, err
	}
	log.Info().Str("login_id", operator).Str("user_id", userID).Str("mask_id", masked.MaskID).Msg("Masquerade started")
	domain := rc.Sessions.Session().Domain
	return LoginRedirect(lf.cfg, rc, lf.cfg.GetLoginEntryURL().For(domain)), nil
}

// mergeRecord copies the stored login into the session. withLogin is false
// for a masquerade, where the operator's login stays in place.
func mergeRecord(s *sessions.Session, rec *credentials.Record, withLogin bool) {
	if withLogin && rec.LoginID != "" {
		s.LoginID = rec.LoginID
	}
	if rec.UserID != "" && (withLogin || s.UserID == "") {
		s.UserID = rec.UserID
	}
	s.Username = rec.Username
	if rec.Domain != "" {
		s.Domain = rec.Domain
	}
	s.ChangePassword = rec.ChangePassword
	if rec.MaskID != "" {
		s.MaskID = rec.MaskID
	}
	if len(rec.Fields) > 0 {
		if s.Fields == nil {
			s.Fields = make(map[string]string, len(rec.Fields))
		}
		maps.Copy(s.Fields, rec.Fields)
	}
}
