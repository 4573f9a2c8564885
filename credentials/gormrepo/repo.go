// Package gormrepo stores logins, masquerade windows and user settings with
// gorm, on sqlite or postgres.
package gormrepo

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-gate/credentials"
	autherrors "github.com/jrsteele09/go-auth-gate/internal/errors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ credentials.Repo = (*Repo)(nil)

type Repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) FindByUsername(ctx context.Context, username string) (*credentials.Record, error) {
	var login Login
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrLoginNotFound
		}
		return nil, errors.Wrap(err, "[Repo.FindByUsername]")
	}
	return login.record(), nil
}

func (r *Repo) FindByRemoteAddress(ctx context.Context, remoteAddr string) (string, error) {
	var addr LoginAddress
	if err := r.db.WithContext(ctx).Where("address = ?", remoteAddr).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "[Repo.FindByRemoteAddress]")
	}
	return addr.Username, nil
}

// FindForMasquerade returns the first login of userID together with its
// newest unexpired mask, if any.
func (r *Repo) FindForMasquerade(ctx context.Context, userID string) (*credentials.Record, error) {
	db := r.db.WithContext(ctx)

	var login Login
	if err := db.Where("user_id = ?", userID).Order("created_at").First(&login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, autherrors.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[Repo.FindForMasquerade]")
	}
	rec := login.record()

	var mask Mask
	err := db.Where("user_id = ? AND expires_at > ?", userID, time.Now().UTC()).Order("expires_at DESC").First(&mask).Error
	switch {
	case err == nil:
		rec.MaskID = mask.ID
		rec.MaskLoginID = mask.LoginID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "[Repo.FindForMasquerade] mask")
	}
	return rec, nil
}

func (r *Repo) LoadSettings(ctx context.Context, userID string) (map[string]string, error) {
	var rows []Setting
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "[Repo.LoadSettings]")
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

func (r *Repo) UpdateStoredHash(ctx context.Context, loginID, digest string) error {
	return r.updateLogin(ctx, "[Repo.UpdateStoredHash]", loginID, "password_hash", digest)
}

func (r *Repo) RecordLastActivity(ctx context.Context, loginID string, at time.Time) error {
	return r.updateLogin(ctx, "[Repo.RecordLastActivity]", loginID, "last_activity_at", at.UTC())
}

func (r *Repo) ExtendMasqueradeExpiry(ctx context.Context, maskID string, until time.Time) error {
	res := r.db.WithContext(ctx).Model(&Mask{}).Where("id = ?", maskID).Update("expires_at", until.UTC())
	if res.Error != nil {
		return errors.Wrap(res.Error, "[Repo.ExtendMasqueradeExpiry]")
	}
	if res.RowsAffected == 0 {
		return autherrors.Wrapf(autherrors.ErrNotFound, "[Repo.ExtendMasqueradeExpiry] mask %s", maskID)
	}
	return nil
}

func (r *Repo) Upsert(ctx context.Context, rec *credentials.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Login
		err := tx.Where("username = ?", rec.Username).First(&existing).Error
		switch {
		case err == nil:
			if rec.LoginID == "" {
				rec.LoginID = existing.ID
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return errors.Wrap(err, "[Repo.Upsert] lookup")
		}

		login := Login{
			BaseModel:      BaseModel{ID: rec.LoginID},
			UserID:         rec.UserID,
			Username:       rec.Username,
			PasswordHash:   rec.PasswordHash,
			Domain:         rec.Domain,
			ChangePassword: rec.ChangePassword,
			Fields:         rec.Fields,
		}
		if login.ID == "" {
			if err := tx.Create(&login).Error; err != nil {
				return errors.Wrap(err, "[Repo.Upsert] create")
			}
			rec.LoginID = login.ID
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&login).Error; err != nil {
			return errors.Wrap(err, "[Repo.Upsert] update")
		}
		return nil
	})
}

// BindRemoteAddress logs username in for every request from remoteAddr
func (r *Repo) BindRemoteAddress(ctx context.Context, remoteAddr, username string) error {
	addr := LoginAddress{Address: remoteAddr, Username: username}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"username"}),
	}).Create(&addr).Error
	return errors.Wrap(err, "[Repo.BindRemoteAddress]")
}

// StartMasquerade opens a mask for the operator loginID on userID
func (r *Repo) StartMasquerade(ctx context.Context, loginID, userID string, until time.Time) (string, error) {
	mask := Mask{LoginID: loginID, UserID: userID, ExpiresAt: until.UTC()}
	if err := r.db.WithContext(ctx).Create(&mask).Error; err != nil {
		return "", errors.Wrap(err, "[Repo.StartMasquerade]")
	}
	return mask.ID, nil
}

func (r *Repo) SetSetting(ctx context.Context, userID, key, value string) error {
	s := Setting{UserID: userID, Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&s).Error
	return errors.Wrap(err, "[Repo.SetSetting]")
}

func (r *Repo) updateLogin(ctx context.Context, op, loginID, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&Login{}).Where("id = ?", loginID).Update(column, value)
	if res.Error != nil {
		return errors.Wrap(res.Error, op)
	}
	if res.RowsAffected == 0 {
		return autherrors.Wrapf(autherrors.ErrLoginNotFound, "%s %s", op, loginID)
	}
	return nil
}

func (l *Login) record() *credentials.Record {
	return &credentials.Record{
		LoginID:        l.ID,
		UserID:         l.UserID,
		Username:       l.Username,
		PasswordHash:   l.PasswordHash,
		Domain:         l.Domain,
		ChangePassword: l.ChangePassword,
		Fields:         l.Fields,
	}
}
