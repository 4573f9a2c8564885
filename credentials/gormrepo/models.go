package gormrepo

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel gives every table a ULID primary key
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

type Login struct {
	BaseModel
	UserID         string            `gorm:"type:varchar(64);index;not null"`
	Username       string            `gorm:"uniqueIndex;not null"`
	PasswordHash   string            `gorm:"type:text"`
	Domain         string            `gorm:"type:varchar(255)"`
	ChangePassword bool              `gorm:"not null;default:false"`
	Fields         map[string]string `gorm:"type:text;serializer:json"`
	LastActivityAt *time.Time
}

// LoginAddress logs in the bound username for requests from Address
type LoginAddress struct {
	BaseModel
	Address  string `gorm:"uniqueIndex;not null"`
	Username string `gorm:"not null"`
}

// Mask is an operator's time limited takeover of another user
type Mask struct {
	BaseModel
	LoginID   string    `gorm:"type:varchar(26);index;not null"`
	UserID    string    `gorm:"type:varchar(64);index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

type Setting struct {
	BaseModel
	UserID string `gorm:"type:varchar(64);uniqueIndex:idx_user_setting;not null"`
	Key    string `gorm:"uniqueIndex:idx_user_setting;not null"`
	Value  string `gorm:"type:text"`
}

// AutoMigrate creates or updates the credential tables
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Login{}, &LoginAddress{}, &Mask{}, &Setting{},
	}
	return db.AutoMigrate(models...)
}
