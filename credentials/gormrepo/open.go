package gormrepo

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// zerologWriter routes gorm's logger through the global zerolog logger
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...interface{}) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// Open connects to databaseURL. postgres:// and postgresql:// URLs use the
// postgres driver, anything else is treated as a sqlite file path.
func Open(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			zerologWriter{},
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[gormrepo.Open] open database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "[gormrepo.Open] underlying sql.DB")
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "[gormrepo.Open] ping")
	}

	if err := AutoMigrate(db); err != nil {
		return nil, errors.Wrap(err, "[gormrepo.Open] migrate")
	}
	return db, nil
}
