package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/onikinet/oniki-match/internal/config"
)

// NewDB opens the database selected by cfg.DB.Driver ("mysql" or "sqlite")
// and migrates the schema.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "mysql", "":
		dialector = mysql.Open(cfg.DB.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
	return Open(dialector, cfg.DB.LogSQL)
}

// Open connects through the given dialector and runs AutoMigrate.
// Constraint violations are translated to gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, logSQL bool) (*gorm.DB, error) {
	level := logger.Warn
	if logSQL {
		level = logger.Info // log SQL queries
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
