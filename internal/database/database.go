// Package database owns the sqlite reference store: self-provisioning from a
// declarative schema, column-for-column validation of existing files, and
// size-bounded query batching.
package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zielaskowski/tradeDB/internal/config"
	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
	"github.com/zielaskowski/tradeDB/internal/logger"
)

// Manager handles store operations. It is a scoped resource: opened at the
// start of a logical operation and closed on every exit path, never held
// across calls.
type Manager struct {
	db     *gorm.DB
	budget int
}

// Open connects to the sqlite store at the configured path. A store with no
// tables is provisioned from the declarative schema and seeded with the
// geography and currency reference rows. An existing store is validated
// against the schema; a mismatch is fatal and reported as SCHEMA_MISMATCH.
func Open(cfg *config.Config) (*Manager, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.DBPath, err)
	}

	// Foreign key constraints are off by default in sqlite and scoped to the
	// connection, so enable them before anything else runs.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}

	tables, err := loadSchema()
	if err != nil {
		return nil, err
	}

	fresh, err := isEmptyStore(db)
	if err != nil {
		return nil, err
	}
	if fresh {
		logger.Get().Infow("provisioning new store", "path", cfg.DBPath)
		if err := provision(db, tables); err != nil {
			return nil, err
		}
	} else {
		for _, t := range tables {
			if err := validateTable(db, t); err != nil {
				return nil, err
			}
		}
	}

	budget := cfg.ClauseBudget
	if budget <= 0 {
		budget = DefaultClauseBudget
	}
	return &Manager{db: db, budget: budget}, nil
}

// Close releases the underlying connection.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database instance.
func (m *Manager) DB() *gorm.DB { return m.db }

// Budget returns the logical-clause budget for batched queries.
func (m *Manager) Budget() int { return m.budget }

// isEmptyStore reports whether the store holds no user tables yet.
func isEmptyStore(db *gorm.DB) (bool, error) {
	var n int64
	err := db.Raw(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'",
	).Scan(&n).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return n == 0, nil
}

// provision creates every table from the schema and seeds the reference data
// in one transaction, so a half-created store is never left behind.
func provision(db *gorm.DB, tables []Table) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Exec(t.DDL()).Error; err != nil {
				return fmt.Errorf("creating table %s: %w", t.Name, err)
			}
		}
		if err := seedGeo(tx); err != nil {
			return fmt.Errorf("seeding GEO: %w", err)
		}
		if err := seedCurrencies(tx); err != nil {
			return fmt.Errorf("seeding CURRENCY_DESC: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}
