package db

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"yamdb/internal/config"
	"yamdb/internal/model"
)

// Open returns a connected GORM DB for the given driver. Unique-constraint
// violations are translated to gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// One connection keeps in-memory databases and the pragma on a single handle.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

// models in dependency order.
func models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Category{},
		&model.Genre{},
		&model.Title{},
		&model.GenreTitle{},
		&model.Review{},
		&model.Comment{},
	}
}

// Migrate creates or updates the schema. When reset is set all tables are
// dropped first.
func Migrate(db *gorm.DB, reset bool) error {
	if reset {
		slog.Warn("RESET_DB=true detected, dropping all tables")
		tables := models()
		for i := len(tables) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(tables[i]); err != nil {
				slog.Warn("failed to drop table (may not exist)", "error", err)
			}
		}
	}

	if err := db.SetupJoinTable(&model.Title{}, "Genres", &model.GenreTitle{}); err != nil {
		return fmt.Errorf("setup genre join table: %w", err)
	}

	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// The author/title pair spans an embedded struct, so the composite index
	// is created by hand.
	if !db.Migrator().HasIndex(&model.Review{}, model.ReviewAuthorTitleIndex) {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX %s ON reviews (author_id, title_id)", model.ReviewAuthorTitleIndex)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create review uniqueness index: %w", err)
		}
	}
	return nil
}
