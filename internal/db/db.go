package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"remnant-inventory-backend/config"
	"remnant-inventory-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs the schema migrations and (re)creates the availability views.
// Split from Init so tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Machine{},
		&model.Remnant{},
		&model.ClientOrder{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if err := createRemnantViews(db); err != nil {
		return fmt.Errorf("failed to create remnant views: %w", err)
	}
	return nil
}

// createRemnantViews maintains the two derived read-only views that restrict
// remnant rows by availability state, each joined with the owning machine
// name. The paginated query surface reads from these.
func createRemnantViews(db *gorm.DB) error {
	ddls := []string{
		"DROP VIEW IF EXISTS vw_remnants_available;",
		`CREATE VIEW vw_remnants_available AS
		SELECT
			r.id,
			r.machine_id,
			r.length,
			r.width,
			r.thickness,
			r.quantity,
			r.available,
			r.image,
			r.note,
			r.created_at,
			r.updated_at,
			m.name AS machine_name
		FROM remnants r
		INNER JOIN machines m ON r.machine_id = m.id
		WHERE r.available = true;`,

		"DROP VIEW IF EXISTS vw_remnants_consumed;",
		`CREATE VIEW vw_remnants_consumed AS
		SELECT
			r.id,
			r.machine_id,
			r.length,
			r.width,
			r.thickness,
			r.quantity,
			r.available,
			r.image,
			r.note,
			r.created_at,
			r.updated_at,
			m.name AS machine_name
		FROM remnants r
		INNER JOIN machines m ON r.machine_id = m.id
		WHERE r.available = false;`,
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
