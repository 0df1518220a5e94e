package database

import (
	"fmt"
	"os"
	"time"

	"github.com/andreajoa/linktree/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database connection and configures the pool. The
// returned handle is constructed once at process start and passed into the
// components that need it.
func Connect(databaseURL string) (*gorm.DB, error) {
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate runs auto-migration for all models and creates indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Link{},
		&models.Page{},
		&models.Block{},
		&models.LinkClick{},
		&models.PageView{},
		&models.BlockClick{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createIndexes creates performance indexes beyond what the struct tags
// declare. The click tables are append-only and every aggregation filters on
// a time range, so the composite (subject, timestamp) indexes matter most.
func createIndexes(db *gorm.DB) error {
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")

	db.Exec("CREATE INDEX IF NOT EXISTS idx_link_clicks_user_country ON link_clicks (user_id, country) WHERE country <> ''")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_link_clicks_user_device ON link_clicks (user_id, device) WHERE device <> ''")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_page_views_session ON page_views (session_id) WHERE session_id <> ''")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_block_clicks_session ON block_clicks (page_id, session_id) WHERE session_id <> ''")

	return nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity.
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
