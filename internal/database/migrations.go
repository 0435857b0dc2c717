package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/daily-tracker/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table and the listing indexes.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	log.Info("running database migrations")
	err := db.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.Task{},
		&models.Note{},
		&models.Folder{},
		&models.File{},
		&models.OTP{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db, log); err != nil {
		return err
	}

	log.Info("database migrations completed")
	return nil
}

// AddIndexes adds the composite indexes backing the per-user listings.
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"jobs", "idx_jobs_user_created", "user_id, created_at"},
		{"tasks", "idx_tasks_user_created", "user_id, created_at"},
		{"notes", "idx_notes_user_created", "user_id, created_at"},
		{"folders", "idx_folders_user_parent", "user_id, parent_id"},
		{"files", "idx_files_user_trashed", "user_id, is_trashed"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.Debug("index already exists", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Debug("created index", "index", idx.name, "table", idx.table)
	}

	return nil
}
