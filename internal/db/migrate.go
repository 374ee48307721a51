package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"legacy-keeper-go/pkg/logger"
)

const defaultMigrationsDir = "migrations"

type schemaMigration struct {
	Filename  string    `gorm:"column:filename;primaryKey"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrate runs the pending *.sql files of dir in name order, one transaction
// per file. An empty dir means the nearest "migrations" directory above the
// working directory; when none exists there is nothing to do.
func Migrate(db *gorm.DB, dir string, log logger.Logger) error {
	dir, err := resolveMigrationsDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("db: no migrations directory found")
			return nil
		}
		return err
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := db.Model(&schemaMigration{}).Pluck("filename", &done).Error; err != nil {
		return fmt.Errorf("load applied migrations: %w", err)
	}

	pending := pendingMigrations(files, done)
	for _, path := range pending {
		name := filepath.Base(path)
		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		statements := strings.TrimSpace(string(contents))

		err = db.Transaction(func(tx *gorm.DB) error {
			if statements != "" {
				if err := tx.Exec(statements).Error; err != nil {
					return fmt.Errorf("apply migration %s: %w", name, err)
				}
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&schemaMigration{Filename: name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return err
		}
		log.Info("db: migration applied", "file", name)
	}

	log.Info("db: migrations up to date", "applied", len(pending), "skipped", len(files)-len(pending))
	return nil
}

// pendingMigrations returns the paths whose base name is not in done, sorted by name.
func pendingMigrations(paths, done []string) []string {
	applied := make(map[string]struct{}, len(done))
	for _, name := range done {
		applied[name] = struct{}{}
	}

	pending := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := applied[filepath.Base(path)]; ok {
			continue
		}
		pending = append(pending, path)
	}
	sort.Slice(pending, func(i, j int) bool {
		return filepath.Base(pending[i]) < filepath.Base(pending[j])
	})
	return pending
}

func resolveMigrationsDir(dir string) (string, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", fmt.Errorf("migrations path %s is not a directory", dir)
		}
		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(cwd, defaultMigrationsDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return "", os.ErrNotExist
		}
		cwd = parent
	}
}
