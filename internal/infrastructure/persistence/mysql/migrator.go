package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createSchemaMigrations = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INT         NOT NULL,
		applied_at DATETIME(3) NOT NULL,
		PRIMARY KEY (version)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrator handles database schema migrations with version tracking.
type Migrator struct {
	db *sql.DB
}

// NewMigrator creates a new migrator for the given database connection.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// Migration represents a single database migration.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Up runs all pending migrations to bring the database schema up to date.
// It tracks applied migrations in the schema_migrations table.
func (m *Migrator) Up(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createSchemaMigrations); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	migrations, err := m.loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := m.applyMigration(ctx, migration); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}

	return nil
}

// currentVersion returns the latest applied migration version, or 0.
func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := m.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("querying current version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// applyMigration applies a single migration in a transaction. MySQL commits
// DDL implicitly, so the version row is what makes a rerun skip it.
func (m *Migrator) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	recordQuery := `
		INSERT INTO schema_migrations (version, applied_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE applied_at = VALUES(applied_at)
	`
	if _, err := tx.ExecContext(ctx, recordQuery, migration.Version, time.Now().UTC()); err != nil {
		return fmt.Errorf("recording migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// loadMigrations loads all migration files from the embedded filesystem.
// It parses filenames like "001_initial.sql" to extract version numbers.
func (m *Migrator) loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		if !strings.HasSuffix(filename, ".sql") {
			continue
		}

		prefix, rest, ok := strings.Cut(filename, "_")
		if !ok {
			return nil, fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", filename)
		}

		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("parsing version from filename %s: %w", filename, err)
		}

		content, err := migrationFiles.ReadFile("migrations/" + filename)
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", filename, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(rest, ".sql"),
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// Version returns the current migration version.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	return m.currentVersion(ctx)
}
