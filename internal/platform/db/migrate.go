package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Migration represents a single database migration loaded from a SQL file.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationStatus represents the status of a migration (applied or pending).
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrator reads numbered SQL files from a filesystem and applies them in
// order, recording each in the schema_migrations table.
type Migrator struct {
	pool   *pgxpool.Pool
	source fs.FS
	logger zerolog.Logger
}

func NewMigrator(pool *pgxpool.Pool, source fs.FS, logger zerolog.Logger) *Migrator {
	return &Migrator{pool: pool, source: source, logger: logger}
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// LoadMigrations returns the .sql files at the root of the source sorted by
// the numeric prefix of their name ("001_availability.sql" is version 1).
// Files without a numeric prefix are skipped; duplicate versions are an error.
func (m *Migrator) LoadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by both %s and %s", version, other, name)
		}
		seen[version] = name

		content, err := fs.ReadFile(m.source, name)
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Migrator) appliedAt(ctx context.Context) (map[int]time.Time, error) {
	if _, err := m.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := m.pool.Query(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = at
	}
	return applied, rows.Err()
}

// Up applies every pending migration, each in its own transaction, and
// returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	migrations, err := m.LoadMigrations()
	if err != nil {
		return 0, err
	}
	applied, err := m.appliedAt(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range Pending(migrations, applied) {
		start := time.Now()
		err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.SQL); err != nil {
				return fmt.Errorf("execute SQL: %w", err)
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		m.logger.Info().
			Int("version", mig.Version).
			Str("name", mig.Name).
			Dur("took", time.Since(start)).
			Msg("migration applied")
		count++
	}
	return count, nil
}

// Status reports every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	migrations, err := m.LoadMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := m.appliedAt(ctx)
	if err != nil {
		return nil, err
	}
	return statusOf(migrations, applied), nil
}

// Pending returns the migrations not present in applied, in version order.
func Pending(migrations []Migration, applied map[int]time.Time) []Migration {
	var out []Migration
	for _, mig := range migrations {
		if _, ok := applied[mig.Version]; !ok {
			out = append(out, mig)
		}
	}
	return out
}

func statusOf(migrations []Migration, applied map[int]time.Time) []MigrationStatus {
	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, mig := range migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if at, ok := applied[mig.Version]; ok {
			st.Applied = true
			st.AppliedAt = &at
		}
		statuses = append(statuses, st)
	}
	return statuses
}
