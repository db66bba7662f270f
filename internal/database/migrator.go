// Package database runs schema migrations at startup. Files come from the
// embedded migrations package and are applied in filename order; each applied
// file is recorded in schema_migrations so restarts are idempotent.
package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"textile-backend/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Migrator struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, log *zap.Logger) *Migrator {
	return &Migrator{pool: pool, log: log}
}

func (m *Migrator) RunMigrations(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	ran := 0
	for _, filename := range files {
		if applied[filename] {
			continue
		}

		content, err := migrations.Files.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", filename, err)
		}

		m.log.Info("applying migration", zap.String("file", filename))
		if _, err := m.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("run migration %s: %w", filename, err)
		}
		if err := m.recordMigration(ctx, filename); err != nil {
			return fmt.Errorf("record migration %s: %w", filename, err)
		}
		ran++
	}

	m.log.Info("migrations complete", zap.Int("applied", ran))
	return nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`, filename)
	return err
}
