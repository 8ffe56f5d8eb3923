// Package migrate applies SQL schema migrations from an fs.FS.
// Migrations are named NNNNNN_name.up.sql / NNNNNN_name.down.sql and
// applied in version order; applied versions are tracked in the
// schema_migrations table.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Migration is one migration file.
type Migration struct {
	Version string
	Name    string
	Path    string
}

// Runner applies migrations against a database.
type Runner struct {
	db  *sql.DB
	src fs.FS
}

// NewRunner creates a migration runner reading from src.
func NewRunner(db *sql.DB, src fs.FS) *Runner {
	return &Runner{db: db, src: src}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	return nil
}

func (r *Runner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// list returns migrations with the given direction suffix, sorted by
// version.
func (r *Runner) list(direction string) ([]Migration, error) {
	suffix := fmt.Sprintf(".%s.sql", direction)

	var migrations []Migration
	err := fs.WalkDir(r.src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, suffix) {
			return err
		}
		base := strings.TrimSuffix(d.Name(), suffix)
		version, name, ok := strings.Cut(base, "_")
		if !ok {
			return fmt.Errorf("malformed migration filename: %s", d.Name())
		}
		migrations = append(migrations, Migration{Version: version, Name: name, Path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Up applies all pending migrations. Each migration runs in its own
// transaction together with its schema_migrations record.
func (r *Runner) Up(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}
	migrations, err := r.list("up")
	if err != nil {
		return 0, err
	}

	var count int
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(ctx, m, true); err != nil {
			return count, fmt.Errorf("applying migration %s_%s: %w", m.Version, m.Name, err)
		}
		count++
	}
	return count, nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return nil
	}

	migrations, err := r.list("down")
	if err != nil {
		return err
	}
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		if !applied[m.Version] {
			continue
		}
		if err := r.apply(ctx, m, false); err != nil {
			return fmt.Errorf("rolling back migration %s_%s: %w", m.Version, m.Name, err)
		}
		return nil
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, m Migration, up bool) error {
	script, err := fs.ReadFile(r.src, m.Path)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		return err
	}
	if up {
		_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}
