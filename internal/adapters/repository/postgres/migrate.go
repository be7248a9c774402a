package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every up migration in name order. The migrations are
// idempotent, so running it on an existing schema is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := migrationNames(".up.sql")
	if err != nil {
		return err
	}

	for _, name := range names {
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return nil
}

// MigrationFile returns the content of the first migration whose file name
// ends with migrationName + ".sql", e.g. "create_votes.up".
func MigrationFile(migrationName string) (string, []byte, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return "", nil, fmt.Errorf("invalid migration pattern: %w", err)
	}

	names, err := migrationNames(".sql")
	if err != nil {
		return "", nil, err
	}

	for _, name := range names {
		if !regex.MatchString(name) {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		return name, content, nil
	}

	return "", nil, fmt.Errorf("migration file not found: %s", migrationName)
}

func migrationNames(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
