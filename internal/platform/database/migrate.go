package database

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"careergate/migrations"
)

// Migrate applies every embedded migration in file name order. Statements
// are written to be idempotent and portable across postgres and SQLite, so
// re-running is safe.
func (p *Pool) Migrate(ctx context.Context) ([]string, error) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	for _, name := range names {
		raw, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		for _, stmt := range statements(string(raw)) {
			if _, err := p.db.ExecContext(ctx, stmt); err != nil {
				return nil, fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}
	return names, nil
}

func statements(script string) []string {
	var code []string
	for _, l := range strings.Split(script, "\n") {
		if t := strings.TrimSpace(l); t != "" && !strings.HasPrefix(t, "--") {
			code = append(code, l)
		}
	}
	var out []string
	for _, part := range strings.Split(strings.Join(code, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
