// Package sqlstore implements the role, audit and history stores on a SQL
// database through bun, for deployments that do not use the hosted
// provider's REST API.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"careergate/internal/roles"
)

// Profiles implements roles.Store.
type Profiles struct {
	db *bun.DB
}

func NewProfiles(db *bun.DB) *Profiles {
	return &Profiles{db: db}
}

func (p *Profiles) FindRole(ctx context.Context, subjectID string) (string, string, error) {
	m := new(profileModel)
	err := p.db.NewSelect().
		Model(m).
		Column("id", "role").
		Where("id = ?", subjectID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", roles.ErrNotFound
		}
		return "", "", fmt.Errorf("find profile: %w", err)
	}
	return m.ID, m.Role, nil
}

// Upsert provisions subjectID with role, replacing any existing role. It is
// used by operator tooling only.
func (p *Profiles) Upsert(ctx context.Context, subjectID string, role roles.Role) error {
	m := &profileModel{ID: subjectID, Role: string(role), CreatedAt: time.Now().UTC()}
	_, err := p.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Delete removes subjectID's profile, leaving them unprovisioned.
func (p *Profiles) Delete(ctx context.Context, subjectID string) error {
	res, err := p.db.NewDelete().
		Model((*profileModel)(nil)).
		Where("id = ?", subjectID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roles.ErrNotFound
	}
	return nil
}
