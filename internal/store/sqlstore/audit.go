package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"careergate/internal/audit"
)

// AuditLog implements audit.Store and audit.Lister. It only inserts and
// selects.
type AuditLog struct {
	db *bun.DB
}

func NewAuditLog(db *bun.DB) *AuditLog {
	return &AuditLog{db: db}
}

func (a *AuditLog) Append(ctx context.Context, rec audit.Record) error {
	m := &auditModel{
		ID:        rec.ID,
		Action:    string(rec.Action),
		UserID:    rec.ActorID,
		TargetID:  rec.TargetID,
		Metadata:  rec.Metadata,
		CreatedAt: rec.OccurredAt.UTC(),
	}
	if _, err := a.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (a *AuditLog) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	var rows []auditModel
	q := a.db.NewSelect().Model(&rows).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}

	out := make([]audit.Record, 0, len(rows))
	for _, m := range rows {
		out = append(out, audit.Record{
			ID:         m.ID,
			Action:     audit.Action(m.Action),
			ActorID:    m.UserID,
			TargetID:   m.TargetID,
			Metadata:   m.Metadata,
			OccurredAt: m.CreatedAt.UTC(),
		})
	}
	return out, nil
}
