package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"careergate/internal/generation"
)

// History implements generation.HistoryStore.
type History struct {
	db *bun.DB
}

func NewHistory(db *bun.DB) *History {
	return &History{db: db}
}

func (h *History) Insert(ctx context.Context, e generation.Entry) error {
	m := &requestModel{
		ID:         e.ID,
		UserID:     e.OwnerID,
		Education:  e.Education,
		Skills:     e.Skills,
		Interest:   e.Interest,
		AIResponse: e.Response,
		CreatedAt:  e.CreatedAt.UTC(),
	}
	if _, err := h.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert user request: %w", err)
	}
	return nil
}

func (h *History) ListByOwner(ctx context.Context, ownerID string, limit int) ([]generation.Entry, error) {
	var rows []requestModel
	q := h.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", ownerID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list user requests: %w", err)
	}

	out := make([]generation.Entry, 0, len(rows))
	for _, m := range rows {
		out = append(out, generation.Entry{
			ID:        m.ID,
			OwnerID:   m.UserID,
			Education: m.Education,
			Skills:    m.Skills,
			Interest:  m.Interest,
			Response:  m.AIResponse,
			CreatedAt: m.CreatedAt.UTC(),
		})
	}
	return out, nil
}
