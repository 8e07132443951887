package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type profileModel struct {
	bun.BaseModel `bun:"table:profiles"`

	ID        string    `bun:"id,pk"`
	Role      string    `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type auditModel struct {
	bun.BaseModel `bun:"table:admin_audit"`

	ID        uuid.UUID      `bun:"id,pk,type:text"`
	Action    string         `bun:"action,notnull"`
	UserID    string         `bun:"user_id,notnull"`
	TargetID  string         `bun:"target_id,nullzero"`
	Metadata  map[string]any `bun:"metadata,type:text,nullzero"`
	CreatedAt time.Time      `bun:"created_at,notnull"`
}

type requestModel struct {
	bun.BaseModel `bun:"table:user_requests"`

	ID         uuid.UUID `bun:"id,pk,type:text"`
	UserID     string    `bun:"user_id,notnull"`
	Education  string    `bun:"education,notnull"`
	Skills     string    `bun:"skills,notnull"`
	Interest   string    `bun:"interest,notnull"`
	AIResponse string    `bun:"ai_response,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}
