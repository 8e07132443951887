package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a privileged action worth keeping a trail of.
type Action string

const (
	ActionAdminDashboardViewed      Action = "admin_dashboard_viewed"
	ActionAdminAPIAccessed          Action = "admin_api_accessed"
	ActionImpersonationStarted      Action = "impersonation_started"
	ActionImpersonationStopped      Action = "impersonation_stopped"
	ActionImpersonatedHistoryViewed Action = "impersonated_history_viewed"
)

// Record is one append-only audit entry. Once handed to a Store it is never
// updated or deleted by this service.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	Action     Action         `json:"action"`
	ActorID    string         `json:"user_id"`
	TargetID   string         `json:"target_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"created_at"`
}
