package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"careergate/internal/audit"
	"careergate/internal/generation"
	"careergate/internal/platform/config"
	"careergate/internal/roles"
	dErrors "careergate/pkg/domain-errors"
)

// ServiceClient performs privileged server-side calls with the service key.
type ServiceClient struct {
	rest rest
}

type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	client  HTTPDoer
	timeout time.Duration
}

func WithServiceHTTPClient(c HTTPDoer) ServiceOption {
	return func(cfg *serviceConfig) { cfg.client = c }
}

func WithServiceTimeout(d time.Duration) ServiceOption {
	return func(cfg *serviceConfig) { cfg.timeout = d }
}

func NewServiceClient(baseURL string, key config.ServiceKey, opts ...ServiceOption) *ServiceClient {
	var cfg serviceConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ServiceClient{rest: newRest(baseURL, string(key), cfg.client, cfg.timeout)}
}

type profileRow struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// FindRole reads one profile row. It implements roles.Store.
func (c *ServiceClient) FindRole(ctx context.Context, subjectID string) (string, string, error) {
	var rows []profileRow
	err := c.rest.do(ctx, call{
		method: http.MethodGet,
		path:   "/rest/v1/profiles",
		query:  url.Values{"id": {"eq." + subjectID}, "select": {"id,role"}},
	}, &rows)
	if err != nil {
		return "", "", asUnavailable(err, "read profile")
	}
	switch len(rows) {
	case 0:
		return "", "", roles.ErrNotFound
	case 1:
		return rows[0].ID, rows[0].Role, nil
	default:
		return "", "", dErrors.New(dErrors.CodeInternal, "more than one profile for subject")
	}
}

type auditRow struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"user_id"`
	TargetID  *string        `json:"target_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Append inserts one admin_audit row. It implements audit.Store.
func (c *ServiceClient) Append(ctx context.Context, rec audit.Record) error {
	row := auditRow{
		ID:        rec.ID,
		Action:    string(rec.Action),
		UserID:    rec.ActorID,
		Metadata:  rec.Metadata,
		CreatedAt: rec.OccurredAt.UTC(),
	}
	if rec.TargetID != "" {
		row.TargetID = &rec.TargetID
	}
	err := c.rest.do(ctx, call{
		method: http.MethodPost,
		path:   "/rest/v1/admin_audit",
		body:   row,
		prefer: "return=minimal",
	}, nil)
	return asUnavailable(err, "append audit record")
}

// ListRecent reads the newest admin_audit rows. It implements audit.Lister.
func (c *ServiceClient) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	var rows []auditRow
	err := c.rest.do(ctx, call{
		method: http.MethodGet,
		path:   "/rest/v1/admin_audit",
		query: url.Values{
			"select": {"id,action,user_id,target_id,metadata,created_at"},
			"order":  {"created_at.desc"},
			"limit":  {strconv.Itoa(limit)},
		},
	}, &rows)
	if err != nil {
		return nil, asUnavailable(err, "list audit records")
	}
	out := make([]audit.Record, 0, len(rows))
	for _, row := range rows {
		rec := audit.Record{
			ID:         row.ID,
			Action:     audit.Action(row.Action),
			ActorID:    row.UserID,
			Metadata:   row.Metadata,
			OccurredAt: row.CreatedAt,
		}
		if row.TargetID != nil {
			rec.TargetID = *row.TargetID
		}
		out = append(out, rec)
	}
	return out, nil
}

type requestRow struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	Education  string    `json:"education"`
	Skills     string    `json:"skills"`
	Interest   string    `json:"interest"`
	AIResponse string    `json:"ai_response"`
	CreatedAt  time.Time `json:"created_at"`
}

// Insert stores one user_requests row. It implements generation.HistoryStore.
func (c *ServiceClient) Insert(ctx context.Context, e generation.Entry) error {
	err := c.rest.do(ctx, call{
		method: http.MethodPost,
		path:   "/rest/v1/user_requests",
		body: requestRow{
			ID:         e.ID,
			UserID:     e.OwnerID,
			Education:  e.Education,
			Skills:     e.Skills,
			Interest:   e.Interest,
			AIResponse: e.Response,
			CreatedAt:  e.CreatedAt.UTC(),
		},
		prefer: "return=minimal",
	}, nil)
	return asUnavailable(err, "insert user request")
}

// ListByOwner reads one owner's user_requests, newest first.
func (c *ServiceClient) ListByOwner(ctx context.Context, ownerID string, limit int) ([]generation.Entry, error) {
	q := url.Values{
		"user_id": {"eq." + ownerID},
		"order":   {"created_at.desc"},
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var rows []requestRow
	if err := c.rest.do(ctx, call{method: http.MethodGet, path: "/rest/v1/user_requests", query: q}, &rows); err != nil {
		return nil, asUnavailable(err, "list user requests")
	}
	out := make([]generation.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, generation.Entry{
			ID:        row.ID,
			OwnerID:   row.UserID,
			Education: row.Education,
			Skills:    row.Skills,
			Interest:  row.Interest,
			Response:  row.AIResponse,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// asUnavailable classifies leftover non-2xx responses. The service key
// should never be rejected, so a 4xx here is a misconfiguration or outage,
// not a caller error.
func asUnavailable(err error, msg string) error {
	if err == nil {
		return nil
	}
	if statusOf(err) != 0 {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
	return err
}
