package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"careergate/internal/audit"
	"careergate/internal/generation"
	"careergate/internal/platform/database"
	"careergate/internal/roles"
)

type StoreSuite struct {
	suite.Suite
	pool *database.Pool
	ctx  context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	cfg := database.DefaultConfig()
	cfg.URL = ":memory:"
	pool, err := database.New(s.ctx, cfg)
	s.Require().NoError(err)
	_, err = pool.Migrate(s.ctx)
	s.Require().NoError(err)
	s.pool = pool
}

func (s *StoreSuite) TearDownTest() {
	s.NoError(s.pool.Close())
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestProfiles() {
	profiles := NewProfiles(s.pool.DB())
	id := uuid.NewString()

	_, _, err := profiles.FindRole(s.ctx, id)
	s.ErrorIs(err, roles.ErrNotFound)

	s.Require().NoError(profiles.Upsert(s.ctx, id, roles.RoleUser))
	got, role, err := profiles.FindRole(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, got)
	s.Equal("user", role)

	s.Require().NoError(profiles.Upsert(s.ctx, id, roles.RoleAdmin))
	_, role, err = profiles.FindRole(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("admin", role)

	s.Require().NoError(profiles.Delete(s.ctx, id))
	_, _, err = profiles.FindRole(s.ctx, id)
	s.ErrorIs(err, roles.ErrNotFound)
	s.ErrorIs(profiles.Delete(s.ctx, id), roles.ErrNotFound)
}

func (s *StoreSuite) TestRoleChangeSeenByAdapter() {
	profiles := NewProfiles(s.pool.DB())
	adapter := roles.NewAdapter(profiles)
	id := uuid.NewString()
	s.Require().NoError(profiles.Upsert(s.ctx, id, roles.RoleAdmin))

	s.Equal(roles.RoleAdmin, adapter.Lookup(s.ctx, id).Record.Role)
	s.Require().NoError(profiles.Upsert(s.ctx, id, roles.RoleUser))
	s.Equal(roles.RoleUser, adapter.Lookup(s.ctx, id).Record.Role)
}

func (s *StoreSuite) TestAuditLog() {
	log := NewAuditLog(s.pool.DB())
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	first := audit.Record{ID: uuid.New(), Action: audit.ActionImpersonationStarted, ActorID: "admin", TargetID: "user", Metadata: map[string]any{"request_id": "r1"}, OccurredAt: base}
	second := audit.Record{ID: uuid.New(), Action: audit.ActionImpersonationStopped, ActorID: "admin", OccurredAt: base.Add(time.Minute)}
	s.Require().NoError(log.Append(s.ctx, first))
	s.Require().NoError(log.Append(s.ctx, second))

	recent, err := log.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 2)
	s.Equal(second.ID, recent[0].ID)
	s.Empty(recent[0].TargetID)
	s.Equal(first.ID, recent[1].ID)
	s.Equal("user", recent[1].TargetID)
	s.Equal("r1", recent[1].Metadata["request_id"])
	s.WithinDuration(base, recent[1].OccurredAt, time.Second)

	s.Error(log.Append(s.ctx, first), "ids are unique, records are never overwritten")

	limited, err := log.ListRecent(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *StoreSuite) TestHistory() {
	history := NewHistory(s.pool.DB())
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, owner := range []string{"a", "a", "b"} {
		s.Require().NoError(history.Insert(s.ctx, generation.Entry{
			ID:        uuid.New(),
			OwnerID:   owner,
			Education: "BCA",
			Skills:    "Go",
			Interest:  "infra",
			Response:  owner + string(rune('0'+i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := history.ListByOwner(s.ctx, "a", 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("a1", entries[0].Response)
	s.Equal("a0", entries[1].Response)

	entries, err = history.ListByOwner(s.ctx, "nobody", 10)
	s.Require().NoError(err)
	s.Empty(entries)
}
