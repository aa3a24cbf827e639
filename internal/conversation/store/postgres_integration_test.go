//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"domainagent/internal/conversation/store"
	"domainagent/pkg/platform/sentinel"
	"domainagent/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	now      time.Time
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.now = time.Now().UTC()
	s.store = store.NewPostgres(s.postgres.DB,
		store.WithPostgresTTL(time.Hour),
		store.WithPostgresClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Now().UTC()
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "conversation_snapshots"))
}

func (s *PostgresStoreSuite) TestSaveIsUpsert() {
	ctx := context.Background()
	snap := makeSnapshot()
	s.Require().NoError(s.store.Save(ctx, snap))

	snap.SessionID = "ignored-by-nobody"
	snap.Results = nil
	s.Require().NoError(s.store.Save(ctx, snap))

	got, err := s.store.Get(ctx, snap.ConversationID)
	s.Require().NoError(err)
	s.Equal("ignored-by-nobody", got.SessionID)
	s.Empty(got.Results)
	s.Len(got.Messages, 2)
}

func (s *PostgresStoreSuite) TestExpiry() {
	ctx := context.Background()
	snap := makeSnapshot()
	s.Require().NoError(s.store.Save(ctx, snap))

	s.now = s.now.Add(2 * time.Hour)

	_, err := s.store.Get(ctx, snap.ConversationID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	removed, err := s.store.DeleteExpired(ctx)
	s.Require().NoError(err)
	s.EqualValues(1, removed)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	snap := makeSnapshot()
	s.Require().NoError(s.store.Save(ctx, snap))

	s.NoError(s.store.Delete(ctx, snap.ConversationID))
	s.ErrorIs(s.store.Delete(ctx, snap.ConversationID), sentinel.ErrNotFound)
	_, err := s.store.Get(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
