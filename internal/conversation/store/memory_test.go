package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"domainagent/internal/conversation"
	"domainagent/internal/turn"
	"domainagent/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemory(
		WithMemoryTTL(time.Hour),
		WithMemoryClock(func() time.Time { return s.now }),
	)
}

func sampleSnapshot(id string) *Snapshot {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return &Snapshot{
		ConversationID: id,
		SessionID:      "abc123",
		Messages: []conversation.Message{
			conversation.NewUserMessage("I need a domain for a bakery", at),
			conversation.NewAssistantMessage("Here are some ideas", at.Add(time.Second)),
		},
		Results: []turn.Result{
			{Domain: "freshbakery.com", Available: false, Signatures: []string{"WHOIS"}},
			{Domain: "bakerylove.com", Available: true},
		},
		UpdatedAt: at,
	}
}

func (s *InMemoryStoreSuite) TestSaveAndGet() {
	s.Run("round trips a snapshot", func() {
		s.Require().NoError(s.store.Save(s.ctx, sampleSnapshot("c1")))

		got, err := s.store.Get(s.ctx, "c1")
		s.Require().NoError(err)
		s.Equal(sampleSnapshot("c1"), got)
	})

	s.Run("returned snapshot is detached from the store", func() {
		got, err := s.store.Get(s.ctx, "c1")
		s.Require().NoError(err)
		got.Messages[0].Content = "changed"
		got.Results = nil

		again, err := s.store.Get(s.ctx, "c1")
		s.Require().NoError(err)
		s.Equal("I need a domain for a bakery", again.Messages[0].Content)
		s.Len(again.Results, 2)
	})

	s.Run("result scores and signatures are not shared", func() {
		snap := sampleSnapshot("deep")
		score := 88.0
		snap.Results[0].Score = &score
		s.Require().NoError(s.store.Save(s.ctx, snap))

		score = 1
		snap.Results[0].Signatures[0] = "DNS"

		got, err := s.store.Get(s.ctx, "deep")
		s.Require().NoError(err)
		s.Require().NotNil(got.Results[0].Score)
		s.Equal(88.0, *got.Results[0].Score)
		s.Equal([]string{"WHOIS"}, got.Results[0].Signatures)

		*got.Results[0].Score = 5
		got.Results[0].Signatures[0] = "SSL"

		again, err := s.store.Get(s.ctx, "deep")
		s.Require().NoError(err)
		s.Equal(88.0, *again.Results[0].Score)
		s.Equal([]string{"WHOIS"}, again.Results[0].Signatures)
	})

	s.Run("save overwrites", func() {
		snap := sampleSnapshot("c1")
		snap.Results = snap.Results[:1]
		s.Require().NoError(s.store.Save(s.ctx, snap))

		got, err := s.store.Get(s.ctx, "c1")
		s.Require().NoError(err)
		s.Len(got.Results, 1)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Get(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestExpiry() {
	s.Require().NoError(s.store.Save(s.ctx, sampleSnapshot("old")))
	s.now = s.now.Add(30 * time.Minute)
	s.Require().NoError(s.store.Save(s.ctx, sampleSnapshot("fresh")))

	s.now = s.now.Add(31 * time.Minute)

	_, err := s.store.Get(s.ctx, "old")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Get(s.ctx, "fresh")
	s.NoError(err)

	removed, err := s.store.DeleteExpired(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, removed)
}

func (s *InMemoryStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, sampleSnapshot("c1")))

	s.NoError(s.store.Delete(s.ctx, "c1"))
	s.ErrorIs(s.store.Delete(s.ctx, "c1"), sentinel.ErrNotFound)
	_, err := s.store.Get(s.ctx, "c1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
