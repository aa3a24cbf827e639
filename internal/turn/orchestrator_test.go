package turn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"domainagent/internal/backend"
	"domainagent/internal/chat"
	"domainagent/internal/conversation"
	"domainagent/internal/turn/metrics"
	"domainagent/internal/turn/mocks"
	"domainagent/internal/verification"
)

//go:generate mockgen -source=orchestrator.go -destination=mocks/mocks.go -package=mocks ChatClient,Verifier

type OrchestratorSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	chat     *mocks.MockChatClient
	verifier *mocks.MockVerifier
	metrics  *metrics.Metrics
	orch     *Orchestrator
	emitted  [][]Result
	now      time.Time
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.chat = mocks.NewMockChatClient(s.ctrl)
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.emitted = nil
	s.now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s.orch = s.newOrchestrator()
}

func (s *OrchestratorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *OrchestratorSuite) newOrchestrator(opts ...Option) *Orchestrator {
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
		WithResultsListener(func(_ context.Context, results []Result) {
			s.emitted = append(s.emitted, results)
		}),
	}
	orch, err := New(s.chat, s.verifier, append(base, opts...)...)
	s.Require().NoError(err)
	return orch
}

func bakeryReply(sessionID string, payload *chat.Payload) *chat.Response {
	return &chat.Response{
		SessionID: sessionID,
		Message:   "Here are some ideas for your bakery",
		Intent:    "suggest_domains",
		Action:    "check_domains",
		Payload:   payload,
		Timestamp: "2026-10-15T09:00:01Z",
	}
}

func bakeryDomains() *chat.Payload {
	return &chat.Payload{Domains: []string{"freshbakery.com", "bakerylove.com"}}
}

func (s *OrchestratorSuite) TestNew() {
	s.Run("requires a chat client", func() {
		_, err := New(nil, s.verifier)
		s.Error(err)
	})
	s.Run("requires a verifier", func() {
		_, err := New(s.chat, nil)
		s.Error(err)
	})
	s.Run("starts idle with an empty conversation", func() {
		s.Equal(StateIdle, s.orch.State())
		s.Empty(s.orch.Transcript())
		s.Empty(s.orch.SessionID())
		s.Empty(s.orch.Results())
	})
}

func (s *OrchestratorSuite) TestSend_RejectsBlankInput() {
	for _, text := range []string{"", " ", "\t\n  "} {
		out := s.orch.Send(s.ctx, text)
		s.Equal(OutcomeRejected, out.Kind)
		s.False(out.Emitted)
	}
	s.Empty(s.orch.Transcript())
	s.Equal(StateIdle, s.orch.State())
	s.InDelta(3, testutil.ToFloat64(s.metrics.Rejected.WithLabelValues("blank")), 0)
}

// Scenario: bakery candidates verified.
func (s *OrchestratorSuite) TestSend_VerifiedCandidates() {
	s.chat.EXPECT().SendTurn(gomock.Any(), "I need a domain for a bakery", "").
		Return(bakeryReply("abc123", bakeryDomains()), nil)
	s.verifier.EXPECT().CheckDomains(gomock.Any(), []string{"freshbakery.com", "bakerylove.com"}).
		Return([]verification.Result{
			{Domain: "freshbakery.com", Available: false, Signatures: []string{"WHOIS"}},
			{Domain: "bakerylove.com", Available: true, Signatures: []string{}},
		}, nil)

	out := s.orch.Send(s.ctx, "I need a domain for a bakery")

	s.Equal(OutcomeVerified, out.Kind)
	s.Require().True(out.Emitted)
	s.Require().Len(out.Results, 2)
	s.Equal("freshbakery.com", out.Results[0].Domain)
	s.False(out.Results[0].Available)
	s.Equal([]string{"WHOIS"}, out.Results[0].Signatures)
	s.Empty(out.Results[0].Reason)
	s.False(out.Results[0].Placeholder)
	s.Equal("bakerylove.com", out.Results[1].Domain)
	s.True(out.Results[1].Available)
	s.Empty(out.Results[1].Reason)

	s.Equal(out.Results, s.orch.Results())
	s.Require().Len(s.emitted, 1)
	s.Equal(StateIdle, s.orch.State())
	s.Equal("abc123", s.orch.SessionID())

	transcript := s.orch.Transcript()
	s.Require().Len(transcript, 2)
	s.Equal(conversation.RoleUser, transcript[0].Role)
	s.Equal("I need a domain for a bakery", transcript[0].Content)
	s.Equal(s.now, transcript[0].Timestamp)
	s.Equal(conversation.RoleAssistant, transcript[1].Role)
	s.Equal("Here are some ideas for your bakery", transcript[1].Content)
	s.Equal(time.Date(2026, 10, 15, 9, 0, 1, 0, time.UTC), transcript[1].Timestamp.UTC())
	s.InDelta(1, testutil.ToFloat64(s.metrics.TurnOutcome.WithLabelValues("verified")), 0)
}

// Scenario: verification down, placeholder rows per candidate.
func (s *OrchestratorSuite) TestSend_VerificationUnavailable() {
	s.Run("one placeholder row per candidate in order", func() {
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(bakeryReply("abc123", bakeryDomains()), nil)
		s.verifier.EXPECT().CheckDomains(gomock.Any(), gomock.Any()).
			Return(nil, backend.NewError(backend.ErrorUnreachable, "/domains/check", "connection refused", nil))

		out := s.orch.Send(s.ctx, "I need a domain for a bakery")

		s.Equal(OutcomeVerificationUnavailable, out.Kind)
		s.Require().True(out.Emitted)
		s.Require().Len(out.Results, 2)
		s.Equal("freshbakery.com", out.Results[0].Domain)
		s.Equal("bakerylove.com", out.Results[1].Domain)
		for _, r := range out.Results {
			s.True(r.Placeholder)
			s.Nil(r.Signatures)
			s.Require().NotNil(r.Score)
			s.GreaterOrEqual(*r.Score, 0.0)
			s.Less(*r.Score, 100.0)
			s.Equal(math.Trunc(*r.Score), *r.Score)
		}
		s.Len(s.orch.Transcript(), 2)
		s.Equal(StateIdle, s.orch.State())
	})

	s.Run("keeps duplicates and propagates reasons", func() {
		orch := s.newOrchestrator(WithPlaceholderPolicy(FixedPlaceholders(true, 42)))
		payload := &chat.Payload{
			Domains: []string{"crumb.io", "crumb.io", "loaf.dev"},
			DomainReasons: []chat.DomainReason{
				{Domain: "crumb.io", Reason: "short and sweet"},
				{Domain: "crumb.io", Reason: "ignored second reason"},
			},
		}
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).Return(bakeryReply("abc123", payload), nil)
		s.verifier.EXPECT().CheckDomains(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		out := orch.Send(s.ctx, "bread names")

		s.Require().Len(out.Results, 3)
		s.Equal([]string{"crumb.io", "crumb.io", "loaf.dev"}, domainsOf(out.Results))
		s.Equal("short and sweet", out.Results[0].Reason)
		s.Equal("short and sweet", out.Results[1].Reason)
		s.Empty(out.Results[2].Reason)
		s.True(out.Results[2].Available)
		s.InDelta(42, *out.Results[2].Score, 0)
	})

	s.Run("a panicking verifier degrades the same way", func() {
		orch := s.newOrchestrator()
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(bakeryReply("abc123", bakeryDomains()), nil)
		s.verifier.EXPECT().CheckDomains(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, []string) ([]verification.Result, error) {
				panic("verifier bug")
			})

		out := orch.Send(s.ctx, "bakery")

		s.Equal(OutcomeVerificationUnavailable, out.Kind)
		s.Len(out.Results, 2)
		s.Len(orch.Transcript(), 2)
		s.Equal(StateIdle, orch.State())
	})
}

// Scenario: a reply without data leaves prior results in place.
func (s *OrchestratorSuite) TestSend_NoCandidatesKeepsPriorResults() {
	s.chat.EXPECT().SendTurn(gomock.Any(), "bakery", "").Return(bakeryReply("abc123", bakeryDomains()), nil)
	s.verifier.EXPECT().CheckDomains(gomock.Any(), gomock.Any()).Return([]verification.Result{
		{Domain: "freshbakery.com", Available: true, Signatures: []string{}},
		{Domain: "bakerylove.com", Available: true, Signatures: []string{}},
	}, nil)
	first := s.orch.Send(s.ctx, "bakery")
	s.Require().Equal(OutcomeVerified, first.Kind)

	s.Run("absent payload", func() {
		s.chat.EXPECT().SendTurn(gomock.Any(), "thanks", "abc123").Return(bakeryReply("abc123", nil), nil)

		out := s.orch.Send(s.ctx, "thanks")

		s.Equal(OutcomeReplied, out.Kind)
		s.False(out.Emitted)
		s.Equal(first.Results, s.orch.Results())
		s.Len(s.orch.Transcript(), 4)
	})

	s.Run("empty domain list", func() {
		s.chat.EXPECT().SendTurn(gomock.Any(), "ok", "abc123").
			Return(bakeryReply("abc123", &chat.Payload{Domains: []string{}}), nil)

		out := s.orch.Send(s.ctx, "ok")

		s.Equal(OutcomeReplied, out.Kind)
		s.Equal(first.Results, s.orch.Results())
		s.Len(s.emitted, 1)
	})
}

// Scenario: the first session id sticks.
func (s *OrchestratorSuite) TestSend_SessionContinuity() {
	gomock.InOrder(
		s.chat.EXPECT().SendTurn(gomock.Any(), "hello", "").Return(bakeryReply("abc123", nil), nil),
		s.chat.EXPECT().SendTurn(gomock.Any(), "again", "abc123").Return(bakeryReply("zzz999", nil), nil),
		s.chat.EXPECT().SendTurn(gomock.Any(), "third", "abc123").Return(bakeryReply("", nil), nil),
	)

	s.orch.Send(s.ctx, "hello")
	s.orch.Send(s.ctx, "again")
	s.orch.Send(s.ctx, "third")

	s.Equal("abc123", s.orch.SessionID())
	s.Len(s.orch.Transcript(), 6)
}

func (s *OrchestratorSuite) TestSend_ChatFailure() {
	s.Run("transport error appends the fixed message", func() {
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, backend.NewError(backend.ErrorTimeout, "/agent/chat", "deadline exceeded", context.DeadlineExceeded))

		out := s.orch.Send(s.ctx, "hello")

		s.Equal(OutcomeChatFailed, out.Kind)
		s.False(out.Emitted)
		transcript := s.orch.Transcript()
		s.Require().Len(transcript, 2)
		s.Equal(conversation.RoleAssistant, transcript[1].Role)
		s.Equal(DefaultFailureMessage, transcript[1].Content)
		s.Equal(StateIdle, s.orch.State())
		s.Empty(s.emitted)
	})

	s.Run("unparsable timestamp fails the turn after the session is set", func() {
		orch := s.newOrchestrator(WithFailureMessage("Something broke"))
		reply := bakeryReply("abc123", bakeryDomains())
		reply.Timestamp = "yesterday"
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).Return(reply, nil)

		out := orch.Send(s.ctx, "hello")

		s.Equal(OutcomeChatFailed, out.Kind)
		s.Equal("abc123", orch.SessionID())
		transcript := orch.Transcript()
		s.Require().Len(transcript, 2)
		s.Equal("Something broke", transcript[1].Content)
		s.Empty(orch.Results())
	})

	s.Run("nil response counts as failure", func() {
		orch := s.newOrchestrator()
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		out := orch.Send(s.ctx, "hello")

		s.Equal(OutcomeChatFailed, out.Kind)
		s.Len(orch.Transcript(), 2)
	})

	s.Run("panicking chat client is contained", func() {
		orch := s.newOrchestrator()
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, string, string) (*chat.Response, error) {
				panic("chat bug")
			})

		var out Outcome
		s.NotPanics(func() { out = orch.Send(s.ctx, "hello") })

		s.Equal(OutcomeChatFailed, out.Kind)
		s.Len(orch.Transcript(), 2)
		s.Equal(StateIdle, orch.State())
	})

	s.Run("conversation stays usable", func() {
		orch := s.newOrchestrator()
		gomock.InOrder(
			s.chat.EXPECT().SendTurn(gomock.Any(), "one", "").Return(nil, errors.New("down")),
			s.chat.EXPECT().SendTurn(gomock.Any(), "two", "").Return(bakeryReply("abc123", nil), nil),
		)

		orch.Send(s.ctx, "one")
		out := orch.Send(s.ctx, "two")

		s.Equal(OutcomeReplied, out.Kind)
		s.Len(orch.Transcript(), 4)
	})
}

func (s *OrchestratorSuite) TestSend_RejectsWhileInFlight() {
	release := make(chan struct{})
	entered := make(chan struct{})
	s.chat.EXPECT().SendTurn(gomock.Any(), "first", "").
		DoAndReturn(func(context.Context, string, string) (*chat.Response, error) {
			close(entered)
			<-release
			return bakeryReply("abc123", nil), nil
		}).Times(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.orch.Send(s.ctx, "first")
	}()
	<-entered

	s.Equal(StateSending, s.orch.State())
	before := s.orch.Transcript()
	out := s.orch.Send(s.ctx, "second")
	s.Equal(OutcomeRejected, out.Kind)
	s.Equal(before, s.orch.Transcript())

	close(release)
	wg.Wait()

	s.Equal(StateIdle, s.orch.State())
	s.Len(s.orch.Transcript(), 2)
	s.InDelta(1, testutil.ToFloat64(s.metrics.Rejected.WithLabelValues("busy")), 0)
}

func (s *OrchestratorSuite) TestSend_AwaitingVerificationState() {
	var observed State
	s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(bakeryReply("abc123", bakeryDomains()), nil)
	s.verifier.EXPECT().CheckDomains(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []string) ([]verification.Result, error) {
			observed = s.orch.State()
			// The assistant reply is already in the transcript.
			s.Len(s.orch.Transcript(), 2)
			return nil, nil
		})

	out := s.orch.Send(s.ctx, "bakery")

	s.Equal(StateAwaitingVerification, observed)
	s.Equal(OutcomeVerified, out.Kind)
	s.True(out.Emitted)
	s.Empty(out.Results)
}

func (s *OrchestratorSuite) TestSend_ReplacesPreviousResults() {
	gomock.InOrder(
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(bakeryReply("abc123", bakeryDomains()), nil),
		s.chat.EXPECT().SendTurn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(bakeryReply("abc123", &chat.Payload{Domains: []string{"rye.shop"}}), nil),
	)
	gomock.InOrder(
		s.verifier.EXPECT().CheckDomains(gomock.Any(), gomock.Any()).Return([]verification.Result{
			{Domain: "freshbakery.com", Available: true},
			{Domain: "bakerylove.com", Available: true},
		}, nil),
		s.verifier.EXPECT().CheckDomains(gomock.Any(), []string{"rye.shop"}).Return([]verification.Result{
			{Domain: "rye.shop", Available: false, Signatures: []string{"DNS"}},
		}, nil),
	)

	s.orch.Send(s.ctx, "bakery")
	s.orch.Send(s.ctx, "something shorter")

	results := s.orch.Results()
	s.Require().Len(results, 1)
	s.Equal("rye.shop", results[0].Domain)
	s.Len(s.emitted, 2)
}

func (s *OrchestratorSuite) TestSend_ResumesRestoredConversation() {
	at := s.now.Add(-time.Hour)
	conv := conversation.Restore("abc123", []conversation.Message{
		conversation.NewUserMessage("bakery", at),
		conversation.NewAssistantMessage("ideas", at),
	})
	prior := []Result{{Domain: "freshbakery.com", Available: true}}
	orch := s.newOrchestrator(WithConversation(conv), WithResults(prior))

	s.chat.EXPECT().SendTurn(gomock.Any(), "more", "abc123").Return(bakeryReply("abc123", nil), nil)

	orch.Send(s.ctx, "more")

	s.Len(orch.Transcript(), 4)
	s.Equal(prior, orch.Results())
}

func domainsOf(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Domain)
	}
	return out
}
