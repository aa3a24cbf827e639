package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StateSuite struct {
	suite.Suite
	state *State
	t0    time.Time
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.state = New()
	s.t0 = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
}

func (s *StateSuite) TestAppendMessage() {
	s.Run("appends in insertion order", func() {
		s.state.AppendMessage(NewUserMessage("I need a domain for a bakery", s.t0))
		s.state.AppendMessage(NewAssistantMessage("Here are some ideas", s.t0.Add(time.Second)))

		transcript := s.state.Transcript()
		s.Require().Len(transcript, 2)
		s.Equal(RoleUser, transcript[0].Role)
		s.Equal("I need a domain for a bakery", transcript[0].Content)
		s.Equal(RoleAssistant, transcript[1].Role)
		s.Equal(2, s.state.Len())
	})

	s.Run("keeps insertion order even when timestamps go backwards", func() {
		st := New()
		st.AppendMessage(NewUserMessage("first", s.t0.Add(time.Minute)))
		st.AppendMessage(NewAssistantMessage("second", s.t0))

		transcript := st.Transcript()
		s.Equal("first", transcript[0].Content)
		s.Equal("second", transcript[1].Content)
	})

	s.Run("transcript is a copy", func() {
		st := New()
		st.AppendMessage(NewUserMessage("hello", s.t0))
		transcript := st.Transcript()
		transcript[0].Content = "mutated"
		s.Equal("hello", st.Transcript()[0].Content)
	})
}

func (s *StateSuite) TestSetSessionIfUnset() {
	s.Run("empty at start", func() {
		s.Empty(s.state.SessionID())
	})

	s.Run("empty id never assigns", func() {
		s.False(s.state.SetSessionIfUnset(""))
		s.Empty(s.state.SessionID())
	})

	s.Run("first non-empty id wins and is stable", func() {
		s.True(s.state.SetSessionIfUnset("abc123"))
		for i := range 10 {
			s.False(s.state.SetSessionIfUnset(fmt.Sprintf("other-%d", i)))
		}
		s.False(s.state.SetSessionIfUnset(""))
		s.Equal("abc123", s.state.SessionID())
	})
}

func TestRestore(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	messages := []Message{NewAssistantMessage("Hello!", at)}

	st := Restore("abc123", messages)
	messages[0].Content = "changed"

	assert.Equal(t, "abc123", st.SessionID())
	require.Equal(t, 1, st.Len())
	assert.Equal(t, "Hello!", st.Transcript()[0].Content)
	assert.False(t, st.SetSessionIfUnset("other"))
}

func TestState_ConcurrentReaders(t *testing.T) {
	st := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 100 {
			st.AppendMessage(NewUserMessage(fmt.Sprintf("m%d", i), time.Now()))
		}
	}()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = st.Transcript()
				_ = st.SessionID()
			}
		}()
	}
	wg.Wait()

	transcript := st.Transcript()
	require.Len(t, transcript, 100)
	for i, m := range transcript {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Content)
	}
}
