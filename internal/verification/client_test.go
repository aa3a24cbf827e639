package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainagent/internal/backend"
)

func TestClient_CheckDomains(t *testing.T) {
	ctx := context.Background()

	t.Run("sends one batched request and decodes results", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			assert.Equal(t, "/api/domains/check", r.URL.Path)
			var req CheckRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"freshbakery.com", "bakerylove.com", "freshbakery.com"}, req.Domains)
			_, _ = w.Write([]byte(`{"results":[
				{"domain":"bakerylove.com","available":true,"signatures":[],"score":87.5,"price":"$12"},
				{"domain":"freshbakery.com","available":false,"signatures":["WHOIS"]}
			],"total":2}`))
		}))
		defer srv.Close()

		results, err := New(srv.URL+"/api").CheckDomains(ctx, []string{"freshbakery.com", "bakerylove.com", "freshbakery.com"})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		require.Len(t, results, 2)

		assert.Equal(t, "bakerylove.com", results[0].Domain)
		assert.True(t, results[0].Available)
		require.NotNil(t, results[0].Score)
		assert.InDelta(t, 87.5, *results[0].Score, 0.001)
		assert.Equal(t, "$12", results[0].Price)

		assert.Equal(t, "freshbakery.com", results[1].Domain)
		assert.False(t, results[1].Available)
		assert.Equal(t, []string{"WHOIS"}, results[1].Signatures)
		assert.Nil(t, results[1].Score)
	})

	t.Run("non-success status is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := New(srv.URL).CheckDomains(ctx, []string{"a.com"})
		require.Error(t, err)
		assert.True(t, backend.IsTransportError(err))
	})
}

func TestClient_SuggestDomains(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domains/suggest", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"bakery", "bread"}, body["keywords"])
		assert.Equal(t, []any{"com", "io"}, body["tlds"])
		assert.EqualValues(t, 12, body["max_len"])
		assert.NotContains(t, body, "min_len")
		_, _ = w.Write([]byte(`{"suggestions":[{"domain":"breadly.io","score":91,"reason":"short","length":10,"memorability":0.8}],"count":1}`))
	}))
	defer srv.Close()

	suggestions, err := New(srv.URL).SuggestDomains(context.Background(), SuggestRequest{
		Keywords: []string{" bakery", "bread", "bakery ", ""},
		TLDs:     []string{"COM", "io", "com"},
		MaxLen:   12,
	})
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "breadly.io", suggestions[0].Domain)
	assert.Equal(t, 10, suggestions[0].Length)
}
