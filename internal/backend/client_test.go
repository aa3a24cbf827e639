package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBody struct {
	Value string `json:"value"`
}

func TestClient_DoJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("encodes request and decodes success response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/echo", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var in echoBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			_ = json.NewEncoder(w).Encode(echoBody{Value: in.Value + "!"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL+"/", nil, time.Second)
		var out echoBody
		err := c.DoJSON(ctx, http.MethodPost, "/echo", echoBody{Value: "hi"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "hi!", out.Value)
		assert.Equal(t, srv.URL, c.BaseURL())
	})

	t.Run("non-success status is a bad_status error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewClient(srv.URL, nil, time.Second).DoJSON(ctx, http.MethodGet, "/x", nil, nil)
		require.Error(t, err)

		var be *Error
		require.True(t, errors.As(err, &be))
		assert.Equal(t, ErrorBadStatus, be.Category)
		assert.Equal(t, http.StatusInternalServerError, be.StatusCode)
		assert.True(t, be.Retryable)
		assert.Contains(t, be.Error(), "boom")
	})

	t.Run("429 is rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		err := NewClient(srv.URL, nil, time.Second).DoJSON(ctx, http.MethodGet, "/x", nil, nil)
		assert.Equal(t, ErrorRateLimited, GetCategory(err))
		assert.True(t, IsRetryable(err))
	})

	t.Run("undecodable body is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		var out echoBody
		err := NewClient(srv.URL, nil, time.Second).DoJSON(ctx, http.MethodGet, "/x", nil, &out)
		assert.Equal(t, ErrorBadData, GetCategory(err))
		assert.False(t, IsRetryable(err))
	})

	t.Run("unreachable backend", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		err := NewClient(url, nil, time.Second).DoJSON(ctx, http.MethodGet, "/x", nil, nil)
		assert.Equal(t, ErrorUnreachable, GetCategory(err))
		assert.True(t, IsTransportError(err))
	})

	t.Run("slow backend times out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		err := NewClient(srv.URL, nil, 50*time.Millisecond).DoJSON(ctx, http.MethodGet, "/x", nil, nil)
		assert.Equal(t, ErrorTimeout, GetCategory(err))
	})
}

func TestGetCategory_NonBackendError(t *testing.T) {
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsTransportError(errors.New("plain")))
}
