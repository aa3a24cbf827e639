package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	t.Run("zero values when unset", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ConversationID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
		_, pinned := RequestTime(ctx)
		assert.False(t, pinned)
	})

	t.Run("round trips injected values", func(t *testing.T) {
		fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		ctx := WithRequestID(context.Background(), "req-42")
		ctx = WithConversationID(ctx, "conv-7")
		ctx = WithTime(ctx, fixed)

		assert.Equal(t, "req-42", RequestID(ctx))
		assert.Equal(t, "conv-7", ConversationID(ctx))
		assert.Equal(t, fixed, Now(ctx))
		got, pinned := RequestTime(ctx)
		assert.True(t, pinned)
		assert.Equal(t, fixed, got)
	})
}
