package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValues(t *testing.T) {
	ctx := WithOp(WithSessionID(WithPeriod(context.Background(), "3"), "s-1"), "capture")

	p, ok := Period(ctx)
	assert.True(t, ok)
	assert.Equal(t, "3", p)
	s, _ := SessionID(ctx)
	assert.Equal(t, "s-1", s)
	assert.Len(t, Fields(ctx), 3)

	_, ok = Period(context.Background())
	assert.False(t, ok)
	assert.Empty(t, Fields(context.Background()))
}

func TestWithCallTimeoutRespectsParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c2 := WithCallTimeout(parent, time.Hour)
	defer c2()
	dl, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.Less(t, time.Until(dl), time.Second)
}

func TestWithTimeoutZeroHasNoDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)
}
