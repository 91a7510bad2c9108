package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"absbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method  string
	outcome string
}

type recordingRecorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recordingRecorder) RecordRegistryCall(method, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{method, outcome})
}

func TestWithMetrics(t *testing.T) {
	ctx := context.Background()
	rec := &recordingRecorder{}
	r := WithMetrics(NewMemory(), rec)

	_, err := r.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, r.Set(ctx, 1, 0), ErrInvalidChannel)
	require.NoError(t, r.Set(ctx, 1, 42))

	got, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelID(42), got)

	bindings, err := r.(Lister).List(ctx)
	require.NoError(t, err)
	assert.Len(t, bindings, 1)

	assert.Equal(t, []call{
		{"get", OutcomeNotFound},
		{"set", OutcomeInvalid},
		{"set", OutcomeOK},
		{"get", OutcomeOK},
		{"list", OutcomeOK},
	}, rec.calls)
}

func TestWithMetrics_NilRecorder(t *testing.T) {
	m := NewMemory()
	assert.Same(t, m, WithMetrics(m, nil))
}
