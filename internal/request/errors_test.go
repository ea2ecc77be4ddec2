package request

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/organizer/internal/item"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, NoError},
		{"request error", Errorf(DoesNotExist, "item %q", "x"), DoesNotExist},
		{"wrapped request error", fmt.Errorf("save: %w", ErrPermissionDenied), PermissionDenied},
		{"context canceled", context.Canceled, CodeCanceled},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), Timeout},
		{"invalid item", fmt.Errorf("%w: bad", item.ErrInvalid), InvalidArgument},
		{"other", errors.New("boom"), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestError_IsMatchesCode(t *testing.T) {
	err := Wrap(BackendUnavailable, errors.New("disk gone"), "open store")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.NotErrorIs(t, err, ErrUnknown)
	assert.Equal(t, "backend_unavailable: open store: disk gone", err.Error())
	assert.Nil(t, Wrap(Unknown, nil, "x"))
}

func TestStateAndKindStrings(t *testing.T) {
	assert.Equal(t, "finished_with_error", FinishedWithError.String())
	assert.True(t, Canceled.IsTerminal())
	assert.False(t, Active.IsTerminal())
	assert.Equal(t, "item_occurrence_fetch", ItemOccurrenceFetch.String())
}

func TestNotifyQueue(t *testing.T) {
	q := newNotifyQueue()
	assert.True(t, q.Enqueue(Notification{Seq: 1}))
	assert.True(t, q.Enqueue(Notification{Seq: 2}))
	assert.Equal(t, 2, q.Len())

	n, ok, done := q.TryDequeue()
	assert.True(t, ok)
	assert.False(t, done)
	assert.Equal(t, int64(1), n.Seq)

	q.Close()
	assert.False(t, q.Enqueue(Notification{Seq: 3}))
	n, ok, _ = q.TryDequeue()
	assert.True(t, ok)
	assert.Equal(t, int64(2), n.Seq)
	_, ok, done = q.TryDequeue()
	assert.False(t, ok)
	assert.True(t, done)
	q.Close()
}

func TestClock(t *testing.T) {
	var c Clock
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}
