package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")
	d.Subscribe(EventSubscriptionDeleted, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.SubscriptionID)
		return boom
	})
	d.Subscribe(EventSubscriptionDeleted, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.SubscriptionID)
		return nil
	})
	d.Subscribe(EventSubscriptionCreated, func(context.Context, Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), New(EventSubscriptionDeleted, "sub-1", "c1", "u1", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:sub-1", "second:sub-1"}, calls)
}

func TestPublishWithoutHandlers(t *testing.T) {
	t.Parallel()

	ev := New(EventSubscriptionUpdated, "sub-1", "c1", "u1", SubscriptionDeletedPayload{})
	assert.NotEmpty(t, ev.ID)
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), ev))
}
