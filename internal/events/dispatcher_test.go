package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var got []Event
	d.Subscribe(EventMemberInvited, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventImpersonationStarted, func(context.Context, Event) error {
		t.Fatal("wrong type delivered")
		return nil
	})

	ev := New(EventMemberInvited, "t1", "u1", time.Now(), MemberInvitedPayload{UserID: "u2"})
	require.NoError(t, d.Publish(context.Background(), ev))
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
	assert.NotEmpty(t, ev.ID)
}

func TestFailingSubscribersDoNotReachPublisher(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	calls := 0
	d.Subscribe(EventSubscriptionStatusChanged, func(context.Context, Event) error {
		calls++
		return errors.New("smtp down")
	})
	d.Subscribe(EventSubscriptionStatusChanged, func(context.Context, Event) error {
		calls++
		panic("bad template")
	})
	d.Subscribe(EventSubscriptionStatusChanged, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), New(EventSubscriptionStatusChanged, "t1", "", time.Now(), nil))
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
