package eventhub_test

import (
	"context"
	"testing"
	"time"

	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/eventhub"
	"resolveit/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

var (
	admin     = auth.Actor{ID: 1, Username: "admin", Role: auth.RoleAdmin}
	officer   = auth.Actor{ID: 2, Username: "officer", Role: auth.RoleOfficer}
	submitter = auth.Actor{ID: 3, Username: "alice", Role: auth.RoleUser}
	stranger  = auth.Actor{ID: 4, Username: "bob", Role: auth.RoleUser}
)

func TestVisible(t *testing.T) {
	public := models.ComplaintEvent{Type: models.EventStatusChanged, ComplaintID: 7, SubmitterID: uintPtr(3)}
	note := public
	note.Internal = true
	anonymous := models.ComplaintEvent{Type: models.EventEscalated, ComplaintID: 8}

	tests := []struct {
		name  string
		actor auth.Actor
		ev    models.ComplaintEvent
		want  bool
	}{
		{"admin sees public", admin, public, true},
		{"officer sees notes", officer, note, true},
		{"submitter sees own", submitter, public, true},
		{"submitter misses notes", submitter, note, false},
		{"stranger misses others", stranger, public, false},
		{"nobody owns anonymous", submitter, anonymous, false},
		{"staff see anonymous", officer, anonymous, true},
		{"anonymous sees nothing", auth.Anonymous(), public, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventhub.Visible(tt.actor, tt.ev))
		})
	}
}

func startHub(t *testing.T, broker eventhub.Broker) *eventhub.ManagerService {
	t.Helper()
	hub := eventhub.NewManagerService(broker)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return hub
}

func receive(t *testing.T, c *MockClient) models.ComplaintEvent {
	t.Helper()
	select {
	case ev := <-c.RecvChannel:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID())
		return models.ComplaintEvent{}
	}
}

func assertNothing(t *testing.T, c *MockClient) {
	t.Helper()
	select {
	case ev := <-c.RecvChannel:
		t.Fatalf("client %s unexpectedly received %s", c.ID(), ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_RegisterUnregister(t *testing.T) {
	hub := startHub(t, nil)
	c := newMockClient("a", officer, 4)

	require.NoError(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.IsClosed())
}

func TestManager_RoutesByAudience(t *testing.T) {
	for name, broker := range map[string]eventhub.Broker{"local": nil, "broker": newFakeBroker()} {
		t.Run(name, func(t *testing.T) {
			hub := startHub(t, broker)
			staff := newMockClient("staff", officer, 4)
			owner := newMockClient("owner", submitter, 4)
			other := newMockClient("other", stranger, 4)
			for _, c := range []*MockClient{staff, owner, other} {
				require.NoError(t, hub.Register(c))
			}
			require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

			ctx := context.Background()
			require.NoError(t, hub.Publish(ctx, models.ComplaintEvent{
				Type: models.EventCommented, ComplaintID: 9, SubmitterID: uintPtr(3), Internal: true,
			}))
			require.NoError(t, hub.Publish(ctx, models.ComplaintEvent{
				Type: models.EventResolved, ComplaintID: 9, SubmitterID: uintPtr(3),
			}))

			assert.Equal(t, models.EventCommented, receive(t, staff).Type)
			assert.Equal(t, models.EventResolved, receive(t, staff).Type)
			assert.Equal(t, models.EventResolved, receive(t, owner).Type, "owner skips the internal note")
			assertNothing(t, other)
		})
	}
}

func TestManager_DropsSlowClient(t *testing.T) {
	hub := startHub(t, nil)
	slow := newMockClient("slow", admin, 0)
	require.NoError(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), models.ComplaintEvent{Type: models.EventEscalated, ComplaintID: 1}))

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, slow.IsClosed())
}

func TestManager_StopClosesClients(t *testing.T) {
	hub := eventhub.NewManagerService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	c := newMockClient("a", admin, 1)
	require.NoError(t, hub.Register(c))
	cancel()
	require.NoError(t, <-done)

	assert.True(t, c.IsClosed())
	assert.Error(t, hub.Register(newMockClient("late", admin, 1)), "registration after stop fails")
	hub.Unregister(c) // must not block
}
