package websocket

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsechat/internal/models"
	"github.com/pulsechat/internal/presence"
)

func newTestHub(t *testing.T) (*Hub, *presence.Service) {
	t.Helper()
	logger := zerolog.Nop()
	svc := presence.NewService(presence.Config{
		GracePeriod:          30 * time.Millisecond,
		IdleTimeout:          time.Second,
		BotInactivityTimeout: time.Second,
	}, &logger)

	hub := NewHub(svc, &logger)
	svc.Subscribe(hub.PublishStatusChange)
	go hub.Run()

	t.Cleanup(func() {
		hub.Shutdown()
		svc.Shutdown()
	})
	return hub, svc
}

// waitForFrame reads frames until one matches, discarding the rest.
func waitForFrame(t *testing.T, ch chan *models.Frame, frameType, userID string, status models.Status) *models.Frame {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case frame, ok := <-ch:
			if !ok {
				t.Fatal("send channel closed while waiting for frame")
			}
			if frame.Type == frameType && frame.UserID == userID && frame.Status == status {
				return frame
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s frame for %q", frameType, userID)
		}
	}
}

func TestHubRegisterConnectsAndBootstraps(t *testing.T) {
	hub, svc := newTestHub(t)

	client := NewClient(hub, nil, models.Identity{UserID: "alice", DisplayName: "Alice"}, "c1")
	hub.Register <- client

	assert.Eventually(t, func() bool {
		return svc.Status("alice") == models.StatusOnline
	}, time.Second, 5*time.Millisecond)

	// The first frame is the online-user bootstrap.
	select {
	case frame := <-client.Send:
		require.Equal(t, models.FramePresenceState, frame.Type)
		require.Len(t, frame.Users, 1)
		assert.Equal(t, "alice", frame.Users[0].UserID)
	case <-time.After(time.Second):
		t.Fatal("no bootstrap frame received")
	}

	waitForFrame(t, client.Send, models.FrameStatusUpdate, "alice", models.StatusOnline)
}

func TestHubBroadcastsStatusChanges(t *testing.T) {
	hub, _ := newTestHub(t)

	alice := NewClient(hub, nil, models.Identity{UserID: "alice", DisplayName: "Alice"}, "c1")
	bob := NewClient(hub, nil, models.Identity{UserID: "bob", DisplayName: "Bob"}, "c1")
	hub.Register <- alice
	hub.Register <- bob

	// Alice sees Bob come online.
	frame := waitForFrame(t, alice.Send, models.FrameStatusUpdate, "bob", models.StatusOnline)
	assert.Equal(t, "Bob", frame.DisplayName)
}

func TestHubUnregisterFlowsThroughGrace(t *testing.T) {
	hub, svc := newTestHub(t)

	alice := NewClient(hub, nil, models.Identity{UserID: "alice", DisplayName: "Alice"}, "c1")
	bob := NewClient(hub, nil, models.Identity{UserID: "bob", DisplayName: "Bob"}, "c1")
	hub.Register <- alice
	hub.Register <- bob
	waitForFrame(t, alice.Send, models.FrameStatusUpdate, "bob", models.StatusOnline)

	hub.Unregister <- bob

	// Bob stays online until the grace period elapses, then Alice sees the
	// offline broadcast.
	waitForFrame(t, alice.Send, models.FrameStatusUpdate, "bob", models.StatusOffline)
	assert.Equal(t, models.StatusOffline, svc.Status("bob"))
}

func TestHubSecondConnectionNoExtraBroadcast(t *testing.T) {
	hub, svc := newTestHub(t)

	alice := NewClient(hub, nil, models.Identity{UserID: "alice", DisplayName: "Alice"}, "c1")
	observer := NewClient(hub, nil, models.Identity{UserID: "observer", DisplayName: "Observer"}, "c1")
	hub.Register <- observer
	hub.Register <- alice
	waitForFrame(t, observer.Send, models.FrameStatusUpdate, "alice", models.StatusOnline)

	alice2 := NewClient(hub, nil, models.Identity{UserID: "alice", DisplayName: "Alice"}, "c2")
	hub.Register <- alice2

	// Closing the first connection leaves the second one holding alice online.
	hub.Unregister <- alice

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, models.StatusOnline, svc.Status("alice"))

	// No status frame for alice should have been broadcast since the first.
	for {
		select {
		case frame := <-observer.Send:
			if frame.Type == models.FrameStatusUpdate && frame.UserID == "alice" {
				t.Fatalf("unexpected status update for alice: %s", frame.Status)
			}
		default:
			return
		}
	}
}
