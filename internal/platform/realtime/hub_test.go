package realtime

import (
	"context"
	"encoding/json"
	"testing"
)

func newClient(userID string, topics ...string) *Client {
	return &Client{
		ID:     "c-" + userID,
		UserID: userID,
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func receive(t *testing.T, c *Client) *Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return &ev
	default:
		return nil
	}
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	c := newClient("u1", MessagesTopic("u1"))
	hub.Register(c)

	ev, err := NewEvent("message.created", MessagesTopic("u1"), map[string]string{"content": "salut"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := hub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := receive(t, c)
	if got == nil || got.Type != "message.created" {
		t.Fatalf("expected message.created event, got %+v", got)
	}
}

func TestHub_EventDoesNotLeakToOtherConversations(t *testing.T) {
	hub := NewHub()
	open := newClient("u1", MessagesTopic("u1"))
	unrelated := newClient("u2", MessagesTopic("u2"))
	hub.Register(open)
	hub.Register(unrelated)

	ev, _ := NewEvent("message.created", MessagesTopic("u1"), map[string]string{"content": "bonjour"})
	hub.Broadcast(ev.Topic, ev)

	if got := receive(t, open); got == nil {
		t.Error("expected the open conversation to receive the event")
	}
	if got := receive(t, unrelated); got != nil {
		t.Errorf("unrelated conversation must not receive the event, got %+v", got)
	}
}

func TestHub_RejectsForeignPrivateTopics(t *testing.T) {
	hub := NewHub()
	c := newClient("u1", MessagesTopic("u2"), MessagesTopic("u1"))
	hub.Register(c)

	if hub.TopicCount(MessagesTopic("u2")) != 0 {
		t.Error("client must not be subscribed to another user's topic")
	}
	if hub.TopicCount(MessagesTopic("u1")) != 1 {
		t.Error("client should keep its own topic")
	}

	hub.Subscribe(c, []string{AuthTopic("u2")})
	if hub.TopicCount(AuthTopic("u2")) != 0 {
		t.Error("dynamic subscribe must also enforce topic ownership")
	}
}

func TestHub_UnregisterRemovesSubscriptions(t *testing.T) {
	hub := NewHub()
	c := newClient("u1", MessagesTopic("u1"))
	hub.Register(c)
	hub.Unregister(c)

	if hub.ClientCount() != 0 {
		t.Error("expected no clients after unregister")
	}
	if hub.TopicCount(MessagesTopic("u1")) != 0 {
		t.Error("expected topic cleaned up after unregister")
	}

	// Double unregister must not panic or double-close.
	hub.Unregister(c)
}

func TestHub_ProcessMessageSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	c := newClient("u1")
	hub.Register(c)

	hub.ProcessMessage(c, ClientMessage{Action: "subscribe", Topics: []string{"announcements"}})
	if hub.TopicCount("announcements") != 1 {
		t.Error("expected subscription to public topic")
	}

	hub.ProcessMessage(c, ClientMessage{Action: "unsubscribe", Topics: []string{"announcements"}})
	if hub.TopicCount("announcements") != 0 {
		t.Error("expected unsubscription from public topic")
	}
}

func TestHub_FullBufferSkipsClient(t *testing.T) {
	hub := NewHub()
	c := &Client{ID: "c", UserID: "u1", Topics: []string{"announcements"}, Send: make(chan []byte)}
	hub.Register(c)

	ev, _ := NewEvent("noop", "announcements", nil)
	// Unbuffered channel with no reader: must not block.
	hub.Broadcast("announcements", ev)
}
