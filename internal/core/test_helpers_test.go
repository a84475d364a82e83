package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelsokov/talkroom-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainEvents returns everything currently queued for a client. Hub
// calls broadcast synchronously, so after a call returns the channel
// holds all its effects.
func drainEvents(ch <-chan *Event) []*Event {
	var events []*Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func countKind(events []*Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// fakeMessageStore is an in-memory store.MessageStore for hub tests.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []*store.Message
	nextID   int64

	failInsert bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (f *fakeMessageStore) InsertMessage(_ context.Context, msg *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return errors.New("insert failed")
	}
	f.nextID++
	msg.ID = f.nextID
	stored := *msg
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeMessageStore) ListRecent(_ context.Context, roomName string, limit int) ([]*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var room []*store.Message
	for _, msg := range f.messages {
		if msg.RoomName == roomName {
			room = append(room, msg)
		}
	}
	if len(room) > limit {
		room = room[len(room)-limit:]
	}
	return room, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestHub(st store.MessageStore) *Hub {
	return NewHub(st, DefaultHistoryLimit, nil)
}

func connect(h *Hub, connID string, userID int64, name string) *Client {
	c := NewClient(connID, userID, name, "")
	h.Connect(c)
	return c
}
