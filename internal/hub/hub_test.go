package hub

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avalon-p2p/avalon-backend/internal/session"
)

func recvRoom(t *testing.T, ch <-chan *session.Session, within time.Duration) *session.Session {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(within):
		t.Fatalf("timed out waiting for room reply")
		return nil // unreachable
	}
}

func TestHub_EnsureThenGet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, zap.NewNop())

	reply := make(chan *session.Session, 1)
	h.Inbox() <- EnsureRoom{Code: "avalon-test1", Reply: reply}
	created := recvRoom(t, reply, time.Second)
	if created == nil {
		t.Fatal("ensure should create the room")
	}

	h.Inbox() <- GetRoom{Code: "avalon-test1", Reply: reply}
	if got := recvRoom(t, reply, time.Second); got != created {
		t.Fatal("get should return the same room")
	}

	h.Inbox() <- EnsureRoom{Code: "avalon-test1", Reply: reply}
	if got := recvRoom(t, reply, time.Second); got != created {
		t.Fatal("ensure must not replace an existing room")
	}
}

func TestHub_GetMissingRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, zap.NewNop())

	reply := make(chan *session.Session, 1)
	h.Inbox() <- GetRoom{Code: "nope", Reply: reply}
	if got := recvRoom(t, reply, time.Second); got != nil {
		t.Fatal("missing room should reply nil")
	}
}

func TestHub_RemoveRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, zap.NewNop())

	reply := make(chan *session.Session, 1)
	h.Inbox() <- CreateRoom{Code: "avalon-gone", Reply: reply}
	recvRoom(t, reply, time.Second)

	h.Inbox() <- RemoveRoom{Code: "avalon-gone"}
	h.Inbox() <- GetRoom{Code: "avalon-gone", Reply: reply}
	if got := recvRoom(t, reply, time.Second); got != nil {
		t.Fatal("removed room should be gone")
	}
}
