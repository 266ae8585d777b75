package state

import (
	"fmt"
	"testing"
	"time"

	"murshid/internal/nlp"
)

const convID = "!room:example.org|@user:example.org"

// clock is a controllable time source for the store.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *clock) {
	c := &clock{t: time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)}
	return NewStoreAt(c.now), c
}

func TestGet_UnknownConversationIsIdle(t *testing.T) {
	s, _ := newTestStore()
	conv := s.Get(convID)
	if conv.Pending != Idle || conv.Payload != nil || len(conv.History) != 0 {
		t.Errorf("got %+v, want idle empty conversation", conv)
	}
}

func TestSetPending_TypedPayload(t *testing.T) {
	s, _ := newTestStore()
	s.SetPending(convID, PendingJustification{HabitID: "quran"})

	conv := s.Get(convID)
	if conv.Pending != AwaitingJustification {
		t.Fatalf("pending = %q", conv.Pending)
	}
	payload, ok := conv.Payload.(PendingJustification)
	if !ok {
		t.Fatalf("payload type %T", conv.Payload)
	}
	if payload.HabitID != "quran" {
		t.Errorf("habit = %q", payload.HabitID)
	}
}

func TestSetPending_Replaces(t *testing.T) {
	s, _ := newTestStore()
	s.SetPending(convID, PendingJustification{HabitID: "quran"})
	s.SetPending(convID, PendingShiftDate{TaskID: "t-001"})

	conv := s.Get(convID)
	if conv.Pending != AwaitingShiftDate {
		t.Errorf("pending = %q, want the newer question", conv.Pending)
	}
	if _, ok := conv.Payload.(PendingShiftDate); !ok {
		t.Errorf("payload type %T", conv.Payload)
	}
}

func TestPendingExpiry(t *testing.T) {
	s, c := newTestStore()
	s.SetPending(convID, PendingConfirmation{
		Classification: nlp.Result{Intent: nlp.IntentTaskDelete, Confidence: 0.7},
	})

	// Four minutes in: still pending.
	c.advance(4 * time.Minute)
	if !s.HasPending(convID) {
		t.Fatal("question expired before the TTL")
	}

	// Six minutes in: expired, conversation back to idle.
	c.advance(2 * time.Minute)
	if s.HasPending(convID) {
		t.Fatal("question survived past the TTL")
	}
	conv := s.Get(convID)
	if conv.Pending != Idle || conv.Payload != nil {
		t.Errorf("got %+v, want idle", conv)
	}
}

func TestSetPending_RestartsExpiryClock(t *testing.T) {
	s, c := newTestStore()
	s.SetPending(convID, PendingJustification{HabitID: "quran"})

	c.advance(4 * time.Minute)
	s.SetPending(convID, PendingJustification{HabitID: "walk"})

	// Four more minutes: only four elapsed since the newer question.
	c.advance(4 * time.Minute)
	if !s.HasPending(convID) {
		t.Error("replacement question must get a fresh TTL")
	}
}

func TestClearPending(t *testing.T) {
	s, _ := newTestStore()
	s.SetPending(convID, PendingDuplicate{ExistingID: "t-001", ExistingDay: "2026-02-16"})
	s.ClearPending(convID)

	if s.HasPending(convID) {
		t.Error("pending survived ClearPending")
	}
	// Clearing an unknown conversation is a no-op.
	s.ClearPending("!other:example.org|@user:example.org")
}

func TestAddMessage_HistoryCap(t *testing.T) {
	s, _ := newTestStore()
	for i := 1; i <= 15; i++ {
		s.AddMessage(convID, "user", fmt.Sprintf("message %d", i))
	}

	conv := s.Get(convID)
	if len(conv.History) != 10 {
		t.Fatalf("history length = %d, want 10", len(conv.History))
	}
	if conv.History[0].Content != "message 6" {
		t.Errorf("oldest kept = %q, want message 6", conv.History[0].Content)
	}
	if conv.History[9].Content != "message 15" {
		t.Errorf("newest kept = %q, want message 15", conv.History[9].Content)
	}
}

func TestHistorySurvivesPendingExpiry(t *testing.T) {
	s, c := newTestStore()
	s.AddMessage(convID, "user", "مش هقرا النهارده")
	s.AddMessage(convID, "assistant", "ليه؟")
	s.SetPending(convID, PendingJustification{HabitID: "quran"})

	c.advance(10 * time.Minute)
	conv := s.Get(convID)
	if conv.Pending != Idle {
		t.Error("pending should have expired")
	}
	if len(conv.History) != 2 {
		t.Errorf("history length = %d, expiry must not drop history", len(conv.History))
	}
}

func TestLastActivity_MovesOnReadsAndWrites(t *testing.T) {
	s, c := newTestStore()
	start := c.t

	s.AddMessage(convID, "user", "hello")
	if got := s.Get(convID).LastActivity; !got.Equal(start) {
		t.Errorf("after write: last activity = %v, want %v", got, start)
	}

	// A plain read also counts as activity.
	c.advance(2 * time.Minute)
	if got := s.Get(convID).LastActivity; !got.Equal(start.Add(2 * time.Minute)) {
		t.Errorf("after read: last activity = %v", got)
	}

	c.advance(time.Minute)
	s.SetPending(convID, PendingShiftDate{TaskID: "t-001"})
	if got := s.Get(convID).LastActivity; !got.Equal(start.Add(3 * time.Minute)) {
		t.Errorf("after SetPending: last activity = %v", got)
	}
}

func TestGet_SnapshotIsolation(t *testing.T) {
	s, _ := newTestStore()
	s.AddMessage(convID, "user", "hello")

	conv := s.Get(convID)
	conv.History[0].Content = "mutated"

	if got := s.Get(convID).History[0].Content; got != "hello" {
		t.Errorf("store history mutated through snapshot: %q", got)
	}
}
