// Package state holds the in-memory per-conversation state: what question the
// assistant is waiting on (if any) and a short rolling message history. State
// is deliberately volatile — a restart resets every conversation to idle,
// which is safe because every durable fact lives in the store.
package state

import (
	"sync"
	"time"

	"murshid/internal/nlp"
)

// DefaultPendingTTL is how long an unanswered question stays pending before
// the conversation silently falls back to idle.
const DefaultPendingTTL = 5 * time.Minute

// defaultHistoryLimit is the number of recent messages kept per conversation.
const defaultHistoryLimit = 10

// PendingState names what kind of answer the assistant is waiting for.
type PendingState string

const (
	Idle                     PendingState = "idle"
	AwaitingJustification    PendingState = "awaiting_justification"
	AwaitingShiftDate        PendingState = "awaiting_shift_date"
	AwaitingConfirmation     PendingState = "awaiting_confirmation"
	AwaitingImageTag         PendingState = "awaiting_image_tag"
	AwaitingDuplicateConfirm PendingState = "awaiting_duplicate_confirmation"
)

// PendingPayload carries the typed context of an open question. Each pending
// state has exactly one payload shape, so handlers switch on the concrete
// type instead of re-parsing stashed strings.
type PendingPayload interface {
	pendingState() PendingState
}

// PendingJustification waits for the reason a habit was skipped.
type PendingJustification struct {
	HabitID string
}

// PendingShiftDate waits for the date a task should move to.
type PendingShiftDate struct {
	TaskID string
}

// PendingConfirmation waits for a yes/no on a mid-confidence classification;
// on yes the stored classification is executed as-is.
type PendingConfirmation struct {
	Classification nlp.Result
}

// PendingDuplicate waits for a yes/no on creating a task that closely matches
// an existing one.
type PendingDuplicate struct {
	Entities    nlp.Entities
	ExistingID  string
	ExistingDay string
}

// PendingImageTag waits for the user to say which habit or task an uploaded
// image belongs to.
type PendingImageTag struct {
	ImageURL string
}

func (PendingJustification) pendingState() PendingState { return AwaitingJustification }
func (PendingShiftDate) pendingState() PendingState     { return AwaitingShiftDate }
func (PendingConfirmation) pendingState() PendingState  { return AwaitingConfirmation }
func (PendingDuplicate) pendingState() PendingState     { return AwaitingDuplicateConfirm }
func (PendingImageTag) pendingState() PendingState      { return AwaitingImageTag }

// Message is one turn of conversation history.
type Message struct {
	Role      string // "user" or "assistant"
	Content   string
	Timestamp time.Time
}

// Conversation is a snapshot of one conversation's state. The Pending fields
// describe the open question, if any. LastActivity moves on every read and
// write of the conversation.
type Conversation struct {
	Pending      PendingState
	Payload      PendingPayload
	PendingSetAt time.Time
	LastActivity time.Time
	History      []Message
}

// Store keeps conversation state in memory, keyed by conversation ID
// (room + sender). Safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	ttl           time.Duration
	historyLimit  int
	now           func() time.Time
}

// NewStore returns an empty Store with the default pending TTL.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
		ttl:           DefaultPendingTTL,
		historyLimit:  defaultHistoryLimit,
		now:           time.Now,
	}
}

// NewStoreAt is NewStore with an injectable clock, for tests.
func NewStoreAt(now func() time.Time) *Store {
	s := NewStore()
	s.now = now
	return s
}

// Get returns a snapshot of the conversation, expiring a stale pending
// question first. Unknown conversations come back idle with empty history.
func (s *Store) Get(conversationID string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conversations[conversationID]
	if conv == nil {
		return Conversation{Pending: Idle}
	}
	s.expireLocked(conv)
	conv.LastActivity = s.now()

	snapshot := Conversation{
		Pending:      conv.Pending,
		Payload:      conv.Payload,
		PendingSetAt: conv.PendingSetAt,
		LastActivity: conv.LastActivity,
		History:      append([]Message(nil), conv.History...),
	}
	return snapshot
}

// SetPending records an open question for the conversation, replacing any
// previous one and restarting the expiry clock.
func (s *Store) SetPending(conversationID string, payload PendingPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreateLocked(conversationID)
	conv.Pending = payload.pendingState()
	conv.Payload = payload
	conv.PendingSetAt = s.now()
	conv.LastActivity = conv.PendingSetAt
}

// ClearPending returns the conversation to idle.
func (s *Store) ClearPending(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv := s.conversations[conversationID]; conv != nil {
		conv.Pending = Idle
		conv.Payload = nil
		conv.PendingSetAt = time.Time{}
		conv.LastActivity = s.now()
	}
}

// HasPending reports whether the conversation has a live, unexpired question.
func (s *Store) HasPending(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conversations[conversationID]
	if conv == nil {
		return false
	}
	s.expireLocked(conv)
	return conv.Pending != Idle
}

// AddMessage appends one turn to the conversation history, dropping the
// oldest turns beyond the history limit.
func (s *Store) AddMessage(conversationID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreateLocked(conversationID)
	conv.LastActivity = s.now()
	conv.History = append(conv.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: conv.LastActivity,
	})
	if len(conv.History) > s.historyLimit {
		conv.History = conv.History[len(conv.History)-s.historyLimit:]
	}
}

func (s *Store) getOrCreateLocked(conversationID string) *Conversation {
	conv := s.conversations[conversationID]
	if conv == nil {
		conv = &Conversation{Pending: Idle}
		s.conversations[conversationID] = conv
	}
	return conv
}

// expireLocked resets a pending question whose TTL has elapsed. Callers must
// hold s.mu.
func (s *Store) expireLocked(conv *Conversation) {
	if conv.Pending == Idle {
		return
	}
	if s.now().Sub(conv.PendingSetAt) > s.ttl {
		conv.Pending = Idle
		conv.Payload = nil
		conv.PendingSetAt = time.Time{}
	}
}
