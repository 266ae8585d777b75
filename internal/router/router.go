// Package router is the conversation brain: it receives inbound messages,
// classifies them, dispatches pending-question answers, and executes intents
// against the habit and task state.
package router

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"murshid/common/trace"
	"murshid/internal/nlp"
	"murshid/internal/observability"
	"murshid/internal/normalize"
	"murshid/internal/schedule"
	"murshid/internal/state"
	"murshid/internal/store"
	"murshid/internal/task"
)

// Messenger sends replies back to a conversation.
type Messenger interface {
	SendText(ctx context.Context, conversationID, text string) error
}

// Transcriber converts a voice note into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Classifier turns a message into a structured intent. It never fails; the
// worst case is a zero-confidence unclear result.
type Classifier interface {
	Classify(ctx context.Context, message string, tctx nlp.Context) nlp.Result
}

// Tasks is the task lifecycle the router drives.
type Tasks interface {
	Create(ctx context.Context, day string, e nlp.Entities) (task.Result, error)
	Complete(ctx context.Context, day, ref string) (task.Result, error)
	Skip(ctx context.Context, day, ref, justification string) (task.Result, error)
	Shift(ctx context.Context, day, ref, targetDate, reason string) (task.Result, error)
	Update(ctx context.Context, day, ref string, e nlp.Entities) (task.Result, error)
	Delete(ctx context.Context, day, ref string) (task.Result, error)
	FindSimilarInWeek(ctx context.Context, day, title string, threshold float64) (*task.Match, error)
}

// Storage is the slice of the store the router reads and writes directly.
type Storage interface {
	GetDay(ctx context.Context, day string) (*store.DayRecord, error)
	UpdateHabitStatus(ctx context.Context, day, habitID, status, justification string) error
	AppendTaskImage(ctx context.Context, day, id, url string) error
}

// Schedule maps wall-clock time to the current prayer-anchored slot.
type Schedule interface {
	CurrentSlot(now time.Time) schedule.Slot
}

// Thresholds are the confidence and similarity cut-offs for acting on a
// classification.
type Thresholds struct {
	// Reject: below this the message gets a generic clarification.
	Reject float64
	// ActionFloor: below this nothing is ever executed.
	ActionFloor float64
	// Confirm: mutating intents below this require a yes/no first.
	Confirm float64
	// Duplicate: title similarity at or above this triggers the duplicate guard.
	Duplicate float64
}

// DefaultThresholds are the standard cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{Reject: 0.3, ActionFloor: 0.6, Confirm: 0.85, Duplicate: 0.7}
}

// Router dispatches one conversation turn at a time per conversation.
type Router struct {
	classifier  Classifier
	tasks       Tasks
	storage     Storage
	states      *state.Store
	messenger   Messenger
	transcriber Transcriber
	sched       Schedule
	thresholds  Thresholds
	loc         *time.Location
	now         func() time.Time

	mu        sync.Mutex
	convLocks map[string]*sync.Mutex
}

// Config wires a Router.
type Config struct {
	Classifier  Classifier
	Tasks       Tasks
	Storage     Storage
	States      *state.Store
	Messenger   Messenger
	Transcriber Transcriber
	Schedule    Schedule
	Thresholds  Thresholds
	Location    *time.Location
}

// New returns a Router using the wall clock.
func New(cfg Config) *Router {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	return &Router{
		classifier:  cfg.Classifier,
		tasks:       cfg.Tasks,
		storage:     cfg.Storage,
		states:      cfg.States,
		messenger:   cfg.Messenger,
		transcriber: cfg.Transcriber,
		sched:       cfg.Schedule,
		thresholds:  cfg.Thresholds,
		loc:         cfg.Location,
		now:         time.Now,
		convLocks:   make(map[string]*sync.Mutex),
	}
}

// NewAt is New with an injectable clock, for tests.
func NewAt(cfg Config, now func() time.Time) *Router {
	r := New(cfg)
	r.now = now
	return r
}

// lockConversation serializes turns within one conversation while letting
// different conversations proceed concurrently.
func (r *Router) lockConversation(conversationID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.convLocks[conversationID]
	if l == nil {
		l = &sync.Mutex{}
		r.convLocks[conversationID] = l
	}
	return l
}

// HandleText processes one inbound text message and sends the reply.
func (r *Router) HandleText(ctx context.Context, conversationID, text string) {
	ctx = trace.WithTurnID(ctx, trace.NewTurnID())
	log := observability.WithTurn(ctx)

	l := r.lockConversation(conversationID)
	l.Lock()
	defer l.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic handling message", "conversation", conversationID, "panic", rec)
			r.send(ctx, conversationID, replyInternalError)
		}
	}()

	log.Debug("message received", "conversation", conversationID)
	reply := r.handleTurn(ctx, conversationID, text)

	r.states.AddMessage(conversationID, "user", text)
	r.send(ctx, conversationID, reply)
	r.states.AddMessage(conversationID, "assistant", reply)
}

// HandleAudio transcribes a voice note and processes it as text.
func (r *Router) HandleAudio(ctx context.Context, conversationID string, audio []byte) {
	text, err := r.transcriber.Transcribe(ctx, audio)
	if err != nil || text == "" {
		slog.Warn("transcription failed", "conversation", conversationID, "error", err)
		r.send(ctx, conversationID, replyAudioFailed)
		return
	}
	r.HandleText(ctx, conversationID, text)
}

// HandleImage records an uploaded image and asks which task it belongs to.
func (r *Router) HandleImage(ctx context.Context, conversationID, imageURL string) {
	l := r.lockConversation(conversationID)
	l.Lock()
	defer l.Unlock()

	r.states.SetPending(conversationID, state.PendingImageTag{ImageURL: imageURL})
	r.send(ctx, conversationID, replyAskImageTag)
	r.states.AddMessage(conversationID, "assistant", replyAskImageTag)
}

// handleTurn runs the pending-state dispatch and, when the conversation is
// idle, the classify-then-execute path. It returns the reply text.
func (r *Router) handleTurn(ctx context.Context, conversationID, text string) string {
	now := r.now().In(r.loc)
	day := now.Format(normalize.ISODate)

	conv := r.states.Get(conversationID)
	if conv.Pending != state.Idle {
		reply, consumed := r.dispatchPending(ctx, conversationID, day, now, conv, text)
		if consumed {
			return reply
		}
		// The answer turned out to be a fresh request; fall through with the
		// pending question cleared.
		conv = r.states.Get(conversationID)
	}

	result := r.classifier.Classify(ctx, text, r.buildContext(ctx, day, now, conv))

	switch {
	case result.Confidence < r.thresholds.Reject:
		return replyLowConfidence

	case result.Intent == nlp.IntentUnclear:
		if result.FollowUpQuestion != "" {
			return result.FollowUpQuestion
		}
		return replyLowConfidence

	case result.Confidence < r.thresholds.ActionFloor:
		if result.FollowUpQuestion != "" {
			return result.FollowUpQuestion
		}
		return replyLowConfidence

	case result.Intent.Mutating() && result.Confidence < r.thresholds.Confirm:
		r.states.SetPending(conversationID, state.PendingConfirmation{Classification: result})
		return confirmPrompt(describeIntent(result))

	default:
		return r.execute(ctx, conversationID, day, now, result)
	}
}

// dispatchPending routes the message to the open question's handler. The
// second return value reports whether the message was consumed as an answer;
// when false the caller should treat it as a fresh request.
func (r *Router) dispatchPending(ctx context.Context, conversationID, day string, now time.Time, conv state.Conversation, text string) (string, bool) {
	switch payload := conv.Payload.(type) {
	case state.PendingJustification:
		return r.answerJustification(ctx, conversationID, day, payload, text), true

	case state.PendingShiftDate:
		return r.answerShiftDate(ctx, conversationID, day, now, payload, text)

	case state.PendingConfirmation:
		return r.answerConfirmation(ctx, conversationID, day, now, conv, payload, text)

	case state.PendingDuplicate:
		return r.answerDuplicate(ctx, conversationID, day, now, conv, payload, text)

	case state.PendingImageTag:
		return r.answerImageTag(ctx, conversationID, day, now, conv, payload, text), true

	default:
		r.states.ClearPending(conversationID)
		return "", false
	}
}

func (r *Router) send(ctx context.Context, conversationID, text string) {
	if err := r.messenger.SendText(ctx, conversationID, text); err != nil {
		slog.Error("send failed", "conversation", conversationID, "error", err)
	}
}
