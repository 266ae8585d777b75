// Package nlp turns free-form Egyptian Arabic and English messages into
// structured intents for the conversation router.
//
// The layer has two halves. A Provider is the raw LLM call: it may fail, it
// may return intents outside the vocabulary, and its confidence is whatever
// the model claims. The Classifier wraps one Provider and makes the output
// safe to act on: unknown intents are mapped through a synonym table or
// absorbed into "unclear", confidence is clamped, low-confidence results are
// retried on the stronger model, and provider errors never escape — the
// caller always gets a usable Result.
package nlp

import (
	"context"
	"errors"

	"murshid/internal/schedule"
)

// ErrRateLimit is returned by a Provider when the upstream API reports a
// rate-limiting condition (HTTP 429).
var ErrRateLimit = errors.New("nlp: upstream rate limit exceeded")

// ErrMalformedOutput is returned by a Provider when the model answers with
// content that fails the classification schema.
var ErrMalformedOutput = errors.New("nlp: malformed response from model")

// Tier selects which model a classification call runs on.
type Tier string

const (
	// TierFast is the cheap default model used for every first attempt.
	TierFast Tier = "fast"
	// TierStrong is the escalation model used when the fast tier is unsure.
	TierStrong Tier = "strong"
)

// HistoryMessage is one prior turn of the conversation, injected into the
// model context so follow-ups like "shift it to tomorrow" resolve correctly.
type HistoryMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// HabitContext is the slice of habit state the model is shown.
type HabitContext struct {
	ID     string
	Name   string
	Slot   schedule.Slot
	Status string
}

// TaskContext is the slice of task state the model is shown.
type TaskContext struct {
	ID     string
	Title  string
	Slot   schedule.Slot
	Status string
}

// Context is everything the model knows about the conversation beyond the
// message itself: today's date and slot, the day's habits and tasks, any
// pending question the assistant is waiting on, and recent history.
type Context struct {
	CurrentDate   string
	CurrentSlot   schedule.Slot
	PendingState  string
	PendingAction string
	Habits        []HabitContext
	Tasks         []TaskContext
	History       []HistoryMessage
}

// Entities are the structured fragments the model extracts from a message.
// All fields are optional; the JSON tags match the classification schema.
type Entities struct {
	HabitRef        string        `json:"habit_ref,omitempty"`
	TaskRef         string        `json:"task_ref,omitempty"`
	TaskTitle       string        `json:"task_title,omitempty"`
	TaskDescription string        `json:"task_description,omitempty"`
	TimeSlot        schedule.Slot `json:"time_slot,omitempty"`
	TargetDate      string        `json:"target_date,omitempty"`
	DateExpression  string        `json:"date_expression,omitempty"`
	Justification   string        `json:"justification,omitempty"`
	SelectedOption  int           `json:"selected_option,omitempty"`
	Context         string        `json:"context,omitempty"`
}

// Request is the input to a single classification call.
type Request struct {
	Message string
	Context Context
	Tier    Tier
}

// RawResult is the model's answer before the Classifier has sanitized it.
// Intent is a plain string here because the model may emit anything.
type RawResult struct {
	Intent           string   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	Entities         Entities `json:"entities"`
	FollowUpQuestion string   `json:"follow_up_question,omitempty"`
}

// Result is the sanitized classification the router acts on. Intent is always
// within the vocabulary and Confidence is always within [0, 1].
type Result struct {
	Intent           Intent
	Confidence       float64
	Entities         Entities
	FollowUpQuestion string
	WasEscalated     bool
}

// Provider is the raw model call behind the Classifier.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	Classify(ctx context.Context, req Request) (*RawResult, error)
}
