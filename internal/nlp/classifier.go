package nlp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"murshid/internal/normalize"
)

// escalationFloor is the confidence below which the fast tier's answer is
// retried on the strong model. Greetings are exempt: a hesitant greeting is
// still a greeting, and escalating it wastes a strong-model call.
const escalationFloor = 0.6

// fallbackQuestion is the Arabic clarification attached to a synthesized
// unclear result when the provider fails outright.
const fallbackQuestion = "معلش، مش فاهم قصدك. ممكن توضح أكتر؟"

// Classifier wraps a Provider and guarantees the router a usable Result.
//
// Three layers sit between the raw model output and the caller:
//  1. Vocabulary enforcement: intents outside the known set are mapped
//     through a synonym table, and anything still unknown becomes "unclear".
//  2. Escalation: a low-confidence fast-tier answer is retried on the strong
//     model; the escalated answer wins only when it is strictly more
//     confident.
//  3. Error absorption: provider failures (network, rate limit, malformed
//     output) are logged and converted into a zero-confidence "unclear"
//     result. Classify never returns an error.
type Classifier struct {
	provider Provider
}

// NewClassifier returns a Classifier backed by provider.
func NewClassifier(provider Provider) *Classifier {
	return &Classifier{provider: provider}
}

// intentSynonyms maps off-vocabulary intents the model is known to emit onto
// the canonical vocabulary.
var intentSynonyms = map[string]Intent{
	"done":        IntentHabitDone,
	"skip":        IntentHabitSkipped,
	"skipped":     IntentHabitSkipped,
	"yes":         IntentConfirmation,
	"confirm":     IntentConfirmation,
	"no":          IntentRejection,
	"cancel":      IntentRejection,
	"add_task":    IntentTaskCreate,
	"create_task": IntentTaskCreate,
	"new_task":    IntentTaskCreate,
	"postpone":    IntentTaskShift,
	"summary":     IntentDailySummary,
	"hello":       IntentGreeting,
	"hi":          IntentGreeting,
	"unknown":     IntentUnclear,
}

// Classify runs the message through the fast tier, escalating to the strong
// tier when confidence is low. It never returns an error: any failure is
// absorbed into a zero-confidence unclear result so the conversation can
// continue with a clarifying question.
func (c *Classifier) Classify(ctx context.Context, message string, tctx Context) Result {
	start := time.Now()

	req := Request{Message: message, Context: tctx, Tier: TierFast}
	raw, err := c.provider.Classify(ctx, req)
	if err != nil {
		slog.Warn("classification failed", "tier", TierFast, "error", err)
		return fallbackResult()
	}
	result := c.sanitize(raw, tctx)

	if result.Confidence < escalationFloor && result.Intent != IntentGreeting {
		req.Tier = TierStrong
		strong, err := c.provider.Classify(ctx, req)
		if err != nil {
			slog.Warn("escalation failed", "tier", TierStrong, "error", err)
		} else if escalated := c.sanitize(strong, tctx); escalated.Confidence > result.Confidence {
			escalated.WasEscalated = true
			result = escalated
		}
	}

	slog.Debug("message classified",
		"intent", result.Intent,
		"confidence", result.Confidence,
		"escalated", result.WasEscalated,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// sanitize converts a raw model answer into a vocabulary-safe Result with
// normalized entities and clamped confidence.
func (c *Classifier) sanitize(raw *RawResult, tctx Context) Result {
	result := Result{
		Confidence:       clamp(raw.Confidence),
		Entities:         raw.Entities,
		FollowUpQuestion: raw.FollowUpQuestion,
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(raw.Intent)))
	switch {
	case intent.Valid():
		result.Intent = intent
	default:
		if mapped, ok := intentSynonyms[string(intent)]; ok {
			result.Intent = mapped
		} else {
			slog.Debug("intent outside vocabulary", "intent", raw.Intent)
			result.Intent = IntentUnclear
		}
	}

	result.Entities = normalizeEntities(result.Entities, tctx)
	return result
}

// normalizeEntities canonicalizes the extracted entities: slot names to the
// slot vocabulary, task references to t-NNN form, and date expressions to an
// ISO target date anchored on the conversation's current date.
func normalizeEntities(e Entities, tctx Context) Entities {
	if e.TimeSlot != "" {
		if slot, ok := normalize.TimeSlot(string(e.TimeSlot)); ok {
			e.TimeSlot = slot
		} else {
			e.TimeSlot = ""
		}
	}

	if e.TaskRef != "" {
		e.TaskRef = normalize.TaskReference(e.TaskRef)
	}

	if e.TargetDate == "" && e.DateExpression != "" {
		if ref, err := time.Parse(normalize.ISODate, tctx.CurrentDate); err == nil {
			if resolved, ok := normalize.ResolveRelativeDate(e.DateExpression, ref); ok {
				e.TargetDate = resolved
			}
		}
	}

	return e
}

func fallbackResult() Result {
	return Result{
		Intent:           IntentUnclear,
		Confidence:       0,
		FollowUpQuestion: fallbackQuestion,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
