package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"murshid/internal/nlp"
	"murshid/internal/normalize"
	"murshid/internal/state"
	"murshid/internal/store"
	"murshid/internal/task"
)

// yesWords and noWords answer pending yes/no questions lexically, so a plain
// "أيوه" never costs a model call. Anything else falls back to the classifier.
var yesWords = map[string]bool{
	"أيوه": true, "ايوه": true, "اه": true, "آه": true, "نعم": true,
	"تمام": true, "ماشي": true, "اوك": true, "اوكي": true, "طيب": true,
	"yes": true, "y": true, "yeah": true, "yep": true, "ok": true, "sure": true,
}

var noWords = map[string]bool{
	"لا": true, "لأ": true, "لاء": true, "مش عايز": true, "بلاش": true, "خلاص": true,
	"no": true, "n": true, "nope": true, "cancel": true,
}

func lexicalYesNo(text string) (yes bool, no bool) {
	folded := strings.ToLower(strings.TrimSpace(strings.Trim(text, "!.،؟?")))
	return yesWords[folded], noWords[folded]
}

// execute acts on a classification the thresholds have already approved.
func (r *Router) execute(ctx context.Context, conversationID, day string, now time.Time, result nlp.Result) string {
	switch result.Intent {
	case nlp.IntentGreeting:
		return replyGreeting

	case nlp.IntentHelp:
		return replyHelp

	case nlp.IntentHabitDone:
		return r.handleHabitStatus(ctx, conversationID, day, now, result.Entities, store.StatusDone)

	case nlp.IntentHabitSkipped:
		return r.handleHabitStatus(ctx, conversationID, day, now, result.Entities, store.StatusSkipped)

	case nlp.IntentHabitList, nlp.IntentHabitStatus:
		rec, err := r.storage.GetDay(ctx, day)
		if err != nil {
			return r.storageError(err)
		}
		return formatHabitList(rec.Habits)

	case nlp.IntentTaskCreate:
		return r.handleTaskCreate(ctx, conversationID, day, result.Entities)

	case nlp.IntentTaskComplete:
		return r.taskResult(r.tasks.Complete(ctx, day, result.Entities.TaskRef))

	case nlp.IntentTaskSkip:
		return r.taskResult(r.tasks.Skip(ctx, day, result.Entities.TaskRef, result.Entities.Justification))

	case nlp.IntentTaskShift:
		return r.handleTaskShift(ctx, conversationID, day, result.Entities)

	case nlp.IntentTaskUpdate:
		return r.taskResult(r.tasks.Update(ctx, day, result.Entities.TaskRef, result.Entities))

	case nlp.IntentTaskDelete:
		return r.taskResult(r.tasks.Delete(ctx, day, result.Entities.TaskRef))

	case nlp.IntentTaskList:
		rec, err := r.storage.GetDay(ctx, day)
		if err != nil {
			return r.storageError(err)
		}
		return formatTaskList(rec.Tasks)

	case nlp.IntentDailySummary:
		rec, err := r.storage.GetDay(ctx, day)
		if err != nil {
			return r.storageError(err)
		}
		return formatDailySummary(rec)

	case nlp.IntentWeeklySummary:
		return r.handleWeeklySummary(ctx, now)

	case nlp.IntentConfirmation, nlp.IntentRejection, nlp.IntentImageTagResponse:
		// Nothing is pending on this path; a stray yes/no means the question
		// already expired or never existed.
		return replyNothingPending

	case nlp.IntentUnclear:
		if result.FollowUpQuestion != "" {
			return result.FollowUpQuestion
		}
		return replyLowConfidence

	default:
		slog.Error("unhandled intent", "intent", result.Intent)
		return replyLowConfidence
	}
}

// describeIntent renders a short Arabic description of an approved-but-unsure
// classification for the confirmation prompt.
func describeIntent(result nlp.Result) string {
	e := result.Entities
	switch result.Intent {
	case nlp.IntentHabitDone:
		return fmt.Sprintf("تعلم على عادة %q إنها خلصت", e.HabitRef)
	case nlp.IntentHabitSkipped:
		return fmt.Sprintf("تعلم على عادة %q إنها اتفوتت", e.HabitRef)
	case nlp.IntentTaskCreate:
		return fmt.Sprintf("تضيف تاسك %q", e.TaskTitle)
	case nlp.IntentTaskComplete:
		return fmt.Sprintf("تخلص %s", e.TaskRef)
	case nlp.IntentTaskSkip:
		return fmt.Sprintf("تسيب %s النهارده", e.TaskRef)
	case nlp.IntentTaskShift:
		if e.TargetDate != "" {
			return fmt.Sprintf("تأجل %s ليوم %s", e.TaskRef, e.TargetDate)
		}
		return fmt.Sprintf("تأجل %s", e.TaskRef)
	case nlp.IntentTaskUpdate:
		return fmt.Sprintf("تعدل %s", e.TaskRef)
	case nlp.IntentTaskDelete:
		return fmt.Sprintf("تمسح %s", e.TaskRef)
	default:
		return string(result.Intent)
	}
}

// pendingAction renders what the open question is about, for the
// classification context. Empty when nothing is pending.
func pendingAction(payload state.PendingPayload) string {
	switch p := payload.(type) {
	case state.PendingJustification:
		return fmt.Sprintf("سبب تفويت عادة %s", p.HabitID)
	case state.PendingShiftDate:
		return fmt.Sprintf("تاريخ تأجيل %s", p.TaskID)
	case state.PendingConfirmation:
		return describeIntent(p.Classification)
	case state.PendingDuplicate:
		return fmt.Sprintf("تأكيد إضافة %q رغم تشابهها مع %s يوم %s", p.Entities.TaskTitle, p.ExistingID, p.ExistingDay)
	case state.PendingImageTag:
		return "التاسك اللي الصورة المرفوعة تخصه"
	default:
		return ""
	}
}

// --- intent handlers -------------------------------------------------------

// handleTaskCreate runs the duplicate guard before creating.
func (r *Router) handleTaskCreate(ctx context.Context, conversationID, day string, e nlp.Entities) string {
	if e.TaskTitle != "" {
		match, err := r.tasks.FindSimilarInWeek(ctx, day, e.TaskTitle, r.thresholds.Duplicate)
		if err != nil {
			return r.storageError(err)
		}
		if match != nil {
			r.states.SetPending(conversationID, state.PendingDuplicate{
				Entities:    e,
				ExistingID:  match.Task.ID,
				ExistingDay: match.Day,
			})
			return duplicatePrompt(e.TaskTitle, match.Task.ID, match.Day)
		}
	}
	return r.taskResult(r.tasks.Create(ctx, day, e))
}

// handleTaskShift asks for a date when the message named none.
func (r *Router) handleTaskShift(ctx context.Context, conversationID, day string, e nlp.Entities) string {
	if e.TargetDate == "" {
		r.states.SetPending(conversationID, state.PendingShiftDate{TaskID: e.TaskRef})
		return replyAskShiftDate
	}
	return r.taskResult(r.tasks.Shift(ctx, day, e.TaskRef, e.TargetDate, e.Justification))
}

// handleHabitStatus resolves which habit the user means and records the
// status. Skipping a habit that requires a justification opens a pending
// question instead of recording immediately.
func (r *Router) handleHabitStatus(ctx context.Context, conversationID, day string, now time.Time, e nlp.Entities, status string) string {
	rec, err := r.storage.GetDay(ctx, day)
	if err != nil {
		return r.storageError(err)
	}

	habit, clarify := r.resolveHabit(rec.Habits, e.HabitRef, now)
	if habit == nil {
		return clarify
	}

	if status == store.StatusSkipped && habit.RequiresJustification && e.Justification == "" {
		r.states.SetPending(conversationID, state.PendingJustification{HabitID: habit.ID})
		return replyAskSkipReason
	}

	if err := r.storage.UpdateHabitStatus(ctx, day, habit.ID, status, e.Justification); err != nil {
		return r.storageError(err)
	}

	if status == store.StatusDone {
		return fmt.Sprintf("الله ينور! ✅ %s خلصت النهارده", habit.Name)
	}
	return replySkipNoted
}

// resolveHabit picks the habit the user means. Order of preference: explicit
// reference by ID or name, then the only pending habit in the current slot,
// then the only pending habit overall. When still ambiguous it returns nil
// with a clarifying question listing the options.
func (r *Router) resolveHabit(habits []store.HabitEntry, ref string, now time.Time) (*store.HabitEntry, string) {
	if len(habits) == 0 {
		return nil, replyNoHabits
	}

	if ref != "" {
		folded := strings.ToLower(strings.TrimSpace(ref))
		for i := range habits {
			h := &habits[i]
			if strings.EqualFold(h.ID, folded) ||
				strings.Contains(strings.ToLower(h.Name), folded) ||
				normalize.Similarity(h.Name, ref) >= 0.5 {
				return h, ""
			}
		}
	}

	currentSlot := r.sched.CurrentSlot(now)
	var inSlot, pending []*store.HabitEntry
	for i := range habits {
		h := &habits[i]
		if h.Status != store.StatusPending {
			continue
		}
		pending = append(pending, h)
		if h.Slot == currentSlot {
			inSlot = append(inSlot, h)
		}
	}
	if len(inSlot) == 1 {
		return inSlot[0], ""
	}
	if len(pending) == 1 {
		return pending[0], ""
	}

	var b strings.Builder
	b.WriteString(replyAskWhichHabit)
	for _, h := range pending {
		fmt.Fprintf(&b, "\n• %s", h.Name)
	}
	return nil, b.String()
}

// handleWeeklySummary aggregates the seven days ending today.
func (r *Router) handleWeeklySummary(ctx context.Context, now time.Time) string {
	var tally weekTally
	first := now.AddDate(0, 0, -6).Format(normalize.ISODate)
	last := now.Format(normalize.ISODate)

	for offset := -6; offset <= 0; offset++ {
		day := now.AddDate(0, 0, offset).Format(normalize.ISODate)
		rec, err := r.storage.GetDay(ctx, day)
		if err != nil {
			return r.storageError(err)
		}
		for _, h := range rec.Habits {
			switch h.Status {
			case store.StatusDone:
				tally.habitsDone++
			case store.StatusSkipped:
				tally.habitsSkipped++
			}
		}
		for _, t := range rec.Tasks {
			switch t.Status {
			case store.StatusDone:
				tally.tasksDone++
			case store.StatusShifted:
				tally.tasksShifted++
			case store.StatusPending, store.StatusSkipped:
				tally.tasksOpen++
			}
		}
	}
	return formatWeeklySummary(first, last, tally)
}

// --- pending-question handlers ---------------------------------------------

// answerJustification records the skip with the message taken verbatim as the
// reason.
func (r *Router) answerJustification(ctx context.Context, conversationID, day string, payload state.PendingJustification, text string) string {
	r.states.ClearPending(conversationID)
	if err := r.storage.UpdateHabitStatus(ctx, day, payload.HabitID, store.StatusSkipped, text); err != nil {
		return r.storageError(err)
	}
	return replyJustificationOK
}

// answerShiftDate resolves the awaited date from the message and performs the
// shift. An unresolvable answer re-prompts without dropping the question.
func (r *Router) answerShiftDate(ctx context.Context, conversationID, day string, now time.Time, payload state.PendingShiftDate, text string) (string, bool) {
	if _, no := lexicalYesNo(text); no {
		r.states.ClearPending(conversationID)
		return replyCancelled, true
	}

	target, ok := normalize.ResolveRelativeDate(text, now)
	if !ok {
		result := r.classifier.Classify(ctx, text, nlp.Context{
			CurrentDate:   day,
			CurrentSlot:   r.sched.CurrentSlot(now),
			PendingState:  string(state.AwaitingShiftDate),
			PendingAction: pendingAction(payload),
		})
		if result.Entities.TargetDate != "" {
			target, ok = result.Entities.TargetDate, true
		}
	}
	if !ok {
		return replyBadShiftDate, true
	}

	r.states.ClearPending(conversationID)
	return r.taskResult(r.tasks.Shift(ctx, day, payload.TaskID, target, "")), true
}

// answerConfirmation resolves a yes/no on a held classification. Yes executes
// it as-is; no cancels; anything else is treated as a fresh request.
func (r *Router) answerConfirmation(ctx context.Context, conversationID, day string, now time.Time, conv state.Conversation, payload state.PendingConfirmation, text string) (string, bool) {
	yes, no := r.resolveYesNo(ctx, day, now, conv, text)
	r.states.ClearPending(conversationID)
	switch {
	case yes:
		return r.execute(ctx, conversationID, day, now, payload.Classification), true
	case no:
		return replyCancelled, true
	default:
		return "", false
	}
}

// answerDuplicate resolves a yes/no on creating a near-duplicate task.
func (r *Router) answerDuplicate(ctx context.Context, conversationID, day string, now time.Time, conv state.Conversation, payload state.PendingDuplicate, text string) (string, bool) {
	yes, no := r.resolveYesNo(ctx, day, now, conv, text)
	r.states.ClearPending(conversationID)
	switch {
	case yes:
		return r.taskResult(r.tasks.Create(ctx, day, payload.Entities)), true
	case no:
		return replyCancelled, true
	default:
		return "", false
	}
}

// answerImageTag attaches the held image to the task the user names.
func (r *Router) answerImageTag(ctx context.Context, conversationID, day string, now time.Time, conv state.Conversation, payload state.PendingImageTag, text string) string {
	ref := normalize.TaskReference(strings.TrimSpace(text))
	if !strings.HasPrefix(ref, "t-") {
		result := r.classifier.Classify(ctx, text, r.buildContext(ctx, day, now, conv))
		ref = result.Entities.TaskRef
	}
	if !strings.HasPrefix(ref, "t-") {
		return replyImageTagMissed
	}

	r.states.ClearPending(conversationID)
	if err := r.storage.AppendTaskImage(ctx, day, ref, payload.ImageURL); err != nil {
		slog.Warn("image tag failed", "conversation", conversationID, "task", ref, "error", err)
		return replyImageTagMissed
	}
	return fmt.Sprintf("تمام، ربطت الصورة بـ%s 📷", ref)
}

// resolveYesNo answers a pending yes/no question: lexical word lists first,
// classifier as fallback.
func (r *Router) resolveYesNo(ctx context.Context, day string, now time.Time, conv state.Conversation, text string) (yes bool, no bool) {
	yes, no = lexicalYesNo(text)
	if yes || no {
		return yes, no
	}
	result := r.classifier.Classify(ctx, text, r.buildContext(ctx, day, now, conv))
	switch result.Intent {
	case nlp.IntentConfirmation:
		return true, false
	case nlp.IntentRejection:
		return false, true
	}
	return false, false
}

// --- helpers ---------------------------------------------------------------

// buildContext assembles the classification context: date, slot, the pending
// question and what it is about, today's habits and tasks, and recent history.
func (r *Router) buildContext(ctx context.Context, day string, now time.Time, conv state.Conversation) nlp.Context {
	tctx := nlp.Context{
		CurrentDate:   day,
		CurrentSlot:   r.sched.CurrentSlot(now),
		PendingState:  string(conv.Pending),
		PendingAction: pendingAction(conv.Payload),
	}

	rec, err := r.storage.GetDay(ctx, day)
	if err != nil {
		slog.Warn("day record unavailable for context", "day", day, "error", err)
	} else {
		for _, h := range rec.Habits {
			tctx.Habits = append(tctx.Habits, nlp.HabitContext{
				ID: h.ID, Name: h.Name, Slot: h.Slot, Status: h.Status,
			})
		}
		for _, t := range rec.Tasks {
			tctx.Tasks = append(tctx.Tasks, nlp.TaskContext{
				ID: t.ID, Title: t.Title, Slot: t.Slot, Status: t.Status,
			})
		}
	}

	for _, m := range conv.History {
		tctx.History = append(tctx.History, nlp.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	return tctx
}

// taskResult folds a task operation outcome into a reply, logging storage
// failures rather than exposing them.
func (r *Router) taskResult(res task.Result, err error) string {
	if err != nil {
		return r.storageError(err)
	}
	return res.Message
}

func (r *Router) storageError(err error) string {
	slog.Error("storage failure", "error", err)
	return replyInternalError
}
