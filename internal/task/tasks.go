// Package task implements the task lifecycle: create, complete, skip, shift,
// update, delete, and duplicate detection. Operations return a Result with a
// user-facing Arabic message; an error is returned only for storage failures,
// never for user mistakes.
package task

import (
	"context"
	"fmt"
	"time"

	"murshid/internal/nlp"
	"murshid/internal/normalize"
	"murshid/internal/schedule"
	"murshid/internal/store"
)

// Storage is the slice of the store the task operations need.
type Storage interface {
	GetDay(ctx context.Context, day string) (*store.DayRecord, error)
	AddTask(ctx context.Context, day string, fields store.TaskFields) (*store.TaskEntry, error)
	GetTask(ctx context.Context, day, id string) (*store.TaskEntry, error)
	UpdateTask(ctx context.Context, day, id string, patch store.TaskPatch) (*store.TaskEntry, error)
	DeleteTask(ctx context.Context, day, id string) (bool, error)
}

// ErrorCode names why an operation was refused. Empty on success.
type ErrorCode string

const (
	ErrMissingTitle     ErrorCode = "missing_title"
	ErrNotFound         ErrorCode = "not_found"
	ErrAlreadyCompleted ErrorCode = "already_completed"
	ErrAlreadyShifted   ErrorCode = "already_shifted"
	ErrPastDate         ErrorCode = "past_date"
	ErrNoUpdates        ErrorCode = "no_updates"
)

// Result is the outcome of one task operation.
type Result struct {
	Success bool
	Task    *store.TaskEntry
	Message string
	Err     ErrorCode
}

// Match is a near-duplicate found by FindSimilarInWeek.
type Match struct {
	Task  *store.TaskEntry
	Day   string
	Score float64
}

// duplicateWindow is how many days around the target day are scanned for
// near-duplicate titles.
const duplicateWindow = 3

// defaultSlot is where a new task lands when the user names no slot.
const defaultSlot = schedule.AfterDhuhr

// Ops executes task operations against a Storage.
type Ops struct {
	store Storage
	now   func() time.Time
}

// New returns an Ops using the wall clock.
func New(s Storage) *Ops {
	return &Ops{store: s, now: time.Now}
}

// NewAt is New with an injectable clock, for tests.
func NewAt(s Storage, now func() time.Time) *Ops {
	return &Ops{store: s, now: now}
}

func refuse(code ErrorCode, message string) Result {
	return Result{Message: message, Err: code}
}

// Create adds a new task on the given day from the extracted entities.
func (o *Ops) Create(ctx context.Context, day string, e nlp.Entities) (Result, error) {
	if e.TaskTitle == "" {
		return refuse(ErrMissingTitle, "تمام، هضيف تاسك. بس قولي اسمه إيه؟"), nil
	}

	slot := e.TimeSlot
	if slot == "" {
		slot = defaultSlot
	}

	entry, err := o.store.AddTask(ctx, day, store.TaskFields{
		Title:       e.TaskTitle,
		Description: e.TaskDescription,
		Slot:        slot,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create task: %w", err)
	}

	return Result{
		Success: true,
		Task:    entry,
		Message: fmt.Sprintf("تمام، ضفت %s: %s (%s) ✅", entry.ID, entry.Title, entry.Slot.ArabicName()),
	}, nil
}

// Complete marks a task done, stamping the completion time.
func (o *Ops) Complete(ctx context.Context, day, ref string) (Result, error) {
	entry, res, err := o.lookup(ctx, day, ref)
	if entry == nil {
		return res, err
	}

	if entry.Status == store.StatusDone {
		return refuse(ErrAlreadyCompleted, fmt.Sprintf("%s متعلم عليه خلاص من قبل كده 👍", entry.ID)), nil
	}
	if entry.Status == store.StatusShifted {
		return refuse(ErrAlreadyShifted, fmt.Sprintf("%s اتأجل لـ%s، مش ممكن يتعدل هنا", entry.ID, entry.ShiftedTo)), nil
	}

	status := store.StatusDone
	completedAt := o.now().UTC()
	updated, err := o.store.UpdateTask(ctx, day, entry.ID, store.TaskPatch{
		Status:      &status,
		CompletedAt: &completedAt,
	})
	if err != nil {
		return Result{}, fmt.Errorf("complete task: %w", err)
	}

	return Result{
		Success: true,
		Task:    updated,
		Message: fmt.Sprintf("برافو عليك! خلصت %s: %s 🎉", updated.ID, updated.Title),
	}, nil
}

// Skip marks a task skipped, storing the justification verbatim when one was
// given. Skipped is not terminal: the task can still be completed or shifted
// later the same day.
func (o *Ops) Skip(ctx context.Context, day, ref, justification string) (Result, error) {
	entry, res, err := o.lookup(ctx, day, ref)
	if entry == nil {
		return res, err
	}

	if entry.Status == store.StatusDone {
		return refuse(ErrAlreadyCompleted, fmt.Sprintf("%s خلصته خلاص، مفيش داعي تسيبه 😄", entry.ID)), nil
	}
	if entry.Status == store.StatusShifted {
		return refuse(ErrAlreadyShifted, fmt.Sprintf("%s اتأجل لـ%s، مش ممكن يتعدل هنا", entry.ID, entry.ShiftedTo)), nil
	}

	status := store.StatusSkipped
	patch := store.TaskPatch{Status: &status}
	if justification != "" {
		patch.SkipReason = &justification
	}
	updated, err := o.store.UpdateTask(ctx, day, entry.ID, patch)
	if err != nil {
		return Result{}, fmt.Errorf("skip task: %w", err)
	}

	return Result{
		Success: true,
		Task:    updated,
		Message: fmt.Sprintf("ماشي، سيبنا %s النهارده. لو غيرت رأيك قولي 👌", updated.ID),
	}, nil
}

// Shift moves a task to a future day: the source entry is marked shifted and
// a fresh pending copy is created on the target day with its origin recorded.
// The target date is validated before the task is even looked up, so a past
// date is always reported as such.
func (o *Ops) Shift(ctx context.Context, day, ref, targetDate, reason string) (Result, error) {
	if _, err := time.Parse(normalize.ISODate, targetDate); err != nil {
		return refuse(ErrPastDate, "محتاج تاريخ واضح عشان أأجل التاسك. إمتى تحب أنقله؟"), nil
	}
	if today := o.now().Format(normalize.ISODate); targetDate < today {
		return refuse(ErrPastDate, fmt.Sprintf("مش هينفع أأجل لتاريخ فات (%s). اختار يوم جاي", targetDate)), nil
	}

	entry, res, err := o.lookup(ctx, day, ref)
	if entry == nil {
		return res, err
	}

	if entry.Status == store.StatusDone {
		return refuse(ErrAlreadyCompleted, fmt.Sprintf("%s خلصته خلاص، مفيش حاجة تتأجل 🎉", entry.ID)), nil
	}
	if entry.Status == store.StatusShifted {
		return refuse(ErrAlreadyShifted, fmt.Sprintf("%s متأجل خلاص لـ%s", entry.ID, entry.ShiftedTo)), nil
	}

	status := store.StatusShifted
	if _, err := o.store.UpdateTask(ctx, day, entry.ID, store.TaskPatch{
		Status:      &status,
		ShiftedTo:   &targetDate,
		ShiftReason: &reason,
	}); err != nil {
		return Result{}, fmt.Errorf("shift task: mark source: %w", err)
	}

	forked, err := o.store.AddTask(ctx, targetDate, store.TaskFields{
		Title:       entry.Title,
		Description: entry.Description,
		Slot:        entry.Slot,
		Origin:      fmt.Sprintf("%s/%s", day, entry.ID),
	})
	if err != nil {
		return Result{}, fmt.Errorf("shift task: fork: %w", err)
	}

	return Result{
		Success: true,
		Task:    forked,
		Message: fmt.Sprintf("تمام، أجلت %q ليوم %s (%s هناك) 📅", entry.Title, targetDate, forked.ID),
	}, nil
}

// Update patches a task's title, description, or slot. Status is untouched,
// so updating works in any lifecycle state.
func (o *Ops) Update(ctx context.Context, day, ref string, e nlp.Entities) (Result, error) {
	entry, res, err := o.lookup(ctx, day, ref)
	if entry == nil {
		return res, err
	}

	patch := store.TaskPatch{}
	if e.TaskTitle != "" {
		patch.Title = &e.TaskTitle
	}
	if e.TaskDescription != "" {
		patch.Description = &e.TaskDescription
	}
	if e.TimeSlot != "" {
		patch.Slot = &e.TimeSlot
	}
	if patch.Title == nil && patch.Description == nil && patch.Slot == nil {
		return refuse(ErrNoUpdates, "تحب أغير إيه في التاسك؟ الاسم ولا الوقت؟"), nil
	}

	updated, err := o.store.UpdateTask(ctx, day, entry.ID, patch)
	if err != nil {
		return Result{}, fmt.Errorf("update task: %w", err)
	}

	return Result{
		Success: true,
		Task:    updated,
		Message: fmt.Sprintf("تمام، عدلت %s: %s (%s) ✏️", updated.ID, updated.Title, updated.Slot.ArabicName()),
	}, nil
}

// Delete removes a task entirely.
func (o *Ops) Delete(ctx context.Context, day, ref string) (Result, error) {
	entry, res, err := o.lookup(ctx, day, ref)
	if entry == nil {
		return res, err
	}

	if _, err := o.store.DeleteTask(ctx, day, entry.ID); err != nil {
		return Result{}, fmt.Errorf("delete task: %w", err)
	}

	return Result{
		Success: true,
		Task:    entry,
		Message: fmt.Sprintf("تمام، مسحت %s: %s 🗑️", entry.ID, entry.Title),
	}, nil
}

// FindSimilarInWeek scans the days around day (±3) for an open task whose
// title is similar enough to count as a duplicate. Done and shifted tasks are
// ignored. Returns nil when nothing clears the threshold; on ties, the first
// match in scan order wins.
func (o *Ops) FindSimilarInWeek(ctx context.Context, day, title string, threshold float64) (*Match, error) {
	center, err := time.Parse(normalize.ISODate, day)
	if err != nil {
		return nil, fmt.Errorf("find similar: bad day %q: %w", day, err)
	}

	var best *Match
	for offset := -duplicateWindow; offset <= duplicateWindow; offset++ {
		scanDay := center.AddDate(0, 0, offset).Format(normalize.ISODate)
		rec, err := o.store.GetDay(ctx, scanDay)
		if err != nil {
			return nil, fmt.Errorf("find similar: %w", err)
		}
		for i := range rec.Tasks {
			t := &rec.Tasks[i]
			if t.Status == store.StatusDone || t.Status == store.StatusShifted {
				continue
			}
			score := normalize.Similarity(title, t.Title)
			if score < threshold {
				continue
			}
			if best == nil || score > best.Score {
				best = &Match{Task: t, Day: scanDay, Score: score}
			}
		}
	}
	return best, nil
}

// lookup resolves a task reference on one day. When the task is absent it
// returns a nil entry together with the refusal Result the caller should
// pass through.
func (o *Ops) lookup(ctx context.Context, day, ref string) (*store.TaskEntry, Result, error) {
	id := normalize.TaskReference(ref)
	entry, err := o.store.GetTask(ctx, day, id)
	if err != nil {
		return nil, Result{}, fmt.Errorf("lookup task: %w", err)
	}
	if entry == nil {
		return nil, refuse(ErrNotFound, fmt.Sprintf("مش لاقي تاسك %s النهارده. اكتب \"التاسكات\" تشوف الموجود", id)), nil
	}
	return entry, Result{}, nil
}
