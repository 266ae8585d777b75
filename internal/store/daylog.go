package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"murshid/internal/schedule"
)

// Task status values. Only done and shifted are terminal; a skipped task may
// still be completed or shifted later.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusSkipped = "skipped"
	StatusShifted = "shifted"
)

// HabitDefinition is a configured habit, independent of any particular day.
type HabitDefinition struct {
	ID                    string
	Name                  string
	Slot                  schedule.Slot
	RequiresJustification bool
}

// HabitEntry is a habit definition joined with its status on one day.
type HabitEntry struct {
	ID                    string
	Name                  string
	Slot                  schedule.Slot
	RequiresJustification bool
	Status                string // pending | done | skipped
	Justification         string
}

// TaskEntry is one task on one day. IDs (t-NNN) are unique only within the
// day; cross-day identity is carried by ShiftedTo/Origin provenance.
type TaskEntry struct {
	ID          string
	Title       string
	Description string
	Slot        schedule.Slot
	Status      string
	CompletedAt *time.Time
	CreatedAt   time.Time
	Images      []string
	ShiftedTo   string
	ShiftReason string
	SkipReason  string
	Origin      string
}

// TaskFields holds the writable fields for creating a task.
type TaskFields struct {
	Title       string
	Description string
	Slot        schedule.Slot
	Origin      string
}

// TaskPatch holds a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Slot        *schedule.Slot
	Status      *string
	CompletedAt *time.Time
	ShiftedTo   *string
	ShiftReason *string
	SkipReason  *string
}

// DayRecord is the full state of one day: every active habit with its status,
// plus the day's tasks in creation order.
type DayRecord struct {
	Day    string
	Habits []HabitEntry
	Tasks  []TaskEntry
}

// SeedHabits reconciles the habits table with the configured definitions:
// configured habits are upserted and marked active, anything no longer
// configured is deactivated (history referencing it is kept).
func (s *Store) SeedHabits(ctx context.Context, defs []HabitDefinition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed habits: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE habits SET active = 0"); err != nil {
		return fmt.Errorf("seed habits: deactivate: %w", err)
	}
	for _, d := range defs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO habits (id, name, time_slot, requires_justification, active)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				time_slot = excluded.time_slot,
				requires_justification = excluded.requires_justification,
				active = 1
		`, d.ID, d.Name, string(d.Slot), boolToInt(d.RequiresJustification))
		if err != nil {
			return fmt.Errorf("seed habits: upsert %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// GetDay returns the full record for one day. Days with no activity yet are
// returned with all habits pending and no tasks, never as an error.
func (s *Store) GetDay(ctx context.Context, day string) (*DayRecord, error) {
	rec := &DayRecord{Day: day}

	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.name, h.time_slot, h.requires_justification,
		       COALESCE(l.status, ?), COALESCE(l.justification, '')
		FROM habits h
		LEFT JOIN habit_log l ON l.habit_id = h.id AND l.day = ?
		WHERE h.active = 1
		ORDER BY h.id
	`, StatusPending, day)
	if err != nil {
		return nil, fmt.Errorf("get day %s: habits: %w", day, err)
	}
	defer rows.Close()
	for rows.Next() {
		var h HabitEntry
		var slot string
		var requires int
		if err := rows.Scan(&h.ID, &h.Name, &slot, &requires, &h.Status, &h.Justification); err != nil {
			return nil, fmt.Errorf("get day %s: scan habit: %w", day, err)
		}
		h.Slot = schedule.Slot(slot)
		h.RequiresJustification = requires != 0
		rec.Habits = append(rec.Habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get day %s: habits: %w", day, err)
	}

	taskRows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, time_slot, status, completed_at, created_at,
		       images, shifted_to, shift_reason, skip_reason, origin
		FROM tasks WHERE day = ? ORDER BY id
	`, day)
	if err != nil {
		return nil, fmt.Errorf("get day %s: tasks: %w", day, err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		t, err := scanTask(taskRows)
		if err != nil {
			return nil, fmt.Errorf("get day %s: %w", day, err)
		}
		rec.Tasks = append(rec.Tasks, *t)
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("get day %s: tasks: %w", day, err)
	}

	return rec, nil
}

// AddTask creates a new task on the given day, assigning the next monotonic
// t-NNN ID for that day.
func (s *Store) AddTask(ctx context.Context, day string, fields TaskFields) (*TaskEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("add task: begin: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx, "SELECT next FROM task_seq WHERE day = ?", day).Scan(&next)
	switch {
	case err == sql.ErrNoRows:
		next = 1
		if _, err := tx.ExecContext(ctx, "INSERT INTO task_seq (day, next) VALUES (?, 2)", day); err != nil {
			return nil, fmt.Errorf("add task: init seq: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("add task: read seq: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, "UPDATE task_seq SET next = ? WHERE day = ?", next+1, day); err != nil {
			return nil, fmt.Errorf("add task: bump seq: %w", err)
		}
	}

	entry := &TaskEntry{
		ID:          fmt.Sprintf("t-%03d", next),
		Title:       fields.Title,
		Description: fields.Description,
		Slot:        fields.Slot,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
		Origin:      fields.Origin,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (day, id, title, description, time_slot, status, created_at, images, origin)
		VALUES (?, ?, ?, ?, ?, ?, ?, '[]', ?)
	`, day, entry.ID, entry.Title, entry.Description, string(entry.Slot), entry.Status,
		entry.CreatedAt, entry.Origin)
	if err != nil {
		return nil, fmt.Errorf("add task: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("add task: commit: %w", err)
	}
	return entry, nil
}

// GetTask returns one task, or (nil, nil) when the day has no task with that ID.
func (s *Store) GetTask(ctx context.Context, day, id string) (*TaskEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, time_slot, status, completed_at, created_at,
		       images, shifted_to, shift_reason, skip_reason, origin
		FROM tasks WHERE day = ? AND id = ?
	`, day, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s/%s: %w", day, id, err)
	}
	return t, nil
}

// UpdateTask applies a partial update and returns the updated entry, or
// (nil, nil) when the task does not exist.
func (s *Store) UpdateTask(ctx context.Context, day, id string, patch TaskPatch) (*TaskEntry, error) {
	existing, err := s.GetTask(ctx, day, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if patch.Title != nil {
		existing.Title = *patch.Title
	}
	if patch.Description != nil {
		existing.Description = *patch.Description
	}
	if patch.Slot != nil {
		existing.Slot = *patch.Slot
	}
	if patch.Status != nil {
		existing.Status = *patch.Status
	}
	if patch.CompletedAt != nil {
		existing.CompletedAt = patch.CompletedAt
	}
	if patch.ShiftedTo != nil {
		existing.ShiftedTo = *patch.ShiftedTo
	}
	if patch.ShiftReason != nil {
		existing.ShiftReason = *patch.ShiftReason
	}
	if patch.SkipReason != nil {
		existing.SkipReason = *patch.SkipReason
	}

	images, err := json.Marshal(existing.Images)
	if err != nil {
		return nil, fmt.Errorf("update task %s/%s: encode images: %w", day, id, err)
	}
	if existing.Images == nil {
		images = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, time_slot = ?, status = ?,
		       completed_at = ?, images = ?, shifted_to = ?, shift_reason = ?, skip_reason = ?
		WHERE day = ? AND id = ?
	`, existing.Title, existing.Description, string(existing.Slot), existing.Status,
		existing.CompletedAt, string(images), existing.ShiftedTo, existing.ShiftReason,
		existing.SkipReason, day, id)
	if err != nil {
		return nil, fmt.Errorf("update task %s/%s: %w", day, id, err)
	}
	return existing, nil
}

// DeleteTask removes a task, reporting whether a row was deleted.
func (s *Store) DeleteTask(ctx context.Context, day, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE day = ? AND id = ?", day, id)
	if err != nil {
		return false, fmt.Errorf("delete task %s/%s: %w", day, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task %s/%s: rows affected: %w", day, id, err)
	}
	return n > 0, nil
}

// UpdateHabitStatus records the status of one habit on one day, overwriting
// any earlier status for that day.
func (s *Store) UpdateHabitStatus(ctx context.Context, day, habitID, status, justification string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM habits WHERE id = ? AND active = 1", habitID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("habit status %s/%s: %w", day, habitID, err)
	}
	if exists == 0 {
		return fmt.Errorf("habit status %s/%s: unknown habit", day, habitID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO habit_log (day, habit_id, status, justification, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(day, habit_id) DO UPDATE SET
			status = excluded.status,
			justification = excluded.justification,
			updated_at = CURRENT_TIMESTAMP
	`, day, habitID, status, justification)
	if err != nil {
		return fmt.Errorf("habit status %s/%s: %w", day, habitID, err)
	}
	return nil
}

// AppendTaskImage attaches an image URL to a task's image list.
func (s *Store) AppendTaskImage(ctx context.Context, day, id, url string) error {
	entry, err := s.GetTask(ctx, day, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("append image %s/%s: task not found", day, id)
	}
	images, err := json.Marshal(append(entry.Images, url))
	if err != nil {
		return fmt.Errorf("append image %s/%s: encode: %w", day, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE tasks SET images = ? WHERE day = ? AND id = ?",
		string(images), day, id)
	if err != nil {
		return fmt.Errorf("append image %s/%s: %w", day, id, err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner) (*TaskEntry, error) {
	var t TaskEntry
	var slot, images string
	var completedAt sql.NullTime
	if err := r.Scan(&t.ID, &t.Title, &t.Description, &slot, &t.Status,
		&completedAt, &t.CreatedAt, &images, &t.ShiftedTo, &t.ShiftReason,
		&t.SkipReason, &t.Origin); err != nil {
		return nil, err
	}
	t.Slot = schedule.Slot(slot)
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}
	if err := json.Unmarshal([]byte(images), &t.Images); err != nil {
		return nil, fmt.Errorf("scan task %s: decode images: %w", t.ID, err)
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
