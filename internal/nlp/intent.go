package nlp

// Intent is the closed vocabulary of things a user message can mean.
type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentHelp             Intent = "help"
	IntentHabitDone        Intent = "habit_done"
	IntentHabitSkipped     Intent = "habit_skipped"
	IntentHabitList        Intent = "habit_list"
	IntentHabitStatus      Intent = "habit_status"
	IntentTaskCreate       Intent = "task_create"
	IntentTaskComplete     Intent = "task_complete"
	IntentTaskSkip         Intent = "task_skip"
	IntentTaskShift        Intent = "task_shift"
	IntentTaskUpdate       Intent = "task_update"
	IntentTaskDelete       Intent = "task_delete"
	IntentTaskList         Intent = "task_list"
	IntentDailySummary     Intent = "daily_summary"
	IntentWeeklySummary    Intent = "weekly_summary"
	IntentConfirmation     Intent = "confirmation"
	IntentRejection        Intent = "rejection"
	IntentImageTagResponse Intent = "image_tag_response"
	IntentUnclear          Intent = "unclear"
)

var allIntents = map[Intent]bool{
	IntentGreeting:         true,
	IntentHelp:             true,
	IntentHabitDone:        true,
	IntentHabitSkipped:     true,
	IntentHabitList:        true,
	IntentHabitStatus:      true,
	IntentTaskCreate:       true,
	IntentTaskComplete:     true,
	IntentTaskSkip:         true,
	IntentTaskShift:        true,
	IntentTaskUpdate:       true,
	IntentTaskDelete:       true,
	IntentTaskList:         true,
	IntentDailySummary:     true,
	IntentWeeklySummary:    true,
	IntentConfirmation:     true,
	IntentRejection:        true,
	IntentImageTagResponse: true,
	IntentUnclear:          true,
}

// Valid reports whether i belongs to the known intent vocabulary.
func (i Intent) Valid() bool {
	return allIntents[i]
}

// Mutating reports whether acting on i changes stored state. Mutating intents
// are held behind confirmation below the high-confidence threshold.
func (i Intent) Mutating() bool {
	switch i {
	case IntentHabitDone, IntentHabitSkipped,
		IntentTaskCreate, IntentTaskComplete, IntentTaskSkip,
		IntentTaskShift, IntentTaskUpdate, IntentTaskDelete:
		return true
	}
	return false
}
