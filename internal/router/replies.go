package router

import (
	"fmt"
	"strings"

	"murshid/internal/store"
)

// Canned Arabic replies. Task and habit operations carry their own messages;
// these cover the conversational glue.
const (
	replyGreeting = "أهلاً! 👋 أنا مرشد، بساعدك تتابع عاداتك وتاسكاتك. قولي \"إيه النظام\" أي وقت تشوف حالتك."

	replyHelp = `أنا بفهم كلام عادي، عربي أو إنجليزي. أمثلة:
• "قريت القرآن" — أعلم على عادة إنها خلصت
• "مش هتمشى النهارده" — أعلم عليها إنها اتفوتت
• "ضيف تاسك اشتري خضار بعد الضهر" — أضيف تاسك جديد
• "خلصت t-001" / "أجل t-002 لبكرة" — أتابع التاسكات
• "إيه النظام" — ملخص اليوم
• "إيه أخبار الأسبوع" — ملخص الأسبوع`

	replyLowConfidence = "معلش، مش متأكد إني فهمت. ممكن تقولها بطريقة تانية؟"

	replyNothingPending  = "مفيش حاجة مستنية تأكيد دلوقتي. قولي تحب تعمل إيه 🙂"
	replyCancelled       = "تمام، ولا كأن حاجة حصلت 👍"
	replyInternalError   = "حصلت مشكلة عندي، جرب تاني كمان شوية 🙏"
	replyAudioFailed     = "معرفتش أسمع الرسالة الصوتية، ممكن تكتبها؟"
	replyAskShiftDate    = "تمام، أأجلها لإمتى؟ (بكرة، الخميس، أو تاريخ معين)"
	replyBadShiftDate    = "مش فاهم التاريخ. قولي يوم زي \"بكرة\" أو \"الخميس\" أو 2026-03-01"
	replyAskImageTag     = "حلوة الصورة! 📷 دي بتاعة أنهي تاسك؟"
	replyImageTagMissed  = "مش عارف أربط الصورة بأنهي تاسك. قولي رقمه، زي t-001"
	replyAskWhichHabit   = "قصدك أنهي عادة؟"
	replyNoHabits        = "مفيش عادات متسجلة لسه."
	replyAskSkipReason   = "ولا يهمك. بس قولي ليه عشان نفهم إيه اللي بيعطلك؟"
	replySkipNoted       = "تمام، سجلتها. يلا بكرة يوم جديد 💪"
	replyJustificationOK = "فهمتك، سجلت السبب. خليك فاكر إن المداومة أهم من الكمال ✨"
)

func confirmPrompt(summary string) string {
	return fmt.Sprintf("أنا فاهم إنك عايز %s — صح؟ رد بـ\"أيوه\" أو \"لا\"", summary)
}

func duplicatePrompt(title, existingID, existingDay string) string {
	return fmt.Sprintf(
		"في تاسك شبه ده موجود خلاص: %s يوم %s. تحب أضيف %q برضه؟ (أيوه/لا)",
		existingID, existingDay, title,
	)
}

func statusEmoji(status string) string {
	switch status {
	case store.StatusDone:
		return "✅"
	case store.StatusSkipped:
		return "⏭️"
	case store.StatusShifted:
		return "📅"
	default:
		return "⬜"
	}
}

func formatHabitList(habits []store.HabitEntry) string {
	if len(habits) == 0 {
		return replyNoHabits
	}
	var b strings.Builder
	b.WriteString("عاداتك:\n")
	for _, h := range habits {
		fmt.Fprintf(&b, "%s %s (%s)\n", statusEmoji(h.Status), h.Name, h.Slot.ArabicName())
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTaskList(tasks []store.TaskEntry) string {
	if len(tasks) == 0 {
		return "مفيش تاسكات النهارده. ضيف واحد لو حابب 🙂"
	}
	var b strings.Builder
	b.WriteString("تاسكات النهارده:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "%s %s: %s (%s)\n", statusEmoji(t.Status), t.ID, t.Title, t.Slot.ArabicName())
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDailySummary(rec *store.DayRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ملخص يوم %s:\n", rec.Day)
	b.WriteString(formatHabitList(rec.Habits))
	b.WriteString("\n\n")
	b.WriteString(formatTaskList(rec.Tasks))
	return b.String()
}

// weekTally aggregates seven days of habit and task outcomes.
type weekTally struct {
	habitsDone    int
	habitsSkipped int
	tasksDone     int
	tasksOpen     int
	tasksShifted  int
}

func formatWeeklySummary(firstDay, lastDay string, tally weekTally) string {
	var b strings.Builder
	fmt.Fprintf(&b, "أسبوعك من %s لـ%s:\n", firstDay, lastDay)
	fmt.Fprintf(&b, "✅ عادات خلصت: %d\n", tally.habitsDone)
	fmt.Fprintf(&b, "⏭️ عادات اتفوتت: %d\n", tally.habitsSkipped)
	fmt.Fprintf(&b, "🎯 تاسكات خلصت: %d\n", tally.tasksDone)
	fmt.Fprintf(&b, "📅 تاسكات اتأجلت: %d\n", tally.tasksShifted)
	fmt.Fprintf(&b, "⬜ تاسكات لسه مفتوحة: %d", tally.tasksOpen)
	if tally.habitsDone+tally.tasksDone > tally.habitsSkipped {
		b.WriteString("\n\nشغل جامد! كمل 💪")
	}
	return b.String()
}
