package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Neuron-Ecosystem/telegram-reminder-bot/internal/reminder"
)

const (
	confirmTimeFormat = "15:04 02-01-2006"
	listTimeFormat    = "15:04 02-01"
)

const helpText = `Hi! I'm a reminder bot.

How to add a reminder:
/remind <time> <text>

Examples:
/remind in 1 hour buy milk
/remind 11:30 standup
/remind через 1 час купить молоко

Other commands:
/list — show active reminders
/clear — delete all active reminders`

const storeErrorText = "Something went wrong, please try again."

func formatConfirm(r *reminder.Reminder) string {
	return fmt.Sprintf("✅ Will remind you at %s:\n%s", r.DueAt.Format(confirmTimeFormat), r.Text)
}

func formatList(active []reminder.Reminder) string {
	if len(active) == 0 {
		return "Nothing here! 🎉 You have no active reminders."
	}
	var b strings.Builder
	b.WriteString("📝 Your active reminders:\n")
	for i, r := range active {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, r.DueAt.Format(listTimeFormat), r.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatClear(n int64) string {
	if n == 0 {
		return "Nothing to delete, your reminder list is already empty."
	}
	return fmt.Sprintf("🗑️ Deleted %d active reminder(s).", n)
}

// creationErrorText maps a Store.Create failure to a user-facing reply. The
// three rejection classes (unparseable time, past time, missing text) must
// stay distinguishable so the user knows what to fix.
func creationErrorText(err error) string {
	switch {
	case errors.Is(err, reminder.ErrMissingBody):
		return "Please provide both a time and the reminder text.\nExample: /remind 17:00 team sync"
	case errors.Is(err, reminder.ErrPastTime):
		return "That time is in the past. Please give a future time."
	case errors.Is(err, reminder.ErrTextTooLong):
		return fmt.Sprintf("Reminder text is too long (max %d characters).", reminder.MaxTextLen)
	case errors.Is(err, reminder.ErrUnparseable):
		return "I couldn't recognize a future date/time.\nTry: /remind in 1 hour buy milk"
	default:
		return storeErrorText
	}
}
