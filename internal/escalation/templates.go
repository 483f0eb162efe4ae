package escalation

import (
	"fmt"
	"time"
)

// Fixed message templates, keyed by stage number. Only the user name,
// the task name and (for stage 1) the due time are interpolated.

func StageMessage(stage int, userName, taskName string, dueAt time.Time) string {
	switch stage {
	case 1:
		return fmt.Sprintf(
			"⏰ TaskMate - Alert 1/3\n\nHi %s!\n\nIt's time for: %q\nScheduled at: %s\n\nComplete it now to stay on track!\n\n- TaskMate",
			userName, taskName, dueAt.Format("3:04 PM"))
	case 2:
		return fmt.Sprintf(
			"⚠️ TaskMate - Reminder 2/3\n\nHi %s!\n\nYou have a pending task: %q\n\nThis is your second reminder. Please complete it soon to avoid marking it as late!\n\n- TaskMate",
			userName, taskName)
	case 3:
		return fmt.Sprintf(
			"🚨 TaskMate - Final Reminder 3/3\n\nHi %s!\n\nTask: %q\n\nThis is your final reminder! If not completed, this task will be marked as late.\n\nPlease complete it now!\n\n- TaskMate",
			userName, taskName)
	default:
		return ""
	}
}

func EndOfDayMessage(userName string) string {
	return fmt.Sprintf(
		"🎉 Great job %s!\n\nYou've completed all your tasks for today!\n\nLet's build tomorrow's list and keep the momentum going!\n\n- TaskMate",
		userName)
}
