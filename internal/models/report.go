package models

// DailyReport summarizes one user-day of tasks.
type DailyReport struct {
	Date           string `json:"date"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	LateTasks      int    `json:"late_tasks"`
	PendingTasks   int    `json:"pending_tasks"`
	Rating         string `json:"rating"`
}

// DayStats is one row of the weekly summary.
type DayStats struct {
	TaskDate       string `json:"task_date"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	LateTasks      int    `json:"late_tasks"`
}

// OverallStats aggregates a user's whole history.
type OverallStats struct {
	TotalTasks     int `json:"total_tasks"`
	TotalCompleted int `json:"total_completed"`
	TotalLate      int `json:"total_late"`
	ActiveDays     int `json:"active_days"`
}

// Rating buckets a day's performance from its completion and late rates.
func Rating(total, completed, late int) string {
	if total == 0 {
		return "Good"
	}
	completionRate := float64(completed) / float64(total) * 100
	lateRate := float64(late) / float64(total) * 100
	switch {
	case completionRate >= 90 && lateRate <= 10:
		return "Excellent"
	case completionRate >= 70 && lateRate <= 30:
		return "Better"
	default:
		return "Good"
	}
}
