package models

import (
	"testing"
	"time"
)

func TestFinalStatus(t *testing.T) {
	cases := []struct {
		alertCount int
		want       string
	}{
		{0, StatusDone},
		{1, StatusDone},
		{2, StatusDone},
		{3, StatusLate},
		{4, StatusLate},
	}
	for _, tc := range cases {
		if got := FinalStatus(tc.alertCount); got != tc.want {
			t.Errorf("FinalStatus(%d) = %s, want %s", tc.alertCount, got, tc.want)
		}
	}
}

func TestOverdue(t *testing.T) {
	grace := 30 * time.Minute
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	task := func(status, date, clock string) Task {
		return Task{Status: status, TaskDate: date, TaskTime: clock}
	}

	cases := []struct {
		name string
		t    Task
		want bool
	}{
		{"pending past grace", task(StatusPending, "2025-06-02", "09:00:00"), true},
		{"pending within grace", task(StatusPending, "2025-06-02", "09:45:00"), false},
		{"pending not yet due", task(StatusPending, "2025-06-02", "11:00:00"), false},
		{"done never overdue", task(StatusDone, "2025-06-02", "08:00:00"), false},
		{"late never overdue", task(StatusLate, "2025-06-02", "08:00:00"), false},
		{"exactly at grace boundary", task(StatusPending, "2025-06-02", "09:30:00"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.t.Overdue(now, grace); got != tc.want {
				t.Errorf("Overdue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeClock(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:30", "09:30:00", false},
		{"09:30:15", "09:30:15", false},
		{"23:59", "23:59:00", false},
		{"9:30", "", true},
		{"9:30:00", "", true},
		{"09:30:1", "", true},
		{"25:00", "", true},
		{"not a time", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeClock(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("NormalizeClock(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeClock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	if _, err := NormalizeDate("2025-06-02"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	if _, err := NormalizeDate("02-06-2025"); err == nil {
		t.Error("invalid date accepted")
	}
}
