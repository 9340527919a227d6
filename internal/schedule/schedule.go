// Package schedule provides pure snapshot analytics shared by the command
// interpreter and the agent's context enrichment. Nothing here mutates the
// snapshot or calls the provider.
package schedule

import (
	"sort"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/model"
)

// TimeSlot is a free interval in a day.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Minutes returns the slot length in whole minutes.
func (s TimeSlot) Minutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// WorkloadLevel classifies a day's load.
type WorkloadLevel string

const (
	WorkloadLight    WorkloadLevel = "light"
	WorkloadModerate WorkloadLevel = "moderate"
	WorkloadHeavy    WorkloadLevel = "heavy"
)

// Workload is the analysis of one day.
type Workload struct {
	EventsCount  int           `json:"eventsCount"`
	PendingTasks int           `json:"pendingTasks"`
	BusyHours    float64       `json:"busyHours"`
	FreeSlots    []TimeSlot    `json:"freeSlots"`
	Level        WorkloadLevel `json:"workloadLevel"`
}

// TasksSummary buckets tasks by state.
type TasksSummary struct {
	Pending   []model.Task `json:"pending"`
	Completed []model.Task `json:"completed"`
	Overdue   []model.Task `json:"overdue"`
}

// DateEvents returns events fully contained in the given day.
func DateEvents(events []model.Event, date time.Time) []model.Event {
	dayStart := StartOfDay(date)
	dayEnd := EndOfDay(date)

	var out []model.Event
	for _, e := range events {
		start, okStart := e.Start.Time()
		end, okEnd := e.End.Time()
		if !okStart || !okEnd {
			continue
		}
		if !start.Before(dayStart) && !end.After(dayEnd) {
			out = append(out, e)
		}
	}
	return out
}

// EventsWithinHours returns events starting or ending within the next N
// hours from now.
func EventsWithinHours(events []model.Event, hours int, now time.Time) []model.Event {
	horizon := now.Add(time.Duration(hours) * time.Hour)

	var out []model.Event
	for _, e := range events {
		start, okStart := e.Start.Time()
		end, okEnd := e.End.Time()
		if !okStart || !okEnd {
			continue
		}
		startsInWindow := !start.Before(now) && !start.After(horizon)
		endsInWindow := !end.Before(now) && !end.After(horizon)
		if startsInWindow || endsInWindow {
			out = append(out, e)
		}
	}
	return out
}

// SortByStart returns the events ordered by start time, earliest first.
func SortByStart(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Start.Time()
		b, _ := out[j].Start.Time()
		return a.Before(b)
	})
	return out
}

// FindFreeSlots scans the day from 06:00 to 23:59:59.999 local and reports
// every gap at least durationMinutes long, including before the first event
// and after the last.
func FindFreeSlots(events []model.Event, date time.Time, durationMinutes int) []TimeSlot {
	windowStart := time.Date(date.Year(), date.Month(), date.Day(), 6, 0, 0, 0, date.Location())
	windowEnd := EndOfDay(date)
	minGap := time.Duration(durationMinutes) * time.Minute

	day := SortByStart(DateEvents(events, date))

	var slots []TimeSlot
	current := windowStart

	for _, e := range day {
		start, _ := e.Start.Time()
		end, _ := e.End.Time()

		if start.Sub(current) >= minGap {
			slots = append(slots, TimeSlot{Start: current, End: start})
		}
		if end.After(current) {
			current = end
		}
	}

	if windowEnd.Sub(current) >= minGap {
		slots = append(slots, TimeSlot{Start: current, End: windowEnd})
	}

	return slots
}

// SummarizeTasks buckets tasks into pending/completed/overdue.
func SummarizeTasks(tasks []model.Task, now time.Time) TasksSummary {
	var summary TasksSummary
	for _, t := range tasks {
		switch t.Status {
		case model.TaskStatusNeedsAction:
			summary.Pending = append(summary.Pending, t)
			if due, ok := t.DueTime(); ok && due.Before(now) {
				summary.Overdue = append(summary.Overdue, t)
			}
		case model.TaskStatusCompleted:
			summary.Completed = append(summary.Completed, t)
		}
	}
	return summary
}

// UpcomingDeadlines returns pending tasks due within the next N days,
// soonest first.
func UpcomingDeadlines(tasks []model.Task, days int, now time.Time) []model.Task {
	horizon := now.Add(time.Duration(days) * 24 * time.Hour)

	var out []model.Task
	for _, t := range tasks {
		if t.Status != model.TaskStatusNeedsAction {
			continue
		}
		due, ok := t.DueTime()
		if !ok {
			continue
		}
		if !due.Before(now) && !due.After(horizon) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].DueTime()
		b, _ := out[j].DueTime()
		return a.Before(b)
	})
	return out
}

// AnalyzeWorkload classifies one day. Thresholds: heavy when busy hours
// exceed 6 or pending tasks exceed 10; moderate when busy hours exceed 3 or
// pending tasks exceed 5; light otherwise.
func AnalyzeWorkload(events []model.Event, tasks []model.Task, date time.Time) Workload {
	day := DateEvents(events, date)
	freeSlots := FindFreeSlots(events, date, 60)

	pending := 0
	for _, t := range tasks {
		if t.Status == model.TaskStatusNeedsAction {
			pending++
		}
	}

	busyHours := 0.0
	for _, e := range day {
		start, _ := e.Start.Time()
		end, _ := e.End.Time()
		busyHours += end.Sub(start).Hours()
	}

	level := WorkloadLight
	switch {
	case busyHours > 6 || pending > 10:
		level = WorkloadHeavy
	case busyHours > 3 || pending > 5:
		level = WorkloadModerate
	}

	return Workload{
		EventsCount:  len(day),
		PendingTasks: pending,
		BusyHours:    busyHours,
		FreeSlots:    freeSlots,
		Level:        level,
	}
}

// CountConflicts reports the number of overlapping event pairs.
func CountConflicts(events []model.Event) int {
	conflicts := 0
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			start1, ok1 := events[i].Start.Time()
			end1, ok2 := events[i].End.Time()
			start2, ok3 := events[j].Start.Time()
			end2, ok4 := events[j].End.Time()
			if !ok1 || !ok2 || !ok3 || !ok4 {
				continue
			}
			if start1.Before(end2) && start2.Before(end1) {
				conflicts++
			}
		}
	}
	return conflicts
}

// StartOfDay returns local midnight of the given day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 local of the given day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}
