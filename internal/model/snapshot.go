// Package model defines data structures for the agent gateway.
package model

import "time"

// Calendar is one calendar from the client's snapshot.
type Calendar struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
	Primary     bool   `json:"primary,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
	AccessRole  string `json:"accessRole,omitempty"`
}

// EventDateTime carries either a date-only (all-day) or a timed boundary.
type EventDateTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Time resolves the boundary to a concrete time. All-day dates resolve to
// local midnight. Returns false when neither field parses.
func (e EventDateTime) Time() (time.Time, bool) {
	if e.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, e.DateTime); err == nil {
			return t, true
		}
	}
	if e.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", e.Date, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Attendee is an event participant.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// Event is one calendar event from the client's snapshot.
type Event struct {
	ID          string        `json:"id"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	Status      string        `json:"status,omitempty"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
	Attendees   []Attendee    `json:"attendees,omitempty"`
	CalendarID  string        `json:"calendarId,omitempty"`
}

// Task statuses used by the provider.
const (
	TaskStatusNeedsAction = "needsAction"
	TaskStatusCompleted   = "completed"
)

// Task is one task from the client's snapshot.
type Task struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status"`
	Due        string `json:"due,omitempty"`
	Completed  string `json:"completed,omitempty"`
	TaskListID string `json:"taskListId,omitempty"`
}

// DueTime parses the task due date. Returns false when absent or malformed.
func (t Task) DueTime() (time.Time, bool) {
	if t.Due == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, t.Due)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// TaskList is one task list from the provider.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CalendarSnapshot is the client-supplied view of calendars, events, and
// tasks used for context enrichment and command shortcuts. The core never
// mutates it; writes go through tools against the live provider.
type CalendarSnapshot struct {
	Calendars []Calendar `json:"calendars"`
	Events    []Event    `json:"events"`
	Tasks     []Task     `json:"tasks"`
}
