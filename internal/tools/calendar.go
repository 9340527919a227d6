package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/provider"
)

const defaultCalendarID = "primary"

func calendarDescriptors(p *provider.Client) []Descriptor {
	return []Descriptor{
		{
			Name:        "get_calendars",
			Description: "Get a comprehensive list of all calendars for the authenticated user. Use this first when user asks about calendars or wants to create events without specifying a calendar. Returns calendar IDs, names, and properties.",
			Schema:      json.RawMessage(`{"type":"object","properties":{}}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				out, err := p.ListCalendars(ctx, auth.AccessToken)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
		{
			Name:        "get_events",
			Description: "Get events from a specific calendar within a date range. Defaults to primary calendar and today's events if no parameters specified. Use this to check user's schedule or find existing events.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"calendarId": {"type": "string", "description": "Calendar ID to fetch events from (defaults to 'primary')"},
					"startDate": {"type": "string", "description": "Start date in ISO format (defaults to today at midnight)"},
					"endDate": {"type": "string", "description": "End date in ISO format (defaults to tomorrow at midnight)"}
				}
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				var in struct {
					CalendarID string `json:"calendarId"`
					StartDate  string `json:"startDate"`
					EndDate    string `json:"endDate"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				if in.CalendarID == "" {
					in.CalendarID = defaultCalendarID
				}
				midnight := startOfDay(time.Now())
				start := midnight
				end := midnight.Add(24 * time.Hour)
				var err error
				if start, err = parseTimeArg("startDate", in.StartDate, start); err != nil {
					return "", err
				}
				if end, err = parseTimeArg("endDate", in.EndDate, end); err != nil {
					return "", err
				}
				out, err := p.ListEvents(ctx, auth.AccessToken, in.CalendarID,
					start.Format(time.RFC3339), end.Format(time.RFC3339))
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
		{
			Name:        "create_event",
			Description: "Create a new calendar event. Use get_calendars first if user doesn't specify a calendar. Always use EXACT calendar IDs from get_calendars - never modify them.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"calendarId": {"type": "string", "description": "EXACT Calendar ID from get_calendars where to create the event - DO NOT MODIFY. Defaults to 'primary' if not specified by user"},
					"title": {"type": "string", "description": "Event title/summary"},
					"description": {"type": "string", "description": "Event description"},
					"startDateTime": {"type": "string", "description": "Start date and time in ISO format (e.g., '2023-12-25T10:00:00')"},
					"endDateTime": {"type": "string", "description": "End date and time in ISO format (e.g., '2023-12-25T11:00:00')"},
					"location": {"type": "string", "description": "Event location"},
					"attendees": {"type": "array", "items": {"type": "string"}, "description": "Array of attendee email addresses"}
				},
				"required": ["title", "startDateTime", "endDateTime"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				var in struct {
					CalendarID    string   `json:"calendarId"`
					Title         string   `json:"title"`
					Description   string   `json:"description"`
					StartDateTime string   `json:"startDateTime"`
					EndDateTime   string   `json:"endDateTime"`
					Location      string   `json:"location"`
					Attendees     []string `json:"attendees"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				if in.Title == "" {
					return "", errInvalidArgument("title is required")
				}
				if _, err := parseRequiredTime("startDateTime", in.StartDateTime); err != nil {
					return "", err
				}
				if _, err := parseRequiredTime("endDateTime", in.EndDateTime); err != nil {
					return "", err
				}
				if in.CalendarID == "" {
					in.CalendarID = defaultCalendarID
				}

				timeZone := time.Now().Location().String()
				attendees := make([]map[string]string, 0, len(in.Attendees))
				for _, email := range in.Attendees {
					attendees = append(attendees, map[string]string{"email": email})
				}
				event := map[string]any{
					"summary":     in.Title,
					"description": in.Description,
					"location":    in.Location,
					"start":       map[string]string{"dateTime": in.StartDateTime, "timeZone": timeZone},
					"end":         map[string]string{"dateTime": in.EndDateTime, "timeZone": timeZone},
					"attendees":   attendees,
				}

				// no idempotency key: a retried call creates a duplicate
				out, err := p.CreateEvent(ctx, auth.AccessToken, in.CalendarID, event)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
		{
			Name:        "search_events",
			Description: "Search for events by text query across calendars. Use when user wants to find specific events by keywords.",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Text to search for in event titles and descriptions"},
					"calendarId": {"type": "string", "description": "Calendar ID to search in (defaults to 'primary')"},
					"maxResults": {"type": "number", "description": "Maximum number of results to return (defaults to 50)"}
				},
				"required": ["query"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				var in struct {
					Query      string `json:"query"`
					CalendarID string `json:"calendarId"`
					MaxResults int    `json:"maxResults"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				if in.Query == "" {
					return "", errInvalidArgument("query is required")
				}
				if in.CalendarID == "" {
					in.CalendarID = defaultCalendarID
				}
				if in.MaxResults <= 0 {
					in.MaxResults = 50
				}
				out, err := p.SearchEvents(ctx, auth.AccessToken, in.CalendarID, in.Query, in.MaxResults)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
		{
			Name:        "get_free_busy",
			Description: "Check free/busy time for one or more calendars to find available time slots",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"calendars": {"type": "array", "items": {"type": "string"}, "description": "Array of calendar IDs to check (e.g., ['primary', 'calendar-id-2'])"},
					"startDateTime": {"type": "string", "description": "Start date and time in ISO format"},
					"endDateTime": {"type": "string", "description": "End date and time in ISO format"}
				},
				"required": ["calendars", "startDateTime", "endDateTime"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				if !auth.HasToken() {
					return "", errMissingCredential()
				}
				var in struct {
					Calendars     []string `json:"calendars"`
					StartDateTime string   `json:"startDateTime"`
					EndDateTime   string   `json:"endDateTime"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				if len(in.Calendars) == 0 {
					return "", errInvalidArgument("calendars array is required")
				}
				if _, err := parseRequiredTime("startDateTime", in.StartDateTime); err != nil {
					return "", err
				}
				if _, err := parseRequiredTime("endDateTime", in.EndDateTime); err != nil {
					return "", err
				}
				out, err := p.FreeBusy(ctx, auth.AccessToken, in.Calendars, in.StartDateTime, in.EndDateTime)
				if err != nil {
					return "", classify(err)
				}
				return out, nil
			},
		},
	}
}

func decodeArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return errInvalidArgument("malformed arguments: %v", err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseTimeArg validates an optional ISO timestamp, falling back when empty.
func parseTimeArg(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return parseRequiredTime(field, value)
}

func parseRequiredTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errInvalidArgument("%s is required", field)
	}
	t, err := parseISOTime(value)
	if err != nil {
		return time.Time{}, errInvalidArgument("%s is not a valid ISO date: %q", field, value)
	}
	return t, nil
}

// parseISOTime accepts RFC 3339 with or without an offset, and date-only.
func parseISOTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
