package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/model"
)

// Time utility tools are pure computation: no credential, no provider call.
func timeDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:        "get_current_time",
			Description: "Get the current date and time in a specific timezone",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"timezone": {"type": "string", "description": "Timezone (e.g., 'America/New_York', 'Europe/Madrid'). Defaults to user's local timezone"}
				}
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				var in struct {
					Timezone string `json:"timezone"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				loc, name, err := resolveLocation(in.Timezone)
				if err != nil {
					return "", err
				}
				now := time.Now().In(loc)
				formatted := now.Format("Monday, 01/02/2006, 03:04:05 PM MST")
				return fmt.Sprintf("Current date and time: %s (%s)", formatted, name), nil
			},
		},
		{
			Name:        "calculate_time_difference",
			Description: "Calculate the time difference between two dates/times",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"startTime": {"type": "string", "description": "Start date/time in ISO format (e.g., '2023-12-25T10:00:00Z')"},
					"endTime": {"type": "string", "description": "End date/time in ISO format (e.g., '2023-12-25T11:30:00Z')"}
				},
				"required": ["startTime", "endTime"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				var in struct {
					StartTime string `json:"startTime"`
					EndTime   string `json:"endTime"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				start, err := parseRequiredTime("startTime", in.StartTime)
				if err != nil {
					return "", err
				}
				end, err := parseRequiredTime("endTime", in.EndTime)
				if err != nil {
					return "", err
				}

				diff := end.Sub(start)
				diffMs := diff.Milliseconds()
				diffMinutes := diffMs / (1000 * 60)
				diffHours := diffMinutes / 60
				diffDays := diffHours / 24

				var b strings.Builder
				fmt.Fprintf(&b, "Time difference between %s and %s:\n",
					start.UTC().Format(isoMillis), end.UTC().Format(isoMillis))
				fmt.Fprintf(&b, "- %d milliseconds\n", abs64(diffMs))
				fmt.Fprintf(&b, "- %d minutes\n", abs64(diffMinutes))
				fmt.Fprintf(&b, "- %d hours\n", abs64(diffHours))
				fmt.Fprintf(&b, "- %d days\n", abs64(diffDays))
				if diffMs < 0 {
					b.WriteString("\nNote: End time is before start time (negative duration)")
				}
				return b.String(), nil
			},
		},
		{
			Name:        "format_datetime",
			Description: "Format a date/time string in various formats",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"dateTime": {"type": "string", "description": "Date/time to format in ISO format"},
					"format": {"type": "string", "enum": ["iso", "short", "long", "time", "datetime"], "description": "Format type (defaults to 'datetime')"},
					"timezone": {"type": "string", "description": "Timezone for formatting (defaults to user's local timezone)"}
				},
				"required": ["dateTime"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				var in struct {
					DateTime string `json:"dateTime"`
					Format   string `json:"format"`
					Timezone string `json:"timezone"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				t, err := parseRequiredTime("dateTime", in.DateTime)
				if err != nil {
					return "", err
				}
				loc, name, err := resolveLocation(in.Timezone)
				if err != nil {
					return "", err
				}
				local := t.In(loc)

				var formatted string
				switch in.Format {
				case "iso":
					formatted = t.UTC().Format(isoMillis)
				case "short":
					formatted = local.Format("1/2/2006")
				case "long":
					formatted = local.Format("Monday, January 2, 2006")
				case "time":
					formatted = local.Format("3:04:05 PM")
				case "datetime", "":
					formatted = local.Format("1/2/2006, 3:04:05 PM")
				default:
					return "", errInvalidArgument("unknown format %q", in.Format)
				}
				return fmt.Sprintf("Formatted date/time: %s (%s)", formatted, name), nil
			},
		},
		{
			Name:        "add_time",
			Description: "Add a specific amount of time to a date/time",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"dateTime": {"type": "string", "description": "Base date/time in ISO format"},
					"amount": {"type": "number", "description": "Amount to add (can be negative to subtract)"},
					"unit": {"type": "string", "enum": ["minutes", "hours", "days", "weeks", "months", "years"], "description": "Unit of time to add"}
				},
				"required": ["dateTime", "amount", "unit"]
			}`),
			Execute: func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error) {
				var in struct {
					DateTime string `json:"dateTime"`
					Amount   int    `json:"amount"`
					Unit     string `json:"unit"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return "", err
				}
				t, err := parseRequiredTime("dateTime", in.DateTime)
				if err != nil {
					return "", err
				}

				switch in.Unit {
				case "minutes":
					t = t.Add(time.Duration(in.Amount) * time.Minute)
				case "hours":
					t = t.Add(time.Duration(in.Amount) * time.Hour)
				case "days":
					t = t.AddDate(0, 0, in.Amount)
				case "weeks":
					t = t.AddDate(0, 0, in.Amount*7)
				case "months":
					t = t.AddDate(0, in.Amount, 0)
				case "years":
					t = t.AddDate(in.Amount, 0, 0)
				default:
					return "", errInvalidArgument("invalid time unit %q", in.Unit)
				}
				return "Result: " + t.UTC().Format(isoMillis), nil
			},
		},
	}
}

const isoMillis = "2006-01-02T15:04:05.000Z"

func resolveLocation(timezone string) (*time.Location, string, error) {
	if timezone == "" {
		loc := time.Local
		return loc, loc.String(), nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, "", errInvalidArgument("unknown timezone %q", timezone)
	}
	return loc, timezone, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
