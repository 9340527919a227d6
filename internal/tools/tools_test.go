package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/provider"
	"github.com/ai-scheduler/agent-gateway/pkg/logger"
)

func newTestRegistry(t *testing.T, base string) *Registry {
	t.Helper()
	return NewRegistry(provider.New(base, base, logger.NewNop()))
}

func runTool(t *testing.T, r *Registry, name, args string, auth model.AuthContext) (string, error) {
	t.Helper()
	descriptor, ok := r.Get(name)
	require.True(t, ok, "tool %q not registered", name)
	return descriptor.Execute(context.Background(), json.RawMessage(args), auth)
}

func TestRegistry_RegistersAllTools(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	expected := []string{
		"get_calendars", "get_events", "create_event", "search_events", "get_free_busy",
		"get_task_lists", "get_tasks", "create_task",
		"get_current_time", "calculate_time_difference", "format_datetime", "add_time",
	}
	require.ElementsMatch(t, expected, r.Names())

	schemas := r.Schemas()
	require.Len(t, schemas, len(expected))
	for _, s := range schemas {
		require.NotEmpty(t, s.Name)
		require.NotEmpty(t, s.Description)
		require.True(t, json.Valid(s.Parameters), "schema for %s is not valid JSON", s.Name)
	}
}

func TestCalendarTools_RequireCredential(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	for _, name := range []string{"get_calendars", "get_events", "create_event", "get_task_lists"} {
		_, err := runTool(t, r, name, `{}`, model.AuthContext{})
		require.Error(t, err, "tool %s", name)

		var toolErr *Error
		require.ErrorAs(t, err, &toolErr)
		require.Equal(t, KindMissingCredential, toolErr.Kind)
	}
}

func TestTimeTools_NoCredentialNeeded(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	out, err := runTool(t, r, "get_current_time", `{}`, model.AuthContext{})
	require.NoError(t, err)
	require.Contains(t, out, "Current date and time:")
}

func TestCalculateTimeDifference(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	out, err := runTool(t, r, "calculate_time_difference",
		`{"startTime":"2026-03-10T10:00:00Z","endTime":"2026-03-10T11:30:00Z"}`,
		model.AuthContext{})
	require.NoError(t, err)
	require.Contains(t, out, "- 90 minutes")
	require.Contains(t, out, "- 1 hours")
	require.Contains(t, out, "- 0 days")
	require.NotContains(t, out, "negative duration")
}

func TestCalculateTimeDifference_Negative(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	out, err := runTool(t, r, "calculate_time_difference",
		`{"startTime":"2026-03-10T11:00:00Z","endTime":"2026-03-10T10:00:00Z"}`,
		model.AuthContext{})
	require.NoError(t, err)
	require.Contains(t, out, "- 60 minutes")
	require.Contains(t, out, "negative duration")
}

func TestAddTime(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	tests := []struct {
		args string
		want string
	}{
		{`{"dateTime":"2026-03-10T10:00:00Z","amount":90,"unit":"minutes"}`, "Result: 2026-03-10T11:30:00.000Z"},
		{`{"dateTime":"2026-03-10T10:00:00Z","amount":2,"unit":"weeks"}`, "Result: 2026-03-24T10:00:00.000Z"},
		{`{"dateTime":"2026-01-31T00:00:00Z","amount":1,"unit":"months"}`, "Result: 2026-03-03T00:00:00.000Z"},
		{`{"dateTime":"2026-03-10T10:00:00Z","amount":-1,"unit":"days"}`, "Result: 2026-03-09T10:00:00.000Z"},
	}

	for _, tt := range tests {
		out, err := runTool(t, r, "add_time", tt.args, model.AuthContext{})
		require.NoError(t, err)
		require.Equal(t, tt.want, out)
	}
}

func TestAddTime_InvalidUnit(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	_, err := runTool(t, r, "add_time",
		`{"dateTime":"2026-03-10T10:00:00Z","amount":1,"unit":"fortnights"}`,
		model.AuthContext{})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, KindInvalidArgument, toolErr.Kind)
}

func TestFormatDatetime_UnknownFormat(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")

	_, err := runTool(t, r, "format_datetime",
		`{"dateTime":"2026-03-10T10:00:00Z","format":"roman"}`,
		model.AuthContext{})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, KindInvalidArgument, toolErr.Kind)
}

func TestCreateEvent_MissingFields(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")
	auth := model.AuthContext{AccessToken: "tok"}

	_, err := runTool(t, r, "create_event", `{"startDateTime":"2026-03-10T10:00:00Z","endDateTime":"2026-03-10T11:00:00Z"}`, auth)
	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, KindInvalidArgument, toolErr.Kind)
	require.Contains(t, toolErr.Message, "title")

	_, err = runTool(t, r, "create_event", `{"title":"Reunión","endDateTime":"2026-03-10T11:00:00Z"}`, auth)
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, KindInvalidArgument, toolErr.Kind)
}

func TestGetEvents_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"backend exploded"}}`))
	}))
	defer srv.Close()

	r := newTestRegistry(t, srv.URL)

	_, err := runTool(t, r, "get_events", `{}`, model.AuthContext{AccessToken: "tok"})
	require.Error(t, err)

	var toolErr *Error
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, KindUpstreamFailure, toolErr.Kind)
	require.Equal(t, http.StatusInternalServerError, toolErr.Status)
	require.Contains(t, toolErr.Message, "backend exploded")
}

func TestGetEvents_Defaults(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	r := newTestRegistry(t, srv.URL)

	out, err := runTool(t, r, "get_events", `{}`, model.AuthContext{AccessToken: "tok"})
	require.NoError(t, err)
	require.Contains(t, out, `"items"`)

	require.Equal(t, "/calendars/primary/events", gotPath)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Equal(t, []string{"10"}, gotQuery["maxResults"])
	require.Equal(t, []string{"true"}, gotQuery["singleEvents"])
	require.Equal(t, []string{"startTime"}, gotQuery["orderBy"])
	require.NotEmpty(t, gotQuery["timeMin"])
	require.NotEmpty(t, gotQuery["timeMax"])
}

func TestExecutor_FoldsFailures(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")
	e := NewExecutor(r, logger.NewNop())

	result := e.Run(context.Background(),
		model.ToolCallRequest{ID: "call_1", Name: "get_calendars", Arguments: json.RawMessage(`{}`)},
		model.AuthContext{})
	require.True(t, result.Failed)
	require.Equal(t, "call_1", result.CallID)
	require.Contains(t, result.Content, "Error executing get_calendars")
	require.Contains(t, result.Content, "access token not provided")
}

func TestExecutor_UnknownTool(t *testing.T) {
	r := newTestRegistry(t, "http://localhost:0")
	e := NewExecutor(r, logger.NewNop())

	result := e.Run(context.Background(),
		model.ToolCallRequest{ID: "call_1", Name: "summon_demon", Arguments: json.RawMessage(`{}`)},
		model.AuthContext{})
	require.True(t, result.Failed)
	require.Contains(t, result.Content, `unknown tool "summon_demon"`)
}

func TestClassify(t *testing.T) {
	apiErr := &provider.APIError{Status: 403, Message: "forbidden"}
	classified := classify(apiErr)

	var toolErr *Error
	require.ErrorAs(t, classified, &toolErr)
	require.Equal(t, KindUpstreamFailure, toolErr.Kind)
	require.Equal(t, 403, toolErr.Status)

	// already-classified errors pass through untouched
	original := errInvalidArgument("bad date")
	require.Same(t, original, classify(original))

	plain := classify(errors.New("dial tcp: refused"))
	require.ErrorAs(t, plain, &toolErr)
	require.Equal(t, KindUpstreamFailure, toolErr.Kind)
}
