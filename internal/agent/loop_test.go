package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai-scheduler/agent-gateway/internal/llm"
	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/provider"
	"github.com/ai-scheduler/agent-gateway/internal/tools"
	"github.com/ai-scheduler/agent-gateway/pkg/logger"
)

// scriptedClient replays canned completions, streaming each response's
// content one rune at a time. After the script runs out it keeps returning
// the last response.
type scriptedClient struct {
	script []llm.CompletionResponse
	calls  int
	seen   [][]llm.ChatMessage
	err    error
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return c.CompleteStream(ctx, req, func(string, int) error { return nil })
}

func (c *scriptedClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.seen = append(c.seen, req.Messages)

	idx := c.calls
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	c.calls++

	resp := c.script[idx]
	for i, r := range resp.Content {
		if err := callback(string(r), i); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func (c *scriptedClient) Name() string     { return "scripted" }
func (c *scriptedClient) Models() []string { return []string{"scripted"} }

func newTestLoop(t *testing.T, client llm.Client, maxTurns int) *Loop {
	t.Helper()
	log := logger.NewNop()
	registry := tools.NewRegistry(provider.New("http://localhost:0", "http://localhost:0", log))
	executor := tools.NewExecutor(registry, log)
	return NewLoop(client, registry, executor, "scripted", maxTurns, log)
}

func newTestConversation(t *testing.T, prompt string) *model.Conversation {
	t.Helper()
	conv := model.NewConversation()
	require.NoError(t, conv.Append(model.SystemMessage("system")))
	require.NoError(t, conv.Append(model.UserMessage(prompt)))
	return conv
}

func collectFrames(frames *[]model.Frame) Sink {
	return func(frame model.Frame) error {
		*frames = append(*frames, frame)
		return nil
	}
}

func frameTypes(frames []model.Frame) []model.FrameType {
	out := make([]model.FrameType, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

func TestLoop_TerminatesWithoutToolCalls(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		{Content: "hola"},
	}}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "saluda")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.NoError(t, err)
	require.Equal(t, 1, client.calls)

	// one message frame per rune of "hola"
	require.Len(t, frames, 4)
	for _, f := range frames {
		require.Equal(t, model.FrameMessage, f.Type)
	}

	last, ok := conv.Last()
	require.True(t, ok)
	require.Equal(t, model.RoleAssistant, last.Role)
	require.Equal(t, "hola", last.Content)
}

func TestLoop_ExecutesToolsThenAnswers(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "get_current_time", Arguments: `{}`},
		}},
		{Content: "ya"},
	}}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "¿qué hora es?")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)

	require.Equal(t, []model.FrameType{
		model.FrameToolStart,
		model.FrameToolEnd,
		model.FrameMessage,
		model.FrameMessage,
	}, frameTypes(frames))
	require.Equal(t, "get_current_time", frames[0].ToolName)
	require.Equal(t, "call_1", frames[0].ToolID)

	// second model turn saw the folded tool result
	secondTurn := client.seen[1]
	lastSeen := secondTurn[len(secondTurn)-1]
	require.Equal(t, "tool", lastSeen.Role)
	require.Equal(t, "call_1", lastSeen.ToolCallID)
	require.Contains(t, lastSeen.Content, "Current date and time")
}

func TestLoop_FoldsToolFailure(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			// no access token: the calendar tool fails but the run recovers
			{ID: "call_1", Name: "get_calendars", Arguments: `{}`},
		}},
		{Content: "sin acceso"},
	}}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "mis calendarios")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.NoError(t, err)

	require.Equal(t, model.FrameToolStart, frames[0].Type)
	require.Equal(t, model.FrameToolError, frames[1].Type)
	require.Contains(t, frames[1].Error, "access token not provided")

	secondTurn := client.seen[1]
	lastSeen := secondTurn[len(secondTurn)-1]
	require.Equal(t, "tool", lastSeen.Role)
	require.Contains(t, lastSeen.Content, "Error executing get_calendars")
}

func TestLoop_PreservesToolOrder(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{
			{ID: "call_a", Name: "get_current_time", Arguments: `{}`},
			{ID: "call_b", Name: "no_such_tool", Arguments: `{}`},
			{ID: "call_c", Name: "get_current_time", Arguments: `{}`},
		}},
		{Content: "listo"},
	}}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "varias cosas")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.NoError(t, err)

	// starts are announced in request order, then results in the same order
	require.Equal(t, "call_a", frames[0].ToolID)
	require.Equal(t, "call_b", frames[1].ToolID)
	require.Equal(t, "call_c", frames[2].ToolID)

	require.Equal(t, model.FrameToolEnd, frames[3].Type)
	require.Equal(t, "call_a", frames[3].ToolID)
	require.Equal(t, model.FrameToolError, frames[4].Type)
	require.Equal(t, "call_b", frames[4].ToolID)
	require.Contains(t, frames[4].Error, "unknown tool")
	require.Equal(t, model.FrameToolEnd, frames[5].Type)
	require.Equal(t, "call_c", frames[5].ToolID)
}

func TestLoop_TurnCap(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		// always asks for a tool: can never finish on its own
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "get_current_time", Arguments: `{}`}}},
		{ToolCalls: []llm.ToolCall{{ID: "call_2", Name: "get_current_time", Arguments: `{}`}}},
		{ToolCalls: []llm.ToolCall{{ID: "call_3", Name: "get_current_time", Arguments: `{}`}}},
	}}
	loop := newTestLoop(t, client, 2)
	conv := newTestConversation(t, "bucle")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.NoError(t, err)
	require.Equal(t, 2, client.calls)

	last := frames[len(frames)-1]
	require.Equal(t, model.FrameMessage, last.Type)
	require.Equal(t, turnCapNotice, last.Content)

	lastMsg, ok := conv.Last()
	require.True(t, ok)
	require.Equal(t, model.RoleAssistant, lastMsg.Role)
	require.Equal(t, turnCapNotice, lastMsg.Content)
}

func TestLoop_ModelErrorIsFatal(t *testing.T) {
	client := &scriptedClient{err: errors.New("upstream unavailable")}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "hola")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream unavailable")
	require.Empty(t, frames)
}

func TestLoop_SinkErrorAborts(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		{Content: "hola"},
	}}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "hola")

	abort := errors.New("client gone")
	err := loop.Run(context.Background(), conv, model.AuthContext{}, func(model.Frame) error {
		return abort
	})
	require.Error(t, err)
	require.ErrorIs(t, err, abort)
}

func TestLoop_AssignsMissingCallIDs(t *testing.T) {
	client := &scriptedClient{script: []llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{Name: "get_current_time", Arguments: `{}`}}},
		{Content: "ok"},
	}}
	loop := newTestLoop(t, client, 10)
	conv := newTestConversation(t, "hora")

	var frames []model.Frame
	err := loop.Run(context.Background(), conv, model.AuthContext{}, collectFrames(&frames))
	require.NoError(t, err)
	require.NotEmpty(t, frames[0].ToolID)
	require.Contains(t, frames[0].ToolID, "call_")
}
