package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ai-scheduler/agent-gateway/internal/agent"
	"github.com/ai-scheduler/agent-gateway/internal/llm"
	"github.com/ai-scheduler/agent-gateway/internal/middleware"
	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/provider"
	"github.com/ai-scheduler/agent-gateway/internal/tools"
	"github.com/ai-scheduler/agent-gateway/pkg/logger"
)

// cannedClient always streams the same response.
type cannedClient struct {
	response llm.CompletionResponse
}

func (c *cannedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return c.CompleteStream(ctx, req, func(string, int) error { return nil })
}

func (c *cannedClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	for i, r := range c.response.Content {
		if err := callback(string(r), i); err != nil {
			return nil, err
		}
	}
	resp := c.response
	return &resp, nil
}

func (c *cannedClient) Name() string     { return "canned" }
func (c *cannedClient) Models() []string { return []string{"canned"} }

// disconnectClient streams a partial answer, then severs the request the
// way a client dropping its connection would.
type disconnectClient struct {
	partial string
	cancel  context.CancelFunc
}

func (c *disconnectClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return c.CompleteStream(ctx, req, func(string, int) error { return nil })
}

func (c *disconnectClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	for i, r := range c.partial {
		if err := callback(string(r), i); err != nil {
			return nil, err
		}
	}
	c.cancel()
	return nil, ctx.Err()
}

func (c *disconnectClient) Name() string     { return "disconnect" }
func (c *disconnectClient) Models() []string { return []string{"disconnect"} }

func newTestChatHandler(t *testing.T, client llm.Client) *ChatHandler {
	t.Helper()
	log := logger.NewNop()
	registry := tools.NewRegistry(provider.New("http://localhost:0", "http://localhost:0", log))
	executor := tools.NewExecutor(registry, log)
	loop := agent.NewLoop(client, registry, executor, "canned", 10, log)
	return NewChatHandler(loop, 30*time.Second, log)
}

func chatRequest(t *testing.T, body model.ChatRequest, authenticated bool) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(string(payload)))
	if authenticated {
		ctx := context.WithValue(req.Context(), middleware.AuthContextKey, model.AuthContext{AccessToken: "tok"})
		req = req.WithContext(ctx)
	}
	return req
}

// parseFrames splits an SSE body into decoded frames, reporting whether the
// done sentinel terminated the stream.
func parseFrames(t *testing.T, body string) ([]model.Frame, bool) {
	t.Helper()
	var frames []model.Frame
	done := false
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			done = true
			continue
		}
		var frame model.Frame
		require.NoError(t, json.Unmarshal([]byte(payload), &frame), "payload %q", payload)
		frames = append(frames, frame)
	}
	return frames, done
}

func userTurn(content string) model.ChatRequest {
	return model.ChatRequest{
		Messages: []model.WireMessage{{Type: "user", Content: content}},
	}
}

func TestChat_Unauthorized(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, userTurn("hola"), false))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "unauthorized")
}

func TestChat_InvalidBody(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{nope"))
	ctx := context.WithValue(req.Context(), middleware.AuthContextKey, model.AuthContext{AccessToken: "tok"})
	rec := httptest.NewRecorder()
	h.Chat(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_EmptyMessages(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, model.ChatRequest{}, true))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_CommandShortCircuit(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{response: llm.CompletionResponse{Content: "should not run"}})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, userTurn("/agenda"), true))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames, done := parseFrames(t, rec.Body.String())
	require.True(t, done)
	require.Len(t, frames, 1)
	require.Equal(t, model.FrameMessage, frames[0].Type)
	require.Contains(t, frames[0].Content, "No tienes eventos programados para hoy")
	// the model was never consulted
	require.NotContains(t, rec.Body.String(), "should not run")
}

func TestChat_UnknownCommandFallsThrough(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{response: llm.CompletionResponse{Content: "te ayudo"}})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, userTurn("/banana"), true))

	require.Equal(t, http.StatusOK, rec.Code)
	frames, done := parseFrames(t, rec.Body.String())
	require.True(t, done)

	last := frames[len(frames)-1]
	require.Equal(t, model.FrameFinalConversation, last.Type)
}

func TestChat_AgentStream(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{response: llm.CompletionResponse{Content: "hola"}})

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, userTurn("saluda"), true))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	frames, done := parseFrames(t, rec.Body.String())
	require.True(t, done)

	// token frames first, final_conversation last
	require.GreaterOrEqual(t, len(frames), 2)
	for _, f := range frames[:len(frames)-1] {
		require.Equal(t, model.FrameMessage, f.Type)
	}
	final := frames[len(frames)-1]
	require.Equal(t, model.FrameFinalConversation, final.Type)

	// the returned transcript starts with the user turn, never the system prompt
	require.NotEmpty(t, final.AgentMessages)
	require.Equal(t, "user", final.AgentMessages[0].Type)
	require.Equal(t, "saluda", final.AgentMessages[0].Content)
	last := final.AgentMessages[len(final.AgentMessages)-1]
	require.Equal(t, "assistant", last.Type)
	require.Equal(t, "hola", last.Content)
}

func TestChat_ReplayedTranscript(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{response: llm.CompletionResponse{Content: "sigo aquí"}})

	body := model.ChatRequest{
		Messages: []model.WireMessage{
			{Type: "user", Content: "hola"},
			{Type: "ai", Content: "hola, ¿qué necesitas?"},
			{Type: "user", Content: "mi agenda"},
		},
	}
	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, body, true))

	require.Equal(t, http.StatusOK, rec.Code)
	frames, done := parseFrames(t, rec.Body.String())
	require.True(t, done)

	final := frames[len(frames)-1]
	require.Equal(t, model.FrameFinalConversation, final.Type)
	// replayed turns plus the new assistant answer
	require.Len(t, final.AgentMessages, 4)
}

func TestChat_CorruptTranscript(t *testing.T) {
	h := newTestChatHandler(t, &cannedClient{response: llm.CompletionResponse{Content: "x"}})

	body := model.ChatRequest{
		Messages: []model.WireMessage{
			// tool result with no matching tool call
			{Type: "tool", Content: "out", ToolCallID: "call_ghost", ToolName: "get_events"},
			{Type: "user", Content: "hola"},
		},
	}
	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, body, true))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid transcript")
}

func TestChat_ClientDisconnectEndsStreamWithoutFinal(t *testing.T) {
	client := &disconnectClient{partial: "un momento"}
	h := newTestChatHandler(t, client)

	req := chatRequest(t, userTurn("saluda"), true)
	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()
	client.cancel = cancel

	rec := httptest.NewRecorder()
	h.Chat(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)

	// partial tokens were flushed, then the stream ended abruptly: no
	// final_conversation frame and no done sentinel for the client to
	// mistake for a complete answer
	frames, done := parseFrames(t, rec.Body.String())
	require.False(t, done)
	require.NotEmpty(t, frames)
	for _, f := range frames {
		require.Equal(t, model.FrameMessage, f.Type)
	}
}

func TestChat_NoModelConfigured(t *testing.T) {
	h := newTestChatHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, userTurn("saluda"), true))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "LLM client not configured")

	// slash commands need no model and still answer
	rec = httptest.NewRecorder()
	h.Chat(rec, chatRequest(t, userTurn("/agenda"), true))
	require.Equal(t, http.StatusOK, rec.Code)
	frames, done := parseFrames(t, rec.Body.String())
	require.True(t, done)
	require.Len(t, frames, 1)
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(&cannedClient{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	unready := NewHealthHandler(nil)
	rec = httptest.NewRecorder()
	unready.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
