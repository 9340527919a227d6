package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ai-scheduler/agent-gateway/internal/agent"
	"github.com/ai-scheduler/agent-gateway/internal/commands"
	"github.com/ai-scheduler/agent-gateway/internal/middleware"
	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/pkg/logger"
	"github.com/ai-scheduler/agent-gateway/pkg/metrics"
)

// doneSentinel terminates every successful stream.
const doneSentinel = "data: [DONE]\n\n"

// ChatHandler handles the streaming chat endpoint.
type ChatHandler struct {
	loop           *agent.Loop
	requestTimeout time.Duration
	logger         *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(loop *agent.Loop, requestTimeout time.Duration, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		loop:           loop,
		requestTimeout: requestTimeout,
		logger:         log,
	}
}

// Chat handles POST /api/v1/chat. Slash commands short-circuit to a
// deterministic streamed reply; everything else runs the agent loop. All
// error statuses are decided before the SSE stream opens.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auth := middleware.GetAuthContext(ctx)
	if !auth.HasToken() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateConversationLength(len(req.Messages)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userPrompt := ""
	if last := req.Messages[len(req.Messages)-1]; last.Type == "user" || last.Type == "human" {
		userPrompt = last.Content
	}
	if err := middleware.ValidateMessageContent(userPrompt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if command, params, ok := commands.Parse(userPrompt); ok {
		interpreter := commands.NewInterpreter(req.CalendarContext)
		result := interpreter.Execute(command, params)

		status := "success"
		if !result.Success {
			status = "unknown"
		}
		metrics.CommandExecutionsTotal.WithLabelValues(command, status).Inc()

		if result.Success {
			h.streamCommandResult(w, result)
			return
		}
		// unknown commands fall through to the agent so the model can help
	}

	h.streamAgentRun(w, r, req, auth, userPrompt)
}

// streamCommandResult streams a deterministic command reply as a single
// message frame followed by the done sentinel.
func (h *ChatHandler) streamCommandResult(w http.ResponseWriter, result commands.CommandResult) {
	flusher, ok := beginStream(w)
	if !ok {
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendFrame(w, flusher, model.MessageFrame(result.Message))
	fmt.Fprint(w, doneSentinel)
	flusher.Flush()
}

func (h *ChatHandler) streamAgentRun(w http.ResponseWriter, r *http.Request, req model.ChatRequest, auth model.AuthContext, userPrompt string) {
	if !h.loop.Ready() {
		writeError(w, http.StatusServiceUnavailable, "LLM client not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	enricher := agent.NewEnricher(req.CalendarContext)
	intent := enricher.AnalyzeIntent(userPrompt)
	suggestions := enricher.SmartSuggestions()
	insights := enricher.PriorityInsights()

	systemPrompt := agent.NewPromptBuilder(req.CalendarContext).
		BuildSystemPrompt(intent, suggestions, insights)

	conv := model.NewConversation()
	if err := conv.Append(model.SystemMessage(systemPrompt)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to initialize conversation")
		return
	}
	for _, wire := range req.Messages {
		msg, ok := model.DecodeWireMessage(wire)
		if !ok {
			continue
		}
		if err := conv.Append(msg); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid transcript: %v", err))
			return
		}
	}

	flusher, ok := beginStream(w)
	if !ok {
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	emit := func(frame model.Frame) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sendFrame(w, flusher, frame)
	}

	if err := h.loop.Run(ctx, conv, auth, emit); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.logger.Info("chat stream aborted",
				"correlation_id", middleware.GetCorrelationID(r.Context()),
				"reason", ctx.Err(),
			)
			return
		}
		// fatal model error: end the stream without the done sentinel so
		// the client does not treat the partial output as complete
		h.logger.Error("agent run failed",
			"correlation_id", middleware.GetCorrelationID(r.Context()),
			"error", err,
		)
		return
	}

	sendFrame(w, flusher, model.FinalConversationFrame(conv.WithoutSystem()))
	fmt.Fprint(w, doneSentinel)
	flusher.Flush()
}

// beginStream sets SSE headers and resolves the flusher. Must be called
// after all pre-stream error checks: the first write commits the 200.
func beginStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	return flusher, true
}

func sendFrame(w http.ResponseWriter, flusher http.Flusher, frame model.Frame) error {
	jsonData, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
