// Package agent runs the tool-calling conversation loop: it alternates
// model turns and tool executions until the model answers without
// requesting tools or the turn cap is reached.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ai-scheduler/agent-gateway/internal/llm"
	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/tools"
	"github.com/ai-scheduler/agent-gateway/pkg/logger"
	"github.com/ai-scheduler/agent-gateway/pkg/metrics"
	"github.com/ai-scheduler/agent-gateway/pkg/tracing"
)

// Sink receives loop output frames as they are produced. A non-nil return
// aborts the run; the loop treats it as a client disconnect.
type Sink func(frame model.Frame) error

// turnCapNotice is appended as the final assistant message when the loop
// exhausts its turn budget.
const turnCapNotice = "He alcanzado el límite de pasos para esta solicitud. Intenta dividirla en peticiones más simples."

// Loop drives one conversation to completion against the model and the tool
// registry. A Loop is safe for concurrent use; all run state lives in the
// conversation passed to Run.
type Loop struct {
	client   llm.Client
	registry *tools.Registry
	executor *tools.Executor
	model    string
	maxTurns int
	logger   *logger.Logger
	tracer   trace.Tracer
}

// NewLoop creates a loop. maxTurns bounds model round-trips per run; values
// below one fall back to a single turn.
func NewLoop(client llm.Client, registry *tools.Registry, executor *tools.Executor, modelName string, maxTurns int, log *logger.Logger) *Loop {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &Loop{
		client:   client,
		registry: registry,
		executor: executor,
		model:    modelName,
		maxTurns: maxTurns,
		logger:   log,
		tracer:   tracing.Tracer("agent"),
	}
}

// Ready reports whether a model client is configured. A loop without a
// client can never complete a run.
func (l *Loop) Ready() bool {
	return l.client != nil
}

// Run executes the loop over the given conversation, mutating it in place.
// Message deltas and tool lifecycle frames stream through emit. Returns an
// error only on model failure or sink abort; tool failures are folded into
// the conversation as tool results so the model can recover.
func (l *Loop) Run(ctx context.Context, conv *model.Conversation, auth model.AuthContext, emit Sink) error {
	ctx, span := l.tracer.Start(ctx, "agent.run")
	defer span.End()

	schemas := l.registry.Schemas()

	for turn := 0; ; turn++ {
		if turn >= l.maxTurns {
			metrics.AgentTurnsTotal.WithLabelValues("turn_cap").Inc()
			l.logger.Warn("agent run hit turn cap", "max_turns", l.maxTurns)
			if err := emit(model.MessageFrame(turnCapNotice)); err != nil {
				return err
			}
			// best effort: the notice still belongs in the transcript
			_ = conv.Append(model.AssistantMessage(turnCapNotice, nil))
			return nil
		}

		resp, err := l.modelTurn(ctx, conv, schemas, emit)
		if err != nil {
			metrics.AgentTurnsTotal.WithLabelValues("model_error").Inc()
			span.RecordError(err)
			return fmt.Errorf("model turn %d: %w", turn, err)
		}

		calls := toToolRequests(resp.ToolCalls)
		if err := conv.Append(model.AssistantMessage(resp.Content, calls)); err != nil {
			return fmt.Errorf("append assistant message: %w", err)
		}

		if len(calls) == 0 {
			metrics.AgentTurnsTotal.WithLabelValues("completed").Inc()
			span.SetAttributes(attribute.Int("agent.turns", turn+1))
			return nil
		}

		if err := l.toolTurn(ctx, conv, calls, auth, emit); err != nil {
			return err
		}
	}
}

func (l *Loop) modelTurn(ctx context.Context, conv *model.Conversation, schemas []llm.ToolSchema, emit Sink) (*llm.CompletionResponse, error) {
	start := time.Now()

	req := &llm.CompletionRequest{
		Model:    l.model,
		Messages: toLLMMessages(conv.Messages()),
		Tools:    schemas,
	}

	resp, err := l.client.CompleteStream(ctx, req, func(token string, _ int) error {
		if token == "" {
			return nil
		}
		return emit(model.MessageFrame(token))
	})
	if err != nil {
		metrics.RecordLLMStream(l.model, "error", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	metrics.RecordLLMStream(l.model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp, nil
}

// toolTurn announces, executes, and folds back one batch of tool calls.
// Execution is concurrent; announcement and fold-back preserve the model's
// request order.
func (l *Loop) toolTurn(ctx context.Context, conv *model.Conversation, calls []model.ToolCallRequest, auth model.AuthContext, emit Sink) error {
	for _, call := range calls {
		if err := emit(model.ToolStartFrame(call.ID, call.Name)); err != nil {
			return err
		}
	}

	results := make([]tools.Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call model.ToolCallRequest) {
			defer wg.Done()
			results[i] = l.executor.Run(ctx, call, auth)
		}(i, call)
	}
	wg.Wait()

	for _, result := range results {
		var frame model.Frame
		if result.Failed {
			frame = model.ToolErrorFrame(result.CallID, result.Name, result.Content)
		} else {
			frame = model.ToolEndFrame(result.CallID, result.Name, result.Content)
		}
		if err := emit(frame); err != nil {
			return err
		}
		if err := conv.Append(model.ToolMessage(result.Content, result.CallID, result.Name)); err != nil {
			return fmt.Errorf("append tool result: %w", err)
		}
	}
	return nil
}

// toToolRequests converts model-issued tool calls, assigning a fresh id to
// any call the provider left unidentified so results stay addressable.
func toToolRequests(calls []llm.ToolCall) []model.ToolCallRequest {
	if len(calls) == 0 {
		return nil
	}
	requests := make([]model.ToolCallRequest, len(calls))
	for i, call := range calls {
		id := call.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		requests[i] = model.ToolCallRequest{
			ID:        id,
			Name:      call.Name,
			Arguments: json.RawMessage(call.Arguments),
		}
	}
	return requests
}

func toLLMMessages(msgs []model.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(msgs))
	for i, msg := range msgs {
		out[i] = llm.ChatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.ToolName,
		}
		for _, call := range msg.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, llm.ToolCall{
				ID:        call.ID,
				Name:      call.Name,
				Arguments: string(call.Arguments),
			})
		}
	}
	return out
}
