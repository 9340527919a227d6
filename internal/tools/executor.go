package tools

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/pkg/logger"
	"github.com/ai-scheduler/agent-gateway/pkg/metrics"
	"github.com/ai-scheduler/agent-gateway/pkg/tracing"
)

// Result is the outcome of one tool invocation. Content is always set: on
// failure it carries the error text that is folded into the conversation so
// the model can self-correct.
type Result struct {
	CallID  string
	Name    string
	Content string
	Failed  bool
}

// Executor runs registry tools and normalizes success/failure into a
// uniform textual result. Errors never escape this boundary.
type Executor struct {
	registry *Registry
	logger   *logger.Logger
	tracer   trace.Tracer
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry, log *logger.Logger) *Executor {
	return &Executor{
		registry: registry,
		logger:   log,
		tracer:   tracing.Tracer("tools"),
	}
}

// Run executes one tool call with the request's auth context.
func (e *Executor) Run(ctx context.Context, call model.ToolCallRequest, auth model.AuthContext) Result {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "tool.execute",
		trace.WithAttributes(attribute.String("tool.name", call.Name)),
	)
	defer span.End()

	result := e.execute(ctx, call, auth)

	status := "success"
	if result.Failed {
		status = "error"
	}
	metrics.RecordToolExecution(call.Name, status, time.Since(start).Seconds())

	if result.Failed {
		e.logger.Warn("tool execution failed",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		e.logger.Debug("tool executed",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	return result
}

func (e *Executor) execute(ctx context.Context, call model.ToolCallRequest, auth model.AuthContext) Result {
	descriptor, ok := e.registry.Get(call.Name)
	if !ok {
		return Result{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Error: unknown tool %q", call.Name),
			Failed:  true,
		}
	}

	content, err := descriptor.Execute(ctx, call.Arguments, auth)
	if err != nil {
		return Result{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Error executing %s: %v", call.Name, err),
			Failed:  true,
		}
	}

	return Result{CallID: call.ID, Name: call.Name, Content: content}
}
