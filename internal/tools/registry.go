// Package tools defines the fixed catalog of operations the model may
// invoke and executes them against the upstream provider.
package tools

import (
	"context"
	"encoding/json"

	"github.com/ai-scheduler/agent-gateway/internal/llm"
	"github.com/ai-scheduler/agent-gateway/internal/model"
	"github.com/ai-scheduler/agent-gateway/internal/provider"
)

// ExecuteFunc runs one tool invocation. Returns the serialized provider
// response on success, a classified *Error on failure.
type ExecuteFunc func(ctx context.Context, args json.RawMessage, auth model.AuthContext) (string, error)

// Descriptor is one entry in the tool catalog.
type Descriptor struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Execute     ExecuteFunc
}

// Registry is the fixed mapping from tool name to descriptor. Built once at
// process start, read-only thereafter, safe for concurrent use.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
}

// NewRegistry builds the full catalog against the given provider client.
func NewRegistry(p *provider.Client) *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	for _, d := range calendarDescriptors(p) {
		r.register(d)
	}
	for _, d := range taskDescriptors(p) {
		r.register(d)
	}
	for _, d := range timeDescriptors() {
		r.register(d)
	}
	return r
}

func (r *Registry) register(d Descriptor) {
	if _, exists := r.descriptors[d.Name]; exists {
		panic("duplicate tool registration: " + d.Name)
	}
	r.descriptors[d.Name] = d
	r.order = append(r.order, d.Name)
}

// Get returns the descriptor for a tool name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Schemas returns the catalog in the shape handed to the model.
func (r *Registry) Schemas() []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		d := r.descriptors[name]
		out = append(out, llm.ToolSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Schema,
		})
	}
	return out
}
