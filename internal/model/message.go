package model

import (
	"encoding/json"
	"fmt"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallRequest is a model-issued request to execute a tool.
type ToolCallRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one entry in a conversation transcript. The role discriminates
// which fields are meaningful: ToolCalls only on assistant messages,
// ToolCallID/ToolName only on tool messages.
type Message struct {
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolName   string            `json:"tool_name,omitempty"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message, with optional tool calls.
func AssistantMessage(content string, toolCalls []ToolCallRequest) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMessage creates a tool result message correlated to a prior call.
func ToolMessage(content, toolCallID, toolName string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, ToolName: toolName}
}

// Conversation is an ordered, append-only message transcript. Every tool
// message must reference exactly one earlier assistant tool call, and no two
// tool messages may share a call id.
type Conversation struct {
	messages  []Message
	requested map[string]bool // tool call ids issued by assistant messages
	answered  map[string]bool // tool call ids already consumed by tool messages
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		requested: make(map[string]bool),
		answered:  make(map[string]bool),
	}
}

// Append adds a message, enforcing the tool-call correlation invariant.
func (c *Conversation) Append(msg Message) error {
	switch msg.Role {
	case RoleTool:
		if msg.ToolCallID == "" {
			return fmt.Errorf("tool message missing tool_call_id")
		}
		if !c.requested[msg.ToolCallID] {
			return fmt.Errorf("tool message references unknown tool call %q", msg.ToolCallID)
		}
		if c.answered[msg.ToolCallID] {
			return fmt.Errorf("tool call %q already has a result", msg.ToolCallID)
		}
		c.answered[msg.ToolCallID] = true
	case RoleAssistant:
		for _, tc := range msg.ToolCalls {
			if tc.ID == "" {
				return fmt.Errorf("tool call for %q missing id", tc.Name)
			}
			if c.requested[tc.ID] {
				return fmt.Errorf("duplicate tool call id %q", tc.ID)
			}
			c.requested[tc.ID] = true
		}
	}
	c.messages = append(c.messages, msg)
	return nil
}

// Messages returns a copy of the transcript in insertion order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// WithoutSystem returns the transcript with leading system messages removed.
// This is the shape handed back to the client in final_conversation.
func (c *Conversation) WithoutSystem() []Message {
	msgs := c.messages
	for len(msgs) > 0 && msgs[0].Role == RoleSystem {
		msgs = msgs[1:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Last returns the most recent message, or false if empty.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}
