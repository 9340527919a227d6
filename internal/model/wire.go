package model

// WireMessage is the loosely-typed message shape exchanged with the client.
// Type is the closed discriminator; unknown tags are skipped during decode
// rather than guessed at.
type WireMessage struct {
	Type       string            `json:"type"`
	Content    string            `json:"content"`
	ToolCalls  []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolName   string            `json:"name,omitempty"`
}

// ChatRequest is the inbound payload for a chat turn.
type ChatRequest struct {
	Messages        []WireMessage    `json:"messages"`
	CalendarContext CalendarSnapshot `json:"calendarContext"`
}

// DecodeWireMessage reconstructs a typed Message from a wire entry. The
// second return is false for unknown or malformed tags; callers skip those
// entries instead of failing the request.
func DecodeWireMessage(w WireMessage) (Message, bool) {
	switch w.Type {
	case "user", "human":
		return UserMessage(w.Content), true
	case "assistant", "ai":
		return AssistantMessage(w.Content, w.ToolCalls), true
	case "tool":
		if w.ToolCallID == "" {
			return Message{}, false
		}
		return ToolMessage(w.Content, w.ToolCallID, w.ToolName), true
	case "system":
		// client-supplied system messages are never trusted
		return Message{}, false
	default:
		return Message{}, false
	}
}

// EncodeWireMessage converts a typed Message to its wire shape.
func EncodeWireMessage(m Message) WireMessage {
	w := WireMessage{Content: m.Content}
	switch m.Role {
	case RoleUser:
		w.Type = "user"
	case RoleAssistant:
		w.Type = "assistant"
		w.ToolCalls = m.ToolCalls
	case RoleTool:
		w.Type = "tool"
		w.ToolCallID = m.ToolCallID
		w.ToolName = m.ToolName
	case RoleSystem:
		w.Type = "system"
	}
	return w
}

// EncodeWireMessages converts a transcript to its wire shape.
func EncodeWireMessages(msgs []Message) []WireMessage {
	out := make([]WireMessage, len(msgs))
	for i, m := range msgs {
		out[i] = EncodeWireMessage(m)
	}
	return out
}
