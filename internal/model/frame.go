package model

// FrameType tags one unit of the streaming protocol.
type FrameType string

const (
	FrameMessage           FrameType = "message"
	FrameToolStart         FrameType = "tool_start"
	FrameToolEnd           FrameType = "tool_end"
	FrameToolError         FrameType = "tool_error"
	FrameFinalConversation FrameType = "final_conversation"
)

// Frame is one newline-delimited unit of the SSE stream. Each frame is
// independently parseable; the client concatenates message frames in
// arrival order.
type Frame struct {
	Type          FrameType     `json:"type"`
	Content       string        `json:"content,omitempty"`
	ToolName      string        `json:"toolName,omitempty"`
	ToolID        string        `json:"toolId,omitempty"`
	Output        any           `json:"output,omitempty"`
	Error         string        `json:"error,omitempty"`
	AgentMessages []WireMessage `json:"agentMessages,omitempty"`
}

// MessageFrame carries an incremental text delta.
func MessageFrame(content string) Frame {
	return Frame{Type: FrameMessage, Content: content}
}

// ToolStartFrame announces a pending tool execution.
func ToolStartFrame(toolID, toolName string) Frame {
	return Frame{
		Type:     FrameToolStart,
		Content:  "Tool called: " + toolName,
		ToolName: toolName,
		ToolID:   toolID,
	}
}

// ToolEndFrame reports a successful tool execution.
func ToolEndFrame(toolID, toolName string, output any) Frame {
	return Frame{
		Type:     FrameToolEnd,
		ToolName: toolName,
		ToolID:   toolID,
		Output:   output,
	}
}

// ToolErrorFrame reports a failed tool execution.
func ToolErrorFrame(toolID, toolName, errMsg string) Frame {
	return Frame{
		Type:     FrameToolError,
		Content:  "Tool call failed: " + errMsg,
		ToolName: toolName,
		ToolID:   toolID,
		Error:    errMsg,
	}
}

// FinalConversationFrame carries the complete transcript, system message
// excluded, so the client can resynchronize its state.
func FinalConversationFrame(msgs []Message) Frame {
	return Frame{Type: FrameFinalConversation, AgentMessages: EncodeWireMessages(msgs)}
}
