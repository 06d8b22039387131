package swarm

// Chat roles form a closed set. Backends that use a different vocabulary
// remap these values; they never extend the set.
const (
	// RoleSystem carries agent instructions.
	RoleSystem = "system"
	// RoleUser carries end-user input.
	RoleUser = "user"
	// RoleAssistant carries model output, including tool call requests.
	RoleAssistant = "assistant"
	// RoleTool carries the result of an executed tool call.
	RoleTool = "tool"
	// RoleFunction is the legacy name for RoleTool kept for callers that
	// still produce function-style history entries.
	RoleFunction = "function"
)

// RequestMessage is a single conversation message in the provider-neutral
// request format. Backends translate it into their own wire shape.
type RequestMessage struct {
	// Role is one of the Role* constants.
	Role string `json:"role"`

	// Content is the plain-text body. May be empty for assistant messages
	// that only carry tool calls.
	Content string `json:"content"`

	// ToolName names the tool that produced this message (RoleTool only).
	ToolName string `json:"tool_name,omitempty"`

	// ToolCallID identifies the tool call this message answers (RoleTool only).
	ToolCallID string `json:"tool_call_id,omitempty"`

	// ToolCalls are the calls requested by the assistant (RoleAssistant only).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// FunctionParameters describes a tool's argument schema. The schema is
// passed through to the backend with field renaming only; no validation
// of type correctness is performed.
type FunctionParameters struct {
	// Properties maps parameter names to JSON-schema fragments
	// (at minimum "type" and "description").
	Properties map[string]interface{} `json:"properties"`

	// Required lists the parameter names the backend must supply.
	Required []string `json:"required"`
}

// ToolDefinition declares a callable tool in the provider-neutral format.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  FunctionParameters `json:"parameters"`
}

// ChatRequest is the provider-neutral request a backend receives: the full
// conversation plus the tools the active agent exposes.
type ChatRequest struct {
	// Model names the backend model. Backends fall back to their own
	// default when empty.
	Model string `json:"model"`

	// Messages is the conversation history, oldest first.
	Messages []RequestMessage `json:"messages"`

	// Tools the backend may invoke instead of answering with text.
	Tools []ToolDefinition `json:"tools,omitempty"`

	// ToolChoice controls tool usage: "", "auto", "none" or "required".
	ToolChoice string `json:"tool_choice,omitempty"`

	// JSONMode asks the backend for a JSON object response where supported.
	JSONMode bool `json:"json_mode,omitempty"`
}

// FunctionCall holds the name and JSON-encoded arguments of a call the
// backend wants executed.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a single tool invocation requested by the backend.
type ToolCall struct {
	// ID uniquely identifies the call so its result can be matched back.
	// Backends that do not assign ids get a synthesized one.
	ID string `json:"id"`

	// Type is always "function".
	Type string `json:"type"`

	// Function carries the call target and arguments.
	Function FunctionCall `json:"function"`
}

// ChatMessage is the message inside a response envelope. Optional fields
// are nil when absent.
type ChatMessage struct {
	// Role is always RoleAssistant in backend responses.
	Role string `json:"role"`

	// Content is the plain-text reply. Empty when the backend requested a
	// tool call instead.
	Content string `json:"content"`

	// Sender names the agent that produced the message.
	Sender string `json:"sender,omitempty"`

	// ToolCalls are the calls the backend wants executed; nil when the
	// backend answered with text.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// FunctionCall mirrors ToolCalls[0].Function for callers that still
	// expect the legacy single-call field.
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Choice wraps one candidate answer.
type Choice struct {
	Message ChatMessage `json:"message"`
}

// ChatCompletion is the fixed-shape envelope every backend returns,
// regardless of whether the reply was plain text, a tool call, or a
// recovered safety-filter block. It always holds exactly one choice with
// a well-formed message.
type ChatCompletion struct {
	Choices []Choice `json:"choices"`
}

// Message returns the envelope's single message. It is safe to call on a
// well-formed envelope; an empty envelope yields a zero message.
func (c *ChatCompletion) Message() ChatMessage {
	if c == nil || len(c.Choices) == 0 {
		return ChatMessage{}
	}
	return c.Choices[0].Message
}

// newAssistantCompletion builds the single-choice envelope used by all
// backends.
func newAssistantCompletion(msg ChatMessage) *ChatCompletion {
	msg.Role = RoleAssistant
	if msg.Sender == "" {
		msg.Sender = RoleAssistant
	}
	return &ChatCompletion{Choices: []Choice{{Message: msg}}}
}
