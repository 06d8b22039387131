package swarm

import (
	"reflect"
)

// Parameter describes a single argument of an agent function. Type drives
// the JSON schema generated for the backend.
type Parameter struct {
	Name        string
	Description string
	Type        reflect.Type
	Required    bool
}

// AgentFunction is a tool an agent can call. The framework converts its
// name, description and parameters into the tool schema sent to the model,
// and invokes Call with the arguments the model supplies.
type AgentFunction interface {
	Call(args map[string]interface{}) (interface{}, error)
	Description() string
	Name() string
	Parameters() []Parameter
}

// funcAgentFunction adapts a plain Go function into an AgentFunction.
type funcAgentFunction struct {
	fn          func(map[string]interface{}) (interface{}, error)
	name        string
	description string
	parameters  []Parameter
}

func (f *funcAgentFunction) Call(args map[string]interface{}) (interface{}, error) {
	return f.fn(args)
}

func (f *funcAgentFunction) Description() string {
	return f.description
}

func (f *funcAgentFunction) Name() string {
	return f.name
}

func (f *funcAgentFunction) Parameters() []Parameter {
	return f.parameters
}

// NewAgentFunction wraps fn as an AgentFunction with the given name,
// description and parameter schema.
func NewAgentFunction(name string, desc string, fn func(map[string]interface{}) (interface{}, error), parameters []Parameter) AgentFunction {
	return &funcAgentFunction{
		fn:          fn,
		name:        name,
		description: desc,
		parameters:  parameters,
	}
}

// Agent is a named model configuration with instructions and callable
// functions. Agents are cheap values; a function may return a different
// agent to hand the conversation over.
type Agent struct {
	// Name identifies the agent and is attached to its messages as sender.
	Name string

	// Model is the backend model, e.g. "gpt-4o" or "gemini-1.5-pro".
	Model string

	// Instructions become the system message. Either a string or a
	// func(contextVariables map[string]interface{}) string evaluated per
	// request.
	Instructions interface{}

	// Functions the agent may call as tools.
	Functions []AgentFunction

	// ToolChoice constrains tool use: "none", "auto" or "required".
	// Nil leaves the backend default in place.
	ToolChoice *string

	// ParallelToolCalls allows the model to emit several tool calls in
	// one turn.
	ParallelToolCalls bool
}

// Response is the outcome of a run: the new messages, the agent that was
// active at the end, and the accumulated context variables.
type Response struct {
	Messages         []map[string]interface{}
	Agent            *Agent
	ContextVariables map[string]interface{}
}

// Result is what an agent function may return to steer the conversation:
// a string value for the model, an optional agent to switch to, and
// context variable updates.
type Result struct {
	Value            string
	Agent            *Agent
	ContextVariables map[string]interface{}
}

// NewAgent creates an agent with the default model and instructions.
func NewAgent(name string) *Agent {
	return &Agent{
		Name:              name,
		Model:             "gpt-4o",
		Instructions:      "You are a helpful agent.",
		Functions:         make([]AgentFunction, 0),
		ToolChoice:        nil,
		ParallelToolCalls: true,
	}
}

// WithModel sets the model and returns the agent for chaining.
func (a *Agent) WithModel(model string) *Agent {
	a.Model = model
	return a
}

// WithInstructions sets the instructions and returns the agent for chaining.
func (a *Agent) WithInstructions(instructions interface{}) *Agent {
	a.Instructions = instructions
	return a
}

// WithToolChoice sets the tool choice mode and returns the agent for chaining.
func (a *Agent) WithToolChoice(choice string) *Agent {
	a.ToolChoice = &choice
	return a
}

// AddFunction registers a tool and returns the agent for chaining.
func (a *Agent) AddFunction(f AgentFunction) *Agent {
	a.Functions = append(a.Functions, f)
	return a
}
