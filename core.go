package swarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrEmptyMessages indicates that the messages array is empty when making a request.
	// This error is returned when attempting to run an agent interaction without any initial messages.
	ErrEmptyMessages = errors.New("messages cannot be empty")

	// ErrInvalidToolCall indicates that a tool call request was malformed or invalid.
	// This can occur when the tool call parameters don't match the function signature.
	ErrInvalidToolCall = errors.New("invalid tool call")

	// ErrInvalidInstruction indicates that an agent's Instructions field holds
	// an unsupported type.
	ErrInvalidInstruction = errors.New("invalid instructions type")
)

// ContextVariablesName is the key used to store context variables in function arguments.
// This constant is used internally to pass context between function calls.
const ContextVariablesName = "context_variables"

// Swarm orchestrates interactions between agents and a chat backend.
// It handles message processing, tool execution, and response management.
// The backend is pluggable: any ChatClient implementation works.
type Swarm struct {
	// Client is the chat backend used for completions
	Client ChatClient
}

// NewSwarm creates a new Swarm instance with the provided chat client.
//
// Parameters:
//   - client: An implementation of ChatClient interface for API communication
//
// Returns:
//   - *Swarm: A new Swarm instance
func NewSwarm(client ChatClient) *Swarm {
	if client == nil {
		panic("chat client cannot be nil")
	}
	return &Swarm{Client: client}
}

// NewDefaultSwarm creates a new Swarm instance from environment variables.
// Backends are tried in order:
//   - OPENAI_API_KEY (with optional OPENAI_API_BASE) for OpenAI
//   - GEMINI_API_KEY or GOOGLE_API_KEY for Gemini
//   - AZURE_OPENAI_API_KEY / AZURE_OPENAI_API_BASE for Azure OpenAI
//
// Returns an error if no backend credential is set or if client creation fails.
func NewDefaultSwarm() (*Swarm, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey != "" {
		apiBase := os.Getenv("OPENAI_API_BASE")
		if apiBase == "" {
			return NewSwarm(NewOpenAIClient(apiKey)), nil
		}

		return NewSwarm(NewOpenAIClientWithBaseURL(apiKey, apiBase)), nil
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		geminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if geminiAPIKey != "" {
		client, err := NewGeminiClient(context.Background(), geminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return NewSwarm(client), nil
	}

	azureAPIKey := os.Getenv("AZURE_OPENAI_API_KEY")
	azureAPIBase := os.Getenv("AZURE_OPENAI_API_BASE")
	azureAPIVersion := os.Getenv("AZURE_OPENAI_API_VERSION")

	var missingEnvs []string
	if azureAPIKey == "" {
		missingEnvs = append(missingEnvs, "AZURE_OPENAI_API_KEY")
	}
	if azureAPIBase == "" {
		missingEnvs = append(missingEnvs, "AZURE_OPENAI_API_BASE")
	}
	if azureAPIVersion == "" {
		azureAPIVersion = "2025-03-01-preview"
	}

	if len(missingEnvs) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missingEnvs, ", "))
	}

	return NewSwarm(NewAzureOpenAIClient(azureAPIKey, azureAPIBase, azureAPIVersion)), nil
}

// getChatCompletion sends a request to the chat backend and returns the response.
// It handles message preparation, tool configuration, and response parsing.
//
// Parameters:
//   - ctx: Context for the request
//   - agent: Agent configuration including tools and instructions
//   - history: Previous conversation messages
//   - contextVariables: Variables to be used in the conversation
//   - modelOverride: Optional model override (uses agent's default if empty)
//   - debug: Enable debug logging
//
// Returns the chat completion response or an error if the request fails.
func (s *Swarm) getChatCompletion(
	ctx context.Context,
	agent *Agent,
	history []map[string]interface{},
	contextVariables map[string]interface{},
	modelOverride string,
	debug bool,
	jsonMode bool,
) (*ChatCompletion, error) {
	if agent == nil {
		return nil, errors.New("agent cannot be nil")
	}

	if contextVariables == nil {
		contextVariables = make(map[string]interface{})
	}

	instructions, err := s.getInstructions(agent, contextVariables)
	if err != nil {
		return nil, err
	}

	// Prepare messages
	model := modelOverride
	if model == "" {
		model = agent.Model
	}
	messages := prepareMessages(instructions, history, model)

	// Prepare tools
	tools := prepareTools(agent)

	// Create completion request
	req := ChatRequest{
		Messages: messages,
		Model:    model,
		JSONMode: jsonMode,
	}
	if len(tools) > 0 {
		req.Tools = tools
		if agent.ToolChoice != nil {
			req.ToolChoice = *agent.ToolChoice
		}
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	DebugPrint(debug, "Getting chat completion for:", string(reqJSON))

	return s.Client.CreateChatCompletion(ctx, req)
}

// getInstructions safely extracts instructions from the agent based on its type.
func (s *Swarm) getInstructions(agent *Agent, contextVariables map[string]interface{}) (string, error) {
	switch i := agent.Instructions.(type) {
	case string:
		return i, nil
	case func(map[string]interface{}) string:
		return i(contextVariables), nil
	case func() string:
		return i(), nil
	default:
		return "", ErrInvalidInstruction
	}
}

func prepareTools(agent *Agent) []ToolDefinition {
	var tools []ToolDefinition
	for _, f := range agent.Functions {
		if f == nil {
			continue
		}

		properties := make(map[string]interface{})
		required := make([]string, 0)
		for _, p := range f.Parameters() {
			// Context variables are injected by the framework, never
			// requested from the backend.
			if p.Name == ContextVariablesName {
				continue
			}
			properties[p.Name] = map[string]interface{}{
				"type":        getJSONType(p.Type),
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		tools = append(tools, ToolDefinition{
			Name:        f.Name(),
			Description: f.Description(),
			Parameters: FunctionParameters{
				Properties: properties,
				Required:   required,
			},
		})
	}
	return tools
}

func prepareMessages(instructions string, history []map[string]interface{}, model string) []RequestMessage {
	messages := []RequestMessage{
		{Role: RoleSystem, Content: instructions},
	}
	if strings.Contains(model, "o1") || strings.Contains(model, "o3") {
		messages = []RequestMessage{
			{Role: RoleUser, Content: instructions},
		}
	}

	for _, msg := range history {
		content, _ := msg["content"].(string)
		role, _ := msg["role"].(string)

		switch role {
		case RoleUser:
			messages = append(messages, RequestMessage{Role: RoleUser, Content: content})
		case RoleSystem:
			// history never carries extra system messages; instructions win

		case RoleFunction:
			name, _ := msg["name"].(string)
			messages = append(messages, RequestMessage{Role: RoleTool, Content: content, ToolName: name, ToolCallID: name})
		case RoleTool:
			toolCallID, _ := msg["tool_call_id"].(string)
			toolName, _ := msg["tool_name"].(string)
			messages = append(messages, RequestMessage{Role: RoleTool, Content: content, ToolName: toolName, ToolCallID: toolCallID})
		default:
			assistantMsg := RequestMessage{Role: RoleAssistant, Content: content}
			if toolCalls, ok := msg["tool_calls"].([]ToolCall); ok {
				assistantMsg.ToolCalls = toolCalls
			}
			messages = append(messages, assistantMsg)
		}
	}
	return messages
}

// handleFunctionResult processes the result from an agent function
func (s *Swarm) handleFunctionResult(result interface{}, debug bool) (*Result, error) {
	if result == nil {
		return &Result{}, nil
	}

	switch v := result.(type) {
	case *Result:
		return v, nil
	case *Agent:
		return &Result{
			Value: fmt.Sprintf(`{"assistant":"%s"}`, v.Name),
			Agent: v,
		}, nil
	default:
		str := fmt.Sprintf("%v", v)
		if str == "" {
			err := fmt.Errorf("failed to cast response to string: %v", result)
			DebugPrint(debug, err.Error())
			return nil, err
		}
		return &Result{Value: str}, nil
	}
}

// handleToolCalls processes tool calls from the chat completion
func (s *Swarm) handleToolCalls(
	toolCalls []ToolCall,
	functions []AgentFunction,
	contextVariables map[string]interface{},
	debug bool,
) (*Response, error) {
	if len(toolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls provided")
	}

	if functions == nil {
		return nil, fmt.Errorf("functions cannot be nil")
	}

	// Create default context variables if nil
	if contextVariables == nil {
		contextVariables = make(map[string]interface{})
	}

	functionMap := make(map[string]AgentFunction, len(functions))
	for _, f := range functions {
		if f != nil {
			functionMap[f.Name()] = f
		}
	}

	response := &Response{
		Messages:         make([]map[string]interface{}, 0, len(toolCalls)),
		ContextVariables: make(map[string]interface{}, len(contextVariables)),
	}

	// Copy initial context variables
	for k, v := range contextVariables {
		response.ContextVariables[k] = v
	}

	for _, toolCall := range toolCalls {
		name := toolCall.Function.Name
		fn, exists := functionMap[name]
		if !exists {
			errMsg := fmt.Sprintf("Tool %q not found in function map", name)
			DebugPrint(debug, errMsg)
			response.Messages = append(response.Messages, map[string]interface{}{
				"role":         RoleTool,
				"tool_call_id": toolCall.ID,
				"tool_name":    name,
				"content":      fmt.Sprintf("Error: %s", errMsg),
			})
			continue
		}

		var args map[string]interface{}
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
			errMsg := fmt.Sprintf("Failed to parse arguments for tool %q: %v", name, err)
			DebugPrint(debug, errMsg)
			response.Messages = append(response.Messages, map[string]interface{}{
				"role":         RoleTool,
				"tool_call_id": toolCall.ID,
				"tool_name":    name,
				"content":      fmt.Sprintf("Error: %s", errMsg),
			})
			continue
		}

		// Add context variables to args
		args[ContextVariablesName] = contextVariables

		// Execute function
		rawResult, err := fn.Call(args)
		if err != nil {
			errMsg := fmt.Sprintf("Function %q execution failed: %v", name, err)
			DebugPrint(debug, errMsg)
			response.Messages = append(response.Messages, map[string]interface{}{
				"role":         RoleTool,
				"tool_call_id": toolCall.ID,
				"tool_name":    name,
				"content":      fmt.Sprintf("Error: %s", errMsg),
			})
			continue
		}

		result, err := s.handleFunctionResult(rawResult, debug)
		if err != nil {
			errMsg := fmt.Sprintf("Failed to handle result for tool %q: %v", name, err)
			DebugPrint(debug, errMsg)
			response.Messages = append(response.Messages, map[string]interface{}{
				"role":         RoleTool,
				"tool_call_id": toolCall.ID,
				"tool_name":    name,
				"content":      fmt.Sprintf("Error: %s", errMsg),
			})
			continue
		}

		// Update context variables from result
		for k, v := range result.ContextVariables {
			contextVariables[k] = v
			response.ContextVariables[k] = v
		}

		// Update agent if transferred
		if result.Agent != nil {
			response.Agent = result.Agent
		}

		// Create tool response message
		message := map[string]interface{}{
			"role":         RoleTool,
			"tool_call_id": toolCall.ID,
			"tool_name":    name,
			"content":      result.Value,
		}

		// Add agent name if agent transfer occurred
		if result.Agent != nil {
			message["agent"] = result.Agent.Name
		}

		response.Messages = append(response.Messages, message)
	}

	return response, nil
}

// RunAndStream executes an interaction with the chat backend and returns a channel
// that streams the response tokens as they arrive.
//
// Parameters:
//   - ctx: Context for the request
//   - agent: Agent configuration including tools and instructions
//   - messages: Conversation history
//   - contextVariables: Variables to be used in the conversation
//   - modelOverride: Optional model override (uses agent's default if empty)
//   - debug: Enable debug logging
//   - maxTurns: Maximum number of interaction turns
//   - executeTools: Whether to execute tool calls
//
// Returns a channel of response tokens or an error if the streaming setup fails.
func (s *Swarm) RunAndStream(
	ctx context.Context,
	agent *Agent,
	messages []map[string]interface{},
	contextVariables map[string]interface{},
	modelOverride string,
	debug bool,
	maxTurns int,
	executeTools bool,
	jsonMode bool,
) (<-chan map[string]interface{}, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyMessages
	}

	if agent == nil {
		return nil, errors.New("agent cannot be nil")
	}

	if contextVariables == nil {
		contextVariables = make(map[string]interface{})
	}

	resultChan := make(chan map[string]interface{})
	activeAgent := agent
	history := make([]map[string]interface{}, len(messages))
	copy(history, messages)
	initLen := len(messages)

	go func() {
		defer close(resultChan)

		for len(history)-initLen < maxTurns {
			instructions, err := s.getInstructions(activeAgent, contextVariables)
			if err != nil {
				DebugPrint(debug, "Failed to get instructions:", err)
				return
			}
			model := modelOverride
			if model == "" {
				model = activeAgent.Model
			}
			req := ChatRequest{
				Messages: prepareMessages(instructions, history, model),
				Model:    model,
				JSONMode: jsonMode,
			}
			tools := prepareTools(activeAgent)
			if len(tools) > 0 {
				req.Tools = tools
				if activeAgent.ToolChoice != nil {
					req.ToolChoice = *activeAgent.ToolChoice
				}
			}
			stream, err := s.Client.CreateChatCompletionStream(ctx, req)
			if err != nil {
				DebugPrint(debug, "Failed to create chat completion stream:", err)
				return
			}

			resultChan <- map[string]interface{}{"delim": "start"}
			var finalMessage *ChatMessage
			for stream.Next() {
				ev := stream.Current()

				if ev.Content != "" && ev.Message == nil {
					resultChan <- map[string]interface{}{
						"content": ev.Content,
						"sender":  activeAgent.Name,
					}
				}

				if ev.ToolCall != nil {
					resultChan <- map[string]interface{}{
						"tool_calls": []map[string]interface{}{
							{
								"id": ev.ToolCall.ID,
								"function": map[string]interface{}{
									"name":      ev.ToolCall.Function.Name,
									"arguments": ev.ToolCall.Function.Arguments,
								},
							},
						},
					}
				}

				if ev.Message != nil {
					finalMessage = ev.Message
				}
			}

			resultChan <- map[string]interface{}{"delim": "end"}

			if err := stream.Err(); err != nil {
				DebugPrint(debug, "Stream error:", err)
				stream.Close()
				return
			}
			stream.Close()

			// Process accumulated response
			if finalMessage == nil {
				DebugPrint(debug, "No final message in the response.")
				return
			}

			message := map[string]interface{}{
				"content":    finalMessage.Content,
				"sender":     activeAgent.Name,
				"role":       RoleAssistant,
				"tool_calls": make([]map[string]interface{}, 0),
			}
			if len(finalMessage.ToolCalls) > 0 {
				message["tool_calls"] = finalMessage.ToolCalls
			}

			DebugPrint(debug, "Received completion:", message)
			history = append(history, message)

			toolCalls := finalMessage.ToolCalls
			if len(toolCalls) == 0 || !executeTools {
				DebugPrint(debug, "Ending turn.")
				break
			}

			// Handle tool calls
			response, err := s.handleToolCalls(toolCalls, activeAgent.Functions, contextVariables, debug)
			if err != nil {
				DebugPrint(debug, "Tool call error:", err)
				return
			}

			history = append(history, response.Messages...)
			for k, v := range response.ContextVariables {
				contextVariables[k] = v
			}
			if response.Agent != nil {
				activeAgent = response.Agent
			}
		}

		// Send final response
		resultChan <- map[string]interface{}{
			"response": &Response{
				Messages:         history[initLen:],
				Agent:            activeAgent,
				ContextVariables: contextVariables,
			},
		}
	}()

	return resultChan, nil
}

// Run executes a single interaction with the chat backend using the provided agent
// configuration. It supports both streaming and non-streaming modes, tool execution,
// and debug logging.
//
// Parameters:
//   - ctx: Context for the request
//   - agent: Agent configuration including tools and instructions
//   - messages: Conversation history
//   - contextVariables: Variables to be used in the conversation
//   - modelOverride: Optional model override (uses agent's default if empty)
//   - stream: Enable streaming mode
//   - debug: Enable debug logging
//   - maxTurns: Maximum number of interaction turns
//   - executeTools: Whether to execute tool calls
//   - jsonMode: Ask the backend for a JSON object response
//
// Returns a Response containing the model's output and any tool execution results,
// or an error if the interaction fails.
func (s *Swarm) Run(
	ctx context.Context,
	agent *Agent,
	messages []map[string]interface{},
	contextVariables map[string]interface{},
	modelOverride string,
	stream bool,
	debug bool,
	maxTurns int,
	executeTools bool,
	jsonMode bool,
) (*Response, error) {
	if stream {
		ch, err := s.RunAndStream(ctx, agent, messages, contextVariables, modelOverride, debug, maxTurns, executeTools, jsonMode)
		if err != nil {
			return nil, err
		}

		var finalResponse *Response
		for msg := range ch {
			if resp, ok := msg["response"]; ok {
				if r, ok := resp.(*Response); ok {
					finalResponse = r
				}
			}
		}
		return finalResponse, nil
	}

	if contextVariables == nil {
		contextVariables = make(map[string]interface{})
	}

	activeAgent := agent
	history := make([]map[string]interface{}, len(messages))
	copy(history, messages)
	initLen := len(messages)

	for len(history)-initLen < maxTurns {
		completion, err := s.getChatCompletion(ctx, activeAgent, history, contextVariables, modelOverride, debug, jsonMode)
		if err != nil {
			return nil, err
		}

		msg := completion.Message()
		message := map[string]interface{}{
			"content": msg.Content,
			"sender":  activeAgent.Name,
			"role":    RoleAssistant,
		}
		if len(msg.ToolCalls) > 0 {
			message["tool_calls"] = msg.ToolCalls
		}

		DebugPrint(debug, "Received completion:", message)
		history = append(history, message)

		if len(msg.ToolCalls) == 0 || !executeTools {
			DebugPrint(debug, "Ending turn.")
			break
		}

		// Handle tool calls
		response, err := s.handleToolCalls(msg.ToolCalls, activeAgent.Functions, contextVariables, debug)
		if err != nil {
			return nil, err
		}

		history = append(history, response.Messages...)
		for k, v := range response.ContextVariables {
			contextVariables[k] = v
		}
		if response.Agent != nil {
			activeAgent = response.Agent
		}
	}

	return &Response{
		Messages:         history[initLen:],
		Agent:            activeAgent,
		ContextVariables: contextVariables,
	}, nil
}
