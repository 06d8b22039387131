package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// BlockedResponseMessage is returned as normal message content when the
// Gemini backend reports zero candidates (safety-filter block). The block
// is a recoverable outcome, not an error.
const BlockedResponseMessage = "The response was blocked by safety filters and no candidates were returned."

// DefaultGeminiModel is used when a request does not name a model.
const DefaultGeminiModel = "gemini-1.5-pro"

// geminiRoles is the fixed mapping from the neutral role vocabulary to
// Gemini's. Roles not listed pass through unchanged. System is not here:
// Gemini rejects the role, so system messages never enter the contents
// (they are carried via the system instruction instead).
var geminiRoles = map[string]genai.Role{
	RoleAssistant: genai.RoleModel,
	RoleTool:      genai.RoleModel,
	RoleFunction:  genai.RoleModel,
}

// geminiClient adapts the Gemini SDK to the ChatClient interface. Each
// invocation reshapes the conversation and tool schemas into Gemini's
// request format, performs exactly one GenerateContent call, and reshapes
// the reply back into the neutral envelope.
type geminiClient struct {
	client *genai.Client
	model  string
}

var _ ChatClient = (*geminiClient)(nil)

// NewGeminiClient creates a new Gemini chat client using the Gemini API
// backend with the given API key.
func NewGeminiClient(ctx context.Context, apiKey string) (ChatClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{client: client, model: DefaultGeminiModel}, nil
}

// geminiRole maps a neutral role to Gemini's vocabulary.
func geminiRole(role string) genai.Role {
	if mapped, ok := geminiRoles[role]; ok {
		return mapped
	}
	return genai.Role(role)
}

// toGeminiContents converts the conversation into Gemini Content objects
// and collects system messages into a single system instruction. System
// messages never appear in the returned contents.
func toGeminiContents(messages []RequestMessage) ([]*genai.Content, *genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if msg.Content != "" {
				systemParts = append(systemParts, msg.Content)
			}
			continue
		}

		role := geminiRole(msg.Role)
		switch {
		case len(msg.ToolCalls) > 0:
			// Replay requested calls as "name(arguments)" text so the model
			// sees its own call in the history.
			parts := make([]*genai.Part, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.NewPartFromText(fmt.Sprintf("%s(%s)", tc.Function.Name, tc.Function.Arguments)))
			}
			contents = append(contents, genai.NewContentFromParts(parts, role))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, role))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return contents, system
}

// toGeminiTools converts neutral tool declarations into Gemini function
// declarations. Each property contributes its type and description; the
// required list is copied as is. No validation of type correctness.
func toGeminiTools(tools []ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]*genai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  toGeminiSchema(t.Parameters),
				},
			},
		})
	}
	return out
}

// toGeminiSchema converts a tool's parameter schema. Only type and
// description are copied per property.
func toGeminiSchema(params FunctionParameters) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params.Properties)),
		Required:   params.Required,
	}
	for name, raw := range params.Properties {
		prop, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		sub := &genai.Schema{}
		if t, ok := prop["type"].(string); ok {
			sub.Type = geminiSchemaType(t)
		}
		if desc, ok := prop["description"].(string); ok {
			sub.Description = desc
		}
		schema.Properties[name] = sub
	}
	return schema
}

func geminiSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// fromGeminiResponse reshapes a Gemini reply into the neutral envelope.
// The mapping is pure: translating the same reply twice yields identical
// envelopes.
//
// Three outcomes:
//   - zero candidates (content blocked): fixed explanation text, no tool calls
//   - function call: one tool call with a synthesized id and JSON-encoded
//     arguments, mirrored into the legacy FunctionCall field
//   - plain text: candidate text as content, ToolCalls nil
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*ChatCompletion, error) {
	if len(resp.Candidates) == 0 {
		fmt.Fprintln(os.Stderr, "gemini: response blocked by safety filters, no candidates were returned")
		return newAssistantCompletion(ChatMessage{Content: BlockedResponseMessage}), nil
	}

	functionCalls := resp.FunctionCalls()
	if len(functionCalls) > 0 {
		fc := functionCalls[0]
		args := fc.Args
		if args == nil {
			args = make(map[string]any)
		}
		encoded, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode function call arguments: %w", err)
		}

		call := FunctionCall{Name: fc.Name, Arguments: string(encoded)}
		return newAssistantCompletion(ChatMessage{
			Content:      "",
			FunctionCall: &call,
			ToolCalls: []ToolCall{
				{
					ID:       uuid.NewString(),
					Type:     "function",
					Function: call,
				},
			},
		}), nil
	}

	return newAssistantCompletion(ChatMessage{Content: resp.Text()}), nil
}

// CreateChatCompletion implements ChatClient. It performs exactly one
// outbound GenerateContent call per invocation.
func (c *geminiClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatCompletion, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	contents, system := toGeminiContents(req.Messages)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Tools:             toGeminiTools(req.Tools),
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return fromGeminiResponse(resp)
}

// CreateChatCompletionStream implements ChatClient. Gemini completions are
// performed as one blocking call and replayed as a one-shot stream, so the
// single-call-per-invocation contract holds in streaming mode too.
func (c *geminiClient) CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatCompletionStream, error) {
	completion, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	return newCompletionReplayStream(completion), nil
}
