package swarm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// openAIClientWrapper adapts the OpenAI SDK to the ChatClient interface.
// It translates the provider-neutral request into SDK params and the SDK
// response back into the neutral envelope.
type openAIClientWrapper struct {
	client openai.Client
}

var _ ChatClient = (*openAIClientWrapper)(nil)

// NewOpenAIClient creates a new OpenAI chat client
func NewOpenAIClient(apiKey string) ChatClient {
	if apiKey == "" {
		return nil
	}

	return &openAIClientWrapper{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// NewOpenAIClientWithBaseURL creates a new OpenAI chat client with a custom base URL
func NewOpenAIClientWithBaseURL(apiKey string, baseURL string) ChatClient {
	if apiKey == "" {
		return nil
	}

	if baseURL == "" {
		return &openAIClientWrapper{
			client: openai.NewClient(option.WithAPIKey(apiKey)),
		}
	}

	return &openAIClientWrapper{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)),
	}
}

// NewAzureOpenAIClient creates a new chat client for Azure OpenAI
func NewAzureOpenAIClient(apiKey, endpoint, apiVersion string) ChatClient {
	if apiKey == "" || endpoint == "" {
		return nil
	}

	return &openAIClientWrapper{
		client: openai.NewClient(
			azure.WithEndpoint(endpoint, apiVersion),
			azure.WithAPIKey(apiKey),
		),
	}
}

// toOpenAIParams translates the neutral request into SDK params.
func toOpenAIParams(req ChatRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleTool, RoleFunction:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			assistantMsg := openai.AssistantMessage(msg.Content)
			if len(msg.ToolCalls) > 0 {
				toolCallParams := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					toolCallParams[i] = openai.ChatCompletionMessageToolCallParam{
						ID:   tc.ID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					}
				}
				assistantMsg.OfAssistant.ToolCalls = toolCallParams
			}
			messages = append(messages, assistantMsg)
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(req.Model),
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters: openai.FunctionParameters{
						"type":       "object",
						"properties": t.Parameters.Properties,
						"required":   t.Parameters.Required,
					},
				},
			})
		}
		params.Tools = tools
		if req.ToolChoice != "" {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(req.ToolChoice),
			}
		}
	}
	return params
}

// fromOpenAIMessage translates the SDK response message into the neutral shape.
func fromOpenAIMessage(msg openai.ChatCompletionMessage) ChatMessage {
	out := ChatMessage{
		Role:    RoleAssistant,
		Sender:  RoleAssistant,
		Content: msg.Content,
	}
	if len(msg.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out.FunctionCall = &out.ToolCalls[0].Function
	}
	return out
}

// CreateChatCompletion implements ChatClient
func (c *openAIClientWrapper) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatCompletion, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	completion, err := c.client.Chat.Completions.New(ctx, toOpenAIParams(req))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in chat completion response")
	}

	return &ChatCompletion{
		Choices: []Choice{{Message: fromOpenAIMessage(completion.Choices[0].Message)}},
	}, nil
}

// CreateChatCompletionStream implements ChatClient
func (c *openAIClientWrapper) CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatCompletionStream, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, toOpenAIParams(req))
	if stream == nil {
		return nil, fmt.Errorf("failed to create streaming completion")
	}

	return &openAIStream{raw: stream}, nil
}

// openAIStream adapts the SDK's SSE stream to ChatCompletionStream. It
// accumulates chunks and surfaces completed content segments, completed
// tool calls, and one final accumulated message.
type openAIStream struct {
	raw       *ssestream.Stream[openai.ChatCompletionChunk]
	acc       openai.ChatCompletionAccumulator
	current   StreamEvent
	err       error
	exhausted bool
	finalSent bool
}

func (s *openAIStream) Next() bool {
	if s.err != nil || s.finalSent {
		return false
	}

	for !s.exhausted {
		if !s.raw.Next() {
			if err := s.raw.Err(); err != nil {
				s.err = err
				return false
			}
			s.exhausted = true
			break
		}
		chunk := s.raw.Current()
		s.acc.AddChunk(chunk)

		if content, ok := s.acc.JustFinishedContent(); ok {
			s.current = StreamEvent{Content: content}
			return true
		}

		if tool, ok := s.acc.JustFinishedToolCall(); ok {
			s.current = StreamEvent{ToolCall: &ToolCall{
				ID:   strconv.Itoa(tool.Index),
				Type: "function",
				Function: FunctionCall{
					Name:      tool.Name,
					Arguments: tool.Arguments,
				},
			}}
			return true
		}
	}

	if len(s.acc.Choices) == 0 {
		return false
	}

	msg := fromOpenAIMessage(s.acc.Choices[0].Message)
	s.current = StreamEvent{Message: &msg}
	s.finalSent = true
	return true
}

func (s *openAIStream) Current() StreamEvent { return s.current }

func (s *openAIStream) Err() error { return s.err }

func (s *openAIStream) Close() error { return s.raw.Close() }
