package swarm

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// StreamResponse is the typed view of a streaming chunk produced by
// RunAndStream. Chunks are plain maps on the wire; mapToStruct converts
// them when a typed view is convenient.
type StreamResponse struct {
	Content   string     `json:"content"`
	Sender    string     `json:"sender"`
	ToolCalls []ToolCall `json:"tool_calls"`
	Delim     string     `json:"delim"`
}

// mapToStruct converts a map into a struct via JSON round-tripping.
func mapToStruct(m map[string]interface{}, v interface{}) error {
	return ToStruct(m, v)
}

// formatArgs renders tool call arguments as "key=value" pairs sorted by key.
func formatArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return strings.Join(pairs, ", ")
}

// prettyPrintMessages prints assistant and tool messages from a completed run.
func prettyPrintMessages(messages []map[string]interface{}) {
	for _, msg := range messages {
		role, _ := msg["role"].(string)
		if role != RoleAssistant {
			continue
		}

		sender, _ := msg["sender"].(string)
		fmt.Printf("\033[94m%s\033[0m: ", sender)

		if content, ok := msg["content"].(string); ok && content != "" {
			fmt.Println(content)
		}

		if toolCalls, ok := msg["tool_calls"].([]ToolCall); ok && len(toolCalls) > 0 {
			if content, _ := msg["content"].(string); content == "" {
				fmt.Println()
			}
			for _, tc := range toolCalls {
				fmt.Printf("\033[95m%s\033[0m(%s)\n", tc.Function.Name, tc.Function.Arguments)
			}
		}
	}
}

// processAndPrintStreamingResponse consumes a streaming channel, printing
// chunks as they arrive, and returns the final response.
func processAndPrintStreamingResponse(ch <-chan map[string]interface{}) *Response {
	var response *Response
	var lastSender string

	for chunk := range ch {
		if resp, ok := chunk["response"]; ok {
			if r, ok := resp.(*Response); ok {
				response = r
			}
			continue
		}
		if delim, ok := chunk["delim"].(string); ok {
			if delim == "end" {
				fmt.Println()
			}
			continue
		}

		var sr StreamResponse
		if err := mapToStruct(chunk, &sr); err != nil {
			continue
		}

		if sr.Content != "" {
			if sr.Sender != "" && sr.Sender != lastSender {
				fmt.Printf("\033[94m%s\033[0m: ", sr.Sender)
				lastSender = sr.Sender
			}
			fmt.Print(sr.Content)
		}

		for _, tc := range sr.ToolCalls {
			fmt.Printf("\033[95m%s\033[0m(%s)\n", tc.Function.Name, tc.Function.Arguments)
		}
	}

	return response
}

// RunDemoLoop starts an interactive read-eval-print loop with the given
// agent. The chat backend is chosen from environment variables via
// NewDefaultSwarm. The loop ends on EOF (Ctrl-D).
func RunDemoLoop(agent *Agent, contextVariables map[string]interface{}, stream bool, debug bool) {
	client, err := NewDefaultSwarm()
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Starting Swarm CLI 🐝")

	if contextVariables == nil {
		contextVariables = make(map[string]interface{})
	}

	ctx := context.Background()
	activeAgent := agent
	messages := make([]map[string]interface{}, 0)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[90mUser\033[0m: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		messages = append(messages, map[string]interface{}{
			"role":    RoleUser,
			"content": input,
		})

		var response *Response
		if stream {
			ch, err := client.RunAndStream(ctx, activeAgent, messages, contextVariables, "", debug, 10, true, false)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			response = processAndPrintStreamingResponse(ch)
		} else {
			response, err = client.Run(ctx, activeAgent, messages, contextVariables, "", false, debug, 10, true, false)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			prettyPrintMessages(response.Messages)
		}

		if response != nil {
			messages = append(messages, response.Messages...)
			if response.Agent != nil {
				activeAgent = response.Agent
			}
			MergeFields(contextVariables, response.ContextVariables)
		}
	}
}
