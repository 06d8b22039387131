package main

import (
	"fmt"
	"reflect"
	"strings"

	swarm "github.com/agentswarm/swarm-go"
)

func main() {
	agent := swarm.NewAgent("Storyteller").WithModel("gpt-4o").
		WithInstructions("You are a storyteller. Keep stories short and vivid, and use the dictionary tool when asked about words.")

	defineFunc := swarm.NewAgentFunction(
		"defineWord",
		"Look up a short definition for a word.",
		func(args map[string]interface{}) (interface{}, error) {
			word, ok := args["word"].(string)
			if !ok || word == "" {
				return nil, fmt.Errorf("word not provided")
			}
			definitions := map[string]string{
				"swarm":  "a large group moving together, especially insects",
				"agent":  "one that acts on behalf of another",
				"stream": "a steady flow of something",
			}
			if def, ok := definitions[strings.ToLower(word)]; ok {
				return def, nil
			}
			return fmt.Sprintf("no definition found for %q", word), nil
		},
		[]swarm.Parameter{{Name: "word", Type: reflect.TypeOf("string"), Required: true, Description: "Word to define"}},
	)

	agent.AddFunction(defineFunc)

	// Stream chunks to the terminal as they arrive.
	swarm.RunDemoLoop(agent, nil, true, false)
}
