package swarm

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SimpleFlow is a sequential multi-agent workflow: each step runs an agent
// in order, and step results are carried forward through context variables
// and the shared conversation history.
type SimpleFlow struct {
	// Name is the name of the workflow.
	Name string `yaml:"name" json:"name"`
	// Model specifies the model used in the workflow.
	Model string `yaml:"model" json:"model"`
	// MaxTurns defines the maximum number of turns allowed per step.
	MaxTurns int `yaml:"max_turns" json:"max_turns"`
	// System represents the system prompt shared by all steps.
	System string `yaml:"system" json:"system"`
	// Steps is a list of steps involved in the workflow.
	Steps []SimpleFlowStep `yaml:"steps" json:"steps"`
	// Verbose specifies whether to print verbose logs.
	Verbose bool `yaml:"verbose" json:"verbose"`
	// Timeout specifies the timeout for the entire workflow.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// SimpleFlowStep is one unit of work in a SimpleFlow, executed by a single
// agent with its own instructions, inputs and functions.
type SimpleFlowStep struct {
	// Name is the name of the workflow step.
	Name string `yaml:"name" json:"name"`
	// Instructions are the instructions for the workflow step.
	Instructions string `yaml:"instructions" json:"instructions"`
	// Inputs are the inputs required for the workflow step.
	Inputs map[string]interface{} `yaml:"inputs" json:"inputs"`
	// Timeout specifies the timeout for this step. If not set, the workflow
	// timeout is split evenly across steps.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Agent is the agent responsible for executing the workflow step.
	Agent *Agent `yaml:"-" json:"-"`
	// Functions are the functions that the agent can perform in this workflow step.
	Functions []AgentFunction `yaml:"-" json:"-"`
}

// SimpleStepResult contains the output and metadata from executing a workflow step.
type SimpleStepResult struct {
	StepName string
	Content  string
	Messages []map[string]interface{}
	Error    error
}

// Initialize prepares the workflow for execution: it fills in defaults
// for MaxTurns and Timeout, builds an agent per step, splits the workflow
// timeout across steps that set none, and registers a handoff function on
// every step except the last so agents can advance the flow.
//
// Returns an error if the workflow has no steps.
func (w *SimpleFlow) Initialize() error {
	if w.MaxTurns == 0 {
		w.MaxTurns = 30
	}
	if w.Timeout == 0 {
		w.Timeout = 5 * time.Minute
	}

	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow must have at least one step")
	}

	for i := range w.Steps {
		step := &w.Steps[i]
		if step.Agent == nil {
			step.Agent = NewAgent(step.Name)
		}
		if step.Timeout == 0 {
			step.Timeout = w.Timeout / time.Duration(len(w.Steps))
		}

		last := i == len(w.Steps)-1
		instructions := step.Instructions
		if !last {
			instructions = fmt.Sprintf("%s\n\nHandoff to the next step after you finish your task.", instructions)
		}
		step.Agent.WithInstructions(instructions)

		for _, f := range step.Functions {
			step.Agent.AddFunction(f)
		}
		if !last {
			step.Agent.AddFunction(handoffFunction(&w.Steps[i+1]))
		}
	}

	return nil
}

// handoffFunction builds the agent function that transfers control to next.
func handoffFunction(next *SimpleFlowStep) AgentFunction {
	return NewAgentFunction(
		fmt.Sprintf("handoffTo%s", next.Name),
		fmt.Sprintf("Handoff to %s step", next.Name),
		func(args map[string]interface{}) (interface{}, error) {
			return &Result{
				Value: fmt.Sprintf("Handoff to %s step...", next.Name),
				Agent: next.Agent,
			}, nil
		},
		[]Parameter{},
	)
}

// LoadSimpleFlow reads a YAML workflow definition from path and returns an
// initialized SimpleFlow ready to run.
func LoadSimpleFlow(path string) (*SimpleFlow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var workflow SimpleFlow
	if err := yaml.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	if err := workflow.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize workflow: %w", err)
	}

	return &workflow, nil
}

// Save writes the workflow definition to path as YAML.
func (w *SimpleFlow) Save(path string) error {
	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write workflow file: %w", err)
	}

	return nil
}

// stepMessages assembles the message list for a step: the shared system
// prompt, the conversation so far, and a user message carrying the merged
// step inputs and context variables.
func (w *SimpleFlow) stepMessages(prevMessages []map[string]interface{}, vars map[string]interface{}) []map[string]interface{} {
	messages := make([]map[string]interface{}, 0, len(prevMessages)+2)
	messages = append(messages, map[string]interface{}{
		"role":    "system",
		"content": w.System,
	})
	messages = append(messages, prevMessages...)
	messages = append(messages, map[string]interface{}{
		"role":    "user",
		"content": fmt.Sprintf("Context: %v", vars),
	})
	return messages
}

// executeStep runs one step under its own timeout. Step inputs override
// context variables carried over from earlier steps.
func (w *SimpleFlow) executeStep(ctx context.Context, client *Swarm, step *SimpleFlowStep, contextVars map[string]interface{}, prevMessages []map[string]interface{}) (*SimpleStepResult, error) {
	stepCtx, cancel := context.WithTimeout(ctx, step.Timeout)
	defer cancel()

	if step.Agent == nil {
		return nil, fmt.Errorf("step %s has no agent configured", step.Name)
	}

	mergedVars := make(map[string]interface{}, len(contextVars)+len(step.Inputs))
	for k, v := range contextVars {
		mergedVars[k] = v
	}
	for k, v := range step.Inputs {
		mergedVars[k] = v
	}

	messages := w.stepMessages(prevMessages, mergedVars)

	response, err := client.Run(stepCtx, step.Agent, messages, mergedVars, w.Model, false, w.Verbose, w.MaxTurns, true, false)
	if err != nil {
		return &SimpleStepResult{
			StepName: step.Name,
			Error:    fmt.Errorf("step %s execution failed: %w", step.Name, err),
		}, err
	}
	if response == nil || len(response.Messages) == 0 {
		return nil, fmt.Errorf("step %s returned no response", step.Name)
	}

	content, _ := response.Messages[len(response.Messages)-1]["content"].(string)
	return &SimpleStepResult{
		StepName: step.Name,
		Content:  content,
		Messages: response.Messages,
	}, nil
}

// Run executes the workflow steps in order under the workflow timeout,
// re-initializing first so defaults and handoffs are in place. It returns
// the content of the final step together with the full conversation history.
func (w *SimpleFlow) Run(ctx context.Context, client *Swarm) (string, []map[string]interface{}, error) {
	wfCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	if err := w.Initialize(); err != nil {
		return "", nil, fmt.Errorf("failed to initialize workflow: %w", err)
	}

	contextVars := make(map[string]interface{})
	var messages []map[string]interface{}
	var lastContent string

	for i := range w.Steps {
		step := &w.Steps[i]
		if err := wfCtx.Err(); err != nil {
			return "", nil, fmt.Errorf("workflow cancelled: %w", err)
		}

		result, err := w.executeStep(wfCtx, client, step, contextVars, messages)
		if err != nil {
			if w.Verbose {
				fmt.Printf("Step %s failed: %v\n", step.Name, err)
			}
			return "", nil, fmt.Errorf("workflow failed at step %d (%s): %w", i+1, step.Name, err)
		}

		messages = result.Messages
		lastContent = result.Content
		contextVars[fmt.Sprintf("%sResult", step.Name)] = result.Content
	}

	return lastContent, messages, nil
}
