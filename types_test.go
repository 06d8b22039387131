package swarm

import (
	"reflect"
	"testing"
)

func TestNewAgent(t *testing.T) {
	agent := NewAgent("TestAgent")

	if agent.Name != "TestAgent" {
		t.Errorf("Expected agent name to be TestAgent, got %s", agent.Name)
	}
	if agent.Model != "gpt-4o" {
		t.Errorf("Expected default model to be gpt-4o, got %s", agent.Model)
	}
	if agent.Instructions != "You are a helpful agent." {
		t.Errorf("Expected default instructions, got %v", agent.Instructions)
	}
	if len(agent.Functions) != 0 {
		t.Errorf("Expected empty functions slice, got %d functions", len(agent.Functions))
	}
	if agent.ToolChoice != nil {
		t.Errorf("Expected nil tool choice by default, got %v", *agent.ToolChoice)
	}
	if !agent.ParallelToolCalls {
		t.Error("Expected ParallelToolCalls to be true by default")
	}
}

func TestAgentChaining(t *testing.T) {
	testFunc := func(args map[string]interface{}) (interface{}, error) {
		return "test", nil
	}

	agent := NewAgent("TestAgent").
		WithModel("gemini-1.5-pro").
		WithInstructions("Custom instructions").
		WithToolChoice("auto").
		AddFunction(NewAgentFunction(
			"testFunc",
			"Test function description",
			testFunc,
			[]Parameter{{Name: "name", Type: reflect.TypeOf("string")}},
		))

	if agent.Model != "gemini-1.5-pro" {
		t.Errorf("Expected model to be gemini-1.5-pro, got %s", agent.Model)
	}
	if agent.Instructions != "Custom instructions" {
		t.Errorf("Expected custom instructions, got %v", agent.Instructions)
	}
	if agent.ToolChoice == nil || *agent.ToolChoice != "auto" {
		t.Errorf("Expected tool choice auto, got %v", agent.ToolChoice)
	}
	if len(agent.Functions) != 1 {
		t.Errorf("Expected 1 function, got %d", len(agent.Functions))
	}
}

func TestNewAgentFunction(t *testing.T) {
	fn := NewAgentFunction(
		"lookup",
		"Looks things up",
		func(args map[string]interface{}) (interface{}, error) {
			return args["key"], nil
		},
		[]Parameter{{Name: "key", Type: reflect.TypeOf(""), Required: true}},
	)

	if fn.Name() != "lookup" {
		t.Errorf("Expected name lookup, got %s", fn.Name())
	}
	if fn.Description() != "Looks things up" {
		t.Errorf("Unexpected description %q", fn.Description())
	}
	if len(fn.Parameters()) != 1 || fn.Parameters()[0].Name != "key" {
		t.Errorf("Unexpected parameters %+v", fn.Parameters())
	}

	out, err := fn.Call(map[string]interface{}{"key": "value"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "value" {
		t.Errorf("Expected call result 'value', got %v", out)
	}
}

func TestResult(t *testing.T) {
	agent := NewAgent("TestAgent")
	result := &Result{
		Value: "test value",
		Agent: agent,
		ContextVariables: map[string]interface{}{
			"key": "value",
		},
	}

	if result.Value != "test value" {
		t.Errorf("Expected value to be 'test value', got %s", result.Value)
	}
	if result.Agent != agent {
		t.Error("Expected agent reference to match")
	}
	if v, ok := result.ContextVariables["key"]; !ok || v != "value" {
		t.Errorf("Expected context variable 'key' to be 'value', got %v", v)
	}
}
