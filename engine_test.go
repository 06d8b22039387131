package swarm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestEngineRun(t *testing.T) {
	engine := NewEngine()
	err := engine.AddStep(NewStep("start", EventStart, func(ctx *Context, event Event) (Event, error) {
		name, _ := event.Data()["name"].(string)
		return NewStopEvent(fmt.Sprintf("hello %s", name)), nil
	}, StepConfig{}))
	if err != nil {
		t.Fatalf("Failed to add step: %v", err)
	}

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	result, err := engine.Run(ctx, map[string]interface{}{"name": "world"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "hello world" {
		t.Errorf("Expected 'hello world', got %v", result)
	}
}

func TestEngineRunMultipleSteps(t *testing.T) {
	const eventSecond = EventType("SecondEvent")

	engine := NewEngine()
	engine.AddStep(NewStep("first", EventStart, func(ctx *Context, event Event) (Event, error) {
		ctx.Set("visited", true)
		return NewBaseEvent(eventSecond, map[string]interface{}{"value": 42}), nil
	}, StepConfig{}))
	engine.AddStep(NewStep("second", eventSecond, func(ctx *Context, event Event) (Event, error) {
		return NewStopEvent(event.Data()["value"]), nil
	}, StepConfig{}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	result, err := engine.Run(ctx, map[string]interface{}{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected 42, got %v", result)
	}
	if visited, _ := ctx.GetBool("visited"); !visited {
		t.Error("Expected first step to record state")
	}
}

func TestEngineAddStepDuplicate(t *testing.T) {
	engine := NewEngine()
	step := NewStep("start", EventStart, func(ctx *Context, event Event) (Event, error) {
		return NewStopEvent("done"), nil
	}, StepConfig{})

	if err := engine.AddStep(step); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := engine.AddStep(step); err == nil {
		t.Error("Expected error for duplicate step registration")
	}
}

func TestEngineRunUnknownEventType(t *testing.T) {
	engine := NewEngine()
	engine.AddStep(NewStep("start", EventStart, func(ctx *Context, event Event) (Event, error) {
		return NewBaseEvent("UnhandledEvent", nil), nil
	}, StepConfig{}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	_, err := engine.Run(ctx, nil)
	if err == nil {
		t.Fatal("Expected error for unregistered event type")
	}
	if !strings.Contains(err.Error(), "no step registered") {
		t.Errorf("Expected 'no step registered' error, got %v", err)
	}
}

func TestEngineRetry(t *testing.T) {
	attempts := 0
	engine := NewEngine()
	engine.AddStep(NewStep("flaky", EventStart, func(ctx *Context, event Event) (Event, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient failure")
		}
		return NewStopEvent("recovered"), nil
	}, StepConfig{
		RetryPolicy: &RetryPolicy{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2.0,
		},
	}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	result, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != "recovered" {
		t.Errorf("Expected 'recovered', got %v", result)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestEngineRetryNonRetriableError(t *testing.T) {
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")

	attempts := 0
	engine := NewEngine()
	engine.AddStep(NewStep("failing", EventStart, func(ctx *Context, event Event) (Event, error) {
		attempts++
		return nil, errFatal
	}, StepConfig{
		RetryPolicy: &RetryPolicy{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
			Multiplier:      2.0,
			Errors:          []error{errTransient},
		},
	}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	_, err := engine.Run(ctx, nil)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !errors.Is(err, errFatal) {
		t.Errorf("Expected wrapped fatal error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retriable error, got %d", attempts)
	}
}

func TestEngineRunErrorEvent(t *testing.T) {
	errBroken := errors.New("backend unavailable")

	engine := NewEngine()
	engine.AddStep(NewStep("start", EventStart, func(ctx *Context, event Event) (Event, error) {
		return NewErrorEvent(errBroken).WithStep("start"), nil
	}, StepConfig{}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	_, err := engine.Run(ctx, nil)
	if err == nil {
		t.Fatal("Expected error from ErrorEvent")
	}
	if !errors.Is(err, errBroken) {
		t.Errorf("Expected wrapped backend error, got %v", err)
	}
	if !strings.Contains(err.Error(), "start") {
		t.Errorf("Expected step name in error, got %v", err)
	}
}

func TestEngineStepTimeout(t *testing.T) {
	engine := NewEngine()
	engine.AddStep(NewStep("slow", EventStart, func(ctx *Context, event Event) (Event, error) {
		time.Sleep(100 * time.Millisecond)
		return NewStopEvent("too late"), nil
	}, StepConfig{
		Timeout: 10 * time.Millisecond,
		RetryPolicy: &RetryPolicy{
			MaxRetries: 0,
		},
	}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	_, err := engine.Run(ctx, nil)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestEngineParallel(t *testing.T) {
	const eventWork = EventType("WorkEvent")

	engine := NewEngine()
	engine.AddStep(NewStep("start", EventStart, func(ctx *Context, event Event) (Event, error) {
		tasks := []Task{
			NewTask("task1", eventWork, map[string]interface{}{"value": 1}),
			NewTask("task2", eventWork, map[string]interface{}{"value": 2}),
			NewTask("task3", eventWork, map[string]interface{}{"fail": true}),
		}
		return NewParallelEvent(tasks, "start")
	}, StepConfig{}))
	engine.AddStep(NewStep("work", eventWork, func(ctx *Context, event Event) (Event, error) {
		if fail, _ := event.Data()["fail"].(bool); fail {
			return nil, fmt.Errorf("task failed")
		}
		return NewBaseEvent(eventWork, event.Data()), nil
	}, StepConfig{
		RetryPolicy: &RetryPolicy{MaxRetries: 0},
	}))
	engine.AddStep(NewStep("collect", EventParallelResult, func(ctx *Context, event Event) (Event, error) {
		resultEvent, ok := event.(*ParallelResultEvent)
		if !ok {
			return nil, fmt.Errorf("expected parallel result event")
		}
		successful, failed, _ := resultEvent.GetStats()
		return NewStopEvent(map[string]interface{}{
			"successful": successful,
			"failed":     failed,
			"errors":     len(resultEvent.GetErrors()),
		}), nil
	}, StepConfig{}))

	ctx := NewContext(context.Background())
	defer ctx.Cancel()

	result, err := engine.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stats, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected stats map, got %T", result)
	}
	if stats["successful"] != 2 {
		t.Errorf("Expected 2 successful tasks, got %v", stats["successful"])
	}
	if stats["failed"] != 1 {
		t.Errorf("Expected 1 failed task, got %v", stats["failed"])
	}
	if stats["errors"] != 1 {
		t.Errorf("Expected 1 recorded error, got %v", stats["errors"])
	}
}
