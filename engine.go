package swarm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultMaxParallel bounds parallel task execution when a step does not
// set its own limit.
const defaultMaxParallel = 4

// Engine drives an event-based workflow: events are dispatched to the
// steps registered for their type until a StopEvent or an unrecoverable
// error terminates the run. ParallelEvents fan their tasks out to bounded
// concurrent execution.
type Engine struct {
	steps map[EventType]Step
}

// NewEngine creates an empty workflow engine.
func NewEngine() *Engine {
	return &Engine{
		steps: make(map[EventType]Step),
	}
}

// AddStep registers a step as the handler for its event type.
// Registering two steps for the same event type is an error.
func (e *Engine) AddStep(step Step) error {
	if step == nil {
		return fmt.Errorf("step cannot be nil")
	}
	if _, exists := e.steps[step.EventType()]; exists {
		return fmt.Errorf("step for event type %q already registered", step.EventType())
	}
	e.steps[step.EventType()] = step
	return nil
}

// Run executes the workflow starting from a StartEvent carrying the given
// inputs. It returns the StopEvent's result, or an error if the workflow
// fails or no step can handle an event.
func (e *Engine) Run(ctx *Context, inputs map[string]interface{}) (interface{}, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if inputs == nil {
		inputs = make(map[string]interface{})
	}

	if err := ctx.SendEvent(NewStartEvent(inputs)); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Context().Done():
			return nil, ctx.Context().Err()
		case event := <-ctx.Events():
			switch ev := event.(type) {
			case *StopEvent:
				return ev.Result, nil

			case *ErrorEvent:
				return nil, fmt.Errorf("workflow failed at step %q: %w", ev.StepName, ev.Error)

			case *ParallelEvent:
				resultEvent, err := e.runParallel(ctx, ev)
				if err != nil {
					return nil, err
				}
				if err := ctx.SendEvent(resultEvent); err != nil {
					return nil, err
				}

			default:
				next, err := e.dispatch(ctx, event)
				if err != nil {
					return nil, err
				}
				if err := ctx.SendEvent(next); err != nil {
					return nil, err
				}
			}
		}
	}
}

// dispatch routes an event to its registered step and executes the step
// under its retry policy.
func (e *Engine) dispatch(ctx *Context, event Event) (Event, error) {
	step, ok := e.steps[event.Type()]
	if !ok {
		return nil, fmt.Errorf("no step registered for event type %q", event.Type())
	}
	return e.executeStep(ctx, step, event)
}

// executeStep runs a step with per-step timeout and exponential-backoff
// retries according to the step's config.
func (e *Engine) executeStep(ctx *Context, step Step, event Event) (Event, error) {
	config := step.Config()
	policy := config.RetryPolicy
	if policy == nil {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	interval := policy.InitialInterval
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Context().Done():
				return nil, ctx.Context().Err()
			case <-time.After(interval):
			}
			interval = time.Duration(float64(interval) * policy.Multiplier)
			if policy.MaxInterval > 0 && interval > policy.MaxInterval {
				interval = policy.MaxInterval
			}
		}

		next, err := e.runWithTimeout(ctx, step, event, config.Timeout)
		if err == nil {
			return next, nil
		}
		lastErr = err

		if !retriable(policy, err) {
			break
		}
		DebugPrint(false, "step", step.Name(), "attempt", attempt+1, "failed:", err)
	}

	return nil, fmt.Errorf("step %q failed after retries: %w", step.Name(), lastErr)
}

// runWithTimeout executes the step handler, bounding it with the step's
// timeout when one is configured.
func (e *Engine) runWithTimeout(ctx *Context, step Step, event Event, timeout time.Duration) (Event, error) {
	if timeout <= 0 {
		return step.Handle(ctx, event)
	}

	type outcome struct {
		event Event
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		next, err := step.Handle(ctx, event)
		done <- outcome{next, err}
	}()

	select {
	case <-ctx.Context().Done():
		return nil, ctx.Context().Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("step %q timed out after %s", step.Name(), timeout)
	case out := <-done:
		return out.event, out.err
	}
}

// retriable reports whether the policy allows retrying after err.
// An empty policy error list means all errors are retriable.
func retriable(policy *RetryPolicy, err error) bool {
	if policy.MaxRetries <= 0 {
		return false
	}
	if len(policy.Errors) == 0 {
		return true
	}
	for _, target := range policy.Errors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// runParallel executes all tasks of a ParallelEvent with bounded
// concurrency and aggregates their outcomes into a ParallelResultEvent.
// Individual task failures are recorded, not fatal.
func (e *Engine) runParallel(ctx *Context, event *ParallelEvent) (*ParallelResultEvent, error) {
	tasks := event.GetTasks()

	maxParallel := int64(defaultMaxParallel)
	if step, ok := e.steps[event.Type()]; ok && step.Config().MaxParallel > 0 {
		maxParallel = step.Config().MaxParallel
	}

	var (
		mu      sync.Mutex
		results = make(map[string]interface{}, len(tasks))
		errs    = make(map[string]error)
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx.Context())
	g.SetLimit(int(maxParallel))

	for _, task := range tasks {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				mu.Lock()
				errs[task.ID] = gctx.Err()
				mu.Unlock()
				return nil
			default:
			}

			step, ok := e.steps[task.Type]
			if !ok {
				mu.Lock()
				errs[task.ID] = fmt.Errorf("no step registered for task type %q", task.Type)
				mu.Unlock()
				return nil
			}

			result, err := e.runTask(ctx, step, task)
			mu.Lock()
			if err != nil {
				errs[task.ID] = err
				results[task.ID] = NewErrorEvent(err).WithTask(task.ID)
			} else {
				results[task.ID] = result
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewParallelResultEvent(results, errs, time.Since(start), event.SourceStep), nil
}

// runTask wraps a task payload into an event and executes the task's step.
func (e *Engine) runTask(ctx *Context, step Step, task Task) (interface{}, error) {
	data, ok := task.Payload.(map[string]interface{})
	if !ok && task.Payload != nil {
		converted, err := ToMap(task.Payload)
		if err != nil {
			data = map[string]interface{}{"payload": task.Payload}
		} else {
			data = converted
		}
	}

	timeout := task.Timeout
	if step.Config().Timeout > 0 && (timeout <= 0 || step.Config().Timeout < timeout) {
		timeout = step.Config().Timeout
	}

	result, err := e.runWithTimeout(ctx, step, NewBaseEvent(task.Type, data), timeout)
	if err != nil {
		return nil, fmt.Errorf("task %q failed: %w", task.ID, err)
	}
	return result, nil
}
