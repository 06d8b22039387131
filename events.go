package swarm

import (
	"fmt"
	"sort"
	"time"
)

// EventType identifies an event kind. The engine routes each event to the
// step registered for its type.
type EventType string

const (
	// EventStart begins a workflow run.
	EventStart EventType = "StartEvent"
	// EventStop terminates a workflow run with a result.
	EventStop EventType = "StopEvent"
	// EventError terminates a workflow run with an error.
	EventError EventType = "ErrorEvent"
	// EventParallel fans tasks out for concurrent execution.
	EventParallel EventType = "ParallelEvent"
	// EventParallelResult carries aggregated outcomes of a parallel fan-out.
	EventParallelResult EventType = "ParallelResultEvent"
)

// Event is what flows between workflow steps. A step receives one event
// and returns the next one.
type Event interface {
	Type() EventType
	Data() map[string]interface{}
	Validate() error
}

// BaseEvent is a plain event carrying a type and a data map. Custom event
// types embed it and add their own fields.
type BaseEvent struct {
	eventType EventType
	data      map[string]interface{}
}

// NewBaseEvent creates an event of the given type with the given data.
func NewBaseEvent(eventType EventType, data map[string]interface{}) *BaseEvent {
	return &BaseEvent{
		eventType: eventType,
		data:      data,
	}
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// Data returns the event's data map, never nil.
func (e *BaseEvent) Data() map[string]interface{} {
	if e.data == nil {
		e.data = make(map[string]interface{})
	}
	return e.data
}

func (e *BaseEvent) Validate() error {
	if e.eventType == "" {
		return fmt.Errorf("event type is required")
	}
	return nil
}

// StartEvent kicks off a workflow run with its initial inputs.
type StartEvent struct {
	BaseEvent
}

// NewStartEvent creates the initial event of a run. The inputs become the
// event data handed to the first step.
func NewStartEvent(inputs map[string]interface{}) *StartEvent {
	return &StartEvent{
		BaseEvent: BaseEvent{
			eventType: EventStart,
			data:      inputs,
		},
	}
}

func (e *StartEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}
	if e.data == nil {
		return fmt.Errorf("inputs are required")
	}
	return nil
}

// StopEvent ends a workflow run. Its Result is what Engine.Run returns.
type StopEvent struct {
	BaseEvent
	Result interface{} `json:"result"`
}

// NewStopEvent creates the terminal event carrying the run's result.
func NewStopEvent(result interface{}) *StopEvent {
	return &StopEvent{
		BaseEvent: BaseEvent{
			eventType: EventStop,
		},
		Result: result,
	}
}

func (e *StopEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}
	if e.Result == nil {
		return fmt.Errorf("result is required")
	}
	return nil
}

// ErrorEvent aborts a workflow run. Steps return it (or it is synthesized
// for failed parallel tasks) to signal an unrecoverable failure.
type ErrorEvent struct {
	BaseEvent
	Error    error  `json:"error"`
	StepName string `json:"step_name,omitempty"`
	TaskID   string `json:"task_id,omitempty"`
}

// NewErrorEvent wraps err in a terminal error event.
func NewErrorEvent(err error) *ErrorEvent {
	return &ErrorEvent{
		BaseEvent: BaseEvent{
			eventType: EventError,
		},
		Error: err,
	}
}

// WithStep records the step where the failure happened.
func (e *ErrorEvent) WithStep(stepName string) *ErrorEvent {
	e.StepName = stepName
	return e
}

// WithTask records the parallel task where the failure happened.
func (e *ErrorEvent) WithTask(taskID string) *ErrorEvent {
	e.TaskID = taskID
	return e
}

func (e *ErrorEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}
	if e.Error == nil {
		return fmt.Errorf("error is required")
	}
	return nil
}

// Task is one unit of work inside a ParallelEvent. The payload becomes the
// data of the event handed to the step registered for the task's type.
type Task struct {
	ID       string        `json:"id"`
	Type     EventType     `json:"type"`
	Payload  interface{}   `json:"payload"`
	Priority int           `json:"priority"`
	Timeout  time.Duration `json:"timeout"`
}

// NewTask creates a task with a 5 minute default timeout.
func NewTask(id string, eventType EventType, payload interface{}) Task {
	return Task{
		ID:      id,
		Type:    eventType,
		Payload: payload,
		Timeout: 5 * time.Minute,
	}
}

// WithPriority sets the task priority. Higher priorities start first.
func (t Task) WithPriority(priority int) Task {
	t.Priority = priority
	return t
}

// WithTimeout overrides the task's default timeout.
func (t Task) WithTimeout(timeout time.Duration) Task {
	t.Timeout = timeout
	return t
}

func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if t.Type == "" {
		return fmt.Errorf("task type is required")
	}
	return nil
}

// ParallelEvent asks the engine to run its tasks concurrently. Tasks are
// held sorted by priority, highest first.
type ParallelEvent struct {
	BaseEvent
	Tasks      []Task `json:"tasks"`
	SourceStep string `json:"source_step"`
}

// NewParallelEvent validates the tasks and wraps them in a fan-out event.
// sourceStep names the step that produced the event so the aggregated
// result can be attributed back to it.
func NewParallelEvent(tasks []Task, sourceStep string) (*ParallelEvent, error) {
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("invalid task %s: %w", task.ID, err)
		}
	}

	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	return &ParallelEvent{
		BaseEvent: BaseEvent{
			eventType: EventParallel,
		},
		Tasks:      sorted,
		SourceStep: sourceStep,
	}, nil
}

func (e *ParallelEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}
	if len(e.Tasks) == 0 {
		return fmt.Errorf("at least one task is required")
	}
	for _, task := range e.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("invalid task %s: %w", task.ID, err)
		}
	}
	return nil
}

// GetTasks returns the tasks in priority order.
func (e *ParallelEvent) GetTasks() []Task {
	return e.Tasks
}

// ParallelResultEvent aggregates the outcomes of a parallel fan-out. A task
// that failed appears in Errors and contributes an ErrorEvent to Results.
type ParallelResultEvent struct {
	BaseEvent
	Results    map[string]interface{} `json:"results"`
	Errors     map[string]error       `json:"errors"`
	Successful int                    `json:"successful"`
	Failed     int                    `json:"failed"`
	Duration   time.Duration          `json:"duration"`
	SourceStep string                 `json:"source_step"`
}

// NewParallelResultEvent builds the aggregate event, counting a result as
// failed when it is an ErrorEvent.
func NewParallelResultEvent(results map[string]interface{}, errors map[string]error, duration time.Duration, sourceStep string) *ParallelResultEvent {
	successful := 0
	failed := 0
	for _, result := range results {
		if _, isError := result.(*ErrorEvent); isError {
			failed++
		} else {
			successful++
		}
	}

	return &ParallelResultEvent{
		BaseEvent: BaseEvent{
			eventType: EventParallelResult,
		},
		Results:    results,
		Errors:     errors,
		Successful: successful,
		Failed:     failed,
		Duration:   duration,
		SourceStep: sourceStep,
	}
}

func (e *ParallelResultEvent) Validate() error {
	if err := e.BaseEvent.Validate(); err != nil {
		return err
	}
	if e.Results == nil {
		return fmt.Errorf("results map is required")
	}
	if e.Errors == nil {
		return fmt.Errorf("errors map is required")
	}
	if e.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

// GetResults returns the per-task results keyed by task ID.
func (e *ParallelResultEvent) GetResults() map[string]interface{} {
	return e.Results
}

// GetErrors returns the per-task errors keyed by task ID.
func (e *ParallelResultEvent) GetErrors() map[string]error {
	return e.Errors
}

// GetStats reports how many tasks succeeded and failed and how long the
// fan-out took.
func (e *ParallelResultEvent) GetStats() (successful int, failed int, duration time.Duration) {
	return e.Successful, e.Failed, e.Duration
}
