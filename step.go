package swarm

import (
	"time"
)

// Step is a unit of work in an event-driven workflow. The engine routes
// every event to the step registered for its event type.
type Step interface {
	// Name returns the step's identifier, used in error messages.
	Name() string

	// EventType returns the event type this step handles.
	EventType() EventType

	// Config returns the step's execution settings.
	Config() StepConfig

	// Handle processes an event and returns the next event, or an error.
	Handle(ctx *Context, event Event) (Event, error)
}

// RetryPolicy configures exponential-backoff retries for a step.
type RetryPolicy struct {
	// MaxRetries is the number of retry attempts after the first failure.
	MaxRetries int

	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64

	// Errors lists the errors that trigger a retry. Empty means any error.
	Errors []error
}

// StepConfig holds per-step execution settings.
type StepConfig struct {
	// MaxParallel bounds concurrent task execution for parallel events
	// handled by this step. Zero means the engine default.
	MaxParallel int64

	// Timeout bounds a single handler execution. Zero means no limit.
	Timeout time.Duration

	// RetryPolicy controls retries. Nil means DefaultRetryPolicy.
	RetryPolicy *RetryPolicy
}

// StepFunc is a step handler: it receives the workflow context and the
// triggering event and returns the next event.
type StepFunc func(ctx *Context, event Event) (Event, error)

// funcStep wraps a StepFunc into a Step.
type funcStep struct {
	name      string
	handler   StepFunc
	config    StepConfig
	eventType EventType
}

func (s *funcStep) Name() string { return s.name }

func (s *funcStep) EventType() EventType { return s.eventType }

func (s *funcStep) Config() StepConfig { return s.config }

func (s *funcStep) Handle(ctx *Context, event Event) (Event, error) {
	return s.handler(ctx, event)
}

// NewStep creates a step from a handler function. A nil retry policy in
// the config is replaced with DefaultRetryPolicy.
func NewStep(name string, eventType EventType, handler StepFunc, config StepConfig) Step {
	if config.RetryPolicy == nil {
		config.RetryPolicy = DefaultRetryPolicy()
	}
	return &funcStep{
		name:      name,
		handler:   handler,
		config:    config,
		eventType: eventType,
	}
}

// DefaultRetryPolicy returns the retry policy used when a step does not
// set its own: three retries starting at one second, doubling up to
// thirty seconds.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:      3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}
