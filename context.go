package swarm

import (
	"context"
	"fmt"
	"sync"
)

// Context carries the state and event flow of one workflow run. It wraps a
// context.Context for cancellation and adds an event channel plus a shared
// state map.
//
// Context is safe for concurrent use.
type Context struct {
	ctx       context.Context
	cancel    context.CancelFunc
	eventChan chan Event
	state     map[string]interface{}
	mu        sync.RWMutex
}

// eventBufferSize bounds how many events can be queued before SendEvent blocks.
const eventBufferSize = 100

// NewContext creates a workflow Context derived from the given parent context.
func NewContext(ctx context.Context) *Context {
	ctx, cancel := context.WithCancel(ctx)
	return &Context{
		ctx:       ctx,
		cancel:    cancel,
		eventChan: make(chan Event, eventBufferSize),
		state:     make(map[string]interface{}),
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Cancel aborts the workflow run. Pending SendEvent calls return
// context.Canceled afterwards.
func (c *Context) Cancel() {
	c.cancel()
}

// SendEvent validates an event and queues it for the engine loop.
// It returns an error for nil or invalid events, or when the run was
// cancelled.
func (c *Context) SendEvent(event Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	case c.eventChan <- event:
		return nil
	}
}

// Events returns the receive side of the event queue.
func (c *Context) Events() <-chan Event {
	return c.eventChan
}

// Set stores a value in the run's shared state.
func (c *Context) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// Get retrieves a value from the run's shared state.
func (c *Context) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.state[key]
	return value, ok
}

// GetString retrieves a string value from the shared state. The second
// return is false when the key is missing or holds a different type.
func (c *Context) GetString(key string) (string, bool) {
	value, ok := c.Get(key)
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

// GetBool retrieves a bool value from the shared state. The second return
// is false when the key is missing or holds a different type.
func (c *Context) GetBool(key string) (bool, bool) {
	value, ok := c.Get(key)
	if !ok {
		return false, false
	}
	b, ok := value.(bool)
	return b, ok
}

// Delete removes a key from the shared state.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, key)
}
