package swarm

import "context"

// ChatClient is the interface every chat backend implements. It exposes
// exactly the operations the core loop uses: one blocking completion call
// and one streaming variant. Each invocation performs a single outbound
// API call.
type ChatClient interface {
	// CreateChatCompletion sends the conversation and returns the response
	// envelope. Recoverable backend outcomes (e.g. a safety-filter block)
	// are returned as normal envelopes, not errors.
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatCompletion, error)

	// CreateChatCompletionStream sends the conversation and returns a
	// stream of response events. Backends without native streaming may
	// replay a blocking response as a one-shot stream.
	CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatCompletionStream, error)
}

// StreamEvent is a single unit emitted by a ChatCompletionStream. Exactly
// one field group is set per event:
//   - Content + Sender for a completed content segment
//   - ToolCall for a completed tool call
//   - Message for the final accumulated message (last event of the stream)
type StreamEvent struct {
	Content  string
	Sender   string
	ToolCall *ToolCall
	Message  *ChatMessage
}

// ChatCompletionStream iterates over response events. Usage follows the
// Next/Current/Err pattern:
//
//	for stream.Next() {
//	    ev := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type ChatCompletionStream interface {
	// Next advances to the next event and reports whether one is available.
	Next() bool
	// Current returns the event Next advanced to.
	Current() StreamEvent
	// Err returns the first error encountered while streaming.
	Err() error
	// Close releases the underlying connection, if any.
	Close() error
}

// replayStream replays a fixed sequence of events as a stream. It backs
// the Gemini one-shot stream and the test mocks.
type replayStream struct {
	events []StreamEvent
	index  int
	err    error
}

func newReplayStream(events []StreamEvent) *replayStream {
	return &replayStream{events: events, index: -1}
}

// newCompletionReplayStream decomposes a blocking completion into the
// event sequence a native stream would have produced.
func newCompletionReplayStream(completion *ChatCompletion) *replayStream {
	msg := completion.Message()
	var events []StreamEvent
	if msg.Content != "" {
		events = append(events, StreamEvent{Content: msg.Content, Sender: msg.Sender})
	}
	for i := range msg.ToolCalls {
		events = append(events, StreamEvent{ToolCall: &msg.ToolCalls[i]})
	}
	final := msg
	events = append(events, StreamEvent{Message: &final})
	return newReplayStream(events)
}

func (s *replayStream) Next() bool {
	if s.err != nil {
		return false
	}
	s.index++
	return s.index < len(s.events)
}

func (s *replayStream) Current() StreamEvent {
	if s.index < 0 || s.index >= len(s.events) {
		return StreamEvent{}
	}
	return s.events[s.index]
}

func (s *replayStream) Err() error { return s.err }

func (s *replayStream) Close() error { return nil }
