package swarm

import "context"

// MockChatClient is an in-memory ChatClient for tests. Queued completion
// responses are consumed in order; the last one is reused once the queue
// runs out. Stream events are replayed for every stream request.
type MockChatClient struct {
	CompletionResponses []*ChatCompletion
	StreamEvents        []StreamEvent
	Requests            []ChatRequest
	Error               error

	completionIndex int
}

func NewMockChatClient() *MockChatClient {
	return &MockChatClient{}
}

func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatCompletion, error) {
	m.Requests = append(m.Requests, req)
	if m.Error != nil {
		return nil, m.Error
	}
	if len(m.CompletionResponses) == 0 {
		return &ChatCompletion{Choices: []Choice{{}}}, nil
	}
	response := m.CompletionResponses[m.completionIndex]
	if m.completionIndex < len(m.CompletionResponses)-1 {
		m.completionIndex++
	}
	return response, nil
}

func (m *MockChatClient) CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatCompletionStream, error) {
	m.Requests = append(m.Requests, req)
	if m.Error != nil {
		return nil, m.Error
	}
	events := make([]StreamEvent, len(m.StreamEvents))
	copy(events, m.StreamEvents)
	return newReplayStream(events), nil
}

// SetCompletionResponse queues a completion response. Multiple calls queue
// responses consumed by successive CreateChatCompletion calls.
func (m *MockChatClient) SetCompletionResponse(response *ChatCompletion) {
	m.CompletionResponses = append(m.CompletionResponses, response)
}

func (m *MockChatClient) AddStreamEvent(event StreamEvent) {
	m.StreamEvents = append(m.StreamEvents, event)
}

func (m *MockChatClient) SetError(err error) {
	m.Error = err
}

// LastRequest returns the most recent request seen by the client.
func (m *MockChatClient) LastRequest() ChatRequest {
	if len(m.Requests) == 0 {
		return ChatRequest{}
	}
	return m.Requests[len(m.Requests)-1]
}
