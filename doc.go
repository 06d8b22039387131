// Package swarm provides functionality for orchestrating interactions between
// agents and generative-AI chat backends. It implements a flexible framework
// for building AI-powered workflows and agent-based systems on top of a
// provider-neutral message format.
//
// The package supports:
//   - Agent-based interactions with pluggable chat backends
//   - OpenAI, Azure OpenAI and Google Gemini backends out of the box
//   - Tool/function calling capabilities across backends
//   - Streaming and non-streaming responses
//   - Context management and workflow orchestration
//   - Custom function execution
//   - Event-driven architecture for workflow management
//   - Parallel task execution and coordination
//   - Configurable retry policies and timeout handling
//
// Key Components:
//   - Agent: Represents an AI agent with specific instructions and capabilities
//   - ChatClient: The backend interface; one implementation per provider
//   - Workflow: Manages the execution of sequential or parallel tasks
//   - Context: Handles state management and event propagation
//   - Events: Provides event types for workflow coordination
package swarm
