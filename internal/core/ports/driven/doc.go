// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for an analysis run:
//
//   - LLMService: Chat completion against OpenAI, Anthropic or Ollama
//   - RepoSource: Walks a repository and reads its files (local or GitHub)
//   - PromptStore: Prompt templates with embedded defaults
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Persists runs for later rendering. Without it, only the current run is rendered.
//   - LLMCache: Caches model responses. Without it, every call goes to the provider.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
