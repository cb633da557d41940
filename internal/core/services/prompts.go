package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/logger"
)

// charsPerToken approximates token counts without a tokenizer.
const charsPerToken = 4

// truncationMarker is appended to content cut by TruncateToTokens.
const truncationMarker = "\n... [truncated]"

// defaultPrompts are used when no prompt store is configured and are written
// to disk by the file prompt store on first use.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSystem: `You are a senior software architect reviewing a source code repository.
You identify deployable services, the third-party systems they talk to, and how they depend on each other.
Answer ONLY with a single JSON document. Do not add commentary or markdown outside the JSON.`,

	driven.PromptInferServices: `Below is the directory hierarchy of a repository.
List the services hosted in it: applications, workers, APIs or libraries that run on their own.
For each service give a short name, a one-sentence description and the directory it lives in, relative to the repository root ("" for the root itself).

Hierarchy:
%s

Answer with JSON of the form:
{"services": [{"name": "...", "description": "...", "root_path": "..."}]}`,

	driven.PromptInferDependencies: `These services are already known in the repository:
%s

Read the file below. Decide which service the file belongs to, and which services it depends on.
Dependencies may be other services from the list or external systems such as databases, queues, caches or third-party APIs.
Only list dependencies the code actually uses. Reuse the exact names above where they apply.

File: %s

%s

Answer with JSON of the form:
{"service": "<owning service name>", "dependencies": [{"name": "...", "description": "..."}]}`,

	driven.PromptDescribeService: `Describe the service "%s" in one sentence, based on the files below its root.

%s

Answer with JSON of the form:
{"description": "..."}`,
}

// DefaultPrompts returns a copy of the built-in prompt templates.
func DefaultPrompts() map[string]string {
	prompts := make(map[string]string, len(defaultPrompts))
	for name, content := range defaultPrompts {
		prompts[name] = content
	}
	return prompts
}

// PromptBuilder renders the chat messages sent for each analysis step.
type PromptBuilder struct {
	store driven.PromptStore
}

// Ensure PromptBuilder accepts a prompt store.
var _ driven.PromptStoreAware = (*PromptBuilder)(nil)

// NewPromptBuilder creates a builder. A nil store uses the built-in prompts.
func NewPromptBuilder(store driven.PromptStore) *PromptBuilder {
	return &PromptBuilder{store: store}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (b *PromptBuilder) SetPromptStore(store driven.PromptStore) {
	b.store = store
}

// load returns the named template, falling back to the built-in one.
func (b *PromptBuilder) load(name string) string {
	if b.store != nil {
		prompt, err := b.store.Load(name)
		if err == nil && prompt != "" {
			return prompt
		}
		if err != nil {
			logger.Debug("prompt %q: %v, using default", name, err)
		}
	}
	return defaultPrompts[name]
}

// messages pairs the system prompt with a user prompt.
func (b *PromptBuilder) messages(user string) []driven.ChatMessage {
	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: b.load(driven.PromptSystem)},
		{Role: driven.RoleUser, Content: user},
	}
}

// InferServices builds the messages asking for the services in a hierarchy.
func (b *PromptBuilder) InferServices(hierarchy string) []driven.ChatMessage {
	return b.messages(fmt.Sprintf(b.load(driven.PromptInferServices), hierarchy))
}

// InferDependencies builds the messages asking who owns a file and what it uses.
func (b *PromptBuilder) InferDependencies(known []domain.Service, path, content string) []driven.ChatMessage {
	return b.messages(fmt.Sprintf(b.load(driven.PromptInferDependencies), FormatServiceList(known), path, content))
}

// DescribeService builds the messages asking for a service description.
func (b *PromptBuilder) DescribeService(name, hierarchy string) []driven.ChatMessage {
	return b.messages(fmt.Sprintf(b.load(driven.PromptDescribeService), name, hierarchy))
}

// FormatServiceList renders known services one per line for a prompt.
func FormatServiceList(services []domain.Service) string {
	if len(services) == 0 {
		return "(none yet)"
	}
	var sb strings.Builder
	for _, s := range services {
		sb.WriteString("- ")
		sb.WriteString(s.Name)
		if s.RootPath != "" {
			sb.WriteString(" (")
			sb.WriteString(s.RootPath)
			sb.WriteString(")")
		}
		if s.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(s.Description)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// TruncateToTokens shortens text to roughly maxTokens tokens.
// The cut lands on the last newline inside the budget when there is one,
// otherwise on a rune boundary. A non-positive budget leaves text unchanged.
func TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	limit := maxTokens * charsPerToken
	if len(text) <= limit {
		return text
	}

	end := limit
	if nl := strings.LastIndexByte(text[:limit], '\n'); nl > limit/2 {
		end = nl
	} else {
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
	}
	return text[:end] + truncationMarker
}
