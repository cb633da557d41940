package driven

// PromptStore serves prompt templates by name.
type PromptStore interface {
	// Load errors only when name has neither a stored template nor a default.
	Load(name string) (string, error)
	// Reload forgets cached templates so the next Load rereads them.
	Reload()
}

// Prompt names. Each template's %s placeholders are filled in the order
// listed.
const (
	// PromptSystem is sent first with every request. No placeholders.
	PromptSystem = "system"

	// PromptInferServices: directory hierarchy.
	PromptInferServices = "infer_services"

	// PromptInferDependencies: known services, file path, file content.
	PromptInferDependencies = "infer_dependencies"

	// PromptDescribeService: service name, hierarchy below its root.
	PromptDescribeService = "describe_service"
)

// PromptStoreAware is implemented by services whose prompts can be
// overridden. Without a store they use built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
