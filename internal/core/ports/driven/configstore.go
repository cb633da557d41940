package driven

// ConfigStore holds settings under dotted keys such as "llm.provider".
// Typed getters return the zero value when a key is missing or holds
// another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	// GetInt also accepts whole-number floats, which is how some decoders
	// hand back integers.
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set writes one key and persists the whole store.
	Set(key string, value any) error
	Save() error
	// Load replaces in-memory values with what the backing store holds.
	Load() error
	// Path names the backing store, for display.
	Path() string
}
