package domain

import "strings"

// Service is a hosted application or third-party dependency inferred by the model.
// Services hosted in the analysed repository carry the RootPath of their code;
// external dependencies (databases, SaaS APIs) leave it empty.
type Service struct {
	// ID is the sanitized name, used as the de-duplication key.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable name as the model reported it.
	Name string `json:"name" yaml:"name"`

	// Description is a one-sentence summary of what the service does.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// RootPath is the repository-relative directory holding the service's code.
	RootPath string `json:"root_path,omitempty" yaml:"root_path,omitempty"`
}

// NewService creates a service whose ID is derived from its name.
func NewService(name, description, rootPath string) Service {
	return Service{
		ID:          SanitizeServiceID(name),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		RootPath:    strings.Trim(strings.TrimSpace(rootPath), "/"),
	}
}

// IsExternal reports whether the service is a dependency outside the repository.
func (s Service) IsExternal() bool {
	return s.RootPath == ""
}

// Label returns the display name, falling back to the ID.
func (s Service) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// SanitizeServiceID turns a service name into its registry key.
// The result is lower-case, every run of characters outside [a-z0-9]
// becomes a single underscore, and leading/trailing underscores are dropped.
// "Stripe API" and "stripe-api" both map to "stripe_api".
func SanitizeServiceID(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return sb.String()
}
