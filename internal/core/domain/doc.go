// Package domain defines the core entities for archer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Service: A hosted application or third-party dependency inferred by the model
//   - ServiceGraph: Services keyed by sanitized id plus the dependency edges between them
//   - FileNode: The walked directory hierarchy of a repository
//   - AnalysisRun: One execution of the analyzer over a repository
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
