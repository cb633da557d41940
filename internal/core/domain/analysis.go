package domain

import "time"

// FileAnalysis is the model's answer for a single file: which service owns
// the file and which services the file's code talks to.
type FileAnalysis struct {
	Path         string    `json:"path"`
	Owner        *Service  `json:"owner,omitempty"`
	Dependencies []Service `json:"dependencies,omitempty"`
}

// AnalysisRun records one execution of the analyzer over a repository.
type AnalysisRun struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// RepoRoot is the analysed location: a local path or github://owner/repo@ref.
	RepoRoot string `json:"repo_root"`

	// Model is the LLM model that produced the answers.
	Model string `json:"model"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// FilesAnalysed counts files whose dependencies were inferred.
	FilesAnalysed int `json:"files_analysed"`

	// FilesFailed counts files whose LLM call or response parsing failed.
	FilesFailed int `json:"files_failed"`

	// Graph is the accumulated service graph.
	Graph *ServiceGraph `json:"-"`
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *AnalysisRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ProgressStage identifies the phase of an analysis run.
type ProgressStage string

// Analysis stages reported to progress listeners.
const (
	StageHierarchy    ProgressStage = "hierarchy"
	StageServices     ProgressStage = "services"
	StageDependencies ProgressStage = "dependencies"
	StageDescriptions ProgressStage = "descriptions"
	StageDone         ProgressStage = "done"
)

// Progress is a snapshot reported while a run executes.
type Progress struct {
	Stage   ProgressStage
	Current int
	Total   int
	Path    string
	Err     error
}

// Fraction returns Current/Total in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Current) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}
