// Package cli implements the archer command line with cobra.
//
// Commands read their collaborators from package-level services set through
// SetServices, or built lazily by the Bootstrap set through SetBootstrap once
// global flags such as --home are parsed.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
	"github.com/custodia-labs/archer/internal/logger"
)

// HomeEnv overrides the default home directory.
const HomeEnv = "ARCHER_HOME"

var version = "dev"

// Global flags.
var (
	verbose bool
	homeDir string
)

// Services used by commands.
var (
	settingsService driving.SettingsService
	runService      driving.RunService
	workspace       Workspace

	bootstrap     Bootstrap
	closeServices func() error
)

// Location names the repository to analyse: a local path or a GitHub reference.
type Location struct {
	Path   string
	GitHub string
}

// AnalyzerOptions tune a single analyzer.
type AnalyzerOptions struct {
	// NoCache bypasses the LLM response cache.
	NoCache bool
}

// Workspace opens repositories and builds analyzers over them.
type Workspace interface {
	// OpenSource returns a repository source for loc.
	OpenSource(ctx context.Context, loc Location) (driven.RepoSource, error)

	// NewAnalyzer creates an analyzer over source with the current settings.
	NewAnalyzer(ctx context.Context, source driven.RepoSource, opts AnalyzerOptions) (driving.Analyzer, error)
}

// Services bundles the collaborators of all commands.
type Services struct {
	Settings  driving.SettingsService
	Runs      driving.RunService
	Workspace Workspace

	// Close releases resources such as the database. May be nil.
	Close func() error
}

// Bootstrap builds services rooted at the resolved home directory.
type Bootstrap func(home string) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "archer",
	Short: "Draw a service architecture diagram of a repository",
	Long: `archer walks a repository, asks a language model which services it
contains and which services each file talks to, and renders the resulting
dependency graph as a Mermaid diagram.

Configure a model provider with 'archer settings llm', then run
'archer analyze' in a repository.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "",
		"archer home directory (default $"+HomeEnv+" or ~/.archer)")
}

// SetVersion sets the version printed by 'archer version'.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services once flags are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		settingsService, runService, workspace, closeServices = nil, nil, nil, nil
		return
	}
	settingsService = s.Settings
	runService = s.Runs
	workspace = s.Workspace
	closeServices = s.Close
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing services: %w", cerr))
		}
		closeServices = nil
	}
	return err
}

// setup applies global flags and builds services on first use.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || settingsService != nil {
		return nil
	}

	home, err := ResolveHome(homeDir)
	if err != nil {
		return err
	}
	logger.Debug("Home directory: %s", home)

	svc, err := bootstrap(home)
	if err != nil {
		return fmt.Errorf("initialising %s: %w", cmd.Root().Name(), err)
	}
	SetServices(svc)
	return nil
}

// ResolveHome picks the home directory: the flag, then $ARCHER_HOME, then ~/.archer.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return filepath.Abs(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".archer"), nil
}
