package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// settingsInput is where interactive commands read answers from.
var settingsInput io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider, analysis limits and output options.

Settings live in config.toml under the archer home directory. Environment
variables such as OPENAI_API_KEY override the stored API key.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key. Lists take comma separated values.

Run 'archer settings keys' to see every key.`,
	Example: `  archer settings set llm.model gpt-4o
  archer settings set analysis.exclude "docs/**,**/*_test.go"
  archer settings set output.format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Interactively choose the LLM provider, model and API key used for analysis.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

type settingRow struct {
	label, value string
}

type settingSection struct {
	title string
	rows  []settingRow
}

// describeSettings lays out settings for display. Optional values are
// omitted when unset and the API key is masked.
func describeSettings(s *domain.AppSettings) []settingSection {
	llm := settingSection{title: "LLM", rows: []settingRow{
		{"Provider", s.LLM.Provider.Description()},
		{"Model", s.LLM.Model},
	}}
	if s.LLM.BaseURL != "" {
		llm.rows = append(llm.rows, settingRow{"Base URL", s.LLM.BaseURL})
	}
	if s.LLM.Provider.RequiresAPIKey() {
		key := "(not set, or export " + s.LLM.Provider.APIKeyEnv() + ")"
		if s.LLM.APIKey != "" {
			key = maskAPIKey(s.LLM.APIKey)
		}
		llm.rows = append(llm.rows, settingRow{"API Key", key})
	}
	status := "configured"
	if !s.LLM.IsConfigured() {
		status = "not configured"
	}
	llm.rows = append(llm.rows,
		settingRow{"Temperature", strconv.FormatFloat(s.LLM.Temperature, 'f', 2, 64)},
		settingRow{"Status", status},
	)

	a := s.Analysis
	analysis := settingSection{title: "Analysis", rows: []settingRow{
		{"Max attempts", strconv.Itoa(a.MaxAttempts)},
		{"Requests per second", strconv.FormatFloat(a.RequestsPerSecond, 'g', -1, 64)},
		{"Max file tokens", strconv.Itoa(a.MaxFileTokens)},
		{"Max file bytes", strconv.FormatInt(a.MaxFileBytes, 10)},
	}}
	if a.MaxFiles > 0 {
		analysis.rows = append(analysis.rows, settingRow{"Max files", strconv.Itoa(a.MaxFiles)})
	}
	if len(a.Include) > 0 {
		analysis.rows = append(analysis.rows, settingRow{"Include", strings.Join(a.Include, ", ")})
	}
	if len(a.Exclude) > 0 {
		analysis.rows = append(analysis.rows, settingRow{"Exclude", strings.Join(a.Exclude, ", ")})
	}
	analysis.rows = append(analysis.rows,
		settingRow{"Cache", yesNo(a.Cache)},
		settingRow{"Describe missing", yesNo(a.DescribeMissing)},
	)

	output := settingSection{title: "Output", rows: []settingRow{
		{"Path", s.Output.Path},
		{"Format", string(s.Output.Format)},
		{"Direction", s.Output.Direction},
	}}

	return []settingSection{llm, analysis, output}
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println()
	for _, section := range describeSettings(settings) {
		cmd.Printf("[%s]\n", section.title)
		for _, r := range section.rows {
			cmd.Printf("  %s: %s\n", r.label, r.value)
		}
		cmd.Println()
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'archer settings llm' to fix configuration issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(settingsInput)
	return configureLLMProvider(cmd, reader)
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when input is a terminal.
func readPassword(reader *bufio.Reader) string {
	if f, ok := settingsInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
