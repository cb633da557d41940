package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archer/internal/core/domain"
)

// stdoutPath writes rendered output to standard output.
const stdoutPath = "-"

// timeLayout formats run timestamps.
const timeLayout = "2006-01-02 15:04:05"

// parseFormat validates a --format value. An empty value yields fallback.
func parseFormat(value string, fallback domain.OutputFormat) (domain.OutputFormat, error) {
	if value == "" {
		return fallback, nil
	}
	f := domain.OutputFormat(strings.ToLower(value))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: format %q (use mermaid, yaml or json)", domain.ErrUnsupportedType, value)
	}
	return f, nil
}

// outputPath picks where a diagram goes. Without an explicit path the
// configured one is used, with its extension matched to the format.
func outputPath(flag, configured string, format domain.OutputFormat) string {
	if flag != "" {
		return flag
	}
	if configured == "" || configured == stdoutPath {
		return stdoutPath
	}
	ext := filepath.Ext(configured)
	return strings.TrimSuffix(configured, ext) + format.Extension()
}

// writeOutput writes data to path, or to the command's output for "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == stdoutPath {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // diagrams are meant to be shared
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// renderTable draws rows under a bold header.
func renderTable(headers []string, rows [][]string) string {
	s := styles.DefaultStyles()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		})
	return t.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
