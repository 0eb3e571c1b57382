package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	mutedColor   = lipgloss.Color("#6B7280")
	accentColor  = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	successColor = lipgloss.Color("#10B981")

	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warnStyle    = lipgloss.NewStyle().Foreground(accentColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)

// printJSON encodes v as indented JSON to stdout.
func printJSON(v any) error {
	return fprintJSON(os.Stdout, v)
}

// fprintJSON encodes v as indented JSON to w.
func fprintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// printError reports a command failure on stderr.
func printError(err error) {
	if jsonFlag {
		fprintJSON(os.Stderr, jsonAction{OK: false, Error: err.Error()})
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
}

func printSuccess(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf(format, args...)))
}

// onOff renders a boolean setting.
func onOff(b bool) string {
	if b {
		return successStyle.Render("on")
	}
	return mutedStyle.Render("off")
}
