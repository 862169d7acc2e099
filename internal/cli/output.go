package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// ANSI color codes
const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorGray    = "\033[90m"
)

// stdout is where command results go. Replaced in tests.
var stdout io.Writer = os.Stdout

// Output formatting helpers

// printInfo prints an informational message
func printInfo(msg string) {
	if globalQuiet {
		return
	}
	fmt.Fprintln(stdout, msg)
}

// printSuccess prints a success message
func printSuccess(msg string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "✓ %s\n", msg)
	} else {
		fmt.Fprintf(stdout, "%s✓%s %s\n", colorGreen, colorReset, msg)
	}
}

// printWarning prints a warning message
func printWarning(msg string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "⚠ %s\n", msg)
	} else {
		fmt.Fprintf(stdout, "%s⚠%s %s\n", colorYellow, colorReset, msg)
	}
}

// printErrorMsg prints an error message (different from printError which takes error type)
func printErrorMsg(msg string) {
	if globalNoColor {
		fmt.Fprintf(os.Stderr, "✗ %s\n", msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s✗%s %s\n", colorRed, colorReset, msg)
	}
}

// printProgress prints a progress indicator
func printProgress(msg string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "→ %s\n", msg)
	} else {
		fmt.Fprintf(stdout, "%s→%s %s\n", colorBlue, colorReset, msg)
	}
}

// printHeader prints a section header
func printHeader(title string) {
	if globalQuiet {
		return
	}
	if globalNoColor {
		fmt.Fprintf(stdout, "\n=== %s ===\n", title)
	} else {
		fmt.Fprintf(stdout, "\n%s=== %s ===%s\n", colorMagenta, title, colorReset)
	}
}

// formatStatus renders a status, colored by severity.
func formatStatus(s model.StagedStatus) string {
	name := s.String()
	if globalNoColor {
		return name
	}
	switch {
	case s == model.Staged:
		return colorGreen + name + colorReset
	case s.Recoverable():
		return colorYellow + name + colorReset
	default:
		return colorRed + name + colorReset
	}
}

// printStructured writes v as JSON or YAML. It returns false for text output.
func printStructured(format string, v interface{}) (bool, error) {
	switch strings.ToLower(format) {
	case OutputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON output: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
		return true, nil
	case OutputYAML:
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("failed to marshal YAML output: %w", err)
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}
