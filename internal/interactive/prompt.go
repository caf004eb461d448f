// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/adamancini/appupdate/internal/update"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed
	ResponseNo                   // Decline
	ResponseQuit                 // Abort
)

// Prompter handles interactive prompts for update confirmation.
type Prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// ConfirmDownload describes the update and asks whether to download it.
func (p *Prompter) ConfirmDownload(d *update.Descriptor) bool {
	_, _ = fmt.Fprintf(p.out, "\nNew version available: %s\n", displayVersion(d))
	if d.TargetSize != "" {
		_, _ = fmt.Fprintf(p.out, "  Size: %s\n", d.TargetSize)
	}
	if d.Constraint {
		_, _ = fmt.Fprintln(p.out, "  This update is required.")
	}
	if log := strings.TrimSpace(d.UpdateLog); log != "" {
		_, _ = fmt.Fprintln(p.out, "\nChanges:")
		for _, line := range strings.Split(log, "\n") {
			_, _ = fmt.Fprintf(p.out, "  %s\n", strings.TrimRight(line, "\r"))
		}
	}

	switch p.prompt("\nDownload now?") {
	case ResponseYes:
		return true
	case ResponseQuit:
		_, _ = fmt.Fprintln(p.out, "Aborted.")
		return false
	default:
		return false
	}
}

func displayVersion(d *update.Descriptor) string {
	if d.NewVersion == "" {
		return "unknown"
	}
	return d.NewVersion
}
