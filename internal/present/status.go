package present

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Kind classifies a line for colouring.
type Kind int

const (
	KindInfo Kind = iota
	KindOK
	KindWarn
	KindError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// StatusLine renders "  Label:   [KIND] message".
func StatusLine(label string, kind Kind, message string, colorize bool) string {
	statusText := kind.Label()
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	return Colorize(base, kind, colorize)
}

// Label returns the bracketed status word for k.
func (k Kind) Label() string {
	switch k {
	case KindOK:
		return "OK"
	case KindWarn:
		return "WARN"
	case KindError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k Kind) color() string {
	switch k {
	case KindOK:
		return ansiGreen
	case KindWarn:
		return ansiYellow
	case KindError:
		return ansiRed
	case KindInfo:
		return ansiBlue
	default:
		return ""
	}
}

// Colorize wraps s in the ANSI colour for k when enabled.
func Colorize(s string, k Kind, enabled bool) string {
	if !enabled || s == "" {
		return s
	}
	if color := k.color(); color != "" {
		return color + s + ansiReset
	}
	return s
}

// SectionHeader renders a "== Title ==" heading and its rule.
func SectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// ShouldColorize reports whether writer is an interactive terminal.
func ShouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
