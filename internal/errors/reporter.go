package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Level is a diagnostic's severity.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Diagnostic is the Reporter's presentation-neutral input: a level, a
// stable code, a message and a position. The caller builds one from a
// LexicalError, ParseError or VerificationError's fields; this package
// has no conversion helper for it.
type Diagnostic struct {
	Level    Level
	Code     string
	Message  string
	Position Position
}

// Reporter formats a Diagnostic against its source line, "error[CODE]:
// message" / "--> file:line:col", matching the teacher's
// internal/errors.ErrorReporter rendering. Reporting is a pure
// presentation concern; it never affects propagation (spec.md §7 is
// all-or-nothing regardless of how a diagnostic prints).
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter for a single source file's text.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders one diagnostic as a multi-line string.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder

	levelColor := r.levelColor(d.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if d.Code != "" {
		out.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message))
	} else {
		out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	}

	width := lineNumberWidth(d.Position.Line)
	indent := strings.Repeat(" ", width)
	file := d.Position.File
	if file == "" {
		file = r.filename
	}
	out.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), file, d.Position.Line, d.Position.Column))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("|")))

	if d.Position.Line >= 1 && d.Position.Line <= len(r.lines) {
		out.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", width, d.Position.Line)), dim("|"), r.lines[d.Position.Line-1]))
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("|"), r.marker(d.Position.Column, d.Level)))
	}

	return out.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	}
}

func (r *Reporter) marker(column int, level Level) string {
	spaces := strings.Repeat(" ", maxInt(0, column-1))
	c := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == Warning {
		c = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + c("^")
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		return 3
	}
	return w
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
