package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders FormattedErrors in a compiler-style layout, optionally
// with ANSI colors.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	styleError    = newStyle(color.FgRed)
	styleHeader   = newStyle(color.FgHiRed, color.Bold)
	styleCode     = newStyle(color.FgHiBlack)
	styleLocation = newStyle(color.FgCyan)
	styleGutter   = newStyle(color.FgHiBlack)
	styleSource   = newStyle(color.FgWhite)
	styleCaret    = newStyle(color.FgHiRed, color.Bold)
	styleHint     = newStyle(color.FgHiYellow)
	styleNote     = newStyle(color.FgHiBlue)
)

// newStyle returns a color that is always enabled; the Formatter decides
// whether to apply it.
func newStyle(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// FormattedError represents an error ready for display.
type FormattedError struct {
	Code        ErrorCode
	Kind        string // "error", "syntax error", "evaluation error", etc.
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int // For multi-character underlines
	SourceLines []SourceLineEntry
	Hint        string // "Did you mean?" suggestion
	Note        string
	Stack       []StackFrame
}

// SourceLineEntry represents a line of source code with its number.
type SourceLineEntry struct {
	Number int
	Text   string
	IsMain bool // True if this is the line with the error
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}

// Format formats a single error.
func (f *Formatter) Format(err *FormattedError) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix formats the error with an optional prefix like "1/5" that
// is shown in place of the error code.
func (f *Formatter) FormatWithPrefix(err *FormattedError, prefix string) string {
	var b strings.Builder
	width := 2
	if err.Line >= 100 {
		width = len(fmt.Sprintf("%d", err.Line))
	}
	gutter := strings.Repeat(" ", width)

	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	b.WriteString(f.paint(styleHeader, label))
	switch {
	case err.Code != "":
		b.WriteString(f.paint(styleCode, "["+string(err.Code)+"]"))
	case prefix != "":
		b.WriteString(f.paint(styleCode, "["+prefix+"]"))
	}
	b.WriteString(f.paint(styleError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")

	if loc := err.location(); loc != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(styleLocation, "-->"))
		b.WriteString(" ")
		b.WriteString(f.paint(styleLocation, loc))
		b.WriteString("\n")
	}

	if len(err.SourceLines) > 0 {
		b.WriteString(gutter)
		b.WriteString(f.paint(styleGutter, " |"))
		b.WriteString("\n")
		for _, line := range err.SourceLines {
			b.WriteString(f.paint(styleGutter, fmt.Sprintf("%*d | ", width, line.Number)))
			b.WriteString(f.paint(styleSource, line.Text))
			b.WriteString("\n")
			if !line.IsMain || err.Column <= 0 {
				continue
			}
			n := 1
			if err.EndColumn > err.Column {
				n = err.EndColumn - err.Column + 1
			}
			b.WriteString(gutter)
			b.WriteString(f.paint(styleGutter, " | "))
			b.WriteString(strings.Repeat(" ", err.Column-1))
			b.WriteString(f.paint(styleCaret, strings.Repeat("^", n)))
			b.WriteString("\n")
		}
	}

	if err.Hint != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(styleGutter, " |"))
		b.WriteString("\n")
		b.WriteString(gutter)
		b.WriteString(f.paint(styleGutter, " = "))
		b.WriteString(f.paint(styleHint, "hint: "))
		b.WriteString(err.Hint)
		b.WriteString("\n")
	}
	if err.Note != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(styleGutter, " = "))
		b.WriteString(f.paint(styleNote, "note: "))
		b.WriteString(err.Note)
		b.WriteString("\n")
	}
	if len(err.Stack) > 0 {
		b.WriteString(gutter)
		b.WriteString(f.paint(styleGutter, " = "))
		b.WriteString(f.paint(styleNote, "stack trace:"))
		b.WriteString("\n")
		for _, frame := range err.Stack {
			b.WriteString(gutter)
			b.WriteString("     ")
			b.WriteString(frame.String())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (err *FormattedError) location() string {
	switch {
	case err.Filename != "" && err.Line > 0:
		return fmt.Sprintf("%s:%d:%d", err.Filename, err.Line, err.Column)
	case err.Filename != "":
		return err.Filename
	case err.Line > 0:
		return fmt.Sprintf("%d:%d", err.Line, err.Column)
	}
	return ""
}

// FormatMultiple formats several errors, numbering them when there is more
// than one.
func (f *Formatter) FormatMultiple(errs []*FormattedError) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return f.Format(errs[0])
	}
	var b strings.Builder
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.FormatWithPrefix(err, fmt.Sprintf("%d/%d", i+1, len(errs))))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(styleHeader, fmt.Sprintf("found %d errors", len(errs))))
	b.WriteString("\n")
	return b.String()
}
