package errors

import (
	"fmt"
	"strings"
)

// CompileError is raised when a parsed expression cannot be turned into an
// executable statement, e.g. an unknown interceptor name.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int
	Column      int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if e.Filename != "" || e.Line > 0 {
		b.WriteString(" (")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d:%d)", e.Line, e.Column)
	}
	return b.String()
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     "compile error",
		Message:  e.Message,
		Filename: e.Filename,
		Line:     e.Line,
		Column:   e.Column,
		Note:     e.Note,
		Hint:     FormatSuggestions(e.Suggestions),
	}
	if e.SourceLine != "" {
		fe.SourceLines = []SourceLineEntry{{Number: e.Line, Text: e.SourceLine, IsMain: true}}
	}
	return fe
}
