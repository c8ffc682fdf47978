package parser

import (
	"fmt"

	"github.com/mvel/mvel-sub010/errors"
	"github.com/mvel/mvel-sub010/internal/token"
)

// ErrorOpts holds the data used to build a parser error. All fields are
// optional, although one of Cause or Message is recommended. If Cause is
// set, Message is ignored.
type ErrorOpts struct {
	ErrType       string
	Code          errors.ErrorCode
	Message       string
	Cause         error
	File          string
	StartPosition token.Position
	EndPosition   token.Position
	SourceCode    string
}

// ParserError is an interface that all parser errors implement.
type ParserError interface {
	Type() string
	Code() errors.ErrorCode
	Message() string
	Cause() error
	File() string
	StartPosition() token.Position
	EndPosition() token.Position
	SourceCode() string
	Error() string
	errors.FriendlyError
	errors.FormattableError
}

// NewParserError returns a new BaseParserError populated with the given
// error data.
func NewParserError(opts ErrorOpts) *BaseParserError {
	return &BaseParserError{opts: opts}
}

// BaseParserError is the simplest implementation of ParserError.
type BaseParserError struct {
	opts ErrorOpts
}

func (e *BaseParserError) Error() string {
	msg := e.Message()
	if e.opts.ErrType != "" {
		msg = fmt.Sprintf("%s: %s", e.opts.ErrType, msg)
	}
	return msg
}

func (e *BaseParserError) FriendlyErrorMessage() string {
	return errors.NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts the parser error to a FormattedError for display.
func (e *BaseParserError) ToFormatted() *errors.FormattedError {
	start, end := e.opts.StartPosition, e.opts.EndPosition
	fe := &errors.FormattedError{
		Code:     e.opts.Code,
		Kind:     e.opts.ErrType,
		Message:  e.Message(),
		Filename: e.opts.File,
		Line:     start.LineNumber(),
		Column:   start.ColumnNumber(),
	}
	if end.Line == start.Line && end.Column > start.Column {
		fe.EndColumn = end.Column
	}
	if e.opts.SourceCode != "" {
		fe.SourceLines = []errors.SourceLineEntry{
			{Number: start.LineNumber(), Text: e.opts.SourceCode, IsMain: true},
		}
	}
	return fe
}

func (e *BaseParserError) Type() string                  { return e.opts.ErrType }
func (e *BaseParserError) Code() errors.ErrorCode        { return e.opts.Code }
func (e *BaseParserError) Cause() error                  { return e.opts.Cause }
func (e *BaseParserError) Unwrap() error                 { return e.opts.Cause }
func (e *BaseParserError) File() string                  { return e.opts.File }
func (e *BaseParserError) StartPosition() token.Position { return e.opts.StartPosition }
func (e *BaseParserError) EndPosition() token.Position   { return e.opts.EndPosition }
func (e *BaseParserError) SourceCode() string            { return e.opts.SourceCode }

func (e *BaseParserError) Message() string {
	if e.opts.Cause != nil {
		return e.opts.Cause.Error()
	}
	return e.opts.Message
}

// NewSyntaxError returns a new SyntaxError populated with the given error data
func NewSyntaxError(opts ErrorOpts) *SyntaxError {
	opts.ErrType = "syntax error"
	return &SyntaxError{BaseParserError: NewParserError(opts)}
}

// SyntaxError is raised for input the lexer could not tokenize.
type SyntaxError struct {
	*BaseParserError
}

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.EOF:
		return "end of file"
	case token.IDENT:
		return "identifier"
	case token.NEWLINE:
		return "newline"
	default:
		return string(t)
	}
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of file"
	case token.NEWLINE:
		return "newline"
	default:
		if t.Literal == "" {
			return string(t.Type)
		}
		return t.Literal
	}
}

// Errors wraps multiple parser errors. It is the error type returned by
// Parse when anything went wrong.
type Errors struct {
	errs []ParserError
}

// NewErrors creates an Errors from a slice of ParserError.
func NewErrors(errs []ParserError) *Errors {
	if len(errs) == 0 {
		return nil
	}
	return &Errors{errs: errs}
}

// Error returns the first error message and a count of the rest.
func (e *Errors) Error() string {
	switch len(e.errs) {
	case 0:
		return ""
	case 1:
		return e.errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.errs[0].Error(), len(e.errs)-1)
}

// Errors returns the underlying slice of parser errors.
func (e *Errors) Errors() []ParserError {
	return e.errs
}

// Count returns the number of errors.
func (e *Errors) Count() int {
	return len(e.errs)
}

// First returns the first error, or nil if empty.
func (e *Errors) First() ParserError {
	if len(e.errs) == 0 {
		return nil
	}
	return e.errs[0]
}

// FriendlyErrorMessage returns a formatted message showing all errors.
func (e *Errors) FriendlyErrorMessage() string {
	formatted := make([]*errors.FormattedError, 0, len(e.errs))
	for _, err := range e.errs {
		formatted = append(formatted, err.ToFormatted())
	}
	return errors.NewFormatter(false).FormatMultiple(formatted)
}

// Unwrap returns the underlying errors for use with errors.Is/As.
func (e *Errors) Unwrap() []error {
	result := make([]error, len(e.errs))
	for i, err := range e.errs {
		result[i] = err
	}
	return result
}
