package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies an evaluation failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnresolvedVariable
	KindPropertyAccess
	KindNullTarget
	KindCompileFailure
	KindType
	KindArithmetic
	KindIndex
	KindCancelled
	KindRecursion
	KindInvalidOperation
)

var kindNames = map[Kind]string{
	KindUnknown:            "evaluation error",
	KindUnresolvedVariable: "unresolved variable",
	KindPropertyAccess:     "property access failure",
	KindNullTarget:         "null target",
	KindCompileFailure:     "compile failure",
	KindType:               "type error",
	KindArithmetic:         "arithmetic error",
	KindIndex:              "index error",
	KindCancelled:          "evaluation cancelled",
	KindRecursion:          "recursion limit exceeded",
	KindInvalidOperation:   "invalid operation",
}

var kindCodes = map[Kind]ErrorCode{
	KindUnresolvedVariable: E3004,
	KindPropertyAccess:     E3008,
	KindNullTarget:         E3005,
	KindCompileFailure:     E3010,
	KindType:               E3001,
	KindArithmetic:         E3002,
	KindIndex:              E3003,
	KindCancelled:          E3009,
	KindRecursion:          E3006,
	KindInvalidOperation:   E3007,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Code returns the error code reported for this kind.
func (k Kind) Code() ErrorCode {
	return kindCodes[k]
}

// kindError is the sentinel type matched by EvaluationError.Is.
type kindError struct {
	kind Kind
}

func (e kindError) Error() string { return e.kind.String() }

// Sentinels for use with errors.Is.
var (
	ErrUnresolvedVariable error = kindError{KindUnresolvedVariable}
	ErrPropertyAccess     error = kindError{KindPropertyAccess}
	ErrNullTarget         error = kindError{KindNullTarget}
	ErrCompileFailure     error = kindError{KindCompileFailure}
	ErrType               error = kindError{KindType}
	ErrArithmetic         error = kindError{KindArithmetic}
	ErrIndex              error = kindError{KindIndex}
	ErrCancelled          error = kindError{KindCancelled}
	ErrRecursion          error = kindError{KindRecursion}
	ErrInvalidOperation   error = kindError{KindInvalidOperation}
)

// EvaluationError is returned when evaluating an expression fails. It
// carries the source span of the sub-expression that failed.
type EvaluationError struct {
	Kind       Kind
	Message    string
	Location   SourceLocation
	Segment    string // source text of the failing sub-expression
	TargetType string // runtime type of the value being accessed, if any
	Hint       string
	Cause      error
	Stack      []StackFrame
}

// Errorf returns a new EvaluationError of the given kind.
func Errorf(kind Kind, format string, args ...any) *EvaluationError {
	return &EvaluationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new EvaluationError of the given kind with cause attached.
func Wrap(kind Kind, cause error, format string, args ...any) *EvaluationError {
	return &EvaluationError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *EvaluationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if !e.Location.IsZero() {
		b.WriteString(" (")
		b.WriteString(e.Location.String())
		b.WriteString(")")
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *EvaluationError) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && k.kind == e.Kind
}

// Code returns the error code for this error's kind.
func (e *EvaluationError) Code() ErrorCode {
	return e.Kind.Code()
}

// WithHint returns a copy of the error with the hint set.
func (e *EvaluationError) WithHint(hint string) *EvaluationError {
	cp := *e
	cp.Hint = hint
	return &cp
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *EvaluationError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *EvaluationError) ToFormatted() *FormattedError {
	msg := e.Message
	if e.Cause != nil && !strings.Contains(msg, e.Cause.Error()) {
		msg += ": " + e.Cause.Error()
	}
	fe := &FormattedError{
		Code:     e.Code(),
		Kind:     "evaluation error",
		Message:  msg,
		Filename: e.Location.Filename,
		Line:     e.Location.Line,
		Column:   e.Location.Column,
		Hint:     e.Hint,
		Stack:    e.Stack,
	}
	if e.Segment != "" && e.Location.Column > 0 {
		fe.EndColumn = e.Location.Column + len(e.Segment) - 1
	}
	if e.TargetType != "" {
		fe.Note = "target type is " + e.TargetType
	}
	if e.Location.Source != "" {
		fe.SourceLines = []SourceLineEntry{{Number: e.Location.Line, Text: e.Location.Source, IsMain: true}}
	}
	return fe
}

// maxStackFrames bounds the frames recorded by WithFrame; deep recursion
// keeps only the innermost calls.
const maxStackFrames = 32

// WithFrame records that err propagated out of the named function. The
// first frame takes the error's location.
func WithFrame(err error, function string) error {
	e, ok := err.(*EvaluationError)
	if !ok || len(e.Stack) >= maxStackFrames {
		return err
	}
	cp := *e
	frame := StackFrame{Function: function}
	if len(e.Stack) == 0 {
		frame.Location = e.Location
	}
	cp.Stack = append(append([]StackFrame(nil), e.Stack...), frame)
	return &cp
}

// AtSpan attaches a source span to err. Errors that already carry a location
// are returned unchanged, so the innermost failing sub-expression wins.
// Errors that are not EvaluationErrors are wrapped: context errors become
// KindCancelled, anything else KindInvalidOperation.
func AtSpan(err error, loc SourceLocation, segment string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*EvaluationError); ok {
		if !e.Location.IsZero() {
			return e
		}
		cp := *e
		cp.Location = loc
		if cp.Segment == "" {
			cp.Segment = segment
		}
		return &cp
	}
	kind := KindInvalidOperation
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		kind = KindCancelled
	}
	return &EvaluationError{
		Kind:     kind,
		Message:  err.Error(),
		Location: loc,
		Segment:  segment,
		Cause:    err,
	}
}
