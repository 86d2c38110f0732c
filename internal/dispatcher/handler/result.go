package handler

import "fmt"

// ResultStatus indicates the outcome of a widget.
type ResultStatus uint8

const (
	// StatusOK indicates successful execution.
	StatusOK ResultStatus = iota
	// StatusNoOp indicates the widget had no effect but did not fail.
	StatusNoOp
	// StatusError indicates failure; the editor beeps.
	StatusError
	// StatusCancelled indicates the edit was aborted, as by send-break.
	StatusCancelled
)

// String returns a string representation of the status.
func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a widget.
type Result struct {
	// Status indicates the result status.
	Status ResultStatus

	// Error contains any error that occurred.
	Error error

	// Message is an optional status-line message.
	Message string
}

// IsOK returns true if the result indicates success.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// IsError returns true if the result indicates an error.
func (r Result) IsError() bool {
	return r.Status == StatusError
}

// Failed reports whether the widget returned a non-zero status.
func (r Result) Failed() bool {
	return r.Status == StatusError || r.Status == StatusCancelled
}

// Code returns the result as a shell-style exit status.
func (r Result) Code() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// Success creates a successful result.
func Success() Result {
	return Result{Status: StatusOK}
}

// SuccessWithMessage creates a successful result with a message.
func SuccessWithMessage(msg string) Result {
	return Result{Status: StatusOK, Message: msg}
}

// NoOp creates a no-operation result.
func NoOp() Result {
	return Result{Status: StatusNoOp}
}

// Fail creates an error result with no underlying error, the usual
// outcome of a widget that cannot act, such as moving past the line end.
func Fail() Result {
	return Result{Status: StatusError}
}

// Error creates an error result.
func Error(err error) Result {
	return Result{Status: StatusError, Error: err}
}

// Errorf creates an error result with a formatted message.
func Errorf(format string, args ...interface{}) Result {
	return Result{
		Status: StatusError,
		Error:  fmt.Errorf(format, args...),
	}
}

// FromBool returns Success for true and Fail for false.
func FromBool(ok bool) Result {
	if ok {
		return Success()
	}
	return Fail()
}

// FromCode converts a shell-style exit status.
func FromCode(code int) Result {
	return FromBool(code == 0)
}

// Cancelled creates a cancelled result.
func Cancelled() Result {
	return Result{Status: StatusCancelled}
}

// CancelledWithMessage creates a cancelled result with a message.
func CancelledWithMessage(msg string) Result {
	return Result{Status: StatusCancelled, Message: msg}
}

// WithMessage returns a copy of the result with the specified message.
func (r Result) WithMessage(msg string) Result {
	r.Message = msg
	return r
}
