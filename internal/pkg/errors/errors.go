// Package errors provides the coded error type shared by the API and the
// render worker. Every error carries a Code that maps to an HTTP status, the
// failing operation, optional structured fields and the creation stack.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Code categorizes an error and selects its HTTP status.
type Code string

const (
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeTimeout          Code = "TIMEOUT"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeQueueUnavailable Code = "QUEUE_UNAVAILABLE"
	CodeRenderFailure    Code = "RENDER_FAILED"
	CodeCleanupFailure   Code = "CLEANUP_FAILED"
)

// Codes missing here answer 500.
var statusByCode = map[Code]int{
	CodeValidation:       http.StatusBadRequest,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeNotFound:         http.StatusNotFound,
	CodeConflict:         http.StatusConflict,
	CodeTimeout:          http.StatusGatewayTimeout,
	CodeUnavailable:      http.StatusServiceUnavailable,
	CodeQueueUnavailable: http.StatusServiceUnavailable,
}

const maxStackDepth = 16

type Error struct {
	Code    Code
	Message string
	// Op names the failing operation, e.g. "production.generate".
	Op     string
	Err    error
	Fields map[string]any
	// Stack holds program counters captured at creation.
	Stack []uintptr
}

func build(code Code, op, message string, cause error) *Error {
	var pcs [maxStackDepth]uintptr
	// Skip runtime.Callers, build and the exported constructor.
	n := runtime.Callers(3, pcs[:])
	return &Error{Code: code, Message: message, Op: op, Err: cause, Stack: pcs[:n:n]}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op + ": ")
	}
	if e.Code != "" {
		b.WriteString("[" + string(e.Code) + "] ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func (e *Error) WithField(key string, value any) *Error {
	return e.WithFields(map[string]any{key: value})
}

func (e *Error) WithFields(fields map[string]any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

func (e *Error) HTTPStatus() int {
	if s, ok := statusByCode[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// StackTrace renders the creation stack one frame per line, runtime frames
// omitted.
func (e *Error) StackTrace() string {
	if len(e.Stack) == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			fmt.Fprintf(&b, "  %s:%d %s\n", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return b.String()
}

func New(code Code, message string) *Error {
	return build(code, "", message, nil)
}

func Newf(code Code, format string, args ...any) *Error {
	return build(code, "", fmt.Sprintf(format, args...), nil)
}

// Wrap wraps err with an operation and message. The code and fields of a
// wrapped *Error are kept; anything else becomes CodeInternal.
func Wrap(err error, op string, message string) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if !errors.As(err, &inner) {
		return build(CodeInternal, op, message, err)
	}
	e := build(inner.Code, op, message, err)
	e.Fields = inner.Fields
	return e
}

// WrapWithCode wraps err under an explicit code.
func WrapWithCode(err error, code Code, op string, message string) *Error {
	if err == nil {
		return nil
	}
	return build(code, op, message, err)
}

func NotFound(resource string, id string) *Error {
	return build(CodeNotFound, "", resource+" not found: "+id, nil).
		WithFields(map[string]any{"resource": resource, "id": id})
}

func Validation(message string) *Error {
	return build(CodeValidation, "", message, nil)
}

// ValidationField is a validation error naming the offending input field.
func ValidationField(field string, message string) *Error {
	return build(CodeValidation, "", message, nil).WithField("field", field)
}

func Conflict(message string) *Error {
	return build(CodeConflict, "", message, nil)
}

func Unauthorized(message string) *Error {
	return build(CodeUnauthorized, "", message, nil)
}

func Timeout(operation string) *Error {
	return build(CodeTimeout, "", "operation timed out: "+operation, nil).WithField("operation", operation)
}

func Unavailable(service string) *Error {
	return build(CodeUnavailable, "", "service unavailable: "+service, nil).WithField("service", service)
}

// QueueUnavailable reports that the broker could not accept or deliver
// messages for queue.
func QueueUnavailable(queue string, err error) *Error {
	return build(CodeQueueUnavailable, "", "queue unavailable: "+queue, err).WithField("queue", queue)
}

// RenderFailure records a failed render stage. It is stored on the video
// rather than returned to an API caller.
func RenderFailure(stage string, err error) *Error {
	return build(CodeRenderFailure, "render."+stage, stage+" failed", err).WithField("stage", stage)
}

// CleanupFailure reports a scratch directory that could not be removed.
func CleanupFailure(path string, err error) *Error {
	return build(CodeCleanupFailure, "render.cleanup", "scratch cleanup failed", err).WithField("path", path)
}

func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func GetFields(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func IsCode(err error, code Code) bool { return GetCode(err) == code }

func IsNotFound(err error) bool         { return IsCode(err, CodeNotFound) }
func IsValidation(err error) bool       { return IsCode(err, CodeValidation) }
func IsConflict(err error) bool         { return IsCode(err, CodeConflict) }
func IsQueueUnavailable(err error) bool { return IsCode(err, CodeQueueUnavailable) }

// As and Is forward to the standard library so callers need one import.
func As(err error, target any) bool { return errors.As(err, target) }
func Is(err, target error) bool     { return errors.Is(err, target) }
