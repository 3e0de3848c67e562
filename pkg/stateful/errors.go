package stateful

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorType identifies which rule a request violated.
type ErrorType string

const (
	// ErrorMissingRequiredField: a required parameter is absent or null.
	ErrorMissingRequiredField ErrorType = "missing_required_field"
	// ErrorInvalidFieldValue: a parameter has the wrong type or format.
	ErrorInvalidFieldValue ErrorType = "invalid_field_value"
	// ErrorDuplicateResource: the id is already taken by a live record of the kind.
	ErrorDuplicateResource ErrorType = "duplicate_resource"
	// ErrorUnresolvedReference: an id points at a record that does not exist.
	ErrorUnresolvedReference ErrorType = "unresolved_reference"
	// ErrorResourceNotFound: the addressed record does not exist.
	ErrorResourceNotFound ErrorType = "resource_not_found"
	// ErrorUnsupportedOperation: the active strategy cannot perform the operation.
	ErrorUnsupportedOperation ErrorType = "unsupported_operation"
)

// Classification is the coarse category a boundary adapter maps to a status.
type Classification string

const (
	ClassInvalidRequest Classification = "invalid_request_error"
	ClassNotFound       Classification = "not_found"
)

// Sentinels for errors.Is matching by classification.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrUnsupported    = errors.New("unsupported operation")
)

// RequestError is raised by the validation engine and the store. Message is
// the exact client-visible text; Param names the offending field (or the
// kind's resource-name field for not-found errors) and may be empty.
type RequestError struct {
	Type    ErrorType
	Message string
	Param   string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Classification returns the coarse category for the error type.
func (e *RequestError) Classification() Classification {
	if e.Type == ErrorResourceNotFound {
		return ClassNotFound
	}
	return ClassInvalidRequest
}

// StatusCode returns the HTTP status code for this error.
func (e *RequestError) StatusCode() int {
	if e.Classification() == ClassNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *RequestError) Hint() string {
	switch e.Type {
	case ErrorMissingRequiredField:
		return fmt.Sprintf("Add the %q parameter to the request.", e.Param)
	case ErrorInvalidFieldValue:
		return fmt.Sprintf("Check the value of parameter %q.", e.Param)
	case ErrorDuplicateResource:
		return "Use a different id, or delete the existing record first."
	case ErrorUnresolvedReference:
		return fmt.Sprintf("Create the record referenced by %q first, or pass it inline.", e.Param)
	case ErrorResourceNotFound:
		return fmt.Sprintf("Check that the %s exists; deleted records cannot be retrieved.", e.Param)
	case ErrorUnsupportedOperation:
		return "Run this operation against the mock strategy."
	default:
		return ""
	}
}

// Is matches the classification sentinels and other RequestErrors of the same type.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Type == ErrorResourceNotFound
	case ErrUnsupported:
		return e.Type == ErrorUnsupportedOperation
	case ErrInvalidRequest:
		return e.Classification() == ClassInvalidRequest
	}
	var other *RequestError
	if errors.As(target, &other) {
		return other.Type == e.Type
	}
	return false
}

// MissingRequired builds a MissingRequiredField error.
func MissingRequired(param, message string) *RequestError {
	return &RequestError{Type: ErrorMissingRequiredField, Message: message, Param: param}
}

// InvalidValue builds an InvalidFieldValue error.
func InvalidValue(param, message string) *RequestError {
	return &RequestError{Type: ErrorInvalidFieldValue, Message: message, Param: param}
}

// Duplicate builds a DuplicateResource error attributed to the id field.
func Duplicate(label, param string) *RequestError {
	return &RequestError{Type: ErrorDuplicateResource, Message: label + " already exists.", Param: param}
}

// Unresolved builds an UnresolvedReference error.
func Unresolved(param, refKind, id string) *RequestError {
	return &RequestError{
		Type:    ErrorUnresolvedReference,
		Message: fmt.Sprintf("No such %s: %s", refKind, id),
		Param:   param,
	}
}

// NotFound builds a ResourceNotFound error attributed to the kind's resource-name field.
func NotFound(kind, id string) *RequestError {
	return &RequestError{
		Type:    ErrorResourceNotFound,
		Message: fmt.Sprintf("No such %s: %s", kind, id),
		Param:   kind,
	}
}

// Unsupported builds an UnsupportedOperation error.
func Unsupported(message string) *RequestError {
	return &RequestError{Type: ErrorUnsupportedOperation, Message: message}
}

// IsNotFound reports whether err is (or wraps) a ResourceNotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// TypeOf returns the ErrorType of err, or "" when it is not a RequestError.
func TypeOf(err error) ErrorType {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Type
	}
	return ""
}

// ErrorBody is the client-visible error object.
type ErrorBody struct {
	Type    Classification `json:"type"`
	Code    ErrorType      `json:"code,omitempty"`
	Message string         `json:"message"`
	Param   string         `json:"param,omitempty"`
}

// ErrorResponse is the error envelope returned to callers of the engine.
type ErrorResponse struct {
	Error      ErrorBody `json:"error"`
	StatusCode int       `json:"-"`
	Hint       string    `json:"-"`
}

// ToErrorResponse converts an error to the client-visible envelope.
// Errors that are not RequestErrors map to an internal api_error.
func ToErrorResponse(err error) *ErrorResponse {
	var re *RequestError
	if errors.As(err, &re) {
		return &ErrorResponse{
			Error: ErrorBody{
				Type:    re.Classification(),
				Code:    re.Type,
				Message: re.Message,
				Param:   re.Param,
			},
			StatusCode: re.StatusCode(),
			Hint:       re.Hint(),
		}
	}
	return &ErrorResponse{
		Error:      ErrorBody{Type: "api_error", Message: err.Error()},
		StatusCode: http.StatusInternalServerError,
	}
}

// UnknownKind is returned when a request names a kind with no declaration.
func UnknownKind(kind string) *RequestError {
	return &RequestError{
		Type:    ErrorResourceNotFound,
		Message: "Unrecognized resource kind: " + kind,
	}
}
