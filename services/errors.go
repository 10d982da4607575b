package services

import "net/http"

// ErrorKind is the machine-readable classification returned alongside every
// error response.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidState     ErrorKind = "invalid_state"
	KindValidation       ErrorKind = "validation_error"
	KindCannotCancel     ErrorKind = "cannot_cancel"
	KindNoPendingRequest ErrorKind = "no_pending_request"
	KindConflict         ErrorKind = "conflict"
	KindForbidden        ErrorKind = "forbidden"
	KindPersistence      ErrorKind = "persistence_failure"
)

// ServiceError is a typed error with an HTTP status code and a stable kind.
// The service layer returns nothing else; controllers translate it verbatim.
type ServiceError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func errNotFound(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func errInvalidState(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Kind: KindInvalidState, Message: msg}
}

func errValidation(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func errCannotCancel(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Kind: KindCannotCancel, Message: msg}
}

func errNoPendingRequest(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Kind: KindNoPendingRequest, Message: msg}
}

func errConflict(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusConflict, Kind: KindConflict, Message: msg}
}

func errForbidden(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusForbidden, Kind: KindForbidden, Message: msg}
}

func errPersistence(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Kind: KindPersistence, Message: msg}
}
