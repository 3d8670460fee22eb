package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the error contract between services and routes:
// services return one, routes serialize it with its status code.
type ErrorResponse interface {
	Code() int
}

type simpleError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *simpleError) Code() int {
	return e.StatusCode
}

func NewSimple(code int, message string) ErrorResponse {
	return &simpleError{StatusCode: code, Message: message}
}

func NewMissingParamError(name string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing required parameter '%s'", name))
}

func NewInvalidParamTypeError(name, expected string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Parameter '%s' must be of type %s", name, expected))
}

// FromValidationError flattens validator errors into a single 400 response.
func FromValidationError(err error) ErrorResponse {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return MalformedBodyError
	}

	fields := make([]string, len(valErrs))
	for i, fe := range valErrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return NewSimple(http.StatusBadRequest, "Validation failed: "+strings.Join(fields, ", "))
}

var (
	InternalServerError   = NewSimple(http.StatusInternalServerError, "Something went wrong on our side")
	NotFoundError         = NewSimple(http.StatusNotFound, "Resource not found")
	MalformedBodyError    = NewSimple(http.StatusBadRequest, "Request body is malformed")
	InvalidAuthTokenError = NewSimple(http.StatusUnauthorized, "Invalid or missing auth token")

	UserAlreadyExistsError   = NewSimple(http.StatusConflict, "A user with this email already exists")
	CredentialsMismatchError = NewSimple(http.StatusUnauthorized, "Email or password is incorrect")

	AppointmentNotFoundError = NewSimple(http.StatusNotFound, "Appointment not found")
	NotAPartyError           = NewSimple(http.StatusForbidden, "You are not a party of this appointment")
	SelfBookingError         = NewSimple(http.StatusForbidden, "Consultants cannot book an appointment with themselves")
	ClientsOnlyError         = NewSimple(http.StatusForbidden, "Only clients can create appointments")
	ConsultantOnlyError      = NewSimple(http.StatusForbidden, "Only the consultant of this appointment can do that")
	InvalidIntervalError     = NewSimple(http.StatusBadRequest, "Appointment must start before it ends")
	AppointmentInPastError   = NewSimple(http.StatusBadRequest, "Appointment cannot be scheduled in the past")
	NotPendingError          = NewSimple(http.StatusBadRequest, "Only pending appointments can be modified")
	NotConfirmedError        = NewSimple(http.StatusBadRequest, "Only confirmed appointments can be completed")
	TerminalStatusError      = NewSimple(http.StatusBadRequest, "Appointment has reached a final status")
	StatusConflictError      = NewSimple(http.StatusBadRequest, "Appointment status changed, reload and try again")
)
