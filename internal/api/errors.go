package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// APIError is the huma.StatusError every operation error is converted to,
// so the envelope always carries a machine-readable code.
type APIError struct { //nolint:revive // exported name used in OpenAPI schemas
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Per-field messages or outcome data"`
}

func (e *APIError) Error() string               { return e.Message }
func (e *APIError) GetStatus() int              { return e.status }
func (e *APIError) ContentType(_ string) string { return "application/json" }

// RegisterErrorHandler installs newError as huma's error constructor.
// It must run before any operation is served.
func RegisterErrorHandler() {
	huma.NewError = newError
}

// codeForStatus names errors that huma raises itself, such as body
// validation failures, which carry no domain code.
var codeForStatus = map[int]domainerrors.Code{
	http.StatusBadRequest:          domainerrors.CodeValidation,
	http.StatusUnprocessableEntity: domainerrors.CodeValidation,
	http.StatusUnauthorized:        domainerrors.CodeUnauthorized,
	http.StatusForbidden:           domainerrors.CodeForbidden,
	http.StatusNotFound:            domainerrors.CodeNotFound,
	http.StatusConflict:            domainerrors.CodeConflict,
	http.StatusTooManyRequests:     domainerrors.CodeRateLimited,
}

func statusToCode(status int) string {
	if code, ok := codeForStatus[status]; ok {
		return string(code)
	}
	return string(domainerrors.CodeInternal)
}

func newError(status int, message string, errs ...error) huma.StatusError {
	var fieldErrs []*huma.ErrorDetail
	for _, err := range errs {
		if apiErr := fromDomain(err); apiErr != nil {
			return apiErr
		}
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			fieldErrs = append(fieldErrs, detail)
		}
	}

	apiErr := &APIError{status: status, Code: statusToCode(status), Message: message}
	if len(fieldErrs) > 0 {
		apiErr.Details = fieldErrs
	}
	return apiErr
}

// fromDomain converts service and store errors, or returns nil.
func fromDomain(err error) *APIError {
	var coded *domainerrors.Error
	if errors.As(err, &coded) {
		return &APIError{status: coded.HTTPStatus(), Code: string(coded.Code), Message: coded.Message, Details: coded.Details}
	}
	var stored *store.Error
	if errors.As(err, &stored) {
		return &APIError{status: stored.HTTPCode(), Code: statusToCode(stored.HTTPCode()), Message: stored.Message}
	}
	return nil
}
