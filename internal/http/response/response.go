// Package response writes the JSON envelope for requests answered outside
// huma: chi's fallback routes and the event stream. The shape matches what
// huma operations produce, so clients parse one format.
package response

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
)

// EnvelopeVersion is stamped into every envelope as "v".
const EnvelopeVersion = 1

// Envelope is the body of every JSON response.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func write(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	env.Version = EnvelopeVersion
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, env); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// JSON writes data under status. Statuses below 400 count as success.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{Success: status < http.StatusBadRequest, Data: data}, logger)
}

// Error writes err with the status and code of the first coded error in its
// chain. Anything else is logged and answered with a generic 500.
func Error(w http.ResponseWriter, err error, logger *slog.Logger) {
	var coded *domainerrors.Error
	if !errors.As(err, &coded) {
		if logger != nil {
			logger.Error("Unhandled error", "error", err)
		}
		coded = domainerrors.Internal("internal server error")
	}
	write(w, coded.HTTPStatus(), Envelope{
		Code:    string(coded.Code),
		Message: coded.Message,
		Details: coded.Details,
	}, logger)
}

// NotFound answers requests for routes that do not exist.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, domainerrors.NotFoundf("no route for %s %s", r.Method, r.URL.Path), nil)
}

// MethodNotAllowed answers requests using a method the route does not serve.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusMethodNotAllowed, Envelope{
		Code:    string(domainerrors.CodeValidation),
		Message: r.Method + " is not allowed on " + r.URL.Path,
	}, nil)
}
