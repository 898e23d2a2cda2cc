package postgrest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/monteirok/popmart-tracker/internal/repository"
)

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Error carries the HTTP status and PostgREST error payload.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "http %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &Error{Status: resp.StatusCode}

	var payload apiError
	if err := json.Unmarshal(raw, &payload); err == nil && (payload.Message != "" || payload.Code != "") {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		apiErr.Details = payload.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return repository.NewStoreError(op, classify(apiErr), apiErr)
}

// classify maps HTTP status and SQLSTATE to a store error kind.
func classify(e *Error) repository.Kind {
	// An id that is not a uuid cannot name a row.
	if e.Code == "22P02" && strings.Contains(e.Message, "uuid") {
		return repository.KindNotFound
	}
	// Class 22 is data exception, class 23 integrity constraint violation.
	if strings.HasPrefix(e.Code, "22") || strings.HasPrefix(e.Code, "23") {
		return repository.KindRejected
	}
	switch e.Status {
	case http.StatusNotFound, http.StatusNotAcceptable:
		if e.Code == "PGRST116" || e.Code == "" {
			return repository.KindNotFound
		}
		return repository.KindUnavailable
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return repository.KindRejected
	default:
		return repository.KindUnavailable
	}
}
