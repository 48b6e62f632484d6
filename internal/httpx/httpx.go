// Package httpx holds the JSON request/response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/logger"
	"github.com/onikinet/oniki-match/internal/validation"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to an HTTP status and reason code. Internal errors are
// logged and their message is not echoed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := svcErr.HTTPStatus(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), logger.L()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "err", err)
		msg = http.StatusText(code)
	}
	WriteJSON(w, code, ErrorBody{Error: msg, Reason: svcErr.Reason(err)})
}

// DecodeJSON reads the body, validates it against schema and decodes it into dst.
func DecodeJSON(r *http.Request, schema *validation.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", svcErr.ErrInvalidInput)
	}
	if schema != nil {
		if err := schema.Validate(body); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, svcErr.ErrInvalidInput)
	}
	return nil
}
