package api

import (
	"encoding/json"
	"net/http"

	tterrors "github.com/matzehuels/treetop/pkg/errors"
)

// errorEnvelope is the JSON body of every error response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps a coded error to an HTTP status and writes the
// envelope. Errors without a code become 500s with a generic message so
// internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	code := tterrors.GetCode(err)
	status := statusForCode(code)
	msg := tterrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	if code == "" {
		code = tterrors.ErrCodeInternal
	}
	writeErrorStatus(w, status, string(code), msg)
}

func writeErrorStatus(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func statusForCode(code tterrors.Code) int {
	switch code {
	case tterrors.ErrCodeInvalidInput, tterrors.ErrCodeInvalidDocument,
		tterrors.ErrCodeInvalidSource, tterrors.ErrCodeInvalidFormat,
		tterrors.ErrCodeInvalidSettings, tterrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case tterrors.ErrCodeNotFound, tterrors.ErrCodeDocumentNotFound,
		tterrors.ErrCodeNodeNotFound, tterrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case tterrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case tterrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case tterrors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
