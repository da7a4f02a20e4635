package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/timereport/internal/common"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// errorResponse maps a service error to a status code and a client-safe
// message. ok is false for unexpected errors, which must be logged.
func errorResponse(err error) (status int, msg string, ok bool) {
	if cred := common.CredentialError(err); cred != nil {
		return http.StatusUnauthorized, cred.Error(), true
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": "), true
	case errors.Is(err, common.ErrProjectInactive):
		return http.StatusBadRequest, common.ErrProjectInactive.Error(), true
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error(), true
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, common.ErrorConflict.Error(), true
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, common.ErrRateLimited.Error(), true
	case errors.Is(err, common.ErrStoreProvisioning):
		return http.StatusInternalServerError, common.ErrStoreProvisioning.Error(), false
	}
	return http.StatusInternalServerError, common.ErrorInternal.Error(), false
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg, ok := errorResponse(err)
	if !ok {
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return invalid("malformed JSON body")
	}
	return nil
}
