package api

import (
	// Go Internal Packages
	"encoding/json"
	"net/http"

	// Local Packages
	errors "cardflow/errors"

	// External Packages
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error kind to a status. Internal details never reach the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch errors.KindOf(err) {
	case errors.Invalid:
		status = http.StatusBadRequest
	case errors.Unauthorized:
		status = http.StatusUnauthorized
	case errors.Forbidden:
		status = http.StatusForbidden
	case errors.NotFound:
		status = http.StatusNotFound
	case errors.Conflict:
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
		loggerFrom(r).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidBodyErr(err)
	}
	return nil
}
