package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/module"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/service"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds request bodies. Documents are sent whole on every save.
const maxBodyBytes = 8 << 20

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondProblem(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondProblem writes an application/problem+json error body.
func respondProblem(w http.ResponseWriter, status int, detail string) {
	problem := v1.Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	response, _ := json.Marshal(problem)
	w.Header().Set("Content-Type", v1.ProblemContentType)
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondError maps service errors to HTTP statuses. Unknown errors are
// logged and answered without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		respondProblem(w, status, "internal error")
		return
	}
	respondProblem(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, module.ErrMissingToken), errors.Is(err, module.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrCheckpointNotFound),
		errors.Is(err, service.ErrCheckpointsNotConfigured):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCitationReferences):
		return http.StatusForbidden
	case errors.Is(err, service.ErrTooManyCitations):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrTooManyIDs),
		errors.Is(err, service.ErrUnsupportedExportFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBody reads a JSON request body into target.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondProblem(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody accepting an empty body.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		respondProblem(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
