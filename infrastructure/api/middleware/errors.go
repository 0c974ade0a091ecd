package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gitrag/gitrag/application/service"
	"github.com/gitrag/gitrag/domain/repository"
	"github.com/gitrag/gitrag/infrastructure/git"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps an error to a JSON error response. Client mistakes
// (unknown repo, non-git directory, archived repo, bad payloads) map to
// 4xx; embedding and vector-store failures stay 5xx.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	WriteJSON(w, status, map[string]string{"detail": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, git.ErrRepoNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, git.ErrNotGitRepo),
		errors.Is(err, service.ErrRepoArchived):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrResetDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest writes a 400 with the given detail.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": detail})
}
