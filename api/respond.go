package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kejani/asset"
	"kejani/identity"
	"kejani/listing"
)

type errorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Raw
// provider error shapes never reach the client; everything unknown
// collapses into a generic upstream failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var creationErr *listing.CreationError
	var uploadErr *asset.UploadError

	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, identity.ErrEmailInUse):
		writeError(w, http.StatusConflict, "email already in use")
	case errors.Is(err, identity.ErrWeakPassword):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, identity.ErrIdentityNotFound),
		errors.Is(err, listing.ErrNotFound),
		errors.Is(err, asset.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, listing.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not the owner of this listing")
	case errors.Is(err, listing.ErrInvalidDraft),
		errors.Is(err, asset.ErrEmptyBatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &creationErr):
		slog.Error("listing creation failed", "stage", creationErr.Stage, "error", creationErr.Err)
		writeError(w, http.StatusBadGateway, "failed to create listing, please try again")
	case errors.As(err, &uploadErr):
		slog.Error("asset upload failed", "file", uploadErr.File, "error", uploadErr.Err)
		writeError(w, http.StatusBadGateway, "failed to upload images, please try again")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusBadGateway, "temporary failure, please try again")
	}
}
