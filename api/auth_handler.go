package api

import (
	"encoding/json"
	"net/http"

	"kejani/identity"
)

// AuthHandler drives the identity provider. Sign-in and sign-out mutate
// the process-wide session, which every guarded route observes.
type AuthHandler struct {
	svc      *identity.Service
	sessions *identity.Sessions
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(svc *identity.Service, sessions *identity.Sessions) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	Verified    bool   `json:"verified"`
}

func toIdentityResponse(i identity.Identity) identityResponse {
	resp := identityResponse{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		Verified:    i.Verified,
	}
	if i.Phone != nil {
		resp.Phone = *i.Phone
	}
	return resp
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params identity.CreateIdentityParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ident, err := h.svc.CreateIdentity(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toIdentityResponse(*ident))
}

// SignIn handles POST /auth/login.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Token    string           `json:"token"`
		Identity identityResponse `json:"identity"`
	}{
		Token:    result.Token,
		Identity: toIdentityResponse(result.Identity),
	})
}

// SignOut handles POST /auth/logout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.svc.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me and reports the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Current()
	if s.Status != identity.SessionResolved {
		writeJSON(w, http.StatusOK, map[string]any{"status": "pending"})
		return
	}
	if s.Identity == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "signed_out"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "signed_in",
		"identity": toIdentityResponse(*s.Identity),
	})
}
