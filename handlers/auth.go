package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/21namanpandey/e-library/apperr"
	"github.com/21namanpandey/e-library/service"
)

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (string, error)
	Login(ctx context.Context, in service.LoginInput) (string, error)
}

type AuthHandler struct {
	Users  UserService
	Errors *ErrorWriter
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// maximum accepted JSON body for auth requests
const maxAuthBody = 1 << 20

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	token, err := h.Users.Register(r.Context(), req)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TokenResponse{AccessToken: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	token, err := h.Users.Login(r.Context(), req)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxAuthBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}
