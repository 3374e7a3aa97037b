package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"research_portal/portal/auth"
	"research_portal/utils"
)

type UserService struct {
	provider *auth.Provider
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token implements the password flow token endpoint: form encoded username
// and password in exchange for a bearer token.
func (s *UserService) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, fmt.Sprintf("error parsing form: %v", err), http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		http.Error(w, "username and password must be specified", http.StatusBadRequest)
		return
	}

	token, err := s.provider.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		slog.Error("login failed", "username", username, "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *UserService) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params createUserRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.provider.CreateUser(r.Context(), params.Username, params.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("user created", "username", params.Username)

	utils.WriteSuccess(w)
}
