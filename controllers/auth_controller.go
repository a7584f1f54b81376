package controllers

import (
	"context"
	"net/http"

	"bankly/models"
	"bankly/services"
)

// UserOperations то, что AuthController использует из UserService
type UserOperations interface {
	SignUp(ctx context.Context, req services.SignUpRequest) (*services.AuthResult, error)
	SignIn(ctx context.Context, req services.SignInRequest) (*services.AuthResult, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, update services.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}

type AuthController struct {
	users UserOperations
}

type SignUpResponse struct {
	User  services.UserDTO `json:"user"`
	Token string           `json:"token"`
}

type SignInResponse struct {
	Token string `json:"token"`
}

func NewAuthController(users UserOperations) *AuthController {
	return &AuthController{users: users}
}

// SignUp обрабатывает регистрацию пользователя
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := c.users.SignUp(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, SignUpResponse{
		User:  services.NewUserDTO(result.User),
		Token: result.Token,
	})
}

// SignIn обрабатывает вход пользователя
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req services.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := c.users.SignIn(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{Token: result.Token})
}

// Me возвращает профиль текущего пользователя
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := c.users.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewUserDTO(user))
}

// Update меняет профиль текущего пользователя
func (c *AuthController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req services.UserUpdate
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	user, err := c.users.Update(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewUserDTO(user))
}

// Delete удаляет текущего пользователя
func (c *AuthController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := c.users.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
