package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bankly/middleware"
	"bankly/services"
	"bankly/utils"
)

const maxBodyBytes = 1 << 20

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON отдает успешный ответ в конверте {"success": true, "data": ...}
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		utils.LogError("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// handleServiceError переводит ошибку сервиса в HTTP-ответ. Текст внутренних
// ошибок клиенту не отдается.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.LogError("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.GetMetrics().RecordError("internal")
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, publicMessage(err))
}

func statusFor(err error) int {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotAuthenticated),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrBalanceLimitExceeded),
		errors.Is(err, services.ErrInvalidPin),
		errors.Is(err, services.ErrNoFieldsToUpdate),
		errors.Is(err, services.ErrSameAccount),
		errors.Is(err, services.ErrCurrencyMismatch),
		errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrSourceAccountNotFound),
		errors.Is(err, services.ErrDestinationAccountNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrFraudBlocked):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage возвращает текст сентинела, а не всей цепочки обертывания
func publicMessage(err error) string {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	for _, sentinel := range []error{
		services.ErrNotAuthenticated,
		services.ErrInvalidCredentials,
		services.ErrInvalidAmount,
		services.ErrBalanceLimitExceeded,
		services.ErrInvalidPin,
		services.ErrNoFieldsToUpdate,
		services.ErrSameAccount,
		services.ErrCurrencyMismatch,
		services.ErrInsufficientFunds,
		services.ErrAccountNotFound,
		services.ErrSourceAccountNotFound,
		services.ErrDestinationAccountNotFound,
		services.ErrUserNotFound,
		services.ErrForbidden,
		services.ErrFraudBlocked,
		services.ErrUserExists,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// decodeJSON читает тело запроса в dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &services.ValidationError{Message: "invalid request body"}
	}
	return nil
}

// currentUser достает user_id, положенный AuthMiddleware
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, services.ErrNotAuthenticated.Error())
		return "", false
	}
	return userID, true
}
