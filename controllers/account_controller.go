package controllers

import (
	"context"
	"net/http"

	"bankly/models"
	"bankly/services"

	"github.com/gorilla/mux"
)

// AccountOperations то, что AccountController использует из AccountService
type AccountOperations interface {
	Create(ctx context.Context, dto services.CreateAccountDTO) (*models.Account, error)
	List(ctx context.Context, userID string) ([]models.Account, error)
	Get(ctx context.Context, userID, accountID string) (*models.Account, error)
	Update(ctx context.Context, userID, accountID string, update services.AccountUpdate) (*models.Account, error)
	Close(ctx context.Context, userID, accountID string) error
	SetPin(ctx context.Context, userID, accountID, pin string) error
}

// AccountController обрабатывает запросы, связанные со счетами
type AccountController struct {
	accounts AccountOperations
}

type updateAccountRequest struct {
	AccountID string `json:"accountId"`
	services.AccountUpdate
}

type closeAccountRequest struct {
	AccountID string `json:"accountId"`
}

type setPinRequest struct {
	Pin string `json:"pin"`
}

// NewAccountController создает новый экземпляр AccountController
func NewAccountController(accounts AccountOperations) *AccountController {
	return &AccountController{accounts: accounts}
}

// Create открывает новый счет
func (c *AccountController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var dto services.CreateAccountDTO
	if err := decodeJSON(r, &dto); err != nil {
		handleServiceError(w, r, err)
		return
	}
	dto.UserID = userID

	account, err := c.accounts.Create(r.Context(), dto)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, services.NewAccountDTO(account))
}

// List возвращает открытые счета пользователя
func (c *AccountController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	accounts, err := c.accounts.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewAccountDTOs(accounts))
}

// Get возвращает счет по id
func (c *AccountController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	account, err := c.accounts.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewAccountDTO(account))
}

// Update меняет никнейм, тип или статус счета
func (c *AccountController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "field accountId is required")
		return
	}

	account, err := c.accounts.Update(r.Context(), userID, req.AccountID, req.AccountUpdate)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewAccountDTO(account))
}

// Close закрывает счет
func (c *AccountController) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req closeAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "field accountId is required")
		return
	}

	if err := c.accounts.Close(r.Context(), userID, req.AccountID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "account closed"})
}

// SetPin устанавливает PIN-код счета
func (c *AccountController) SetPin(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req setPinRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := c.accounts.SetPin(r.Context(), userID, mux.Vars(r)["id"], req.Pin); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "PIN set successfully"})
}
