package controllers

import (
	"context"
	"net/http"

	"bankly/models"
	"bankly/services"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// LedgerOperations то, что TransactionController использует из LedgerService
type LedgerOperations interface {
	Deposit(ctx context.Context, req services.TransactionRequest) (decimal.Decimal, error)
	Withdraw(ctx context.Context, req services.TransactionRequest) (decimal.Decimal, error)
	Transfer(ctx context.Context, req services.TransferRequest) (services.TransferResult, error)
	GetHistory(ctx context.Context, userID, accountID string) ([]models.Transaction, error)
	ListFraudLogs(ctx context.Context, userID string) ([]models.FraudLog, error)
}

// TransactionController обрабатывает операции с деньгами и историю
type TransactionController struct {
	ledger LedgerOperations
}

// Сумма принимается и числом, и строкой: decimal разбирает оба варианта
type movementRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

type BalanceResponse struct {
	Balance string `json:"balance"`
}

type TransferResponse struct {
	FromBalance string `json:"fromBalance"`
	ToBalance   string `json:"toBalance"`
}

func NewTransactionController(ledger LedgerOperations) *TransactionController {
	return &TransactionController{ledger: ledger}
}

// Deposit пополняет счет
func (c *TransactionController) Deposit(w http.ResponseWriter, r *http.Request) {
	c.movement(w, r, c.ledger.Deposit)
}

// Withdraw снимает деньги со счета
func (c *TransactionController) Withdraw(w http.ResponseWriter, r *http.Request) {
	c.movement(w, r, c.ledger.Withdraw)
}

func (c *TransactionController) movement(w http.ResponseWriter, r *http.Request, apply func(context.Context, services.TransactionRequest) (decimal.Decimal, error)) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	balance, err := apply(r.Context(), services.TransactionRequest{
		AccountID:   mux.Vars(r)["accountId"],
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: balance.StringFixed(2)})
}

// Transfer переводит деньги между счетами
func (c *TransactionController) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	result, err := c.ledger.Transfer(r.Context(), services.TransferRequest{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		UserID:        userID,
		Amount:        req.Amount,
		Description:   req.Description,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TransferResponse{
		FromBalance: result.FromBalance.StringFixed(2),
		ToBalance:   result.ToBalance.StringFixed(2),
	})
}

// History возвращает историю операций; accountId в query необязателен
func (c *TransactionController) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	transactions, err := c.ledger.GetHistory(r.Context(), userID, r.URL.Query().Get("accountId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewTransactionDTOs(transactions))
}

// FraudLogs возвращает заблокированные операции пользователя
func (c *TransactionController) FraudLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	logs, err := c.ledger.ListFraudLogs(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewFraudLogDTOs(logs))
}
