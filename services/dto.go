package services

import (
	"time"

	"bankly/models"
)

// Денежные суммы отдаются строками с двумя знаками после запятой

type UserDTO struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	CreatedAt   string `json:"createdAt"`
}

type AccountDTO struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	AccountNumber string  `json:"accountNumber"`
	AccountType   string  `json:"accountType"`
	Balance       string  `json:"balance"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	Nickname      string  `json:"nickname"`
	HasPin        bool    `json:"hasPin"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
	ClosedAt      *string `json:"closedAt,omitempty"`
}

type TransactionDTO struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	Type          string `json:"type"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balanceBefore"`
	BalanceAfter  string `json:"balanceAfter"`
	Description   string `json:"description"`
	CreatedAt     string `json:"createdAt"`
}

type FraudLogDTO struct {
	ID        string  `json:"id"`
	AccountID string  `json:"accountId"`
	Amount    string  `json:"amount"`
	Type      string  `json:"type"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"createdAt"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func NewAccountDTO(a *models.Account) AccountDTO {
	dto := AccountDTO{
		ID:            a.ID,
		UserID:        a.UserID,
		AccountNumber: a.Number,
		AccountType:   string(a.Type),
		Balance:       a.Balance.StringFixed(2),
		Currency:      a.Currency,
		Status:        string(a.Status),
		Nickname:      a.Nickname,
		HasPin:        a.HasPin(),
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.Format(time.RFC3339),
	}
	if a.ClosedAt != nil {
		closedAt := a.ClosedAt.Format(time.RFC3339)
		dto.ClosedAt = &closedAt
	}
	return dto
}

func NewAccountDTOs(accounts []models.Account) []AccountDTO {
	dtos := make([]AccountDTO, 0, len(accounts))
	for i := range accounts {
		dtos = append(dtos, NewAccountDTO(&accounts[i]))
	}
	return dtos
}

func NewTransactionDTOs(transactions []models.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, TransactionDTO{
			ID:            t.ID,
			AccountID:     t.AccountID,
			Type:          string(t.Type),
			Direction:     string(t.Direction),
			Amount:        t.Amount.StringFixed(2),
			BalanceBefore: t.BalanceBefore.StringFixed(2),
			BalanceAfter:  t.BalanceAfter.StringFixed(2),
			Description:   t.Description,
			CreatedAt:     t.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return dtos
}

func NewFraudLogDTOs(logs []models.FraudLog) []FraudLogDTO {
	dtos := make([]FraudLogDTO, 0, len(logs))
	for _, l := range logs {
		dtos = append(dtos, FraudLogDTO{
			ID:        l.ID,
			AccountID: l.AccountID,
			Amount:    l.Amount.StringFixed(2),
			Type:      string(l.Type),
			Score:     l.Score,
			Reason:    l.Reason,
			CreatedAt: l.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return dtos
}
