package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType вид операции, создавшей запись журнала
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

// Direction зачисление или списание
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// ErrAppendOnly возвращают хуки, запрещающие изменять записи журнала
var ErrAppendOnly = errors.New("ledger rows are append-only")

// Transaction неизменяемая запись журнала. Seq назначает база, он упорядочивает
// записи с одинаковым created_at.
type Transaction struct {
	ID            string          `gorm:"column:id;type:uuid;primaryKey"`
	Seq           int64           `gorm:"column:seq;->"`
	AccountID     string          `gorm:"column:account_id;type:uuid;not null;index"`
	Type          TransactionType `gorm:"column:type;type:varchar(16);not null"`
	Direction     Direction       `gorm:"column:direction;type:varchar(8);not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(15,2);not null"`
	BalanceBefore decimal.Decimal `gorm:"column:balance_before;type:numeric(15,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"column:balance_after;type:numeric(15,2);not null"`
	Description   string          `gorm:"column:description;size:255"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrAppendOnly
}
