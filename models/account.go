package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType тип счета
type AccountType string

const (
	AccountTypeSavings AccountType = "savings"
	AccountTypeCurrent AccountType = "current"
)

// AccountStatus статус счета; closed означает мягкое удаление
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusClosed   AccountStatus = "closed"
)

type Account struct {
	ID        string          `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string          `gorm:"column:user_id;type:uuid;not null;index"`
	Number    string          `gorm:"column:account_number;unique;not null;size:32"`
	Type      AccountType     `gorm:"column:account_type;type:varchar(16);not null;default:'savings'"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(15,2);not null;default:0"`
	Currency  string          `gorm:"column:currency;type:char(3);not null;default:'NGN'"`
	Status    AccountStatus   `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	PinHash   *string         `gorm:"column:pin_hash;size:100"`
	Nickname  string          `gorm:"column:nickname;size:100"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	ClosedAt  *time.Time      `gorm:"column:closed_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AgeInDays возвращает число полных дней с открытия счета
func (a *Account) AgeInDays(now time.Time) int {
	if now.Before(a.CreatedAt) {
		return 0
	}
	return int(now.Sub(a.CreatedAt).Hours() / 24)
}

func (a *Account) HasPin() bool {
	return a.PinHash != nil && *a.PinHash != ""
}
