package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FraudLog запись о снятии или переводе, заблокированном скорером.
// Ссылки на transactions нет: операция не состоялась.
type FraudLog struct {
	ID        string          `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string          `gorm:"column:user_id;type:uuid;not null;index"`
	AccountID string          `gorm:"column:account_id;type:uuid;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(15,2);not null"`
	Type      TransactionType `gorm:"column:type;type:varchar(16);not null"`
	Score     float64         `gorm:"column:score;not null"`
	Reason    string          `gorm:"column:reason;size:255;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (FraudLog) TableName() string {
	return "fraud_logs"
}

func (f *FraudLog) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

func (f *FraudLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

func (f *FraudLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAppendOnly
}
