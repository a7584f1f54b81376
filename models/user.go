package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey"`
	FullName    string    `gorm:"column:full_name;not null;size:100"`
	PhoneNumber string    `gorm:"column:phone_number;not null;size:20"`
	Email       string    `gorm:"column:email;not null;size:100"`
	Password    string    `gorm:"column:password;not null;size:100"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Мягкое удаление: gorm сам отфильтровывает удаленных во всех запросах
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate назначает id и проверяет длину полей
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if len(u.FullName) < 3 || len(u.FullName) > 100 {
		return errors.New("full name must be between 3 and 100 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	return nil
}
