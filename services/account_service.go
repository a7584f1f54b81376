package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankly/database"
	"bankly/models"
	"bankly/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	accountNumberPrefix   = "BANK-"
	accountNumberDigits   = 10
	accountNumberAttempts = 5
	defaultCurrency       = "NGN"
)

// CreateAccountDTO представляет данные для создания счета
type CreateAccountDTO struct {
	UserID      string `json:"-"`
	AccountType string `json:"accountType" validate:"omitempty,oneof=savings current"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// AccountUpdate разрешенные для изменения поля счета. nil означает "не менять".
type AccountUpdate struct {
	Nickname    *string `json:"nickname" validate:"omitempty,max=100"`
	AccountType *string `json:"accountType" validate:"omitempty,oneof=savings current"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (u AccountUpdate) columns() map[string]interface{} {
	columns := make(map[string]interface{})
	if u.Nickname != nil {
		columns["nickname"] = strings.TrimSpace(*u.Nickname)
	}
	if u.AccountType != nil {
		columns["account_type"] = *u.AccountType
	}
	if u.Status != nil {
		columns["status"] = *u.Status
	}
	return columns
}

// AccountService управляет жизненным циклом счетов
type AccountService struct {
	db        *database.Database
	validator *validator.Validate
}

// NewAccountService создает новый экземпляр AccountService
func NewAccountService(db *database.Database) *AccountService {
	return &AccountService{
		db:        db,
		validator: NewValidator(),
	}
}

// Create открывает новый счет с нулевым балансом
func (s *AccountService) Create(ctx context.Context, dto CreateAccountDTO) (*models.Account, error) {
	if err := checkCaller(dto.UserID); err != nil {
		return nil, err
	}
	if err := ValidateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	// Удаленный пользователь остается в таблице, внешний ключ его не отсечет
	var owner models.User
	if err := s.db.DB.WithContext(ctx).Select("id").First(&owner, "id = ?", dto.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find account owner: %w", err)
	}

	// Значения по умолчанию
	accountType := models.AccountTypeSavings
	if dto.AccountType != "" {
		accountType = models.AccountType(dto.AccountType)
	}
	currency := defaultCurrency
	if dto.Currency != "" {
		currency = strings.ToUpper(dto.Currency)
	}

	// Номер генерируется случайно, при совпадении пробуем еще раз
	for attempt := 1; attempt <= accountNumberAttempts; attempt++ {
		number, err := generateAccountNumber()
		if err != nil {
			return nil, err
		}

		account := &models.Account{
			UserID:   dto.UserID,
			Number:   number,
			Type:     accountType,
			Currency: currency,
			Status:   models.AccountStatusActive,
		}

		err = s.db.DB.WithContext(ctx).Create(account).Error
		if err == nil {
			utils.LogInfo("account created", "account_id", account.ID, "user_id", account.UserID)
			return account, nil
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrUserNotFound
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create account: %w", err)
		}
		utils.LogDebug("account number collision, retrying", "attempt", attempt)
	}

	return nil, fmt.Errorf("could not generate a unique account number after %d attempts", accountNumberAttempts)
}

// List возвращает открытые счета пользователя, старые первыми
func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}

	accounts := []models.Account{}
	if err := s.db.DB.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.AccountStatusClosed).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Get возвращает открытый счет пользователя. Чужой счет выглядит как несуществующий.
func (s *AccountService) Get(ctx context.Context, userID, accountID string) (*models.Account, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	var account models.Account
	err = s.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status <> ?", id.String(), userID, models.AccountStatusClosed).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}

// Update меняет разрешенные поля открытого счета
func (s *AccountService) Update(ctx context.Context, userID, accountID string, update AccountUpdate) (*models.Account, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}
	if err := ValidateStruct(s.validator, update); err != nil {
		return nil, err
	}
	columns := update.columns()
	if len(columns) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	if err := s.updateOpen(ctx, userID, accountID, columns); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, accountID)
}

// Close закрывает счет. Повторное закрытие возвращает ErrAccountNotFound.
func (s *AccountService) Close(ctx context.Context, userID, accountID string) error {
	if err := checkCaller(userID); err != nil {
		return err
	}
	return s.updateOpen(ctx, userID, accountID, map[string]interface{}{
		"status":    models.AccountStatusClosed,
		"closed_at": time.Now(),
	})
}

// SetPin сохраняет bcrypt-хеш PIN-кода счета
func (s *AccountService) SetPin(ctx context.Context, userID, accountID, pin string) error {
	if err := checkCaller(userID); err != nil {
		return err
	}
	if !pinPattern.MatchString(pin) {
		return ErrInvalidPin
	}

	hash, err := utils.HashPIN(pin)
	if err != nil {
		return err
	}
	return s.updateOpen(ctx, userID, accountID, map[string]interface{}{"pin_hash": hash})
}

// updateOpen обновляет колонки открытого счета владельца одним UPDATE
func (s *AccountService) updateOpen(ctx context.Context, userID, accountID string, columns map[string]interface{}) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return ErrAccountNotFound
	}

	result := s.db.DB.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND user_id = ? AND status <> ?", id.String(), userID, models.AccountStatusClosed).
		Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// generateAccountNumber генерирует номер вида BANK-0123456789
func generateAccountNumber() (string, error) {
	digits, err := utils.RandomDigits(accountNumberDigits)
	if err != nil {
		return "", err
	}
	return accountNumberPrefix + digits, nil
}
