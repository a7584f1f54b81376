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
	"gorm.io/gorm"
)

type UserService struct {
	db        *database.Database
	tokens    *TokenIssuer
	validator *validator.Validate
}

type SignUpRequest struct {
	FullName    string `json:"fullName" validate:"required,min=3,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7,max=20"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=72,password"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserUpdate разрешенные для изменения поля профиля. nil означает "не менять".
type UserUpdate struct {
	FullName    *string `json:"fullName" validate:"omitempty,min=3,max=100"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,min=7,max=20"`
}

func (u UserUpdate) trimmed() UserUpdate {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return UserUpdate{FullName: trim(u.FullName), PhoneNumber: trim(u.PhoneNumber)}
}

func (u UserUpdate) columns() map[string]interface{} {
	columns := make(map[string]interface{})
	if u.FullName != nil {
		columns["full_name"] = *u.FullName
	}
	if u.PhoneNumber != nil {
		columns["phone_number"] = *u.PhoneNumber
	}
	return columns
}

// AuthResult пользователь и выданный ему токен
type AuthResult struct {
	User  *models.User
	Token string
}

func NewUserService(db *database.Database, tokens *TokenIssuer) *UserService {
	return &UserService{
		db:        db,
		tokens:    tokens,
		validator: NewValidator(),
	}
}

// SignUp регистрирует пользователя и сразу выдает токен
func (s *UserService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := ValidateStruct(s.validator, req); err != nil {
		return nil, err
	}

	// Проверяем, существует ли пользователь с таким email
	if _, err := s.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	// Хешируем пароль
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:    req.FullName,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       req.Email,
		Password:    hashedPassword,
	}
	if err := s.db.DB.WithContext(ctx).Create(user).Error; err != nil {
		// Параллельная регистрация с тем же email упирается в уникальный индекс
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("user signed up", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// SignIn проверяет email и пароль и выдает токен
func (s *UserService) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	if err := ValidateStruct(s.validator, req); err != nil {
		return nil, err
	}

	user, err := s.FindByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Проверяем пароль
	if !utils.VerifyPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Me возвращает профиль пользователя
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Update меняет разрешенные поля профиля и возвращает обновленного пользователя
func (s *UserService) Update(ctx context.Context, userID string, update UserUpdate) (*models.User, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}
	update = update.trimmed()
	if err := ValidateStruct(s.validator, update); err != nil {
		return nil, err
	}
	columns := update.columns()
	if len(columns) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	result := s.db.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(columns)
	if result.Error != nil {
		return nil, fmt.Errorf("update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.Me(ctx, userID)
}

// Delete мягко удаляет пользователя и закрывает все его счета. После этого
// вход, профиль и операции по счетам недоступны, история остается в базе.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := checkCaller(userID); err != nil {
		return err
	}

	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		result := tx.Delete(&models.User{}, "id = ?", userID)
		if result.Error != nil {
			return fmt.Errorf("delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		if err := tx.Model(&models.Account{}).
			Where("user_id = ? AND status <> ?", userID, models.AccountStatusClosed).
			Updates(map[string]interface{}{
				"status":    models.AccountStatusClosed,
				"closed_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("close user accounts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.LogInfo("user deleted", "user_id", userID)
	return nil
}

// FindByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.DB.WithContext(ctx).Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
