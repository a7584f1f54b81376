package services

import "errors"

var (
	// ErrNotAuthenticated нет идентификатора вызывающего пользователя
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrInvalidCredentials неверный email или пароль
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidAmount сумма должна быть положительной, меньше 10^13 и иметь не более двух знаков после запятой
	ErrInvalidAmount = errors.New("amount must be greater than zero, below 10000000000000 and have at most two decimal places")

	// ErrBalanceLimitExceeded баланс после зачисления не помещается в счет
	ErrBalanceLimitExceeded = errors.New("resulting balance exceeds the account limit")

	// ErrInsufficientFunds недостаточно средств на счете
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound нет активного счета с таким id у этого владельца
	ErrAccountNotFound = errors.New("account not found")

	// ErrSourceAccountNotFound счет списания не найден
	ErrSourceAccountNotFound = errors.New("source account not found")

	// ErrDestinationAccountNotFound счет зачисления не найден
	ErrDestinationAccountNotFound = errors.New("destination account not found")

	// ErrSameAccount перевод на тот же счет
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrCurrencyMismatch валюты счетов перевода различаются
	ErrCurrencyMismatch = errors.New("accounts have different currencies")

	// ErrForbidden счет не принадлежит пользователю
	ErrForbidden = errors.New("you do not own this account")

	// ErrFraudBlocked операция заблокирована скорером мошенничества
	ErrFraudBlocked = errors.New("transaction flagged as fraudulent and blocked")

	// ErrFraudCheckUnavailable скорер недоступен или вернул некорректный ответ
	ErrFraudCheckUnavailable = errors.New("fraud check unavailable")

	// ErrInvalidPin PIN должен состоять ровно из 4 цифр
	ErrInvalidPin = errors.New("PIN must be a 4-digit string")

	// ErrNoFieldsToUpdate пустой набор изменений
	ErrNoFieldsToUpdate = errors.New("no valid fields provided for update")

	// ErrUserExists пользователь с таким email уже существует
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound пользователь не найден
	ErrUserNotFound = errors.New("user not found")
)

// rejections ошибки, которыми сервис отказывает вызывающему. Все остальное считается сбоем.
var rejections = []error{
	ErrNotAuthenticated,
	ErrInvalidCredentials,
	ErrInvalidAmount,
	ErrBalanceLimitExceeded,
	ErrInsufficientFunds,
	ErrAccountNotFound,
	ErrSourceAccountNotFound,
	ErrDestinationAccountNotFound,
	ErrSameAccount,
	ErrCurrencyMismatch,
	ErrForbidden,
	ErrFraudBlocked,
	ErrInvalidPin,
	ErrNoFieldsToUpdate,
	ErrUserExists,
	ErrUserNotFound,
}

// IsRejection сообщает, что err это ожидаемый отказ (ошибка запроса или бизнес-правило),
// а не сбой системы
func IsRejection(err error) bool {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}

// ValidationError содержит читаемое описание ошибок валидации запроса
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
