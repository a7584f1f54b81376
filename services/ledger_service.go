package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bankly/database"
	"bankly/models"
	"bankly/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxMoney верхняя граница (не включая) для суммы и баланса: колонки NUMERIC(15,2)
var maxMoney = decimal.New(1, 13)

// TransactionRequest данные для пополнения или снятия
type TransactionRequest struct {
	AccountID   string
	UserID      string
	Amount      decimal.Decimal
	Description string `validate:"max=255"`
}

// TransferRequest данные для перевода между счетами
type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	UserID        string
	Amount        decimal.Decimal
	Description   string `validate:"max=255"`
}

// TransferResult балансы обоих счетов после перевода
type TransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// LedgerService выполняет операции с деньгами. Каждая операция идет в одной
// транзакции базы данных, счета блокируются через SELECT ... FOR UPDATE.
type LedgerService struct {
	db        *database.Database
	scorer    FraudScorer
	policy    FraudPolicy
	notifier  Notifier
	validator *validator.Validate
	now       func() time.Time
}

// NewLedgerService создает новый экземпляр LedgerService
func NewLedgerService(db *database.Database, scorer FraudScorer, policy FraudPolicy, notifier Notifier) *LedgerService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LedgerService{
		db:        db,
		scorer:    scorer,
		policy:    policy,
		notifier:  notifier,
		validator: NewValidator(),
		now:       time.Now,
	}
}

// blockedOperation то, что нужно для уведомления после коммита FraudLog
type blockedOperation struct {
	log           *models.FraudLog
	accountNumber string
}

// Deposit пополняет счет владельца и возвращает новый баланс
func (s *LedgerService) Deposit(ctx context.Context, req TransactionRequest) (balance decimal.Decimal, err error) {
	start := time.Now()
	defer func() { logOutcome("deposit", start, err) }()

	if err := checkCaller(req.UserID); err != nil {
		return decimal.Zero, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return decimal.Zero, err
	}
	if err := ValidateStruct(s.validator, req); err != nil {
		return decimal.Zero, err
	}

	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		account, err := lockOwnedAccount(tx, req.AccountID, req.UserID)
		if err != nil {
			return err
		}

		before := account.Balance
		balance = before.Add(req.Amount)
		if err := checkBalanceLimit(balance); err != nil {
			return err
		}
		return applyMovement(tx, account, models.TransactionTypeDeposit, models.DirectionCredit,
			req.Amount, before, balance, req.Description)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Withdraw списывает деньги со счета после проверки остатка и оценки риска
func (s *LedgerService) Withdraw(ctx context.Context, req TransactionRequest) (balance decimal.Decimal, err error) {
	start := time.Now()
	defer func() { logOutcome("withdrawal", start, err) }()

	if err := checkCaller(req.UserID); err != nil {
		return decimal.Zero, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return decimal.Zero, err
	}
	if err := ValidateStruct(s.validator, req); err != nil {
		return decimal.Zero, err
	}

	var blocked *blockedOperation
	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		account, err := lockOwnedAccount(tx, req.AccountID, req.UserID)
		if err != nil {
			return err
		}

		before := account.Balance
		if before.LessThan(req.Amount) {
			return ErrInsufficientFunds
		}

		fraudLog, err := s.evaluateRisk(ctx, tx, account, req.UserID, req.Amount, models.TransactionTypeWithdrawal)
		if err != nil {
			return err
		}
		if fraudLog != nil {
			// Фиксируем только запись FraudLog, баланс не трогаем
			if err := tx.Create(fraudLog).Error; err != nil {
				return fmt.Errorf("write fraud log: %w", err)
			}
			blocked = &blockedOperation{log: fraudLog, accountNumber: account.Number}
			return nil
		}

		balance = before.Sub(req.Amount)
		return applyMovement(tx, account, models.TransactionTypeWithdrawal, models.DirectionDebit,
			req.Amount, before, balance, req.Description)
	})
	if err != nil {
		return decimal.Zero, err
	}
	if blocked != nil {
		s.afterBlock(ctx, blocked)
		return decimal.Zero, ErrFraudBlocked
	}
	return balance, nil
}

// Transfer переводит деньги со счета владельца на любой активный счет в той же валюте
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (result TransferResult, err error) {
	start := time.Now()
	defer func() { logOutcome("transfer", start, err) }()

	if err := checkCaller(req.UserID); err != nil {
		return TransferResult{}, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return TransferResult{}, err
	}
	if err := ValidateStruct(s.validator, req); err != nil {
		return TransferResult{}, err
	}

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		return TransferResult{}, ErrSourceAccountNotFound
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		return TransferResult{}, ErrDestinationAccountNotFound
	}
	if fromID == toID {
		return TransferResult{}, ErrSameAccount
	}

	var blocked *blockedOperation
	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		// Блокируем обе строки одним запросом в порядке возрастания id,
		// встречные переводы не дедлокают
		var accounts []models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND status = ?", []string{fromID.String(), toID.String()}, models.AccountStatusActive).
			Order("id").
			Find(&accounts).Error; err != nil {
			return fmt.Errorf("lock transfer accounts: %w", err)
		}

		var source, destination *models.Account
		for i := range accounts {
			switch accounts[i].ID {
			case fromID.String():
				source = &accounts[i]
			case toID.String():
				destination = &accounts[i]
			}
		}
		if source == nil || source.UserID != req.UserID {
			return ErrSourceAccountNotFound
		}
		if destination == nil {
			return ErrDestinationAccountNotFound
		}
		if source.Currency != destination.Currency {
			return ErrCurrencyMismatch
		}

		fromBefore := source.Balance
		if fromBefore.LessThan(req.Amount) {
			return ErrInsufficientFunds
		}

		fraudLog, err := s.evaluateRisk(ctx, tx, source, req.UserID, req.Amount, models.TransactionTypeTransfer)
		if err != nil {
			return err
		}
		if fraudLog != nil {
			if err := tx.Create(fraudLog).Error; err != nil {
				return fmt.Errorf("write fraud log: %w", err)
			}
			blocked = &blockedOperation{log: fraudLog, accountNumber: source.Number}
			return nil
		}

		debitDescription, creditDescription := req.Description, req.Description
		if debitDescription == "" {
			debitDescription = "Transfer to " + destination.Number
			creditDescription = "Transfer from " + source.Number
		}

		toBefore := destination.Balance
		result.FromBalance = fromBefore.Sub(req.Amount)
		result.ToBalance = toBefore.Add(req.Amount)
		if err := checkBalanceLimit(result.ToBalance); err != nil {
			return err
		}

		if err := applyMovement(tx, source, models.TransactionTypeTransfer, models.DirectionDebit,
			req.Amount, fromBefore, result.FromBalance, debitDescription); err != nil {
			return err
		}
		return applyMovement(tx, destination, models.TransactionTypeTransfer, models.DirectionCredit,
			req.Amount, toBefore, result.ToBalance, creditDescription)
	})
	if err != nil {
		return TransferResult{}, err
	}
	if blocked != nil {
		s.afterBlock(ctx, blocked)
		return TransferResult{}, ErrFraudBlocked
	}
	return result, nil
}

// GetHistory возвращает операции по счету или по всем открытым счетам пользователя,
// новые первыми
func (s *LedgerService) GetHistory(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}

	var id uuid.UUID
	if accountID != "" {
		parsed, err := uuid.Parse(accountID)
		if err != nil {
			return nil, &ValidationError{Message: "invalid accountId format"}
		}
		id = parsed
	}

	db := s.db.DB.WithContext(ctx)
	query := db.Model(&models.Transaction{})

	if accountID != "" {
		var owned int64
		if err := db.Model(&models.Account{}).
			Where("id = ? AND user_id = ? AND status <> ?", id.String(), userID, models.AccountStatusClosed).
			Count(&owned).Error; err != nil {
			return nil, fmt.Errorf("check account owner: %w", err)
		}
		if owned == 0 {
			return nil, ErrForbidden
		}
		query = query.Where("account_id = ?", id.String())
	} else {
		owned := db.Model(&models.Account{}).
			Select("id").
			Where("user_id = ? AND status <> ?", userID, models.AccountStatusClosed)
		query = query.Where("account_id IN (?)", owned)
	}

	transactions := []models.Transaction{}
	if err := query.Order("created_at DESC").Order("seq DESC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return transactions, nil
}

// ListFraudLogs возвращает заблокированные операции пользователя, новые первыми
func (s *LedgerService) ListFraudLogs(ctx context.Context, userID string) ([]models.FraudLog, error) {
	if err := checkCaller(userID); err != nil {
		return nil, err
	}

	logs := []models.FraudLog{}
	if err := s.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load fraud logs: %w", err)
	}
	return logs, nil
}

// evaluateRisk вызывает скорер и возвращает FraudLog, если операцию надо заблокировать.
// Вызывается под блокировкой строки счета, до любых изменений.
func (s *LedgerService) evaluateRisk(ctx context.Context, tx *gorm.DB, account *models.Account, userID string, amount decimal.Decimal, kind models.TransactionType) (*models.FraudLog, error) {
	now := s.now()

	var frequency int64
	if err := tx.Model(&models.Transaction{}).
		Where("account_id = ? AND created_at >= ?", account.ID, now.Add(-s.policy.FrequencyWindow)).
		Count(&frequency).Error; err != nil {
		return nil, fmt.Errorf("count recent transactions: %w", err)
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
	defer cancel()

	verdict, err := s.scorer.Score(scoreCtx, FraudFeatures{
		UserID:     userID,
		Amount:     amount,
		AccountAge: account.AgeInDays(now),
		Frequency:  frequency,
	})
	if err != nil {
		if s.policy.FailOpen {
			utils.GetMetrics().RecordScorerError(true)
			utils.LogError("fraud scorer unavailable, operation allowed by fail-open policy",
				"account_id", account.ID, "type", kind, "error", err)
			return nil, nil
		}
		utils.GetMetrics().RecordScorerError(false)
		if errors.Is(err, ErrFraudCheckUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFraudCheckUnavailable, err)
	}

	if !s.policy.Blocks(verdict) {
		return nil, nil
	}
	return &models.FraudLog{
		UserID:    userID,
		AccountID: account.ID,
		Amount:    amount,
		Type:      kind,
		Score:     verdict.Score,
		Reason:    fmt.Sprintf("flagged by fraud scorer with score %v", verdict.Score),
	}, nil
}

// afterBlock учитывает блокировку и уведомляет владельца. Ошибка уведомления
// только логируется.
func (s *LedgerService) afterBlock(ctx context.Context, blocked *blockedOperation) {
	utils.GetMetrics().RecordFraudBlock()
	utils.Logger().Warn("transaction blocked by fraud check",
		"user_id", blocked.log.UserID,
		"account_id", blocked.log.AccountID,
		"type", blocked.log.Type,
		"amount", blocked.log.Amount.StringFixed(2),
		"score", blocked.log.Score,
	)

	var user models.User
	if err := s.db.DB.WithContext(ctx).First(&user, "id = ?", blocked.log.UserID).Error; err != nil {
		utils.LogError("failed to load user for fraud alert", "user_id", blocked.log.UserID, "error", err)
		return
	}

	alert := FraudAlert{
		Email:         user.Email,
		FullName:      user.FullName,
		AccountNumber: blocked.accountNumber,
		Amount:        blocked.log.Amount,
		Type:          string(blocked.log.Type),
		Score:         blocked.log.Score,
		At:            blocked.log.CreatedAt,
	}
	if err := s.notifier.NotifyFraudBlocked(ctx, alert); err != nil {
		utils.LogError("failed to send fraud alert", "user_id", user.ID, "error", err)
	}
}

// lockOwnedAccount загружает активный счет владельца с блокировкой строки
func lockOwnedAccount(tx *gorm.DB, accountID, userID string) (*models.Account, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	var account models.Account
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ? AND status = ?", id.String(), userID, models.AccountStatusActive).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	return &account, nil
}

// applyMovement меняет баланс и пишет парную запись в журнал
func applyMovement(tx *gorm.DB, account *models.Account, kind models.TransactionType, direction models.Direction, amount, before, after decimal.Decimal, description string) error {
	if err := tx.Model(account).Update("balance", after).Error; err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	account.Balance = after

	entry := &models.Transaction{
		AccountID:     account.ID,
		Type:          kind,
		Direction:     direction,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	return nil
}

// validateAmount сумма больше нуля, меньше maxMoney и не больше двух знаков после запятой
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(2)) || amount.GreaterThanOrEqual(maxMoney) {
		return ErrInvalidAmount
	}
	return nil
}

// checkBalanceLimit баланс после зачисления должен помещаться в колонку
func checkBalanceLimit(balance decimal.Decimal) error {
	if balance.GreaterThanOrEqual(maxMoney) {
		return ErrBalanceLimitExceeded
	}
	return nil
}

// logOutcome пишет итог операции. Отказы по бизнес-правилам идут отдельно от сбоев.
func logOutcome(operation string, start time.Time, err error) {
	if err != nil && IsRejection(err) {
		utils.LogRejectedOperation(operation, start, err)
		return
	}
	utils.LogOperation(operation, start, err)
}

// checkCaller отсекает пустой или невалидный идентификатор пользователя
func checkCaller(userID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if _, err := uuid.Parse(userID); err != nil {
		return ErrNotAuthenticated
	}
	return nil
}
