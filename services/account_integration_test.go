//go:build integration

package services

import (
	"context"
	"strings"
	"testing"

	"bankly/models"
	"bankly/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateAccountDefaults(t *testing.T) {
	user := createUser(t)
	account := createAccount(t, user.ID, "")

	assert.True(t, strings.HasPrefix(account.Number, "BANK-"))
	assert.Len(t, account.Number, len("BANK-")+10)
	assert.Equal(t, models.AccountTypeSavings, account.Type)
	assert.Equal(t, "NGN", account.Currency)
	assert.Equal(t, models.AccountStatusActive, account.Status)
	assert.True(t, account.Balance.IsZero())
	assert.False(t, account.HasPin())
}

func TestCreateAccountNormalizesCurrency(t *testing.T) {
	user := createUser(t)
	account, err := NewAccountService(testDB).Create(context.Background(), CreateAccountDTO{
		UserID:      user.ID,
		AccountType: "current",
		Currency:    "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", account.Currency)
	assert.Equal(t, models.AccountTypeCurrent, account.Type)
}

func TestCreateAccountForUnknownUser(t *testing.T) {
	_, err := NewAccountService(testDB).Create(context.Background(), CreateAccountDTO{UserID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListAndGetHideForeignAndClosedAccounts(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(testDB)
	owner := createUser(t)
	stranger := createUser(t)
	first := createAccount(t, owner.ID, "")
	second := createAccount(t, owner.ID, "")

	accounts, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first.ID, accounts[0].ID)

	_, err = svc.Get(ctx, stranger.ID, first.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, svc.Close(ctx, owner.ID, second.ID))

	accounts, err = svc.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	_, err = svc.Get(ctx, owner.ID, second.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCloseTwiceReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(testDB)
	user := createUser(t)
	account := createAccount(t, user.ID, "")
	fund(t, account, "25")

	require.NoError(t, svc.Close(ctx, user.ID, account.ID))
	assert.ErrorIs(t, svc.Close(ctx, user.ID, account.ID), ErrAccountNotFound)

	var closed models.Account
	require.NoError(t, testDB.DB.First(&closed, "id = ?", account.ID).Error)
	assert.Equal(t, models.AccountStatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	ledger := NewLedgerService(testDB, legitScorer(), DefaultFraudPolicy(), nil)
	_, err := ledger.Deposit(ctx, TransactionRequest{AccountID: account.ID, UserID: user.ID, Amount: money("1")})
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = ledger.Withdraw(ctx, TransactionRequest{AccountID: account.ID, UserID: user.ID, Amount: money("1")})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(testDB)
	user := createUser(t)
	account := createAccount(t, user.ID, "")

	updated, err := svc.Update(ctx, user.ID, account.ID, AccountUpdate{
		Nickname:    strPtr("  Rainy day  "),
		AccountType: strPtr("current"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rainy day", updated.Nickname)
	assert.Equal(t, models.AccountTypeCurrent, updated.Type)

	_, err = svc.Update(ctx, user.ID, account.ID, AccountUpdate{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	_, err = svc.Update(ctx, user.ID, account.ID, AccountUpdate{Status: strPtr("closed")})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	updated, err = svc.Update(ctx, user.ID, account.ID, AccountUpdate{Status: strPtr("inactive")})
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusInactive, updated.Status)

	// Неактивный счет виден, но деньги по нему не двигаются
	ledger := NewLedgerService(testDB, legitScorer(), DefaultFraudPolicy(), nil)
	_, err = ledger.Deposit(ctx, TransactionRequest{AccountID: account.ID, UserID: user.ID, Amount: money("1")})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetPin(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(testDB)
	user := createUser(t)
	account := createAccount(t, user.ID, "")

	for _, pin := range []string{"", "123", "12345", "12a4", "١٢٣٤"} {
		assert.ErrorIs(t, svc.SetPin(ctx, user.ID, account.ID, pin), ErrInvalidPin, pin)
	}

	require.NoError(t, svc.SetPin(ctx, user.ID, account.ID, "0420"))

	stored, err := svc.Get(ctx, user.ID, account.ID)
	require.NoError(t, err)
	require.True(t, stored.HasPin())
	assert.NotEqual(t, "0420", *stored.PinHash)
	assert.True(t, utils.VerifyPIN("0420", *stored.PinHash))

	assert.ErrorIs(t, svc.SetPin(ctx, createUser(t).ID, account.ID, "1111"), ErrAccountNotFound)
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenIssuer("integration-secret", 1)
	svc := NewUserService(testDB, tokens)
	email := uuid.NewString() + "@Example.com"

	result, err := svc.SignUp(ctx, SignUpRequest{
		FullName:    "Ada Obi",
		PhoneNumber: "+2348012345678",
		Email:       email,
		Password:    "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEqual(t, "secret123", result.User.Password)

	claims, err := tokens.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	_, err = svc.SignUp(ctx, SignUpRequest{
		FullName:    "Someone Else",
		PhoneNumber: "+2348012345679",
		Email:       strings.ToUpper(email),
		Password:    "secret456",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	signedIn, err := svc.SignIn(ctx, SignInRequest{Email: strings.ToLower(email), Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, signedIn.User.ID)

	_, err = svc.SignIn(ctx, SignInRequest{Email: email, Password: "wrong-pass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, SignInRequest{Email: "nobody-" + email, Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := svc.Me(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", me.FullName)

	_, err = svc.Me(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(testDB, NewTokenIssuer("integration-secret", 1))
	user := createUser(t)

	updated, err := svc.Update(ctx, user.ID, UserUpdate{FullName: strPtr("  Chidi Obi "), PhoneNumber: strPtr("+2348099999999")})
	require.NoError(t, err)
	assert.Equal(t, "Chidi Obi", updated.FullName)
	assert.Equal(t, "+2348099999999", updated.PhoneNumber)
	assert.Equal(t, user.Email, updated.Email)

	_, err = svc.Update(ctx, user.ID, UserUpdate{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	_, err = svc.Update(ctx, user.ID, UserUpdate{FullName: strPtr("  A ")})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Update(ctx, uuid.NewString(), UserUpdate{FullName: strPtr("Nobody Here")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserHidesProfileAndClosesAccounts(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(testDB, NewTokenIssuer("integration-secret", 1))
	email := uuid.NewString() + "@example.com"

	result, err := svc.SignUp(ctx, SignUpRequest{
		FullName:    "Ngozi Eze",
		PhoneNumber: "+2348012345670",
		Email:       email,
		Password:    "secret123",
	})
	require.NoError(t, err)
	userID := result.User.ID
	account := createAccount(t, userID, "")
	fund(t, account, "40")

	require.NoError(t, svc.Delete(ctx, userID))
	assert.ErrorIs(t, svc.Delete(ctx, userID), ErrUserNotFound)

	_, err = svc.Me(ctx, userID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.SignIn(ctx, SignInRequest{Email: email, Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Update(ctx, userID, UserUpdate{FullName: strPtr("Ghost User")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Счета закрыты, деньги по ним не двигаются, история сохранена
	var closed models.Account
	require.NoError(t, testDB.DB.First(&closed, "id = ?", account.ID).Error)
	assert.Equal(t, models.AccountStatusClosed, closed.Status)
	assert.Equal(t, "40.00", closed.Balance.StringFixed(2))
	assert.Equal(t, int64(1), countTransactions(t, account.ID))

	ledger := NewLedgerService(testDB, legitScorer(), DefaultFraudPolicy(), nil)
	_, err = ledger.Withdraw(ctx, TransactionRequest{AccountID: account.ID, UserID: userID, Amount: money("1")})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = NewAccountService(testDB).Create(ctx, CreateAccountDTO{UserID: userID})
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Email удаленного пользователя снова свободен
	again, err := svc.SignUp(ctx, SignUpRequest{
		FullName:    "Ngozi Eze",
		PhoneNumber: "+2348012345670",
		Email:       strings.ToUpper(email),
		Password:    "secret456",
	})
	require.NoError(t, err)
	assert.NotEqual(t, userID, again.User.ID)
}
