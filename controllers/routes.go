package controllers

import (
	"net/http"

	"bankly/middleware"
	"bankly/utils"

	"github.com/gorilla/mux"
)

// RouterDeps зависимости основного API
type RouterDeps struct {
	Users       UserOperations
	Accounts    AccountOperations
	Ledger      LedgerOperations
	Tokens      middleware.TokenParser
	AuthLimiter *utils.RateLimiter
}

// NewRouter собирает маршруты /api
func NewRouter(deps RouterDeps) http.Handler {
	authController := NewAuthController(deps.Users)
	accountController := NewAccountController(deps.Accounts)
	transactionController := NewTransactionController(deps.Ledger)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.LoggingMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	api := router.PathPrefix("/api").Subrouter()

	// Публичные маршруты, с ограничением частоты
	public := api.PathPrefix("/users").Subrouter()
	if deps.AuthLimiter != nil {
		public.Use(middleware.RateLimitMiddleware(deps.AuthLimiter))
	}
	public.HandleFunc("/signup", authController.SignUp).Methods(http.MethodPost)
	public.HandleFunc("/login", authController.SignIn).Methods(http.MethodPost)

	// Защищенные маршруты
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(deps.Tokens))

	protected.HandleFunc("/users/me", authController.Me).Methods(http.MethodGet)
	protected.HandleFunc("/users/update", authController.Update).Methods(http.MethodPut)
	protected.HandleFunc("/users/delete", authController.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/accounts/create", accountController.Create).Methods(http.MethodPost)
	protected.HandleFunc("/accounts", accountController.List).Methods(http.MethodGet)
	protected.HandleFunc("/accounts/update", accountController.Update).Methods(http.MethodPut)
	protected.HandleFunc("/accounts/close", accountController.Close).Methods(http.MethodDelete)
	protected.HandleFunc("/accounts/{id}", accountController.Get).Methods(http.MethodGet)
	protected.HandleFunc("/accounts/{id}/pin", accountController.SetPin).Methods(http.MethodPut)

	protected.HandleFunc("/transactions/deposit/{accountId}", transactionController.Deposit).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/withdraw/{accountId}", transactionController.Withdraw).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/transfer", transactionController.Transfer).Methods(http.MethodPost)
	protected.HandleFunc("/transactions", transactionController.History).Methods(http.MethodGet)

	protected.HandleFunc("/fraud-logs", transactionController.FraudLogs).Methods(http.MethodGet)

	// CORS снаружи роутера: preflight OPTIONS не совпадает ни с одним маршрутом
	return middleware.CORSMiddleware(router)
}
