package app

import (
	"net/http"

	"github.com/cherop/pactpay/internal/handler"
	"github.com/cherop/pactpay/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)
	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
		Mailer:       app.Mailer,
		Config:       &app.Config,
	})
	userHandler := handler.NewUserHandler(&handler.UserHandler{
		UserRepo:   app.DB.User(),
		ErrHandler: app.errorHandler,
	})
	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		Ledger:     app.Ledger,
		Cache:      app.Cache,
		ErrHandler: app.errorHandler,
	})
	contractHandler := handler.NewContractHandler(&handler.ContractHandler{
		ContractRepo: app.DB.Contract(),
		ErrHandler:   app.errorHandler,
	})
	activityHandler := handler.NewActivityHandler(&handler.ActivityHandler{
		ActivityRepo: app.DB.Activity(),
		ErrHandler:   app.errorHandler,
	})
	disputeHandler := handler.NewDisputeHandler(&handler.DisputeHandler{
		DisputeRepo:  app.DB.Dispute(),
		ContractRepo: app.DB.Contract(),
		FileUploader: app.FileUploader,
		ErrHandler:   app.errorHandler,
	})

	mux.HandleFunc("GET /health", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	requireAuth := middlewareRepo.RequireAuthenticatedUser

	mux.Handle("GET /users/{id}", requireAuth(http.HandlerFunc(userHandler.HandleUserDetails)))

	mux.Handle("GET /wallet", requireAuth(http.HandlerFunc(walletHandler.HandleWalletDetails)))
	mux.Handle("POST /wallet/deposit", requireAuth(http.HandlerFunc(walletHandler.HandleDeposit)))
	mux.Handle("POST /transfers", requireAuth(http.HandlerFunc(walletHandler.HandleTransfer)))
	mux.Handle("GET /activities", requireAuth(http.HandlerFunc(activityHandler.HandleUserActivities)))

	mux.Handle("GET /transactions", requireAuth(http.HandlerFunc(walletHandler.HandleTransactionHistory)))

	mux.Handle("POST /contracts", requireAuth(http.HandlerFunc(contractHandler.HandleContractCreate)))
	mux.Handle("GET /contracts", requireAuth(http.HandlerFunc(contractHandler.HandleUserContracts)))
	mux.Handle("GET /contracts/{id}", requireAuth(http.HandlerFunc(contractHandler.HandleContractDetails)))
	mux.Handle("PATCH /contracts/{id}", requireAuth(http.HandlerFunc(contractHandler.HandleContractUpdate)))
	mux.Handle("DELETE /contracts/{id}", requireAuth(http.HandlerFunc(contractHandler.HandleContractDelete)))
	mux.Handle("GET /contracts/{id}/disputes", requireAuth(http.HandlerFunc(disputeHandler.HandleContractDisputes)))

	mux.Handle("POST /disputes", requireAuth(http.HandlerFunc(disputeHandler.HandleDisputeCreate)))
	mux.Handle("GET /disputes", requireAuth(http.HandlerFunc(disputeHandler.HandleUserDisputes)))
	mux.Handle("GET /disputes/{id}", requireAuth(http.HandlerFunc(disputeHandler.HandleDisputeDetails)))
	mux.Handle("PATCH /disputes/{id}", requireAuth(http.HandlerFunc(disputeHandler.HandleDisputeUpdate)))
	mux.Handle("POST /disputes/{id}/resolve", requireAuth(http.HandlerFunc(disputeHandler.HandleDisputeResolve)))
	mux.Handle("DELETE /disputes/{id}", requireAuth(http.HandlerFunc(disputeHandler.HandleDisputeDelete)))
	mux.Handle("POST /disputes/{id}/evidence", requireAuth(http.HandlerFunc(disputeHandler.HandleDisputeEvidence)))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
