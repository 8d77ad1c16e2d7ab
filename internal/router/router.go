package router

import (
	"net/http"

	"github.com/kaizencycle/mobius-browser-shell/internal/auth"
	"github.com/kaizencycle/mobius-browser-shell/internal/learning"
	"github.com/kaizencycle/mobius-browser-shell/internal/middleware"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
	"github.com/kaizencycle/mobius-browser-shell/internal/wallet"
)

// New returns an http.Handler that serves the API under /api/v1.
// Wallet and completion routes require a bearer token; admin routes
// additionally require the admin role.
func New(authHandler *auth.Handler, walletHandler *wallet.Handler, learningHandler *learning.Handler, tokens middleware.TokenValidator) http.Handler {
	mux := http.NewServeMux()
	const base = "/api/v1"

	user := middleware.RequireUser(tokens)
	admin := func(h http.HandlerFunc) http.Handler {
		return user(middleware.RequireRole(models.RoleAdmin)(h))
	}

	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.HandleFunc("GET "+base+"/mic/health", walletHandler.Health)
	mux.Handle("GET "+base+"/mic/wallet", user(http.HandlerFunc(walletHandler.GetWallet)))
	mux.Handle("GET "+base+"/mic/events", user(http.HandlerFunc(walletHandler.ListEvents)))
	mux.Handle("POST "+base+"/mic/earn", user(http.HandlerFunc(walletHandler.Earn)))
	mux.Handle("GET "+base+"/mic/ledger", user(http.HandlerFunc(walletHandler.GetLedger)))
	mux.Handle("GET "+base+"/mic/admin/ledger-stats", admin(walletHandler.LedgerStats))
	mux.Handle("POST "+base+"/mic/admin/corrections", admin(walletHandler.CreateCorrection))

	mux.HandleFunc("GET "+base+"/learning/modules", learningHandler.ListModules)
	mux.HandleFunc("GET "+base+"/learning/modules/{id}", learningHandler.GetModule)
	mux.HandleFunc("POST "+base+"/learning/calculate-reward", learningHandler.CalculateReward)
	mux.Handle("POST "+base+"/learning/complete", user(http.HandlerFunc(learningHandler.Complete)))
	mux.HandleFunc("GET "+base+"/learning/health", learningHandler.Health)

	return mux
}
