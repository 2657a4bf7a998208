package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage"
)

// Deps are what the services need to serve requests.
type Deps struct {
	Store  storage.Store
	Engine SettlementEngine
	JWT    *auth.JWTManager
	Logger *slog.Logger
}

// Mount registers all settleup services on mux. Auth calls are public;
// everything else requires a bearer token.
func Mount(mux *http.ServeMux, d Deps) {
	logged := connect.WithInterceptors(middleware.LoggingInterceptor())
	authed := connect.WithInterceptors(middleware.RequireAuth(d.JWT), middleware.LoggingInterceptor())

	authSvc := NewAuthService(auth.NewPasswordAuthenticator(d.Store), d.JWT, d.Logger)
	mux.Handle(NewAuthServiceHandler(authSvc, logged))
	mux.Handle(NewLedgerServiceHandler(NewLedgerService(d.Store, d.Engine), authed))
	mux.Handle(NewSettlementServiceHandler(NewSettlementService(d.Engine), authed))
}
