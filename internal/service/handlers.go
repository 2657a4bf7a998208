package service

import (
	"net/http"

	"connectrpc.com/connect"
)

const (
	AuthServiceName       = "settleup.v1.AuthService"
	LedgerServiceName     = "settleup.v1.LedgerService"
	SettlementServiceName = "settleup.v1.SettlementService"
)

// Fully-qualified procedure names.
const (
	AuthServiceRegisterProcedure = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure    = "/" + AuthServiceName + "/Login"

	LedgerServiceCreateGroupProcedure   = "/" + LedgerServiceName + "/CreateGroup"
	LedgerServiceAddMemberProcedure     = "/" + LedgerServiceName + "/AddMember"
	LedgerServiceAddPersonProcedure     = "/" + LedgerServiceName + "/AddPerson"
	LedgerServiceRemovePersonProcedure  = "/" + LedgerServiceName + "/RemovePerson"
	LedgerServiceCreateExpenseProcedure = "/" + LedgerServiceName + "/CreateExpense"
	LedgerServiceDeleteExpenseProcedure = "/" + LedgerServiceName + "/DeleteExpense"
	LedgerServiceGetLedgerProcedure     = "/" + LedgerServiceName + "/GetLedger"

	SettlementServiceListSettlementsProcedure = "/" + SettlementServiceName + "/ListSettlements"
	SettlementServiceRecomputeProcedure       = "/" + SettlementServiceName + "/Recompute"
	SettlementServiceSettleProcedure          = "/" + SettlementServiceName + "/Settle"
	SettlementServiceSettleAllProcedure       = "/" + SettlementServiceName + "/SettleAll"
	SettlementServiceGetBalancesProcedure     = "/" + SettlementServiceName + "/GetBalances"
)

// NewAuthServiceHandler returns the path prefix and handler for svc.
// The JSON codec is always registered.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...))
	return "/" + AuthServiceName + "/", mux
}

// NewLedgerServiceHandler returns the path prefix and handler for svc.
func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceCreateGroupProcedure, connect.NewUnaryHandler(LedgerServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(LedgerServiceAddMemberProcedure, connect.NewUnaryHandler(LedgerServiceAddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(LedgerServiceAddPersonProcedure, connect.NewUnaryHandler(LedgerServiceAddPersonProcedure, svc.AddPerson, opts...))
	mux.Handle(LedgerServiceRemovePersonProcedure, connect.NewUnaryHandler(LedgerServiceRemovePersonProcedure, svc.RemovePerson, opts...))
	mux.Handle(LedgerServiceCreateExpenseProcedure, connect.NewUnaryHandler(LedgerServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(LedgerServiceDeleteExpenseProcedure, connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(LedgerServiceGetLedgerProcedure, connect.NewUnaryHandler(LedgerServiceGetLedgerProcedure, svc.GetLedger, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// NewSettlementServiceHandler returns the path prefix and handler for svc.
func NewSettlementServiceHandler(svc *SettlementService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	mux := http.NewServeMux()
	mux.Handle(SettlementServiceListSettlementsProcedure, connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...))
	mux.Handle(SettlementServiceRecomputeProcedure, connect.NewUnaryHandler(SettlementServiceRecomputeProcedure, svc.Recompute, opts...))
	mux.Handle(SettlementServiceSettleProcedure, connect.NewUnaryHandler(SettlementServiceSettleProcedure, svc.Settle, opts...))
	mux.Handle(SettlementServiceSettleAllProcedure, connect.NewUnaryHandler(SettlementServiceSettleAllProcedure, svc.SettleAll, opts...))
	mux.Handle(SettlementServiceGetBalancesProcedure, connect.NewUnaryHandler(SettlementServiceGetBalancesProcedure, svc.GetBalances, opts...))
	return "/" + SettlementServiceName + "/", mux
}

func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec)}, opts...)
}
