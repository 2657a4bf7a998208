package service

import (
	"connectrpc.com/connect"
)

// AuthClient calls settleup.v1.AuthService.
type AuthClient struct {
	Register *connect.Client[RegisterRequest, RegisterResponse]
	Login    *connect.Client[LoginRequest, LoginResponse]
}

// NewAuthClient creates an AuthClient for the server at baseURL.
func NewAuthClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return &AuthClient{
		Register: connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		Login:    connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
	}
}

// LedgerClient calls settleup.v1.LedgerService.
type LedgerClient struct {
	CreateGroup   *connect.Client[CreateGroupRequest, CreateGroupResponse]
	AddMember     *connect.Client[AddMemberRequest, AddMemberResponse]
	AddPerson     *connect.Client[AddPersonRequest, AddPersonResponse]
	RemovePerson  *connect.Client[RemovePersonRequest, RemovePersonResponse]
	CreateExpense *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	DeleteExpense *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	GetLedger     *connect.Client[GetLedgerRequest, GetLedgerResponse]
}

// NewLedgerClient creates a LedgerClient for the server at baseURL.
func NewLedgerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return &LedgerClient{
		CreateGroup:   connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+LedgerServiceCreateGroupProcedure, opts...),
		AddMember:     connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+LedgerServiceAddMemberProcedure, opts...),
		AddPerson:     connect.NewClient[AddPersonRequest, AddPersonResponse](httpClient, baseURL+LedgerServiceAddPersonProcedure, opts...),
		RemovePerson:  connect.NewClient[RemovePersonRequest, RemovePersonResponse](httpClient, baseURL+LedgerServiceRemovePersonProcedure, opts...),
		CreateExpense: connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+LedgerServiceCreateExpenseProcedure, opts...),
		DeleteExpense: connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		GetLedger:     connect.NewClient[GetLedgerRequest, GetLedgerResponse](httpClient, baseURL+LedgerServiceGetLedgerProcedure, opts...),
	}
}

// SettlementClient calls settleup.v1.SettlementService.
type SettlementClient struct {
	ListSettlements *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
	Recompute       *connect.Client[RecomputeRequest, RecomputeResponse]
	Settle          *connect.Client[SettleRequest, SettleResponse]
	SettleAll       *connect.Client[SettleAllRequest, SettleAllResponse]
	GetBalances     *connect.Client[GetBalancesRequest, GetBalancesResponse]
}

// NewSettlementClient creates a SettlementClient for the server at baseURL.
func NewSettlementClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementClient {
	opts = append([]connect.ClientOption{connect.WithCodec(Codec)}, opts...)
	return &SettlementClient{
		ListSettlements: connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+SettlementServiceListSettlementsProcedure, opts...),
		Recompute:       connect.NewClient[RecomputeRequest, RecomputeResponse](httpClient, baseURL+SettlementServiceRecomputeProcedure, opts...),
		Settle:          connect.NewClient[SettleRequest, SettleResponse](httpClient, baseURL+SettlementServiceSettleProcedure, opts...),
		SettleAll:       connect.NewClient[SettleAllRequest, SettleAllResponse](httpClient, baseURL+SettlementServiceSettleAllProcedure, opts...),
		GetBalances:     connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+SettlementServiceGetBalancesProcedure, opts...),
	}
}
