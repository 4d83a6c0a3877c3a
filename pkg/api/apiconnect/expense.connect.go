package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService service.
const ExpenseServiceName = "splitbill.v1.ExpenseService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// ExpenseServiceAddExpenseProcedure is the fully-qualified name of the ExpenseService's AddExpense RPC.
	ExpenseServiceAddExpenseProcedure = "/splitbill.v1.ExpenseService/AddExpense"
	// ExpenseServiceUpdateExpenseProcedure is the fully-qualified name of the ExpenseService's UpdateExpense RPC.
	ExpenseServiceUpdateExpenseProcedure = "/splitbill.v1.ExpenseService/UpdateExpense"
	// ExpenseServiceRemoveExpenseProcedure is the fully-qualified name of the ExpenseService's RemoveExpense RPC.
	ExpenseServiceRemoveExpenseProcedure = "/splitbill.v1.ExpenseService/RemoveExpense"
	// ExpenseServiceListExpensesProcedure is the fully-qualified name of the ExpenseService's ListExpenses RPC.
	ExpenseServiceListExpensesProcedure = "/splitbill.v1.ExpenseService/ListExpenses"
	// ExpenseServiceGetExpenseSharesProcedure is the fully-qualified name of the ExpenseService's GetExpenseShares RPC.
	ExpenseServiceGetExpenseSharesProcedure = "/splitbill.v1.ExpenseService/GetExpenseShares"
)

// ExpenseServiceClient is a client for the splitbill.v1.ExpenseService service.
type ExpenseServiceClient interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	RemoveExpense(context.Context, *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetExpenseShares(context.Context, *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error)
}

// NewExpenseServiceClient constructs a client for the splitbill.v1.ExpenseService service. By default it
// uses the Connect protocol with the JSON codec.
//
// The URL supplied here should be the base URL for the Connect server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &expenseServiceClient{
		addExpense: connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceAddExpenseProcedure,
			opts...,
		),
		updateExpense: connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceUpdateExpenseProcedure,
			opts...,
		),
		removeExpense: connect.NewClient[api.RemoveExpenseRequest, api.RemoveExpenseResponse](
			httpClient,
			baseURL+ExpenseServiceRemoveExpenseProcedure,
			opts...,
		),
		listExpenses: connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](
			httpClient,
			baseURL+ExpenseServiceListExpensesProcedure,
			opts...,
		),
		getExpenseShares: connect.NewClient[api.GetExpenseSharesRequest, api.GetExpenseSharesResponse](
			httpClient,
			baseURL+ExpenseServiceGetExpenseSharesProcedure,
			opts...,
		),
	}
}

// expenseServiceClient implements ExpenseServiceClient.
type expenseServiceClient struct {
	addExpense *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	updateExpense *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	removeExpense *connect.Client[api.RemoveExpenseRequest, api.RemoveExpenseResponse]
	listExpenses *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	getExpenseShares *connect.Client[api.GetExpenseSharesRequest, api.GetExpenseSharesResponse]
}

// AddExpense calls splitbill.v1.ExpenseService.AddExpense.
func (c *expenseServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

// UpdateExpense calls splitbill.v1.ExpenseService.UpdateExpense.
func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

// RemoveExpense calls splitbill.v1.ExpenseService.RemoveExpense.
func (c *expenseServiceClient) RemoveExpense(ctx context.Context, req *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error) {
	return c.removeExpense.CallUnary(ctx, req)
}

// ListExpenses calls splitbill.v1.ExpenseService.ListExpenses.
func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

// GetExpenseShares calls splitbill.v1.ExpenseService.GetExpenseShares.
func (c *expenseServiceClient) GetExpenseShares(ctx context.Context, req *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error) {
	return c.getExpenseShares.CallUnary(ctx, req)
}

// ExpenseServiceHandler is an implementation of the splitbill.v1.ExpenseService service.
type ExpenseServiceHandler interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	RemoveExpense(context.Context, *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	GetExpenseShares(context.Context, *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	expenseServiceAddExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceAddExpenseProcedure,
		svc.AddExpense,
		opts...,
	)
	expenseServiceUpdateExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceUpdateExpenseProcedure,
		svc.UpdateExpense,
		opts...,
	)
	expenseServiceRemoveExpenseHandler := connect.NewUnaryHandler(
		ExpenseServiceRemoveExpenseProcedure,
		svc.RemoveExpense,
		opts...,
	)
	expenseServiceListExpensesHandler := connect.NewUnaryHandler(
		ExpenseServiceListExpensesProcedure,
		svc.ListExpenses,
		opts...,
	)
	expenseServiceGetExpenseSharesHandler := connect.NewUnaryHandler(
		ExpenseServiceGetExpenseSharesProcedure,
		svc.GetExpenseShares,
		opts...,
	)
	return "/splitbill.v1.ExpenseService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExpenseServiceAddExpenseProcedure:
			expenseServiceAddExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceUpdateExpenseProcedure:
			expenseServiceUpdateExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceRemoveExpenseProcedure:
			expenseServiceRemoveExpenseHandler.ServeHTTP(w, r)
		case ExpenseServiceListExpensesProcedure:
			expenseServiceListExpensesHandler.ServeHTTP(w, r)
		case ExpenseServiceGetExpenseSharesProcedure:
			expenseServiceGetExpenseSharesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedExpenseServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedExpenseServiceHandler struct{}

func (UnimplementedExpenseServiceHandler) AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.ExpenseService.AddExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.ExpenseService.UpdateExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) RemoveExpense(context.Context, *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.ExpenseService.RemoveExpense is not implemented"))
}

func (UnimplementedExpenseServiceHandler) ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.ExpenseService.ListExpenses is not implemented"))
}

func (UnimplementedExpenseServiceHandler) GetExpenseShares(context.Context, *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.ExpenseService.GetExpenseShares is not implemented"))
}
