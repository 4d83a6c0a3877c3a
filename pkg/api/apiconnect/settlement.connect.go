package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService service.
const SettlementServiceName = "splitbill.v1.SettlementService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// SettlementServiceGetBalancesProcedure is the fully-qualified name of the SettlementService's GetBalances RPC.
	SettlementServiceGetBalancesProcedure = "/splitbill.v1.SettlementService/GetBalances"
)

// SettlementServiceClient is a client for the splitbill.v1.SettlementService service.
type SettlementServiceClient interface {
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewSettlementServiceClient constructs a client for the splitbill.v1.SettlementService service. By default it
// uses the Connect protocol with the JSON codec.
//
// The URL supplied here should be the base URL for the Connect server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &settlementServiceClient{
		getBalances: connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](
			httpClient,
			baseURL+SettlementServiceGetBalancesProcedure,
			opts...,
		),
	}
}

// settlementServiceClient implements SettlementServiceClient.
type settlementServiceClient struct {
	getBalances *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
}

// GetBalances calls splitbill.v1.SettlementService.GetBalances.
func (c *settlementServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

// SettlementServiceHandler is an implementation of the splitbill.v1.SettlementService service.
type SettlementServiceHandler interface {
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewSettlementServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	settlementServiceGetBalancesHandler := connect.NewUnaryHandler(
		SettlementServiceGetBalancesProcedure,
		svc.GetBalances,
		opts...,
	)
	return "/splitbill.v1.SettlementService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SettlementServiceGetBalancesProcedure:
			settlementServiceGetBalancesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedSettlementServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSettlementServiceHandler struct{}

func (UnimplementedSettlementServiceHandler) GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.SettlementService.GetBalances is not implemented"))
}
