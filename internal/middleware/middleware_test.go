package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/pkg/api"
	"github.com/mmynk/splitbill/pkg/api/apiconnect"
)

// whoami echoes the caller back as a single balance row.
type whoami struct {
	apiconnect.UnimplementedSettlementServiceHandler
}

func (whoami) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	if req.Msg.BillID == "boom" {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no such bill"))
	}
	caller, ok := CallerFrom(ctx)
	if !ok {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("no caller"))
	}
	return connect.NewResponse(&api.GetBalancesResponse{
		Balances: []api.Balance{{Identity: caller.UserID, DisplayName: caller.DisplayName}},
	}), nil
}

func newClient(t *testing.T, interceptors ...connect.Interceptor) apiconnect.SettlementServiceClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewSettlementServiceHandler(whoami{}, connect.WithInterceptors(interceptors...)))
	server := httptest.NewServer(LogRequests(CORS(mux)))
	t.Cleanup(server.Close)
	return apiconnect.NewSettlementServiceClient(server.Client(), server.URL)
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	client := newClient(t, RequireAuth(jwtManager), LoggingInterceptor())

	token, err := jwtManager.Generate(models.Caller{UserID: "u1", Email: "u1@example.com", DisplayName: "Uma"})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := connect.NewRequest(&api.GetBalancesRequest{BillID: "b1"})
		req.Header().Set("Authorization", "Bearer "+token)

		resp, err := client.GetBalances(context.Background(), req)
		require.NoError(t, err)
		require.Len(t, resp.Msg.Balances, 1)
		assert.Equal(t, "u1", resp.Msg.Balances[0].Identity)
		assert.Equal(t, "Uma", resp.Msg.Balances[0].DisplayName)
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "bad token", header: "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.GetBalancesRequest{BillID: "b1"})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := client.GetBalances(context.Background(), req)
			assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		})
	}
}

func TestCallerFrom(t *testing.T) {
	_, ok := CallerFrom(context.Background())
	assert.False(t, ok)

	ctx := WithCaller(context.Background(), models.Caller{UserID: "u1"})
	caller, ok := CallerFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", caller.UserID)
	assert.Equal(t, "u1", GetUserID(ctx))
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	stub := connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(WithCaller(ctx, models.Caller{UserID: "u1"}), req)
		}
	})
	client := newClient(t, stub, MetricsInterceptor(m))

	_, err := client.GetBalances(context.Background(), connect.NewRequest(&api.GetBalancesRequest{BillID: "b1"}))
	require.NoError(t, err)
	_, err = client.GetBalances(context.Background(), connect.NewRequest(&api.GetBalancesRequest{BillID: "boom"}))
	require.Error(t, err)

	expected := `
# HELP splitbill_rpc_requests_total RPC requests by procedure and result code.
# TYPE splitbill_rpc_requests_total counter
splitbill_rpc_requests_total{code="not_found",procedure="/splitbill.v1.SettlementService/GetBalances"} 1
splitbill_rpc_requests_total{code="ok",procedure="/splitbill.v1.SettlementService/GetBalances"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "splitbill_rpc_requests_total"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/splitbill.v1.BillService/GetBill", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestLogRequests_RecordsStatus(t *testing.T) {
	handler := LogRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
