package service

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/ledger"
	"github.com/mmynk/splitbill/internal/lock"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/middleware"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/registry"
	"github.com/mmynk/splitbill/internal/settlement"
	"github.com/mmynk/splitbill/internal/storage/sqlite"
	"github.com/mmynk/splitbill/pkg/api"
	"github.com/mmynk/splitbill/pkg/api/apiconnect"
)

var (
	alice = models.Caller{UserID: "A", Email: "a@example.com", DisplayName: "Alice"}
	bob   = models.Caller{UserID: "B", Email: "b@example.com", DisplayName: "Bob"}
	carol = models.Caller{UserID: "C", Email: "c@example.com", DisplayName: "Carol"}
	eve   = models.Caller{UserID: "E", Email: "e@example.com", DisplayName: "Eve"}
)

type testServer struct {
	bills       apiconnect.BillServiceClient
	expenses    apiconnect.ExpenseServiceClient
	settlements apiconnect.SettlementServiceClient
	jwt         *auth.JWTManager
	promReg     *prometheus.Registry
}

// setupTestServer wires the full stack behind an httptest server.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	locker := lock.NewLocal(5*time.Second, m)
	reg := registry.New(store, locker)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewBillServiceHandler(NewBillService(reg, m), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(NewExpenseService(ledger.New(store, reg, locker, m), m), interceptors))
	mux.Handle(apiconnect.NewSettlementServiceHandler(NewSettlementService(settlement.NewAggregator(reg, store), m), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		bills:       apiconnect.NewBillServiceClient(server.Client(), server.URL),
		expenses:    apiconnect.NewExpenseServiceClient(server.Client(), server.URL),
		settlements: apiconnect.NewSettlementServiceClient(server.Client(), server.URL),
		jwt:         jwtManager,
		promReg:     promReg,
	}
}

// as builds a request authenticated as caller.
func as[T any](t *testing.T, ts *testServer, caller models.Caller, msg *T) *connect.Request[T] {
	t.Helper()
	token, err := ts.jwt.Generate(caller)
	require.NoError(t, err)
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

// createBillWithMembers creates a bill hosted by alice that bob and carol joined.
func createBillWithMembers(t *testing.T, ts *testServer) api.Bill {
	t.Helper()
	ctx := context.Background()

	created, err := ts.bills.CreateBill(ctx, as(t, ts, alice, &api.CreateBillRequest{Name: "Dinner"}))
	require.NoError(t, err)
	bill := created.Msg.Bill

	for _, c := range []models.Caller{bob, carol} {
		_, err := ts.bills.JoinBill(ctx, as(t, ts, c, &api.JoinBillRequest{Code: bill.Code}))
		require.NoError(t, err)
	}
	return bill
}

func assertCode(t *testing.T, err error, want connect.Code) *connect.Error {
	t.Helper()
	require.Error(t, err)
	var ce *connect.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, want, ce.Code(), "message: %s", ce.Message())
	return ce
}

func TestDinnerScenario(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	bill := createBillWithMembers(t, ts)

	added, err := ts.expenses.AddExpense(ctx, as(t, ts, alice, &api.AddExpenseRequest{
		BillID:      bill.ID,
		Name:        "Dinner",
		Amount:      "100.00",
		PayerID:     "A",
		SplitPolicy: "equal",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(10000), added.Msg.Expense.AmountCents)
	assert.Equal(t, "100.00", added.Msg.Expense.Amount)

	resp, err := ts.settlements.GetBalances(ctx, as(t, ts, carol, &api.GetBalancesRequest{BillID: bill.ID}))
	require.NoError(t, err)

	require.Len(t, resp.Msg.Balances, 3)
	got := map[string]int64{}
	for _, b := range resp.Msg.Balances {
		got[b.Identity] = b.NetCents
	}
	assert.Equal(t, map[string]int64{"A": 6666, "B": -3333, "C": -3333}, got)
	assert.Equal(t, "66.66", resp.Msg.Balances[0].Net)
	assert.Equal(t, "Alice", resp.Msg.Balances[0].DisplayName)
	assert.Equal(t, "-33.33", resp.Msg.Balances[1].Net)

	assert.Equal(t, []api.Transfer{
		{From: "B", To: "A", Amount: "33.33", AmountCents: 3333},
		{From: "C", To: "A", Amount: "33.33", AmountCents: 3333},
	}, resp.Msg.Transfers)

	shares, err := ts.expenses.GetExpenseShares(ctx, as(t, ts, bob, &api.GetExpenseSharesRequest{
		BillID: bill.ID, ExpenseID: added.Msg.Expense.ID,
	}))
	require.NoError(t, err)
	require.Len(t, shares.Msg.Shares, 3)
	assert.Equal(t, int64(3334), shares.Msg.Shares[0].AmountCents)
	assert.Equal(t, "33.34", shares.Msg.Shares[0].Amount)
}

func TestDinnerScenario_Guests(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()

	created, err := ts.bills.CreateBill(ctx, as(t, ts, alice, &api.CreateBillRequest{Name: "Dinner"}))
	require.NoError(t, err)
	bill := created.Msg.Bill

	var guests []string
	for _, name := range []string{"Bea", "Cy"} {
		added, err := ts.bills.AddParticipant(ctx, as(t, ts, alice, &api.AddParticipantRequest{
			BillID: bill.ID, Kind: "guest", GuestName: name, GuestEmail: strings.ToLower(name) + "@example.com",
		}))
		require.NoError(t, err)
		guests = append(guests, added.Msg.Participant.Identity)
	}

	added, err := ts.expenses.AddExpense(ctx, as(t, ts, alice, &api.AddExpenseRequest{
		BillID: bill.ID, Name: "Dinner", Amount: "100.00", PayerID: "A", SplitPolicy: "equal",
	}))
	require.NoError(t, err)

	ids := append([]string{"A"}, guests...)
	slices.Sort(ids)
	want := map[string]int64{"A": 3333, guests[0]: 3333, guests[1]: 3333}
	want[ids[0]]++

	shares, err := ts.expenses.GetExpenseShares(ctx, as(t, ts, alice, &api.GetExpenseSharesRequest{
		BillID: bill.ID, ExpenseID: added.Msg.Expense.ID,
	}))
	require.NoError(t, err)
	got := map[string]int64{}
	for _, sh := range shares.Msg.Shares {
		got[sh.Identity] = sh.AmountCents
	}
	assert.Equal(t, want, got)

	resp, err := ts.settlements.GetBalances(ctx, as(t, ts, alice, &api.GetBalancesRequest{BillID: bill.ID}))
	require.NoError(t, err)
	nets := map[string]int64{}
	for _, b := range resp.Msg.Balances {
		nets[b.Identity] = b.NetCents
	}
	assert.Equal(t, map[string]int64{
		"A":       10000 - want["A"],
		guests[0]: -want[guests[0]],
		guests[1]: -want[guests[1]],
	}, nets)

	require.Len(t, resp.Msg.Transfers, 2)
	var settled int64
	for _, tr := range resp.Msg.Transfers {
		assert.Equal(t, "A", tr.To)
		assert.Equal(t, want[tr.From], tr.AmountCents)
		settled += tr.AmountCents
	}
	assert.Equal(t, want[guests[0]]+want[guests[1]], settled)
}

func TestAddExpense_AmountForms(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	bill := createBillWithMembers(t, ts)

	t.Run("cents", func(t *testing.T) {
		resp, err := ts.expenses.AddExpense(ctx, as(t, ts, bob, &api.AddExpenseRequest{
			BillID: bill.ID, Name: "Taxi", AmountCents: 1250, PayerID: "B", SplitPolicy: "equal",
		}))
		require.NoError(t, err)
		assert.Equal(t, "12.50", resp.Msg.Expense.Amount)
	})

	t.Run("custom split in cents", func(t *testing.T) {
		resp, err := ts.expenses.AddExpense(ctx, as(t, ts, bob, &api.AddExpenseRequest{
			BillID: bill.ID, Name: "Hotel", Amount: "90", PayerID: "C", SplitPolicy: "custom",
			SplitCents: map[string]int64{"A": 3000, "B": 6000},
		}))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"A": "30.00", "B": "60.00"}, resp.Msg.Expense.Split)
	})

	tests := []struct {
		name      string
		req       *api.AddExpenseRequest
		wantField string
	}{
		{
			name:      "both forms",
			req:       &api.AddExpenseRequest{BillID: bill.ID, Name: "X", Amount: "1.00", AmountCents: 100, PayerID: "A", SplitPolicy: "equal"},
			wantField: "amount",
		},
		{
			name:      "neither form",
			req:       &api.AddExpenseRequest{BillID: bill.ID, Name: "X", PayerID: "A", SplitPolicy: "equal"},
			wantField: "amount",
		},
		{
			name:      "sub-cent precision",
			req:       &api.AddExpenseRequest{BillID: bill.ID, Name: "X", Amount: "1.001", PayerID: "A", SplitPolicy: "equal"},
			wantField: "amount",
		},
		{
			name: "both split forms",
			req: &api.AddExpenseRequest{BillID: bill.ID, Name: "X", Amount: "1.00", PayerID: "A", SplitPolicy: "custom",
				Split: map[string]string{"A": "1.00"}, SplitCents: map[string]int64{"A": 100}},
			wantField: "split",
		},
		{
			name: "split off by one cent",
			req: &api.AddExpenseRequest{BillID: bill.ID, Name: "Groceries", Amount: "10.00", PayerID: "A", SplitPolicy: "custom",
				Split: map[string]string{"A": "5.00", "B": "5.01"}},
			wantField: "split",
		},
		{
			name:      "amount_cents above the maximum",
			req:       &api.AddExpenseRequest{BillID: bill.ID, Name: "X", AmountCents: math.MaxInt64 - 10, PayerID: "A", SplitPolicy: "equal"},
			wantField: "amount",
		},
		{
			name:      "decimal amount above the maximum",
			req:       &api.AddExpenseRequest{BillID: bill.ID, Name: "X", Amount: "100000000000.01", PayerID: "A", SplitPolicy: "equal"},
			wantField: "amount",
		},
		{
			name: "split_cents wrapping around to the amount",
			req: &api.AddExpenseRequest{BillID: bill.ID, Name: "X", AmountCents: 100, PayerID: "A", SplitPolicy: "custom",
				SplitCents: map[string]int64{"A": math.MaxInt64, "B": math.MaxInt64, "C": 102}},
			wantField: "split",
		},
		{
			name:      "payer outside the bill",
			req:       &api.AddExpenseRequest{BillID: bill.ID, Name: "X", Amount: "1.00", PayerID: "E", SplitPolicy: "equal"},
			wantField: "payer_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.expenses.AddExpense(ctx, as(t, ts, alice, tt.req))
			ce := assertCode(t, err, connect.CodeInvalidArgument)
			assert.Equal(t, tt.wantField, ce.Meta().Get(ErrorFieldHeader))
		})
	}
}

func TestUpdateAndRemoveExpense(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	bill := createBillWithMembers(t, ts)

	added, err := ts.expenses.AddExpense(ctx, as(t, ts, alice, &api.AddExpenseRequest{
		BillID: bill.ID, Name: "Boat", Amount: "30.00", PayerID: "A", SplitPolicy: "custom",
		Split: map[string]string{"B": "15", "C": "15"},
	}))
	require.NoError(t, err)
	id := added.Msg.Expense.ID

	equal := "equal"
	updated, err := ts.expenses.UpdateExpense(ctx, as(t, ts, bob, &api.UpdateExpenseRequest{
		BillID: bill.ID, ExpenseID: id, SplitPolicy: &equal,
	}))
	require.NoError(t, err)
	assert.Equal(t, "equal", updated.Msg.Expense.SplitPolicy)
	assert.Empty(t, updated.Msg.Expense.Split)

	amount, cents := "31.00", int64(3100)
	_, err = ts.expenses.UpdateExpense(ctx, as(t, ts, bob, &api.UpdateExpenseRequest{
		BillID: bill.ID, ExpenseID: id, Amount: &amount, AmountCents: &cents,
	}))
	ce := assertCode(t, err, connect.CodeInvalidArgument)
	assert.Equal(t, "amount", ce.Meta().Get(ErrorFieldHeader))

	_, err = ts.expenses.RemoveExpense(ctx, as(t, ts, carol, &api.RemoveExpenseRequest{BillID: bill.ID, ExpenseID: id}))
	require.NoError(t, err)

	list, err := ts.expenses.ListExpenses(ctx, as(t, ts, alice, &api.ListExpensesRequest{BillID: bill.ID}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Expenses)

	_, err = ts.expenses.RemoveExpense(ctx, as(t, ts, carol, &api.RemoveExpenseRequest{BillID: bill.ID, ExpenseID: id}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestBillLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	bill := createBillWithMembers(t, ts)

	preview, err := ts.bills.GetBillByCode(ctx, as(t, ts, eve, &api.GetBillByCodeRequest{Code: bill.Code}))
	require.NoError(t, err)
	assert.Equal(t, "Alice", preview.Msg.HostName)

	guest, err := ts.bills.AddParticipant(ctx, as(t, ts, alice, &api.AddParticipantRequest{
		BillID: bill.ID, Kind: "guest", GuestName: "Gus", GuestEmail: "gus@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Gus", guest.Msg.Participant.DisplayName)
	assert.Equal(t, guest.Msg.Participant.ID, guest.Msg.Participant.Identity)

	got, err := ts.bills.GetBill(ctx, as(t, ts, bob, &api.GetBillRequest{BillID: bill.ID}))
	require.NoError(t, err)
	identities := make([]string, 0, len(got.Msg.Members))
	for _, m := range got.Msg.Members {
		identities = append(identities, m.Identity)
	}
	assert.Equal(t, []string{"A", "B", "C", guest.Msg.Participant.ID}, identities)
	assert.Len(t, got.Msg.Participants, 3)

	_, err = ts.bills.UpdateBill(ctx, as(t, ts, bob, &api.UpdateBillRequest{BillID: bill.ID, Name: "Mine"}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = ts.bills.GetBill(ctx, as(t, ts, eve, &api.GetBillRequest{BillID: bill.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	archived, err := ts.bills.ArchiveBill(ctx, as(t, ts, alice, &api.ArchiveBillRequest{BillID: bill.ID}))
	require.NoError(t, err)
	assert.True(t, archived.Msg.Bill.Archived)

	_, err = ts.expenses.AddExpense(ctx, as(t, ts, alice, &api.AddExpenseRequest{
		BillID: bill.ID, Name: "Late", Amount: "1", PayerID: "A", SplitPolicy: "equal",
	}))
	ce := assertCode(t, err, connect.CodeInvalidArgument)
	assert.Equal(t, "bill_id", ce.Meta().Get(ErrorFieldHeader))

	_, err = ts.bills.JoinBill(ctx, as(t, ts, eve, &api.JoinBillRequest{Code: bill.Code}))
	ce = assertCode(t, err, connect.CodeInvalidArgument)
	assert.Equal(t, "code", ce.Meta().Get(ErrorFieldHeader))

	list, err := ts.bills.ListBills(ctx, as(t, ts, bob, &api.ListBillsRequest{Archived: true}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Bills, 1)

	_, err = ts.bills.UnarchiveBill(ctx, as(t, ts, alice, &api.UnarchiveBillRequest{BillID: bill.ID}))
	require.NoError(t, err)

	code, err := ts.bills.RegenerateCode(ctx, as(t, ts, alice, &api.RegenerateCodeRequest{BillID: bill.ID}))
	require.NoError(t, err)
	_, err = ts.bills.JoinBill(ctx, as(t, ts, eve, &api.JoinBillRequest{Code: bill.Code}))
	assertCode(t, err, connect.CodeNotFound)
	joined, err := ts.bills.JoinBill(ctx, as(t, ts, eve, &api.JoinBillRequest{Code: code.Msg.Code}))
	require.NoError(t, err)
	require.NotNil(t, joined.Msg.Participant)
	assert.Equal(t, "Eve", joined.Msg.Participant.DisplayName)

	_, err = ts.bills.RemoveParticipant(ctx, as(t, ts, alice, &api.RemoveParticipantRequest{
		BillID: bill.ID, ParticipantID: joined.Msg.Participant.ID,
	}))
	require.NoError(t, err)

	_, err = ts.bills.DeleteBill(ctx, as(t, ts, alice, &api.DeleteBillRequest{BillID: bill.ID}))
	require.NoError(t, err)
	_, err = ts.bills.GetBill(ctx, as(t, ts, alice, &api.GetBillRequest{BillID: bill.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestRemoveParticipant_BlockedByExpense(t *testing.T) {
	ts := setupTestServer(t)
	ctx := context.Background()
	bill := createBillWithMembers(t, ts)

	guest, err := ts.bills.AddParticipant(ctx, as(t, ts, alice, &api.AddParticipantRequest{
		BillID: bill.ID, Kind: "guest", GuestName: "Gus", GuestEmail: "gus@example.com",
	}))
	require.NoError(t, err)
	_, err = ts.expenses.AddExpense(ctx, as(t, ts, alice, &api.AddExpenseRequest{
		BillID: bill.ID, Name: "Fuel", Amount: "40", PayerID: guest.Msg.Participant.ID, SplitPolicy: "equal",
	}))
	require.NoError(t, err)

	_, err = ts.bills.RemoveParticipant(ctx, as(t, ts, alice, &api.RemoveParticipantRequest{
		BillID: bill.ID, ParticipantID: guest.Msg.Participant.ID,
	}))
	ce := assertCode(t, err, connect.CodeInvalidArgument)
	assert.Equal(t, "participant_id", ce.Meta().Get(ErrorFieldHeader))
}

func TestUnauthenticatedAndMetrics(t *testing.T) {
	ts := setupTestServer(t)

	_, err := ts.bills.ListBills(context.Background(), connect.NewRequest(&api.ListBillsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	expected := `
# HELP splitbill_rpc_requests_total RPC requests by procedure and result code.
# TYPE splitbill_rpc_requests_total counter
splitbill_rpc_requests_total{code="unauthenticated",procedure="/splitbill.v1.BillService/ListBills"} 1
`
	require.NoError(t, testutil.GatherAndCompare(ts.promReg, strings.NewReader(expected), "splitbill_rpc_requests_total"))
}

func TestToConnectError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{name: "not found", err: apperr.NotFound("bill", "b1"), want: connect.CodeNotFound},
		{name: "validation", err: apperr.Invalid("name", "is required"), want: connect.CodeInvalidArgument},
		{name: "permission", err: apperr.Forbidden("delete bill"), want: connect.CodePermissionDenied},
		{name: "busy", err: &apperr.ResourceBusyError{Resource: "bill:b1", Waited: time.Second}, want: connect.CodeUnavailable},
		{name: "invariant", err: apperr.Invariant("balances", "net is 5"), want: connect.CodeInternal},
		{name: "cancelled", err: context.Canceled, want: connect.CodeCanceled},
		{name: "unknown", err: assert.AnError, want: connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connect.CodeOf(toConnectError(tt.err, m)))
		})
	}

	assert.Nil(t, toConnectError(nil, m))

	expected := `
# HELP splitbill_invariant_violations_total Internal consistency checks that failed.
# TYPE splitbill_invariant_violations_total counter
splitbill_invariant_violations_total{check="balances"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "splitbill_invariant_violations_total"))
}
