package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/settlement"
	"github.com/mmynk/splitbill/pkg/api"
	"github.com/mmynk/splitbill/pkg/api/apiconnect"
)

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	aggregator *settlement.Aggregator
	metrics    *metrics.Metrics
}

// NewSettlementService creates a new SettlementService. m may be nil.
func NewSettlementService(agg *settlement.Aggregator, m *metrics.Metrics) *SettlementService {
	return &SettlementService{aggregator: agg, metrics: m}
}

// GetBalances returns member balances and suggested transfers. Both are
// recomputed from the ledger on every call.
func (s *SettlementService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	summary, err := s.aggregator.Summarize(ctx, caller, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(summaryToAPI(summary)), nil
}
