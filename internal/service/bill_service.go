package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/registry"
	"github.com/mmynk/splitbill/internal/validation"
	"github.com/mmynk/splitbill/pkg/api"
	"github.com/mmynk/splitbill/pkg/api/apiconnect"
)

var _ apiconnect.BillServiceHandler = (*BillService)(nil)

// BillService implements the Connect BillService on top of the registry.
type BillService struct {
	registry *registry.Registry
	metrics  *metrics.Metrics
}

// NewBillService creates a new BillService. m may be nil.
func NewBillService(reg *registry.Registry, m *metrics.Metrics) *BillService {
	return &BillService{registry: reg, metrics: m}
}

// begin validates the request message and resolves the caller.
func begin(ctx context.Context, msg any) (models.Caller, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return models.Caller{}, err
	}
	if err := validation.Struct(msg); err != nil {
		return models.Caller{}, err
	}
	return caller, nil
}

// CreateBill creates a bill hosted by the caller.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bill, err := s.registry.CreateBill(ctx, caller, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	return connect.NewResponse(&api.CreateBillResponse{Bill: billToAPI(bill)}), nil
}

// GetBill returns a bill with its members and participant rows.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	roster, err := s.registry.Authorize(ctx, caller, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	return connect.NewResponse(&api.GetBillResponse{
		Bill:         billToAPI(roster.Bill),
		Members:      membersToAPI(roster.Members),
		Participants: participantsToAPI(roster),
	}), nil
}

// ListBills returns the bills the caller hosts or has joined.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bills, err := s.registry.ListBills(ctx, caller, req.Msg.Archived)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	resp := &api.ListBillsResponse{Bills: make([]api.Bill, 0, len(bills))}
	for _, b := range bills {
		resp.Bills = append(resp.Bills, billToAPI(b))
	}
	slog.Debug("ListBills successful", "user_id", caller.UserID, "count", len(bills))
	return connect.NewResponse(resp), nil
}

// UpdateBill renames a bill.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bill, err := s.registry.RenameBill(ctx, caller, req.Msg.BillID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.UpdateBillResponse{Bill: billToAPI(bill)}), nil
}

// DeleteBill removes a bill with everything attached to it.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	if err := s.registry.DeleteBill(ctx, caller, req.Msg.BillID); err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// ArchiveBill freezes a bill.
func (s *BillService) ArchiveBill(ctx context.Context, req *connect.Request[api.ArchiveBillRequest]) (*connect.Response[api.ArchiveBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bill, err := s.registry.SetArchived(ctx, caller, req.Msg.BillID, true)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.ArchiveBillResponse{Bill: billToAPI(bill)}), nil
}

// UnarchiveBill reopens an archived bill.
func (s *BillService) UnarchiveBill(ctx context.Context, req *connect.Request[api.UnarchiveBillRequest]) (*connect.Response[api.UnarchiveBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bill, err := s.registry.SetArchived(ctx, caller, req.Msg.BillID, false)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.UnarchiveBillResponse{Bill: billToAPI(bill)}), nil
}

// RegenerateCode replaces the join code of a bill.
func (s *BillService) RegenerateCode(ctx context.Context, req *connect.Request[api.RegenerateCodeRequest]) (*connect.Response[api.RegenerateCodeResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	code, err := s.registry.RegenerateCode(ctx, caller, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.RegenerateCodeResponse{Code: code}), nil
}

// GetBillByCode previews a bill before joining it.
func (s *BillService) GetBillByCode(ctx context.Context, req *connect.Request[api.GetBillByCodeRequest]) (*connect.Response[api.GetBillByCodeResponse], error) {
	if _, err := begin(ctx, req.Msg); err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bill, hostName, err := s.registry.PreviewByCode(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.GetBillByCodeResponse{
		BillID:   bill.ID,
		Name:     bill.Name,
		HostName: hostName,
		Archived: bill.Archived,
	}), nil
}

// JoinBill adds the caller to the bill with the given code.
func (s *BillService) JoinBill(ctx context.Context, req *connect.Request[api.JoinBillRequest]) (*connect.Response[api.JoinBillResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	bill, p, err := s.registry.Join(ctx, caller, req.Msg.Code)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	resp := &api.JoinBillResponse{Bill: billToAPI(bill)}
	if p != nil {
		joined := participantToAPI(p, nil)
		joined.DisplayName = caller.User().Name()
		resp.Participant = &joined
	}
	return connect.NewResponse(resp), nil
}

// AddParticipant attaches a registered user or a guest to a bill.
func (s *BillService) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	p, err := s.registry.AddParticipant(ctx, caller, req.Msg.BillID, registry.ParticipantInput{
		Kind:       models.ParticipantKind(req.Msg.Kind),
		UserID:     req.Msg.UserID,
		Accepted:   req.Msg.Accepted,
		GuestName:  req.Msg.GuestName,
		GuestEmail: req.Msg.GuestEmail,
	})
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	roster, err := s.registry.Roster(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.AddParticipantResponse{Participant: participantToAPI(p, roster)}), nil
}

// RemoveParticipant detaches a participant from a bill.
func (s *BillService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	if err := s.registry.RemoveParticipant(ctx, caller, req.Msg.BillID, req.Msg.ParticipantID); err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.RemoveParticipantResponse{}), nil
}

// ListParticipants returns the participant rows and resolved members of a bill.
func (s *BillService) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	roster, err := s.registry.ListParticipants(ctx, caller, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.ListParticipantsResponse{
		Participants: participantsToAPI(roster),
		Members:      membersToAPI(roster.Members),
	}), nil
}
