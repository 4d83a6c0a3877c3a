package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/pkg/api"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "splitbill.v1.BillService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	// BillServiceCreateBillProcedure is the fully-qualified name of the BillService's CreateBill RPC.
	BillServiceCreateBillProcedure = "/splitbill.v1.BillService/CreateBill"
	// BillServiceGetBillProcedure is the fully-qualified name of the BillService's GetBill RPC.
	BillServiceGetBillProcedure = "/splitbill.v1.BillService/GetBill"
	// BillServiceListBillsProcedure is the fully-qualified name of the BillService's ListBills RPC.
	BillServiceListBillsProcedure = "/splitbill.v1.BillService/ListBills"
	// BillServiceUpdateBillProcedure is the fully-qualified name of the BillService's UpdateBill RPC.
	BillServiceUpdateBillProcedure = "/splitbill.v1.BillService/UpdateBill"
	// BillServiceDeleteBillProcedure is the fully-qualified name of the BillService's DeleteBill RPC.
	BillServiceDeleteBillProcedure = "/splitbill.v1.BillService/DeleteBill"
	// BillServiceArchiveBillProcedure is the fully-qualified name of the BillService's ArchiveBill RPC.
	BillServiceArchiveBillProcedure = "/splitbill.v1.BillService/ArchiveBill"
	// BillServiceUnarchiveBillProcedure is the fully-qualified name of the BillService's UnarchiveBill RPC.
	BillServiceUnarchiveBillProcedure = "/splitbill.v1.BillService/UnarchiveBill"
	// BillServiceRegenerateCodeProcedure is the fully-qualified name of the BillService's RegenerateCode RPC.
	BillServiceRegenerateCodeProcedure = "/splitbill.v1.BillService/RegenerateCode"
	// BillServiceGetBillByCodeProcedure is the fully-qualified name of the BillService's GetBillByCode RPC.
	BillServiceGetBillByCodeProcedure = "/splitbill.v1.BillService/GetBillByCode"
	// BillServiceJoinBillProcedure is the fully-qualified name of the BillService's JoinBill RPC.
	BillServiceJoinBillProcedure = "/splitbill.v1.BillService/JoinBill"
	// BillServiceAddParticipantProcedure is the fully-qualified name of the BillService's AddParticipant RPC.
	BillServiceAddParticipantProcedure = "/splitbill.v1.BillService/AddParticipant"
	// BillServiceRemoveParticipantProcedure is the fully-qualified name of the BillService's RemoveParticipant RPC.
	BillServiceRemoveParticipantProcedure = "/splitbill.v1.BillService/RemoveParticipant"
	// BillServiceListParticipantsProcedure is the fully-qualified name of the BillService's ListParticipants RPC.
	BillServiceListParticipantsProcedure = "/splitbill.v1.BillService/ListParticipants"
)

// BillServiceClient is a client for the splitbill.v1.BillService service.
type BillServiceClient interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	ArchiveBill(context.Context, *connect.Request[api.ArchiveBillRequest]) (*connect.Response[api.ArchiveBillResponse], error)
	UnarchiveBill(context.Context, *connect.Request[api.UnarchiveBillRequest]) (*connect.Response[api.UnarchiveBillResponse], error)
	RegenerateCode(context.Context, *connect.Request[api.RegenerateCodeRequest]) (*connect.Response[api.RegenerateCodeResponse], error)
	GetBillByCode(context.Context, *connect.Request[api.GetBillByCodeRequest]) (*connect.Response[api.GetBillByCodeResponse], error)
	JoinBill(context.Context, *connect.Request[api.JoinBillRequest]) (*connect.Response[api.JoinBillResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
}

// NewBillServiceClient constructs a client for the splitbill.v1.BillService service. By default it
// uses the Connect protocol with the JSON codec.
//
// The URL supplied here should be the base URL for the Connect server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &billServiceClient{
		createBill: connect.NewClient[api.CreateBillRequest, api.CreateBillResponse](
			httpClient,
			baseURL+BillServiceCreateBillProcedure,
			opts...,
		),
		getBill: connect.NewClient[api.GetBillRequest, api.GetBillResponse](
			httpClient,
			baseURL+BillServiceGetBillProcedure,
			opts...,
		),
		listBills: connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](
			httpClient,
			baseURL+BillServiceListBillsProcedure,
			opts...,
		),
		updateBill: connect.NewClient[api.UpdateBillRequest, api.UpdateBillResponse](
			httpClient,
			baseURL+BillServiceUpdateBillProcedure,
			opts...,
		),
		deleteBill: connect.NewClient[api.DeleteBillRequest, api.DeleteBillResponse](
			httpClient,
			baseURL+BillServiceDeleteBillProcedure,
			opts...,
		),
		archiveBill: connect.NewClient[api.ArchiveBillRequest, api.ArchiveBillResponse](
			httpClient,
			baseURL+BillServiceArchiveBillProcedure,
			opts...,
		),
		unarchiveBill: connect.NewClient[api.UnarchiveBillRequest, api.UnarchiveBillResponse](
			httpClient,
			baseURL+BillServiceUnarchiveBillProcedure,
			opts...,
		),
		regenerateCode: connect.NewClient[api.RegenerateCodeRequest, api.RegenerateCodeResponse](
			httpClient,
			baseURL+BillServiceRegenerateCodeProcedure,
			opts...,
		),
		getBillByCode: connect.NewClient[api.GetBillByCodeRequest, api.GetBillByCodeResponse](
			httpClient,
			baseURL+BillServiceGetBillByCodeProcedure,
			opts...,
		),
		joinBill: connect.NewClient[api.JoinBillRequest, api.JoinBillResponse](
			httpClient,
			baseURL+BillServiceJoinBillProcedure,
			opts...,
		),
		addParticipant: connect.NewClient[api.AddParticipantRequest, api.AddParticipantResponse](
			httpClient,
			baseURL+BillServiceAddParticipantProcedure,
			opts...,
		),
		removeParticipant: connect.NewClient[api.RemoveParticipantRequest, api.RemoveParticipantResponse](
			httpClient,
			baseURL+BillServiceRemoveParticipantProcedure,
			opts...,
		),
		listParticipants: connect.NewClient[api.ListParticipantsRequest, api.ListParticipantsResponse](
			httpClient,
			baseURL+BillServiceListParticipantsProcedure,
			opts...,
		),
	}
}

// billServiceClient implements BillServiceClient.
type billServiceClient struct {
	createBill *connect.Client[api.CreateBillRequest, api.CreateBillResponse]
	getBill *connect.Client[api.GetBillRequest, api.GetBillResponse]
	listBills *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	updateBill *connect.Client[api.UpdateBillRequest, api.UpdateBillResponse]
	deleteBill *connect.Client[api.DeleteBillRequest, api.DeleteBillResponse]
	archiveBill *connect.Client[api.ArchiveBillRequest, api.ArchiveBillResponse]
	unarchiveBill *connect.Client[api.UnarchiveBillRequest, api.UnarchiveBillResponse]
	regenerateCode *connect.Client[api.RegenerateCodeRequest, api.RegenerateCodeResponse]
	getBillByCode *connect.Client[api.GetBillByCodeRequest, api.GetBillByCodeResponse]
	joinBill *connect.Client[api.JoinBillRequest, api.JoinBillResponse]
	addParticipant *connect.Client[api.AddParticipantRequest, api.AddParticipantResponse]
	removeParticipant *connect.Client[api.RemoveParticipantRequest, api.RemoveParticipantResponse]
	listParticipants *connect.Client[api.ListParticipantsRequest, api.ListParticipantsResponse]
}

// CreateBill calls splitbill.v1.BillService.CreateBill.
func (c *billServiceClient) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

// GetBill calls splitbill.v1.BillService.GetBill.
func (c *billServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

// ListBills calls splitbill.v1.BillService.ListBills.
func (c *billServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

// UpdateBill calls splitbill.v1.BillService.UpdateBill.
func (c *billServiceClient) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

// DeleteBill calls splitbill.v1.BillService.DeleteBill.
func (c *billServiceClient) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

// ArchiveBill calls splitbill.v1.BillService.ArchiveBill.
func (c *billServiceClient) ArchiveBill(ctx context.Context, req *connect.Request[api.ArchiveBillRequest]) (*connect.Response[api.ArchiveBillResponse], error) {
	return c.archiveBill.CallUnary(ctx, req)
}

// UnarchiveBill calls splitbill.v1.BillService.UnarchiveBill.
func (c *billServiceClient) UnarchiveBill(ctx context.Context, req *connect.Request[api.UnarchiveBillRequest]) (*connect.Response[api.UnarchiveBillResponse], error) {
	return c.unarchiveBill.CallUnary(ctx, req)
}

// RegenerateCode calls splitbill.v1.BillService.RegenerateCode.
func (c *billServiceClient) RegenerateCode(ctx context.Context, req *connect.Request[api.RegenerateCodeRequest]) (*connect.Response[api.RegenerateCodeResponse], error) {
	return c.regenerateCode.CallUnary(ctx, req)
}

// GetBillByCode calls splitbill.v1.BillService.GetBillByCode.
func (c *billServiceClient) GetBillByCode(ctx context.Context, req *connect.Request[api.GetBillByCodeRequest]) (*connect.Response[api.GetBillByCodeResponse], error) {
	return c.getBillByCode.CallUnary(ctx, req)
}

// JoinBill calls splitbill.v1.BillService.JoinBill.
func (c *billServiceClient) JoinBill(ctx context.Context, req *connect.Request[api.JoinBillRequest]) (*connect.Response[api.JoinBillResponse], error) {
	return c.joinBill.CallUnary(ctx, req)
}

// AddParticipant calls splitbill.v1.BillService.AddParticipant.
func (c *billServiceClient) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

// RemoveParticipant calls splitbill.v1.BillService.RemoveParticipant.
func (c *billServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

// ListParticipants calls splitbill.v1.BillService.ListParticipants.
func (c *billServiceClient) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

// BillServiceHandler is an implementation of the splitbill.v1.BillService service.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	ArchiveBill(context.Context, *connect.Request[api.ArchiveBillRequest]) (*connect.Response[api.ArchiveBillResponse], error)
	UnarchiveBill(context.Context, *connect.Request[api.UnarchiveBillRequest]) (*connect.Response[api.UnarchiveBillResponse], error)
	RegenerateCode(context.Context, *connect.Request[api.RegenerateCodeRequest]) (*connect.Response[api.RegenerateCodeResponse], error)
	GetBillByCode(context.Context, *connect.Request[api.GetBillByCodeRequest]) (*connect.Response[api.GetBillByCodeResponse], error)
	JoinBill(context.Context, *connect.Request[api.JoinBillRequest]) (*connect.Response[api.JoinBillResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	billServiceCreateBillHandler := connect.NewUnaryHandler(
		BillServiceCreateBillProcedure,
		svc.CreateBill,
		opts...,
	)
	billServiceGetBillHandler := connect.NewUnaryHandler(
		BillServiceGetBillProcedure,
		svc.GetBill,
		opts...,
	)
	billServiceListBillsHandler := connect.NewUnaryHandler(
		BillServiceListBillsProcedure,
		svc.ListBills,
		opts...,
	)
	billServiceUpdateBillHandler := connect.NewUnaryHandler(
		BillServiceUpdateBillProcedure,
		svc.UpdateBill,
		opts...,
	)
	billServiceDeleteBillHandler := connect.NewUnaryHandler(
		BillServiceDeleteBillProcedure,
		svc.DeleteBill,
		opts...,
	)
	billServiceArchiveBillHandler := connect.NewUnaryHandler(
		BillServiceArchiveBillProcedure,
		svc.ArchiveBill,
		opts...,
	)
	billServiceUnarchiveBillHandler := connect.NewUnaryHandler(
		BillServiceUnarchiveBillProcedure,
		svc.UnarchiveBill,
		opts...,
	)
	billServiceRegenerateCodeHandler := connect.NewUnaryHandler(
		BillServiceRegenerateCodeProcedure,
		svc.RegenerateCode,
		opts...,
	)
	billServiceGetBillByCodeHandler := connect.NewUnaryHandler(
		BillServiceGetBillByCodeProcedure,
		svc.GetBillByCode,
		opts...,
	)
	billServiceJoinBillHandler := connect.NewUnaryHandler(
		BillServiceJoinBillProcedure,
		svc.JoinBill,
		opts...,
	)
	billServiceAddParticipantHandler := connect.NewUnaryHandler(
		BillServiceAddParticipantProcedure,
		svc.AddParticipant,
		opts...,
	)
	billServiceRemoveParticipantHandler := connect.NewUnaryHandler(
		BillServiceRemoveParticipantProcedure,
		svc.RemoveParticipant,
		opts...,
	)
	billServiceListParticipantsHandler := connect.NewUnaryHandler(
		BillServiceListParticipantsProcedure,
		svc.ListParticipants,
		opts...,
	)
	return "/splitbill.v1.BillService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BillServiceCreateBillProcedure:
			billServiceCreateBillHandler.ServeHTTP(w, r)
		case BillServiceGetBillProcedure:
			billServiceGetBillHandler.ServeHTTP(w, r)
		case BillServiceListBillsProcedure:
			billServiceListBillsHandler.ServeHTTP(w, r)
		case BillServiceUpdateBillProcedure:
			billServiceUpdateBillHandler.ServeHTTP(w, r)
		case BillServiceDeleteBillProcedure:
			billServiceDeleteBillHandler.ServeHTTP(w, r)
		case BillServiceArchiveBillProcedure:
			billServiceArchiveBillHandler.ServeHTTP(w, r)
		case BillServiceUnarchiveBillProcedure:
			billServiceUnarchiveBillHandler.ServeHTTP(w, r)
		case BillServiceRegenerateCodeProcedure:
			billServiceRegenerateCodeHandler.ServeHTTP(w, r)
		case BillServiceGetBillByCodeProcedure:
			billServiceGetBillByCodeHandler.ServeHTTP(w, r)
		case BillServiceJoinBillProcedure:
			billServiceJoinBillHandler.ServeHTTP(w, r)
		case BillServiceAddParticipantProcedure:
			billServiceAddParticipantHandler.ServeHTTP(w, r)
		case BillServiceRemoveParticipantProcedure:
			billServiceRemoveParticipantHandler.ServeHTTP(w, r)
		case BillServiceListParticipantsProcedure:
			billServiceListParticipantsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedBillServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedBillServiceHandler struct{}

func (UnimplementedBillServiceHandler) CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.CreateBill is not implemented"))
}

func (UnimplementedBillServiceHandler) GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.GetBill is not implemented"))
}

func (UnimplementedBillServiceHandler) ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.ListBills is not implemented"))
}

func (UnimplementedBillServiceHandler) UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.UpdateBill is not implemented"))
}

func (UnimplementedBillServiceHandler) DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.DeleteBill is not implemented"))
}

func (UnimplementedBillServiceHandler) ArchiveBill(context.Context, *connect.Request[api.ArchiveBillRequest]) (*connect.Response[api.ArchiveBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.ArchiveBill is not implemented"))
}

func (UnimplementedBillServiceHandler) UnarchiveBill(context.Context, *connect.Request[api.UnarchiveBillRequest]) (*connect.Response[api.UnarchiveBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.UnarchiveBill is not implemented"))
}

func (UnimplementedBillServiceHandler) RegenerateCode(context.Context, *connect.Request[api.RegenerateCodeRequest]) (*connect.Response[api.RegenerateCodeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.RegenerateCode is not implemented"))
}

func (UnimplementedBillServiceHandler) GetBillByCode(context.Context, *connect.Request[api.GetBillByCodeRequest]) (*connect.Response[api.GetBillByCodeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.GetBillByCode is not implemented"))
}

func (UnimplementedBillServiceHandler) JoinBill(context.Context, *connect.Request[api.JoinBillRequest]) (*connect.Response[api.JoinBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.JoinBill is not implemented"))
}

func (UnimplementedBillServiceHandler) AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.AddParticipant is not implemented"))
}

func (UnimplementedBillServiceHandler) RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.RemoveParticipant is not implemented"))
}

func (UnimplementedBillServiceHandler) ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitbill.v1.BillService.ListParticipants is not implemented"))
}
