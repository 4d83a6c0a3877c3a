package api

type CreateBillRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateBillResponse struct {
	Bill Bill `json:"bill"`
}

type GetBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type GetBillResponse struct {
	Bill         Bill          `json:"bill"`
	Members      []Member      `json:"members"`
	Participants []Participant `json:"participants"`
}

type ListBillsRequest struct {
	Archived bool `json:"archived"`
}

type ListBillsResponse struct {
	Bills []Bill `json:"bills"`
}

type UpdateBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=255"`
}

type UpdateBillResponse struct {
	Bill Bill `json:"bill"`
}

type DeleteBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type DeleteBillResponse struct{}

type ArchiveBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type ArchiveBillResponse struct {
	Bill Bill `json:"bill"`
}

type UnarchiveBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type UnarchiveBillResponse struct {
	Bill Bill `json:"bill"`
}

type RegenerateCodeRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type RegenerateCodeResponse struct {
	Code string `json:"code"`
}

// GetBillByCodeRequest looks up a bill before joining it.
type GetBillByCodeRequest struct {
	Code string `json:"code" validate:"required,len=8,alphanum"`
}

// GetBillByCodeResponse is a preview: it reveals no participants or expenses.
type GetBillByCodeResponse struct {
	BillID   string `json:"bill_id"`
	Name     string `json:"name"`
	HostName string `json:"host_name"`
	Archived bool   `json:"archived"`
}

type JoinBillRequest struct {
	Code string `json:"code" validate:"required,len=8,alphanum"`
}

type JoinBillResponse struct {
	Bill Bill `json:"bill"`
	// Participant is empty when the host joins their own bill.
	Participant *Participant `json:"participant,omitempty"`
}

// AddParticipantRequest adds a registered user (kind "registered") or an
// email-only guest (kind "guest").
type AddParticipantRequest struct {
	BillID     string `json:"bill_id" validate:"required"`
	Kind       string `json:"kind" validate:"required,oneof=registered guest"`
	UserID     string `json:"user_id,omitempty" validate:"required_if=Kind registered"`
	GuestName  string `json:"guest_name,omitempty" validate:"required_if=Kind guest,max=255"`
	GuestEmail string `json:"guest_email,omitempty" validate:"required_if=Kind guest,omitempty,email,max=255"`
	// Accepted adds a registered user directly instead of inviting them.
	Accepted bool `json:"accepted"`
}

type AddParticipantResponse struct {
	Participant Participant `json:"participant"`
}

type RemoveParticipantRequest struct {
	BillID        string `json:"bill_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

type RemoveParticipantResponse struct{}

type ListParticipantsRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type ListParticipantsResponse struct {
	Participants []Participant `json:"participants"`
	Members      []Member      `json:"members"`
}
