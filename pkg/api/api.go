// Package api defines the request and response messages of the splitbill
// RPC services. Messages travel as JSON; struct tags drive both encoding and
// request validation.
//
// Amounts are accepted either as a decimal string ("12.50") or as integer
// minor units ("amount_cents": 1250). Exactly one form must be supplied.
// Responses always carry both.
package api

// Bill is the public view of a bill.
type Bill struct {
	ID        string `json:"id"`
	HostID    string `json:"host_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Archived  bool   `json:"archived"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Participant is one row attached to a bill, including pending invitations.
type Participant struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Identity    string `json:"identity"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name"`
	GuestEmail  string `json:"guest_email,omitempty"`
	Accepted    bool   `json:"accepted"`
	CreatedAt   int64  `json:"created_at"`
}

// Member is a settleable identity: the host, an accepted registered
// participant, or a guest.
type Member struct {
	Identity      string `json:"identity"`
	DisplayName   string `json:"display_name"`
	Kind          string `json:"kind"`
	ParticipantID string `json:"participant_id,omitempty"`
}

// Expense is one recorded payment.
type Expense struct {
	ID          string            `json:"id"`
	BillID      string            `json:"bill_id"`
	Name        string            `json:"name"`
	Amount      string            `json:"amount"`
	AmountCents int64             `json:"amount_cents"`
	PayerID     string            `json:"payer_id"`
	SplitPolicy string            `json:"split_policy"`
	Split       map[string]string `json:"split,omitempty"`
	SplitCents  map[string]int64  `json:"split_cents,omitempty"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   int64             `json:"created_at"`
	UpdatedAt   int64             `json:"updated_at"`
}

// Share is what one member owes for an expense.
type Share struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}

// Balance is a member's standing across every expense of a bill.
// Positive Net means the member is owed money.
type Balance struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
	Paid        string `json:"paid"`
	PaidCents   int64  `json:"paid_cents"`
	Owed        string `json:"owed"`
	OwedCents   int64  `json:"owed_cents"`
	Net         string `json:"net"`
	NetCents    int64  `json:"net_cents"`
}

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}
