package api

type GetBalancesRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

// GetBalancesResponse lists every member's balance in roster order and the
// transfers that settle them.
type GetBalancesResponse struct {
	Balances  []Balance  `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}
