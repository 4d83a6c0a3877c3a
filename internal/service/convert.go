package service

import (
	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
	"github.com/mmynk/splitbill/internal/registry"
	"github.com/mmynk/splitbill/internal/settlement"
	"github.com/mmynk/splitbill/pkg/api"
)

func billToAPI(b *models.Bill) api.Bill {
	return api.Bill{
		ID:        b.ID,
		HostID:    b.HostID,
		Code:      b.Code,
		Name:      b.Name,
		Archived:  b.Archived,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func participantToAPI(p *models.Participant, roster *registry.Roster) api.Participant {
	out := api.Participant{
		ID:         p.ID,
		Kind:       string(p.Kind),
		Identity:   p.Identity(),
		UserID:     p.UserID,
		GuestEmail: p.GuestEmail,
		Accepted:   p.Accepted,
		CreatedAt:  p.CreatedAt,
	}
	if roster != nil {
		out.DisplayName = roster.DisplayName(p)
	} else if p.Kind == models.ParticipantGuest {
		out.DisplayName = p.GuestName
	} else {
		out.DisplayName = p.UserID
	}
	return out
}

func participantsToAPI(roster *registry.Roster) []api.Participant {
	out := make([]api.Participant, 0, len(roster.Participants))
	for _, p := range roster.Participants {
		out = append(out, participantToAPI(p, roster))
	}
	return out
}

func membersToAPI(members []models.Member) []api.Member {
	out := make([]api.Member, 0, len(members))
	for _, m := range members {
		out = append(out, api.Member{
			Identity:      m.Identity,
			DisplayName:   m.DisplayName,
			Kind:          string(m.Kind),
			ParticipantID: m.ParticipantID,
		})
	}
	return out
}

func expenseToAPI(e *models.Expense) api.Expense {
	out := api.Expense{
		ID:          e.ID,
		BillID:      e.BillID,
		Name:        e.Name,
		Amount:      e.Amount.String(),
		AmountCents: int64(e.Amount),
		PayerID:     e.PayerID,
		SplitPolicy: string(e.Policy),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if len(e.Split) > 0 {
		out.Split = make(map[string]string, len(e.Split))
		out.SplitCents = make(map[string]int64, len(e.Split))
		for id, share := range e.Split {
			out.Split[id] = share.String()
			out.SplitCents[id] = int64(share)
		}
	}
	return out
}

func sharesToAPI(roster *registry.Roster, shares map[string]money.Cents) []api.Share {
	out := make([]api.Share, 0, len(roster.Members))
	for _, m := range roster.Members {
		share := shares[m.Identity]
		out = append(out, api.Share{
			Identity:    m.Identity,
			DisplayName: m.DisplayName,
			Amount:      share.String(),
			AmountCents: int64(share),
		})
	}
	return out
}

func summaryToAPI(s *settlement.Summary) *api.GetBalancesResponse {
	resp := &api.GetBalancesResponse{
		Balances:  make([]api.Balance, 0, len(s.Balances)),
		Transfers: make([]api.Transfer, 0, len(s.Transfers)),
	}
	for _, b := range s.Balances {
		resp.Balances = append(resp.Balances, api.Balance{
			Identity:    b.Member.Identity,
			DisplayName: b.Member.DisplayName,
			Kind:        string(b.Member.Kind),
			Paid:        b.Paid.String(),
			PaidCents:   int64(b.Paid),
			Owed:        b.Owed.String(),
			OwedCents:   int64(b.Owed),
			Net:         b.Net.String(),
			NetCents:    int64(b.Net),
		})
	}
	for _, t := range s.Transfers {
		resp.Transfers = append(resp.Transfers, transferToAPI(t))
	}
	return resp
}

func transferToAPI(t calculator.Transfer) api.Transfer {
	return api.Transfer{
		From:        t.From,
		To:          t.To,
		Amount:      t.Amount.String(),
		AmountCents: int64(t.Amount),
	}
}

// amountFrom reads an amount given either as a decimal string or in cents.
// Exactly one form must be present.
func amountFrom(decimal string, cents int64) (money.Cents, error) {
	switch {
	case decimal != "" && cents != 0:
		return 0, apperr.Invalid("amount", "set either amount or amount_cents, not both")
	case decimal != "":
		c, err := money.ParsePositive(decimal)
		if err != nil {
			return 0, apperr.Invalid("amount", "%v", err)
		}
		return c, nil
	case cents > int64(money.MaxAmount):
		return 0, apperr.Invalid("amount", "%v", money.ErrOutOfRange)
	case cents > 0:
		return money.Cents(cents), nil
	default:
		return 0, apperr.Invalid("amount", "must be greater than zero")
	}
}

// splitFrom reads a custom split given either as decimal strings or in
// cents. A nil result means no split was supplied.
func splitFrom(decimal map[string]string, cents map[string]int64) (map[string]money.Cents, error) {
	switch {
	case len(decimal) > 0 && len(cents) > 0:
		return nil, apperr.Invalid("split", "set either split or split_cents, not both")
	case len(decimal) > 0:
		out := make(map[string]money.Cents, len(decimal))
		for id, s := range decimal {
			c, err := money.Parse(s)
			if err != nil {
				return nil, apperr.Invalid("split", "share for %s: %v", id, err)
			}
			out[id] = c
		}
		return out, nil
	case len(cents) > 0:
		out := make(map[string]money.Cents, len(cents))
		for id, c := range cents {
			if !money.Cents(c).InRange() {
				return nil, apperr.Invalid("split", "share for %s: %v", id, money.ErrOutOfRange)
			}
			out[id] = money.Cents(c)
		}
		return out, nil
	default:
		return nil, nil
	}
}
