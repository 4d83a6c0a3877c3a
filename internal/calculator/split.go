package calculator

import (
	"slices"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
)

// ResolveShares computes how much each member owes for a single expense.
//
// For an equal split the amount is divided across every member, payer
// included. The integer remainder is handed out one cent at a time to the
// first members in bytewise identity order, so shares always sum to the
// amount exactly:
//
//	10000 cents over [C, A, B] -> A: 3334, B: 3333, C: 3333
//
// For a custom split the stored map is used as-is; members missing from the
// map owe 0. The map was validated at write time, so a negative share or a sum
// that does not match the amount is reported as an invariant violation. A
// non-zero share for an identity that is no longer a member is a stale
// reference and is reported as a validation error.
//
// The result has an entry for every member.
func ResolveShares(e *models.Expense, members []string) (map[string]money.Cents, error) {
	if len(members) == 0 {
		return nil, apperr.Invariant("shares", "expense %s has no members to split across", e.ID)
	}
	if e.Amount <= 0 || e.Amount > money.MaxAmount {
		return nil, apperr.Invariant("shares", "expense %s has out-of-range amount %s", e.ID, e.Amount)
	}

	switch e.Policy {
	case models.SplitEqual:
		return equalShares(e.Amount, members), nil
	case models.SplitCustom:
		return customShares(e, members)
	default:
		return nil, apperr.Invariant("shares", "expense %s has unknown split policy %q", e.ID, e.Policy)
	}
}

func equalShares(amount money.Cents, members []string) map[string]money.Cents {
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	n := money.Cents(len(sorted))
	base, remainder := amount/n, amount%n

	shares := make(map[string]money.Cents, len(sorted))
	for i, id := range sorted {
		share := base
		if money.Cents(i) < remainder {
			share++
		}
		shares[id] = share
	}
	return shares
}

func customShares(e *models.Expense, members []string) (map[string]money.Cents, error) {
	shares := make(map[string]money.Cents, len(members))
	for _, id := range members {
		shares[id] = 0
	}

	var total money.Cents
	for _, id := range sortedKeys(e.Split) {
		share := e.Split[id]
		if share < 0 || share > money.MaxAmount {
			return nil, apperr.Invariant("shares", "expense %s has out-of-range share %s for %s", e.ID, share, id)
		}
		var err error
		if total, err = money.Add(total, share); err != nil {
			return nil, apperr.Invariant("shares", "expense %s custom split: %v", e.ID, err)
		}
		if _, ok := shares[id]; !ok {
			if share == 0 {
				continue
			}
			return nil, apperr.Invalid("split", "expense %s references %s, who is no longer a member of the bill", e.ID, id)
		}
		shares[id] = share
	}

	if total != e.Amount {
		return nil, apperr.Invariant("shares", "expense %s custom split sums to %s, amount is %s", e.ID, total, e.Amount)
	}
	return shares, nil
}

// ValidateCustomSplit checks a custom split before it is written. Every key
// must be a member, every share must lie in [0, MaxAmount], and the shares
// must add up to amount exactly.
func ValidateCustomSplit(amount money.Cents, split map[string]money.Cents, members []string) error {
	if len(split) == 0 {
		return apperr.Invalid("split", "custom split requires at least one share")
	}

	memberSet := make(map[string]struct{}, len(members))
	for _, id := range members {
		memberSet[id] = struct{}{}
	}

	var total money.Cents
	for _, id := range sortedKeys(split) {
		share := split[id]
		if _, ok := memberSet[id]; !ok {
			return apperr.Invalid("split", "%s is not a member of the bill", id)
		}
		if share < 0 {
			return apperr.Invalid("split", "share for %s is %s, must not be negative", id, share)
		}
		if share > money.MaxAmount {
			return apperr.Invalid("split", "share for %s exceeds the maximum of %s", id, money.MaxAmount)
		}
		var err error
		if total, err = money.Add(total, share); err != nil {
			return apperr.Invalid("split", "shares sum out of range")
		}
	}

	if total != amount {
		return apperr.Invalid("split", "shares sum to %s but amount is %s (off by %s)", total, amount, (total - amount).Abs())
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
