package registry

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/lock"
	"github.com/mmynk/splitbill/internal/models"
)

// CreateBill creates a bill hosted by the caller.
func (r *Registry) CreateBill(ctx context.Context, caller models.Caller, name string) (*models.Bill, error) {
	name, err := billName(name)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpsertUser(ctx, caller.User()); err != nil {
		return nil, err
	}

	bill := &models.Bill{HostID: caller.UserID, Name: name}
	if err := r.store.CreateBill(ctx, bill); err != nil {
		return nil, err
	}

	slog.Info("Bill created", "bill_id", bill.ID, "host_id", bill.HostID)
	return bill, nil
}

// ListBills returns the bills the caller hosts or has joined.
func (r *Registry) ListBills(ctx context.Context, caller models.Caller, archived bool) ([]*models.Bill, error) {
	return r.store.ListBillsForUser(ctx, caller.UserID, archived)
}

// RenameBill changes a bill's name. Host only.
func (r *Registry) RenameBill(ctx context.Context, caller models.Caller, billID, name string) (*models.Bill, error) {
	name, err := billName(name)
	if err != nil {
		return nil, err
	}
	return r.updateBill(ctx, caller, billID, "rename bill", func(b *models.Bill) error {
		if b.Archived {
			return apperr.Invalid("bill_id", "bill is archived")
		}
		b.Name = name
		return nil
	})
}

// SetArchived archives or restores a bill. Host only. This is the one
// update an archived bill accepts.
func (r *Registry) SetArchived(ctx context.Context, caller models.Caller, billID string, archived bool) (*models.Bill, error) {
	return r.updateBill(ctx, caller, billID, "archive bill", func(b *models.Bill) error {
		b.Archived = archived
		return nil
	})
}

func (r *Registry) updateBill(ctx context.Context, caller models.Caller, billID, action string, apply func(*models.Bill) error) (*models.Bill, error) {
	var bill *models.Bill
	err := r.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		roster, err := r.AuthorizeHost(ctx, caller, billID, action)
		if err != nil {
			return err
		}
		bill = roster.Bill
		if err := apply(bill); err != nil {
			return err
		}
		return r.store.UpdateBill(ctx, bill)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// RegenerateCode replaces the bill's join code. Host only.
func (r *Registry) RegenerateCode(ctx context.Context, caller models.Caller, billID string) (string, error) {
	var code string
	err := r.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		roster, err := r.AuthorizeHost(ctx, caller, billID, "regenerate join code")
		if err != nil {
			return err
		}
		if roster.Bill.Archived {
			return apperr.Invalid("bill_id", "bill is archived")
		}
		code, err = r.store.RegenerateCode(ctx, billID)
		return err
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// DeleteBill removes a bill with its participants and expenses. Host only.
func (r *Registry) DeleteBill(ctx context.Context, caller models.Caller, billID string) error {
	err := r.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		if _, err := r.AuthorizeHost(ctx, caller, billID, "delete bill"); err != nil {
			return err
		}
		return r.store.DeleteBill(ctx, billID)
	})
	if err != nil {
		return err
	}

	slog.Info("Bill deleted", "bill_id", billID)
	return nil
}

// PreviewByCode looks up a bill by join code and returns it with the host's
// display name. Any authenticated user may preview.
func (r *Registry) PreviewByCode(ctx context.Context, code string) (*models.Bill, string, error) {
	bill, err := r.store.GetBillByCode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	hostName := bill.HostID
	if host, err := r.store.GetUserByID(ctx, bill.HostID); err == nil {
		hostName = host.Name()
	}
	return bill, hostName, nil
}

func billName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperr.Invalid("name", "must be at most %d characters", maxNameLength)
	}
	return name, nil
}
