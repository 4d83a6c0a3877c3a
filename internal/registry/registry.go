// Package registry manages who belongs to a bill: it resolves the settleable
// member set and runs the participant commands (add, remove, join).
package registry

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/lock"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

const maxNameLength = 255

// ParticipantInput describes a participant to add.
type ParticipantInput struct {
	Kind models.ParticipantKind

	// UserID identifies the user for a registered participant.
	UserID string
	// Accepted adds a registered user directly instead of inviting them.
	Accepted bool

	// GuestName and GuestEmail describe a guest.
	GuestName  string
	GuestEmail string
}

// Registry resolves and mutates bill membership. Mutations are serialized
// per bill with the locker.
type Registry struct {
	store  storage.Store
	locker lock.Locker
}

// New creates a Registry.
func New(store storage.Store, locker lock.Locker) *Registry {
	return &Registry{store: store, locker: locker}
}

// ResolveParticipants returns the settleable members of a bill: the host
// first, then accepted registered participants, then guests. It is
// Roster(ctx, billID).Members; callers that already hold a Roster from
// Authorize read Members from it so both come from one snapshot.
func (r *Registry) ResolveParticipants(ctx context.Context, billID string) ([]models.Member, error) {
	roster, err := r.Roster(ctx, billID)
	if err != nil {
		return nil, err
	}
	return roster.Members, nil
}

// Roster loads a snapshot of the bill and its participants.
func (r *Registry) Roster(ctx context.Context, billID string) (*Roster, error) {
	bill, err := r.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	return r.rosterFor(ctx, bill)
}

func (r *Registry) rosterFor(ctx context.Context, bill *models.Bill) (*Roster, error) {
	participants, err := r.store.ListParticipants(ctx, bill.ID)
	if err != nil {
		return nil, err
	}

	userIDs := []string{bill.HostID}
	for _, p := range participants {
		if p.Kind == models.ParticipantRegistered {
			userIDs = append(userIDs, p.UserID)
		}
	}
	users, err := r.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	return buildRoster(bill, participants, users), nil
}

// Authorize loads the roster and checks that the caller is the host or an
// accepted registered participant.
func (r *Registry) Authorize(ctx context.Context, caller models.Caller, billID string) (*Roster, error) {
	roster, err := r.Roster(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !roster.IsHost(caller.UserID) && !roster.IsMember(caller.UserID) {
		return nil, apperr.Forbidden("access bill " + billID)
	}
	return roster, nil
}

// AuthorizeHost loads the roster and checks that the caller hosts the bill.
func (r *Registry) AuthorizeHost(ctx context.Context, caller models.Caller, billID, action string) (*Roster, error) {
	roster, err := r.Roster(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !roster.IsHost(caller.UserID) {
		return nil, apperr.Forbidden(action)
	}
	return roster, nil
}

// AddParticipant attaches a registered user or a guest to a bill. Host only.
func (r *Registry) AddParticipant(ctx context.Context, caller models.Caller, billID string, in ParticipantInput) (*models.Participant, error) {
	var added *models.Participant
	err := r.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		roster, err := r.AuthorizeHost(ctx, caller, billID, "add participants")
		if err != nil {
			return err
		}
		if roster.Bill.Archived {
			return apperr.Invalid("bill_id", "bill is archived")
		}

		p, err := r.newParticipant(ctx, roster.Bill, in)
		if err != nil {
			return err
		}
		if err := r.store.AddParticipant(ctx, p); err != nil {
			return err
		}
		added = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Participant added", "bill_id", billID, "participant_id", added.ID, "kind", added.Kind)
	return added, nil
}

func (r *Registry) newParticipant(ctx context.Context, bill *models.Bill, in ParticipantInput) (*models.Participant, error) {
	switch in.Kind {
	case models.ParticipantRegistered:
		if in.UserID == "" {
			return nil, apperr.Invalid("user_id", "is required for a registered participant")
		}
		if in.UserID == bill.HostID {
			return nil, apperr.Invalid("user_id", "the host is already a member of the bill")
		}
		if _, err := r.store.GetUserByID(ctx, in.UserID); err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.Invalid("user_id", "no registered user %s", in.UserID)
			}
			return nil, err
		}
		return &models.Participant{
			BillID:   bill.ID,
			Kind:     models.ParticipantRegistered,
			UserID:   in.UserID,
			Accepted: in.Accepted,
		}, nil

	case models.ParticipantGuest:
		name := strings.TrimSpace(in.GuestName)
		if name == "" {
			return nil, apperr.Invalid("guest_name", "is required for a guest")
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			return nil, apperr.Invalid("guest_name", "must be at most %d characters", maxNameLength)
		}
		email := strings.ToLower(strings.TrimSpace(in.GuestEmail))
		if _, err := mail.ParseAddress(email); err != nil || email == "" {
			return nil, apperr.Invalid("guest_email", "must be a valid email address")
		}
		return &models.Participant{
			BillID:     bill.ID,
			Kind:       models.ParticipantGuest,
			GuestName:  name,
			GuestEmail: email,
			Accepted:   true,
		}, nil

	default:
		return nil, apperr.Invalid("kind", "must be one of [registered guest]")
	}
}

// RemoveParticipant detaches a participant from a bill. Host only.
//
// A participant whose identity paid for an expense, or holds a non-zero
// share in a custom split, cannot be removed until those expenses are edited
// or deleted. Zero-share entries do not block removal.
func (r *Registry) RemoveParticipant(ctx context.Context, caller models.Caller, billID, participantID string) error {
	err := r.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		roster, err := r.AuthorizeHost(ctx, caller, billID, "remove participants")
		if err != nil {
			return err
		}
		if roster.Bill.Archived {
			return apperr.Invalid("bill_id", "bill is archived")
		}

		p, err := r.store.GetParticipant(ctx, billID, participantID)
		if err != nil {
			return err
		}

		expenses, err := r.store.ListExpenses(ctx, billID)
		if err != nil {
			return err
		}
		if err := checkUnreferenced(p.Identity(), expenses); err != nil {
			return err
		}

		return r.store.RemoveParticipant(ctx, billID, participantID)
	})
	if err != nil {
		return err
	}

	slog.Info("Participant removed", "bill_id", billID, "participant_id", participantID)
	return nil
}

func checkUnreferenced(identity string, expenses []*models.Expense) error {
	for _, e := range expenses {
		if e.PayerID == identity {
			return apperr.Invalid("participant_id", "participant paid for expense %q; reassign or remove it first", e.Name)
		}
		if e.Policy == models.SplitCustom && e.Split[identity] != 0 {
			return apperr.Invalid("participant_id", "participant owes %s in expense %q; edit its split first", e.Split[identity], e.Name)
		}
	}
	return nil
}

// Join adds the caller to the bill with the given join code. A pending
// invitation is accepted; otherwise a new accepted row is created. The host
// joining their own bill is a no-op and returns a nil participant.
func (r *Registry) Join(ctx context.Context, caller models.Caller, code string) (*models.Bill, *models.Participant, error) {
	if err := r.store.UpsertUser(ctx, caller.User()); err != nil {
		return nil, nil, err
	}
	found, err := r.store.GetBillByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	var (
		bill   *models.Bill
		joined *models.Participant
	)
	err = r.locker.WithLock(ctx, lock.BillKey(found.ID), func(ctx context.Context) error {
		roster, err := r.Roster(ctx, found.ID)
		if err != nil {
			return err
		}
		bill = roster.Bill
		if bill.Archived {
			return apperr.Invalid("code", "bill is archived")
		}
		if roster.IsHost(caller.UserID) {
			return nil
		}

		for _, p := range roster.Participants {
			if p.Kind != models.ParticipantRegistered || p.UserID != caller.UserID {
				continue
			}
			if !p.Accepted {
				if err := r.store.AcceptParticipant(ctx, bill.ID, p.ID); err != nil {
					return err
				}
				p.Accepted = true
			}
			joined = p
			return nil
		}

		p := &models.Participant{
			BillID:   bill.ID,
			Kind:     models.ParticipantRegistered,
			UserID:   caller.UserID,
			Accepted: true,
		}
		if err := r.store.AddParticipant(ctx, p); err != nil {
			return err
		}
		joined = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if joined != nil {
		slog.Info("Participant joined", "bill_id", bill.ID, "user_id", caller.UserID, "participant_id", joined.ID)
	}
	return bill, joined, nil
}

// ListParticipants returns the roster of a bill the caller belongs to.
func (r *Registry) ListParticipants(ctx context.Context, caller models.Caller, billID string) (*Roster, error) {
	return r.Authorize(ctx, caller, billID)
}
