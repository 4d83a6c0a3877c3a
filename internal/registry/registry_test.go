package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/lock"
	"github.com/mmynk/splitbill/internal/lock/mocklock"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
	"github.com/mmynk/splitbill/internal/storage/sqlite"
)

var (
	host  = models.Caller{UserID: "host", Email: "host@example.com", DisplayName: "Hana"}
	bob   = models.Caller{UserID: "bob", Email: "bob@example.com", DisplayName: "Bob"}
	carol = models.Caller{UserID: "carol", Email: "carol@example.com", DisplayName: "Carol"}
)

func setup(t *testing.T) (*Registry, *sqlite.SQLiteStore) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, c := range []models.Caller{host, bob, carol} {
		require.NoError(t, store.UpsertUser(ctx, c.User()))
	}
	return New(store, lock.NewLocal(time.Second, nil)), store
}

func addGuest(t *testing.T, r *Registry, billID, name string) *models.Participant {
	t.Helper()
	p, err := r.AddParticipant(context.Background(), host, billID, ParticipantInput{
		Kind:       models.ParticipantGuest,
		GuestName:  name,
		GuestEmail: name + "@guests.example.com",
	})
	require.NoError(t, err)
	return p
}

func TestResolveParticipants_Order(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	bill, err := r.CreateBill(ctx, host, "Trip")
	require.NoError(t, err)

	guest := addGuest(t, r, bill.ID, "gus")
	_, err = r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantRegistered, UserID: "bob", Accepted: true})
	require.NoError(t, err)
	_, err = r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantRegistered, UserID: "carol"})
	require.NoError(t, err)

	members, err := r.ResolveParticipants(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Member{
		{Identity: "host", DisplayName: "Hana", Kind: models.MemberHost},
		{Identity: "bob", DisplayName: "Bob", Kind: models.MemberRegistered, ParticipantID: members[1].ParticipantID},
		{Identity: guest.ID, DisplayName: "gus", Kind: models.MemberGuest, ParticipantID: guest.ID},
	}, members, "pending invitation for carol must be excluded")

	_, err = r.ResolveParticipants(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddParticipant_Validation(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	bill, err := r.CreateBill(ctx, host, "Trip")
	require.NoError(t, err)
	addGuest(t, r, bill.ID, "gus")

	tests := []struct {
		name      string
		caller    models.Caller
		in        ParticipantInput
		wantField string
		wantPerm  bool
	}{
		{name: "host as participant", caller: host, in: ParticipantInput{Kind: models.ParticipantRegistered, UserID: "host"}, wantField: "user_id"},
		{name: "unknown user", caller: host, in: ParticipantInput{Kind: models.ParticipantRegistered, UserID: "nobody"}, wantField: "user_id"},
		{name: "guest without name", caller: host, in: ParticipantInput{Kind: models.ParticipantGuest, GuestEmail: "x@example.com"}, wantField: "guest_name"},
		{name: "guest with bad email", caller: host, in: ParticipantInput{Kind: models.ParticipantGuest, GuestName: "X", GuestEmail: "not-an-email"}, wantField: "guest_email"},
		{name: "duplicate guest email", caller: host, in: ParticipantInput{Kind: models.ParticipantGuest, GuestName: "Gus 2", GuestEmail: "GUS@guests.example.com"}, wantField: "guest_email"},
		{name: "unknown kind", caller: host, in: ParticipantInput{Kind: "robot"}, wantField: "kind"},
		{name: "non-host", caller: bob, in: ParticipantInput{Kind: models.ParticipantGuest, GuestName: "X", GuestEmail: "x@example.com"}, wantPerm: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.AddParticipant(ctx, tt.caller, bill.ID, tt.in)
			if tt.wantPerm {
				assert.True(t, apperr.IsPermission(err), "got %v", err)
				return
			}
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	t.Run("duplicate registered user", func(t *testing.T) {
		_, err := r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantRegistered, UserID: "bob"})
		require.NoError(t, err)
		_, err = r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantRegistered, UserID: "bob"})
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "user_id", ve.Field)
	})

	t.Run("archived bill", func(t *testing.T) {
		_, err := r.SetArchived(ctx, host, bill.ID, true)
		require.NoError(t, err)
		defer r.SetArchived(ctx, host, bill.ID, false)

		_, err = r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantGuest, GuestName: "Late", GuestEmail: "late@example.com"})
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "bill_id", ve.Field)
	})
}

func TestJoin(t *testing.T) {
	r, store := setup(t)
	ctx := context.Background()
	bill, err := r.CreateBill(ctx, host, "Trip")
	require.NoError(t, err)

	invite, err := r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantRegistered, UserID: "bob"})
	require.NoError(t, err)
	require.False(t, invite.Accepted)

	t.Run("accepts a pending invitation", func(t *testing.T) {
		_, p, err := r.Join(ctx, bob, bill.Code)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, invite.ID, p.ID)
		assert.True(t, p.Accepted)
	})

	t.Run("joining twice is idempotent", func(t *testing.T) {
		_, p, err := r.Join(ctx, bob, bill.Code)
		require.NoError(t, err)
		assert.Equal(t, invite.ID, p.ID)

		rows, err := store.ListParticipants(ctx, bill.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("creates an accepted row for a new user", func(t *testing.T) {
		dana := models.Caller{UserID: "dana", Email: "dana@example.com", DisplayName: "Dana"}
		_, p, err := r.Join(ctx, dana, bill.Code)
		require.NoError(t, err)
		assert.True(t, p.Accepted)
		assert.Equal(t, "dana", p.UserID)

		members, err := r.ResolveParticipants(ctx, bill.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"host", "bob", "dana"}, models.Identities(members))
	})

	t.Run("host joining is a no-op", func(t *testing.T) {
		got, p, err := r.Join(ctx, host, bill.Code)
		require.NoError(t, err)
		assert.Nil(t, p)
		assert.Equal(t, bill.ID, got.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, _, err := r.Join(ctx, carol, "ZZZZZZZZ")
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestRemoveParticipant_Policy(t *testing.T) {
	r, store := setup(t)
	ctx := context.Background()
	bill, err := r.CreateBill(ctx, host, "Trip")
	require.NoError(t, err)

	payer := addGuest(t, r, bill.ID, "payer")
	debtor := addGuest(t, r, bill.ID, "debtor")
	zero := addGuest(t, r, bill.ID, "zero")
	idle := addGuest(t, r, bill.ID, "idle")

	require.NoError(t, store.CreateExpense(ctx, &models.Expense{
		BillID: bill.ID, Name: "Taxi", Amount: 3000, PayerID: payer.ID, Policy: models.SplitEqual, CreatedBy: "host",
	}))
	require.NoError(t, store.CreateExpense(ctx, &models.Expense{
		BillID: bill.ID, Name: "Tickets", Amount: 1000, PayerID: "host", Policy: models.SplitCustom,
		Split:     map[string]money.Cents{"host": 500, debtor.ID: 500, zero.ID: 0},
		CreatedBy: "host",
	}))

	t.Run("payer cannot be removed", func(t *testing.T) {
		err := r.RemoveParticipant(ctx, host, bill.ID, payer.ID)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "participant_id", ve.Field)
		assert.Contains(t, ve.Problem, "Taxi")
	})

	t.Run("non-zero custom share blocks removal", func(t *testing.T) {
		err := r.RemoveParticipant(ctx, host, bill.ID, debtor.ID)
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Problem, "Tickets")
	})

	t.Run("zero share does not block removal and keeps the expense", func(t *testing.T) {
		require.NoError(t, r.RemoveParticipant(ctx, host, bill.ID, zero.ID))
		expenses, err := store.ListExpenses(ctx, bill.ID)
		require.NoError(t, err)
		assert.Len(t, expenses, 2)
	})

	t.Run("unreferenced participant", func(t *testing.T) {
		require.NoError(t, r.RemoveParticipant(ctx, host, bill.ID, idle.ID))
		_, err := store.GetParticipant(ctx, bill.ID, idle.ID)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("non-host", func(t *testing.T) {
		err := r.RemoveParticipant(ctx, bob, bill.ID, debtor.ID)
		assert.True(t, apperr.IsPermission(err))
	})

	t.Run("missing participant", func(t *testing.T) {
		err := r.RemoveParticipant(ctx, host, bill.ID, "missing")
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestAddParticipant_LockBusy(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	ctrl := gomock.NewController(t)
	locker := mocklock.NewMockLocker(ctrl)
	locker.EXPECT().
		WithLock(gomock.Any(), "bill:b1", gomock.Any()).
		Return(&apperr.ResourceBusyError{Resource: "bill:b1", Waited: 5 * time.Second})

	r := New(store, locker)
	_, err = r.AddParticipant(context.Background(), host, "b1", ParticipantInput{Kind: models.ParticipantGuest, GuestName: "G", GuestEmail: "g@example.com"})
	assert.True(t, apperr.IsBusy(err), "got %v", err)
}

func TestBillCommands(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	bill, err := r.CreateBill(ctx, host, "  Lisbon  ")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", bill.Name)

	_, err = r.CreateBill(ctx, host, "   ")
	assert.True(t, apperr.IsValidation(err))

	t.Run("rename is host only", func(t *testing.T) {
		_, err := r.RenameBill(ctx, bob, bill.ID, "Hijacked")
		assert.True(t, apperr.IsPermission(err))

		renamed, err := r.RenameBill(ctx, host, bill.ID, "Porto")
		require.NoError(t, err)
		assert.Equal(t, "Porto", renamed.Name)
	})

	t.Run("archive moves the bill between listings", func(t *testing.T) {
		_, err := r.SetArchived(ctx, host, bill.ID, true)
		require.NoError(t, err)

		active, err := r.ListBills(ctx, host, false)
		require.NoError(t, err)
		assert.Empty(t, active)

		archived, err := r.ListBills(ctx, host, true)
		require.NoError(t, err)
		require.Len(t, archived, 1)

		var ve *apperr.ValidationError
		_, err = r.RenameBill(ctx, host, bill.ID, "Faro")
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "bill_id", ve.Field)
		_, err = r.RegenerateCode(ctx, host, bill.ID)
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "bill_id", ve.Field)

		roster, err := r.Roster(ctx, bill.ID)
		require.NoError(t, err)
		assert.Equal(t, "Porto", roster.Bill.Name)
		assert.Equal(t, bill.Code, roster.Bill.Code)

		restored, err := r.SetArchived(ctx, host, bill.ID, false)
		require.NoError(t, err)
		assert.False(t, restored.Archived)
	})

	t.Run("preview by code names the host", func(t *testing.T) {
		got, hostName, err := r.PreviewByCode(ctx, bill.Code)
		require.NoError(t, err)
		assert.Equal(t, bill.ID, got.ID)
		assert.Equal(t, "Hana", hostName)
	})

	t.Run("regenerate code", func(t *testing.T) {
		code, err := r.RegenerateCode(ctx, host, bill.ID)
		require.NoError(t, err)
		assert.NotEqual(t, bill.Code, code)

		_, err = r.RegenerateCode(ctx, bob, bill.ID)
		assert.True(t, apperr.IsPermission(err))
	})

	t.Run("members may read, others may not", func(t *testing.T) {
		_, err := r.Authorize(ctx, bob, bill.ID)
		assert.True(t, apperr.IsPermission(err))

		_, err = r.AddParticipant(ctx, host, bill.ID, ParticipantInput{Kind: models.ParticipantRegistered, UserID: "bob", Accepted: true})
		require.NoError(t, err)
		roster, err := r.ListParticipants(ctx, bob, bill.ID)
		require.NoError(t, err)
		require.Len(t, roster.Participants, 1)
		assert.Equal(t, "Bob", roster.DisplayName(roster.Participants[0]))

		members, err := r.ResolveParticipants(ctx, bill.ID)
		require.NoError(t, err)
		assert.Equal(t, roster.Members, members)
	})

	t.Run("delete", func(t *testing.T) {
		assert.True(t, apperr.IsPermission(r.DeleteBill(ctx, bob, bill.ID)))
		require.NoError(t, r.DeleteBill(ctx, host, bill.ID))
		_, err := r.Roster(ctx, bill.ID)
		assert.True(t, apperr.IsNotFound(err))
	})
}
