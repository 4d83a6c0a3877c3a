package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/models"
)

const participantColumns = "id, bill_id, kind, user_id, guest_name, guest_email, accepted, created_at"

// AddParticipant inserts a participant row.
func (s *SQLiteStore) AddParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO bill_participants ("+participantColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.BillID, string(p.Kind),
		nullString(p.UserID), nullString(p.GuestName), nullString(p.GuestEmail),
		p.Accepted, p.CreatedAt,
	)
	switch {
	case isUniqueViolation(err, "bill_participants.user_id"):
		return apperr.Invalid("user_id", "user %s is already a participant of this bill", p.UserID)
	case isUniqueViolation(err, "bill_participants.guest_email"):
		return apperr.Invalid("guest_email", "a guest with email %s is already on this bill", p.GuestEmail)
	case err != nil:
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves one participant of a bill.
func (s *SQLiteStore) GetParticipant(ctx context.Context, billID, participantID string) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM bill_participants WHERE bill_id = ? AND id = ?",
		billID, participantID,
	)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("participant", participantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// ListParticipants returns every participant of a bill in creation order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, billID string) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+participantColumns+" FROM bill_participants WHERE bill_id = ? ORDER BY created_at, rowid",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return participants, nil
}

// AcceptParticipant marks a pending invitation as accepted.
func (s *SQLiteStore) AcceptParticipant(ctx context.Context, billID, participantID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE bill_participants SET accepted = 1 WHERE bill_id = ? AND id = ?",
		billID, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to accept participant: %w", err)
	}
	return expectOneRow(result, "participant", participantID)
}

// RemoveParticipant deletes a participant row.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, billID, participantID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM bill_participants WHERE bill_id = ? AND id = ?",
		billID, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return expectOneRow(result, "participant", participantID)
}

func scanParticipant(row scanner) (*models.Participant, error) {
	p := &models.Participant{}
	var kind string
	var userID, guestName, guestEmail sql.NullString
	err := row.Scan(&p.ID, &p.BillID, &kind, &userID, &guestName, &guestEmail, &p.Accepted, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Kind = models.ParticipantKind(kind)
	p.UserID = userID.String
	p.GuestName = guestName.String
	p.GuestEmail = guestEmail.String
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
