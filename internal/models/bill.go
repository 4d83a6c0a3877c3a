package models

// Bill represents a shared bill that participants record expenses against.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// HostID is the user ID of the creator. The host is always an implicit,
	// accepted member and never appears as a Participant row.
	HostID string

	// Code is the unique join code (8 upper-case alphanumerics).
	Code string

	// Name is the display name of the bill (e.g., "Lisbon trip").
	Name string

	// Archived bills are hidden from the default listing and reject new expenses.
	Archived bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// ParticipantKind distinguishes registered users from email-only guests.
type ParticipantKind string

const (
	ParticipantRegistered ParticipantKind = "registered"
	ParticipantGuest      ParticipantKind = "guest"
)

// Participant attaches a person to exactly one bill.
type Participant struct {
	// ID is the unique identifier for the participant row (UUID format).
	// For guests it doubles as their identity.
	ID string

	BillID string
	Kind   ParticipantKind

	// UserID is set for registered participants only.
	UserID string

	// GuestName and GuestEmail are set for guests only.
	GuestName  string
	GuestEmail string

	// Accepted is false while a registered user has been invited but has not
	// joined. Guests are always created accepted.
	Accepted bool

	CreatedAt int64
}

// Identity returns the identity this participant pays and owes under.
func (p *Participant) Identity() string {
	if p.Kind == ParticipantRegistered {
		return p.UserID
	}
	return p.ID
}

// MemberKind is the role of a resolved member.
type MemberKind string

const (
	MemberHost       MemberKind = "host"
	MemberRegistered MemberKind = "registered"
	MemberGuest      MemberKind = "guest"
)

// Member is a settleable identity resolved from a bill's host and participants.
type Member struct {
	Identity    string
	DisplayName string
	Kind        MemberKind

	// ParticipantID is empty for the host.
	ParticipantID string
}

// Identities returns the identity of every member, in order.
func Identities(members []Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Identity
	}
	return ids
}
