package registry

import (
	"github.com/mmynk/splitbill/internal/models"
)

// Roster is a consistent snapshot of a bill and everyone attached to it.
type Roster struct {
	Bill *models.Bill

	// Participants holds every row in creation order, pending invitations included.
	Participants []*models.Participant

	// Members is the settleable set: host first, then accepted registered
	// participants, then guests, each group in creation order.
	Members []models.Member

	names map[string]string // user ID -> display name
}

// Identities returns the identity of every member, in roster order.
func (r *Roster) Identities() []string {
	return models.Identities(r.Members)
}

// IsMember reports whether identity belongs to a current member.
func (r *Roster) IsMember(identity string) bool {
	for _, m := range r.Members {
		if m.Identity == identity {
			return true
		}
	}
	return false
}

// Member returns the member with the given identity.
func (r *Roster) Member(identity string) (models.Member, bool) {
	for _, m := range r.Members {
		if m.Identity == identity {
			return m, true
		}
	}
	return models.Member{}, false
}

// DisplayName returns the label shown for a participant row.
func (r *Roster) DisplayName(p *models.Participant) string {
	if p.Kind == models.ParticipantGuest {
		return p.GuestName
	}
	if name, ok := r.names[p.UserID]; ok {
		return name
	}
	return p.UserID
}

// IsHost reports whether userID hosts the bill.
func (r *Roster) IsHost(userID string) bool {
	return r.Bill.HostID == userID
}

func buildRoster(bill *models.Bill, participants []*models.Participant, users map[string]*models.User) *Roster {
	r := &Roster{
		Bill:         bill,
		Participants: participants,
		names:        make(map[string]string, len(users)),
	}
	for id, u := range users {
		r.names[id] = u.Name()
	}

	hostName := bill.HostID
	if name, ok := r.names[bill.HostID]; ok {
		hostName = name
	}
	r.Members = append(r.Members, models.Member{
		Identity:    bill.HostID,
		DisplayName: hostName,
		Kind:        models.MemberHost,
	})

	for _, p := range participants {
		if p.Kind == models.ParticipantRegistered && p.Accepted {
			r.Members = append(r.Members, models.Member{
				Identity:      p.Identity(),
				DisplayName:   r.DisplayName(p),
				Kind:          models.MemberRegistered,
				ParticipantID: p.ID,
			})
		}
	}
	for _, p := range participants {
		if p.Kind == models.ParticipantGuest {
			r.Members = append(r.Members, models.Member{
				Identity:      p.Identity(),
				DisplayName:   p.GuestName,
				Kind:          models.MemberGuest,
				ParticipantID: p.ID,
			})
		}
	}

	return r
}
