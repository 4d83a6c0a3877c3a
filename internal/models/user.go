package models

// User represents a registered user account.
//
// Rows are upserted from the authenticated caller's token claims. No
// credential material is stored here.
type User struct {
	// ID is the unique identifier for the user, taken from the token subject.
	ID string

	// Email is the user's email address.
	Email string

	// DisplayName is shown in participant lists and balances.
	DisplayName string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Name returns the best available label for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

// Caller is the authenticated identity behind a request. It is passed
// explicitly into every registry, ledger and settlement operation.
type Caller struct {
	UserID      string
	Email       string
	DisplayName string
}

// User returns the caller as a User row for upserting.
func (c Caller) User() *User {
	return &User{ID: c.UserID, Email: c.Email, DisplayName: c.DisplayName}
}
