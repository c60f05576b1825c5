package account

import "time"

// LoginType identifies which identifier channel a login used.
type LoginType string

const (
	LoginTypeEmail      LoginType = "email"
	LoginTypeNationalID LoginType = "national_id"
	LoginTypePhone      LoginType = "phone_number"
)

// Valid reports whether the login type is one of the supported channels.
func (t LoginType) Valid() bool {
	switch t {
	case LoginTypeEmail, LoginTypeNationalID, LoginTypePhone:
		return true
	}
	return false
}

// Account is the root record. Any of the three identifier fields may be empty,
// but a usable account carries at least one; each populated value is unique
// across all accounts.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	NationalID   string    `json:"national_id,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	Admin        bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginMethod binds one identifier value to one account. The identifier is
// unique across the whole index; an account holds at most one method per type.
type LoginMethod struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Type       LoginType `json:"login_type"`
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Profile holds the one-to-one companion record of an account.
type Profile struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Bio       string     `json:"bio,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RefreshToken is the persisted half of a refresh credential. Only the sha256
// digest of the client secret is stored.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// TokenPair carries access and refresh tokens along with their expirations.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
