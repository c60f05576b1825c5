package account

import (
	"context"
	"time"
)

// Store describes persistence operations required by the account subsystem.
type Store interface {
	Accounts(ctx context.Context) AccountStore
	LoginMethods(ctx context.Context) LoginMethodStore
	Profiles(ctx context.Context) ProfileStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
}

// AccountUpdate carries the mutable account fields; nil means unchanged.
type AccountUpdate struct {
	Email        *string
	NationalID   *string
	PhoneNumber  *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
	Active       *bool
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Bio       *string
	AvatarURL *string
	BirthDate *time.Time
}

// AccountStore manages account records. Uniqueness of the identifier columns
// is enforced by the store itself; a violated constraint surfaces as
// ErrConflict.
type AccountStore interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByField(ctx context.Context, field LoginType, value string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Update(ctx context.Context, id string, upd AccountUpdate) (*Account, error)
	// Delete removes the account and cascades to its login methods, profile
	// and refresh tokens.
	Delete(ctx context.Context, id string) error
}

// LoginMethodStore manages the identifier index.
type LoginMethodStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*LoginMethod, error)
	// Upsert inserts or replaces the account's method of the given type in a
	// single atomic statement. A value already owned by a different account
	// yields ErrConflict.
	Upsert(ctx context.Context, accountID string, loginType LoginType, identifier string) (*LoginMethod, error)
	Get(ctx context.Context, id string) (*LoginMethod, error)
	ListByAccount(ctx context.Context, accountID string) ([]*LoginMethod, error)
	Delete(ctx context.Context, id string) error
}

// ProfileStore manages the one-to-one profile records.
type ProfileStore interface {
	// Create inserts the profile; an already existing profile for the same
	// account yields ErrConflict.
	Create(ctx context.Context, p *Profile) error
	FindByAccount(ctx context.Context, accountID string) (*Profile, error)
	Update(ctx context.Context, accountID string, upd ProfileUpdate) (*Profile, error)
}

// RefreshTokenStore manages refresh token lifecycle.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	MarkRevoked(ctx context.Context, id string) error
	MarkRevokedByAccount(ctx context.Context, accountID string) error
}
