package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"accountd.org/internal/ids"
	"accountd.org/internal/obs"
)

const (
	defaultIssuer     = "accountd"
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 5 * 24 * time.Hour

	minPasswordLength = 8
	maxNationalIDLen  = 13
)

// Service implements registration, multi-identifier authentication and
// session credential issuance on top of a Store.
type Service struct {
	store Store
	now   func() time.Time

	tokenSecret []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithTokenSecret enables token issuance and verification using the provided
// HS256 secret.
func WithTokenSecret(secret string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(secret) == "" {
			return nil
		}
		s.tokenSecret = []byte(secret)
		return nil
	}
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs a Service with optional configuration.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	svc := &Service{
		store:      store,
		now:        time.Now,
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// SupportsTokens reports whether token issuance is configured.
func (s *Service) SupportsTokens() bool {
	return len(s.tokenSecret) > 0
}

// RegisterParams carries the public registration fields.
type RegisterParams struct {
	Email       string
	NationalID  string
	PhoneNumber string
	FirstName   string
	LastName    string
	Password    string
}

// Register creates an account with at least one identifier and a hashed
// password, then provisions its profile.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*Account, error) {
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}
	nationalID, err := normalizeNationalID(p.NationalID)
	if err != nil {
		return nil, err
	}
	phone, err := normalizePhone(p.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if email == "" && nationalID == "" && phone == "" {
		return nil, fmt.Errorf("%w: at least one of email, national_id or phone_number is required", ErrMissingIdentifier)
	}
	if len(p.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		ID:           ids.New(),
		Email:        email,
		NationalID:   nationalID,
		PhoneNumber:  phone,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.store.Accounts(ctx).Create(ctx, a); err != nil {
		return nil, err
	}
	s.ensureProfile(ctx, a.ID)
	return a, nil
}

// Authenticate resolves a single identifier of any type to an account and
// verifies the secret against it. The login-method index is consulted first so
// that an identifier rebound to another account wins over a stale email field.
func (s *Service) Authenticate(ctx context.Context, identifier, secret string) (*Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	var acct *Account
	method, err := s.store.LoginMethods(ctx).FindByIdentifier(ctx, identifier)
	switch {
	case err == nil:
		acct, err = s.store.Accounts(ctx).Find(ctx, method.AccountID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
	case errors.Is(err, ErrNotFound):
		acct, err = s.store.Accounts(ctx).FindByEmail(ctx, identifier)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}
	default:
		return nil, err
	}

	if !acct.Active {
		return nil, ErrAccountDisabled
	}
	if err := VerifyPassword(acct.PasswordHash, secret); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// Credentials carries the multi-field login request. At least one identifier
// field must be set; when several are, email takes precedence over national id
// over phone number.
type Credentials struct {
	Email       string
	NationalID  string
	PhoneNumber string
	Password    string
}

func (c Credentials) channel() (LoginType, string, error) {
	switch {
	case strings.TrimSpace(c.Email) != "":
		return LoginTypeEmail, strings.TrimSpace(strings.ToLower(c.Email)), nil
	case strings.TrimSpace(c.NationalID) != "":
		return LoginTypeNationalID, strings.TrimSpace(c.NationalID), nil
	case strings.TrimSpace(c.PhoneNumber) != "":
		return LoginTypePhone, strings.TrimSpace(c.PhoneNumber), nil
	}
	return "", "", ErrMissingIdentifier
}

// AuthenticateFields verifies the multi-field credentials against a direct
// account-field match. Only the first populated field is tried; the
// login-method index is not consulted on this path.
func (s *Service) AuthenticateFields(ctx context.Context, creds Credentials) (*Account, LoginType, string, error) {
	channel, value, err := creds.channel()
	if err != nil {
		return nil, "", "", err
	}
	if creds.Password == "" {
		return nil, "", "", ErrInvalidCredentials
	}

	acct, err := s.store.Accounts(ctx).FindByField(ctx, channel, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if !acct.Active {
		return nil, "", "", ErrAccountDisabled
	}
	if err := VerifyPassword(acct.PasswordHash, creds.Password); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	return acct, channel, value, nil
}

// Login authenticates the multi-field credentials and issues a session
// credential pair, recording the channel used as a login method.
func (s *Service) Login(ctx context.Context, creds Credentials) (TokenPair, *Account, error) {
	acct, channel, value, err := s.AuthenticateFields(ctx, creds)
	if err != nil {
		return TokenPair{}, nil, err
	}
	pair, err := s.IssueTokens(ctx, acct, channel, value)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, acct, nil
}

// IssueTokens upserts the login-method binding for the channel that
// authenticated and mints an access/refresh pair. When the binding value is
// held by a different account no tokens are issued at all.
func (s *Service) IssueTokens(ctx context.Context, acct *Account, channel LoginType, value string) (TokenPair, error) {
	if !s.SupportsTokens() {
		return TokenPair{}, ErrNotImplemented
	}
	if !channel.Valid() {
		return TokenPair{}, fmt.Errorf("%w: unsupported login type %q", ErrInvalidInput, channel)
	}
	if _, err := s.store.LoginMethods(ctx).Upsert(ctx, acct.ID, channel, value); err != nil {
		return TokenPair{}, err
	}
	return s.mintTokens(ctx, acct)
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued. Expired, revoked or malformed tokens are rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !s.SupportsTokens() {
		return TokenPair{}, ErrNotImplemented
	}
	tokenID, secret, err := splitRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	tokens := s.store.RefreshTokens(ctx)
	rec, err := tokens.Find(ctx, tokenID)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	if rec.Revoked || s.now().After(rec.ExpiresAt) {
		return TokenPair{}, ErrInvalidToken
	}
	if !refreshSecretMatches(rec.TokenHash, secret) {
		// A wrong secret for a known id is a stolen-token signal; burn it.
		_ = tokens.MarkRevoked(ctx, rec.ID)
		return TokenPair{}, ErrInvalidToken
	}

	acct, err := s.store.Accounts(ctx).Find(ctx, rec.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}
	if !acct.Active {
		return TokenPair{}, ErrAccountDisabled
	}

	if err := tokens.MarkRevoked(ctx, rec.ID); err != nil {
		return TokenPair{}, err
	}
	return s.mintTokens(ctx, acct)
}

// AuthenticateToken validates an access token and loads the live principal.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	if !s.SupportsTokens() {
		return Principal{}, ErrNotImplemented
	}
	claims, err := s.verifyAccessToken(token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	acct, err := s.store.Accounts(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	if !acct.Active {
		return Principal{}, ErrInvalidToken
	}
	return Principal{AccountID: acct.ID, Admin: acct.Admin}, nil
}

// Get loads an account by id.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	return s.store.Accounts(ctx).Find(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return s.store.Accounts(ctx).List(ctx)
}

// UpdateParams carries the mutable account fields; nil means unchanged.
type UpdateParams struct {
	Email       *string
	NationalID  *string
	PhoneNumber *string
	FirstName   *string
	LastName    *string
	Password    *string
	Active      *bool
}

// Update validates and applies the account changes, then repairs the profile
// if it went missing.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}

	var upd AccountUpdate
	if p.Email != nil {
		email, err := normalizeEmail(*p.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if p.NationalID != nil {
		nationalID, err := normalizeNationalID(*p.NationalID)
		if err != nil {
			return nil, err
		}
		upd.NationalID = &nationalID
	}
	if p.PhoneNumber != nil {
		phone, err := normalizePhone(*p.PhoneNumber)
		if err != nil {
			return nil, err
		}
		upd.PhoneNumber = &phone
	}
	if p.FirstName != nil {
		name := strings.TrimSpace(*p.FirstName)
		upd.FirstName = &name
	}
	if p.LastName != nil {
		name := strings.TrimSpace(*p.LastName)
		upd.LastName = &name
	}
	if p.Password != nil {
		if len(*p.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
		}
		hash, err := HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}
	upd.Active = p.Active

	acct, err := s.store.Accounts(ctx).Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.ensureProfile(ctx, acct.ID)
	return acct, nil
}

// Delete removes the account; login methods, profile and refresh tokens go
// with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	return s.store.Accounts(ctx).Delete(ctx, id)
}

// ListLoginMethods returns the account's identifier bindings.
func (s *Service) ListLoginMethods(ctx context.Context, accountID string) ([]*LoginMethod, error) {
	return s.store.LoginMethods(ctx).ListByAccount(ctx, accountID)
}

// AddLoginMethod inserts or replaces the account's binding of the given type.
func (s *Service) AddLoginMethod(ctx context.Context, accountID string, loginType LoginType, identifier string) (*LoginMethod, error) {
	if !loginType.Valid() {
		return nil, fmt.Errorf("%w: unsupported login type %q", ErrInvalidInput, loginType)
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrInvalidInput)
	}
	return s.store.LoginMethods(ctx).Upsert(ctx, accountID, loginType, identifier)
}

// GetLoginMethod fetches a binding, enforcing ownership.
func (s *Service) GetLoginMethod(ctx context.Context, accountID, id string) (*LoginMethod, error) {
	method, err := s.store.LoginMethods(ctx).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if method.AccountID != accountID {
		return nil, ErrPermissionDenied
	}
	return method, nil
}

// UpdateLoginMethod rebinds an existing login method to a new identifier,
// enforcing ownership. The binding keeps its type; a request naming a
// different type is rejected.
func (s *Service) UpdateLoginMethod(ctx context.Context, accountID, id string, loginType LoginType, identifier string) (*LoginMethod, error) {
	method, err := s.GetLoginMethod(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if loginType != "" && loginType != method.Type {
		return nil, fmt.Errorf("%w: login type of an existing binding cannot be changed", ErrInvalidInput)
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrInvalidInput)
	}
	return s.store.LoginMethods(ctx).Upsert(ctx, accountID, method.Type, identifier)
}

// RemoveLoginMethod deletes a binding, enforcing ownership.
func (s *Service) RemoveLoginMethod(ctx context.Context, accountID, id string) error {
	if _, err := s.GetLoginMethod(ctx, accountID, id); err != nil {
		return err
	}
	return s.store.LoginMethods(ctx).Delete(ctx, id)
}

// Profile returns the account's profile record.
func (s *Service) Profile(ctx context.Context, accountID string) (*Profile, error) {
	return s.store.Profiles(ctx).FindByAccount(ctx, accountID)
}

// UpdateProfile applies profile changes for the account.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*Profile, error) {
	if upd.BirthDate != nil && upd.BirthDate.After(s.now()) {
		return nil, fmt.Errorf("%w: birth date cannot be in the future", ErrInvalidInput)
	}
	if upd.Bio != nil {
		bio := strings.TrimSpace(*upd.Bio)
		upd.Bio = &bio
	}
	if upd.AvatarURL != nil {
		u := strings.TrimSpace(*upd.AvatarURL)
		upd.AvatarURL = &u
	}
	return s.store.Profiles(ctx).Update(ctx, accountID, upd)
}

// ensureProfile provisions the account's profile if it is missing. An
// already-present profile is fine; any other failure is logged and swallowed
// so the account mutation itself still succeeds.
func (s *Service) ensureProfile(ctx context.Context, accountID string) {
	err := s.store.Profiles(ctx).Create(ctx, &Profile{
		ID:        ids.New(),
		AccountID: accountID,
	})
	if err != nil && !errors.Is(err, ErrConflict) {
		obs.LogRequest(map[string]any{
			"ts":         s.now().UTC().Format(time.RFC3339Nano),
			"level":      "error",
			"msg":        "profile heal failed",
			"account_id": accountID,
			"error":      err.Error(),
		})
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", nil
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return email, nil
}

func normalizeNationalID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil
	}
	if len(id) > maxNationalIDLen {
		return "", fmt.Errorf("%w: national id must be at most %d characters", ErrInvalidInput, maxNationalIDLen)
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", fmt.Errorf("%w: national id must be alphanumeric", ErrInvalidInput)
		}
	}
	return id, nil
}

func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	digits := phone
	if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	if len(digits) < 7 || len(digits) > 15 {
		return "", fmt.Errorf("%w: valid phone number is required", ErrInvalidInput)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: valid phone number is required", ErrInvalidInput)
		}
	}
	return phone, nil
}
