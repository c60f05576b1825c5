package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"accountd.org/internal/ids"
)

// Memory implements Store with in-process concurrency safety. It backs the
// API tests and DSN-less development runs; the Postgres store is the durable
// implementation.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	methods  map[string]*LoginMethod
	profiles map[string]*Profile // keyed by account id
	refresh  map[string]*RefreshToken
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*Account),
		methods:  make(map[string]*LoginMethod),
		profiles: make(map[string]*Profile),
		refresh:  make(map[string]*RefreshToken),
	}
}

func (m *Memory) Accounts(context.Context) AccountStore           { return (*memAccounts)(m) }
func (m *Memory) LoginMethods(context.Context) LoginMethodStore   { return (*memMethods)(m) }
func (m *Memory) Profiles(context.Context) ProfileStore           { return (*memProfiles)(m) }
func (m *Memory) RefreshTokens(context.Context) RefreshTokenStore { return (*memRefresh)(m) }

// SetAdmin flips the admin flag directly; intended for tests and seeding.
func (m *Memory) SetAdmin(accountID string, admin bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return false
	}
	a.Admin = admin
	return true
}

// identifierTaken reports whether any account other than excludeID holds the
// value in one of its identifier columns. Binding uniqueness is a separate
// constraint enforced by Upsert. Callers must hold the lock.
func (m *Memory) identifierTaken(value, excludeID string) bool {
	if value == "" {
		return false
	}
	for _, a := range m.accounts {
		if a.ID == excludeID {
			continue
		}
		if a.Email == value || a.NationalID == value || a.PhoneNumber == value {
			return true
		}
	}
	return false
}

// Account store ------------------------------------------------------------

type memAccounts Memory

func (m *memAccounts) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	for _, value := range []string{a.Email, a.NationalID, a.PhoneNumber} {
		if (*Memory)(m).identifierTaken(value, a.ID) {
			return ErrConflict
		}
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memAccounts) Find(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return m.FindByField(ctx, LoginTypeEmail, email)
}

func (m *memAccounts) FindByField(_ context.Context, field LoginType, value string) (*Account, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		var match bool
		switch field {
		case LoginTypeEmail:
			match = a.Email == value
		case LoginTypeNationalID:
			match = a.NationalID == value
		case LoginTypePhone:
			match = a.PhoneNumber == value
		}
		if match {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memAccounts) List(_ context.Context) ([]*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		cp := *a
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memAccounts) Update(_ context.Context, id string, upd AccountUpdate) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, field := range []*string{upd.Email, upd.NationalID, upd.PhoneNumber} {
		if field != nil && (*Memory)(m).identifierTaken(*field, id) {
			return nil, ErrConflict
		}
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	if upd.NationalID != nil {
		a.NationalID = *upd.NationalID
	}
	if upd.PhoneNumber != nil {
		a.PhoneNumber = *upd.PhoneNumber
	}
	if upd.FirstName != nil {
		a.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		a.LastName = *upd.LastName
	}
	if upd.PasswordHash != nil {
		a.PasswordHash = *upd.PasswordHash
	}
	if upd.Active != nil {
		a.Active = *upd.Active
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, id)
	delete(m.profiles, id)
	for mid, lm := range m.methods {
		if lm.AccountID == id {
			delete(m.methods, mid)
		}
	}
	for tid, tok := range m.refresh {
		if tok.AccountID == id {
			delete(m.refresh, tid)
		}
	}
	return nil
}

// Login method store -------------------------------------------------------

type memMethods Memory

func (m *memMethods) FindByIdentifier(_ context.Context, identifier string) (*LoginMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, lm := range m.methods {
		if lm.Identifier == identifier {
			cp := *lm
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memMethods) Upsert(_ context.Context, accountID string, loginType LoginType, identifier string) (*LoginMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; !ok {
		return nil, ErrNotFound
	}
	for _, lm := range m.methods {
		if lm.Identifier != identifier {
			continue
		}
		// The identifier is unique across the whole index. The only row that
		// may already hold the value is the account's own binding of the
		// requested type, which is replaced in place below.
		if lm.AccountID != accountID || lm.Type != loginType {
			return nil, ErrConflict
		}
	}
	now := time.Now().UTC()
	for _, lm := range m.methods {
		if lm.AccountID == accountID && lm.Type == loginType {
			lm.Identifier = identifier
			lm.UpdatedAt = now
			cp := *lm
			return &cp, nil
		}
	}
	lm := &LoginMethod{
		ID:         ids.New(),
		AccountID:  accountID,
		Type:       loginType,
		Identifier: identifier,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.methods[lm.ID] = lm
	cp := *lm
	return &cp, nil
}

func (m *memMethods) Get(_ context.Context, id string) (*LoginMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lm, ok := m.methods[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *lm
	return &cp, nil
}

func (m *memMethods) ListByAccount(_ context.Context, accountID string) ([]*LoginMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []*LoginMethod
	for _, lm := range m.methods {
		if lm.AccountID == accountID {
			cp := *lm
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memMethods) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.methods[id]; !ok {
		return ErrNotFound
	}
	delete(m.methods, id)
	return nil
}

// Profile store ------------------------------------------------------------

type memProfiles Memory

func (m *memProfiles) Create(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[p.AccountID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.profiles[p.AccountID]; ok {
		return ErrConflict
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.profiles[p.AccountID] = &cp
	return nil
}

func (m *memProfiles) FindByAccount(_ context.Context, accountID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Update(_ context.Context, accountID string, upd ProfileUpdate) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.AvatarURL != nil {
		p.AvatarURL = *upd.AvatarURL
	}
	if upd.BirthDate != nil {
		bd := *upd.BirthDate
		p.BirthDate = &bd
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

// DeleteProfile removes the profile record only, leaving the account in
// place. Used by tests to exercise the self-healing path.
func (m *Memory) DeleteProfile(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, accountID)
}

// Refresh token store ------------------------------------------------------

type memRefresh Memory

func (m *memRefresh) Create(_ context.Context, tok *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	m.refresh[tok.ID] = &cp
	return nil
}

func (m *memRefresh) Find(_ context.Context, id string) (*RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.refresh[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tok
	return &cp, nil
}

func (m *memRefresh) MarkRevoked(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.refresh[id]
	if !ok {
		return ErrNotFound
	}
	tok.Revoked = true
	return nil
}

func (m *memRefresh) MarkRevokedByAccount(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.refresh {
		if tok.AccountID == accountID {
			tok.Revoked = true
		}
	}
	return nil
}
