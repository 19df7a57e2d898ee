package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/MrEthical07/goAuthz/session"
)

var (
	// ErrNotFound is returned when no user owns an identifier or id.
	ErrNotFound = errors.New("user not found")
	// ErrStorage wraps cache and provider failures.
	ErrStorage = errors.New("identity storage unavailable")
	// ErrNoMobile is returned for SMS flows on users without a mobile number.
	ErrNoMobile = errors.New("user has no mobile number")
)

// User is the persisted account as seen by the engine.
type User struct {
	ID          string
	Type        int
	Name        string
	Account     string
	Mobile      string
	Email       string
	UnionID     string
	Password    string
	PayPassword string
	BuiltIn     bool
	Invalid     bool
}

// UserProvider loads users. Implementations return [ErrNotFound] when no
// user matches.
type UserProvider interface {
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// UserStore adds the narrow single-field writes the engine performs.
type UserStore interface {
	UserProvider
	UpdateMobile(ctx context.Context, id, mobile string) error
	UpdateEmail(ctx context.Context, id, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdatePayPassword(ctx context.Context, id, payPasswordHash string) error
	SetInvalid(ctx context.Context, id string, invalid bool) error
}

// Decrypter reverses at-rest encryption of stored password hashes.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// NewRecord builds a fresh session record for u: no key sets, no failures.
func NewRecord(u *User, dec Decrypter) (*session.Record, error) {
	pwd := u.Password
	if dec != nil && pwd != "" {
		plain, err := dec.Decrypt(pwd)
		if err != nil {
			return nil, err
		}
		pwd = plain
	}

	return &session.Record{
		UserID:      u.ID,
		UserType:    u.Type,
		UserName:    u.Name,
		Account:     u.Account,
		Mobile:      u.Mobile,
		Email:       u.Email,
		UnionID:     u.UnionID,
		Password:    pwd,
		PayPassword: u.PayPassword,
		BuiltIn:     u.BuiltIn,
		Invalid:     u.Invalid,
		Keys:        make(map[string]*session.KeySet),
	}, nil
}

// MemoryStore is an in-memory [UserStore].
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore creates a [MemoryStore] holding users.
func NewMemoryStore(users ...User) *MemoryStore {
	m := &MemoryStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

// Put inserts or replaces a user.
func (m *MemoryStore) Put(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemoryStore) FindByIdentifier(_ context.Context, identifier string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if identifier == "" {
		return nil, ErrNotFound
	}
	for _, u := range m.users {
		if u.Account == identifier || u.Mobile == identifier || u.Email == identifier || u.UnionID == identifier {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) update(id string, fn func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

func (m *MemoryStore) UpdateMobile(_ context.Context, id, mobile string) error {
	return m.update(id, func(u *User) { u.Mobile = mobile })
}

func (m *MemoryStore) UpdateEmail(_ context.Context, id, email string) error {
	return m.update(id, func(u *User) { u.Email = email })
}

func (m *MemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return m.update(id, func(u *User) { u.Password = passwordHash })
}

func (m *MemoryStore) UpdatePayPassword(_ context.Context, id, payPasswordHash string) error {
	return m.update(id, func(u *User) { u.PayPassword = payPasswordHash })
}

func (m *MemoryStore) SetInvalid(_ context.Context, id string, invalid bool) error {
	return m.update(id, func(u *User) { u.Invalid = invalid })
}
