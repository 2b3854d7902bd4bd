package accounts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks credentials and returns the user id.
type Authenticator interface {
	Verify(ctx context.Context, username, password string) (string, error)
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Service implements signup and credential checks over a Store.
type Service struct {
	store Store
	Cost  int // bcrypt cost

	compare   func(hash, password []byte) error
	dummyOnce sync.Once
	dummy     []byte
}

func NewService(store Store) *Service {
	return &Service{store: store, Cost: bcrypt.DefaultCost, compare: bcrypt.CompareHashAndPassword}
}

// dummyHash is compared against for unknown usernames so a miss costs as
// much as a wrong password.
func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("pokeguess-no-such-user"), s.Cost)
		if err != nil {
			h = []byte{}
		}
		s.dummy = h
	})
	return s.dummy
}

// Register creates an account. A confirmation mismatch is rejected before
// the store is consulted.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	username := NormalizeUsername(req.Username)
	if err := ValidateSignup(username, req.Password); err != nil {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Cost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login returns the user for valid credentials. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := s.store.FindByUsername(ctx, NormalizeUsername(username))
	if errors.Is(err, ErrUserNotFound) {
		_ = s.compare(s.dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if s.compare([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Verify(ctx context.Context, username, password string) (string, error) {
	u, err := s.Login(ctx, username, password)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id string) (*User, error) {
	return s.store.FindByID(ctx, id)
}
