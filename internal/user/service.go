package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/logger"
)

// Service registers accounts and checks sign-ins.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	log    *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, hasher auth.PasswordHasher, log *logger.Logger) Service {
	if log == nil {
		log = logger.Discard()
	}
	return &service{repo: repo, hasher: hasher, log: log, now: time.Now}
}

// credentials is an email/password pair with the email already canonical.
type credentials struct {
	email    string
	password string
}

func newCredentials(email, password string) credentials {
	return credentials{email: strings.ToLower(strings.TrimSpace(email)), password: password}
}

func (c credentials) checkSignup() error {
	if c.email == "" {
		return ErrEmailRequired
	}
	if len(c.password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	creds := newCredentials(email, password)
	if err := creds.checkSignup(); err != nil {
		return nil, err
	}

	switch _, err := s.repo.GetByEmail(ctx, creds.email); {
	case err == nil:
		return nil, ErrEmailAlreadyUsed
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := s.hasher.Hash(creds.password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &User{Email: creds.email, PasswordHash: hash, IsActive: true}
	if name := strings.TrimSpace(displayName); name != "" {
		account.DisplayName = &name
	}

	// The repository reports a lost race on the unique email as ErrEmailAlreadyUsed.
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	account, err := s.authenticate(ctx, newCredentials(email, password))
	if err != nil {
		return nil, err
	}
	s.touchLastLogin(ctx, account)
	return account, nil
}

// authenticate resolves creds to an active account. Unknown emails and wrong passwords
// share ErrInvalidCredentials.
func (s *service) authenticate(ctx context.Context, creds credentials) (*User, error) {
	if creds.email == "" || strings.TrimSpace(creds.password) == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetByEmail(ctx, creds.email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("look up account: %w", err)
	case !account.IsActive:
		return nil, ErrInactiveUser
	}

	if s.hasher.Compare(account.PasswordHash, creds.password) != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// touchLastLogin records the sign-in time. A failed write is logged and the login still succeeds.
func (s *service) touchLastLogin(ctx context.Context, account *User) {
	at := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, account.ID, at); err != nil {
		s.log.Warn("update last login failed", "user_id", account.ID, "error", err)
		return
	}
	account.LastLoginAt = &at
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
