// Package service implements account registration and login. Both operations
// issue a fresh access token keyed on the account's email; role and profile
// travel in the response only, never inside the token.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"aulago/backend/internal/auth"
	"aulago/backend/internal/crypto"
	"aulago/backend/internal/model"
	"aulago/backend/internal/repository"
)

var (
	ErrDuplicateIdentity = errors.New("duplicate_identity")
	// ErrInvalidCredentials covers both "no such account" and "wrong password".
	// Callers must never be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRole        = errors.New("invalid_role")
	// ErrStoreUnavailable marks an infrastructure failure. It must surface as a
	// server fault, never be coerced into an authentication or authorization
	// denial.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// dummyHash is compared against when login hits a missing account, so the
// missing-account path pays the same bcrypt cost as the wrong-password path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type IdentityStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
}

type Credentials struct {
	store  IdentityStore
	secret string
	issuer string
	ttl    time.Duration
}

func NewCredentials(store IdentityStore, secret, issuer string, ttl time.Duration) *Credentials {
	return &Credentials{store: store, secret: secret, issuer: issuer, ttl: ttl}
}

type RegisterInput struct {
	Name        string
	Surname     string
	Email       string
	Password    string
	Role        model.Role
	PhoneNumber *string
}

// Register creates an active account and returns a fresh token for it. The
// duplicate check is the store's uniqueness constraint, not a prior lookup, so
// two concurrent registrations of the same email cannot both succeed.
func (c *Credentials) Register(ctx context.Context, input RegisterInput) (string, model.User, error) {
	if input.Role != model.RoleStudent && input.Role != model.RoleTeacher {
		return "", model.User{}, ErrInvalidRole
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return "", model.User{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		PasswordHash: hash,
		Name:         input.Name,
		Surname:      input.Surname,
		Role:         input.Role,
		PhoneNumber:  input.PhoneNumber,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", model.User{}, ErrDuplicateIdentity
		}
		return "", model.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	token, err := auth.NewAccessToken(c.secret, c.issuer, c.ttl, user.Email)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}

func (c *Credentials) Login(ctx context.Context, email, password string) (string, model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := c.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = crypto.CheckPassword(dummyHash, password)
			return "", model.User{}, ErrInvalidCredentials
		}
		return "", model.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return "", model.User{}, ErrInvalidCredentials
	}
	if !user.Active {
		return "", model.User{}, ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(c.secret, c.issuer, c.ttl, user.Email)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}
