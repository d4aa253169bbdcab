// Package authz holds the access-control gates. They are checked in a fixed
// order (route class, then role, then resource ownership) and the first
// failing gate decides the outcome, so a request denied early never learns
// anything a later gate would have revealed.
package authz

import (
	"errors"

	"aulago/backend/internal/model"
)

var (
	// ErrUnauthenticated: no verified principal reached a route that needs one.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden: a known principal failed a role or ownership gate.
	ErrForbidden = errors.New("forbidden")
)

// Principal is the request-scoped identity derived from a verified token plus
// a live store lookup. It is rebuilt on every request and never cached.
type Principal struct {
	UserID string
	Email  string
	Role   model.Role
}

func RequireAuthenticated(p *Principal) error {
	if p == nil {
		return ErrUnauthenticated
	}
	return nil
}

func RequireRole(p *Principal, roles ...model.Role) error {
	if p == nil {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// IsOwner reports whether the principal owns a resource whose owning-user id
// is ownerID. Ownership is per resource instance, not per role: a teacher is
// not an owner of another teacher's course.
func IsOwner(p *Principal, ownerID string) bool {
	return p != nil && ownerID != "" && p.UserID == ownerID
}

func RequireOwner(p *Principal, ownerID string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !IsOwner(p, ownerID) {
		return ErrForbidden
	}
	return nil
}
