// Package member provides read access to the member registry. Members are
// owned by the external registration system; attendance only resolves them.
package member

import (
	"context"

	"steeple/pkg/domain"
)

// Member is the slice of the registry this service needs.
type Member struct {
	ID        domain.MemberID
	Email     string
	FirstName string
	LastName  string
}

// Store looks up members. Implementations return sentinel.ErrNotFound when
// no member has the given email.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Member, error)
}
