// Package domain holds value types shared across features: typed entity IDs
// and the service-type enum. Typed IDs prevent cross-entity assignment at
// compile time; Parse* constructors enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "steeple/pkg/domain-errors"
)

// MemberID identifies a registered church member.
type MemberID uuid.UUID

// LocationID identifies a saved church location.
type LocationID uuid.UUID

// RecordID identifies an attendance record.
type RecordID uuid.UUID

// NewLocationID returns a fresh random location ID.
func NewLocationID() LocationID { return LocationID(uuid.New()) }

// NewMemberID returns a fresh random member ID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewRecordID returns a fresh random record ID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// ParseMemberID constructs a MemberID from external input.
// Returns CodeInvalidInput for empty, malformed, or nil UUIDs.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return MemberID{}, err
	}
	return MemberID(u), nil
}

// ParseLocationID constructs a LocationID from external input.
// Returns CodeInvalidInput for empty, malformed, or nil UUIDs.
func ParseLocationID(s string) (LocationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return LocationID{}, err
	}
	return LocationID(u), nil
}

// ParseRecordID constructs a RecordID from external input.
// Returns CodeInvalidInput for empty, malformed, or nil UUIDs.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RecordID{}, err
	}
	return RecordID(u), nil
}

func (id MemberID) String() string   { return uuid.UUID(id).String() }
func (id LocationID) String() string { return uuid.UUID(id).String() }
func (id RecordID) String() string   { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id MemberID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id LocationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
