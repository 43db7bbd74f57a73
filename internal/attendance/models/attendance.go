package models

import (
	"time"

	"steeple/pkg/domain"
)

// Record is one verified attendance mark. AttendedOn is the ISO calendar
// day in the church's zone, derived from RecordedAt; the pair
// (MemberID, ServiceType, AttendedOn) is unique.
type Record struct {
	ID           domain.RecordID
	MemberID     domain.MemberID
	ServiceType  domain.ServiceType
	RecordedAt   time.Time
	AttendedOn   string
	Latitude     float64
	Longitude    float64
	LocationName string
	Verified     bool
}

// ListFilter narrows the admin attendance listing. Zero values mean
// "no constraint"; Limit <= 0 falls back to a server default. Day pins one
// calendar day; From/To bound an inclusive ISO date range and are ignored
// when Day is set.
type ListFilter struct {
	Day     string
	From    string
	To      string
	Service *domain.ServiceType
	Member  *domain.MemberID
	Limit   int
}
