// Package schedule decides which service, if any, is in session at a given
// moment. All decisions happen in the church's local zone so members
// travelling, or a server running in UTC, cannot shift the windows.
package schedule

import (
	"time"

	"steeple/pkg/domain"
)

// Window is one recurring weekly service slot. Hours are half-open:
// a service starting at 17 and ending at 20 covers 17:00:00 through
// 19:59:59 local time.
type Window struct {
	Service   domain.ServiceType
	Weekday   time.Weekday
	StartHour int
	EndHour   int
}

// Status is the outcome of a window check. Service is only meaningful
// when Active is true.
type Status struct {
	Active  bool
	Service domain.ServiceType
}

// Scheduler evaluates the weekly service windows in a fixed zone.
type Scheduler struct {
	loc     *time.Location
	windows []Window
}

var defaultWindows = []Window{
	{Service: domain.ServiceSabbathMorning, Weekday: time.Saturday, StartHour: 8, EndHour: 17},
	{Service: domain.ServiceWednesdayVespers, Weekday: time.Wednesday, StartHour: 17, EndHour: 20},
	{Service: domain.ServiceFridayVespers, Weekday: time.Friday, StartHour: 17, EndHour: 20},
}

// New builds a scheduler with the standard weekly windows. A nil location
// falls back to UTC.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{loc: loc, windows: defaultWindows}
}

// CurrentService reports which service window covers the given instant.
// The windows never overlap, so at most one matches.
func (s *Scheduler) CurrentService(now time.Time) Status {
	local := now.In(s.loc)
	weekday := local.Weekday()
	hour := local.Hour()

	for _, w := range s.windows {
		if weekday == w.Weekday && hour >= w.StartHour && hour < w.EndHour {
			return Status{Active: true, Service: w.Service}
		}
	}
	return Status{}
}

// CalendarDay returns the ISO date of the instant in the church's zone.
// Attendance uniqueness and device claims are keyed on this value.
func (s *Scheduler) CalendarDay(now time.Time) string {
	return now.In(s.loc).Format("2006-01-02")
}

// DayBounds returns the half-open [start, end) interval of the local
// calendar day containing the instant.
func (s *Scheduler) DayBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(s.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

// Location returns the zone the scheduler evaluates windows in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Windows returns the configured weekly windows.
func (s *Scheduler) Windows() []Window {
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}
