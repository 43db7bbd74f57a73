package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"steeple/pkg/domain"
)

type SchedulerSuite struct {
	suite.Suite
	nairobi   *time.Location
	scheduler *Scheduler
}

func (s *SchedulerSuite) SetupSuite() {
	loc, err := time.LoadLocation("Africa/Nairobi")
	s.Require().NoError(err)
	s.nairobi = loc
	s.scheduler = New(loc)
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, s.nairobi)
}

func (s *SchedulerSuite) TestSabbathMorningWindow() {
	// 2026-08-22 is a Saturday.
	cases := []struct {
		name    string
		hour    int
		min     int
		active  bool
		service domain.ServiceType
	}{
		{"before start", 7, 59, false, ""},
		{"at start", 8, 0, true, domain.ServiceSabbathMorning},
		{"mid window", 12, 30, true, domain.ServiceSabbathMorning},
		{"last minute", 16, 59, true, domain.ServiceSabbathMorning},
		{"at end", 17, 0, false, ""},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			status := s.scheduler.CurrentService(s.at(2026, time.August, 22, tc.hour, tc.min))
			s.Equal(tc.active, status.Active)
			if tc.active {
				s.Equal(tc.service, status.Service)
			}
		})
	}
}

func (s *SchedulerSuite) TestVespersWindows() {
	// 2026-08-19 is a Wednesday, 2026-08-21 a Friday.
	status := s.scheduler.CurrentService(s.at(2026, time.August, 19, 18, 0))
	s.True(status.Active)
	s.Equal(domain.ServiceWednesdayVespers, status.Service)

	status = s.scheduler.CurrentService(s.at(2026, time.August, 21, 19, 59))
	s.True(status.Active)
	s.Equal(domain.ServiceFridayVespers, status.Service)

	status = s.scheduler.CurrentService(s.at(2026, time.August, 21, 20, 0))
	s.False(status.Active)
}

func (s *SchedulerSuite) TestNoServiceOnOtherDays() {
	// 2026-08-23 is a Sunday, 2026-08-17 a Monday.
	s.False(s.scheduler.CurrentService(s.at(2026, time.August, 23, 10, 0)).Active)
	s.False(s.scheduler.CurrentService(s.at(2026, time.August, 17, 18, 0)).Active)
}

func (s *SchedulerSuite) TestZoneIndependence() {
	// Saturday 07:00 UTC is 10:00 in Nairobi, inside the morning window
	// even though 07:00 would be outside it.
	utc := time.Date(2026, time.August, 22, 7, 0, 0, 0, time.UTC)
	status := s.scheduler.CurrentService(utc)
	s.True(status.Active)
	s.Equal(domain.ServiceSabbathMorning, status.Service)
}

func (s *SchedulerSuite) TestWindowsNeverOverlap() {
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			// Week of 2026-08-17 (Monday) through 2026-08-23.
			matches := 0
			now := s.at(2026, time.August, 17+day, hour, 30)
			for _, w := range s.scheduler.Windows() {
				local := now.In(s.scheduler.Location())
				if local.Weekday() == w.Weekday && local.Hour() >= w.StartHour && local.Hour() < w.EndHour {
					matches++
				}
			}
			s.LessOrEqual(matches, 1, "hour %d on day offset %d", hour, day)
		}
	}
}

func (s *SchedulerSuite) TestCalendarDayCrossesMidnightInZone() {
	// 22:30 UTC on the 21st is already 01:30 on the 22nd in Nairobi.
	utc := time.Date(2026, time.August, 21, 22, 30, 0, 0, time.UTC)
	s.Equal("2026-08-22", s.scheduler.CalendarDay(utc))
}

func (s *SchedulerSuite) TestDayBounds() {
	now := s.at(2026, time.August, 22, 13, 45)
	start, end := s.scheduler.DayBounds(now)

	s.Equal(s.at(2026, time.August, 22, 0, 0), start)
	s.Equal(s.at(2026, time.August, 23, 0, 0), end)
	s.True(now.After(start) && now.Before(end))
}

func (s *SchedulerSuite) TestNilLocationDefaultsToUTC() {
	sch := New(nil)
	s.Equal(time.UTC, sch.Location())
}
