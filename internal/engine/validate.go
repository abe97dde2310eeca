package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var (
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
)

// Policy holds the restaurant's booking window.  Opens and Closes are
// zero-padded HH:MM strings and are compared lexically with the requested
// time, bounds included.
type Policy struct {
	ClosedDay time.Weekday
	Opens     string
	Closes    string
	Location  *time.Location
}

// DefaultPolicy is closed on Tuesdays and books from 10:30 to 21:30.
func DefaultPolicy() Policy {
	return Policy{
		ClosedDay: time.Tuesday,
		Opens:     "10:30",
		Closes:    "21:30",
		Location:  time.UTC,
	}
}

// Validate runs admission control on a create/update candidate.  Checks run
// in a fixed order and the first failure is returned.
func (e *Engine) Validate(in ReservationInput) error {
	required := []struct{ name, value string }{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"mobile_number", in.MobileNumber},
		{"reservation_date", in.ReservationDate},
		{"reservation_time", in.ReservationTime},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return rejected(ReasonMissingField, "Must include a %s", f.name)
		}
	}
	if !in.People.Set {
		return rejected(ReasonMissingField, "Must include a people")
	}

	if !timePattern.MatchString(in.ReservationTime) {
		return rejected(ReasonInvalidTime, "The reservation_time is not valid.")
	}
	day, ok := e.parseDate(in.ReservationDate)
	if !ok {
		return rejected(ReasonInvalidDate, "The reservation_date is not valid.")
	}

	if day.Weekday() == e.policy.ClosedDay {
		return rejected(ReasonClosedDay, "The restaurant is closed on %ss.", e.policy.ClosedDay)
	}

	// pattern already guarantees HH and MM are two digits in range
	hh := int(in.ReservationTime[0]-'0')*10 + int(in.ReservationTime[1]-'0')
	mm := int(in.ReservationTime[3]-'0')*10 + int(in.ReservationTime[4]-'0')
	at := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, e.policy.Location)
	if !at.After(e.now()) {
		return rejected(ReasonPastDate, "Reservation must be booked for a future date.")
	}

	if in.ReservationTime < e.policy.Opens || in.ReservationTime > e.policy.Closes {
		return rejected(ReasonOutsideHours, "Reservation must be between %s and %s.", e.policy.Opens, e.policy.Closes)
	}

	if !in.People.Integer || in.People.Value <= 0 {
		return rejected(ReasonInvalidPeople, "people must be a whole number of at least 1.")
	}

	if len(in.Unknown) > 0 {
		return rejected(ReasonUnknownField, "Invalid field(s): %s", strings.Join(in.Unknown, ", "))
	}

	if in.StatusSet {
		st, ok := model.ParseStatus(in.Status)
		if !ok {
			return rejected(ReasonUnknownStatus, "status %q is unknown", in.Status)
		}
		if st == model.StatusSeated || st == model.StatusFinished {
			return rejected(ReasonStatusNotAllowed, "status is %s", st)
		}
	}
	return nil
}

func (e *Engine) parseDate(s string) (time.Time, bool) {
	if !datePattern.MatchString(s) {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-1-2", s, e.policy.Location)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// canonicalDate zero-pads a date that passed parseDate.
func (e *Engine) canonicalDate(s string) string {
	d, ok := e.parseDate(s)
	if !ok {
		return s
	}
	return d.Format("2006-01-02")
}
