// Package daily resolves the calendar-day boundary used to rate-limit
// sends and receives. All users share one reference time zone: an action
// becomes available again at midnight in that zone, not in the user's own.
package daily

import (
	"time"

	"github.com/kinddrop/server/internal/models"
)

// DayKeyLayout is the format of the stored day keys.
const DayKeyLayout = "2006-01-02"

// Clock abstracts wall-clock time so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// Resolver converts the current instant to a day key in the reset zone and
// answers the per-user daily eligibility questions against it.
type Resolver struct {
	clock Clock
	loc   *time.Location
}

func NewResolver(clock Clock, timeZone string) (*Resolver, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, err
	}
	return &Resolver{clock: clock, loc: loc}, nil
}

// DayKey returns today's calendar-day key in the reset time zone.
func (r *Resolver) DayKey() string {
	return r.clock.Now().In(r.loc).Format(DayKeyLayout)
}

// CanSendToday is true iff the user has not already sent a message during
// the current reset-zone day.
func (r *Resolver) CanSendToday(user *models.User) bool {
	return user.LastSentDate == nil || *user.LastSentDate != r.DayKey()
}

// CanReceiveToday is true iff the user has not already received a message
// during the current reset-zone day. Independent of the send limit.
func (r *Resolver) CanReceiveToday(user *models.User) bool {
	return user.LastReceivedDate == nil || *user.LastReceivedDate != r.DayKey()
}
