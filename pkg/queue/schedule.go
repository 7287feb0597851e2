package queue

import (
	"fmt"
	"time"
)

// Schedule answers when a periodic trigger fires after from.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

// Every fires at a fixed interval. Non-positive intervals fall back to one minute.
func Every(d time.Duration) Schedule {
	if d <= 0 {
		d = time.Minute
	}
	return interval(d)
}

type interval time.Duration

func (i interval) Next(from time.Time) time.Time { return from.Add(time.Duration(i)) }
func (i interval) String() string                { return "every " + time.Duration(i).String() }

// DailyAt fires once a day at hour:minute on the wall clock of the time
// passed to Next. Out-of-range values are clamped. Wrap it with In to pin
// the clock to a zone.
func DailyAt(hour, minute int) Schedule {
	return daily{
		hour:   max(0, min(hour, 23)),
		minute: max(0, min(minute, 59)),
	}
}

type daily struct {
	hour, minute int
	loc          *time.Location
}

func (d daily) Next(from time.Time) time.Time {
	loc := d.loc
	if loc == nil {
		loc = from.Location()
	}
	local := from.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, loc)
	if !next.After(from) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, loc)
	}
	return next
}

func (d daily) String() string {
	s := fmt.Sprintf("daily at %02d:%02d", d.hour, d.minute)
	if d.loc != nil {
		s += " " + d.loc.String()
	}
	return s
}

// In pins a DailyAt schedule to loc. Other schedules are returned unchanged.
func In(loc *time.Location, s Schedule) Schedule {
	if d, ok := s.(daily); ok && loc != nil {
		d.loc = loc
		return d
	}
	return s
}
