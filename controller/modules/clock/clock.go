// Package clock implements spec.md §4.1: wall-clock seconds, monotonic
// ms/µs since process start, and the cooperative sleep/busy-wait
// primitives the RF driver needs.
package clock

import (
	"time"

	"github.com/sprinklerd/sprinklerd/controller"
)

// Clock anchors its monotonic ms/µs readings at construction time; only
// differences between readings matter, per spec.md §4.1.
type Clock struct {
	start time.Time
}

// New returns a Clock anchored at the current instant.
func New() *Clock {
	return &Clock{start: time.Now()}
}

var _ controller.Clock = (*Clock)(nil)

// NowSeconds is the wall-clock time, UTC epoch seconds.
func (c *Clock) NowSeconds() int64 {
	return time.Now().Unix()
}

// NowMS is monotonic milliseconds since the Clock was constructed.
func (c *Clock) NowMS() int64 {
	return time.Since(c.start).Milliseconds()
}

// NowUS is monotonic microseconds since the Clock was constructed.
func (c *Clock) NowUS() int64 {
	return time.Since(c.start).Microseconds()
}

// LocalizedNow applies the (timezoneIndex-48)*15min convention of
// spec.md §9 to wall-clock seconds.
func (c *Clock) LocalizedNow(timezoneIndex uint8) int64 {
	return c.NowSeconds() + controller.TimezoneOffsetSeconds(uint16(timezoneIndex))
}

// SleepMS is the cooperative sleep used between control-loop ticks. It may
// over-sleep under scheduler pressure; nothing in the engine depends on its
// precision.
func SleepMS(n int64) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

// BusyWaitUS spins until n microseconds have elapsed, for the
// microsecond-precision RF pulses of spec.md §4.3. This is the only place
// the engine busy-waits; a cooperative sleep cannot hold sub-millisecond
// precision.
func BusyWaitUS(n int64) {
	if n <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(n) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// LocalDate breaks a localized timestamp into the weekday/day-of-month/
// epoch-day/minute-of-day/leap-day facts Program.CheckMatch needs. The
// timestamp is assumed already shifted by the configured timezone offset,
// so the calendar fields are read out in UTC to avoid a second shift.
func LocalDate(localizedSeconds int64) (weekday, dayOfMonth, minuteOfDay int, epochDay int64, isFeb29 bool) {
	t := time.Unix(localizedSeconds, 0).UTC()
	weekday = int(t.Weekday())
	dayOfMonth = t.Day()
	minuteOfDay = t.Hour()*60 + t.Minute()
	epochDay = localizedSeconds / 86400
	isFeb29 = t.Month() == time.February && t.Day() == 29
	return
}
