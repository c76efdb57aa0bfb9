package controller

import "strings"

// OddEvenRestriction restricts a weekly-mask or interval program to odd or
// even days of the month.
type OddEvenRestriction uint8

const (
	OddEvenNone OddEvenRestriction = iota
	OddEvenOdd
	OddEvenEven
)

// ScheduleType selects how Days is interpreted.
type ScheduleType uint8

const (
	ScheduleWeeklyMask ScheduleType = iota
	ScheduleInterval
)

// Sun-relative duration sentinels, per spec.md §4.5.
const (
	DurationSunsetMinusSunrise      uint16 = 65534
	DurationSunrisePlusDayMinusSunset uint16 = 65535
)

// Program is a single watering program record, per spec.md §3.
type Program struct {
	Enabled             bool
	UseWeather          bool
	OddEven             OddEvenRestriction
	ScheduleType        ScheduleType
	StartTimes          []uint16 // minutes-since-midnight, or a sun-relative bit-packed encoding (see resolveStartMinute)
	Days                [2]byte  // weekly bitmask, or {interval, epoch-day remainder} for ScheduleInterval
	Durations           [MaxStations]uint16 // per-station water_time_code
	Name                string
}

// IsSpecialCommand reports whether the program's name marks it as a
// special command (":>reboot", ...) per spec.md §4.5, rather than a
// watering program to be matched against the clock.
func (p Program) IsSpecialCommand() bool {
	return strings.HasPrefix(p.Name, ":")
}

// WaterTimeResolve resolves a per-station duration code to seconds,
// expanding the sun-relative sentinels against cached sunrise/sunset
// minutes. All other values are already seconds.
func WaterTimeResolve(code uint16, sunriseMin, sunsetMin uint16) uint32 {
	switch code {
	case DurationSunsetMinusSunrise:
		return uint32(int32(sunsetMin) - int32(sunriseMin)) * 60
	case DurationSunrisePlusDayMinusSunset:
		return uint32(int32(sunriseMin)+1440-int32(sunsetMin)) * 60
	default:
		return uint32(code)
	}
}

// weekdayBit maps a Go time.Weekday (Sunday=0) onto the program's bit 0 =
// Sunday .. bit 6 = Saturday layout used by the original firmware.
func weekdayBit(mask byte, weekday int) bool {
	return mask&(1<<uint(weekday)) != 0
}

// CheckMatch is the pure predicate of spec.md §4.5: true iff the program is
// enabled, today's date satisfies its schedule, and now's hour:minute
// equals one of its derived start times.
//
// nowMinuteOfDay, weekday, dayOfMonth, epochDay and isFeb29 all describe
// the same localized instant (the timezone offset already applied).
func (p Program) CheckMatch(nowMinuteOfDay int, weekday int, dayOfMonth int, epochDay int64, isFeb29 bool, sunriseMin, sunsetMin uint16) bool {
	if !p.Enabled {
		return false
	}
	if !p.dateMatches(weekday, dayOfMonth, epochDay, isFeb29) {
		return false
	}
	for _, code := range p.StartTimes {
		if int(resolveStartMinute(code, sunriseMin, sunsetMin)) == nowMinuteOfDay {
			return true
		}
	}
	return false
}

// Start-time bit-packed encoding, per the original firmware's
// starttime_decode(): StartTimeUnusedBit marks the slot unused;
// StartTimeSunriseBit/StartTimeSunsetBit select a sun-relative start time,
// offset by the signed minute count in the low 11 bits (StartTimeSignBit
// negates it). A code with neither sun-relative bit set is a fixed
// minute-of-day.
const (
	StartTimeUnusedBit  uint16 = 1 << 15
	StartTimeSunriseBit uint16 = 1 << 14
	StartTimeSunsetBit  uint16 = 1 << 13
	StartTimeSignBit    uint16 = 1 << 12
	startTimeOffsetMask uint16 = 0x7FF
)

// EncodeSunriseStartTime and EncodeSunsetStartTime build a sun-relative
// program start time offset by the given signed number of minutes, per
// spec.md §4.5.
func EncodeSunriseStartTime(offsetMin int) uint16 {
	return StartTimeSunriseBit | encodeStartOffset(offsetMin)
}

func EncodeSunsetStartTime(offsetMin int) uint16 {
	return StartTimeSunsetBit | encodeStartOffset(offsetMin)
}

func encodeStartOffset(offsetMin int) uint16 {
	if offsetMin < 0 {
		return StartTimeSignBit | (uint16(-offsetMin) & startTimeOffsetMask)
	}
	return uint16(offsetMin) & startTimeOffsetMask
}

// resolveStartMinute decodes a fixed or sun-relative start-time encoding
// into a minute-of-day, or 65535 for an unused slot — a value CheckMatch's
// caller never sees as a real minute-of-day.
func resolveStartMinute(code uint16, sunriseMin, sunsetMin uint16) uint16 {
	if code&StartTimeUnusedBit != 0 {
		return 65535
	}
	offset := int32(code & startTimeOffsetMask)
	if code&StartTimeSignBit != 0 {
		offset = -offset
	}
	switch {
	case code&StartTimeSunriseBit != 0:
		t := int32(sunriseMin) + offset
		if t < 0 {
			t = 0
		}
		return uint16(t)
	case code&StartTimeSunsetBit != 0:
		t := int32(sunsetMin) + offset
		if t > 1439 {
			t = 1439
		}
		return uint16(t)
	default:
		return code % 1440
	}
}

func (p Program) dateMatches(weekday, dayOfMonth int, epochDay int64, isFeb29 bool) bool {
	switch p.OddEven {
	case OddEvenOdd:
		if isFeb29 || dayOfMonth > 30 {
			return false
		}
		if dayOfMonth%2 == 0 {
			return false
		}
	case OddEvenEven:
		if dayOfMonth%2 != 0 {
			return false
		}
	}

	switch p.ScheduleType {
	case ScheduleWeeklyMask:
		return weekdayBit(p.Days[0], weekday) || weekdayBit(p.Days[1], weekday)
	case ScheduleInterval:
		interval := int64(p.Days[0])
		startRemainder := int64(p.Days[1])
		if interval <= 0 {
			return false
		}
		return ((epochDay-startRemainder)%interval+interval)%interval == 0
	default:
		return false
	}
}
