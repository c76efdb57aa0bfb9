package controller

import "testing"

func TestIsSpecialCommand(t *testing.T) {
	if !(Program{Name: ":>reboot"}).IsSpecialCommand() {
		t.Error("expected :>reboot to be special")
	}
	if (Program{Name: "Front lawn"}).IsSpecialCommand() {
		t.Error("did not expect ordinary name to be special")
	}
}

func TestWaterTimeResolve(t *testing.T) {
	if got := WaterTimeResolve(300, 360, 1080); got != 300 {
		t.Errorf("plain code should pass through, got %d", got)
	}
	// sunset(1080) - sunrise(360) = 720 min = 43200s
	if got := WaterTimeResolve(DurationSunsetMinusSunrise, 360, 1080); got != 43200 {
		t.Errorf("expected 43200, got %d", got)
	}
	// sunrise(360) + 1440 - sunset(1080) = 720 min = 43200s
	if got := WaterTimeResolve(DurationSunrisePlusDayMinusSunset, 360, 1080); got != 43200 {
		t.Errorf("expected 43200, got %d", got)
	}
}

func TestCheckMatchWeeklyMask(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{1 << 3, 0}, // Wednesday (weekday 3)
		StartTimes:   []uint16{360},      // 06:00
	}
	if !p.CheckMatch(360, 3, 15, 19800, false, 0, 0) {
		t.Error("expected match on Wednesday at 06:00")
	}
	if p.CheckMatch(360, 4, 16, 19801, false, 0, 0) {
		t.Error("did not expect match on Thursday")
	}
	if p.CheckMatch(361, 3, 15, 19800, false, 0, 0) {
		t.Error("did not expect match at wrong minute")
	}
}

func TestCheckMatchDisabledNeverMatches(t *testing.T) {
	p := Program{
		Enabled:      false,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{0},
	}
	if p.CheckMatch(0, 0, 1, 0, false, 0, 0) {
		t.Error("disabled program must never match")
	}
}

func TestCheckMatchSpecialCommandMatchesOnSchedule(t *testing.T) {
	// CheckMatch only evaluates the date/time predicate; callers (the
	// scheduler) branch on IsSpecialCommand separately to skip weather
	// scaling and station enqueuing for these.
	p := Program{
		Enabled:      true,
		Name:         ":>reboot",
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{0},
	}
	if !p.CheckMatch(0, 0, 1, 0, false, 0, 0) {
		t.Error("special command program must match on schedule via CheckMatch")
	}
	if p.CheckMatch(1, 0, 1, 0, false, 0, 0) {
		t.Error("must not match at the wrong minute")
	}
}

func TestCheckMatchOddEvenRestriction(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{0},
		OddEven:      OddEvenOdd,
	}
	if !p.CheckMatch(0, 2, 15, 100, false, 0, 0) {
		t.Error("day 15 is odd, expected match")
	}
	if p.CheckMatch(0, 3, 16, 101, false, 0, 0) {
		t.Error("day 16 is even, expected no match under OddEvenOdd")
	}
	if p.CheckMatch(0, 5, 29, 102, true, 0, 0) {
		t.Error("Feb 29 must never match under OddEvenOdd")
	}
}

func TestCheckMatchOddEvenRestrictionEvenHasNoFeb29SpecialCase(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{0},
		OddEven:      OddEvenEven,
	}
	if !p.CheckMatch(0, 5, 28, 101, false, 0, 0) {
		t.Error("day 28 is even, expected match under OddEvenEven")
	}
	if p.CheckMatch(0, 6, 29, 102, false, 0, 0) {
		t.Error("day 29 is odd, expected no match under OddEvenEven")
	}
	// Unlike OddEvenOdd, the even-day restriction has no isFeb29 special
	// case in the original firmware (program.cpp's check_day_match): an
	// even day-of-month must match regardless of isFeb29.
	if !p.CheckMatch(0, 5, 28, 101, true, 0, 0) {
		t.Error("an even day-of-month must match under OddEvenEven even when isFeb29 is set")
	}
}

func TestCheckMatchInterval(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleInterval,
		Days:         [2]byte{3, 1}, // every 3 days, remainder 1
		StartTimes:   []uint16{480},
	}
	if !p.CheckMatch(480, 0, 1, 1, false, 0, 0) {
		t.Error("epoch day 1 should match remainder 1 mod 3")
	}
	if p.CheckMatch(480, 0, 1, 2, false, 0, 0) {
		t.Error("epoch day 2 should not match")
	}
	if !p.CheckMatch(480, 0, 1, 4, false, 0, 0) {
		t.Error("epoch day 4 should match (1 + 3)")
	}
}

func TestCheckMatchSunRelativeStartTime(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{EncodeSunsetStartTime(0)},
	}
	if !p.CheckMatch(1080, 1, 1, 1, false, 360, 1080) {
		t.Error("expected match at sunset minute via sun-relative start time")
	}
}

func TestCheckMatchSunRelativeStartTimeWithOffset(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{EncodeSunriseStartTime(-30)},
	}
	// sunrise(360) - 30 = 330
	if !p.CheckMatch(330, 1, 1, 1, false, 360, 1080) {
		t.Error("expected match at sunrise-30 via signed start-time offset")
	}
	if p.CheckMatch(360, 1, 1, 1, false, 360, 1080) {
		t.Error("did not expect a match at the bare sunrise minute")
	}
}

func TestResolveStartMinuteUnusedSlotNeverMatches(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
		StartTimes:   []uint16{StartTimeUnusedBit},
	}
	for minute := 0; minute < 1440; minute += 360 {
		if p.CheckMatch(minute, 1, 1, 1, false, 360, 1080) {
			t.Fatalf("unused start-time slot matched minute %d", minute)
		}
	}
}

func TestResolveStartMinuteClampsSunriseAndSunsetOffsets(t *testing.T) {
	p := Program{
		Enabled:      true,
		ScheduleType: ScheduleWeeklyMask,
		Days:         [2]byte{0x7F, 0},
	}
	p.StartTimes = []uint16{EncodeSunriseStartTime(-1000)}
	if !p.CheckMatch(0, 1, 1, 1, false, 360, 1080) {
		t.Error("expected a large negative sunrise offset to clamp to minute 0")
	}
	p.StartTimes = []uint16{EncodeSunsetStartTime(1000)}
	if !p.CheckMatch(1439, 1, 1, 1, false, 360, 1080) {
		t.Error("expected a large positive sunset offset to clamp to minute 1439")
	}
}
