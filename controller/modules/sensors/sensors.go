// Package sensors implements spec.md §4.4: debounced rain/soil sensors,
// the program-switch shift-register trigger, and millisecond-polled flow
// pulse counting.
package sensors

import "github.com/sprinklerd/sprinklerd/controller"

// onOffDelayFloor is the mandatory 5-second floor on debounce delays,
// per spec.md §4.4, to suppress chatter even when the configured delay is
// zero.
const onOffDelayFloor = 5

// Binary is a debounced rain/soil sensor lane.
type Binary struct {
	Type         controller.SensorType
	NormallyOpen bool
	OnDelayMin   uint16
	OffDelayMin  uint16

	onTimer  int64 // 0 = not pending
	offTimer int64
	active   bool
	history  byte // 4-bit shift register for PSwitch lanes
}

// Poll feeds one raw pin read at time now (epoch seconds) into the lane.
// For SensorRain/SensorSoil it updates Active() per the debounce state
// machine. For SensorPSwitch it instead feeds the 4-bit shift register;
// callers should use PSwitchFired to read the one-shot trigger.
func (b *Binary) Poll(pinHigh bool, now int64) {
	raw := pinHigh != b.NormallyOpen
	switch b.Type {
	case controller.SensorRain, controller.SensorSoil:
		b.pollBinary(raw, now)
	case controller.SensorPSwitch:
		b.history = (b.history << 1) | boolBit(raw)
		b.history &= 0x0F
	}
}

func (b *Binary) pollBinary(raw bool, now int64) {
	risingEdge := raw && b.onTimer == 0 && !b.active
	fallingEdge := !raw && b.offTimer == 0 && b.active
	if risingEdge {
		delay := int64(b.OnDelayMin) * 60
		if delay < onOffDelayFloor {
			delay = onOffDelayFloor
		}
		b.onTimer = now + delay
		b.offTimer = 0
	} else if fallingEdge {
		delay := int64(b.OffDelayMin) * 60
		if delay < onOffDelayFloor {
			delay = onOffDelayFloor
		}
		b.offTimer = now + delay
		b.onTimer = 0
	}
	if b.onTimer != 0 && now > b.onTimer {
		b.active = true
		b.onTimer = 0
	}
	if b.offTimer != 0 && now > b.offTimer {
		b.active = false
		b.offTimer = 0
	}
}

// Active reports the debounced sensorN_active state.
func (b *Binary) Active() bool { return b.active }

// pswitchPattern is "0011": two raw-low samples, oldest first, then two
// raw-high samples, per spec.md §4.4.
const pswitchPattern = 0b0011

// PSwitchFired reports, and clears, the one-shot program-switch trigger.
func (b *Binary) PSwitchFired() bool {
	if b.history == pswitchPattern {
		b.history = 0
		return true
	}
	return false
}

// Reset clears timers and active state, per the reset_all() of
// spec.md §4.4.
func (b *Binary) Reset() {
	b.onTimer, b.offTimer = 0, 0
	b.active = false
	b.history = 0
}

func boolBit(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// Engine owns both binary sensor lanes and reports the combined
// program-switch firing mask.
type Engine struct {
	Sensor1 Binary
	Sensor2 Binary
}

// PollProgramSwitch feeds both lanes' raw reads for this tick and returns
// a 2-bit mask: bit 0 = switch 1 fired, bit 1 = switch 2 fired.
func (e *Engine) PollProgramSwitch(now int64, raw1, raw2 bool) byte {
	e.Sensor1.Poll(raw1, now)
	e.Sensor2.Poll(raw2, now)
	var mask byte
	if e.Sensor1.Type == controller.SensorPSwitch && e.Sensor1.PSwitchFired() {
		mask |= 1
	}
	if e.Sensor2.Type == controller.SensorPSwitch && e.Sensor2.PSwitchFired() {
		mask |= 2
	}
	return mask
}

// ResetAll clears both lanes, per spec.md §4.4's reset_all().
func (e *Engine) ResetAll() {
	e.Sensor1.Reset()
	e.Sensor2.Reset()
}

// FlowCounter implements the millisecond-polled flow-pulse counting of
// spec.md §4.4. Poll must be called at (approximately) 1ms resolution;
// spec.md §9 allows replacing the poll with an OS interrupt or
// edge-triggered epoll so long as pulses on the millisecond boundary are
// not lost — this implementation only requires a high->low transition be
// observed at least once between successive Poll calls.
type FlowCounter struct {
	lastRaw  bool
	Count    int64 // monotonic
	started  bool  // Start has been set by the session's genuine first pulse
	Start    int64 // ms, time of first pulse; 0 is a legitimate timestamp, not a sentinel
	gateOpen bool  // the 90s gap since Start has elapsed at least once
	Begin    int64 // ms, set on the first pulse to land after gateOpen
	Stop     int64 // ms, time of last pulse
	Gallons  int64 // pulses in the current session

	windowStart int64 // Count at the start of the current 30s rate window
}

const flowSessionGapMS = 90 * 1000

// Poll feeds one raw pin read at monotonic time nowMS (ms). It records a
// pulse only on a raw high->low transition.
//
// Start is fixed at the session's first-ever pulse. Once a later pulse
// lands more than 90s after Start, the gate opens; the next pulse after
// that sets Begin, and Gallons counts every pulse in between without
// ever resetting, per spec.md §4.4's Testable Scenario S5.
func (f *FlowCounter) Poll(pinHigh bool, nowMS int64) {
	fallingEdge := f.lastRaw && !pinHigh
	f.lastRaw = pinHigh
	if !fallingEdge {
		return
	}
	f.Count++
	if !f.started {
		f.started = true
		f.Start = nowMS
		f.Gallons = 1
		f.Stop = nowMS
		return
	}
	f.Gallons++
	f.Stop = nowMS
	if !f.gateOpen {
		if nowMS-f.Start > flowSessionGapMS {
			f.gateOpen = true
		}
		return
	}
	if f.Begin == 0 {
		f.Begin = nowMS
	}
}

// LastGPM computes the last-rate GPM per spec.md §4.4, valid on a
// full-queue drain (i.e. whenever the caller decides the session ended).
func (f *FlowCounter) LastGPM() float64 {
	if f.Gallons <= 1 || f.Begin == 0 {
		return 0
	}
	return 60000.0 / (float64(f.Stop-f.Begin) / float64(f.Gallons-1))
}

// ResetSession clears the per-session fields after a run completes,
// keeping Count monotonic.
func (f *FlowCounter) ResetSession() {
	f.started, f.gateOpen = false, false
	f.Start, f.Begin, f.Stop, f.Gallons = 0, 0, 0, 0
}

// WindowedRate computes flowcount_rt: the pulse count since the last
// 30-second window roll, then rolls the window, per spec.md §4.9 step 10.
func (f *FlowCounter) WindowedRate() int64 {
	rt := f.Count - f.windowStart
	f.windowStart = f.Count
	return rt
}
