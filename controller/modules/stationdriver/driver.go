// Package stationdriver implements spec.md §4.2: the station-bit vector
// and its atomic commit to the physical shift register, plus the
// special-station auto-refresh round robin.
package stationdriver

import (
	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/gpio"
)

// BitResult is the outcome of SetBit, per spec.md §4.2.
type BitResult int

const (
	Unchanged BitResult = iota
	Set
	Cleared
)

// Switcher is the narrow interface the driver needs from
// controller/modules/switcher: realize an on/off command for a
// non-STANDARD station.
type Switcher interface {
	Switch(sid int, on bool)
}

// ShiftRegister is the three-wire interface to the physical shift
// register: pull latch low, clock out bits MSB-first, pull latch high.
// Implementations that have no physical hardware (tests, dev boards) can
// use NewSimulatedRegister.
type ShiftRegister interface {
	// Commit shifts out nboards bytes, highest board first, bit 7 first
	// within each board, and latches the result.
	Commit(bits []byte) error
}

// Driver holds the in-memory station-bit vector and commits it to
// hardware. nstations is fixed at construction from the configured
// extension-board count; Resize must be called if that count changes.
type Driver struct {
	bits         []byte // one bit per station, packed 8 per byte (board order)
	nstations    int
	switcher     Switcher
	register     ShiftRegister
	enabled      func() bool
	autoRefresh  func() bool
	refreshCursor int
	lastRefreshSecond int64
}

// New constructs a Driver for nstations stations.
func New(nstations int, switcher Switcher, register ShiftRegister, enabled func() bool, autoRefresh func() bool) *Driver {
	return &Driver{
		bits:        make([]byte, (nstations+7)/8),
		nstations:   nstations,
		switcher:    switcher,
		register:    register,
		enabled:     enabled,
		autoRefresh: autoRefresh,
	}
}

// Resize grows or shrinks the bit vector to match a new station count,
// preserving existing bits and zeroing any new ones.
func (d *Driver) Resize(nstations int) {
	nb := (nstations + 7) / 8
	newBits := make([]byte, nb)
	copy(newBits, d.bits)
	d.bits = newBits
	d.nstations = nstations
}

// NumStations reports the current station count.
func (d *Driver) NumStations() int { return d.nstations }

// Bit reports the current in-memory bit for sid, ignoring whether it has
// been committed to hardware.
func (d *Driver) Bit(sid int) bool {
	if sid < 0 || sid >= d.nstations {
		return false
	}
	return d.bits[sid/8]&(1<<uint(sid%8)) != 0
}

// SetBit flips sid's bit to value. On a transition it invokes the
// Switcher for sid with the new value, per spec.md §4.2.
func (d *Driver) SetBit(sid int, value bool) BitResult {
	if sid < 0 || sid >= d.nstations {
		return Unchanged
	}
	was := d.Bit(sid)
	if was == value {
		return Unchanged
	}
	byteIdx, mask := sid/8, byte(1<<uint(sid%8))
	if value {
		d.bits[byteIdx] |= mask
	} else {
		d.bits[byteIdx] &^= mask
	}
	if d.switcher != nil {
		d.switcher.Switch(sid, value)
	}
	if value {
		return Set
	}
	return Cleared
}

// ClearAllBits zeroes every station bit by calling SetBit(sid, false) for
// sid in [0, nstations) — a half-open range. spec.md §9 flags the
// source's clear_all_station_bits as iterating one past the last station
// ([0, MAX_NUM_STATIONS] inclusive); this implementation deliberately does
// not reproduce that off-by-one.
func (d *Driver) ClearAllBits() {
	for sid := 0; sid < d.nstations; sid++ {
		d.SetBit(sid, false)
	}
}

// Commit pushes the current bit vector (or all zeros, if disabled) to the
// physical shift register, highest board first, and performs at most one
// special-station auto-refresh step per wall-clock second.
func (d *Driver) Commit(nowSeconds int64, stationAt func(int) (controller.Station, bool)) error {
	out := d.bits
	if d.enabled != nil && !d.enabled() {
		out = make([]byte, len(d.bits))
	}
	reversed := make([]byte, len(out))
	for i, b := range out {
		reversed[len(out)-1-i] = b
	}
	var err error
	if d.register != nil {
		err = d.register.Commit(reversed)
	}
	d.autoRefreshStep(nowSeconds, stationAt)
	return err
}

// autoRefreshStep advances the round-robin cursor at most once per
// wall-clock second and re-issues the current on/off command for that one
// station through the Switcher, per spec.md §4.2.
func (d *Driver) autoRefreshStep(nowSeconds int64, stationAt func(int) (controller.Station, bool)) {
	if d.autoRefresh == nil || !d.autoRefresh() || d.nstations == 0 {
		return
	}
	if nowSeconds == d.lastRefreshSecond {
		return
	}
	d.lastRefreshSecond = nowSeconds
	sid := d.refreshCursor % d.nstations
	d.refreshCursor = (d.refreshCursor + 1) % d.nstations
	if stationAt != nil {
		if st, ok := stationAt(sid); ok && st.Type != controller.StationStandard && d.switcher != nil {
			d.switcher.Switch(sid, d.Bit(sid))
		}
	}
}

// SimulatedRegister records every committed bit vector, for tests.
type SimulatedRegister struct {
	Last []byte
}

func (r *SimulatedRegister) Commit(bits []byte) error {
	r.Last = append([]byte(nil), bits...)
	return nil
}

// GPIORegister drives a real three-wire shift register (latch, clock,
// data) through a gpio.Pins, bit 7 first within each board, MSB-first
// across boards, per spec.md §4.2.
type GPIORegister struct {
	Pins              gpio.Pins
	LatchPin, ClockPin, DataPin int
}

func (r *GPIORegister) Commit(bits []byte) error {
	if r.Pins == nil {
		return nil
	}
	_ = r.Pins.SetOutput(r.LatchPin, false)
	for _, b := range bits {
		for bit := 7; bit >= 0; bit-- {
			_ = r.Pins.SetOutput(r.DataPin, b&(1<<uint(bit)) != 0)
			_ = r.Pins.SetOutput(r.ClockPin, true)
			_ = r.Pins.SetOutput(r.ClockPin, false)
		}
	}
	_ = r.Pins.SetOutput(r.LatchPin, true)
	return nil
}

var (
	_ ShiftRegister = (*SimulatedRegister)(nil)
	_ ShiftRegister = (*GPIORegister)(nil)
)
