// Package engine implements spec.md §4.9–§4.11: the once-per-second
// control loop, dynamic-event pruning, and the turn_on/turn_off station
// transitions. It is the single Engine value of spec.md §9 that replaces
// the source's global statics.
package engine

import (
	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/programs"
	"github.com/sprinklerd/sprinklerd/controller/modules/runtimequeue"
	"github.com/sprinklerd/sprinklerd/controller/modules/scheduler"
	"github.com/sprinklerd/sprinklerd/controller/modules/sensors"
	"github.com/sprinklerd/sprinklerd/controller/modules/stationdriver"
)

// Timeouts from spec.md §4.9 step 11 / original_source/src/defines.h.
const (
	CheckWeatherTimeoutSeconds        = 21613
	CheckWeatherSuccessTimeoutSeconds = 86400
)

// Driver is the subset of stationdriver.Driver the engine drives directly.
type Driver interface {
	SetBit(sid int, value bool) stationdriver.BitResult
	Bit(sid int) bool
	ClearAllBits()
	Commit(nowSeconds int64, stationAt func(int) (controller.Station, bool)) error
}

// RunLog persists the per-run and tagged summary log lines of spec.md §6.
// It is the narrow interface configstore's log writer satisfies.
type RunLog interface {
	LogStationRun(programID, stationID int, duration, end int64, gpm float64) error
	LogTag(tag string, count int, value float64, end int64) error
}

// Rebooter performs the actual OS reboot once the engine decides to.
type Rebooter interface {
	Reboot(cause controller.RebootCause) error
}

// WeatherFetcher performs the weather HTTP round-trip; internal/weather is
// the real implementation, tests inject a fake.
type WeatherFetcher interface {
	FetchPercent() (percent uint16, err error)
}

// Persister saves NonVolatileStatus after every transition that touches
// it, per spec.md §3.
type Persister interface {
	SaveNVStatus(controller.NonVolatileStatus) error
}

// Engine is the single value threading every module together.
type Engine struct {
	Clock    controller.Clock
	Log      controller.Logger
	Notifier controller.Notifier
	RunLog   RunLog
	Reboot   Rebooter
	Weather  WeatherFetcher
	Persist  Persister

	IOpts    *controller.IntegerOptions
	SOpts    *controller.StringOptions
	Stations []controller.Station
	Programs []controller.Program

	NV     controller.NonVolatileStatus
	Status controller.ConStatus
	Old    controller.ConStatus

	Queue     *runtimequeue.Queue
	Scheduler *scheduler.Scheduler
	Driver    Driver
	Sensors   *sensors.Engine
	Flow      *sensors.FlowCounter

	LastRun controller.LastRun

	rebootTimer       int64
	pendingRebootCause controller.RebootCause
	lastWeatherAttempt int64
	lastWeatherSuccess int64
	flowcountLogStart  int64
	sensor1ActiveLast  int64
	lastFlowWindowRoll int64
	pswitchMask        byte
}

// PollProgramSwitchMask feeds the program-switch firing mask (bit 0 =
// switch 1, bit 1 = switch 2) computed by controller/modules/sensors for
// this second's reads. Callers set it before invoking Tick so step 4 of
// spec.md §4.9 can react to it.
func (e *Engine) PollProgramSwitchMask(mask byte) {
	e.pswitchMask |= mask
}

// stationAt resolves a station record for the Driver's auto-refresh pass
// and for the Switcher, bounds-checked against the current station slice.
func (e *Engine) stationAt(sid int) (controller.Station, bool) {
	if sid < 0 || sid >= len(e.Stations) {
		return controller.Station{}, false
	}
	return e.Stations[sid], true
}

func (e *Engine) stationInfo(sid int) controller.Station {
	if sid < 0 || sid >= len(e.Stations) {
		return controller.Station{}
	}
	return e.Stations[sid]
}

// RequestReboot records a pending reboot request, per spec.md §4.8. It is
// called both by the special-command dispatch in Tick and by an external
// operator-triggered reboot (the HTTP API), per spec.md §7.
func (e *Engine) RequestReboot(safe bool, cause controller.RebootCause, now int64) {
	e.Status.SafeReboot = safe
	e.rebootTimer = now + programs.RebootDelaySeconds
	e.pendingRebootCause = cause
}

func (e *Engine) saveNV() {
	if e.Persist != nil {
		_ = e.Persist.SaveNVStatus(e.NV)
	}
}

func (e *Engine) notify(kind controller.EventKind, now int64, opts ...func(*controller.Event)) {
	if e.Notifier == nil {
		return
	}
	ev := controller.Event{Kind: kind}
	for _, o := range opts {
		o(&ev)
	}
	e.Notifier.Notify(ev)
}

func withUint(v uint32) func(*controller.Event) {
	return func(e *controller.Event) { e.Uint = &v }
}

func withFloat(v float64) func(*controller.Event) {
	return func(e *controller.Event) { e.Float = &v }
}

func withString(v string) func(*controller.Event) {
	return func(e *controller.Event) { e.String = &v }
}
