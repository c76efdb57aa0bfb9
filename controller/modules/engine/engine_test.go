package engine

import (
	"testing"

	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/runtimequeue"
	"github.com/sprinklerd/sprinklerd/controller/modules/scheduler"
	"github.com/sprinklerd/sprinklerd/controller/modules/sensors"
	"github.com/sprinklerd/sprinklerd/controller/modules/stationdriver"
)

// fakeDriver is a minimal engine.Driver double backed by a plain bit map,
// with no shift-register or switcher semantics.
type fakeDriver struct {
	bits     map[int]bool
	commits  int
	failNext bool
}

func newFakeDriver() *fakeDriver { return &fakeDriver{bits: map[int]bool{}} }

func (d *fakeDriver) SetBit(sid int, value bool) stationdriver.BitResult {
	was := d.bits[sid]
	d.bits[sid] = value
	switch {
	case was == value:
		return stationdriver.Unchanged
	case value:
		return stationdriver.Set
	default:
		return stationdriver.Cleared
	}
}

func (d *fakeDriver) Bit(sid int) bool { return d.bits[sid] }

func (d *fakeDriver) ClearAllBits() {
	for k := range d.bits {
		d.bits[k] = false
	}
}

func (d *fakeDriver) Commit(now int64, stationAt func(int) (controller.Station, bool)) error {
	d.commits++
	return nil
}

type fakeNotifier struct {
	events []controller.Event
}

func (n *fakeNotifier) Notify(e controller.Event) { n.events = append(n.events, e) }

func (n *fakeNotifier) kinds() []controller.EventKind {
	var ks []controller.EventKind
	for _, e := range n.events {
		ks = append(ks, e.Kind)
	}
	return ks
}

type fakeRunLog struct {
	runs []controller.LastRun
	tags []string
}

func (l *fakeRunLog) LogStationRun(programID, stationID int, duration, end int64, gpm float64) error {
	l.runs = append(l.runs, controller.LastRun{Station: stationID, Program: programID, Duration: duration, EndTime: end, GPM: gpm})
	return nil
}

func (l *fakeRunLog) LogTag(tag string, count int, value float64, end int64) error {
	l.tags = append(l.tags, tag)
	return nil
}

func newTestEngine(nstations int) (*Engine, *fakeDriver, *fakeNotifier) {
	var iopts controller.IntegerOptions
	var sopts controller.StringOptions
	q := runtimequeue.New()
	sched := scheduler.New(q,
		func(sid int) scheduler.StationInfo { return scheduler.StationInfo{} },
		func() int32 { return 0 },
		func() bool { return false })
	drv := newFakeDriver()
	notif := &fakeNotifier{}
	e := &Engine{
		IOpts:    &iopts,
		SOpts:    &sopts,
		Stations: make([]controller.Station, nstations),
		Queue:    q,
		Scheduler: sched,
		Driver:   drv,
		Notifier: notif,
		Status:   controller.ConStatus{Enabled: true},
	}
	return e, drv, notif
}

func TestTurnOnStationSetsBitAndNotifies(t *testing.T) {
	e, drv, notif := newTestEngine(4)
	e.turnOnStation(1, 1000)
	if !drv.Bit(1) {
		t.Fatal("expected bit 1 set")
	}
	if len(notif.events) != 1 || notif.events[0].Kind != controller.EventStationOn {
		t.Fatalf("expected one station_on event, got %+v", notif.events)
	}
}

func TestTurnOnStationIsIdempotent(t *testing.T) {
	e, _, notif := newTestEngine(4)
	e.turnOnStation(1, 1000)
	e.turnOnStation(1, 1001)
	if len(notif.events) != 1 {
		t.Fatalf("expected only the first turn-on to notify, got %d events", len(notif.events))
	}
}

func TestTurnOffStationLogsRunAndNotifies(t *testing.T) {
	e, drv, notif := newTestEngine(4)
	runLog := &fakeRunLog{}
	e.RunLog = runLog
	e.Queue.Enqueue(controller.RuntimeEntry{StationID: 2, ProgramID: 1, StartTime: 1000, Duration: 300})
	e.Queue.RecomputeStationQID()
	drv.SetBit(2, true)

	e.turnOffStation(2, 1300)

	if drv.Bit(2) {
		t.Fatal("expected bit 2 cleared")
	}
	if len(runLog.runs) != 1 || runLog.runs[0].Station != 2 {
		t.Fatalf("expected a logged run for station 2, got %+v", runLog.runs)
	}
	if len(notif.events) != 1 || notif.events[0].Kind != controller.EventStationOff {
		t.Fatalf("expected one station_off event, got %+v", notif.events)
	}
	if e.Queue.StationQID(2) != controller.NoQueueIndex {
		t.Fatal("expected the station's queue ownership cleared")
	}
}

func TestTurnOffStationSkipsLoggingForMasterStation(t *testing.T) {
	e, drv, notif := newTestEngine(4)
	runLog := &fakeRunLog{}
	e.RunLog = runLog
	e.Status.Mas = 3 // 1-based station number 3, i.e. sid 2
	e.Queue.Enqueue(controller.RuntimeEntry{StationID: 2, ProgramID: 1, StartTime: 1000, Duration: 300})
	e.Queue.RecomputeStationQID()
	drv.SetBit(2, true)

	e.turnOffStation(2, 1300)

	if len(runLog.runs) != 0 {
		t.Fatalf("expected no logged run for a master station, got %+v", runLog.runs)
	}
	if len(notif.events) != 0 {
		t.Fatalf("expected no station_off event for a master station, got %+v", notif.events)
	}
}

func TestApplyDynamicEventsCutsShortWhenDisabled(t *testing.T) {
	e, drv, _ := newTestEngine(4)
	e.Status.Enabled = false
	e.Queue.Enqueue(controller.RuntimeEntry{StationID: 1, ProgramID: 1, StartTime: 1000, Duration: 300})
	e.Queue.RecomputeStationQID()
	drv.SetBit(1, true)

	e.applyDynamicEvents(1100)

	if drv.Bit(1) {
		t.Fatal("expected the station cut short while the engine is disabled")
	}
}

func TestApplyDynamicEventsIgnoresManualAndTestOnce(t *testing.T) {
	e, drv, _ := newTestEngine(4)
	e.Status.Enabled = false
	e.Queue.Enqueue(controller.RuntimeEntry{StationID: 1, ProgramID: controller.ProgramIDManual, StartTime: 1000, Duration: 300})
	e.Queue.RecomputeStationQID()
	drv.SetBit(1, true)

	e.applyDynamicEvents(1100)

	if !drv.Bit(1) {
		t.Fatal("expected a manual run to be immune to dynamic cut-short")
	}
}

func TestApplyDynamicEventsRespectsIgnoreRainDelay(t *testing.T) {
	e, drv, _ := newTestEngine(4)
	e.Status.RainDelayed = true
	e.Stations[1].Attrib.IgnoreRainDelay = true
	e.Queue.Enqueue(controller.RuntimeEntry{StationID: 1, ProgramID: 1, StartTime: 1000, Duration: 300})
	e.Queue.RecomputeStationQID()
	drv.SetBit(1, true)

	e.applyDynamicEvents(1100)

	if !drv.Bit(1) {
		t.Fatal("expected a rain-delay-ignoring station to keep running")
	}
}

func TestStepRainDelayTransitionsAndNotifies(t *testing.T) {
	e, _, notif := newTestEngine(1)
	e.NV.RDStopTime = 2000

	e.stepRainDelay(1000)
	if !e.Status.RainDelayed {
		t.Fatal("expected rain delay active before RDStopTime")
	}

	e.stepRainDelay(2500)
	if e.Status.RainDelayed {
		t.Fatal("expected rain delay cleared after RDStopTime")
	}
	kinds := notif.kinds()
	if len(kinds) != 2 || kinds[0] != controller.EventRainDelay || kinds[1] != controller.EventRainDelay {
		t.Fatalf("expected two rain_delay events, got %+v", kinds)
	}
}

func TestStepRebootFiresAfterTimerWhenIdle(t *testing.T) {
	e, _, notif := newTestEngine(1)
	rebooted := false
	e.Reboot = rebooterFunc(func(cause controller.RebootCause) error { rebooted = true; return nil })
	e.RequestReboot(false, controller.RebootCauseTimer, 1000)

	e.stepReboot(1000) // the timer is 1000+RebootDelaySeconds, not yet due
	if rebooted {
		t.Fatal("did not expect a reboot before the reboot timer has passed")
	}

	e.stepReboot(2000) // RebootDelaySeconds is well under 1000s in practice; force due by timer math
	// Since safety is false, reboot fires unconditionally once now > rebootTimer.
	if !rebooted {
		t.Fatal("expected an unsafe reboot to fire once the timer has passed")
	}
	kinds := notif.kinds()
	if len(kinds) == 0 || kinds[len(kinds)-1] != controller.EventReboot {
		t.Fatalf("expected a reboot event, got %+v", kinds)
	}
}

func TestStepRebootSafeRebootWaitsForIdle(t *testing.T) {
	e, _, _ := newTestEngine(1)
	rebooted := false
	e.Reboot = rebooterFunc(func(cause controller.RebootCause) error { rebooted = true; return nil })
	e.RequestReboot(true, controller.RebootCauseWeb, 0)
	e.Status.ProgramBusy = true

	e.stepReboot(1000000)
	if rebooted {
		t.Fatal("expected a safe reboot to wait while a program is busy")
	}

	e.Status.ProgramBusy = false
	e.stepReboot(1000000)
	if !rebooted {
		t.Fatal("expected the safe reboot to fire once idle")
	}
}

type rebooterFunc func(controller.RebootCause) error

func (f rebooterFunc) Reboot(cause controller.RebootCause) error { return f(cause) }

func TestManualStartProgramEnqueuesNonDisabledNonMasterStations(t *testing.T) {
	e, _, notif := newTestEngine(3)
	e.Stations[1].Attrib.Disabled = true
	p := controller.Program{Name: "Test"}
	p.Durations[0] = 120
	p.Durations[1] = 120
	p.Durations[2] = 180
	e.Programs = []controller.Program{p}

	e.manualStartProgram(0, 1000)

	if !e.Status.ProgramBusy {
		t.Fatal("expected ProgramBusy set after a manual start")
	}
	if e.Queue.Len() != 2 {
		t.Fatalf("expected 2 stations enqueued (station 1 disabled, station 0/2 included), got %d", e.Queue.Len())
	}
	for _, q := range e.Queue.Entries() {
		if q.ProgramID != controller.ProgramIDTestOnce {
			t.Errorf("expected ProgramID %d (test-once sentinel) so this run is exempt from dynamic cancellation, got %d", controller.ProgramIDTestOnce, q.ProgramID)
		}
	}
	found := false
	for _, k := range notif.kinds() {
		if k == controller.EventProgramSched {
			found = true
		}
	}
	if !found {
		t.Error("expected a program-scheduled notification for the manual start")
	}
}

func TestStepProgramSwitchDispatchesOnMask(t *testing.T) {
	e, _, _ := newTestEngine(2)
	p := controller.Program{Name: "Switch program"}
	p.Durations[0] = 60
	e.Programs = []controller.Program{p}
	e.PollProgramSwitchMask(1)

	e.stepProgramSwitch(1000)

	if !e.Status.ProgramBusy {
		t.Fatal("expected the masked program-switch trigger to start program 0")
	}
}

func TestStepProgramSwitchNoOpWhenMaskZero(t *testing.T) {
	e, _, _ := newTestEngine(2)
	e.stepProgramSwitch(1000) // must not panic with no programs and a zero mask
	if e.Status.ProgramBusy {
		t.Fatal("expected no program start with a zero mask")
	}
}

func TestStepSensorsNotifiesOnActiveTransition(t *testing.T) {
	e, _, notif := newTestEngine(1)
	e.Sensors = &sensors.Engine{
		Sensor1: sensors.Binary{Type: controller.SensorRain, OnDelayMin: 0},
	}
	e.Sensors.Sensor1.Poll(true, 0) // primes onTimer (5s floor)
	e.Sensors.Sensor1.Poll(true, 6) // past the floor, the debounce latches active
	e.stepSensors(6)
	kinds := notif.kinds()
	found := false
	for _, k := range kinds {
		if k == controller.EventSensor1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a sensor1 event once the debounced sensor went active, got %+v", kinds)
	}
	if !e.Status.Sensor1Active {
		t.Fatal("expected Status.Sensor1Active to mirror the sensor's Active()")
	}
}
