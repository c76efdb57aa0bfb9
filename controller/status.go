package controller

// RebootCause enumerates why the last (or pending) reboot happened. spec.md
// only names RESET and TIMER explicitly; the fuller enumeration follows
// original_source/src/defines.h's REBOOT_CAUSE_* so the u8 field has a home
// for every cause a real deployment produces.
type RebootCause uint8

const (
	RebootCauseNone RebootCause = iota
	RebootCauseReset
	RebootCauseButton
	_ // RSTAP, retired upstream
	RebootCauseTimer
	RebootCauseWeb
	_ // WIFIDONE, retired upstream
	RebootCauseFirmwareUpdate
	RebootCauseWeatherFail
	RebootCauseNetworkFail
	_ // NTP, retired upstream
	RebootCauseProgram
	RebootCausePowerOn RebootCause = 99
)

// NonVolatileStatus is persisted after every state transition that touches
// any field, per spec.md §3.
type NonVolatileStatus struct {
	SunriseMin   uint16 // 0..1439
	SunsetMin    uint16
	RDStopTime   int64 // epoch seconds
	ExternalIP   uint32
	RebootCause  RebootCause
}

// ConStatus is the volatile, in-RAM controller status of spec.md §3. An
// OldStatus snapshot is kept by the engine so edge transitions can be
// detected each tick.
type ConStatus struct {
	Enabled         bool
	RainDelayed     bool
	Sensor1         bool // raw/debounced read, not yet gated by delay timers
	Sensor2         bool
	Sensor1Active   bool
	Sensor2Active   bool
	ProgramBusy     bool
	SafeReboot      bool
	NetworkFails    uint8 // 3 bits
	Mas             uint8 // cached IOptMasterStation
	Mas2            uint8 // cached IOptMasterStation2
	ReqMQTTRestart  bool
}

// Snapshot returns a copy suitable for storing as OldStatus.
func (s ConStatus) Snapshot() ConStatus { return s }
