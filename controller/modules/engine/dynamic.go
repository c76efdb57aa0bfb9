package engine

import (
	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/stationdriver"
)

// applyDynamicEvents is spec.md §4.10: for every queue entry whose
// program_id is below the manual/test-once threshold, turn off the
// station if the engine is disabled, rain-delayed, or sensor-gated and
// the station does not ignore that gate.
func (e *Engine) applyDynamicEvents(now int64) {
	e.Queue.RecomputeStationQID()
	var toTurnOff []int
	for _, q := range e.Queue.Entries() {
		if q.ProgramID >= controller.ProgramIDManual {
			continue
		}
		if e.shouldCutShort(q.StationID) {
			toTurnOff = append(toTurnOff, q.StationID)
		}
	}
	for _, sid := range toTurnOff {
		e.turnOffStation(sid, now)
		e.Queue.RecomputeStationQID()
	}
}

func (e *Engine) shouldCutShort(sid int) bool {
	st := e.stationInfo(sid)
	if !e.Status.Enabled {
		return true
	}
	if e.Status.RainDelayed && !st.Attrib.IgnoreRainDelay {
		return true
	}
	sensor1Type := controller.SensorType(e.IOpts[controller.IOptSensor1Type])
	if e.Status.Sensor1Active && sensor1Type.IsBinary() && !st.Attrib.IgnoreSensor1 {
		return true
	}
	sensor2Type := controller.SensorType(e.IOpts[controller.IOptSensor2Type])
	if e.Status.Sensor2Active && sensor2Type.IsBinary() && !st.Attrib.IgnoreSensor2 {
		return true
	}
	return false
}

// turnOnStation is spec.md §4.11.
func (e *Engine) turnOnStation(sid int, now int64) {
	if e.Flow != nil {
		e.Flow.ResetSession()
	}
	if e.Driver.SetBit(sid, true) != stationdriver.Set {
		return
	}
	e.notify(controller.EventStationOn, now, withUint(uint32(sid)))
}

// turnOffStation is spec.md §4.11.
func (e *Engine) turnOffStation(sid int, now int64) {
	e.Driver.SetBit(sid, false)
	idx := e.Queue.StationQID(sid)
	if idx == controller.NoQueueIndex {
		return
	}
	q := e.Queue.At(idx)
	gpm := 0.0
	if e.Flow != nil {
		gpm = e.Flow.LastGPM()
	}
	_, isMaster := controller.MasterOf(sid, uint16(e.Status.Mas), uint16(e.Status.Mas2))
	if now > q.StartTime && !isMaster {
		e.LastRun = controller.LastRun{
			Station:  sid,
			Program:  q.ProgramID,
			Duration: now - q.StartTime,
			EndTime:  now,
			GPM:      gpm,
		}
		if e.RunLog != nil {
			_ = e.RunLog.LogStationRun(q.ProgramID, sid, e.LastRun.Duration, now, gpm)
		}
		e.notify(controller.EventStationOff, now, withUint(uint32(sid)))
	}
	e.Queue.Dequeue(idx)
	e.Queue.SetStationQID(sid, controller.NoQueueIndex)
}

// resetAllStationsImmediate is invoked by the program-switch handler
// (spec.md §4.9 step 4) before a manual program start.
func (e *Engine) resetAllStationsImmediate(now int64) {
	for sid := 0; sid < len(e.Stations); sid++ {
		if e.Driver.Bit(sid) {
			e.turnOffStation(sid, now)
		}
	}
	e.Queue.ResetRuntime()
	e.Status.ProgramBusy = false
	_ = e.Driver.Commit(now, e.stationAt)
}

// manualStartProgram enqueues every non-disabled, non-master station
// duration of program index pidx (0-based) as a manual run, bypassing
// use_weather scaling, mirroring a program-switch-triggered manual start.
// pidx==0 (program 1 via PSwitch lane) and pidx==1 (program 2) are the
// only callers per spec.md §4.9 step 4; manual_start_program(pid==0)
// meaning "no program" is referenced in the source but unreachable from
// any caller, so it is not implemented here, per spec.md §9's Open
// Question.
func (e *Engine) manualStartProgram(pidx int, now int64) {
	if pidx < 0 || pidx >= len(e.Programs) {
		return
	}
	p := e.Programs[pidx]
	enqueuedAny := false
	for sid, code := range p.Durations {
		if code == 0 || sid >= len(e.Stations) {
			continue
		}
		if e.Stations[sid].Attrib.Disabled || controller.IsMaster(sid, uint16(e.Status.Mas), uint16(e.Status.Mas2)) {
			continue
		}
		wt := controller.WaterTimeResolve(code, e.NV.SunriseMin, e.NV.SunsetMin)
		if wt == 0 {
			continue
		}
		if _, ok := e.Queue.Enqueue(controller.RuntimeEntry{StationID: sid, ProgramID: controller.ProgramIDTestOnce, Duration: wt}); ok {
			enqueuedAny = true
		}
	}
	if enqueuedAny {
		e.Scheduler.ScheduleAllStations(now)
		e.Status.ProgramBusy = true
		e.notify(controller.EventProgramSched, now, withUint(uint32(pidx+1)))
		if e.flowSensorEnabled() && e.Flow != nil {
			e.flowcountLogStart = e.Flow.Count
			e.sensor1ActiveLast = now
		}
	}
}
