package engine

import (
	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/clock"
	"github.com/sprinklerd/sprinklerd/controller/modules/programs"
)

// Tick runs one once-per-second pass of the control loop, spec.md §4.9.
// now must be localized wall-clock seconds (clock.LocalizedNow's return).
func (e *Engine) Tick(now int64) {
	e.Old = e.Status.Snapshot()

	// 1. Refresh cached master indices.
	e.Status.Mas = byte(e.IOpts[controller.IOptMasterStation])
	e.Status.Mas2 = byte(e.IOpts[controller.IOptMasterStation2])

	e.stepRainDelay(now)
	e.stepSensors(now)
	e.stepProgramSwitch(now)
	e.stepProgramMatch(now)
	if e.Status.ProgramBusy {
		e.stepRunProgramData(now)
	}
	e.stepMasterCoActivation(now)
	e.applyDynamicEvents(now)
	_ = e.Driver.Commit(now, e.stationAt)
	e.stepFlowWindow(now)
	e.stepReboot(now)
	e.stepWeather(now)
}

// stepRainDelay is spec.md §4.9 step 2.
func (e *Engine) stepRainDelay(now int64) {
	if e.Status.RainDelayed && now >= e.NV.RDStopTime {
		e.Status.RainDelayed = false
		e.saveNV()
		e.notify(controller.EventRainDelay, now, withUint(0))
		e.logTag("rd", 0, now)
	} else if !e.Status.RainDelayed && e.NV.RDStopTime > now {
		e.Status.RainDelayed = true
		e.saveNV()
		e.notify(controller.EventRainDelay, now, withUint(1))
		e.logTag("rd", 1, now)
	}
}

// stepSensors is spec.md §4.9 step 3.
func (e *Engine) stepSensors(now int64) {
	if e.Sensors == nil {
		return
	}
	if !e.Old.Sensor1Active && e.Sensors.Sensor1.Active() {
		e.notify(controller.EventSensor1, now, withUint(1))
		e.logTag("s1", 1, now)
	} else if e.Old.Sensor1Active && !e.Sensors.Sensor1.Active() {
		e.notify(controller.EventSensor1, now, withUint(0))
		e.logTag("s1", 0, now)
	}
	if !e.Old.Sensor2Active && e.Sensors.Sensor2.Active() {
		e.notify(controller.EventSensor2, now, withUint(1))
		e.logTag("s2", 1, now)
	} else if e.Old.Sensor2Active && !e.Sensors.Sensor2.Active() {
		e.notify(controller.EventSensor2, now, withUint(0))
		e.logTag("s2", 0, now)
	}
	e.Status.Sensor1Active = e.Sensors.Sensor1.Active()
	e.Status.Sensor2Active = e.Sensors.Sensor2.Active()
}

// stepProgramSwitch is spec.md §4.9 step 4. Callers that poll physical
// pins push PSwitch firings through PollProgramSwitchMask before calling
// Tick; here the engine only reacts to the already-computed mask.
func (e *Engine) stepProgramSwitch(now int64) {
	mask := e.pswitchMask
	e.pswitchMask = 0
	if mask == 0 {
		return
	}
	e.resetAllStationsImmediate(now)
	if mask&1 != 0 && len(e.Programs) > 0 {
		e.manualStartProgram(0, now)
	}
	if mask&2 != 0 && len(e.Programs) > 1 {
		e.manualStartProgram(1, now)
	}
}

// stepProgramMatch is spec.md §4.9 step 5 / §4.7.
func (e *Engine) stepProgramMatch(now int64) {
	if e.Scheduler == nil || !e.Scheduler.MinuteChanged(now) {
		return
	}
	weekday, dayOfMonth, _, epochDay, isFeb29 := clock.LocalDate(now)
	results := e.Scheduler.MatchPrograms(now, weekday, dayOfMonth, epochDay, isFeb29, e.Programs, e.NV.SunriseMin, e.NV.SunsetMin, e.IOpts[controller.IOptWaterPercentage])
	anyEnqueued := false
	for _, r := range results {
		if r.SpecialCommand {
			if req, ok := programs.Resolve(r.Program.Name, now); ok {
				e.RequestReboot(req.SafeReboot, controller.RebootCauseProgram, now)
			}
			continue
		}
		if len(r.Enqueued) > 0 {
			anyEnqueued = true
			e.notify(controller.EventProgramSched, now, withUint(uint32(r.ProgramIndex+1)))
		}
	}
	if anyEnqueued && !e.Status.ProgramBusy {
		e.Status.ProgramBusy = true
		if e.flowSensorEnabled() && e.Flow != nil {
			e.flowcountLogStart = e.Flow.Count
			e.sensor1ActiveLast = now
		}
	}
}

func (e *Engine) flowSensorEnabled() bool {
	return controller.SensorType(e.IOpts[controller.IOptSensor1Type]) == controller.SensorFlow ||
		controller.SensorType(e.IOpts[controller.IOptSensor2Type]) == controller.SensorFlow
}

// stepRunProgramData is spec.md §4.9 step 6.
func (e *Engine) stepRunProgramData(now int64) {
	e.Queue.RecomputeStationQID()

	var toRemove []int
	for sid := 0; sid < len(e.Stations); sid++ {
		idx := e.Queue.StationQID(sid)
		if idx == controller.NoQueueIndex {
			continue
		}
		q := e.Queue.At(idx)
		if now >= q.StartTime+int64(q.Duration) {
			e.turnOffStation(sid, now)
		} else if !e.Driver.Bit(sid) && q.StartTime <= now && now < q.StartTime+int64(q.Duration) {
			e.turnOnStation(sid, now)
		}
	}

	for i, q := range e.Queue.Entries() {
		if q.Duration == 0 || now >= q.StartTime+int64(q.Duration) {
			toRemove = append(toRemove, i)
		}
	}
	e.Queue.DequeueHighIndexFirst(toRemove)

	e.applyDynamicEvents(now)

	e.Scheduler.ScheduleAllStations(now)

	if e.Queue.Len() == 0 {
		e.Driver.ClearAllBits()
		_ = e.Driver.Commit(now, e.stationAt)
		e.Queue.ResetRuntime()
		e.Status.ProgramBusy = false
		if e.flowSensorEnabled() && e.Flow != nil {
			count := e.Flow.Count - e.flowcountLogStart
			e.logTagValue("fl", int(count), e.Flow.LastGPM(), now)
			e.Flow.ResetSession()
		}
		e.Status.Mas = byte(e.IOpts[controller.IOptMasterStation])
		e.Status.Mas2 = byte(e.IOpts[controller.IOptMasterStation2])
	}
}

// stepMasterCoActivation is spec.md §4.9 step 7.
func (e *Engine) stepMasterCoActivation(now int64) {
	e.applyMaster(int(e.Status.Mas), controller.IOptMasterOnAdjust, controller.IOptMasterOffAdjust, func(a controller.StationAttrib) bool { return a.UsesMaster1 }, now)
	e.applyMaster(int(e.Status.Mas2), controller.IOptMasterOnAdjust2, controller.IOptMasterOffAdjust2, func(a controller.StationAttrib) bool { return a.UsesMaster2 }, now)
}

func (e *Engine) applyMaster(masterIdx int, onAdjOpt, offAdjOpt controller.IntegerOption, uses func(controller.StationAttrib) bool, now int64) {
	if masterIdx == 0 {
		return
	}
	masterSid := masterIdx - 1
	if masterSid < 0 || masterSid >= len(e.Stations) {
		return
	}
	onAdj := int64(controller.DecodeSignedSeconds(e.IOpts[onAdjOpt]))
	offAdj := int64(controller.DecodeSignedSeconds(e.IOpts[offAdjOpt]))
	active := false
	for sid := 0; sid < len(e.Stations); sid++ {
		if sid == masterSid || !e.Driver.Bit(sid) {
			continue
		}
		if !uses(e.Stations[sid].Attrib) {
			continue
		}
		idx := e.Queue.StationQID(sid)
		if idx == controller.NoQueueIndex {
			continue
		}
		q := e.Queue.At(idx)
		if now >= q.StartTime+onAdj && now <= q.StartTime+int64(q.Duration)+offAdj {
			active = true
			break
		}
	}
	e.Driver.SetBit(masterSid, active)
}

// stepFlowWindow is spec.md §4.9 step 10.
func (e *Engine) stepFlowWindow(now int64) {
	if e.Flow == nil {
		return
	}
	if now-e.lastFlowWindowRoll < 30 {
		return
	}
	e.lastFlowWindowRoll = now
	e.Flow.WindowedRate()
}

// stepReboot is spec.md §4.9 step 9.
func (e *Engine) stepReboot(now int64) {
	if e.Status.SafeReboot && e.rebootTimer != 0 && now > e.rebootTimer {
		if !e.Status.ProgramBusy && !e.anyProgramMatchesWithin(now, 60) {
			e.doReboot(e.pendingRebootCause, now)
		}
		return
	}
	if !e.Status.SafeReboot && e.rebootTimer != 0 && now > e.rebootTimer {
		e.doReboot(controller.RebootCauseTimer, now)
	}
}

func (e *Engine) doReboot(cause controller.RebootCause, now int64) {
	e.NV.RebootCause = cause
	e.saveNV()
	e.notify(controller.EventReboot, now, withUint(uint32(cause)))
	e.rebootTimer = 0
	if e.Reboot != nil {
		_ = e.Reboot.Reboot(cause)
	}
}

func (e *Engine) anyProgramMatchesWithin(now int64, horizonSeconds int64) bool {
	for t := now + 1; t <= now+horizonSeconds; t++ {
		weekday, dayOfMonth, minuteOfDay, epochDay, isFeb29 := clock.LocalDate(t)
		for _, p := range e.Programs {
			if p.CheckMatch(minuteOfDay, weekday, dayOfMonth, epochDay, isFeb29, e.NV.SunriseMin, e.NV.SunsetMin) {
				return true
			}
		}
	}
	return false
}

// stepWeather is spec.md §4.9 step 11.
func (e *Engine) stepWeather(now int64) {
	if e.Weather == nil {
		return
	}
	if e.Status.ProgramBusy || e.Status.NetworkFails > 0 || e.IOpts[controller.IOptRemoteExtensionMode] != 0 {
		return
	}
	automatic := e.IOpts[controller.IOptWeatherAlgorithm] != 0
	due := false
	if e.lastWeatherSuccess == 0 || now-e.lastWeatherSuccess > CheckWeatherSuccessTimeoutSeconds {
		if automatic {
			e.IOpts[controller.IOptWaterPercentage] = 100
			due = true
		}
	}
	if now-e.lastWeatherAttempt >= CheckWeatherTimeoutSeconds {
		due = true
	}
	if !due {
		return
	}
	e.lastWeatherAttempt = now
	percent, err := e.Weather.FetchPercent()
	if err != nil {
		if e.Log != nil {
			e.Log.LogWarning("weather", "fetch failed: "+err.Error())
		}
		return
	}
	e.IOpts[controller.IOptWaterPercentage] = percent
	e.lastWeatherSuccess = now
	e.notify(controller.EventWeatherUpdate, now, withUint(uint32(percent)))
	e.logTagValue("wl", int(percent), 0, now)
}

func (e *Engine) logTag(tag string, value int, now int64) {
	e.logTagValue(tag, 0, float64(value), now)
}

func (e *Engine) logTagValue(tag string, count int, value float64, now int64) {
	if e.RunLog == nil {
		return
	}
	_ = e.RunLog.LogTag(tag, count, value, now)
}
