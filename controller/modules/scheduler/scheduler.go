// Package scheduler implements spec.md §4.7: the once-per-minute program
// matching pass and the sequential/concurrent start-time assignment pass.
package scheduler

import (
	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/runtimequeue"
)

// StationInfo is what the scheduler needs to know about a station to
// decide whether, and how, to enqueue and schedule it.
type StationInfo struct {
	Disabled   bool
	IsMaster   bool
	Sequential bool
}

// Scheduler assigns start times to queue entries and matches programs
// against the wall clock once per minute.
type Scheduler struct {
	Queue               *runtimequeue.Queue
	StationInfo         func(sid int) StationInfo
	StationDelaySeconds func() int32
	RemoteExtensionMode func() bool

	lastMatchedMinute int64
	haveMatched       bool
}

// New constructs a Scheduler over q.
func New(q *runtimequeue.Queue, stationInfo func(int) StationInfo, stationDelay func() int32, remoteExt func() bool) *Scheduler {
	return &Scheduler{Queue: q, StationInfo: stationInfo, StationDelaySeconds: stationDelay, RemoteExtensionMode: remoteExt}
}

// ScheduleAllStations assigns start_time to every queue entry whose
// start_time==0 and duration!=0, per spec.md §4.7. It returns true if any
// entry was newly scheduled. Calling it again with no new unscheduled
// entries is a no-op (Testable Property 2: idempotent).
func (s *Scheduler) ScheduleAllStations(now int64) bool {
	conStart := now + 1
	seqStart := conStart
	if lst := s.Queue.LastSeqStopTime() + int64(s.StationDelaySeconds()); lst > seqStart {
		seqStart = lst
	}

	remoteExt := s.RemoteExtensionMode()
	scheduled := false
	entries := s.Queue.Entries()
	for i, e := range entries {
		if e.StartTime != 0 || e.Duration == 0 {
			continue
		}
		info := s.StationInfo(e.StationID)
		if info.Sequential && !remoteExt {
			e.StartTime = seqStart
			seqStart += int64(e.Duration) + int64(s.StationDelaySeconds())
		} else {
			e.StartTime = conStart
			conStart++
		}
		s.Queue.Set(i, e)
		scheduled = true
	}
	s.recomputeLastSeqStopTime()
	return scheduled
}

// recomputeLastSeqStopTime recomputes last_seq_stop_time as the maximum
// start_time+duration across currently-queued sequential stations in
// non-remote-extension mode, per spec.md §4.6.
func (s *Scheduler) recomputeLastSeqStopTime() {
	if s.RemoteExtensionMode() {
		return
	}
	var max int64
	for _, e := range s.Queue.Entries() {
		info := s.StationInfo(e.StationID)
		if !info.Sequential {
			continue
		}
		stop := e.StartTime + int64(e.Duration)
		if stop > max {
			max = stop
		}
	}
	s.Queue.SetLastSeqStopTime(max)
}

// MinuteChanged reports whether now falls in a different wall-clock
// minute than the last call that returned true, per spec.md §4.7's "once
// per wall-clock minute" gate. The first call always reports true.
func (s *Scheduler) MinuteChanged(now int64) bool {
	minute := now / 60
	if s.haveMatched && minute == s.lastMatchedMinute {
		return false
	}
	s.haveMatched = true
	s.lastMatchedMinute = minute
	return true
}

// MatchResult is the outcome of matching one program at `now`.
type MatchResult struct {
	Program        controller.Program
	ProgramIndex   int // 0-based; RuntimeEntry.ProgramID = ProgramIndex+1
	SpecialCommand bool
	Enqueued       []controller.RuntimeEntry
}

// MatchPrograms runs the program-matching pass of spec.md §4.7 against
// every enabled program at `now` (already localized). waterPercentage
// applies to use_weather programs; sunriseMin/sunsetMin resolve
// sun-relative durations. It enqueues directly into s.Queue and returns
// one MatchResult per matched program (special commands included, with
// Enqueued empty) so the caller can dispatch §4.8 and fire
// PROGRAM_SCHED events.
func (s *Scheduler) MatchPrograms(now int64, weekday, dayOfMonth int, epochDay int64, isFeb29 bool, programs []controller.Program, sunriseMin, sunsetMin uint16, waterPercentage uint16) []MatchResult {
	minuteOfDay := int((now / 60) % 1440)
	var results []MatchResult
	anyEnqueued := false
	for idx, p := range programs {
		if !p.CheckMatch(minuteOfDay, weekday, dayOfMonth, epochDay, isFeb29, sunriseMin, sunsetMin) {
			continue
		}
		if p.IsSpecialCommand() {
			results = append(results, MatchResult{Program: p, ProgramIndex: idx, SpecialCommand: true})
			continue
		}
		var enqueued []controller.RuntimeEntry
		for sid, code := range p.Durations {
			if code == 0 || sid >= len(p.Durations) {
				continue
			}
			info := s.StationInfo(sid)
			if info.Disabled || info.IsMaster {
				continue
			}
			wt := controller.WaterTimeResolve(code, sunriseMin, sunsetMin)
			if p.UseWeather {
				wt = wt * uint32(waterPercentage) / 100
				if waterPercentage < 20 && wt < 10 {
					wt = 0
				}
			}
			if wt == 0 {
				continue
			}
			entry := controller.RuntimeEntry{StationID: sid, ProgramID: idx + 1, Duration: wt}
			if _, ok := s.Queue.Enqueue(entry); ok {
				enqueued = append(enqueued, entry)
				anyEnqueued = true
			}
		}
		results = append(results, MatchResult{Program: p, ProgramIndex: idx, Enqueued: enqueued})
	}
	if anyEnqueued {
		s.ScheduleAllStations(now)
	}
	return results
}
