// Package runtimequeue implements spec.md §4.6: the bounded, volatile
// sequence of pending/running run-intervals and the station_qid side map.
// The queue is intentionally not persisted across reboot, per spec.md §1's
// Non-goals.
package runtimequeue

import "github.com/sprinklerd/sprinklerd/controller"

// Capacity is the bound on concurrently queued entries. spec.md §4.6
// requires at least MaxStations; there is no reason to allow more since
// at most one entry can own a given station at a time (Invariant 2).
const Capacity = controller.MaxStations

// Queue is the runtime queue of spec.md §4.6.
type Queue struct {
	entries         []controller.RuntimeEntry
	stationQID      [controller.MaxStations]int // index into entries, or NoQueueIndex
	lastSeqStopTime int64
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.reset()
	return q
}

func (q *Queue) reset() {
	for i := range q.stationQID {
		q.stationQID[i] = controller.NoQueueIndex
	}
}

// Enqueue appends e and returns its index, or (-1,false) if the queue is
// full — the overflowing enqueue is silently dropped per spec.md §7.
func (q *Queue) Enqueue(e controller.RuntimeEntry) (int, bool) {
	if len(q.entries) >= Capacity {
		return -1, false
	}
	q.entries = append(q.entries, e)
	return len(q.entries) - 1, true
}

// Dequeue removes the entry at i, which may reorder remaining entries
// (spec.md §4.6 permits this; callers must not rely on index stability
// across a Dequeue).
func (q *Queue) Dequeue(i int) {
	if i < 0 || i >= len(q.entries) {
		return
	}
	last := len(q.entries) - 1
	q.entries[i] = q.entries[last]
	q.entries = q.entries[:last]
}

// DequeueHighIndexFirst removes every entry whose index is in idxs,
// iterating high-index-first so earlier indices stay valid, per spec.md
// §4.9 step 6c.
func (q *Queue) DequeueHighIndexFirst(idxs []int) {
	sorted := append([]int(nil), idxs...)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] > sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	for _, idx := range sorted {
		q.Dequeue(idx)
	}
}

// Len reports the number of queued entries.
func (q *Queue) Len() int { return len(q.entries) }

// Entries returns the current entries by value; callers must not mutate
// in place — use Set to write a modified entry back.
func (q *Queue) Entries() []controller.RuntimeEntry {
	return append([]controller.RuntimeEntry(nil), q.entries...)
}

// At returns the entry at index i.
func (q *Queue) At(i int) controller.RuntimeEntry { return q.entries[i] }

// Set overwrites the entry at index i.
func (q *Queue) Set(i int, e controller.RuntimeEntry) { q.entries[i] = e }

// StationQID returns the queue index currently owning sid, or
// controller.NoQueueIndex.
func (q *Queue) StationQID(sid int) int {
	if sid < 0 || sid >= controller.MaxStations {
		return controller.NoQueueIndex
	}
	return q.stationQID[sid]
}

// SetStationQID records which entry owns sid.
func (q *Queue) SetStationQID(sid, idx int) {
	if sid < 0 || sid >= controller.MaxStations {
		return
	}
	q.stationQID[sid] = idx
}

// RecomputeStationQID rebuilds the station->queue-index map as the
// youngest queue index per station with the smallest start_time, per
// spec.md §4.9 step 6a.
func (q *Queue) RecomputeStationQID() {
	for i := range q.stationQID {
		q.stationQID[i] = controller.NoQueueIndex
	}
	for i, e := range q.entries {
		cur := q.stationQID[e.StationID]
		// <=, not <: on an exact start_time tie the later-index entry wins,
		// matching the original firmware's recompute loop.
		if cur == controller.NoQueueIndex || e.StartTime <= q.entries[cur].StartTime {
			q.stationQID[e.StationID] = i
		}
	}
}

// LastSeqStopTime is the maximum start_time+duration across currently
// queued sequential stations in non-remote-extension mode, per
// spec.md §4.6.
func (q *Queue) LastSeqStopTime() int64 { return q.lastSeqStopTime }

// SetLastSeqStopTime updates the cached value; the scheduler recomputes
// it after each scheduling pass and the control loop recomputes it after
// dequeuing, per spec.md §4.9 step 6f.
func (q *Queue) SetLastSeqStopTime(t int64) { q.lastSeqStopTime = t }

// ResetRuntime clears all entries, the station_qid map, and
// last_seq_stop_time, per spec.md §4.6.
func (q *Queue) ResetRuntime() {
	q.entries = q.entries[:0]
	q.reset()
	q.lastSeqStopTime = 0
}
