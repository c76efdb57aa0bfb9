package runtimequeue

import (
	"testing"

	"github.com/sprinklerd/sprinklerd/controller"
)

func TestEnqueueDequeueAndCapacity(t *testing.T) {
	q := New()
	idx, ok := q.Enqueue(controller.RuntimeEntry{StationID: 0, Duration: 60})
	if !ok || idx != 0 {
		t.Fatalf("expected first enqueue at index 0, got idx=%d ok=%v", idx, ok)
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
	q.Dequeue(0)
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after dequeue, got %d", q.Len())
	}
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	q := New()
	for i := 0; i < Capacity; i++ {
		if _, ok := q.Enqueue(controller.RuntimeEntry{StationID: i % controller.MaxStations}); !ok {
			t.Fatalf("enqueue %d should have succeeded", i)
		}
	}
	if _, ok := q.Enqueue(controller.RuntimeEntry{}); ok {
		t.Fatal("expected overflow enqueue to be rejected")
	}
}

func TestDequeueSwapsWithLast(t *testing.T) {
	q := New()
	q.Enqueue(controller.RuntimeEntry{StationID: 1})
	q.Enqueue(controller.RuntimeEntry{StationID: 2})
	q.Enqueue(controller.RuntimeEntry{StationID: 3})
	q.Dequeue(0) // swaps in entry for station 3
	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}
	if q.At(0).StationID != 3 {
		t.Fatalf("expected station 3 swapped into index 0, got %d", q.At(0).StationID)
	}
}

func TestDequeueHighIndexFirstKeepsIndicesValid(t *testing.T) {
	q := New()
	for i := 0; i < 5; i++ {
		q.Enqueue(controller.RuntimeEntry{StationID: i})
	}
	q.DequeueHighIndexFirst([]int{1, 3})
	if q.Len() != 3 {
		t.Fatalf("expected 3 remaining entries, got %d", q.Len())
	}
}

func TestStationQIDMapping(t *testing.T) {
	q := New()
	if q.StationQID(5) != controller.NoQueueIndex {
		t.Fatal("expected unassigned station to report NoQueueIndex")
	}
	q.SetStationQID(5, 2)
	if q.StationQID(5) != 2 {
		t.Fatalf("expected StationQID 2, got %d", q.StationQID(5))
	}
}

func TestRecomputeStationQIDPicksEarliestStartTime(t *testing.T) {
	q := New()
	q.Enqueue(controller.RuntimeEntry{StationID: 4, StartTime: 200})
	q.Enqueue(controller.RuntimeEntry{StationID: 4, StartTime: 100})
	q.RecomputeStationQID()
	if got := q.StationQID(4); got != 1 {
		t.Fatalf("expected index 1 (earliest start_time) to own station 4, got %d", got)
	}
}

func TestRecomputeStationQIDBreaksTiesTowardLaterIndex(t *testing.T) {
	q := New()
	q.Enqueue(controller.RuntimeEntry{StationID: 4, StartTime: 100})
	q.Enqueue(controller.RuntimeEntry{StationID: 4, StartTime: 100})
	q.RecomputeStationQID()
	if got := q.StationQID(4); got != 1 {
		t.Fatalf("expected index 1 (later index on an exact start_time tie) to own station 4, got %d", got)
	}
}

func TestResetRuntimeClearsEverything(t *testing.T) {
	q := New()
	q.Enqueue(controller.RuntimeEntry{StationID: 0})
	q.SetStationQID(0, 0)
	q.SetLastSeqStopTime(500)
	q.ResetRuntime()
	if q.Len() != 0 {
		t.Fatal("expected empty queue after ResetRuntime")
	}
	if q.StationQID(0) != controller.NoQueueIndex {
		t.Fatal("expected station_qid cleared after ResetRuntime")
	}
	if q.LastSeqStopTime() != 0 {
		t.Fatal("expected last_seq_stop_time cleared after ResetRuntime")
	}
}
