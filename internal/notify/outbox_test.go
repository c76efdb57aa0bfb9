package notify

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sprinklerd/sprinklerd/controller"
)

type nopLog struct{}

func (nopLog) LogInfo(string, string)    {}
func (nopLog) LogWarning(string, string) {}
func (nopLog) LogError(string, string)   {}

type fakeSink struct {
	name string
	fail bool

	mu  sync.Mutex
	got []controller.Event
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(e controller.Event) error {
	if f.fail {
		return errors.New("sink unavailable")
	}
	f.mu.Lock()
	f.got = append(f.got, e)
	f.mu.Unlock()
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	ob, err := Open(filepath.Join(t.TempDir(), "outbox.db"), nopLog{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ob.Close() })
	return ob
}

func TestNotifyEnqueuesAndDrainDeliversToAllSinks(t *testing.T) {
	ob := newTestOutbox(t)
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	ob.Register(a)
	ob.Register(b)

	s := "program started"
	ob.Notify(controller.Event{Kind: controller.EventProgramSched, String: &s})

	if delivered := ob.drainOnce(); !delivered {
		t.Fatal("expected drainOnce to report work done")
	}
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both sinks to receive the event, got a=%d b=%d", a.count(), b.count())
	}

	// The record should be gone now; a second drain finds nothing queued.
	if delivered := ob.drainOnce(); delivered {
		t.Fatal("expected no remaining queued records after successful delivery")
	}
}

func TestDrainOnceRetainsRecordUntilEverySinkAccepts(t *testing.T) {
	ob := newTestOutbox(t)
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", fail: true}
	ob.Register(good)
	ob.Register(bad)

	ob.Notify(controller.Event{Kind: controller.EventSensor1})

	ob.drainOnce()
	if good.count() != 1 {
		t.Fatalf("expected the healthy sink to receive the event, got %d", good.count())
	}

	// The record must still be queued because bad rejected it; a retry
	// redelivers to the already-successful sink too (at-least-once).
	ob.drainOnce()
	if good.count() != 2 {
		t.Fatalf("expected a redelivery attempt to the healthy sink, got %d", good.count())
	}

	bad.fail = false
	if delivered := ob.drainOnce(); !delivered {
		t.Fatal("expected the retry pass to find the still-queued record")
	}
	if delivered := ob.drainOnce(); delivered {
		t.Fatal("expected the record to be gone once every sink accepted it")
	}
}

func TestDrainOnceWithNoSinksLeavesRecordQueued(t *testing.T) {
	ob := newTestOutbox(t)
	ob.Notify(controller.Event{Kind: controller.EventRainDelay})

	if delivered := ob.drainOnce(); !delivered {
		t.Fatal("expected drainOnce to find the queued record")
	}
}

func TestDrainOnceEmptyQueueReportsNoWork(t *testing.T) {
	ob := newTestOutbox(t)
	if delivered := ob.drainOnce(); delivered {
		t.Fatal("expected no work on an empty queue")
	}
}

func TestMultiNotifierFansOutToEveryNotifier(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	m := MultiNotifier{notifierFunc(func(e controller.Event) { a.Send(e) }), notifierFunc(func(e controller.Event) { b.Send(e) })}

	m.Notify(controller.Event{Kind: controller.EventFlowSensor})
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both wrapped notifiers to receive the event, got a=%d b=%d", a.count(), b.count())
	}
}

func TestMultiNotifierSkipsNilEntries(t *testing.T) {
	a := &fakeSink{name: "a"}
	m := MultiNotifier{nil, notifierFunc(func(e controller.Event) { a.Send(e) })}
	m.Notify(controller.Event{Kind: controller.EventFlowSensor}) // must not panic on the nil entry
	if a.count() != 1 {
		t.Fatalf("expected the non-nil notifier to receive the event, got %d", a.count())
	}
}

type notifierFunc func(controller.Event)

func (f notifierFunc) Notify(e controller.Event) { f(e) }
