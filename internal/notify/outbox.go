// Package notify fans engine events out to the outbound sinks of
// spec.md §6 (MQTT, webhook, AdafruitIO, IFTTT), persisting undelivered
// events in a bbolt-backed retry queue so a sink outage doesn't drop
// events the way an unbuffered channel would.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sprinklerd/sprinklerd/controller"
)

var outboxBucket = []byte("outbox")

// Sink delivers a single event to one outbound transport.
type Sink interface {
	Name() string
	Send(controller.Event) error
}

// record is the bbolt-persisted, JSON-encoded form of a queued event. It
// copies controller.Event's fields one for one, pointer fields included.
type record struct {
	Kind   controller.EventKind
	Uint   *uint32
	Float  *float64
	String *string
	At     time.Time
}

func toRecord(e controller.Event) record {
	return record{Kind: e.Kind, Uint: e.Uint, Float: e.Float, String: e.String, At: e.At}
}

func (r record) toEvent() controller.Event {
	return controller.Event{Kind: r.Kind, Uint: r.Uint, Float: r.Float, String: r.String, At: r.At}
}

// Outbox is a controller.Notifier that enqueues every event for durable,
// retried delivery to every registered Sink.
type Outbox struct {
	db    *bbolt.DB
	sinks []Sink
	log   controller.Logger

	mu   sync.Mutex
	cond *sync.Cond
}

// Open opens (creating if absent) the bbolt database at path and returns
// an Outbox ready to have sinks registered and Run started.
func Open(path string, log controller.Logger) (*Outbox, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open outbox db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(outboxBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	ob := &Outbox{db: db, log: log}
	ob.cond = sync.NewCond(&ob.mu)
	return ob, nil
}

// Register adds a sink that every future and queued event is delivered to.
func (ob *Outbox) Register(s Sink) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.sinks = append(ob.sinks, s)
}

// Close releases the underlying bbolt database.
func (ob *Outbox) Close() error {
	return ob.db.Close()
}

// Notify implements controller.Notifier: persist, then wake the delivery
// loop. The engine tick never blocks on transport.
func (ob *Outbox) Notify(e controller.Event) {
	if err := ob.enqueue(e); err != nil {
		ob.log.LogError("notify", "enqueue event: "+err.Error())
		return
	}
	ob.mu.Lock()
	ob.cond.Signal()
	ob.mu.Unlock()
}

func (ob *Outbox) enqueue(e controller.Event) error {
	return ob.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(outboxBucket)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(toRecord(e))
		if err != nil {
			return err
		}
		return b.Put(itob(id), data)
	})
}

// Run drains the queue until stop is closed; callers typically run this
// in its own goroutine for the process lifetime. stop is checked only
// between passes, so a Run that is waiting for new events does not return
// until a later Notify wakes it.
func (ob *Outbox) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		delivered := ob.drainOnce()
		if !delivered {
			ob.mu.Lock()
			ob.cond.Wait()
			ob.mu.Unlock()
		}
	}
}

// drainOnce attempts delivery of every queued record to every sink,
// removing a record only once all sinks have accepted it. A record that
// fails on any sink stays queued for the next pass.
func (ob *Outbox) drainOnce() bool {
	type queued struct {
		key []byte
		rec record
	}
	var items []queued
	_ = ob.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(outboxBucket)
		return b.ForEach(func(k, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return nil
			}
			key := append([]byte{}, k...)
			items = append(items, queued{key: key, rec: r})
			return nil
		})
	})
	if len(items) == 0 {
		return false
	}

	ob.mu.Lock()
	sinks := append([]Sink{}, ob.sinks...)
	ob.mu.Unlock()

	for _, it := range items {
		ok := true
		for _, s := range sinks {
			if err := s.Send(it.rec.toEvent()); err != nil {
				ob.log.LogWarning("notify", s.Name()+" delivery failed, retrying: "+err.Error())
				ok = false
			}
		}
		if ok {
			_ = ob.db.Update(func(tx *bbolt.Tx) error {
				return tx.Bucket(outboxBucket).Delete(it.key)
			})
		}
	}
	return true
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
