package metrics

import (
	"strconv"

	"github.com/sprinklerd/sprinklerd/controller"
)

// EventNotifier implements controller.Notifier, folding station-off,
// program-scheduled and flow-sensor events into the Prometheus collectors. It is meant to be
// composed alongside internal/notify.Outbox behind a small fan-out
// Notifier in cmd/sprinklerd, not used standalone.
type EventNotifier struct{}

func (EventNotifier) Notify(e controller.Event) {
	switch e.Kind {
	case controller.EventStationOff:
		if e.Uint != nil {
			StationRuns.WithLabelValues(strconv.FormatUint(uint64(*e.Uint), 10)).Inc()
		}
	case controller.EventProgramSched:
		if e.Uint != nil {
			ProgramRuns.WithLabelValues(strconv.FormatUint(uint64(*e.Uint), 10)).Inc()
		}
	case controller.EventFlowSensor:
		if e.Float != nil {
			FlowGPM.Set(*e.Float)
		}
	}
}
