package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sprinklerd/sprinklerd/controller"
)

func TestObserveStatusSetsGauges(t *testing.T) {
	ObserveStatus(true, false, true, 2.5)
	if got := testutil.ToFloat64(Sensor1Active); got != 1 {
		t.Errorf("Sensor1Active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(Sensor2Active); got != 0 {
		t.Errorf("Sensor2Active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(RainDelayed); got != 1 {
		t.Errorf("RainDelayed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(FlowGPM); got != 2.5 {
		t.Errorf("FlowGPM = %v, want 2.5", got)
	}
}

func TestRegisterAddsEveryCollectorExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}

func TestEventNotifierIncrementsStationAndProgramCounters(t *testing.T) {
	n := EventNotifier{}
	before := testutil.ToFloat64(StationRuns.WithLabelValues("7"))

	sid := uint32(7)
	n.Notify(controller.Event{Kind: controller.EventStationOff, Uint: &sid})
	if got := testutil.ToFloat64(StationRuns.WithLabelValues("7")); got != before+1 {
		t.Errorf("StationRuns[7] = %v, want %v", got, before+1)
	}

	pid := uint32(3)
	beforeProg := testutil.ToFloat64(ProgramRuns.WithLabelValues("3"))
	n.Notify(controller.Event{Kind: controller.EventProgramSched, Uint: &pid})
	if got := testutil.ToFloat64(ProgramRuns.WithLabelValues("3")); got != beforeProg+1 {
		t.Errorf("ProgramRuns[3] = %v, want %v", got, beforeProg+1)
	}
}

func TestEventNotifierSetsFlowGauge(t *testing.T) {
	n := EventNotifier{}
	gpm := 4.75
	n.Notify(controller.Event{Kind: controller.EventFlowSensor, Float: &gpm})
	if got := testutil.ToFloat64(FlowGPM); got != 4.75 {
		t.Errorf("FlowGPM = %v, want 4.75", got)
	}
}

func TestEventNotifierIgnoresUnrelatedKinds(t *testing.T) {
	n := EventNotifier{}
	before := testutil.ToFloat64(FlowGPM)
	n.Notify(controller.Event{Kind: controller.EventRainDelay})
	if got := testutil.ToFloat64(FlowGPM); got != before {
		t.Errorf("expected FlowGPM unchanged by an unrelated event, got %v", got)
	}
}
