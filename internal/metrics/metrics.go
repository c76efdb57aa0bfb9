// Package metrics exposes the engine's runtime state as Prometheus
// metrics, scraped by internal/httpapi's /metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	StationRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sprinklerd",
		Name:      "station_runs_total",
		Help:      "Completed station on/off cycles, by station.",
	}, []string{"station"})

	ProgramRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sprinklerd",
		Name:      "program_runs_total",
		Help:      "Completed program runs, by program.",
	}, []string{"program"})

	FlowGPM = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sprinklerd",
		Name:      "flow_gallons_per_minute",
		Help:      "Most recent flow-sensor derived gallons-per-minute reading.",
	})

	Sensor1Active = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sprinklerd",
		Name:      "sensor1_active",
		Help:      "1 if sensor1 is gating watering, 0 otherwise.",
	})

	Sensor2Active = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sprinklerd",
		Name:      "sensor2_active",
		Help:      "1 if sensor2 is gating watering, 0 otherwise.",
	})

	RainDelayed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sprinklerd",
		Name:      "rain_delayed",
		Help:      "1 if a rain delay window is active, 0 otherwise.",
	})
)

// Register adds every collector to reg (typically
// prometheus.DefaultRegisterer).
func Register(reg prometheus.Registerer) {
	reg.MustRegister(StationRuns, ProgramRuns, FlowGPM, Sensor1Active, Sensor2Active, RainDelayed)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ObserveStatus folds a ConStatus snapshot into the gauges.
func ObserveStatus(sensor1, sensor2, rainDelayed bool, gpm float64) {
	Sensor1Active.Set(boolToFloat(sensor1))
	Sensor2Active.Set(boolToFloat(sensor2))
	RainDelayed.Set(boolToFloat(rainDelayed))
	FlowGPM.Set(gpm)
}
