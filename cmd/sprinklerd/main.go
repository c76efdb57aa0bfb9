// Command sprinklerd drives a chain of shift-register-backed irrigation
// valves according to stored watering programs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/clock"
	"github.com/sprinklerd/sprinklerd/controller/modules/configstore"
	"github.com/sprinklerd/sprinklerd/controller/modules/engine"
	"github.com/sprinklerd/sprinklerd/controller/modules/gpio"
	"github.com/sprinklerd/sprinklerd/controller/modules/runtimequeue"
	"github.com/sprinklerd/sprinklerd/controller/modules/scheduler"
	"github.com/sprinklerd/sprinklerd/controller/modules/sensors"
	"github.com/sprinklerd/sprinklerd/controller/modules/stationdriver"
	"github.com/sprinklerd/sprinklerd/controller/modules/switcher"
	"github.com/sprinklerd/sprinklerd/internal/housekeeping"
	"github.com/sprinklerd/sprinklerd/internal/httpapi"
	"github.com/sprinklerd/sprinklerd/internal/metrics"
	"github.com/sprinklerd/sprinklerd/internal/notify"
	"github.com/sprinklerd/sprinklerd/internal/sysreboot"
	"github.com/sprinklerd/sprinklerd/internal/system"
	"github.com/sprinklerd/sprinklerd/internal/weather"
)

// runningFirmwareVersion is the build's own IOptFirmwareVersion value,
// compared against the persisted one to detect an upgrade that should
// trigger a factory reset.
const runningFirmwareVersion = 219

func main() {
	httpAddr := flag.String("http", ":8080", "HTTP API listen address")
	simulate := flag.Bool("simulate", false, "Use simulated GPIO/shift-register instead of real hardware")
	gpioChip := flag.String("gpio-chip", "gpiochip0", "GPIO chip device for real hardware mode")
	mqttBroker := flag.String("mqtt-broker", "", "MQTT broker URL (empty disables MQTT notifications)")
	webhook := flag.String("webhook", "", "Webhook endpoint for outbound events (empty disables)")
	flag.Parse()

	if err := run(*httpAddr, *simulate, *gpioChip, *mqttBroker, *webhook); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(httpAddr string, simulate bool, gpioChipName, mqttBroker, webhookURL string) error {
	stdlog := &stderrLogger{}

	runtimeDir := configstore.ResolveRuntimeDir()
	store, err := configstore.New(runtimeDir)
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	iopts, err := store.LoadIOpts()
	if err != nil {
		return fmt.Errorf("load iopts: %w", err)
	}

	var sopts controller.StringOptions
	var stations []controller.Station
	var nstations int

	if store.NeedsFactoryReset(iopts[controller.IOptFirmwareVersion], runningFirmwareVersion) {
		stdlog.LogWarning("main", "performing factory reset")
		nstations = controller.NumStations(0)
		resetIOpts, resetSOpts, resetStations, err := store.FactoryReset(nstations)
		if err != nil {
			return fmt.Errorf("factory reset: %w", err)
		}
		iopts, sopts, stations = resetIOpts, resetSOpts, resetStations
	} else {
		sopts, err = store.LoadSOpts()
		if err != nil {
			return fmt.Errorf("load sopts: %w", err)
		}
		nstations = controller.NumStations(iopts[controller.IOptExtensionBoards])
		stations, err = store.LoadStations(nstations)
		if err != nil {
			return fmt.Errorf("load stations: %w", err)
		}
	}

	nv, err := store.LoadNVStatus()
	if err != nil {
		return fmt.Errorf("load nv status: %w", err)
	}
	programList, err := store.LoadPrograms()
	if err != nil {
		return fmt.Errorf("load programs: %w", err)
	}

	logWriter, err := configstore.NewLogWriter(store)
	if err != nil {
		return fmt.Errorf("open log writer: %w", err)
	}

	var pins gpio.Pins
	if simulate {
		pins = gpio.NewSimulated()
	} else {
		chip, err := gpio.Open(gpioChipName)
		if err != nil {
			return fmt.Errorf("open gpio chip: %w", err)
		}
		defer chip.Close()
		pins = chip
	}

	eng := &engine.Engine{
		Clock:    clock.New(),
		Log:      stdlog,
		RunLog:   logWriter,
		IOpts:    &iopts,
		SOpts:    &sopts,
		Stations: stations,
		Programs: programList,
		NV:       nv,
		Queue:    runtimequeue.New(),
		Sensors: &sensors.Engine{
			Sensor1: sensors.Binary{Type: controller.SensorType(iopts[controller.IOptSensor1Type]), OnDelayMin: iopts[controller.IOptSensor1OnDelay], OffDelayMin: iopts[controller.IOptSensor1OffDelay]},
			Sensor2: sensors.Binary{Type: controller.SensorType(iopts[controller.IOptSensor2Type]), OnDelayMin: iopts[controller.IOptSensor2OnDelay], OffDelayMin: iopts[controller.IOptSensor2OffDelay]},
		},
		Flow: &sensors.FlowCounter{},
	}

	stationAt := func(sid int) (controller.Station, bool) {
		if sid < 0 || sid >= len(eng.Stations) {
			return controller.Station{}, false
		}
		return eng.Stations[sid], true
	}

	autoRefresh := func() bool { return iopts[controller.IOptSpecialStationAutoRefresh] != 0 }
	sw := switcher.New(stationAt, pins, switcher.NewGPIORF(pins, 0), &http.Client{Timeout: 3 * time.Second}, sopts[controller.SOptPassword], autoRefresh, stdlog)

	var register stationdriver.ShiftRegister
	if simulate {
		register = &stationdriver.SimulatedRegister{}
	} else {
		register = &stationdriver.GPIORegister{Pins: pins, LatchPin: 1, ClockPin: 2, DataPin: 3}
	}
	driver := stationdriver.New(nstations, sw, register, func() bool { return iopts[controller.IOptDeviceEnable] != 0 }, autoRefresh)
	eng.Driver = driver

	stationInfo := func(sid int) scheduler.StationInfo {
		st := eng.Stations[sid]
		return scheduler.StationInfo{
			Disabled:   st.Attrib.Disabled,
			IsMaster:   controller.IsMaster(sid, eng.IOpts[controller.IOptMasterStation], eng.IOpts[controller.IOptMasterStation2]),
			Sequential: st.Attrib.Sequential,
		}
	}
	eng.Scheduler = scheduler.New(eng.Queue, stationInfo,
		func() int32 { return controller.DecodeSignedSeconds(iopts[controller.IOptStationDelay]) },
		func() bool { return iopts[controller.IOptRemoteExtensionMode] != 0 })

	eng.Weather = weather.New(
		func() string { return sopts[controller.SOptWeatherURL] },
		func() string { return sopts[controller.SOptLocation] },
		func() string { return sopts[controller.SOptWeatherOpts] },
	)
	eng.Reboot = sysreboot.New(stdlog)
	eng.Persist = store

	outbox, err := notify.Open(runtimeDir+"/data/outbox.db", stdlog)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer outbox.Close()
	if mqttBroker != "" {
		if sink, err := notify.NewMQTTSink(mqttBroker, "sprinklerd"); err != nil {
			stdlog.LogWarning("main", "mqtt sink disabled: "+err.Error())
		} else {
			outbox.Register(sink)
		}
	}
	if webhookURL != "" {
		outbox.Register(notify.NewWebhookSink(webhookURL))
	}
	if sopts[controller.SOptIFTTTKey] != "" {
		outbox.Register(notify.NewIFTTTSink(sopts[controller.SOptIFTTTKey], "sprinklerd", func() uint16 { return iopts[controller.IOptIFTTTEnable] }))
	}
	eng.Notifier = notify.MultiNotifier{outbox, metrics.EventNotifier{}}

	stopOutbox := make(chan struct{})
	go outbox.Run(stopOutbox)
	defer close(stopOutbox)

	metrics.Register(prometheus.DefaultRegisterer)

	hk := housekeeping.New(store.LogDir(), stdlog)
	if err := hk.Start(); err != nil {
		return fmt.Errorf("start housekeeping: %w", err)
	}
	defer hk.Stop()

	var mu sync.Mutex
	health := func(ctx context.Context) interface{} { return system.Snapshot(ctx) }
	apiSrv := httpapi.New(&mu, eng, store, sessionKey(), health, stdlog)
	srv := &http.Server{Addr: httpAddr, Handler: apiSrv.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdlog.LogError("main", "http server: "+err.Error())
		}
	}()

	if err := sysreboot.NotifyReady(); err != nil {
		stdlog.LogInfo("main", "sd_notify ready: "+err.Error())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	stdlog.LogInfo("main", "sprinklerd started")
	for {
		select {
		case s := <-sigCh:
			stdlog.LogInfo("main", "received "+s.String()+", shutting down")
			_ = srv.Close()
			return nil
		case <-ticker.C:
			mu.Lock()
			now := eng.Clock.LocalizedNow(uint8(iopts[controller.IOptTimezone]))
			eng.Tick(now)
			mu.Unlock()
			_ = sysreboot.NotifyWatchdog()
			metrics.ObserveStatus(eng.Status.Sensor1Active, eng.Status.Sensor2Active, eng.Status.RainDelayed, eng.Flow.LastGPM())
		}
	}
}

func sessionKey() []byte {
	if k := os.Getenv("SPRINKLERD_SESSION_KEY"); k != "" {
		return []byte(k)
	}
	return []byte("sprinklerd-dev-session-key-change-me")
}

type stderrLogger struct{}

func (stderrLogger) LogInfo(subsystem, msg string)    { log.Printf("INFO  [%s] %s", subsystem, msg) }
func (stderrLogger) LogWarning(subsystem, msg string) { log.Printf("WARN  [%s] %s", subsystem, msg) }
func (stderrLogger) LogError(subsystem, msg string)   { log.Printf("ERROR [%s] %s", subsystem, msg) }
