// Package switcher implements spec.md §4.3: translating an on/off command
// for a non-STANDARD station into the RF burst, HTTP GET to a peer
// controller, direct GPIO pin write, or plain HTTP GET it represents. All
// failures are non-fatal and do not propagate, per spec.md §7 — the
// station bit is still flipped in memory by the caller regardless of
// whether the side effect succeeded.
package switcher

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/clock"
	"github.com/sprinklerd/sprinklerd/controller/modules/gpio"
)

// HTTPDoer is the narrow HTTP client surface used for REMOTE and HTTP
// stations; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Switcher realizes on/off commands for RF, REMOTE, GPIO and HTTP
// stations. STANDARD stations are not switcher's concern; the caller only
// invokes Switch for station.Type != StationStandard.
type Switcher struct {
	Stations     func(sid int) (controller.Station, bool)
	Pins         gpio.Pins
	RF           RFTransmitter
	HTTPClient   HTTPDoer
	Password     string // for REMOTE's GET /cm?pw=...
	AutoRefresh  func() bool
	Log          controller.Logger
}

// RFTransmitter drives the RF transmitter pin. The default implementation
// (NewGPIORF) busy-waits against the monotonic microsecond clock, per
// spec.md §4.3/§9.
type RFTransmitter interface {
	Pulse(code SpecialRF)
}

// SpecialRF mirrors controller.SpecialRF to avoid an import cycle on
// naming; callers pass controller.Station.ParseRF()'s result through
// directly since the field sets are identical.
type SpecialRF = controller.SpecialRF

// New constructs a Switcher. stations resolves a station id to its record;
// pins drives GPIO-type stations; rf drives RF-type stations; httpClient
// issues REMOTE/HTTP GETs.
func New(stations func(int) (controller.Station, bool), pins gpio.Pins, rf RFTransmitter, httpClient HTTPDoer, password string, autoRefresh func() bool, log controller.Logger) *Switcher {
	return &Switcher{Stations: stations, Pins: pins, RF: rf, HTTPClient: httpClient, Password: password, AutoRefresh: autoRefresh, Log: log}
}

// Switch realizes the on/off command for sid. It is a no-op, with nothing
// logged, for STANDARD or unknown stations.
func (s *Switcher) Switch(sid int, on bool) {
	st, ok := s.Stations(sid)
	if !ok {
		return
	}
	switch st.Type {
	case controller.StationRF:
		s.switchRF(st, on)
	case controller.StationRemote:
		s.switchRemote(st, on)
	case controller.StationGPIO:
		s.switchGPIO(st, on)
	case controller.StationHTTP:
		s.switchHTTP(st, on)
	default:
	}
}

func (s *Switcher) switchRF(st controller.Station, on bool) {
	rf, err := st.ParseRF()
	if err != nil || rf.On == 0 || rf.Off == 0 || rf.Timing == 0 {
		return
	}
	code := rf.Off
	if on {
		code = rf.On
	}
	if s.RF != nil {
		s.RF.Pulse(SpecialRF{On: code, Off: code, Timing: rf.Timing})
	}
}

func (s *Switcher) switchRemote(st controller.Station, on bool) {
	r, err := st.ParseRemote()
	if err != nil {
		return
	}
	duration := 64800 // 18h, the max the peer accepts
	if s.AutoRefresh != nil && s.AutoRefresh() {
		duration = 4 * controller.MaxStations
	}
	en := 0
	if on {
		en = 1
	}
	ip := net.IPv4(r.IP[0], r.IP[1], r.IP[2], r.IP[3])
	url := fmt.Sprintf("http://%s:%d/cm?pw=%s&sid=%d&en=%d&t=%d", ip.String(), r.Port, s.Password, r.SID, en, duration)
	s.doGET(url)
}

func (s *Switcher) switchGPIO(st controller.Station, on bool) {
	g, err := st.ParseGPIO()
	if err != nil || s.Pins == nil {
		return
	}
	level := g.Active == on
	_ = s.Pins.SetOutput(g.Pin, level)
}

func (s *Switcher) switchHTTP(st controller.Station, on bool) {
	h, err := st.ParseHTTP()
	if err != nil {
		return
	}
	cmd := h.OffCmd
	if on {
		cmd = h.OnCmd
	}
	url := fmt.Sprintf("http://%s:%s/%s", h.Server, h.Port, cmd)
	s.doGET(url)
}

func (s *Switcher) doGET(url string) controller.HTTPResult {
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return s.logResult(controller.HTTPResultConnectError, err)
	}
	req.Proto = "HTTP/1.0"
	req.ProtoMajor, req.ProtoMinor = 1, 0
	resp, err := client.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return s.logResult(controller.HTTPResultTimeout, err)
		}
		return s.logResult(controller.HTTPResultConnectError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return s.logResult(controller.HTTPResultNotReceived, fmt.Errorf("status %d", resp.StatusCode))
	}
	return controller.HTTPResultSuccess
}

func (s *Switcher) logResult(result controller.HTTPResult, err error) controller.HTTPResult {
	if s.Log != nil {
		s.Log.LogWarning("switcher", "special-station GET "+result.String()+": "+err.Error())
	}
	return result
}

// GPIORF is the default RFTransmitter: it drives a single output pin
// through an on/off-keyed pulse train, busy-waiting on the monotonic
// microsecond clock for precision, per spec.md §4.3.
type GPIORF struct {
	Pins gpio.Pins
	Pin  int
}

// NewGPIORF returns an RFTransmitter driving the given pin on chip pins.
func NewGPIORF(pins gpio.Pins, pin int) *GPIORF {
	return &GPIORF{Pins: pins, Pin: pin}
}

// Pulse repeats the 24-bit code 15 times, each bit encoded as (high=3T,
// low=T) for a 1, (high=T, low=3T) for a 0, each code followed by a sync
// pulse (high=T, low=31T), T being rf.Timing microseconds, per spec.md
// §4.3.
func (g *GPIORF) Pulse(rf SpecialRF) {
	if g.Pins == nil || rf.Timing == 0 {
		return
	}
	t := int64(rf.Timing)
	for rep := 0; rep < 15; rep++ {
		for bit := 23; bit >= 0; bit-- {
			high := t
			low := 3 * t
			if rf.On&(1<<uint(bit)) != 0 {
				high, low = 3*t, t
			}
			g.pulse(high, low)
		}
		g.pulse(t, 31*t)
	}
}

func (g *GPIORF) pulse(highUS, lowUS int64) {
	_ = g.Pins.SetOutput(g.Pin, true)
	clock.BusyWaitUS(highUS)
	_ = g.Pins.SetOutput(g.Pin, false)
	clock.BusyWaitUS(lowUS)
}
