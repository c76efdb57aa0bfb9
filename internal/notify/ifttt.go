package notify

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sprinklerd/sprinklerd/controller"
)

// iftttEventBit maps an EventKind onto the bit of the IFTTT enable
// bitmask (IOptIFTTTEnable) that gates it. Program runs, sensor state (both
// sensors share bit 1), rain delay, flow readings and weather updates have
// a bit; everything else is always suppressed.
func iftttEventBit(k controller.EventKind) (uint16, bool) {
	switch k {
	case controller.EventProgramSched:
		return 1 << 0, true
	case controller.EventSensor1:
		return 1 << 1, true
	case controller.EventSensor2:
		return 1 << 1, true
	case controller.EventRainDelay:
		return 1 << 2, true
	case controller.EventFlowSensor:
		return 1 << 3, true
	case controller.EventWeatherUpdate:
		return 1 << 4, true
	default:
		return 0, false
	}
}

// IFTTTSink posts to the Maker webhook service, gated per-event by the
// IOptIFTTTEnable bitmask.
type IFTTTSink struct {
	apiKey   string
	eventKey string
	enabled  func() uint16
	client   *http.Client
}

// NewIFTTTSink returns a sink posting to
// maker.ifttt.com/trigger/<eventKey>/with/key/<apiKey>. enabled is
// called on every Send to read the live IOptIFTTTEnable bitmask.
func NewIFTTTSink(apiKey, eventKey string, enabled func() uint16) *IFTTTSink {
	return &IFTTTSink{apiKey: apiKey, eventKey: eventKey, enabled: enabled, client: &http.Client{Timeout: 5 * time.Second}}
}

func (s *IFTTTSink) Name() string { return "ifttt" }

func (s *IFTTTSink) Send(e controller.Event) error {
	bit, gated := iftttEventBit(e.Kind)
	if !gated || s.enabled()&bit == 0 {
		return nil
	}
	endpoint := fmt.Sprintf("https://maker.ifttt.com/trigger/%s/with/key/%s", s.eventKey, s.apiKey)

	form := url.Values{}
	form.Set("value1", e.Kind.String())
	if e.Uint != nil {
		form.Set("value2", strconv.FormatUint(uint64(*e.Uint), 10))
	} else if e.Float != nil {
		form.Set("value2", strconv.FormatFloat(*e.Float, 'f', 2, 64))
	} else if e.String != nil {
		form.Set("value2", *e.String)
	}
	form.Set("value3", e.At.UTC().Format(time.RFC3339))

	resp, err := s.client.PostForm(endpoint, form)
	if err != nil {
		return fmt.Errorf("ifttt post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ifttt post: status %d", resp.StatusCode)
	}
	return nil
}
