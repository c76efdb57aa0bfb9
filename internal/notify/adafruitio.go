package notify

import (
	"fmt"
	"strconv"

	"github.com/reef-pi/adafruitio"

	"github.com/sprinklerd/sprinklerd/controller"
)

// AdafruitIOSink publishes numeric events as AdafruitIO feed values, one
// feed per event kind, the way reef-pi's telemetry sink publishes one
// feed per probe.
type AdafruitIOSink struct {
	client   *adafruitio.Client
	username string
}

// NewAdafruitIOSink returns a sink authenticated against username/key.
func NewAdafruitIOSink(username, key string) *AdafruitIOSink {
	return &AdafruitIOSink{client: adafruitio.NewClient(key), username: username}
}

func (s *AdafruitIOSink) Name() string { return "adafruitio" }

func (s *AdafruitIOSink) Send(e controller.Event) error {
	value, ok := numericValue(e)
	if !ok {
		return nil
	}
	feed := "sprinklerd-" + e.Kind.String()
	data := adafruitio.Data{Value: strconv.FormatFloat(value, 'f', 3, 64)}
	if err := s.client.SubmitData(s.username, feed, data); err != nil {
		return fmt.Errorf("adafruitio send %s: %w", feed, err)
	}
	return nil
}

func numericValue(e controller.Event) (float64, bool) {
	switch {
	case e.Float != nil:
		return *e.Float, true
	case e.Uint != nil:
		return float64(*e.Uint), true
	default:
		return 0, false
	}
}
