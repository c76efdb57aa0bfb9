// Package gpio wraps github.com/warthog618/go-gpiocdev for the three
// direct-pin concerns of the engine: the shift-register latch/clock/data
// lines (stationdriver), binary sensor reads (sensors), and GPIO-type
// special stations (switcher). It is intentionally thin — callers own
// retry/backoff policy, the package just opens lines and reads/writes
// them.
package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// Chip wraps a single gpiocdev.Chip and caches opened lines so repeated
// Output/Input calls for the same offset are cheap, matching the
// auto-refresh and per-second poll rates of the engine.
type Chip struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// Open opens the named gpiochip (e.g. "gpiochip0"). Callers on boards
// without real GPIO hardware should use NewSimulated instead.
func Open(name string) (*Chip, error) {
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("gpio: open %s: %w", name, err)
	}
	return &Chip{chip: c, lines: make(map[int]*gpiocdev.Line)}, nil
}

func (c *Chip) line(offset int, opts ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.lines[offset]; ok {
		return l, nil
	}
	l, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, err
	}
	c.lines[offset] = l
	return l, nil
}

// SetOutput drives offset to the given logical level, opening it as an
// output line on first use.
func (c *Chip) SetOutput(offset int, high bool) error {
	l, err := c.line(offset, gpiocdev.AsOutput(boolToInt(high)))
	if err != nil {
		return err
	}
	return l.SetValue(boolToInt(high))
}

// ReadInput reads offset as a boolean level, opening it as an input line
// on first use.
func (c *Chip) ReadInput(offset int) (bool, error) {
	l, err := c.line(offset, gpiocdev.AsInput)
	if err != nil {
		return false, err
	}
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Close releases every opened line and the chip handle.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		_ = l.Close()
	}
	return c.chip.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Simulated is an in-memory Pins implementation for tests and for boards
// with no real gpiochip (e.g. development on a workstation).
type Simulated struct {
	mu      sync.Mutex
	outputs map[int]bool
	inputs  map[int]bool
}

// NewSimulated returns a Simulated with every pin initially low.
func NewSimulated() *Simulated {
	return &Simulated{outputs: map[int]bool{}, inputs: map[int]bool{}}
}

func (s *Simulated) SetOutput(offset int, high bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[offset] = high
	return nil
}

func (s *Simulated) ReadInput(offset int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs[offset], nil
}

// SetInputForTest lets a test drive a simulated input pin.
func (s *Simulated) SetInputForTest(offset int, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[offset] = high
}

// OutputForTest lets a test observe a simulated output pin.
func (s *Simulated) OutputForTest(offset int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputs[offset]
}

// Pins is the narrow interface stationdriver, sensors, and switcher
// depend on; both Chip and Simulated satisfy it.
type Pins interface {
	SetOutput(offset int, high bool) error
	ReadInput(offset int) (bool, error)
}

var (
	_ Pins = (*Chip)(nil)
	_ Pins = (*Simulated)(nil)
)
