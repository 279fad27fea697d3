package debounce

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/HuySSU26/calcpad/delay"
)

// scriptPin replays a fixed sequence of levels, then settles on the
// underlying pin's level. Each Read consumes one sample, which lets a test
// place the two debounce samples on opposite sides of a bounce.
type scriptPin struct {
	*gpiotest.Pin
	seq []gpio.Level
}

func (s *scriptPin) Read() gpio.Level {
	if len(s.seq) == 0 {
		return s.Pin.Read()
	}
	l := s.seq[0]
	s.seq = s.seq[1:]
	return l
}

func newDebouncer(pin gpio.PinIO) *Debouncer {
	d := New(pin, time.Millisecond)
	d.Wait = delay.Nop
	return d
}

func TestLevelStable(t *testing.T) {
	p := &gpiotest.Pin{N: "in", L: gpio.High}
	d := newDebouncer(p)
	if got := d.Level(); got != gpio.High {
		t.Errorf("Level() = %v, want High", got)
	}
	p.L = gpio.Low
	if got := d.Level(); got != gpio.Low {
		t.Errorf("Level() = %v, want Low", got)
	}
}

func TestLevelBouncing(t *testing.T) {
	// The two samples disagree, so the previous stable level must be
	// reported.
	base := &gpiotest.Pin{N: "in", L: gpio.Low}
	p := &scriptPin{Pin: base}
	d := newDebouncer(p)
	p.seq = []gpio.Level{gpio.High, gpio.Low}
	if got := d.Level(); got != gpio.Low {
		t.Errorf("Level() during bounce = %v, want previous Low", got)
	}
}

func TestEdgeOncePerTransition(t *testing.T) {
	p := &gpiotest.Pin{N: "in", L: gpio.Low}
	d := newDebouncer(p)

	// Toggle once and hold beyond the settle window: exactly one edge.
	p.L = gpio.High
	if got := d.Edge(); got != Rising {
		t.Fatalf("Edge() = %v, want rising", got)
	}
	for i := 0; i < 5; i++ {
		if got := d.Edge(); got != None {
			t.Fatalf("Edge() while held = %v on poll %d, want none", got, i)
		}
	}

	p.L = gpio.Low
	if got := d.Edge(); got != Falling {
		t.Fatalf("Edge() = %v, want falling", got)
	}
	if got := d.Edge(); got != None {
		t.Fatalf("Edge() after release = %v, want none", got)
	}
}

func TestEdgeSuppressedDuringBounce(t *testing.T) {
	// A line toggling faster than the settle window reports zero edges.
	base := &gpiotest.Pin{N: "in", L: gpio.Low}
	p := &scriptPin{Pin: base}
	d := newDebouncer(p)

	for i := 0; i < 4; i++ {
		p.seq = []gpio.Level{gpio.High, gpio.Low}
		if got := d.Edge(); got != None {
			t.Fatalf("Edge() during bounce burst %d = %v, want none", i, got)
		}
	}
}

func TestSeedNoSpuriousEdge(t *testing.T) {
	// A line that is already high at construction must not report a rising
	// edge on the first poll.
	p := &gpiotest.Pin{N: "in", L: gpio.High}
	d := newDebouncer(p)
	if got := d.Edge(); got != None {
		t.Errorf("first Edge() = %v, want none", got)
	}
	if !d.Held() {
		t.Error("Held() = false, want true")
	}
}

func TestPressed(t *testing.T) {
	p := &gpiotest.Pin{N: "in", L: gpio.Low}
	d := newDebouncer(p)
	if d.Pressed() {
		t.Error("Pressed() on idle line")
	}
	p.L = gpio.High
	if !d.Pressed() {
		t.Error("Pressed() = false on press")
	}
	if d.Pressed() {
		t.Error("Pressed() = true while held")
	}
}

func TestZeroValueSeedsFromLine(t *testing.T) {
	p := &gpiotest.Pin{N: "in", L: gpio.High}
	d := &Debouncer{Pin: p, Settle: time.Millisecond, Wait: delay.Nop}
	if got := d.Edge(); got != None {
		t.Errorf("first Edge() on zero-value Debouncer = %v, want none", got)
	}
}
