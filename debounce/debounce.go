// Package debounce filters contact bounce on a single GPIO input line.
//
// A mechanical switch (or a photoresistor driving a comparator) produces a
// burst of rapid transitions around each physical actuation. Debouncer turns
// that raw signal into a stable level and at most one edge event per physical
// transition: it samples the line, waits a settle window, samples again, and
// only believes the reading if both samples agree.
package debounce

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/HuySSU26/calcpad/delay"
)

// Edge identifies a stable transition on the input line.
type Edge int

const (
	None Edge = iota
	Rising
	Falling
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return "none"
}

// Debouncer tracks the debounce history of one input line. Each line needs
// its own Debouncer; the previous stable level is held here rather than by
// the caller.
type Debouncer struct {
	Pin    gpio.PinIO    // required
	Settle time.Duration // settle window between the two samples
	Wait   delay.Func    // defaults to delay.Sleep

	prev   gpio.Level
	seeded bool
}

// New returns a Debouncer for pin with the given settle window. The line's
// current level seeds the edge history, so a line that is already high does
// not report a spurious rising edge on the first poll.
func New(pin gpio.PinIO, settle time.Duration) *Debouncer {
	d := &Debouncer{Pin: pin, Settle: settle}
	d.prev = pin.Read()
	d.seeded = true
	return d
}

func (d *Debouncer) wait() {
	w := d.Wait
	if w == nil {
		w = delay.Sleep
	}
	w(d.Settle)
}

// Level samples the line twice across the settle window and returns the
// stable level. If the two samples disagree the line is still bouncing and
// the previous stable level is returned; Level never fails.
func (d *Debouncer) Level() gpio.Level {
	if !d.seeded {
		d.prev = d.Pin.Read()
		d.seeded = true
	}
	s := d.Pin.Read()
	d.wait()
	if d.Pin.Read() != s {
		return d.prev
	}
	return s
}

// Edge reports a transition between the previous stable level and the
// current one. A line toggling faster than the settle window reports no
// edges; a single toggle held beyond the window reports exactly one.
func (d *Debouncer) Edge() Edge {
	cur := d.Level()
	prev := d.prev
	d.prev = cur
	switch {
	case cur == gpio.High && prev == gpio.Low:
		return Rising
	case cur == gpio.Low && prev == gpio.High:
		return Falling
	}
	return None
}

// Pressed reports a rising edge, reading the line as an active-high switch.
func (d *Debouncer) Pressed() bool {
	return d.Edge() == Rising
}

// Held reports the last stable level without touching the line. Useful for
// chord checks after the edges of the cycle have been consumed.
func (d *Debouncer) Held() bool {
	return d.prev == gpio.High
}
