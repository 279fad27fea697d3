// Package ledbar renders values in binary on a row of LEDs.
//
// This is the display variant that predates the 7-segment module: the
// result magnitude appears as an 8-bit binary pattern, and a negative
// result is indicated by blinking the most significant LED over the
// rendered magnitude. It satisfies the same renderer contract as
// package sevenseg, so the calculator state machine drives either.
package ledbar

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/HuySSU26/calcpad/delay"
)

// Glyph patterns for non-numeric modes. With no segments to shape letters,
// operators show as distinct static patterns on the low LEDs and errors as
// alternating bits.
var defaultRuneMap = map[rune]uint8{
	' ': 0x00,
	'+': 0x01,
	'-': 0x03,
	'*': 0x07,
	'/': 0x0F,
	'E': 0x55,
}

// Bar is an 8-LED binary display. Leds[0] is the least significant bit.
type Bar struct {
	Leds [8]gpio.PinIO

	RuneMap map[rune]uint8 // optional, uses a default map if nil

	Dwell time.Duration // hold time per sweep
	Wait  delay.Func    // defaults to delay.Sleep

	// BlinkSweeps is the number of sweeps per half-period of the negative
	// indicator blink on the MSB.
	BlinkSweeps int

	pattern uint8
	neg     bool
	phase   int
}

// Validate reports wiring problems up front.
func (b *Bar) Validate() error {
	for i, p := range b.Leds {
		if p == nil {
			return errors.Errorf("ledbar: LED pin %d is nil", i)
		}
	}
	return nil
}

// SetValue latches a value for display. The magnitude is saturated to 255;
// a negative value additionally arms the MSB blink.
func (b *Bar) SetValue(v int) {
	b.neg = v < 0
	if b.neg {
		v = -v
	}
	if v > 0xFF {
		v = 0xFF
	}
	b.pattern = uint8(v)
}

// SetGlyph latches a symbolic pattern.
func (b *Bar) SetGlyph(r rune) {
	runes := b.RuneMap
	if runes == nil {
		runes = defaultRuneMap
	}
	b.neg = false
	b.pattern = runes[r]
}

// Sweep writes the latched pattern to the LEDs, overlaying the blinking
// negative indicator on the MSB, and advances the blink phase. The cadence
// is counted in sweeps so it stays interruptible between calls.
func (b *Bar) Sweep() {
	pat := b.pattern
	if b.neg {
		if b.signOn() {
			pat |= 0x80
		} else {
			pat &^= 0x80
		}
		b.phase++
	}
	for i, p := range b.Leds {
		p.Out(gpio.Level(pat&(1<<i) != 0))
	}
	b.wait(b.Dwell)
}

// Flash shows the latched pattern in a counted on/off sequence.
func (b *Bar) Flash(n int) {
	for i := 0; i < n; i++ {
		b.Sweep()
		b.wait(b.Dwell)
		b.allOff()
		b.wait(2 * b.Dwell)
	}
}

// Blink flashes all LEDs n times. Mirrors the startup blink of the
// original LED array.
func (b *Bar) Blink(n int) {
	for i := 0; i < n; i++ {
		for _, p := range b.Leds {
			p.Out(gpio.High)
		}
		b.wait(2 * b.Dwell)
		b.allOff()
		b.wait(2 * b.Dwell)
	}
}

// Clear turns every LED off and forgets the latched value.
func (b *Bar) Clear() {
	b.pattern = 0
	b.neg = false
	b.phase = 0
	b.allOff()
}

func (b *Bar) allOff() {
	for _, p := range b.Leds {
		p.Out(gpio.Low)
	}
}

func (b *Bar) signOn() bool {
	half := b.BlinkSweeps
	if half <= 0 {
		half = 25
	}
	return (b.phase/half)%2 == 0
}

func (b *Bar) wait(t time.Duration) {
	w := b.Wait
	if w == nil {
		w = delay.Sleep
	}
	w(t)
}
