// Package sevenseg drives a multiplexed common-cathode 7-segment display
// via GPIO pins (using periph.io).
//
// All digits share the eight segment lines; only one digit-select line is
// asserted at a time, so a value stays visible only while the caller keeps
// sweeping the display. Negative values are indicated by the decimal point
// on the units digit, blinked at a counted cadence.
package sevenseg

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/HuySSU26/calcpad/delay"
)

// Segment bit assignments within a pattern byte. Bit i of a pattern drives
// Segments[i].
const (
	SegG  = 1 << 0
	SegF  = 1 << 1
	SegE  = 1 << 2
	SegD  = 1 << 3
	SegC  = 1 << 4
	SegB  = 1 << 5
	SegA  = 1 << 6
	SegDP = 1 << 7
)

// Provides a basic translation from digits and operator symbols into
// segments. Operators render as letter shapes: A for addition, S for
// subtraction, C for multiplication, d for division.
var defaultRuneMap = map[rune]uint8{
	' ': 0,
	'0': SegA | SegB | SegC | SegD | SegE | SegF,
	'1': SegB | SegC,
	'2': SegA | SegB | SegG | SegE | SegD,
	'3': SegA | SegB | SegC | SegD | SegG,
	'4': SegF | SegG | SegB | SegC,
	'5': SegA | SegF | SegG | SegC | SegD,
	'6': SegA | SegF | SegG | SegC | SegD | SegE,
	'7': SegA | SegB | SegC,
	'8': SegA | SegB | SegC | SegD | SegE | SegF | SegG,
	'9': SegA | SegB | SegC | SegD | SegF | SegG,
	'+': SegF | SegE | SegA | SegB | SegC,
	'-': SegF | SegE | SegG | SegC | SegD,
	'*': SegA | SegF | SegE | SegD,
	'/': SegB | SegC | SegD | SegE | SegG,
	'E': SegA | SegF | SegG | SegE | SegD,
}

type mode int

const (
	modeNumber mode = iota
	modeGlyph
)

// Display implements a driver for an n-digit multiplexed 7-segment module.
// Segments and Digits are required; RuneMap is optional and if provided is
// used to translate each digit or symbol into segments.
type Display struct {
	Segments [8]gpio.PinIO // shared segment lines, DP at index 7
	Digits   []gpio.PinIO  // digit select lines, most significant digit first

	RuneMap map[rune]uint8 // optional, uses a default map if nil

	Dwell time.Duration // per-digit hold time during a sweep
	Wait  delay.Func    // defaults to delay.Sleep

	// BlinkSweeps is the number of sweeps per half-period of the negative
	// sign blink. The cadence is counted in sweeps, not wall-clock time, so
	// the blink stays in step with however fast the caller refreshes.
	BlinkSweeps int

	mode  mode
	value int // magnitude currently shown
	neg   bool
	glyph uint8
	phase int
}

// Validate reports configuration problems up front so that render calls can
// stay error-free.
func (d *Display) Validate() error {
	for i, p := range d.Segments {
		if p == nil {
			return errors.Errorf("sevenseg: segment pin %d is nil", i)
		}
	}
	if len(d.Digits) == 0 {
		return errors.New("sevenseg: no digit select pins")
	}
	for i, p := range d.Digits {
		if p == nil {
			return errors.Errorf("sevenseg: digit select pin %d is nil", i)
		}
	}
	return nil
}

// Max returns the largest magnitude the display can show.
func (d *Display) Max() int {
	m := 1
	for range d.Digits {
		m *= 10
	}
	return m - 1
}

// SetValue switches the display to numeric mode. The magnitude is saturated
// to the representable range before digit splitting; the sign is remembered
// and overlaid as a blinking decimal point on the units digit.
func (d *Display) SetValue(v int) {
	d.mode = modeNumber
	d.neg = v < 0
	if d.neg {
		v = -v
	}
	if max := d.Max(); v > max {
		v = max
	}
	d.value = v
}

// SetGlyph switches the display to glyph mode: the symbol renders on the
// leftmost digit and the remaining digits are blanked. Digit splitting is
// bypassed entirely.
func (d *Display) SetGlyph(r rune) {
	d.mode = modeGlyph
	d.glyph = d.pattern(r)
}

// Sweep renders one multiplex pass of the remembered value or glyph and
// advances the sign-blink phase. A single call never loops, so a caller that
// interleaves Sweep with input polling can abandon the display at any time.
func (d *Display) Sweep() {
	if d.mode == modeGlyph {
		d.lightDigit(d.glyph, 0)
		for i := 1; i < len(d.Digits); i++ {
			d.lightDigit(0, i)
		}
		return
	}
	dp := d.neg && d.signOn()
	v := d.value
	for i := len(d.Digits) - 1; i >= 0; i-- {
		pat := d.pattern(rune('0' + v%10))
		v /= 10
		if dp && i == len(d.Digits)-1 {
			pat |= SegDP
		}
		d.lightDigit(pat, i)
	}
	d.phase++
}

// Refresh runs n consecutive sweeps. Convenience for callers that want the
// value to persist briefly without running their own loop.
func (d *Display) Refresh(n int) {
	for i := 0; i < n; i++ {
		d.Sweep()
	}
}

// Flash shows the latched content in a counted on/off sequence: a burst of
// sweeps, then dark. The divide-by-zero error display uses this with the
// error glyph latched.
func (d *Display) Flash(n int) {
	for i := 0; i < n; i++ {
		d.Refresh(10)
		d.allOff()
		d.wait(4 * d.Dwell)
	}
}

// Blink flashes all segments of all digits n times. Used for the startup
// sequence and as attention feedback.
func (d *Display) Blink(n int) {
	for i := 0; i < n; i++ {
		for j := range d.Digits {
			d.lightDigit(0xFF, j)
		}
		d.allOff()
		d.wait(2 * d.Dwell)
	}
}

// Clear blanks the display and drops all lines low.
func (d *Display) Clear() {
	d.mode = modeGlyph
	d.glyph = 0
	d.neg = false
	d.value = 0
	d.phase = 0
	d.allOff()
}

func (d *Display) signOn() bool {
	half := d.BlinkSweeps
	if half <= 0 {
		half = 25
	}
	return (d.phase/half)%2 == 0
}

func (d *Display) pattern(r rune) uint8 {
	runes := d.RuneMap
	if runes == nil {
		runes = defaultRuneMap
	}
	return runes[r]
}

// lightDigit writes the segment pattern first and only then asserts the
// digit's select line, preventing ghost segments while multiplexing.
func (d *Display) lightDigit(pattern uint8, digit int) {
	for _, p := range d.Digits {
		p.Out(gpio.Low)
	}
	for i, p := range d.Segments {
		p.Out(gpio.Level(pattern&(1<<i) != 0))
	}
	d.Digits[digit].Out(gpio.High)
	d.wait(d.Dwell)
	d.Digits[digit].Out(gpio.Low)
}

func (d *Display) allOff() {
	for _, p := range d.Digits {
		p.Out(gpio.Low)
	}
	for _, p := range d.Segments {
		p.Out(gpio.Low)
	}
}

func (d *Display) wait(t time.Duration) {
	w := d.Wait
	if w == nil {
		w = delay.Sleep
	}
	w(t)
}
