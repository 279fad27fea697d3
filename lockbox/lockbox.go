// Package lockbox implements the touchless code-entry security system.
//
// Two sensors (photoresistor switches) increment the tens and ones digit of
// a two-digit code; a push button steps the entry sequence and submits the
// code. A correct code runs the unlock motor for a fixed window; a wrong
// code sounds the alarm and the box stays locked. An emergency button may
// interrupt at any time: it only sets a flag, which the main loop checks and
// clears, so the interrupt handler never touches entry state.
package lockbox

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"

	"github.com/HuySSU26/calcpad/debounce"
	"github.com/HuySSU26/calcpad/delay"
)

// Code packs a tens and ones digit the way the comparison hardware expects.
func Code(tens, ones int) byte {
	return byte(tens)<<4 | byte(ones)&0x0F
}

// State identifies the entry sequence position.
type State int

const (
	StateReady State = iota
	StateTens
	StateOnes
)

func (s State) String() string {
	switch s {
	case StateTens:
		return "tens-input"
	case StateOnes:
		return "ones-input"
	}
	return "ready"
}

// BeepKind selects one of the fixed feedback beep durations.
type BeepKind int

const (
	BeepShort BeepKind = iota
	BeepMedium
	BeepLong
)

// Annunciator is the audio feedback surface. Timing tables live in the
// implementation, not in the entry logic.
type Annunciator interface {
	Beep(k BeepKind)
	Alarm()     // wrong-code buzzer
	Emergency() // emergency melody
}

// Buzzer is a GPIO-backed Annunciator driving a piezo line.
type Buzzer struct {
	Pin  gpio.PinIO
	Wait delay.Func // defaults to delay.Sleep
}

func (b *Buzzer) wait(d time.Duration) {
	w := b.Wait
	if w == nil {
		w = delay.Sleep
	}
	w(d)
}

func (b *Buzzer) tone(on, off time.Duration) {
	b.Pin.Out(gpio.High)
	b.wait(on)
	b.Pin.Out(gpio.Low)
	b.wait(off)
}

// Beep sounds one feedback beep followed by a short silence.
func (b *Buzzer) Beep(k BeepKind) {
	switch k {
	case BeepMedium:
		b.tone(300*time.Millisecond, 50*time.Millisecond)
	case BeepLong:
		b.tone(500*time.Millisecond, 50*time.Millisecond)
	default:
		b.tone(50*time.Millisecond, 50*time.Millisecond)
	}
}

// Alarm holds the buzzer on for the wrong-code duration.
func (b *Buzzer) Alarm() {
	b.tone(2*time.Second, 0)
}

// Emergency plays the alternating high/low emergency melody.
func (b *Buzzer) Emergency() {
	for i := 0; i < 3; i++ {
		b.tone(200*time.Millisecond, 100*time.Millisecond)
		b.tone(400*time.Millisecond, 200*time.Millisecond)
	}
}

// Display is the digit readout the box drives; a one-digit sevenseg.Display
// satisfies it.
type Display interface {
	SetValue(v int)
	Sweep()
	Clear()
}

// Config wires a Box.
type Config struct {
	Code byte // expected code, packed with Code

	// Tens and Ones debounce the two touchless sensors (active high when
	// covered). Confirm debounces the push button, which is wired active
	// low: a press reads as a falling edge.
	Tens    *debounce.Debouncer
	Ones    *debounce.Debouncer
	Confirm *debounce.Debouncer

	Display Display
	Sound   Annunciator

	StatusLED gpio.PinIO // blinks while ready, solid during unlock
	LockedLED gpio.PinIO // solid while locked
	Motor     gpio.PinIO

	DigitMax   int           // digits count 0..DigitMax then roll over; default 4
	UnlockHold time.Duration // motor-on window; default 5s
	Poll       time.Duration // main loop pacing; default 20ms

	// BlinkIterations is the ready-blink half-period counted in loop
	// iterations, not wall-clock time.
	BlinkIterations int

	Wait delay.Func  // defaults to delay.Sleep
	Log  *zap.Logger // defaults to zap.NewNop
}

// Box is the lockbox controller. Run drives everything on one goroutine;
// Trigger is the only method safe to call from another.
type Box struct {
	cfg       Config
	state     State
	tens      int
	ones      int
	blink     int
	emergency atomic.Bool
}

// New validates cfg and returns a Box in the ready state.
func New(cfg Config) (*Box, error) {
	if cfg.Tens == nil || cfg.Ones == nil {
		return nil, errors.New("lockbox: both digit sensors are required")
	}
	if cfg.Confirm == nil {
		return nil, errors.New("lockbox: confirm button is required")
	}
	if cfg.Display == nil {
		return nil, errors.New("lockbox: no display")
	}
	if cfg.Sound == nil {
		return nil, errors.New("lockbox: no annunciator")
	}
	if cfg.StatusLED == nil || cfg.LockedLED == nil || cfg.Motor == nil {
		return nil, errors.New("lockbox: status LED, locked LED and motor pins are required")
	}
	if cfg.DigitMax <= 0 {
		cfg.DigitMax = 4
	}
	if cfg.UnlockHold <= 0 {
		cfg.UnlockHold = 5 * time.Second
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 20 * time.Millisecond
	}
	if cfg.BlinkIterations <= 0 {
		cfg.BlinkIterations = 25
	}
	if cfg.Wait == nil {
		cfg.Wait = delay.Sleep
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Box{cfg: cfg}, nil
}

// State returns the current entry state.
func (b *Box) State() State { return b.state }

func (b *Box) setState(s State) { b.state = s }

// Trigger arms the emergency sequence. It is the interrupt surface: it only
// sets a flag and may be called from any goroutine.
func (b *Box) Trigger() {
	b.emergency.Store(true)
}

// Run drives the box until ctx is cancelled. Startup feedback, then the
// polling loop: emergency check, both-sensors reset, confirm button, digit
// sensors, display refresh.
func (b *Box) Run(ctx context.Context) error {
	c := &b.cfg
	b.reset()
	c.LockedLED.Out(gpio.High)
	c.Sound.Beep(BeepShort)
	c.Sound.Beep(BeepShort)
	for {
		select {
		case <-ctx.Done():
			c.Display.Clear()
			c.Motor.Out(gpio.Low)
			c.StatusLED.Out(gpio.Low)
			c.LockedLED.Out(gpio.Low)
			return ctx.Err()
		default:
		}
		b.step()
		c.Wait(c.Poll)
	}
}

// step runs one polling iteration: emergency check, both-sensors reset,
// confirm button, digit sensors, display refresh.
func (b *Box) step() {
	c := &b.cfg

	b.blinkStatus()

	if b.emergency.CompareAndSwap(true, false) {
		b.handleEmergency()
		return
	}

	tensHit := c.Tens.Edge() == debounce.Rising
	onesHit := c.Ones.Edge() == debounce.Rising

	// Both sensors covered at once is an unconditional reset. It must win
	// over either single-sensor branch.
	if c.Tens.Held() && c.Ones.Held() {
		c.Log.Info("both sensors covered, resetting")
		b.reset()
		return
	}

	if c.Confirm.Edge() == debounce.Falling {
		b.advance()
	}

	switch b.state {
	case StateTens:
		if tensHit {
			b.tens = b.bump(b.tens)
			c.Display.SetValue(b.tens)
			c.Sound.Beep(BeepShort)
		}
	case StateOnes:
		if onesHit {
			b.ones = b.bump(b.ones)
			c.Display.SetValue(b.ones)
			b.flashLocked()
			c.Sound.Beep(BeepShort)
		}
	}

	c.Display.Sweep()
}

// advance steps the entry sequence on a confirm press: ready -> tens ->
// ones -> code check -> ready.
func (b *Box) advance() {
	c := &b.cfg
	c.Sound.Beep(BeepMedium)
	switch b.state {
	case StateReady:
		b.setState(StateTens)
		b.tens = 0
		c.Display.SetValue(0)
	case StateTens:
		b.setState(StateOnes)
		b.ones = 0
		c.Display.SetValue(0)
	case StateOnes:
		entered := Code(b.tens, b.ones)
		if entered == c.Code {
			b.unlock()
		} else {
			c.Log.Info("incorrect code")
			c.LockedLED.Out(gpio.High)
			c.Sound.Alarm()
		}
		b.reset()
	}
}

// unlock runs the open sequence: solid status LED, success beep, motor held
// for the unlock window, then back to locked indication.
func (b *Box) unlock() {
	c := &b.cfg
	c.Log.Info("unlocked", zap.Duration("hold", c.UnlockHold))
	c.StatusLED.Out(gpio.High)
	c.LockedLED.Out(gpio.Low)
	c.Sound.Beep(BeepLong)
	c.Motor.Out(gpio.High)
	c.Wait(c.UnlockHold)
	c.Motor.Out(gpio.Low)
	c.StatusLED.Out(gpio.Low)
	c.LockedLED.Out(gpio.High)
}

// handleEmergency suspends normal display, plays the fixed emergency
// sequence, and forces a full state reset.
func (b *Box) handleEmergency() {
	c := &b.cfg
	c.Log.Warn("emergency triggered")
	c.Display.Clear()
	c.Sound.Emergency()
	c.StatusLED.Out(gpio.High)
	c.Wait(500 * time.Millisecond)
	c.StatusLED.Out(gpio.Low)
	b.reset()
}

func (b *Box) reset() {
	b.setState(StateReady)
	b.tens, b.ones = 0, 0
	b.blink = 0
	b.cfg.Display.SetValue(0)
}

// bump increments a digit with rollover past DigitMax.
func (b *Box) bump(d int) int {
	if d >= b.cfg.DigitMax {
		return 0
	}
	return d + 1
}

// blinkStatus toggles the ready LED on a counted cadence.
func (b *Box) blinkStatus() {
	c := &b.cfg
	b.blink++
	if b.blink >= c.BlinkIterations {
		c.StatusLED.Out(gpio.High)
	}
	if b.blink >= 2*c.BlinkIterations {
		c.StatusLED.Out(gpio.Low)
		b.blink = 0
	}
}

// flashLocked gives the brief visual feedback on the locked LED used when a
// ones-digit increment registers.
func (b *Box) flashLocked() {
	c := &b.cfg
	c.LockedLED.Out(gpio.Low)
	c.Wait(50 * time.Millisecond)
	c.LockedLED.Out(gpio.High)
}

// Digits returns the currently entered digits, for diagnostics.
func (b *Box) Digits() (tens, ones int) { return b.tens, b.ones }
