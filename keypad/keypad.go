// Package keypad scans a matrix keypad wired to GPIO lines.
//
// Columns are driven high one at a time and the rows are read back after a
// settle delay; a key press connects its column strobe to its row line. The
// scanner resolves at most one key per call: the first active row of the
// first active column wins, so simultaneous presses are settled by scan
// order rather than reported as an error.
package keypad

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"

	"github.com/HuySSU26/calcpad/delay"
)

// Key is a symbolic key code. It is produced fresh on each scan and never
// buffered; callers that want auto-repeat call Scan in a loop.
type Key byte

const (
	Key0 Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyAdd
	KeySub
	KeyMul
	KeyDiv
	KeyReset
	KeyConfirm
	KeyNone Key = 0xFF
)

// IsDigit reports whether k is one of the digit keys.
func (k Key) IsDigit() bool { return k <= Key9 }

// Digit returns the numeric value of a digit key, or -1.
func (k Key) Digit() int {
	if !k.IsDigit() {
		return -1
	}
	return int(k)
}

// IsOperator reports whether k selects an arithmetic operation.
func (k Key) IsOperator() bool { return k >= KeyAdd && k <= KeyDiv }

func (k Key) String() string {
	switch {
	case k.IsDigit():
		return string('0' + byte(k))
	case k == KeyAdd:
		return "+"
	case k == KeySub:
		return "-"
	case k == KeyMul:
		return "*"
	case k == KeyDiv:
		return "/"
	case k == KeyReset:
		return "reset"
	case k == KeyConfirm:
		return "confirm"
	}
	return "none"
}

// Config describes the keypad wiring and timing. The grid size, key table
// and scan order are all data here; the scan algorithm does not change with
// the layout.
type Config struct {
	Cols []gpio.PinIO // column strobe lines, driven in slice order
	Rows []gpio.PinIO // row sense lines, read in slice order

	// Keys maps [row][col] to a key code. Must be len(Rows) x len(Cols).
	Keys [][]Key

	Settle   time.Duration // strobe settle time before reading rows
	Debounce time.Duration // delay after press detect and after release

	// ReleasePoll and ReleaseTimeout bound the wait for key release: the row
	// is re-sampled every ReleasePoll, at most ReleaseTimeout times, so a
	// stuck key cannot block Scan forever.
	ReleasePoll    time.Duration
	ReleaseTimeout int

	Wait delay.Func // defaults to delay.Sleep

	// Refresh, if set, is invoked on every release-poll iteration. The
	// calculator uses it to keep the multiplexed display lit while Scan
	// blocks on a held key.
	Refresh func()
}

// Matrix is a keypad scanner. Construct with New.
type Matrix struct {
	cfg Config
}

// DefaultLayout returns the 4x4 key table used by the calculator hardware:
//
//	1 2 3 +
//	4 5 6 -
//	7 8 9 *
//	R 0 C /
//
// where R resets and C confirms.
func DefaultLayout() [][]Key {
	return [][]Key{
		{Key1, Key2, Key3, KeyAdd},
		{Key4, Key5, Key6, KeySub},
		{Key7, Key8, Key9, KeyMul},
		{KeyReset, Key0, KeyConfirm, KeyDiv},
	}
}

// New validates cfg and returns a scanner.
func New(cfg Config) (*Matrix, error) {
	if len(cfg.Cols) == 0 {
		return nil, errors.New("keypad: no column pins")
	}
	if len(cfg.Rows) == 0 {
		return nil, errors.New("keypad: no row pins")
	}
	for i, p := range cfg.Cols {
		if p == nil {
			return nil, errors.Errorf("keypad: column pin %d is nil", i)
		}
	}
	for i, p := range cfg.Rows {
		if p == nil {
			return nil, errors.Errorf("keypad: row pin %d is nil", i)
		}
	}
	if len(cfg.Keys) != len(cfg.Rows) {
		return nil, errors.Errorf("keypad: key table has %d rows, want %d", len(cfg.Keys), len(cfg.Rows))
	}
	for r, row := range cfg.Keys {
		if len(row) != len(cfg.Cols) {
			return nil, errors.Errorf("keypad: key table row %d has %d columns, want %d", r, len(row), len(cfg.Cols))
		}
	}
	if cfg.ReleaseTimeout <= 0 {
		cfg.ReleaseTimeout = 100
	}
	if cfg.Wait == nil {
		cfg.Wait = delay.Sleep
	}
	return &Matrix{cfg: cfg}, nil
}

// Scan performs one sweep of the keypad and returns the resolved key, or
// KeyNone immediately if nothing is pressed.
//
// On a press, Scan holds the column energized, debounces, then busy-waits
// until the row goes inactive or the release timeout elapses before applying
// a trailing debounce and returning. It is therefore a potentially
// long-blocking call that reports each physical press once.
func (m *Matrix) Scan() Key {
	c := &m.cfg
	for ci, col := range c.Cols {
		col.Out(gpio.High)
		c.Wait(c.Settle)
		for r, row := range c.Rows {
			if row.Read() != gpio.High {
				continue
			}
			key := c.Keys[r][ci]
			c.Wait(c.Debounce)
			m.awaitRelease(row)
			c.Wait(c.Debounce)
			col.Out(gpio.Low)
			return key
		}
		col.Out(gpio.Low)
	}
	return KeyNone
}

// awaitRelease blocks until row reads low or the bounded timeout elapses,
// invoking the refresh hook on each iteration so the display keeps its
// persistence-of-vision refresh while the key is held.
func (m *Matrix) awaitRelease(row gpio.PinIO) {
	c := &m.cfg
	for i := 0; i < c.ReleaseTimeout; i++ {
		if row.Read() != gpio.High {
			return
		}
		if c.Refresh != nil {
			c.Refresh()
		}
		c.Wait(c.ReleasePoll)
	}
}
