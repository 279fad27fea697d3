package keypad

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/HuySSU26/calcpad/delay"
)

// rig models the electrical matrix: a row line reads high while any column
// it is currently bridged to is strobed high.
type rig struct {
	cols []gpio.PinIO
	rows []gpio.PinIO
}

type rowPin struct {
	*gpiotest.Pin
	bridged []gpio.PinIO
}

func (r *rowPin) Read() gpio.Level {
	for _, c := range r.bridged {
		if c.Read() == gpio.High {
			return gpio.High
		}
	}
	return gpio.Low
}

func newRig(nCols, nRows int) *rig {
	g := &rig{}
	for i := 0; i < nCols; i++ {
		g.cols = append(g.cols, &gpiotest.Pin{N: "col", Num: i})
	}
	for i := 0; i < nRows; i++ {
		g.rows = append(g.rows, &rowPin{Pin: &gpiotest.Pin{N: "row", Num: i}})
	}
	return g
}

// press closes the contact at (row, col) until release is called.
func (g *rig) press(row, col int) {
	r := g.rows[row].(*rowPin)
	r.bridged = append(r.bridged, g.cols[col])
}

func (g *rig) releaseAll() {
	for _, r := range g.rows {
		r.(*rowPin).bridged = nil
	}
}

func (g *rig) matrix(t *testing.T, refresh func()) *Matrix {
	t.Helper()
	m, err := New(Config{
		Cols:           g.cols,
		Rows:           g.rows,
		Keys:           DefaultLayout(),
		Wait:           delay.Nop,
		ReleaseTimeout: 10,
		Refresh:        refresh,
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestScanIdle(t *testing.T) {
	g := newRig(4, 4)
	m := g.matrix(t, nil)
	if got := m.Scan(); got != KeyNone {
		t.Errorf("Scan() on idle keypad = %v, want none", got)
	}
	for i, c := range g.cols {
		if c.Read() != gpio.Low {
			t.Errorf("column %d left high after idle sweep", i)
		}
	}
}

func TestScanSingleKeys(t *testing.T) {
	layout := DefaultLayout()
	g := newRig(4, 4)
	m := g.matrix(t, g.releaseAll)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			g.press(r, c)
			if got := m.Scan(); got != layout[r][c] {
				t.Errorf("Scan() at (%d,%d) = %v, want %v", r, c, got, layout[r][c])
			}
			g.releaseAll()
		}
	}
}

func TestScanPriority(t *testing.T) {
	// Simultaneous presses resolve deterministically: first strobed column
	// wins, then first scanned row within it.
	tests := []struct {
		name    string
		presses [][2]int // row, col
		want    Key
	}{
		{"different columns, first column wins", [][2]int{{0, 2}, {3, 0}}, KeyReset},
		{"different columns, reversed press order", [][2]int{{3, 0}, {0, 2}}, KeyReset},
		{"same column, first row wins", [][2]int{{2, 1}, {0, 1}}, Key2},
		{"full chord", [][2]int{{0, 0}, {1, 1}, {2, 2}}, Key1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newRig(4, 4)
			m := g.matrix(t, nil)
			for _, p := range tt.presses {
				g.press(p[0], p[1])
			}
			if got := m.Scan(); got != tt.want {
				t.Errorf("Scan() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanBlocksUntilRelease(t *testing.T) {
	g := newRig(4, 4)
	refreshes := 0
	m := g.matrix(t, func() {
		refreshes++
		if refreshes == 3 {
			g.releaseAll()
		}
	})
	g.press(1, 1)
	if got := m.Scan(); got != Key5 {
		t.Fatalf("Scan() = %v, want 5", got)
	}
	if refreshes != 3 {
		t.Errorf("refresh hook ran %d times, want 3", refreshes)
	}
}

func TestScanReleaseTimeout(t *testing.T) {
	// A stuck key must not block Scan forever.
	g := newRig(4, 4)
	refreshes := 0
	m := g.matrix(t, func() { refreshes++ })
	g.press(2, 2)
	if got := m.Scan(); got != Key9 {
		t.Fatalf("Scan() with stuck key = %v, want 9", got)
	}
	if refreshes != 10 {
		t.Errorf("refresh hook ran %d times, want the full timeout of 10", refreshes)
	}
}

func TestConfigValidation(t *testing.T) {
	g := newRig(4, 4)
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"no columns", func(c *Config) { c.Cols = nil }},
		{"no rows", func(c *Config) { c.Rows = nil }},
		{"nil column pin", func(c *Config) { c.Cols = append([]gpio.PinIO{nil}, c.Cols[1:]...) }},
		{"nil row pin", func(c *Config) { c.Rows = append([]gpio.PinIO{nil}, c.Rows[1:]...) }},
		{"short key table", func(c *Config) { c.Keys = c.Keys[:3] }},
		{"ragged key table", func(c *Config) { c.Keys[2] = c.Keys[2][:2] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Cols: g.cols, Rows: g.rows, Keys: DefaultLayout(), Wait: delay.Nop}
			tt.mut(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("New() accepted invalid config")
			}
		})
	}
}

func TestKeyHelpers(t *testing.T) {
	if !Key7.IsDigit() || Key7.Digit() != 7 {
		t.Error("Key7 digit helpers wrong")
	}
	if KeyAdd.IsDigit() || KeyAdd.Digit() != -1 {
		t.Error("KeyAdd misreported as digit")
	}
	for _, k := range []Key{KeyAdd, KeySub, KeyMul, KeyDiv} {
		if !k.IsOperator() {
			t.Errorf("%v not reported as operator", k)
		}
	}
	for _, k := range []Key{Key0, KeyReset, KeyConfirm, KeyNone} {
		if k.IsOperator() {
			t.Errorf("%v reported as operator", k)
		}
	}
}
