// Command calcpad-sim runs the calculator state machine against the
// terminal instead of GPIO hardware: keystrokes stand in for the matrix
// keypad and a two-character readout stands in for the 7-segment display.
//
// Keys: 0-9 digits, + - * / operators, Enter or # confirm, c or Esc reset,
// Ctrl-C quits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HuySSU26/calcpad/calc"
	"github.com/HuySSU26/calcpad/keypad"
)

// keyboard satisfies calc.Scanner over raw stdin. Like the hardware
// scanner, it yields one key per call and KeyNone when idle.
type keyboard struct {
	buf [1]byte
}

func (k *keyboard) Scan() keypad.Key {
	n, _ := os.Stdin.Read(k.buf[:])
	if n == 0 {
		// Idle pacing; the hardware equivalent is the column sweep time.
		time.Sleep(5 * time.Millisecond)
		return keypad.KeyNone
	}
	switch c := k.buf[0]; {
	case c >= '0' && c <= '9':
		return keypad.Key(c - '0')
	case c == '+':
		return keypad.KeyAdd
	case c == '-':
		return keypad.KeySub
	case c == '*':
		return keypad.KeyMul
	case c == '/':
		return keypad.KeyDiv
	case c == '#' || c == '\r' || c == '\n':
		return keypad.KeyConfirm
	case c == 'c' || c == 0x1b:
		return keypad.KeyReset
	}
	return keypad.KeyNone
}

// screen satisfies calc.Renderer with a single rewritten terminal line. The
// negative sign blinks on a counted sweep cadence, mirroring the decimal
// point blink of the real display.
type screen struct {
	value int
	neg   bool
	glyph rune
	mode  int // 0 numeric, 1 glyph
	phase int
	last  string
}

const blinkSweeps = 40

func (s *screen) SetValue(v int) {
	s.mode = 0
	s.neg = v < 0
	if s.neg {
		v = -v
	}
	if v > 99 {
		v = 99
	}
	s.value = v
}

func (s *screen) SetGlyph(r rune) {
	s.mode = 1
	s.glyph = r
}

func (s *screen) Sweep() {
	var line string
	if s.mode == 1 {
		line = fmt.Sprintf("[%c ]", s.glyph)
	} else {
		sign := " "
		if s.neg && (s.phase/blinkSweeps)%2 == 0 {
			sign = "-"
		}
		line = fmt.Sprintf("[%s%02d]", sign, s.value)
	}
	s.phase++
	if line != s.last {
		fmt.Printf("\r%s", line)
		s.last = line
	}
}

func (s *screen) Flash(n int) {
	for i := 0; i < n; i++ {
		s.last = ""
		s.Sweep()
		time.Sleep(150 * time.Millisecond)
		fmt.Printf("\r    ")
		time.Sleep(150 * time.Millisecond)
	}
	s.last = ""
}

func (s *screen) Clear() {
	fmt.Printf("\r    \r")
	s.last = ""
}

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := enterRawTerm(); err != nil {
		log.Fatal("raw terminal", zap.Error(err))
	}
	defer exitRawTerm()

	machine, err := calc.New(calc.Config{
		Scanner: &keyboard{},
		Display: &screen{},
	})
	if err != nil {
		log.Fatal("machine config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("calcpad simulator: 0-9 digits, +-*/ operators, Enter confirms, c resets, Ctrl-C quits")
	if err := machine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("run", zap.Error(err))
	}
	fmt.Println()
}
