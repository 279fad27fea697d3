// Package calc implements the input and calculation state machine of the
// keypad calculator.
//
// The machine owns the whole input sequence: first operand, operator,
// second operand, confirm, result. It polls a key scanner, updates its
// registers, and keeps a renderer fed so the multiplexed display stays
// visible. Everything runs on the caller's goroutine; the only suspension
// points are inside the scanner and renderer.
package calc

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/HuySSU26/calcpad/keypad"
)

// Op selects an arithmetic operation.
type Op int

const (
	OpNone Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	}
	return "none"
}

// Glyph returns the display symbol for the operator.
func (o Op) Glyph() rune {
	switch o {
	case OpAdd:
		return '+'
	case OpSub:
		return '-'
	case OpMul:
		return '*'
	case OpDiv:
		return '/'
	}
	return ' '
}

func opForKey(k keypad.Key) Op {
	switch k {
	case keypad.KeyAdd:
		return OpAdd
	case keypad.KeySub:
		return OpSub
	case keypad.KeyMul:
		return OpMul
	case keypad.KeyDiv:
		return OpDiv
	}
	return OpNone
}

// State identifies where the machine is in the input sequence.
type State int

const (
	StateIdle State = iota
	StateOperand1
	StateOperator
	StateOperand2
	StateAwaitConfirm
	StateResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOperand1:
		return "operand1"
	case StateOperator:
		return "operator"
	case StateOperand2:
		return "operand2"
	case StateAwaitConfirm:
		return "await-confirm"
	case StateResult:
		return "result"
	}
	return "unknown"
}

// Entry accumulates an operand digit by digit. It holds at most two decimal
// digits; further digits are discarded rather than wrapped.
type Entry struct {
	value int
	n     int
}

// Push appends a digit. It reports whether the digit was applied; a third
// digit while two are already present is not.
func (e *Entry) Push(d int) bool {
	if e.n >= 2 {
		return false
	}
	e.value = e.value*10 + d
	e.n++
	return true
}

// Value returns the accumulated operand value.
func (e *Entry) Value() int { return e.value }

// Len returns how many digits have been entered.
func (e *Entry) Len() int { return e.n }

// Reset discards the accumulated digits.
func (e *Entry) Reset() { e.value, e.n = 0, 0 }

// Bounds configures the representable ranges. Operands saturate to
// [0, MaxOperand], results to [MinResult, MaxResult].
type Bounds struct {
	MaxOperand int
	MinResult  int
	MaxResult  int
}

// DefaultBounds matches the two-digit display hardware.
func DefaultBounds() Bounds {
	return Bounds{MaxOperand: 99, MinResult: -99, MaxResult: 99}
}

// Result carries the outcome of one calculation. Saturated distinguishes a
// clamped overflow from a genuine boundary value; the display treats both
// identically.
type Result struct {
	Value     int
	DivZero   bool
	Saturated bool
}

// Apply computes a op b with the clamping policy of the hardware: division
// by zero is flagged rather than computed, and every operator's result is
// saturated to the result bounds, never wrapped.
func Apply(op Op, a, b int, bounds Bounds) Result {
	var v int
	switch op {
	case OpAdd:
		v = a + b
	case OpSub:
		v = a - b
	case OpMul:
		v = a * b
	case OpDiv:
		if b == 0 {
			return Result{DivZero: true}
		}
		v = a / b
	default:
		return Result{}
	}
	switch {
	case v > bounds.MaxResult:
		return Result{Value: bounds.MaxResult, Saturated: true}
	case v < bounds.MinResult:
		return Result{Value: bounds.MinResult, Saturated: true}
	}
	return Result{Value: v}
}

// Scanner produces one key event per call, KeyNone when idle.
type Scanner interface {
	Scan() keypad.Key
}

// Renderer is the display the machine drives. Both sevenseg.Display and
// ledbar.Bar satisfy it.
type Renderer interface {
	// SetValue latches a signed value for numeric display.
	SetValue(v int)
	// SetGlyph latches a symbolic pattern (operator, error, blank).
	SetGlyph(r rune)
	// Sweep renders one refresh pass of the latched content.
	Sweep()
	// Flash shows the latched content in a counted on/off sequence.
	Flash(n int)
	// Clear blanks the display.
	Clear()
}

// Config wires a Machine.
type Config struct {
	Scanner Scanner
	Display Renderer

	Bounds Bounds // zero value selects DefaultBounds

	// ErrorFlashes is the length of the divide-by-zero error sequence.
	ErrorFlashes int

	Log *zap.Logger // defaults to zap.NewNop
}

// Machine is the calculator state machine. A single instance owns all
// operand, operator and result registers.
type Machine struct {
	scan  Scanner
	disp  Renderer
	bnds  Bounds
	errN  int
	log   *zap.Logger
	state State
	entry Entry
	op1   int
	op2   int
	op    Op
	res   Result
	done  bool // res is valid
}

// New validates cfg and returns a Machine in the idle state. The display is
// not touched until Reset or Run.
func New(cfg Config) (*Machine, error) {
	if cfg.Scanner == nil {
		return nil, errors.New("calc: no scanner")
	}
	if cfg.Display == nil {
		return nil, errors.New("calc: no display")
	}
	if cfg.Bounds == (Bounds{}) {
		cfg.Bounds = DefaultBounds()
	}
	if cfg.Bounds.MinResult > cfg.Bounds.MaxResult {
		return nil, errors.Errorf("calc: result bounds inverted: [%d, %d]", cfg.Bounds.MinResult, cfg.Bounds.MaxResult)
	}
	if cfg.ErrorFlashes <= 0 {
		cfg.ErrorFlashes = 5
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Machine{
		scan: cfg.Scanner,
		disp: cfg.Display,
		bnds: cfg.Bounds,
		errN: cfg.ErrorFlashes,
		log:  cfg.Log,
	}, nil
}

// State returns the current machine state.
func (m *Machine) State() State { return m.state }

// Result returns the last computed result, if one is live.
func (m *Machine) Result() (Result, bool) { return m.res, m.done }

// Reset clears every register and returns the machine to idle, showing the
// zero value. It is safe from any state.
func (m *Machine) Reset() {
	m.setState(StateIdle)
	m.entry.Reset()
	m.op1, m.op2 = 0, 0
	m.op = OpNone
	m.res = Result{}
	m.done = false
	m.disp.SetValue(0)
}

// Handle applies a single key event to the machine. The reset key is
// honored before anything else, from every state.
func (m *Machine) Handle(k keypad.Key) {
	if k == keypad.KeyNone {
		return
	}
	if k == keypad.KeyReset {
		m.Reset()
		return
	}
	switch m.state {
	case StateIdle:
		if k.IsDigit() {
			m.entry.Push(k.Digit())
			m.setState(StateOperand1)
			m.disp.SetValue(m.entry.Value())
		}

	case StateOperand1:
		switch {
		case k.IsDigit():
			if m.entry.Push(k.Digit()) {
				m.disp.SetValue(m.capOperand(m.entry.Value()))
			}
		case k.IsOperator():
			m.op1 = m.capOperand(m.entry.Value())
			m.entry.Reset()
			m.op = opForKey(k)
			m.setState(StateOperand2)
			m.disp.SetGlyph(m.op.Glyph())
		case k == keypad.KeyConfirm:
			m.op1 = m.capOperand(m.entry.Value())
			m.entry.Reset()
			m.setState(StateOperator)
		}

	case StateOperator:
		// Operator keys are the only accepted input here besides reset.
		if k.IsOperator() {
			m.op = opForKey(k)
			m.setState(StateOperand2)
			m.disp.SetGlyph(m.op.Glyph())
		}

	case StateOperand2:
		switch {
		case k.IsDigit():
			m.entry.Push(k.Digit())
			m.disp.SetValue(m.capOperand(m.entry.Value()))
			if m.entry.Len() == 2 {
				m.setState(StateAwaitConfirm)
			}
		case k == keypad.KeyConfirm:
			if m.entry.Len() > 0 {
				m.setState(StateAwaitConfirm)
			}
		}

	case StateAwaitConfirm:
		if k == keypad.KeyConfirm {
			m.compute()
		}

	case StateResult:
		// The result persists, held by continuous re-render, until reset.
	}
}

// Run is the cooperative main loop: poll one key, apply it, refresh the
// display, repeat. Reset takes effect within one iteration. The loop exits
// only when ctx is cancelled; the display is cleared on the way out.
func (m *Machine) Run(ctx context.Context) error {
	m.Reset()
	for {
		select {
		case <-ctx.Done():
			m.disp.Clear()
			return ctx.Err()
		default:
		}
		if k := m.scan.Scan(); k != keypad.KeyNone {
			m.Handle(k)
		}
		m.disp.Sweep()
	}
}

func (m *Machine) compute() {
	m.op2 = m.capOperand(m.entry.Value())
	m.entry.Reset()
	res := Apply(m.op, m.op1, m.op2, m.bnds)
	if res.DivZero {
		m.log.Warn("divide by zero",
			zap.Int("operand1", m.op1),
			zap.Int("operand2", m.op2))
		m.disp.SetGlyph('E')
		m.disp.Flash(m.errN)
		m.Reset()
		return
	}
	m.res = res
	m.done = true
	m.setState(StateResult)
	m.disp.SetValue(res.Value)
	m.log.Info("computed",
		zap.Int("operand1", m.op1),
		zap.Stringer("op", m.op),
		zap.Int("operand2", m.op2),
		zap.Int("result", res.Value),
		zap.Bool("saturated", res.Saturated))
}

func (m *Machine) capOperand(v int) int {
	if max := m.bnds.MaxOperand; v > max {
		return max
	}
	return v
}

func (m *Machine) setState(s State) {
	if s == m.state {
		return
	}
	m.log.Debug("state", zap.Stringer("from", m.state), zap.Stringer("to", s))
	m.state = s
}
