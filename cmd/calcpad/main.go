// Command calcpad runs the keypad calculator on real hardware: a 4x4 matrix
// keypad and a dual 7-segment display wired to GPIO pins (using periph.io).
package main

import (
	"context"
	"flag"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/HuySSU26/calcpad/calc"
	"github.com/HuySSU26/calcpad/keypad"
	"github.com/HuySSU26/calcpad/ledbar"
	"github.com/HuySSU26/calcpad/sevenseg"
)

var (
	colPins  = flag.String("cols", "5,6,13,19", "keypad column strobe pins, scan order")
	rowPins  = flag.String("rows", "12,16,20,21", "keypad row sense pins, scan order")
	segPins  = flag.String("segs", "2,3,4,17,27,22,10,9", "segment pins G,F,E,D,C,B,A,DP")
	digPins  = flag.String("digits", "14,15", "digit select pins, tens first")
	dispKind = flag.String("display", "7seg", "display module: 7seg or ledbar")
	ledPins  = flag.String("leds", "2,3,4,17,27,22,10,9", "LED bar pins, LSB first (ledbar display)")
)

// display is the renderer surface the binary needs on top of calc.Renderer:
// the startup blink. Both display modules provide it.
type display interface {
	calc.Renderer
	Blink(n int)
}

func main() {
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if _, err := host.Init(); err != nil {
		log.Fatal("host init", zap.Error(err))
	}

	var disp display
	switch *dispKind {
	case "7seg":
		d := &sevenseg.Display{
			Digits:      pins(log, *digPins),
			Dwell:       5 * time.Millisecond,
			BlinkSweeps: 25,
		}
		copy(d.Segments[:], pins(log, *segPins))
		if err := d.Validate(); err != nil {
			log.Fatal("display config", zap.Error(err))
		}
		disp = d
	case "ledbar":
		b := &ledbar.Bar{
			Dwell:       5 * time.Millisecond,
			BlinkSweeps: 25,
		}
		copy(b.Leds[:], pins(log, *ledPins))
		if err := b.Validate(); err != nil {
			log.Fatal("display config", zap.Error(err))
		}
		disp = b
	default:
		log.Fatal("unknown display", zap.String("display", *dispKind))
	}

	rows := pins(log, *rowPins)
	for _, r := range rows {
		if err := r.In(gpio.PullDown, gpio.NoEdge); err != nil {
			log.Fatal("row pin", zap.String("pin", r.Name()), zap.Error(err))
		}
	}

	pad, err := keypad.New(keypad.Config{
		Cols:           pins(log, *colPins),
		Rows:           rows,
		Keys:           keypad.DefaultLayout(),
		Settle:         time.Millisecond,
		Debounce:       10 * time.Millisecond,
		ReleasePoll:    time.Millisecond,
		ReleaseTimeout: 100,
		Refresh:        disp.Sweep,
	})
	if err != nil {
		log.Fatal("keypad config", zap.Error(err))
	}

	machine, err := calc.New(calc.Config{
		Scanner: pad,
		Display: disp,
		Log:     log,
	})
	if err != nil {
		log.Fatal("machine config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	disp.Blink(3) // startup indication
	log.Info("calculator ready")
	if err := machine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("run", zap.Error(err))
	}
}

func pins(log *zap.Logger, list string) []gpio.PinIO {
	var out []gpio.PinIO
	for _, name := range strings.Split(list, ",") {
		p := gpioreg.ByName(strings.TrimSpace(name))
		if p == nil {
			log.Fatal("unknown pin", zap.String("pin", name))
		}
		out = append(out, p)
	}
	return out
}
