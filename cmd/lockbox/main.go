// Command lockbox runs the touchless code-entry security system: two
// sensors and a confirm button for input, a single 7-segment digit, status
// LEDs, buzzer and unlock motor for output, plus an emergency button on its
// own interrupt line.
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

	"github.com/HuySSU26/calcpad/debounce"
	"github.com/HuySSU26/calcpad/lockbox"
	"github.com/HuySSU26/calcpad/sevenseg"
)

var (
	code      = flag.Int("code", 0x24, "expected code, tens digit in the high nibble")
	tensPin   = flag.String("tens", "23", "tens sensor pin (high when covered)")
	onesPin   = flag.String("ones", "24", "ones sensor pin (high when covered)")
	buttonPin = flag.String("button", "25", "confirm button pin (active low)")
	emergPin  = flag.String("emergency", "8", "emergency button pin (active low)")
	buzzerPin = flag.String("buzzer", "7", "buzzer pin")
	motorPin  = flag.String("motor", "1", "unlock motor pin")
	readyPin  = flag.String("ready-led", "0", "ready/status LED pin")
	lockedPin = flag.String("locked-led", "11", "locked LED pin")
	segPins   = flag.String("segs", "2,3,4,17,27,22,10,9", "segment pins G,F,E,D,C,B,A,DP")
	digitPin  = flag.String("digit", "14", "digit select pin")
)

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

	disp := &sevenseg.Display{
		Digits: []gpio.PinIO{pin(log, *digitPin)},
		Dwell:  5 * time.Millisecond,
	}
	copy(disp.Segments[:], segs(log, *segPins))
	if err := disp.Validate(); err != nil {
		log.Fatal("display config", zap.Error(err))
	}

	tens := input(log, *tensPin, gpio.PullDown)
	ones := input(log, *onesPin, gpio.PullDown)
	button := input(log, *buttonPin, gpio.PullUp)
	emergency := pin(log, *emergPin)
	if err := emergency.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		log.Fatal("emergency pin", zap.Error(err))
	}

	box, err := lockbox.New(lockbox.Config{
		Code:      byte(*code),
		Tens:      debounce.New(tens, 5*time.Millisecond),
		Ones:      debounce.New(ones, 5*time.Millisecond),
		Confirm:   debounce.New(button, 5*time.Millisecond),
		Display:   disp,
		Sound:     &lockbox.Buzzer{Pin: pin(log, *buzzerPin)},
		StatusLED: pin(log, *readyPin),
		LockedLED: pin(log, *lockedPin),
		Motor:     pin(log, *motorPin),
		Log:       log,
	})
	if err != nil {
		log.Fatal("lockbox config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The emergency line is the only asynchronous agent: it just arms a
	// flag that the main loop checks and clears.
	go func() {
		for {
			if emergency.WaitForEdge(-1) {
				box.Trigger()
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()

	log.Info("lockbox ready")
	if err := box.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("run", zap.Error(err))
	}
}

func pin(log *zap.Logger, name string) gpio.PinIO {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatal("unknown pin", zap.String("pin", name))
	}
	return p
}

func input(log *zap.Logger, name string, pull gpio.Pull) gpio.PinIO {
	p := pin(log, name)
	if err := p.In(pull, gpio.NoEdge); err != nil {
		log.Fatal("input pin", zap.String("pin", name), zap.Error(err))
	}
	return p
}

func segs(log *zap.Logger, list string) []gpio.PinIO {
	var out []gpio.PinIO
	for _, name := range strings.Split(list, ",") {
		out = append(out, pin(log, strings.TrimSpace(name)))
	}
	return out
}
