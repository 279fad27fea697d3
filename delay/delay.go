// Package delay provides the wait primitive shared by the calcpad drivers.
// Scanners and renderers take a delay.Func so that debounce windows and
// multiplex dwell times are calibration data rather than hard-coded sleeps,
// and so tests can run without waiting.
package delay

import "time"

// Func waits for approximately d. Implementations must tolerate d <= 0 by
// returning immediately.
type Func func(d time.Duration)

// Sleep is the default Func, backed by time.Sleep.
func Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// Nop returns immediately. Intended for tests.
func Nop(time.Duration) {}

// Spin returns a Func that busy-waits on a ticker with the given resolution.
// On hosts where timer coalescing makes short sleeps unreliable this keeps
// dwell times closer to the requested value, at the cost of a running ticker.
func Spin(resolution time.Duration) Func {
	if resolution <= 0 {
		resolution = 100 * time.Microsecond
	}
	return func(d time.Duration) {
		if d <= 0 {
			return
		}
		t := time.NewTicker(resolution)
		defer t.Stop()
		deadline := time.Now().Add(d)
		for time.Now().Before(deadline) {
			<-t.C
		}
	}
}
