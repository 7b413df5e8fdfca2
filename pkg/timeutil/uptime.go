package timeutil

import "time"

// Uptime counts milliseconds since it was created, the way a microcontroller
// millis() counter does: the value is 32 bits wide and wraps after ~49.7 days.
type Uptime struct {
	clock Clock
	start time.Time
}

// NewUptime starts counting from the current time of clock.
func NewUptime(clock Clock) *Uptime {
	return &Uptime{clock: clock, start: clock.Now()}
}

// Millis returns the elapsed milliseconds modulo 2^32.
func (u *Uptime) Millis() uint32 {
	return uint32(u.clock.Since(u.start).Milliseconds())
}
