package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClockTicker(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-tk.C():
		assert.True(t, got.Equal(time.Unix(1, 0)), "tick at %v", got)
	default:
		t.Fatal("ticker did not fire")
	}

	tk.Stop()
	c.Advance(5 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockClockSleepRecords(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	c.Sleep(5 * time.Millisecond)
	c.Sleep(time.Second)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, time.Second}, c.Sleeps())
	assert.Equal(t, time.Unix(0, 0), c.Now())
}

func TestUptimeMillis(t *testing.T) {
	c := NewMockClock(time.Unix(1000, 0))
	u := NewUptime(c)
	assert.Equal(t, uint32(0), u.Millis())

	c.Advance(30001 * time.Millisecond)
	assert.Equal(t, uint32(30001), u.Millis())
}

func TestUptimeWraps(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	u := NewUptime(c)
	c.Advance(time.Duration(1<<32+10) * time.Millisecond)
	assert.Equal(t, uint32(10), u.Millis())
}
