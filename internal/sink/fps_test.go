package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFPSRate(t *testing.T) {
	now := time.Unix(0, 0)
	f := NewFPS()
	f.now = func() time.Time { return now }

	f.Start()
	for i := 0; i < 10; i++ {
		f.Update()
	}
	now = now.Add(2 * time.Second)
	f.Stop()

	assert.Equal(t, 10, f.Frames())
	assert.InDelta(t, 2.0, f.Elapsed(), 1e-9)
	assert.InDelta(t, 5.0, f.Rate(), 1e-9)
}

func TestFPSZeroElapsed(t *testing.T) {
	now := time.Unix(0, 0)
	f := NewFPS()
	f.now = func() time.Time { return now }

	f.Start()
	f.Update()
	f.Stop()

	assert.Equal(t, 0.0, f.Rate())
}

func TestFPSRestart(t *testing.T) {
	now := time.Unix(0, 0)
	f := NewFPS()
	f.now = func() time.Time { return now }

	f.Start()
	f.Update()
	f.Update()
	f.Start()

	assert.Equal(t, 0, f.Frames())
}
