package sink

import "time"

// FPS measures achieved processing frame rate between Start and Stop.
type FPS struct {
	now    func() time.Time
	start  time.Time
	end    time.Time
	frames int
}

// NewFPS returns an idle meter.
func NewFPS() *FPS {
	return &FPS{now: time.Now}
}

// Start begins (or restarts) the measurement window.
func (f *FPS) Start() {
	f.start = f.now()
	f.end = time.Time{}
	f.frames = 0
}

// Update counts one processed frame.
func (f *FPS) Update() {
	f.frames++
}

// Stop ends the measurement window.
func (f *FPS) Stop() {
	f.end = f.now()
}

// Elapsed returns the measured duration in seconds. While running it
// measures up to now.
func (f *FPS) Elapsed() float64 {
	end := f.end
	if end.IsZero() {
		end = f.now()
	}
	return end.Sub(f.start).Seconds()
}

// Frames returns the number of counted frames.
func (f *FPS) Frames() int { return f.frames }

// Rate returns the average frames per second over the window.
func (f *FPS) Rate() float64 {
	elapsed := f.Elapsed()
	if elapsed <= 0 {
		return 0
	}
	return float64(f.frames) / elapsed
}
