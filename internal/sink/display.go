// Package sink delivers stylized frames to the screen and, optionally, to a
// video file.
package sink

import (
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Display owns the main output window. Showing a frame is a side effect
// only; the bounded wait lives in the key poll, not here.
type Display struct {
	win    *gocv.Window
	logger *logrus.Logger
}

// NewDisplay creates the main output window.
func NewDisplay(name string, logger *logrus.Logger) *Display {
	return &Display{win: gocv.NewWindow(name), logger: logger}
}

// Show renders a frame to the window.
func (d *Display) Show(frame gocv.Mat) {
	d.win.IMShow(frame)
}

// WaitKey polls one key event, waiting at most ms milliseconds. Returns the
// key code or a negative value when no key was pressed.
func (d *Display) WaitKey(ms int) int {
	return d.win.WaitKey(ms)
}

// Close destroys the window.
func (d *Display) Close() {
	if err := d.win.Close(); err != nil {
		d.logger.WithError(err).Warn("Closing output window")
	}
}
