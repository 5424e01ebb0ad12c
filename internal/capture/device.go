// Package capture adapts the camera into a latest-frame-wins producer so the
// device is never blocked waiting on inference.
package capture

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Reader yields raw frames. Read returns false on end-of-stream or device
// failure; both are treated as a clean stop signal downstream.
type Reader interface {
	Read(dst *gocv.Mat) bool
}

// Device wraps a gocv video capture handle.
type Device struct {
	vc     *gocv.VideoCapture
	logger *logrus.Logger
}

// OpenDevice opens the camera at the given index. width/height of 0 keep the
// device defaults.
func OpenDevice(index, width, height int, logger *logrus.Logger) (*Device, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", index, err)
	}
	if width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}

	logger.WithFields(logrus.Fields{
		"device": index,
		"width":  vc.Get(gocv.VideoCaptureFrameWidth),
		"height": vc.Get(gocv.VideoCaptureFrameHeight),
		"fps":    vc.Get(gocv.VideoCaptureFPS),
	}).Info("Capture device opened")

	return &Device{vc: vc, logger: logger}, nil
}

// Read pulls the next frame into dst.
func (d *Device) Read(dst *gocv.Mat) bool {
	if ok := d.vc.Read(dst); !ok {
		return false
	}
	return !dst.Empty()
}

// Close releases the capture handle.
func (d *Device) Close() error {
	return d.vc.Close()
}
