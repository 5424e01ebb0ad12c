package sink

import (
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrVideoWriter marks a recording failure. It is surfaced once; afterwards
// recording stays disabled for the rest of the session so a file-I/O problem
// can never take down the live display.
var ErrVideoWriter = errors.New("video writer failed")

// videoWriter is the minimal surface of gocv.VideoWriter the recorder needs.
type videoWriter interface {
	IsOpened() bool
	Write(img gocv.Mat) error
	Close() error
}

type writerFactory func(path, codec string, fps float64, width, height int) (videoWriter, error)

// Recorder appends frames to a video file. The output dimensions are locked
// from the first written frame; later frames of any size are resized to
// match, never the other way around.
type Recorder struct {
	path    string
	codec   string
	fps     float64
	session string
	logger  *logrus.Logger

	open   writerFactory
	writer videoWriter

	width    int
	height   int
	disabled bool
}

// NewRecorder prepares a recorder for the given output path. Nothing is
// opened until the first Write, when the frame dimensions are known.
func NewRecorder(path, codec string, fps float64, logger *logrus.Logger) *Recorder {
	return &Recorder{
		path:    path,
		codec:   codec,
		fps:     fps,
		session: uuid.NewString(),
		logger:  logger,
		open:    openGocvWriter,
	}
}

func openGocvWriter(path, codec string, fps float64, width, height int) (videoWriter, error) {
	w, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends one frame. The first successful call locks the output
// dimensions. A non-nil error is returned exactly once: on the failure that
// disables recording; subsequent calls are silent no-ops.
func (r *Recorder) Write(frame gocv.Mat) error {
	if r.disabled {
		return nil
	}

	if r.writer == nil {
		if err := r.openWriter(frame.Cols(), frame.Rows()); err != nil {
			r.disabled = true
			return err
		}
	}

	if frame.Cols() == r.width && frame.Rows() == r.height {
		return r.write(frame)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(frame, &resized, image.Pt(r.width, r.height), 0, 0, gocv.InterpolationLinear)
	return r.write(resized)
}

func (r *Recorder) openWriter(width, height int) error {
	writer, err := r.open(r.path, r.codec, r.fps, width, height)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrVideoWriter, r.path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return fmt.Errorf("%w: open %s: writer not opened", ErrVideoWriter, r.path)
	}
	r.writer = writer
	r.width = width
	r.height = height

	r.logger.WithFields(logrus.Fields{
		"path":    r.path,
		"codec":   r.codec,
		"fps":     r.fps,
		"width":   width,
		"height":  height,
		"session": r.session,
	}).Info("Recording started")
	return nil
}

func (r *Recorder) write(frame gocv.Mat) error {
	if err := r.writer.Write(frame); err != nil {
		r.disabled = true
		return fmt.Errorf("%w: write %s: %v", ErrVideoWriter, r.path, err)
	}
	return nil
}

// Disabled reports whether recording was shut off after a failure.
func (r *Recorder) Disabled() bool { return r.disabled }

// Close releases the underlying writer if one was opened.
func (r *Recorder) Close() error {
	if r.writer == nil {
		return nil
	}
	err := r.writer.Close()
	r.writer = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrVideoWriter, r.path, err)
	}
	r.logger.WithFields(logrus.Fields{
		"path":    r.path,
		"session": r.session,
	}).Info("Recording finished")
	return nil
}
