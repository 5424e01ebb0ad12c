// Package app drives the capture → dispatch → output cycle and routes
// operator input.
package app

import (
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"stylecam/internal/controls"
	"stylecam/internal/sink"
)

// State is the loop lifecycle: Running → Stopping → Stopped.
type State int

const (
	Running State = iota
	Stopping
	Stopped
)

// FrameSource yields the most recent camera frame, transferring ownership.
// The second return is false at end-of-stream. Satisfied by
// *capture.Mailbox.
type FrameSource interface {
	Latest() (gocv.Mat, bool)
}

// Processor stylizes one frame. Satisfied by *pipeline.Dispatcher.
type Processor interface {
	Process(frame gocv.Mat) (gocv.Mat, error)
}

// Presenter shows the output frame and polls one key event with a bounded
// wait. Satisfied by *sink.Display.
type Presenter interface {
	Show(frame gocv.Mat)
	WaitKey(ms int) int
}

// FrameWriter appends output frames to a file. Satisfied by *sink.Recorder.
type FrameWriter interface {
	Write(frame gocv.Mat) error
	Close() error
}

// Poller applies pending trackbar edits. Satisfied by *controls.Panel.
type Poller interface {
	Poll()
}

// keyWaitMs bounds the per-tick input poll so UI events are serviced at
// least this often without stalling the stream.
const keyWaitMs = 10

// Loop is the single-threaded frame loop. All control mutation happens
// inside its input-poll step, so the dispatcher snapshot never tears.
type Loop struct {
	source      FrameSource
	processor   Processor
	presenter   Presenter
	recorder    FrameWriter // nil disables recording
	panel       Poller      // nil in headless use
	surface     *controls.Surface
	fps         *sink.FPS
	logger      *logrus.Logger
	interpolate bool

	state State
}

// NewLoop assembles a loop. recorder and panel may be nil.
func NewLoop(source FrameSource, processor Processor, presenter Presenter, recorder FrameWriter, panel Poller, surface *controls.Surface, interpolate bool, logger *logrus.Logger) *Loop {
	return &Loop{
		source:      source,
		processor:   processor,
		presenter:   presenter,
		recorder:    recorder,
		panel:       panel,
		surface:     surface,
		fps:         sink.NewFPS(),
		logger:      logger,
		interpolate: interpolate,
		state:       Running,
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State { return l.state }

// Run drives ticks until end-of-stream or a quit key, then performs an
// orderly shutdown. A failed frame is skipped, never fatal.
func (l *Loop) Run() {
	l.fps.Start()

	for l.state == Running {
		frame, ok := l.source.Latest()
		if !ok {
			l.logger.Info("End of stream")
			l.state = Stopping
			break
		}

		out, err := l.processor.Process(frame)
		frame.Close()
		if err != nil {
			out.Close()
			l.logger.WithError(err).Warn("Frame skipped")
			l.pollInput()
			continue
		}

		l.presenter.Show(out)
		l.record(out)
		out.Close()

		l.fps.Update()
		l.pollInput()
	}

	l.shutdown()
}

// Stop requests a cooperative stop; it takes effect at the next tick.
func (l *Loop) Stop() {
	if l.state == Running {
		l.state = Stopping
	}
}

func (l *Loop) record(frame gocv.Mat) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Write(frame); err != nil {
		// Reported once; the recorder disables itself afterwards.
		l.logger.WithError(err).Error("Recording disabled")
	}
}

func (l *Loop) shutdown() {
	l.fps.Stop()
	l.logger.WithFields(logrus.Fields{
		"frames":  l.fps.Frames(),
		"elapsed": l.fps.Elapsed(),
		"fps":     l.fps.Rate(),
	}).Info("Session finished")

	if l.recorder != nil {
		if err := l.recorder.Close(); err != nil {
			l.logger.WithError(err).Warn("Releasing video writer")
		}
	}
	l.state = Stopped
}
