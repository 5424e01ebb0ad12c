package pipeline

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"stylecam/internal/controls"
	"stylecam/internal/inference"
)

const noiseSigma = 0.5

// Dispatcher runs the per-frame stylization procedure: transform the
// incoming frame, select the stylization path, invoke the engine, compose
// the result. It reads one control Snapshot at the top of each frame, so
// concurrent-feeling UI edits land on frame boundaries.
type Dispatcher struct {
	engine  inference.Engine
	surface *controls.Surface
	logger  *logrus.Logger

	mode        Mode
	concat      bool
	randomEvery int

	frameCount uint64
}

// NewDispatcher wires the dispatcher to its engine and control surface.
// randomEvery > 0 reloads a random primary style every that many frames.
func NewDispatcher(engine inference.Engine, surface *controls.Surface, mode Mode, concat bool, randomEvery int, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		engine:      engine,
		surface:     surface,
		logger:      logger,
		mode:        mode,
		concat:      concat,
		randomEvery: randomEvery,
	}
}

// FrameCount returns the number of frames processed so far.
func (d *Dispatcher) FrameCount() uint64 { return d.frameCount }

// Process stylizes one frame (device/BGR order in, device/BGR order out).
// The input frame is not modified or retained; the caller owns the returned
// Mat. An inference failure returns an error and the zero Mat (nothing to
// release); the loop logs and skips the frame.
func (d *Dispatcher) Process(frame gocv.Mat) (gocv.Mat, error) {
	d.frameCount++
	snap := d.surface.Snapshot()

	content := d.contentImage(frame, snap.Scale)
	defer content.Close()

	d.logger.WithFields(logrus.Fields{
		"frame": d.frameCount,
		"orig":  fmt.Sprintf("%dx%d", frame.Cols(), frame.Rows()),
		"input": fmt.Sprintf("%dx%d", content.Cols(), content.Rows()),
		"mode":  d.mode.String(),
	}).Debug("Processing frame")

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(content, &rgb, gocv.ColorBGRToRGB)

	if d.randomEvery > 0 && d.frameCount%uint64(d.randomEvery) == 0 {
		d.surface.SelectRandom(0)
	}

	stylized, err := d.stylize(rgb, snap)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer stylized.Close()

	composed := d.compose(stylized)
	defer composed.Close()

	out := gocv.NewMat()
	gocv.CvtColor(composed, &out, gocv.ColorRGBToBGR)
	return out, nil
}

// contentImage scales the frame by the content scale factor, or replaces it
// with blurred uniform noise of the same shape in the synthesis modes.
func (d *Dispatcher) contentImage(frame gocv.Mat, scale float64) gocv.Mat {
	resized := gocv.NewMat()
	gocv.Resize(frame, &resized, image.Pt(0, 0), scale, scale, gocv.InterpolationLinear)

	if !d.mode.Synthetic() {
		return resized
	}

	noise := gocv.NewMatWithSize(resized.Rows(), resized.Cols(), gocv.MatTypeCV8UC3)
	gocv.RandU(&noise, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(256, 256, 256, 256))

	blurred := gocv.NewMat()
	gocv.GaussianBlur(noise, &blurred, image.Pt(3, 3), noiseSigma, noiseSigma, gocv.BorderDefault)
	noise.Close()
	resized.Close()
	return blurred
}

// stylize invokes the engine with the styles the current mode calls for,
// recoloring them first when color preservation is on.
func (d *Dispatcher) stylize(content gocv.Mat, snap controls.Snapshot) (gocv.Mat, error) {
	style0, cleanup0 := d.styleFor(0, content, snap.KeepColors)
	defer cleanup0()

	if !d.mode.Interpolated() {
		return d.engine.Predict(content, style0, snap.Alpha)
	}

	style1, cleanup1 := d.styleFor(1, content, snap.KeepColors)
	defer cleanup1()

	weights := [2]float64{snap.InterpWeight, 1 - snap.InterpWeight}
	return d.engine.PredictInterpolate(content, [2]gocv.Mat{style0, style1}, weights, snap.Alpha)
}

// styleFor returns the style image for a slot, recolored with the content
// frame's chroma when keepColors is set, plus a cleanup for any temporary.
func (d *Dispatcher) styleFor(slot int, content gocv.Mat, keepColors bool) (gocv.Mat, func()) {
	style := d.surface.StyleImage(slot)
	if !keepColors || style.Empty() {
		return style, func() {}
	}
	recolored := PreserveColors(style, content)
	return recolored, func() { recolored.Close() }
}

// compose optionally stitches the primary style to the left of the stylized
// output. Interpolated frames are never concatenated.
func (d *Dispatcher) compose(stylized gocv.Mat) gocv.Mat {
	if !d.concat || d.mode.Interpolated() {
		return stylized.Clone()
	}

	style := d.surface.StyleImage(0)
	if style.Empty() {
		return stylized.Clone()
	}

	h := stylized.Rows()
	sidebar := gocv.NewMat()
	defer sidebar.Close()
	gocv.Resize(style, &sidebar, image.Pt(h, h), 0, 0, gocv.InterpolationLinear)

	combined := gocv.NewMat()
	gocv.Hconcat(sidebar, stylized, &combined)
	return combined
}
