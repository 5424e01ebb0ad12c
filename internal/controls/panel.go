package controls

import (
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	controlsWindow    = "Style Controls"
	secondStyleWindow = "Style 2"

	maxStyleSize = 2048
	maxScalePct  = 200
	maxPercent   = 100
)

// trackbar pairs a gocv trackbar with the last position the panel applied,
// so Poll only forwards genuine operator edits.
type trackbar struct {
	bar  *gocv.Trackbar
	last int
}

// Panel renders the "Style Controls" window: one trackbar per tunable
// parameter plus the style preview(s). gocv trackbars carry no Go callbacks,
// so the panel is polled once per input tick and applies position deltas to
// the Surface. This is the synchronous apply point for all UI edits.
type Panel struct {
	surface     *Surface
	logger      *logrus.Logger
	previewSize int
	interpolate bool

	win       *gocv.Window
	secondWin *gocv.Window

	index  *trackbar // nil when the catalog has a single style image
	alpha  *trackbar
	size   *trackbar
	crop   *trackbar
	scale  *trackbar
	interp *trackbar // nil unless interpolation is active
}

// NewPanel creates the controls window and its trackbars. The index trackbar
// is omitted entirely for a single-image catalog, and the interpolation
// trackbar plus second preview window exist only when interpolate is set.
func NewPanel(surface *Surface, styleSize, cropSize int, scale float64, interpolate bool, logger *logrus.Logger) *Panel {
	p := &Panel{
		surface:     surface,
		logger:      logger,
		previewSize: styleSize,
		interpolate: interpolate,
		win:         gocv.NewWindow(controlsWindow),
	}

	if surface.catalog.Len() > 1 {
		p.index = newTrackbar(p.win, "index", 0, surface.catalog.Len()-1)
	}
	p.alpha = newTrackbar(p.win, "alpha", int(surface.alpha*100), maxPercent)
	p.size = newTrackbar(p.win, "size", styleSize, maxStyleSize)
	p.crop = newTrackbar(p.win, "crop size", cropSize, maxStyleSize)
	p.scale = newTrackbar(p.win, "scale", int(scale*100), maxScalePct)

	if interpolate {
		p.secondWin = gocv.NewWindow(secondStyleWindow)
		p.interp = newTrackbar(p.win, "interpolation", maxPercent, maxPercent)
	}

	return p
}

func newTrackbar(win *gocv.Window, name string, initial, max int) *trackbar {
	bar := win.CreateTrackbar(name, max)
	bar.SetPos(initial)
	return &trackbar{bar: bar, last: initial}
}

// Poll reads every trackbar and applies changed positions to the Surface.
// Called once per loop tick, on the loop thread.
func (p *Panel) Poll() {
	if p.index != nil {
		if v, changed := p.index.read(); changed {
			p.surface.SelectIndex(0, v)
		}
	}
	if v, changed := p.alpha.read(); changed {
		p.surface.SetAlpha(v)
	}
	if v, changed := p.size.read(); changed {
		p.surface.SetTargetSize(v)
	}
	if v, changed := p.crop.read(); changed {
		p.surface.SetCropSize(v)
	}
	if v, changed := p.scale.read(); changed {
		p.surface.SetScale(v)
	}
	if p.interp != nil {
		if v, changed := p.interp.read(); changed {
			p.surface.SetInterpWeight(v)
		}
	}
}

// ShowStyle implements Previewer: the primary slot renders into the controls
// window, the secondary into its own window. Input is RGB; previews display
// in device (BGR) order at the configured square preview size.
func (p *Panel) ShowStyle(slot int, img gocv.Mat) {
	win := p.win
	if slot == 1 {
		if p.secondWin == nil {
			return
		}
		win = p.secondWin
	}

	preview := gocv.NewMat()
	defer preview.Close()
	gocv.Resize(img, &preview, image.Pt(p.previewSize, p.previewSize), 0, 0, gocv.InterpolationLinear)

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(preview, &bgr, gocv.ColorRGBToBGR)

	win.IMShow(bgr)
}

// Close destroys the panel windows.
func (p *Panel) Close() {
	if err := p.win.Close(); err != nil {
		p.logger.WithError(err).Warn("Closing controls window")
	}
	if p.secondWin != nil {
		if err := p.secondWin.Close(); err != nil {
			p.logger.WithError(err).Warn("Closing second style window")
		}
	}
}

func (t *trackbar) read() (int, bool) {
	v := t.bar.GetPos()
	if v == t.last {
		return v, false
	}
	t.last = v
	return v, true
}
