// Package controls owns the live, operator-mutable stylization parameters
// and the two currently-loaded style slots.
//
// All mutation happens on the main loop thread: trackbar deltas are applied
// during the bounded input-poll step and key bindings inside the same step,
// so the dispatcher can read a Snapshot at the top of each frame without
// locking.
package controls

import (
	"math/rand"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Loader resolves a style index to a loaded, resized, center-cropped image.
// Satisfied by *catalog.Catalog.
type Loader interface {
	Len() int
	Load(i, targetSize, cropSize int) (gocv.Mat, error)
}

// Previewer re-renders a style preview window after a slot reload. It must
// never touch the main video window.
type Previewer interface {
	ShowStyle(slot int, img gocv.Mat)
}

// Snapshot is the read-only view of the control state the dispatcher takes
// once per frame. Control changes apply on the next frame.
type Snapshot struct {
	TargetSize   int
	CropSize     int
	Scale        float64
	Alpha        float64
	InterpWeight float64
	KeepColors   bool
}

// Slot holds one selected style: its catalog index and the loaded RGB image.
type Slot struct {
	Index  int
	img    gocv.Mat
	loaded bool
}

// Surface is the single source of truth for interactive parameters.
type Surface struct {
	catalog Loader
	rng     *rand.Rand
	logger  *logrus.Logger
	preview Previewer

	targetSize   int
	cropSize     int
	scale        float64
	alpha        float64
	interpWeight float64
	keepColors   bool

	slots [2]Slot
	blank gocv.Mat
}

// NewSurface creates a surface with the given initial parameters. No style is
// loaded yet; call SelectRandom or SelectIndex for each slot in use.
func NewSurface(catalog Loader, targetSize, cropSize int, scale, alpha float64, keepColors bool, rng *rand.Rand, logger *logrus.Logger) *Surface {
	s := &Surface{
		catalog:      catalog,
		rng:          rng,
		logger:       logger,
		targetSize:   targetSize,
		cropSize:     cropSize,
		scale:        scale,
		alpha:        alpha,
		interpWeight: 1.0,
		keepColors:   keepColors,
		blank:        gocv.NewMat(),
	}
	if s.cropSize > s.targetSize {
		s.cropSize = s.targetSize
	}
	return s
}

// SetPreviewer attaches the preview renderer. May be nil in headless use.
func (s *Surface) SetPreviewer(p Previewer) { s.preview = p }

// Snapshot returns the current parameter values.
func (s *Surface) Snapshot() Snapshot {
	return Snapshot{
		TargetSize:   s.targetSize,
		CropSize:     s.cropSize,
		Scale:        s.scale,
		Alpha:        s.alpha,
		InterpWeight: s.interpWeight,
		KeepColors:   s.keepColors,
	}
}

// StyleImage returns the loaded image for a slot, or a shared empty Mat if
// the slot was never populated. The Mat is borrowed in either case: valid
// until the next reload, never to be closed by the caller.
func (s *Surface) StyleImage(slot int) gocv.Mat {
	if !s.slots[slot].loaded {
		return s.blank
	}
	return s.slots[slot].img
}

// SlotLoaded reports whether a slot holds a style image.
func (s *Surface) SlotLoaded(slot int) bool { return s.slots[slot].loaded }

// SlotIndex returns the catalog index currently selected for a slot.
func (s *Surface) SlotIndex(slot int) int { return s.slots[slot].Index }

// SelectIndex loads catalog entry i into the given slot. An unreadable file
// is skipped by retrying subsequent indices; if every candidate fails the
// slot keeps its previous image.
func (s *Surface) SelectIndex(slot, i int) {
	n := s.catalog.Len()
	for attempt := 0; attempt < n; attempt++ {
		idx := (i + attempt) % n
		img, err := s.catalog.Load(idx, s.targetSize, s.cropSize)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"index": idx,
				"slot":  slot,
			}).WithError(err).Warn("Skipping unreadable style image")
			continue
		}
		s.install(slot, idx, img)
		return
	}
	s.logger.WithField("slot", slot).Error("No loadable style image in catalog, keeping previous")
}

// SelectRandom loads a uniformly random catalog entry into the given slot.
// With a single-image catalog this always resolves to index 0.
func (s *Surface) SelectRandom(slot int) {
	s.SelectIndex(slot, s.rng.Intn(s.catalog.Len()))
}

// SetTargetSize sets the pre-crop resize size, clamped so it never drops
// below the crop size, and reloads every populated slot.
func (s *Surface) SetTargetSize(v int) {
	if v < s.cropSize {
		v = s.cropSize
	}
	s.targetSize = v
	s.reloadSlots()
}

// SetCropSize sets the square crop size, clamped so it never exceeds the
// target size, and reloads every populated slot.
func (s *Surface) SetCropSize(v int) {
	if v > s.targetSize {
		v = s.targetSize
	}
	s.cropSize = v
	s.reloadSlots()
}

// SetScale stores v/100 as the content scale factor. Style slots are not
// reloaded: scale affects only the content frame.
func (s *Surface) SetScale(v int) {
	if v <= 0 {
		v = 1
	}
	s.scale = float64(v) / 100
}

// SetAlpha stores v/100 as the blend alpha.
func (s *Surface) SetAlpha(v int) {
	s.alpha = float64(v) / 100
}

// SetInterpWeight stores v/100 as the two-style interpolation weight,
// interpreted as [w, 1-w] over the primary and secondary slots.
func (s *Surface) SetInterpWeight(v int) {
	s.interpWeight = float64(v) / 100
}

// ToggleKeepColors flips color preservation and returns the new value.
func (s *Surface) ToggleKeepColors() bool {
	s.keepColors = !s.keepColors
	return s.keepColors
}

// Close releases the loaded style images.
func (s *Surface) Close() {
	for i := range s.slots {
		if s.slots[i].loaded {
			s.slots[i].img.Close()
			s.slots[i].loaded = false
		}
	}
	s.blank.Close()
}

func (s *Surface) install(slot, idx int, img gocv.Mat) {
	if s.slots[slot].loaded {
		s.slots[slot].img.Close()
	}
	s.slots[slot] = Slot{Index: idx, img: img, loaded: true}

	s.logger.WithFields(logrus.Fields{
		"slot":  slot,
		"index": idx,
		"size":  s.targetSize,
		"crop":  s.cropSize,
	}).Info("Style slot updated")

	if s.preview != nil {
		s.preview.ShowStyle(slot, img)
	}
}

func (s *Surface) reloadSlots() {
	for slot := range s.slots {
		if s.slots[slot].loaded {
			s.SelectIndex(slot, s.slots[slot].Index)
		}
	}
}
