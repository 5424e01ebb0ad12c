package controls

import (
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type loadCall struct {
	index      int
	targetSize int
	cropSize   int
}

// fakeCatalog satisfies Loader without touching the filesystem.
type fakeCatalog struct {
	n     int
	fail  map[int]bool
	calls []loadCall
}

func (f *fakeCatalog) Len() int { return f.n }

func (f *fakeCatalog) Load(i, targetSize, cropSize int) (gocv.Mat, error) {
	f.calls = append(f.calls, loadCall{i, targetSize, cropSize})
	if f.fail[i] {
		return gocv.Mat{}, errors.New("unreadable file")
	}
	return gocv.NewMatWithSize(cropSize, cropSize, gocv.MatTypeCV8UC3), nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestSurface(cat *fakeCatalog, seed int64) *Surface {
	rng := rand.New(rand.NewSource(seed))
	return NewSurface(cat, 512, 256, 1.0, 1.0, false, rng, testLogger())
}

func TestSizeClampInvariant(t *testing.T) {
	cat := &fakeCatalog{n: 2}
	s := newTestSurface(cat, 1)
	s.SelectIndex(0, 0)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		v := rng.Intn(3000) + 1
		if rng.Intn(2) == 0 {
			s.SetTargetSize(v)
		} else {
			s.SetCropSize(v)
		}
		snap := s.Snapshot()
		require.LessOrEqual(t, snap.CropSize, snap.TargetSize,
			"crop %d exceeds target %d after op %d", snap.CropSize, snap.TargetSize, i)
	}
}

func TestSetTargetSizeReloadsWithClampedValue(t *testing.T) {
	cat := &fakeCatalog{n: 3}
	s := newTestSurface(cat, 1)
	s.SelectIndex(0, 2)
	defer s.Close()

	s.SetTargetSize(100) // below crop size 256, clamps up

	snap := s.Snapshot()
	assert.Equal(t, 256, snap.TargetSize)
	assert.Equal(t, 256, snap.CropSize)

	last := cat.calls[len(cat.calls)-1]
	assert.Equal(t, loadCall{index: 2, targetSize: 256, cropSize: 256}, last)
}

func TestSelectIndexIdempotent(t *testing.T) {
	cat := &fakeCatalog{n: 5}
	s := newTestSurface(cat, 1)
	defer s.Close()

	s.SelectIndex(0, 3)
	first := s.StyleImage(0)
	firstDims := [2]int{first.Rows(), first.Cols()}

	s.SelectIndex(0, 3)
	second := s.StyleImage(0)

	assert.Equal(t, 3, s.SlotIndex(0))
	assert.Equal(t, firstDims, [2]int{second.Rows(), second.Cols()})
	require.Len(t, cat.calls, 2)
	assert.Equal(t, cat.calls[0], cat.calls[1])
}

func TestSelectIndexSkipsUnreadable(t *testing.T) {
	cat := &fakeCatalog{n: 3, fail: map[int]bool{1: true}}
	s := newTestSurface(cat, 1)
	defer s.Close()

	s.SelectIndex(0, 1)

	assert.Equal(t, 2, s.SlotIndex(0))
	assert.True(t, s.SlotLoaded(0))
}

func TestSelectIndexAllUnreadableKeepsPrevious(t *testing.T) {
	cat := &fakeCatalog{n: 2}
	s := newTestSurface(cat, 1)
	defer s.Close()

	s.SelectIndex(0, 0)
	cat.fail = map[int]bool{0: true, 1: true}

	s.SelectIndex(0, 1)

	assert.Equal(t, 0, s.SlotIndex(0))
	assert.True(t, s.SlotLoaded(0))
}

func TestSelectRandomSingleImageCatalog(t *testing.T) {
	cat := &fakeCatalog{n: 1}
	s := newTestSurface(cat, 1)
	defer s.Close()

	for i := 0; i < 50; i++ {
		s.SelectRandom(0)
		assert.Equal(t, 0, s.SlotIndex(0))
	}
}

func TestSelectRandomUniformity(t *testing.T) {
	cat := &fakeCatalog{n: 3}
	s := newTestSurface(cat, 42)
	defer s.Close()

	const draws = 1000
	counts := make([]float64, 3)
	for i := 0; i < draws; i++ {
		s.SelectRandom(0)
		counts[s.SlotIndex(0)]++
	}

	// Chi-square goodness of fit against uniform, df=2, p=0.01 → 9.21.
	expected := float64(draws) / 3
	chi2 := 0.0
	for _, c := range counts {
		chi2 += (c - expected) * (c - expected) / expected
	}
	assert.Less(t, chi2, 9.21, "distribution not uniform: counts %v", counts)
}

func TestScaleAlphaInterpConversions(t *testing.T) {
	cat := &fakeCatalog{n: 2}
	s := newTestSurface(cat, 1)

	s.SetScale(150)
	s.SetAlpha(35)
	s.SetInterpWeight(80)

	snap := s.Snapshot()
	assert.InDelta(t, 1.5, snap.Scale, 1e-9)
	assert.InDelta(t, 0.35, snap.Alpha, 1e-9)
	assert.InDelta(t, 0.8, snap.InterpWeight, 1e-9)

	// Scale mutation never reloads styles.
	assert.Empty(t, cat.calls)
}

func TestToggleKeepColors(t *testing.T) {
	s := newTestSurface(&fakeCatalog{n: 1}, 1)

	assert.True(t, s.ToggleKeepColors())
	assert.True(t, s.Snapshot().KeepColors)
	assert.False(t, s.ToggleKeepColors())
	assert.False(t, s.Snapshot().KeepColors)
}

type recordingPreviewer struct {
	slots []int
}

func (r *recordingPreviewer) ShowStyle(slot int, img gocv.Mat) {
	r.slots = append(r.slots, slot)
}

func TestReloadRendersPreviewOnly(t *testing.T) {
	cat := &fakeCatalog{n: 2}
	s := newTestSurface(cat, 1)
	defer s.Close()

	preview := &recordingPreviewer{}
	s.SetPreviewer(preview)

	s.SelectIndex(0, 0)
	s.SelectIndex(1, 1)
	s.SetCropSize(128) // reloads both populated slots

	assert.Equal(t, []int{0, 1, 0, 1}, preview.slots)
}

func TestStyleImageEmptyUntilPopulated(t *testing.T) {
	s := newTestSurface(&fakeCatalog{n: 2}, 1)
	defer s.Close()

	// Borrowed empty Mat, owned by the surface; callers only probe it.
	assert.True(t, s.StyleImage(0).Empty())
	assert.True(t, s.StyleImage(1).Empty())
	assert.False(t, s.SlotLoaded(0))

	s.SelectIndex(0, 0)
	assert.False(t, s.StyleImage(0).Empty())
	assert.True(t, s.StyleImage(1).Empty())
}
