// Package catalog enumerates and loads style images.
package catalog

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrEmptyCatalog is returned when a style directory contains no usable images.
var ErrEmptyCatalog = errors.New("no style images found")

// ImageLoadError reports an unreadable or corrupted style file. It is
// non-fatal: callers retry another index rather than aborting the session.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load style image %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// Catalog is an ordered, immutable list of style image paths. Indexing is
// stable for the lifetime of the catalog.
type Catalog struct {
	paths  []string
	logger *logrus.Logger
}

// New builds a catalog from every supported image under dir (non-recursive,
// sorted by filename). Returns ErrEmptyCatalog when nothing usable is found.
func New(dir string, logger *logrus.Logger) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read style directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isSupportedImageFormat(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptyCatalog)
	}
	sort.Strings(paths)

	logger.WithFields(logrus.Fields{
		"dir":   dir,
		"count": len(paths),
	}).Info("Style catalog loaded")

	return &Catalog{paths: paths, logger: logger}, nil
}

// Len returns the number of style images.
func (c *Catalog) Len() int { return len(c.paths) }

// Path returns the file path at index i.
func (c *Catalog) Path(i int) string { return c.paths[i] }

// Load reads the style image at index i, resizes its shorter side to
// targetSize preserving aspect ratio, center-crops to cropSize×cropSize and
// converts to RGB channel order (the order the inference engine expects).
// Callers own the returned Mat.
func (c *Catalog) Load(i, targetSize, cropSize int) (gocv.Mat, error) {
	path := c.paths[i]

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, &ImageLoadError{Path: path, Err: errors.New("unreadable or corrupted file")}
	}
	defer mat.Close()

	resized := resizeShorterSide(mat, targetSize)
	defer resized.Close()

	cropped := centerCrop(resized, cropSize)
	defer cropped.Close()

	rgb := gocv.NewMat()
	gocv.CvtColor(cropped, &rgb, gocv.ColorBGRToRGB)

	c.logger.WithFields(logrus.Fields{
		"path":   path,
		"index":  i,
		"target": targetSize,
		"crop":   cropSize,
	}).Debug("Style image loaded")

	return rgb, nil
}

// resizeShorterSide scales src so its shorter side equals size, keeping the
// aspect ratio. The result is always at least size in both dimensions, so a
// subsequent crop of size×size (size ≤ targetSize) never runs out of pixels.
func resizeShorterSide(src gocv.Mat, size int) gocv.Mat {
	w, h := src.Cols(), src.Rows()
	var nw, nh int
	if w < h {
		nw = size
		nh = h * size / w
	} else {
		nh = size
		nw = w * size / h
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(nw, nh), 0, 0, gocv.InterpolationArea)
	return dst
}

// centerCrop extracts a size×size region around the image center, clamped to
// the image bounds. The returned Mat is a copy, not a view.
func centerCrop(src gocv.Mat, size int) gocv.Mat {
	w, h := src.Cols(), src.Rows()
	if size > w {
		size = w
	}
	if size > h {
		size = h
	}
	x := (w - size) / 2
	y := (h - size) / 2

	region := src.Region(image.Rect(x, y, x+size, y+size))
	defer region.Close()
	return region.Clone()
}

func isSupportedImageFormat(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
