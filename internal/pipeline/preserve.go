package pipeline

import (
	"image"

	"gocv.io/x/gocv"
)

// PreserveColors recolors a style image with the content frame's palette:
// the style keeps its own luma (texture) while the chroma channels are taken
// from the content frame, so stylization does not wholesale replace the
// scene's colors. Both inputs are RGB 8UC3; the caller owns the result.
func PreserveColors(style, content gocv.Mat) gocv.Mat {
	contentResized := gocv.NewMat()
	defer contentResized.Close()
	gocv.Resize(content, &contentResized, image.Pt(style.Cols(), style.Rows()), 0, 0, gocv.InterpolationLinear)

	styleYCC := gocv.NewMat()
	defer styleYCC.Close()
	gocv.CvtColor(style, &styleYCC, gocv.ColorRGBToYCrCb)

	contentYCC := gocv.NewMat()
	defer contentYCC.Close()
	gocv.CvtColor(contentResized, &contentYCC, gocv.ColorRGBToYCrCb)

	styleCh := gocv.Split(styleYCC)
	contentCh := gocv.Split(contentYCC)
	defer closeMats(styleCh)
	defer closeMats(contentCh)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{styleCh[0], contentCh[1], contentCh[2]}, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorYCrCbToRGB)
	return out
}

func closeMats(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
