// Package inference runs the arbitrary style transfer network.
//
// The rest of the program treats the engine as a black box: RGB 8UC3 images
// in, RGB 8UC3 image out. Conforming inputs (channel order, square style
// crop) is the caller's job, not the engine's.
package inference

import "gocv.io/x/gocv"

// Engine maps a content image and one or two style images to a stylized
// image. Implementations are single shared, non-reentrant resources: calls
// are serialized by the frame loop, never concurrent.
type Engine interface {
	// Predict stylizes content with a single style. alpha in [0,1] blends
	// between content statistics (0) and style statistics (1).
	Predict(content, style gocv.Mat, alpha float64) (gocv.Mat, error)

	// PredictInterpolate stylizes content with two styles mixed by weights
	// (weights[0]+weights[1] = 1), then alpha-blends as in Predict.
	PredictInterpolate(content gocv.Mat, styles [2]gocv.Mat, weights [2]float64, alpha float64) (gocv.Mat, error)

	// Close releases the model context.
	Close() error
}
