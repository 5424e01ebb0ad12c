package inference

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	encoderModel = "vgg_encoder.onnx"
	decoderModel = "adain_decoder.onnx"

	// stdEps guards per-channel normalization against flat feature maps.
	stdEps = 1e-5
)

// AdaIN is an adaptive-instance-normalization style transfer engine on the
// OpenCV DNN module. A VGG encoder maps content and style into feature
// space, the content features are re-normalized to the style's per-channel
// statistics, alpha-blended with the original content features, and a
// decoder maps the result back to pixels.
type AdaIN struct {
	encoder gocv.Net
	decoder gocv.Net
	logger  *logrus.Logger
}

// NewAdaIN loads the encoder/decoder ONNX pair from modelDir and binds them
// to the requested compute device ("cpu" or "cuda").
func NewAdaIN(modelDir, device string, logger *logrus.Logger) (*AdaIN, error) {
	encoder := gocv.ReadNet(filepath.Join(modelDir, encoderModel), "")
	if encoder.Empty() {
		return nil, fmt.Errorf("load encoder from %s: model not found or invalid", modelDir)
	}
	decoder := gocv.ReadNet(filepath.Join(modelDir, decoderModel), "")
	if decoder.Empty() {
		encoder.Close()
		return nil, fmt.Errorf("load decoder from %s: model not found or invalid", modelDir)
	}

	e := &AdaIN{encoder: encoder, decoder: decoder, logger: logger}
	if err := e.bindDevice(device); err != nil {
		e.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"model_dir": modelDir,
		"device":    device,
	}).Info("Inference engine loaded")

	return e, nil
}

func (e *AdaIN) bindDevice(device string) error {
	backend := gocv.NetBackendDefault
	target := gocv.NetTargetCPU
	switch strings.ToLower(device) {
	case "", "cpu":
	case "cuda", "gpu":
		backend = gocv.NetBackendCUDA
		target = gocv.NetTargetCUDA
	default:
		return fmt.Errorf("unknown compute device %q", device)
	}

	for _, net := range []*gocv.Net{&e.encoder, &e.decoder} {
		if err := net.SetPreferableBackend(backend); err != nil {
			return fmt.Errorf("set DNN backend: %w", err)
		}
		if err := net.SetPreferableTarget(target); err != nil {
			return fmt.Errorf("set DNN target: %w", err)
		}
	}
	return nil
}

// Predict implements Engine.
func (e *AdaIN) Predict(content, style gocv.Mat, alpha float64) (gocv.Mat, error) {
	if content.Empty() || style.Empty() {
		return gocv.Mat{}, fmt.Errorf("predict: empty input image")
	}

	contentFeat, err := e.encode(content)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer contentFeat.Close()

	styleFeat, err := e.encode(style)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer styleFeat.Close()

	target, err := statsTransfer(contentFeat, styleFeat)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer target.Close()

	blended := gocv.NewMat()
	defer blended.Close()
	gocv.AddWeighted(target, alpha, contentFeat, 1-alpha, 0, &blended)

	return e.decode(blended)
}

// PredictInterpolate implements Engine.
func (e *AdaIN) PredictInterpolate(content gocv.Mat, styles [2]gocv.Mat, weights [2]float64, alpha float64) (gocv.Mat, error) {
	if content.Empty() || styles[0].Empty() || styles[1].Empty() {
		return gocv.Mat{}, fmt.Errorf("predict interpolate: empty input image")
	}

	contentFeat, err := e.encode(content)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer contentFeat.Close()

	targets := make([]gocv.Mat, 2)
	for i := range styles {
		styleFeat, err := e.encode(styles[i])
		if err != nil {
			closeAll(targets[:i])
			return gocv.Mat{}, err
		}
		targets[i], err = statsTransfer(contentFeat, styleFeat)
		styleFeat.Close()
		if err != nil {
			closeAll(targets[:i])
			return gocv.Mat{}, err
		}
	}
	defer closeAll(targets)

	mixed := gocv.NewMat()
	defer mixed.Close()
	gocv.AddWeighted(targets[0], weights[0], targets[1], weights[1], 0, &mixed)

	blended := gocv.NewMat()
	defer blended.Close()
	gocv.AddWeighted(mixed, alpha, contentFeat, 1-alpha, 0, &blended)

	return e.decode(blended)
}

// Close releases both networks.
func (e *AdaIN) Close() error {
	if err := e.encoder.Close(); err != nil {
		return err
	}
	return e.decoder.Close()
}

// encode runs an RGB 8UC3 image through the encoder and returns an owned
// copy of the NCHW feature blob.
func (e *AdaIN) encode(img gocv.Mat) (gocv.Mat, error) {
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(img.Cols(), img.Rows()),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	e.encoder.SetInput(blob, "")
	out := e.encoder.Forward("")
	defer out.Close()
	if out.Empty() {
		return gocv.Mat{}, fmt.Errorf("encoder produced empty output for %dx%d input", img.Cols(), img.Rows())
	}
	// Forward output references network memory; copy before the next pass.
	return out.Clone(), nil
}

// decode maps a feature blob back to an RGB 8UC3 image.
func (e *AdaIN) decode(feat gocv.Mat) (gocv.Mat, error) {
	e.decoder.SetInput(feat, "")
	out := e.decoder.Forward("")
	defer out.Close()
	if out.Empty() {
		return gocv.Mat{}, fmt.Errorf("decoder produced empty output")
	}

	imgs := []gocv.Mat{gocv.NewMat()}
	defer closeAll(imgs)
	gocv.ImagesFromBlob(out, imgs)

	// Decoder emits float pixels in [0,1]; saturate-convert to 8-bit.
	rgb := gocv.NewMat()
	imgs[0].ConvertToWithParams(&rgb, gocv.MatTypeCV8UC3, 255, 0)
	return rgb, nil
}

// statsTransfer re-normalizes contentFeat per channel to styleFeat's mean
// and standard deviation (the AdaIN transform). Both blobs are NCHW; the
// C×(H·W) reshaped views let MeanStdDev and in-place arithmetic work one
// channel row at a time.
func statsTransfer(contentFeat, styleFeat gocv.Mat) (gocv.Mat, error) {
	cSize := contentFeat.Size()
	sSize := styleFeat.Size()
	if len(cSize) != 4 || len(sSize) != 4 || cSize[1] != sSize[1] {
		return gocv.Mat{}, fmt.Errorf("feature shape mismatch: content %v style %v", cSize, sSize)
	}
	channels := cSize[1]

	target := contentFeat.Clone()
	targetView := target.Reshape(1, channels)
	defer targetView.Close()
	styleView := styleFeat.Reshape(1, channels)
	defer styleView.Close()

	for ch := 0; ch < channels; ch++ {
		if err := matchChannel(targetView, styleView, ch); err != nil {
			target.Close()
			return gocv.Mat{}, err
		}
	}
	return target, nil
}

// matchChannel rewrites one channel row of target in place:
// (x - mean_c) / std_c * std_s + mean_s.
func matchChannel(target, style gocv.Mat, ch int) error {
	row := target.RowRange(ch, ch+1)
	defer row.Close()
	styleRow := style.RowRange(ch, ch+1)
	defer styleRow.Close()

	cMean, cStd, err := meanStd(row)
	if err != nil {
		return err
	}
	sMean, sStd, err := meanStd(styleRow)
	if err != nil {
		return err
	}

	if cStd < stdEps {
		cStd = stdEps
	}
	row.SubtractFloat(float32(cMean))
	row.DivideFloat(float32(cStd))
	row.MultiplyFloat(float32(sStd))
	row.AddFloat(float32(sMean))
	return nil
}

func meanStd(m gocv.Mat) (float64, float64, error) {
	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(m, &mean, &std)
	if mean.Empty() || std.Empty() {
		return 0, 0, fmt.Errorf("mean/std computation failed")
	}
	return mean.GetDoubleAt(0, 0), std.GetDoubleAt(0, 0), nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
