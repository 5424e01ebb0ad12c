// Real-time webcam style transfer with interactive controls.
package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"stylecam/internal/app"
	"stylecam/internal/capture"
	"stylecam/internal/catalog"
	"stylecam/internal/config"
	"stylecam/internal/controls"
	"stylecam/internal/inference"
	"stylecam/internal/pipeline"
	"stylecam/internal/sink"
)

const (
	appName    = "stylecam"
	appVersion = "1.0.0"

	outputWindow = "Stylized Output"
)

func main() {
	cfg, err := parseConfig()
	logger := initLogger(cfg.Debug)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	logger.WithFields(logrus.Fields{
		"version": appVersion,
		"debug":   cfg.Debug,
	}).Info("Starting " + appName)

	run(cfg, logger)

	logger.Info("Shutdown complete")
}

func run(cfg *config.Config, logger *logrus.Logger) {
	styles, err := catalog.New(cfg.StyleDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Style catalog unavailable")
	}

	engine, err := inference.NewAdaIN(cfg.ModelDir, cfg.ComputeDevice, logger)
	if err != nil {
		logger.WithError(err).Fatal("Inference engine unavailable")
	}
	defer engine.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	surface := controls.NewSurface(styles, cfg.StyleSize, cfg.CropSize, cfg.ContentScale, cfg.Alpha, cfg.KeepColors, rng, logger)
	defer surface.Close()

	panel := controls.NewPanel(surface, cfg.StyleSize, cfg.CropSize, cfg.ContentScale, cfg.Interpolate, logger)
	defer panel.Close()
	surface.SetPreviewer(panel)

	surface.SelectRandom(0)
	if cfg.Interpolate {
		surface.SelectRandom(1)
	}

	device, err := capture.OpenDevice(cfg.DeviceIndex, cfg.CaptureWidth, cfg.CaptureHeight, logger)
	if err != nil {
		logger.WithError(err).Fatal("Capture device unavailable")
	}
	defer device.Close()

	mailbox := capture.NewMailbox()
	mailbox.Start(device)
	defer mailbox.Stop()

	display := sink.NewDisplay(outputWindow, logger)
	defer display.Close()

	var recorder app.FrameWriter
	if cfg.VideoOut != "" {
		recorder = sink.NewRecorder(cfg.VideoOut, cfg.Codec, cfg.VideoFPS, logger)
	}

	mode := pipeline.ResolveMode(cfg.Noise, cfg.Interpolate)
	dispatcher := pipeline.NewDispatcher(engine, surface, mode, cfg.Concat, cfg.RandomEvery, logger)

	loop := app.NewLoop(mailbox, dispatcher, display, recorder, panel, surface, cfg.Interpolate, logger)
	loop.Run()

	stats := mailbox.Stats()
	logger.WithFields(logrus.Fields{
		"published": stats.Published,
		"dropped":   stats.Drops,
	}).Info("Capture statistics")
}

// parseConfig loads the optional JSON config file and applies every flag the
// operator set on top of it.
func parseConfig() (*config.Config, error) {
	defaults := config.DefaultConfig()

	cfgPath := flag.String("config", "", "Optional JSON config file")
	debug := flag.Bool("debug", defaults.Debug, "Enable debug logging")
	src := flag.Int("src", defaults.DeviceIndex, "Device index of the camera")
	width := flag.Int("width", defaults.CaptureWidth, "Webcam capture width (0 keeps device default)")
	height := flag.Int("height", defaults.CaptureHeight, "Webcam capture height (0 keeps device default)")
	modelDir := flag.String("checkpoint", defaults.ModelDir, "Model checkpoint directory")
	styleDir := flag.String("style-path", defaults.StyleDir, "Style images folder")
	videoOut := flag.String("video-out", defaults.VideoOut, "Save output to this video file")
	videoFPS := flag.Float64("fps", defaults.VideoFPS, "Frames per second for the output video file")
	codec := flag.String("codec", defaults.Codec, "FourCC codec for the output video file")
	scale := flag.Float64("scale", defaults.ContentScale, "Scale the content frame")
	keepColors := flag.Bool("keep-colors", defaults.KeepColors, "Preserve the content colors in the style")
	device := flag.String("device", defaults.ComputeDevice, "Compute device (cpu or cuda)")
	styleSize := flag.Int("style-size", defaults.StyleSize, "Resize style image to this size before cropping")
	cropSize := flag.Int("crop-size", defaults.CropSize, "Square crop size for the style image")
	alpha := flag.Float64("alpha", defaults.Alpha, "Alpha blend value")
	concat := flag.Bool("concat", defaults.Concat, "Show style image beside the stylized output")
	interpolate := flag.Bool("interpolate", defaults.Interpolate, "Interpolate between two style images")
	noise := flag.Bool("noise", defaults.Noise, "Synthesize textures from noise instead of camera frames")
	randomEvery := flag.Int("random", defaults.RandomEvery, "Load a random style every N frames (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return cfg, err
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	apply := func(name string, fn func()) {
		if set[name] {
			fn()
		}
	}

	apply("debug", func() { cfg.Debug = *debug })
	apply("src", func() { cfg.DeviceIndex = *src })
	apply("width", func() { cfg.CaptureWidth = *width })
	apply("height", func() { cfg.CaptureHeight = *height })
	apply("checkpoint", func() { cfg.ModelDir = *modelDir })
	apply("style-path", func() { cfg.StyleDir = *styleDir })
	apply("video-out", func() { cfg.VideoOut = *videoOut })
	apply("fps", func() { cfg.VideoFPS = *videoFPS })
	apply("codec", func() { cfg.Codec = *codec })
	apply("scale", func() { cfg.ContentScale = *scale })
	apply("keep-colors", func() { cfg.KeepColors = *keepColors })
	apply("device", func() { cfg.ComputeDevice = *device })
	apply("style-size", func() { cfg.StyleSize = *styleSize })
	apply("crop-size", func() { cfg.CropSize = *cropSize })
	apply("alpha", func() { cfg.Alpha = *alpha })
	apply("concat", func() { cfg.Concat = *concat })
	apply("interpolate", func() { cfg.Interpolate = *interpolate })
	apply("noise", func() { cfg.Noise = *noise })
	apply("random", func() { cfg.RandomEvery = *randomEvery })

	return cfg, cfg.Validate()
}

// initLogger initializes the logger with the appropriate level and format.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
