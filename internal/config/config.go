// Package config loads the YAML configuration file and turns it into pipeline
// and classifier options.
//
// Values are resolved in this order, later sources winning:
//
//  1. the preset (adaptive or simple)
//  2. the YAML file
//  3. SYMSEG_* environment variables (ApplyEnv)
//  4. command-line flags, applied by the caller
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/symbol-segmenter/internal/classify"
	"github.com/ironsheep/symbol-segmenter/internal/detection"
	"github.com/ironsheep/symbol-segmenter/internal/imaging"
	"github.com/ironsheep/symbol-segmenter/internal/logging"
	"github.com/ironsheep/symbol-segmenter/internal/pipeline"
)

// Preset names.
const (
	PresetAdaptive = "adaptive"
	PresetSimple   = "simple"
)

// Environment variables read by ApplyEnv.
const (
	EnvClassifier     = "SYMSEG_CLASSIFIER"
	EnvTessdataPrefix = "SYMSEG_TESSDATA_PREFIX"
)

// Config is the complete tool configuration.
type Config struct {
	Preset     string           `yaml:"preset,omitempty"`
	Binarize   BinarizeConfig   `yaml:"binarize"`
	Regions    RegionsConfig    `yaml:"regions"`
	Crop       CropConfig       `yaml:"crop"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Evaluate   bool             `yaml:"evaluate"`
	Batch      BatchConfig      `yaml:"batch"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"`
}

// BinarizeConfig configures grayscale conversion, smoothing and thresholding.
type BinarizeConfig struct {
	Gray          string  `yaml:"gray"`
	Smoothing     string  `yaml:"smoothing"`
	SmoothRadius  int     `yaml:"smooth_radius"`
	SigmaColor    float64 `yaml:"sigma_color"`
	SigmaSpace    float64 `yaml:"sigma_space"`
	Thresholding  string  `yaml:"thresholding"`
	Polarity      string  `yaml:"polarity"`
	Level         int     `yaml:"level"`
	BlockSize     int     `yaml:"block_size"`
	Offset        float64 `yaml:"offset"`
	ClosingRadius int     `yaml:"closing_radius"`
}

// RegionsConfig configures extraction and filtering.
type RegionsConfig struct {
	Connectivity int     `yaml:"connectivity"`
	Shape        string  `yaml:"shape"`
	MinSize      int     `yaml:"min_size"`
	MinAspect    float64 `yaml:"min_aspect"`
	MaxAspect    float64 `yaml:"max_aspect"`
}

// CropConfig configures the cropper.
type CropConfig struct {
	Margin  int `yaml:"margin"`
	MinSize int `yaml:"min_size"`
}

// ClassifierConfig selects the classifier backend.
type ClassifierConfig struct {
	Name           string `yaml:"name"`
	Seed           int64  `yaml:"seed"`
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix,omitempty"`

	// MinConfidence drops predictions scored below it (0-1). Zero keeps
	// every prediction.
	MinConfidence float64 `yaml:"min_confidence"`
}

// BatchConfig configures the batch subcommand.
type BatchConfig struct {
	// Workers is the number of images processed at once. Zero uses every CPU.
	Workers int `yaml:"workers"`
}

// Default returns the adaptive preset.
func Default() *Config {
	cfg, _ := Preset(PresetAdaptive)
	return cfg
}

// Preset returns the configuration for a named preset. The empty name selects
// the adaptive preset.
func Preset(name string) (*Config, error) {
	opts := pipeline.DefaultOptions()
	switch name {
	case "", PresetAdaptive:
		name = PresetAdaptive
	case PresetSimple:
		opts.Binarize = imaging.SimpleBinarizeOptions()
		opts.Filter.Shape = detection.ShapeSizeOnly
	default:
		return nil, fmt.Errorf("unknown preset %q (want %s or %s)", name, PresetAdaptive, PresetSimple)
	}

	cfg := fromOptions(opts)
	cfg.Preset = name
	cfg.Classifier = ClassifierConfig{
		Name:          classify.NameTesseract,
		Language:      "eng",
		MinConfidence: opts.MinConfidence,
	}
	cfg.LogLevel = logging.DefaultLevel.String()
	cfg.LogFormat = logging.FormatJSON
	return cfg, nil
}

func fromOptions(opts pipeline.Options) *Config {
	b := opts.Binarize
	return &Config{
		Binarize: BinarizeConfig{
			Gray:          string(b.Gray),
			Smoothing:     string(b.Smooth.Method),
			SmoothRadius:  b.Smooth.Radius,
			SigmaColor:    b.Smooth.SigmaColor,
			SigmaSpace:    b.Smooth.SigmaSpace,
			Thresholding:  string(b.Threshold.Method),
			Polarity:      string(b.Threshold.Polarity),
			Level:         int(b.Threshold.Level),
			BlockSize:     b.Threshold.BlockSize,
			Offset:        b.Threshold.Offset,
			ClosingRadius: b.ClosingRadius,
		},
		Regions: RegionsConfig{
			Connectivity: int(opts.Connectivity),
			Shape:        string(opts.Filter.Shape),
			MinSize:      opts.Filter.MinSize,
			MinAspect:    opts.Filter.MinAspect,
			MaxAspect:    opts.Filter.MaxAspect,
		},
		Crop: CropConfig{
			Margin:  opts.Crop.Margin,
			MinSize: opts.Crop.MinSize,
		},
		Evaluate: opts.Evaluate,
	}
}

// Load reads a YAML file on top of a preset. preset overrides the file's own
// preset key; when both are empty the adaptive preset is used. Keys missing
// from the file keep their preset values.
func Load(path, preset string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if preset == "" {
		var head struct {
			Preset string `yaml:"preset"`
		}
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		preset = head.Preset
	}

	cfg, err := Preset(preset)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Preset = preset
	if cfg.Preset == "" {
		cfg.Preset = PresetAdaptive
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write saves cfg as YAML at path.
func (c *Config) Write(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides values from SYMSEG_* environment variables. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(logging.EnvLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvClassifier)); v != "" {
		c.Classifier.Name = v
	}
	if v := strings.TrimSpace(getenv(EnvTessdataPrefix)); v != "" {
		c.Classifier.TessdataPrefix = v
	}
}

// Validate checks every value and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := c.PipelineOptions(); err != nil {
		return err
	}

	b := c.Binarize
	if b.SmoothRadius < 0 || b.SmoothRadius > 25 {
		return fmt.Errorf("smooth_radius must be between 0-25, got %d", b.SmoothRadius)
	}
	if b.Smoothing == string(imaging.SmoothBilateral) {
		if b.SigmaColor <= 0 || b.SigmaColor > 255 {
			return fmt.Errorf("sigma_color must be between 0.0-255.0, got %f", b.SigmaColor)
		}
		if b.SigmaSpace <= 0 || b.SigmaSpace > 255 {
			return fmt.Errorf("sigma_space must be between 0.0-255.0, got %f", b.SigmaSpace)
		}
	}
	if b.Level < 0 || b.Level > 255 {
		return fmt.Errorf("level must be between 0-255, got %d", b.Level)
	}
	if b.BlockSize < 3 || b.BlockSize > 99 || b.BlockSize%2 == 0 {
		return fmt.Errorf("block_size must be odd and between 3-99, got %d", b.BlockSize)
	}
	if b.Offset < -255 || b.Offset > 255 {
		return fmt.Errorf("offset must be between -255.0 and 255.0, got %f", b.Offset)
	}
	if b.ClosingRadius < 0 || b.ClosingRadius > 10 {
		return fmt.Errorf("closing_radius must be between 0-10, got %d", b.ClosingRadius)
	}

	r := c.Regions
	if r.MinSize < 0 || r.MinSize > 1000 {
		return fmt.Errorf("regions.min_size must be between 0-1000, got %d", r.MinSize)
	}
	if r.MinAspect <= 0 {
		return fmt.Errorf("min_aspect must be greater than 0, got %f", r.MinAspect)
	}
	if r.MaxAspect < r.MinAspect {
		return fmt.Errorf("max_aspect must be at least min_aspect (%f), got %f", r.MinAspect, r.MaxAspect)
	}

	if c.Crop.Margin < 0 || c.Crop.Margin > 1000 {
		return fmt.Errorf("crop.margin must be between 0-1000, got %d", c.Crop.Margin)
	}
	if c.Crop.MinSize < 0 || c.Crop.MinSize > 1000 {
		return fmt.Errorf("crop.min_size must be between 0-1000, got %d", c.Crop.MinSize)
	}

	if !validClassifier(c.Classifier.Name) {
		return fmt.Errorf("%w: classifier.name must be one of %v, got %s", classify.ErrUnknownClassifier, classify.Names, c.Classifier.Name)
	}
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0.0-1.0, got %f", c.Classifier.MinConfidence)
	}
	if c.Batch.Workers < 0 || c.Batch.Workers > 256 {
		return fmt.Errorf("batch.workers must be between 0-256, got %d", c.Batch.Workers)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

func validClassifier(name string) bool {
	for _, n := range classify.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Level returns the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	return logging.ParseLevel(c.LogLevel)
}

// Logger builds the diagnostic logger writing to w.
func (c *Config) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	return logging.NewFormat(w, c.LogFormat, level)
}

// PipelineOptions converts the configuration into pipeline options, rejecting
// unknown strategy names.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	var opts pipeline.Options
	var err error
	b := c.Binarize

	if opts.Binarize.Gray, err = imaging.ParseGrayMode(b.Gray); err != nil {
		return opts, err
	}
	if opts.Binarize.Smooth.Method, err = imaging.ParseSmoothing(b.Smoothing); err != nil {
		return opts, err
	}
	if opts.Binarize.Threshold.Method, err = imaging.ParseThresholding(b.Thresholding); err != nil {
		return opts, err
	}
	if opts.Binarize.Threshold.Polarity, err = imaging.ParsePolarity(b.Polarity); err != nil {
		return opts, err
	}
	if opts.Connectivity, err = detection.ParseConnectivity(c.Regions.Connectivity); err != nil {
		return opts, err
	}
	if opts.Filter.Shape, err = detection.ParseShapeFilter(c.Regions.Shape); err != nil {
		return opts, err
	}

	opts.Binarize.Smooth.Radius = b.SmoothRadius
	opts.Binarize.Smooth.SigmaColor = b.SigmaColor
	opts.Binarize.Smooth.SigmaSpace = b.SigmaSpace
	opts.Binarize.Threshold.Level = uint8(clampInt(b.Level, 0, 255))
	opts.Binarize.Threshold.BlockSize = b.BlockSize
	opts.Binarize.Threshold.Offset = b.Offset
	opts.Binarize.ClosingRadius = b.ClosingRadius

	opts.Filter.MinSize = c.Regions.MinSize
	opts.Filter.MinAspect = c.Regions.MinAspect
	opts.Filter.MaxAspect = c.Regions.MaxAspect

	opts.Crop.Margin = c.Crop.Margin
	opts.Crop.MinSize = c.Crop.MinSize

	opts.Evaluate = c.Evaluate
	opts.MinConfidence = c.Classifier.MinConfidence
	return opts, nil
}

// ClassifierOptions returns the options for classify.New. log is handed to
// the backend, so pass a scoped logger.
func (c *Config) ClassifierOptions(log zerolog.Logger) classify.Options {
	return classify.Options{
		Name:           c.Classifier.Name,
		Seed:           c.Classifier.Seed,
		Language:       c.Classifier.Language,
		TessdataPrefix: c.Classifier.TessdataPrefix,
		Logger:         log,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
