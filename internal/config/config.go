// Package config holds the runtime configuration of the pricetag-ocr command.
//
// Values come from command-line flags, then PRICETAG_OCR_* environment
// variables, then an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/pricetag-ocr/internal/region"
)

// EnvVarPrefix prefixes every environment variable read by Parse.
const EnvVarPrefix = "PRICETAG_OCR"

// Tilt estimator names.
const (
	EstimatorHough   = "hough"
	EstimatorCommand = "command"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Deskew modes.
const (
	DeskewAuto = "auto"
	DeskewOn   = "on"
	DeskewOff  = "off"
)

// Config is the complete runtime configuration.
type Config struct {
	Profile string

	// LabelTopStart and LabelTopCount replace the profile's label offsets
	// with a contiguous range when LabelTopCount is positive.
	LabelTopStart int
	LabelTopCount int

	// PriceThreshold is the binarization level; negative keeps the profile's.
	PriceThreshold int

	// Language is the recognition language; empty keeps the profile's.
	Language       string
	TessdataPrefix string

	// PageSegMode is the Tesseract page segmentation mode (1-13); 0 keeps
	// the engine default.
	PageSegMode int

	TiltEstimator   string
	TiltCommand     string
	Deskew          string
	DeskewThreshold float64

	Workers      int
	ArtifactsDir string
	Format       string
	LogLevel     string

	ShowVersion bool

	// Inputs are the positional image paths.
	Inputs []string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Profile:         "scan",
		LabelTopStart:   110,
		PriceThreshold:  -1,
		TiltEstimator:   EstimatorHough,
		TiltCommand:     "python3 detect_tilt.py",
		Deskew:          DeskewAuto,
		DeskewThreshold: 1.0,
		Workers:         4,
		Format:          FormatText,
		LogLevel:        "info",
	}
}

// NewFlagSet registers every configuration flag on a new flag set, bound to
// cfg. The current values of cfg become the flag defaults.
func NewFlagSet(cfg *Config) *ff.FlagSet {
	fs := ff.NewFlagSet("pricetag-ocr")

	fs.StringVar(&cfg.Profile, 'p', "profile", cfg.Profile, "region profile: "+strings.Join(region.ProfileNames(), ", "))
	fs.IntVar(&cfg.LabelTopStart, 0, "label-top-start", cfg.LabelTopStart, "first label top offset when --label-top-count is set")
	fs.IntVar(&cfg.LabelTopCount, 0, "label-top-count", cfg.LabelTopCount, "number of label offsets to scan (0 keeps the profile's)")
	fs.IntVar(&cfg.PriceThreshold, 0, "price-threshold", cfg.PriceThreshold, "price binarization level 0-255 (-1 keeps the profile's)")
	fs.StringVar(&cfg.Language, 'l', "language", cfg.Language, "recognition language (empty keeps the profile's)")
	fs.StringVar(&cfg.TessdataPrefix, 0, "tessdata-prefix", cfg.TessdataPrefix, "directory holding Tesseract language data")
	fs.IntVar(&cfg.PageSegMode, 0, "psm", cfg.PageSegMode, "Tesseract page segmentation mode 1-13 (0 keeps the engine default)")
	fs.StringVar(&cfg.TiltEstimator, 0, "tilt-estimator", cfg.TiltEstimator, "tilt estimator: hough or command")
	fs.StringVar(&cfg.TiltCommand, 0, "tilt-command", cfg.TiltCommand, "external tilt command; the image path is appended")
	fs.StringVar(&cfg.Deskew, 0, "deskew", cfg.Deskew, "deskew mode: auto (profile), on or off")
	fs.Float64Var(&cfg.DeskewThreshold, 0, "deskew-threshold", cfg.DeskewThreshold, "largest tilt in degrees left uncorrected")
	fs.IntVar(&cfg.Workers, 'w', "workers", cfg.Workers, "concurrent recognitions")
	fs.StringVar(&cfg.ArtifactsDir, 'a', "artifacts", cfg.ArtifactsDir, "directory for diagnostic images (disabled when empty)")
	fs.StringVar(&cfg.Format, 'o', "format", cfg.Format, "output format: text or json")
	fs.StringVar(&cfg.LogLevel, 0, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.ShowVersion, 'v', "version", "print version information")

	return fs
}

// Parse loads the optional env files, then parses args against environment
// variables with EnvVarPrefix. Missing env files are ignored. The returned
// flag set is suitable for help output even when err is non-nil.
func Parse(args []string, envFiles ...string) (*Config, *ff.FlagSet, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := Default()
	fs := NewFlagSet(&cfg)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvVarPrefix)); err != nil {
		return nil, fs, err
	}
	cfg.Inputs = fs.GetArgs()

	return &cfg, fs, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := region.LookupProfile(c.Profile); err != nil {
		return err
	}
	if c.LabelTopCount < 0 {
		return fmt.Errorf("label-top-count must not be negative, got %d", c.LabelTopCount)
	}
	if c.LabelTopCount > 0 && c.LabelTopStart < 0 {
		return fmt.Errorf("label-top-start must not be negative, got %d", c.LabelTopStart)
	}
	if c.PriceThreshold > 255 {
		return fmt.Errorf("price-threshold must be at most 255, got %d", c.PriceThreshold)
	}

	if c.PageSegMode < 0 || c.PageSegMode > 13 {
		return fmt.Errorf("psm must be between 0 and 13, got %d", c.PageSegMode)
	}

	switch c.TiltEstimator {
	case EstimatorHough:
	case EstimatorCommand:
		if len(strings.Fields(c.TiltCommand)) == 0 {
			return errors.New("tilt-command is required with the command estimator")
		}
	default:
		return fmt.Errorf("unknown tilt estimator %q (want hough or command)", c.TiltEstimator)
	}

	switch c.Deskew {
	case DeskewAuto, DeskewOn, DeskewOff:
	default:
		return fmt.Errorf("unknown deskew mode %q (want auto, on or off)", c.Deskew)
	}
	if c.DeskewThreshold <= 0 {
		return fmt.Errorf("deskew-threshold must be positive, got %g", c.DeskewThreshold)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (want text or json)", c.Format)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	return nil
}

// RegionProfile returns the selected profile with the configured overrides
// applied.
func (c *Config) RegionProfile() (region.Profile, error) {
	p, err := region.LookupProfile(c.Profile)
	if err != nil {
		return region.Profile{}, err
	}

	if c.LabelTopCount > 0 {
		p.LabelOffsets = region.OffsetRange(c.LabelTopStart, c.LabelTopCount)
	}
	if c.PriceThreshold >= 0 {
		p.PriceThreshold = uint8(c.PriceThreshold)
	}
	if c.Language != "" {
		p.Language = c.Language
	}
	switch c.Deskew {
	case DeskewOn:
		p.Deskew = true
	case DeskewOff:
		p.Deskew = false
	}
	return p, nil
}

// TiltArgs splits TiltCommand into the program and its leading arguments.
func (c *Config) TiltArgs() (string, []string) {
	fields := strings.Fields(c.TiltCommand)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// NewLogger builds the process logger. Debug level uses zap's development
// config; everything else the production config at the configured level.
// Both write to stderr.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	if level == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
