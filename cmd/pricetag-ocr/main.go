package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/otiai10/gosseract/v2"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"github.com/ironsheep/pricetag-ocr/internal/config"
	"github.com/ironsheep/pricetag-ocr/internal/imaging"
	"github.com/ironsheep/pricetag-ocr/internal/ocr"
	"github.com/ironsheep/pricetag-ocr/internal/pipeline"
	"github.com/ironsheep/pricetag-ocr/internal/tilt"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, fs, err := config.Parse(args, ".env")
	if err != nil {
		if fs != nil {
			fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		}
		if errors.Is(err, ff.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if cfg.ShowVersion {
		printVersion(stdout)
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if len(cfg.Inputs) == 0 {
		fmt.Fprintln(stderr, "usage: pricetag-ocr [flags] <image>...")
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(stderr, "error: no input images")
		return 2
	}

	// Logs go to stderr; stdout carries the reports
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	profile, err := cfg.RegionProfile()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("profile", profile.Name),
		zap.String("tilt_estimator", cfg.TiltEstimator),
		zap.Int("workers", cfg.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := pipeline.NewDriver(
		imaging.Engine{},
		newEstimator(cfg),
		&ocr.Tesseract{
			TessdataPrefix: cfg.TessdataPrefix,
			PageSegMode:    gosseract.PageSegMode(cfg.PageSegMode),
		},
		pipeline.Options{
			Profile:         &profile,
			DeskewThreshold: cfg.DeskewThreshold,
			Workers:         cfg.Workers,
			ArtifactsDir:    cfg.ArtifactsDir,
			Logger:          logger,
		},
	)

	exitCode := 0
	for _, input := range cfg.Inputs {
		if ctx.Err() != nil {
			return 130
		}

		report, err := driver.ProcessImage(ctx, input)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", input, err)
			exitCode = 1
			continue
		}

		if err := writeReport(stdout, cfg.Format, report); err != nil {
			logger.Error("failed to write report", zap.String("input", input), zap.Error(err))
			return 1
		}
	}
	return exitCode
}

func newEstimator(cfg *config.Config) tilt.Estimator {
	if cfg.TiltEstimator == config.EstimatorCommand {
		name, args := cfg.TiltArgs()
		return &tilt.CommandEstimator{Command: name, Args: args}
	}
	return tilt.NewHoughEstimator()
}

func writeReport(w io.Writer, format string, report *pipeline.Report) error {
	if format == config.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteText(w)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "pricetag-ocr %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)

	if info := ocr.GetInfo(); info.Available {
		fmt.Fprintf(w, "  Tesseract:  %s (%s)\n", info.Version, info.Backend)
	} else {
		fmt.Fprintln(w, "  Tesseract:  not available")
	}
}
