package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
	"github.com/ironsheep/pricetag-ocr/internal/region"
	"github.com/ironsheep/pricetag-ocr/internal/tilt"
)

// Options configure a Driver. Zero values select the defaults.
type Options struct {
	// Frame is the canonical frame; defaults to region.DefaultFrame.
	Frame region.Frame

	// Profile is the region geometry; defaults to region.ScanProfile().
	Profile *region.Profile

	// DeskewThreshold is the largest tilt, in degrees, left uncorrected;
	// defaults to DefaultDeskewThreshold.
	DeskewThreshold float64

	// Workers bounds concurrent recognitions; defaults to DefaultWorkers.
	Workers int

	// ArtifactsDir, when set, receives the deskewed image and every prepared
	// region for inspection.
	ArtifactsDir string

	Logger *zap.Logger
}

// Driver runs the price-tag pipeline for one image at a time. A Driver holds
// no per-run state and may be used by concurrent callers.
type Driver struct {
	transformer     Transformer
	estimator       tilt.Estimator
	recognizer      Recognizer
	frame           region.Frame
	profile         region.Profile
	deskewThreshold float64
	workers         int
	artifactsDir    string
	logger          *zap.Logger
}

// NewDriver wires the capabilities into a Driver.
func NewDriver(transformer Transformer, estimator tilt.Estimator, recognizer Recognizer, opts Options) *Driver {
	d := &Driver{
		transformer:     transformer,
		estimator:       estimator,
		recognizer:      recognizer,
		frame:           opts.Frame,
		deskewThreshold: opts.DeskewThreshold,
		workers:         opts.Workers,
		artifactsDir:    opts.ArtifactsDir,
		logger:          opts.Logger,
	}

	if d.frame == (region.Frame{}) {
		d.frame = region.DefaultFrame
	}
	if opts.Profile != nil {
		d.profile = *opts.Profile
	} else {
		d.profile = region.ScanProfile()
	}
	if d.deskewThreshold <= 0 {
		d.deskewThreshold = DefaultDeskewThreshold
	}
	if d.workers <= 0 {
		d.workers = DefaultWorkers
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.logger = d.logger.Named("pipeline")

	return d
}

// imageEstimator is implemented by estimators that can work on an already
// decoded image, saving a second decode.
type imageEstimator interface {
	EstimateImage(img image.Image) float64
}

// ProcessImage runs every stage for the image at inputPath.
//
// It returns a Report holding one entry per requested candidate, including
// per-candidate errors, or a *StageError when a fatal stage fails. The fatal
// cause can be tested with errors.Is against errors.ErrDecode or
// errors.ErrTiltEstimation.
func (d *Driver) ProcessImage(ctx context.Context, inputPath string) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := d.logger.With(zap.String("run_id", runID), zap.String("input", inputPath))
	state := StageStart

	fail := func(err error) (*Report, error) {
		code, _ := tagerrors.CodeOf(err)
		logger.Error("run failed", zap.Stringer("stage", state), zap.String("code", string(code)), zap.Error(err))
		return nil, &StageError{Stage: state, Err: err}
	}

	img, err := d.transformer.Decode(inputPath)
	if err != nil {
		if !errors.Is(err, tagerrors.ErrDecode) {
			err = tagerrors.NewDecodeError(inputPath, err)
		}
		return fail(err)
	}

	report := &Report{
		RunID:   runID,
		Input:   inputPath,
		Profile: d.profile.Name,
		Frame:   d.frame,
	}

	if d.profile.Deskew {
		angle, err := d.estimateTilt(ctx, inputPath, img)
		if err != nil {
			return fail(err)
		}
		state = StageTiltDetected
		report.TiltDegrees = angle
		logger.Debug("tilt detected", zap.Float64("degrees", angle))

		img, report.Deskewed = Deskew(d.transformer, img, angle, d.deskewThreshold)
		if report.Deskewed {
			state = StageDeskewed
			d.saveArtifact(logger, img, inputPath, "deskewed_"+stem(inputPath)+".png")
		} else {
			state = StageSkipped
		}
		logger.Debug("deskew stage done", zap.Stringer("stage", state))
	} else {
		state = StageSkipped
	}

	canonical, err := Normalize(d.transformer, img, d.frame)
	if err != nil {
		return fail(err)
	}
	state = StageNormalized

	plan := region.NewPlanner(d.frame, d.profile, logger).Plan()
	state = StagePlanned
	for _, rej := range plan.Rejected {
		report.Rejected = append(report.Rejected, Rejection{Candidate: rej.Candidate, Err: rej.Err})
	}

	candidates := plan.Candidates()
	jobs := make([]Job, len(candidates))
	for i, c := range candidates {
		prepared, err := Prepare(d.transformer, canonical, c, d.profile.PriceThreshold)
		if err != nil {
			logger.Warn("candidate preparation failed", zap.String("candidate", c.ID()), zap.Error(err))
			jobs[i] = Job{Candidate: c, Err: err}
			continue
		}
		jobs[i] = Job{Candidate: c, Image: prepared}
		d.saveArtifact(logger, prepared, inputPath, artifactName(c))
	}
	state = StagePreprocessed

	results := NewOrchestrator(d.recognizer, d.profile.Language, d.workers, logger).Run(ctx, jobs)
	state = StageRecognized

	report.Labels = make([]Result, 0, len(plan.Labels))
	for _, res := range results {
		if res.Candidate.Kind == region.Price {
			report.Price = &res
			continue
		}
		report.Labels = append(report.Labels, res)
	}
	report.Duration = time.Since(start)
	state = StageAggregated

	logger.Info("run complete",
		zap.Int("labels", len(report.Labels)),
		zap.Bool("price", report.Price != nil),
		zap.Int("failures", report.Failures()),
		zap.Duration("duration", report.Duration))

	return report, nil
}

func (d *Driver) estimateTilt(ctx context.Context, path string, img image.Image) (float64, error) {
	var angle float64
	if ie, ok := d.estimator.(imageEstimator); ok {
		angle = ie.EstimateImage(img)
	} else {
		var err error
		angle, err = d.estimator.Estimate(ctx, path)
		if err != nil {
			// Fatal codes pass through; anything else becomes a tilt failure
			if code, ok := tagerrors.CodeOf(err); ok && code.Fatal() {
				return 0, err
			}
			return 0, tagerrors.NewTiltEstimationError("tilt estimator failed", err)
		}
	}

	if err := tilt.CheckAngle(angle); err != nil {
		return 0, err
	}
	return angle, nil
}

// saveArtifact writes a diagnostic image when an artifacts directory is set.
// Failures are logged and otherwise ignored.
func (d *Driver) saveArtifact(logger *zap.Logger, img image.Image, inputPath, name string) {
	if d.artifactsDir == "" {
		return
	}
	path := filepath.Join(d.artifactsDir, stem(inputPath), name)
	if err := d.transformer.Save(img, path); err != nil {
		logger.Warn("failed to save artifact", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Debug("artifact saved", zap.String("path", path))
}

func artifactName(c region.Candidate) string {
	if c.Kind == region.Label {
		return fmt.Sprintf("label_region_top_%d.png", c.TopOffset)
	}
	return c.Kind.String() + "_region.png"
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
