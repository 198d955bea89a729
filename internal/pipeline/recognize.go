package pipeline

import (
	"context"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
	"github.com/ironsheep/pricetag-ocr/internal/region"
)

// DefaultWorkers is the default number of concurrent recognitions.
const DefaultWorkers = 4

// Job is one candidate ready for recognition. A job whose Err is set failed
// preparation; it is reported as-is without calling the recognizer.
type Job struct {
	Candidate region.Candidate
	Image     image.Image
	Err       error
}

// Orchestrator recognizes prepared regions with a bounded worker pool.
type Orchestrator struct {
	recognizer Recognizer
	language   string
	workers    int
	logger     *zap.Logger
}

// NewOrchestrator creates an orchestrator. workers below 1 are raised to 1 and
// a nil logger disables logging.
func NewOrchestrator(recognizer Recognizer, language string, workers int, logger *zap.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		recognizer: recognizer,
		language:   language,
		workers:    workers,
		logger:     logger.Named("recognize"),
	}
}

// Run recognizes every job and returns one Result per job, at the job's index,
// with surrounding whitespace trimmed from the text.
//
// Jobs are independent: a failing recognition is recorded as a
// RECOGNITION_FAILED error on its own Result and the remaining jobs still run.
// Run returns only after all jobs have finished.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(o.workers)

	for i, job := range jobs {
		if job.Err != nil {
			results[i] = Result{Candidate: job.Candidate, Err: job.Err}
			continue
		}

		g.Go(func() error {
			results[i] = o.recognize(ctx, job)
			return nil
		})
	}

	// Workers never return errors; failures live in the results
	_ = g.Wait()

	return results
}

func (o *Orchestrator) recognize(ctx context.Context, job Job) Result {
	id := job.Candidate.ID()
	start := time.Now()

	text, err := o.recognizer.Recognize(ctx, job.Image, o.language)
	elapsed := time.Since(start)
	text = strings.TrimSpace(text)

	if err != nil {
		o.logger.Warn("recognition failed",
			zap.String("candidate", id),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return Result{
			Candidate: job.Candidate,
			Duration:  elapsed,
			Err:       tagerrors.NewRecognitionError(id, err),
		}
	}

	o.logger.Debug("recognized",
		zap.String("candidate", id),
		zap.String("text", text),
		zap.Duration("duration", elapsed))

	return Result{
		Candidate: job.Candidate,
		Text:      text,
		Duration:  elapsed,
	}
}
