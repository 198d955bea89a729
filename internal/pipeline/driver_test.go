package pipeline_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
	"github.com/ironsheep/pricetag-ocr/internal/pipeline"
	"github.com/ironsheep/pricetag-ocr/internal/region"
	"github.com/ironsheep/pricetag-ocr/internal/tilt"
)

var _ = Describe("Driver", func() {
	var (
		ctx         context.Context
		dir         string
		input       string
		transformer *fakeTransformer
		estimator   *fakeEstimator
		recognizer  *rowRecognizer
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		input = writePNG(dir, newRowImage(418, 208))
		transformer = &fakeTransformer{}
		estimator = &fakeEstimator{}
		recognizer = &rowRecognizer{}
	})

	labelTexts := func(report *pipeline.Report) []string {
		texts := make([]string, len(report.Labels))
		for i, res := range report.Labels {
			texts[i] = res.Text
		}
		return texts
	}

	Context("with the scan profile", func() {
		It("reads every label offset and the price from a level tag", func() {
			estimator.angle = 0.4

			report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.RunID).NotTo(BeEmpty())
			Expect(report.Input).To(Equal(input))
			Expect(report.Profile).To(Equal("scan"))
			Expect(report.TiltDegrees).To(Equal(0.4))
			Expect(report.Deskewed).To(BeFalse())
			Expect(transformer.rotations).To(BeEmpty())
			Expect(estimator.calls).To(Equal(1))

			Expect(report.Labels).To(HaveLen(15))
			want := make([]string, 0, 15)
			for top := 110; top <= 124; top++ {
				want = append(want, "row-"+strconv.Itoa(top))
			}
			Expect(labelTexts(report)).To(Equal(want))
			for i, res := range report.Labels {
				Expect(res.Candidate.TopOffset).To(Equal(110 + i))
				Expect(res.Candidate.Rect).To(Equal(region.Rect{Left: 0, Top: 110 + i, Width: 418, Height: 42}))
			}

			Expect(report.Price).NotTo(BeNil())
			Expect(report.Price.Text).To(Equal("12.99"))
			Expect(report.Price.Candidate.Rect).To(Equal(region.Rect{Left: 0, Top: 55, Width: 418, Height: 62}))

			Expect(report.Rejected).To(BeEmpty())
			Expect(report.Failures()).To(BeZero())
			Expect(recognizer.callCount()).To(Equal(16))
			Expect(recognizer.languages).To(HaveEach("eng"))
		})

		It("counter-rotates a skewed tag before normalizing", func() {
			estimator.angle = 5

			report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Deskewed).To(BeTrue())
			Expect(report.TiltDegrees).To(Equal(5.0))
			Expect(transformer.rotations).To(Equal([]float64{-5}))
			Expect(report.Labels).To(HaveLen(15))
			Expect(report.Price).NotTo(BeNil())
		})

		It("fails with a tilt estimation error on non-numeric estimator output", func() {
			_, parseErr := tilt.ParseAngle("error")
			estimator.err = parseErr

			report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
			Expect(report).To(BeNil())
			Expect(errors.Is(err, tagerrors.ErrTiltEstimation)).To(BeTrue())

			var stageErr *pipeline.StageError
			Expect(errors.As(err, &stageErr)).To(BeTrue())
			Expect(stageErr.Stage).To(Equal(pipeline.StageStart))
			Expect(recognizer.callCount()).To(BeZero())
			Expect(transformer.resizes).To(BeZero())
		})

		It("rejects a non-finite angle", func() {
			estimator.angle = math.NaN()

			_, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
			Expect(errors.Is(err, tagerrors.ErrTiltEstimation)).To(BeTrue())
		})

		It("classifies an unexpected estimator failure as a tilt error", func() {
			cause := errors.New("interpreter missing")
			estimator.err = cause

			_, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
			Expect(errors.Is(err, tagerrors.ErrTiltEstimation)).To(BeTrue())
			Expect(errors.Is(err, cause)).To(BeTrue())
		})
	})

	It("rewraps a non-fatal estimator error as a tilt failure", func() {
		estimator.err = tagerrors.NewBoundsError("sample window outside image")

		_, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
		code, ok := tagerrors.CodeOf(err)
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(tagerrors.ErrorTiltEstimationFailed))
		Expect(errors.Is(err, tagerrors.ErrBounds)).To(BeTrue())
	})

	It("passes a fatal estimator error through unchanged", func() {
		decodeErr := tagerrors.NewDecodeError("tag.png", errors.New("truncated"))
		estimator.err = decodeErr

		_, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
		Expect(errors.Is(err, tagerrors.ErrDecode)).To(BeTrue())
		Expect(errors.Is(err, tagerrors.ErrTiltEstimation)).To(BeFalse())

		var stageErr *pipeline.StageError
		Expect(errors.As(err, &stageErr)).To(BeTrue())
		Expect(stageErr.Err).To(BeIdenticalTo(error(decodeErr)))
	})

	It("reads the fixed-geometry tag without estimating tilt", func() {
		profile := region.FixedProfile()

		report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{Profile: &profile}).ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		Expect(estimator.calls).To(BeZero())
		Expect(report.Deskewed).To(BeFalse())
		Expect(report.Profile).To(Equal("fixed"))
		Expect(labelTexts(report)).To(Equal([]string{"row-10"}))
		Expect(report.Labels[0].Candidate.Rect).To(Equal(region.Rect{Left: 0, Top: 10, Width: 418, Height: 62}))
		Expect(report.Price.Candidate.Rect).To(Equal(region.Rect{Left: 190, Top: 80, Width: 200, Height: 104}))
		Expect(report.Price.Text).To(Equal("12.99"))
	})

	It("fails with a decode error before estimating tilt", func() {
		report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).
			ProcessImage(ctx, filepath.Join(dir, "missing.png"))

		Expect(report).To(BeNil())
		Expect(errors.Is(err, tagerrors.ErrDecode)).To(BeTrue())

		var stageErr *pipeline.StageError
		Expect(errors.As(err, &stageErr)).To(BeTrue())
		Expect(stageErr.Stage).To(Equal(pipeline.StageStart))
		Expect(estimator.calls).To(BeZero())
	})

	It("reports out-of-frame candidates without aborting", func() {
		core, logs := observer.New(zapcore.InfoLevel)
		profile := region.ScanProfile()
		profile.LabelOffsets = []int{110, 190, 120}

		report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{Profile: &profile, Logger: zap.New(core)}).
			ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		Expect(labelTexts(report)).To(Equal([]string{"row-110", "row-120"}))
		Expect(report.Rejected).To(HaveLen(1))
		Expect(report.Rejected[0].Candidate.TopOffset).To(Equal(190))
		Expect(errors.Is(report.Rejected[0].Err, tagerrors.ErrBounds)).To(BeTrue())
		Expect(report.Failures()).To(Equal(1))

		Expect(logs.FilterMessage("run complete").Len()).To(Equal(1))
		Expect(logs.FilterField(zap.String("candidate", "label@190")).Len()).To(BeNumerically(">=", 1))
	})

	It("keeps the other candidates when one recognition fails", func() {
		recognizer.failRows = map[int]bool{117: true}

		report, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Labels).To(HaveLen(15))
		for _, res := range report.Labels {
			if res.Candidate.TopOffset == 117 {
				Expect(errors.Is(res.Err, tagerrors.ErrRecognition)).To(BeTrue())
				Expect(res.Text).To(BeEmpty())
				continue
			}
			Expect(res.OK()).To(BeTrue())
		}
		Expect(report.Price.OK()).To(BeTrue())
		Expect(report.Failures()).To(Equal(1))
	})

	It("maps candidates to the same text for any worker count", func() {
		recognizer.jitter = 2 * time.Millisecond
		serial, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{Workers: 1}).ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		parallel, err := pipeline.NewDriver(transformer, estimator, &rowRecognizer{jitter: 2 * time.Millisecond}, pipeline.Options{Workers: 8}).
			ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		Expect(labelTexts(parallel)).To(Equal(labelTexts(serial)))
		Expect(parallel.Price.Text).To(Equal(serial.Price.Text))
		Expect(parallel.RunID).NotTo(Equal(serial.RunID))
	})

	It("saves diagnostic images when an artifacts directory is set", func() {
		estimator.angle = -2.5
		artifacts := filepath.Join(dir, "artifacts")

		_, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{ArtifactsDir: artifacts}).ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())

		Expect(transformer.saved).To(ContainElements(
			filepath.Join(artifacts, "tag", "deskewed_tag.png"),
			filepath.Join(artifacts, "tag", "label_region_top_110.png"),
			filepath.Join(artifacts, "tag", "label_region_top_124.png"),
			filepath.Join(artifacts, "tag", "price_region.png"),
		))
		Expect(transformer.saved).To(HaveLen(17))
		Expect(filepath.Join(artifacts, "tag", "price_region.png")).To(BeAnExistingFile())
	})

	It("saves nothing by default", func() {
		_, err := pipeline.NewDriver(transformer, estimator, recognizer, pipeline.Options{}).ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())
		Expect(transformer.saved).To(BeEmpty())
	})

	It("uses the native estimator on the decoded image", func() {
		report, err := pipeline.NewDriver(transformer, tilt.NewHoughEstimator(), recognizer, pipeline.Options{}).ProcessImage(ctx, input)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(report.TiltDegrees)).To(BeFalse())
	})
})
