package pipeline_test

import (
	"context"
	"errors"
	"image"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	tagerrors "github.com/ironsheep/pricetag-ocr/internal/errors"
	"github.com/ironsheep/pricetag-ocr/internal/pipeline"
	"github.com/ironsheep/pricetag-ocr/internal/region"
)

func labelJobs(img image.Image, offsets ...int) []pipeline.Job {
	jobs := make([]pipeline.Job, 0, len(offsets))
	for _, top := range offsets {
		c := region.Candidate{Kind: region.Label, Rect: region.Rect{Left: 0, Top: top, Width: 10, Height: 5}, TopOffset: top}
		jobs = append(jobs, pipeline.Job{Candidate: c, Image: img.(*image.RGBA).SubImage(c.Rect.Image())})
	}
	return jobs
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx context.Context
		img *image.RGBA
	)

	BeforeEach(func() {
		ctx = context.Background()
		img = newRowImage(10, 60)
	})

	It("returns one trimmed result per job in job order", func() {
		rec := &rowRecognizer{jitter: 5 * time.Millisecond}
		jobs := labelJobs(img, 30, 10, 50, 20, 40)

		results := pipeline.NewOrchestrator(rec, "eng", 3, nil).Run(ctx, jobs)

		Expect(results).To(HaveLen(5))
		texts := make([]string, len(results))
		for i, res := range results {
			Expect(res.OK()).To(BeTrue())
			Expect(res.Candidate).To(Equal(jobs[i].Candidate))
			texts[i] = res.Text
		}
		Expect(texts).To(Equal([]string{"row-30", "row-10", "row-50", "row-20", "row-40"}))
		Expect(rec.languages).To(HaveEach("eng"))
	})

	It("isolates a failing recognition", func() {
		rec := &rowRecognizer{failRows: map[int]bool{20: true}}
		jobs := labelJobs(img, 10, 20, 30)

		results := pipeline.NewOrchestrator(rec, "eng", 2, nil).Run(ctx, jobs)

		Expect(results[0].Text).To(Equal("row-10"))
		Expect(results[2].Text).To(Equal("row-30"))

		Expect(results[1].OK()).To(BeFalse())
		Expect(results[1].Text).To(BeEmpty())
		Expect(errors.Is(results[1].Err, tagerrors.ErrRecognition)).To(BeTrue())
		Expect(results[1].Err.Error()).To(ContainSubstring("label@20"))
		Expect(results[1].Err.Error()).To(ContainSubstring("engine crashed"))
	})

	It("passes failed preparations through without recognizing them", func() {
		rec := &rowRecognizer{}
		jobs := labelJobs(img, 10)
		bounds := tagerrors.NewBoundsError("region does not fit")
		jobs = append(jobs, pipeline.Job{Candidate: region.Candidate{Kind: region.Price}, Err: bounds})

		results := pipeline.NewOrchestrator(rec, "eng", 4, nil).Run(ctx, jobs)

		Expect(rec.callCount()).To(Equal(1))
		Expect(results[1].Err).To(MatchError(bounds))
	})

	It("produces identical results for any worker count", func() {
		jobs := labelJobs(img, 0, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55)

		serial := pipeline.NewOrchestrator(&rowRecognizer{jitter: 3 * time.Millisecond}, "eng", 1, nil).Run(ctx, jobs)
		parallel := pipeline.NewOrchestrator(&rowRecognizer{jitter: 3 * time.Millisecond}, "eng", 8, nil).Run(ctx, jobs)

		Expect(parallel).To(HaveLen(len(serial)))
		for i := range serial {
			Expect(parallel[i].Candidate).To(Equal(serial[i].Candidate))
			Expect(parallel[i].Text).To(Equal(serial[i].Text))
		}
	})

	It("records the duration of every call", func() {
		rec := &rowRecognizer{jitter: 2 * time.Millisecond}
		results := pipeline.NewOrchestrator(rec, "eng", 0, nil).Run(ctx, labelJobs(img, 10, 20))

		for _, res := range results {
			Expect(res.Duration).To(BeNumerically(">=", 0))
		}
	})

	It("treats a worker count below one as one", func() {
		rec := &rowRecognizer{}
		results := pipeline.NewOrchestrator(rec, "eng", -3, nil).Run(ctx, labelJobs(img, 10, 20, 30))

		Expect(rec.callCount()).To(Equal(3))
		for _, res := range results {
			Expect(res.OK()).To(BeTrue())
		}
	})
})
