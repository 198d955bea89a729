package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ironsheep/pricetag-ocr/internal/region"
)

// Result is the outcome of one candidate. Exactly one of Text (possibly
// empty) and Err is meaningful: when Err is set, Text is empty.
type Result struct {
	Candidate region.Candidate
	Text      string
	Duration  time.Duration
	Err       error
}

// OK reports whether the candidate produced text without error.
func (r Result) OK() bool {
	return r.Err == nil
}

type resultJSON struct {
	ID         string           `json:"id"`
	Candidate  region.Candidate `json:"candidate"`
	Text       string           `json:"text"`
	DurationMs float64          `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

// MarshalJSON encodes the result with its duration in milliseconds and the
// error as a string.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		ID:         r.Candidate.ID(),
		Candidate:  r.Candidate,
		Text:       r.Text,
		DurationMs: milliseconds(r.Duration),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Rejection is a planned candidate dropped before extraction.
type Rejection struct {
	Candidate region.Candidate
	Err       error
}

// MarshalJSON encodes the rejection with the error as a string.
func (r Rejection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string           `json:"id"`
		Candidate region.Candidate `json:"candidate"`
		Error     string           `json:"error"`
	}{r.Candidate.ID(), r.Candidate, r.Err.Error()})
}

// Report is the terminal outcome of a successful run. Every requested
// candidate appears exactly once: in Labels or Price when it was planned, in
// Rejected when it did not fit the frame.
type Report struct {
	RunID       string        `json:"run_id"`
	Input       string        `json:"input"`
	Profile     string        `json:"profile"`
	TiltDegrees float64       `json:"tilt_degrees"`
	Deskewed    bool          `json:"deskewed"`
	Frame       region.Frame  `json:"frame"`
	Labels      []Result      `json:"labels"`
	Price       *Result       `json:"price"`
	Rejected    []Rejection   `json:"rejected,omitempty"`
	Duration    time.Duration `json:"-"`
}

// MarshalJSON encodes the report with its total run time as duration_ms.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		plain
		DurationMs float64 `json:"duration_ms"`
	}{plain(r), milliseconds(r.Duration)})
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// BestLabel picks the most plausible label reading: the longest non-empty
// text among successful label results, the earliest offset winning ties.
// ok is false when no label produced text.
func (r *Report) BestLabel() (best Result, ok bool) {
	for _, res := range r.Labels {
		if !res.OK() || res.Text == "" {
			continue
		}
		if !ok || len([]rune(res.Text)) > len([]rune(best.Text)) {
			best, ok = res, true
		}
	}
	return best, ok
}

// Failures counts candidates that were rejected or ended with an error.
func (r *Report) Failures() int {
	n := len(r.Rejected)
	for _, res := range r.Labels {
		if !res.OK() {
			n++
		}
	}
	if r.Price != nil && !r.Price.OK() {
		n++
	}
	return n
}

// WriteText writes a human-readable summary of the report to w.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (run %s, profile %s)\n", r.Input, r.RunID, r.Profile)
	if r.Deskewed {
		fmt.Fprintf(&b, "  tilt: %.2f° (deskewed)\n", r.TiltDegrees)
	} else {
		fmt.Fprintf(&b, "  tilt: %.2f°\n", r.TiltDegrees)
	}

	for _, res := range r.Labels {
		writeResultLine(&b, res)
	}
	if r.Price != nil {
		writeResultLine(&b, *r.Price)
	}
	for _, rej := range r.Rejected {
		fmt.Fprintf(&b, "  %-10s skipped: %v\n", rej.Candidate.ID(), rej.Err)
	}

	if best, ok := r.BestLabel(); ok {
		fmt.Fprintf(&b, "  best label: %q (%s)\n", best.Text, best.Candidate.ID())
	}
	if r.Price != nil && r.Price.OK() {
		fmt.Fprintf(&b, "  price: %q\n", r.Price.Text)
	}
	fmt.Fprintf(&b, "  total: %s\n", r.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResultLine(b *strings.Builder, res Result) {
	if res.Err != nil {
		fmt.Fprintf(b, "  %-10s error: %v\n", res.Candidate.ID(), res.Err)
		return
	}
	fmt.Fprintf(b, "  %-10s %q (%s)\n", res.Candidate.ID(), res.Text, res.Duration.Round(time.Millisecond))
}
