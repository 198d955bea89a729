package region

import (
	"go.uber.org/zap"
)

// Rejection is a candidate the planner dropped, with the reason.
type Rejection struct {
	Candidate Candidate
	Err       error
}

// Plan is the planner's output.
type Plan struct {
	// Labels are the valid label candidates in offset order.
	Labels []Candidate

	// Price is the valid price candidate, or nil if it was rejected.
	Price *Candidate

	// Rejected lists every candidate that failed validation.
	Rejected []Rejection
}

// Candidates returns the valid candidates: labels first, then the price.
func (p *Plan) Candidates() []Candidate {
	out := make([]Candidate, 0, len(p.Labels)+1)
	out = append(out, p.Labels...)
	if p.Price != nil {
		out = append(out, *p.Price)
	}
	return out
}

// Planner computes candidate regions for a profile.
type Planner struct {
	frame   Frame
	profile Profile
	logger  *zap.Logger
}

// NewPlanner creates a planner. A nil logger disables logging.
func NewPlanner(frame Frame, profile Profile, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		frame:   frame,
		profile: profile,
		logger:  logger.Named("planner"),
	}
}

// Plan builds one label candidate per distinct offset and one price
// candidate, validating each against the frame. Repeated offsets after the
// first are ignored. Invalid candidates are logged and moved
// to Rejected; planning itself never fails.
func (p *Planner) Plan() *Plan {
	plan := &Plan{
		Labels: make([]Candidate, 0, len(p.profile.LabelOffsets)),
	}

	seen := make(map[int]bool, len(p.profile.LabelOffsets))
	for _, top := range p.profile.LabelOffsets {
		// Candidates are identified by offset, so repeats would collide
		if seen[top] {
			p.logger.Debug("duplicate label offset, skipping", zap.Int("top", top))
			continue
		}
		seen[top] = true

		c := Candidate{
			Kind:      Label,
			Rect:      p.profile.Label.Rect(p.frame, top),
			TopOffset: top,
		}
		if err := c.Rect.Validate(p.frame); err != nil {
			p.reject(plan, c, err)
			continue
		}
		plan.Labels = append(plan.Labels, c)
	}

	price := Candidate{
		Kind:      Price,
		Rect:      p.profile.Price.Rect(p.frame, p.profile.Price.Top),
		TopOffset: p.profile.Price.Top,
	}
	if err := price.Rect.Validate(p.frame); err != nil {
		p.reject(plan, price, err)
	} else {
		plan.Price = &price
	}

	return plan
}

func (p *Planner) reject(plan *Plan, c Candidate, err error) {
	p.logger.Info("candidate out of bounds, skipping",
		zap.String("candidate", c.ID()),
		zap.Stringer("rect", c.Rect),
		zap.Error(err))
	plan.Rejected = append(plan.Rejected, Rejection{Candidate: c, Err: err})
}
