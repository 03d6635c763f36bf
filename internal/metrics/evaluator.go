package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/slamfront/internal/candidate"
)

// Result holds the metrics of one candidate.
type Result struct {
	CandidateID uuid.UUID
	Timeshift   int64
	Connected   bool
	Structure   Structure
	Unused      int
	// MapQuality is set when HasMapQuality is true.
	MapQuality    float64
	HasMapQuality bool
}

// Evaluator computes Results. Scorer is optional.
type Evaluator struct {
	Scorer  Scorer
	Workers int
}

// Evaluate computes the metrics of c.
func (e *Evaluator) Evaluate(c *candidate.Candidate) (Result, error) {
	s := Analyze(c.Elements)
	r := Result{
		CandidateID: c.ID,
		Timeshift:   Timeshift(c.Clusters),
		Connected:   s.Connected(c.BaseEmpty),
		Structure:   s,
		Unused:      c.Unused(),
	}
	if e.Scorer == nil {
		return r, nil
	}
	score, err := e.Scorer.Score(c)
	switch {
	case errors.Is(err, ErrNoMapData):
	case err != nil:
		return r, fmt.Errorf("%s: %w", e.Scorer.Name(), err)
	default:
		r.MapQuality, r.HasMapQuality = score, true
	}
	return r, nil
}

// EvaluateAll evaluates candidates in parallel. The result is aligned
// with cs.
func (e *Evaluator) EvaluateAll(ctx context.Context, cs []*candidate.Candidate) ([]Result, error) {
	out := make([]Result, len(cs))
	eg, ctx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		eg.SetLimit(e.Workers)
	}
	for i := range cs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.Evaluate(cs[i])
			if err != nil {
				return fmt.Errorf("candidate %s: %w", cs[i].ID, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
