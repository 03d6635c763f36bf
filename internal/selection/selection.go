// Package selection ranks evaluated candidates and picks the one to
// commit.
package selection

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/banshee-data/slamfront/internal/candidate"
	"github.com/banshee-data/slamfront/internal/metrics"
	"github.com/banshee-data/slamfront/internal/slamerr"
)

// Ranked pairs a candidate with its metrics.
type Ranked struct {
	Candidate *candidate.Candidate
	Result    metrics.Result
}

// Compare orders two ranked candidates: lower timeshift first, then fewer
// unused samples, then lower map quality. A candidate without a map score
// sorts after one with a score.
func Compare(a, b Ranked) int {
	if c := cmp.Compare(a.Result.Timeshift, b.Result.Timeshift); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Result.Unused, b.Result.Unused); c != 0 {
		return c
	}
	switch {
	case a.Result.HasMapQuality && b.Result.HasMapQuality:
		return cmp.Compare(a.Result.MapQuality, b.Result.MapQuality)
	case a.Result.HasMapQuality:
		return -1
	case b.Result.HasMapQuality:
		return 1
	}
	return 0
}

// Rank returns the connected candidates in preference order. Candidates
// that compare equal keep their input order. results must be aligned with
// cs.
func Rank(cs []*candidate.Candidate, results []metrics.Result) ([]Ranked, error) {
	if len(cs) != len(results) {
		return nil, slamerr.Validationf("%d candidates but %d results", len(cs), len(results))
	}
	ranked := make([]Ranked, 0, len(cs))
	for i, c := range cs {
		if results[i].Connected {
			ranked = append(ranked, Ranked{Candidate: c, Result: results[i]})
		}
	}
	slices.SortStableFunc(ranked, Compare)
	return ranked, nil
}

// Best returns the preferred connected candidate. It returns
// slamerr.ErrNoAdmissibleCandidate when none is connected.
func Best(cs []*candidate.Candidate, results []metrics.Result) (Ranked, error) {
	ranked, err := Rank(cs, results)
	if err != nil {
		return Ranked{}, err
	}
	if len(ranked) == 0 {
		return Ranked{}, fmt.Errorf("%w: %d evaluated", slamerr.ErrNoAdmissibleCandidate, len(cs))
	}
	return ranked[0], nil
}
