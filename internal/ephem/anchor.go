package ephem

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/transform"
)

// ShortCircuitDays is the distance from an anchor, in TT days, inside which
// the anchor's stored state is returned without propagation.
const ShortCircuitDays = 1.0

// Anchor is a precomputed heliocentric EQJ state (AU, AU/day) used as an
// integration starting point.
type Anchor struct {
	Time  astrotime.Time
	State transform.StateVector
}

// AnchorTable is an immutable, strictly time-ordered set of anchors.
type AnchorTable struct {
	anchors []Anchor
}

// NewAnchorTable copies anchors into a table. It fails on an empty list or
// on times that are not strictly increasing.
func NewAnchorTable(anchors []Anchor) (*AnchorTable, error) {
	if len(anchors) == 0 {
		return nil, errors.New("anchor table: no anchors")
	}
	for i, a := range anchors {
		if err := a.State.Validate(); err != nil {
			return nil, fmt.Errorf("anchor table: anchor %d: %w", i, err)
		}
		if i > 0 && !(a.Time.TT > anchors[i-1].Time.TT) {
			return nil, fmt.Errorf("anchor table: anchor %d at TT %g does not follow TT %g",
				i, a.Time.TT, anchors[i-1].Time.TT)
		}
	}
	return &AnchorTable{anchors: append([]Anchor(nil), anchors...)}, nil
}

// Nearest returns the anchor closest in time to t. At an exact midpoint
// between two anchors the earlier one wins.
func (tb *AnchorTable) Nearest(t astrotime.Time) Anchor {
	best := tb.anchors[0]
	bestDist := math.Abs(best.Time.TT - t.TT)
	for _, a := range tb.anchors[1:] {
		// Strict comparison keeps the first anchor on ties.
		if d := math.Abs(a.Time.TT - t.TT); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}

// Anchors returns a copy of the table's anchors in time order.
func (tb *AnchorTable) Anchors() []Anchor {
	return append([]Anchor(nil), tb.anchors...)
}

// Span returns the times of the first and last anchors.
func (tb *AnchorTable) Span() (first, last astrotime.Time) {
	return tb.anchors[0].Time, tb.anchors[len(tb.anchors)-1].Time
}

// Len returns the number of anchors.
func (tb *AnchorTable) Len() int { return len(tb.anchors) }

func anchorAt(tt float64, x, y, z, vx, vy, vz float64) Anchor {
	t := astrotime.FromTT(tt)
	return Anchor{
		Time:  t,
		State: transform.StateVector{X: x, Y: y, Z: z, VX: vx, VY: vy, VZ: vz, T: t},
	}
}

// PlutoAnchors holds Pluto's heliocentric EQJ state every 50 years from
// 1900 to 2100 (TT). The J2000 state comes from the JPL approximate
// Keplerian elements; the others were integrated from it with the engine's
// gravity model (Sun plus the four giant planets).
var PlutoAnchors = mustAnchorTable([]Anchor{
	anchorAt(-36525,
		9.988147366317e+00, 4.486828880874e+01, 1.098992215784e+01,
		-2.154550265700e-03, -7.813109287371e-05, 6.258523271212e-04),
	anchorAt(-18262,
		-2.662082410847e+01, 2.031838833487e+01, 1.435261764120e+01,
		-1.273387997594e-03, -2.637904531083e-03, -4.379904862992e-04),
	anchorAt(0,
		-9.883030192253e+00, -2.798355248590e+01, -5.754950846493e+00,
		3.031830346608e-03, -1.133456457541e-03, -1.267127506177e-03),
	anchorAt(18262,
		3.756380137619e+01, -1.041566128363e+01, -1.455898726641e+01,
		1.411559659817e-03, 2.167841595197e-03, 2.497796140304e-04),
	anchorAt(36525,
		4.031392821290e+01, 2.820238637967e+01, -3.337837569133e+00,
		-9.398543020465e-04, 1.721616521477e-03, 8.197616445881e-04),
})

func mustAnchorTable(anchors []Anchor) *AnchorTable {
	tb, err := NewAnchorTable(anchors)
	if err != nil {
		panic(err)
	}
	return tb
}
