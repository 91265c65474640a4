package engine

import (
	"fmt"

	"github.com/soniakeys/meeus/v3/moonnode"

	"github.com/star/starephem/internal/astrotime"
)

// NodeKind tells whether the Moon crosses the ecliptic northward or southward.
type NodeKind int

const (
	AscendingNode  NodeKind = 1
	DescendingNode NodeKind = -1
)

func (k NodeKind) String() string {
	switch k {
	case AscendingNode:
		return "ascending"
	case DescendingNode:
		return "descending"
	}
	return fmt.Sprintf("node(%d)", int(k))
}

// NodeEvent is a passage of the Moon through the ecliptic.
type NodeEvent struct {
	Kind NodeKind
	Time astrotime.Time
}

// SearchMoonNode finds the first lunar node passage at or after start.
func SearchMoonNode(start astrotime.Time) (NodeEvent, error) {
	if err := checkTime(start); err != nil {
		return NodeEvent{}, err
	}
	k := draconic.firstBefore(start)
	for i := 0; i < maxCycleScan; i++ {
		y := draconic.year(k + float64(i))
		if t := timeFromJDE(moonnode.Ascending(y)); !t.Before(start) {
			return NodeEvent{Kind: AscendingNode, Time: t}, nil
		}
		if t := timeFromJDE(moonnode.Descending(y)); !t.Before(start) {
			return NodeEvent{Kind: DescendingNode, Time: t}, nil
		}
	}
	return NodeEvent{}, fmt.Errorf("moon node after %s: %w", start, ErrNoConvergence)
}
