package graph

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// BasicEvent is an atomic failure with a nominal probability and an
// optional uncertainty distribution. Dist == nil means a point value.
type BasicEvent struct {
	ID   string
	Prob float64
	Dist Distribution
}

// Reset re-seeds per-trial distribution state. Point events are no-ops.
func (e *BasicEvent) Reset() {
	if e.Dist != nil {
		e.Dist.Reset()
	}
}

// Sample draws one probability from the event's distribution. The
// caller clamps the result into [0,1]; non-finite draws are surfaced
// as ErrDistributionDomain before any clamp.
func (e *BasicEvent) Sample(src rand.Source) (float64, error) {
	if e.Dist == nil {
		return e.Prob, nil
	}
	x := e.Dist.Sample(src)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: event %s sampled %v", ErrDistributionDomain, e.ID, x)
	}
	return x, nil
}
