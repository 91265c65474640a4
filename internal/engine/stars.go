package engine

import (
	"fmt"
	"math"
)

type starSlot struct {
	defined bool
	ra      float64 // hours
	dec     float64 // degrees
	dist    float64 // AU
}

// starSlots is engine-global state shared by every caller in the process.
// Access is not synchronized: a configure-then-query pair must be
// serialized by the caller.
var starSlots [Star8 - Star1 + 1]starSlot

// DefineStar assigns J2000 equatorial coordinates to a star slot. distLy
// must be at least one light year so the star stays outside the solar system.
func DefineStar(body Body, raHours, decDeg, distLy float64) error {
	if !body.IsStar() {
		return fmt.Errorf("%w: %s is not a star slot", ErrInvalidBody, body)
	}
	if !(raHours >= 0 && raHours < 24) || !(decDeg >= -90 && decDeg <= 90) || !(distLy >= 1) {
		return fmt.Errorf("%w: ra=%g dec=%g dist=%g", ErrInvalidParameter, raHours, decDeg, distLy)
	}
	starSlots[body-Star1] = starSlot{
		defined: true,
		ra:      raHours,
		dec:     decDeg,
		dist:    distLy * AULightYear,
	}
	return nil
}

func starVector(body Body) ([3]float64, error) {
	slot := starSlots[body-Star1]
	if !slot.defined {
		return [3]float64{}, fmt.Errorf("%w: %s", ErrStarUndefined, body)
	}
	sa, ca := math.Sincos(slot.ra * 15 * deg2rad)
	sd, cd := math.Sincos(slot.dec * deg2rad)
	return [3]float64{slot.dist * cd * ca, slot.dist * cd * sa, slot.dist * sd}, nil
}
