package engine

import (
	"math"

	"github.com/star/starephem/internal/astrotime"
)

// The meeus lunar series are indexed by an integer cycle number k derived
// from a decimal year. lunarCycle maps between k, the year that selects it
// and the mean time of the cycle's first event.
type lunarCycle struct {
	period   float64 // mean length in days
	epochJDE float64 // mean time of cycle k=0
	baseYear float64
	perYear  float64 // cycles per year
}

var (
	synodic     = lunarCycle{period: 29.530588861, epochJDE: 2451550.09766, baseYear: 2000, perYear: 12.3685}
	draconic    = lunarCycle{period: 27.212220817, epochJDE: 2451565.1619, baseYear: 2000.05, perYear: 13.4223}
	anomalistic = lunarCycle{period: 27.55454989, epochJDE: 2451534.6698, baseYear: 1999.97, perYear: 13.2555}
)

// year returns a decimal year that selects cycle k whether the series
// truncates or rounds its cycle number.
func (c lunarCycle) year(k float64) float64 {
	return c.baseYear + (k+0.25)/c.perYear
}

// firstBefore returns a cycle number whose events all precede t.
func (c lunarCycle) firstBefore(t astrotime.Time) float64 {
	return math.Floor((t.JDE()-c.epochJDE)/c.period) - 1
}

// timeFromJDE converts a meeus result (JDE) to a Time.
func timeFromJDE(jde float64) astrotime.Time {
	return astrotime.FromTT(jde - astrotime.J2000)
}

// maxCycleScan bounds the lunation scan of quarter, node and apsis searches.
const maxCycleScan = 6
