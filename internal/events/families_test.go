package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
)

func date(y int, m time.Month, d int) astrotime.Time {
	return astrotime.FromTime(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestMoonQuartersYear(t *testing.T) {
	c := NewCursor(MoonQuarters(), WithLogger(testLogger()))
	evs, err := c.Enumerate(date(2024, 1, 1), date(2025, 1, 1))
	require.NoError(t, err)

	// 2024 has 13 new moons (Jan 11 … Dec 30) and 49 or 50 quarters in all.
	assert.GreaterOrEqual(t, len(evs), 49)
	assert.LessOrEqual(t, len(evs), 50)
	assert.Equal(t, 3, evs[0].Quarter, "2024 opens with the Jan 4 third quarter")
	assert.NoError(t, c.CheckSequence(evs))

	var newMoons int
	for _, q := range evs {
		if q.Quarter == 0 {
			newMoons++
		}
	}
	assert.Equal(t, 13, newMoons)
}

func TestMoonNodesAndApsidesAlternate(t *testing.T) {
	from, to := date(2030, 1, 1), date(2031, 1, 1)

	nodes := NewCursor(MoonNodes(), WithLogger(testLogger()))
	nevs, err := nodes.Enumerate(from, to)
	require.NoError(t, err)
	assert.InDelta(t, 26.8, float64(len(nevs)), 1.5)
	assert.NoError(t, nodes.CheckSequence(nevs))

	apsides := NewCursor(LunarApsides(), WithLogger(testLogger()))
	aevs, err := apsides.Enumerate(from, to)
	require.NoError(t, err)
	assert.InDelta(t, 26.5, float64(len(aevs)), 1.5)
	assert.NoError(t, apsides.CheckSequence(aevs))
}

func TestLunarEclipses(t *testing.T) {
	c := NewCursor(LunarEclipses(), WithLogger(testLogger()))
	evs, err := c.Enumerate(date(2019, 1, 1), date(2021, 1, 1))
	require.NoError(t, err)

	want := []engine.EclipseKind{
		engine.Total,     // 2019-01-21
		engine.Partial,   // 2019-07-16
		engine.Penumbral, // 2020-01-10
		engine.Penumbral, // 2020-06-05
		engine.Penumbral, // 2020-07-05
		engine.Penumbral, // 2020-11-30
	}
	require.Len(t, evs, len(want))
	for i, e := range evs {
		assert.Equal(t, want[i], e.Kind, "eclipse %d at %s", i, e.Peak)
	}
}

func TestMercuryTransits(t *testing.T) {
	f, err := Transits(engine.Mercury)
	require.NoError(t, err)
	c := NewCursor(f, WithLogger(testLogger()))

	evs, err := c.Enumerate(date(2000, 1, 1), date(2020, 1, 1))
	require.NoError(t, err)

	wantDays := []string{"2003-05-07", "2006-11-08", "2016-05-09", "2019-11-11"}
	require.Len(t, evs, len(wantDays))
	for i, tr := range evs {
		assert.Equal(t, wantDays[i], tr.Peak.ToTime().Format("2006-01-02"))
	}

	// Chaining from the first result reproduces the rest.
	cur := evs[0]
	for _, want := range evs[1:] {
		cur, err = c.NextAfter(cur)
		require.NoError(t, err)
		assert.Equal(t, want.Peak, cur.Peak)
	}
}

func TestTransitUnderWay(t *testing.T) {
	f, err := Transits(engine.Mercury)
	require.NoError(t, err)
	c := NewCursor(f, WithLogger(testLogger()))

	// Ingress was at 12:35; mid-transit at 15:20 is inside the range.
	from := astrotime.FromTime(time.Date(2019, 11, 11, 14, 0, 0, 0, time.UTC))
	evs, err := c.Enumerate(from, date(2020, 1, 1))
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Start.Before(from))
	assert.Equal(t, "2019-11-11", evs[0].Peak.ToTime().Format("2006-01-02"))
}

func TestTransitsInvalidBody(t *testing.T) {
	_, err := Transits(engine.Mars)
	assert.ErrorIs(t, err, engine.ErrInvalidBody)
}

func TestEnumerateRecords(t *testing.T) {
	recs, err := EnumerateRecords("quarters", engine.Sun, date(2024, 1, 1), date(2024, 2, 1), WithLogger(testLogger()))
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "quarters", recs[0].Family)
	assert.Equal(t, "third_quarter", recs[0].Kind)

	recs, err = EnumerateRecords("transits", engine.Venus, date(2004, 1, 1), date(2013, 1, 1), WithLogger(testLogger()))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "venus", recs[0].Kind)
	require.NotNil(t, recs[1].Start)
	assert.True(t, recs[1].Start.Before(recs[1].Time))

	_, err = EnumerateRecords("comets", engine.Sun, date(2024, 1, 1), date(2024, 2, 1))
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
