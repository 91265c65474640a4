// Package astrotime represents instants as days since the J2000.0 epoch on
// two time scales: Universal Time (for Earth rotation) and Terrestrial Time
// (for orbital motion). Conversions from time.Time assume UT1 ≈ UTC.
package astrotime

import (
	"math"
	"time"
)

// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const J2000 = 2451545.0

// SecondsPerDay is the length of a day in SI seconds (no leap seconds).
const SecondsPerDay = 86400.0

// DaysPerCentury is the length of a Julian century in days.
const DaysPerCentury = 36525.0

// Time is an instant expressed as days since J2000.0 in both UT and TT.
// The zero value is 2000-01-01 12:00 UT.
type Time struct {
	UT float64 // days since J2000.0, Universal Time
	TT float64 // days since J2000.0, Terrestrial Time
}

// FromTime converts a Go time to an astronomical Time.
func FromTime(t time.Time) Time {
	ut := JulianDate(t) - J2000
	return FromUT(ut)
}

// FromUT builds a Time from UT days since J2000, deriving TT via ΔT.
func FromUT(ut float64) Time {
	return Time{UT: ut, TT: ut + DeltaT(ut)/SecondsPerDay}
}

// FromTT builds a Time from TT days since J2000. UT is solved from TT by
// fixed-point iteration on ΔT, which converges in a few rounds because ΔT
// changes by well under a second per day.
func FromTT(tt float64) Time {
	ut := tt
	for i := 0; i < 4; i++ {
		ut = tt - DeltaT(ut)/SecondsPerDay
	}
	return Time{UT: ut, TT: tt}
}

// AddDays returns t shifted by days on both scales.
func (t Time) AddDays(days float64) Time {
	return FromUT(t.UT + days)
}

// AddTTDays returns t shifted by days of Terrestrial Time.
func (t Time) AddTTDays(days float64) Time {
	return FromTT(t.TT + days)
}

// Sub returns t−u in TT days.
func (t Time) Sub(u Time) float64 {
	return t.TT - u.TT
}

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool {
	return t.TT < u.TT
}

// After reports whether t is strictly later than u.
func (t Time) After(u Time) bool {
	return t.TT > u.TT
}

// JD returns the Julian Date (UT).
func (t Time) JD() float64 {
	return t.UT + J2000
}

// JDE returns the Julian Ephemeris Day (TT).
func (t Time) JDE() float64 {
	return t.TT + J2000
}

// Centuries returns Julian centuries of TT since J2000.0.
func (t Time) Centuries() float64 {
	return t.TT / DaysPerCentury
}

// Year returns the decimal Julian year of t (TT).
func (t Time) Year() float64 {
	return 2000.0 + t.TT/365.25
}

// ToTime converts t back to a UTC time.Time, rounded to the microsecond.
func (t Time) ToTime() time.Time {
	const unixEpochJD = 2440587.5
	sec := (t.JD() - unixEpochJD) * SecondsPerDay
	whole := math.Floor(sec)
	nsec := math.Round((sec-whole)*1e6) * 1e3
	return time.Unix(int64(whole), int64(nsec)).UTC()
}

// String formats t as an RFC 3339 UTC timestamp.
func (t Time) String() string {
	return t.ToTime().Format(time.RFC3339Nano)
}

// JulianDate converts a time.Time (UTC) to Julian Date.
// Uses the standard astronomical algorithm valid for dates after March 1, 4801 BC.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// Treat Jan/Feb as months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	jd += (h + min/60.0 + s/3600.0) / 24.0

	return jd
}
