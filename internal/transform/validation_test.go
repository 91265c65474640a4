package transform

import (
	"errors"
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/starephem/internal/astrotime"
)

// TestGMST validates our GMST calculation against the go-satellite library's
// GSTimeFromDate function, which uses the same IAU-82 model.
func TestGMST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC), // integer seconds for library compat
		},
		{
			name: "recent date 2026",
			time: time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			our := GMST(tt.time)
			// go-satellite's GSTimeFromDate returns GMST in radians.
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			diff := math.Abs(our - ref)
			// 1e-8 radians ≈ 0.06 arcsec.
			if diff > 1e-8 {
				t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tt.time, our, ref, diff)
			}
		})
	}
}

// TestSiderealTime checks that apparent sidereal time stays within the
// equation of the equinoxes (about ±1.2 s) of mean sidereal time.
func TestSiderealTime(t *testing.T) {
	for _, tm := range []time.Time{
		time.Date(1987, 4, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 1, 18, 30, 0, 0, time.UTC),
	} {
		gast := SiderealTime(astrotime.FromTime(tm))
		gmst := GMST(tm) * 12 / math.Pi
		diffSec := math.Abs(gast-gmst) * 3600
		if diffSec > 1.5 {
			t.Errorf("%v: |GAST-GMST| = %.3f s, want < 1.5 s", tm, diffSec)
		}
	}

	// Meeus example 12.a: 1987 April 10, 0h UT, GMST = 13h10m46.3668s.
	tm := time.Date(1987, 4, 10, 0, 0, 0, 0, time.UTC)
	want := 13 + 10.0/60 + 46.3668/3600
	if got := GMST(tm) * 12 / math.Pi; math.Abs(got-want)*3600 > 0.01 {
		t.Errorf("GMST(1987-04-10) = %.6f h, want %.6f h", got, want)
	}
}

func TestRotationRoundTrip(t *testing.T) {
	v := Vector{X: 0.3, Y: -1.2, Z: 4.5}

	ecl, err := RotationEQJToECL().Rotate(v)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	back, err := RotationECLToEQJ().Rotate(ecl)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if math.Abs(back.X-v.X) > 1e-14 || math.Abs(back.Y-v.Y) > 1e-14 || math.Abs(back.Z-v.Z) > 1e-14 {
		t.Errorf("round trip = %+v, want %+v", back, v)
	}
	if math.Abs(ecl.Length()-v.Length()) > 1e-14 {
		t.Errorf("rotation changed length: %.15f vs %.15f", ecl.Length(), v.Length())
	}
}

func TestEclipticPole(t *testing.T) {
	// The ecliptic north pole in EQJ is at RA 18h, Dec 90°−ε.
	eps := ObliquityJ2000 * deg2rad
	pole := Vector{X: 0, Y: -math.Sin(eps), Z: math.Cos(eps)}

	ecl, err := EclipticFromEQJ(pole)
	if err != nil {
		t.Fatalf("EclipticFromEQJ: %v", err)
	}
	if math.Abs(ecl.Lat-90) > 1e-9 {
		t.Errorf("ecliptic pole latitude = %.12f, want 90", ecl.Lat)
	}

	eq, err := EquatorFromVector(pole)
	if err != nil {
		t.Fatalf("EquatorFromVector: %v", err)
	}
	if math.Abs(eq.RA-18) > 1e-9 || math.Abs(eq.Dec-(90-ObliquityJ2000)) > 1e-9 {
		t.Errorf("pole RA/Dec = %.9f h / %.9f deg", eq.RA, eq.Dec)
	}
}

func TestSphereFromVector(t *testing.T) {
	tests := []struct {
		name     string
		v        Vector
		lon, lat float64
	}{
		{"+x", Vector{X: 2}, 0, 0},
		{"+y", Vector{Y: 1}, 90, 0},
		{"-y wraps to 270", Vector{Y: -1}, 270, 0},
		{"-x", Vector{X: -1}, 180, 0},
		{"+z", Vector{Z: 3}, 0, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SphereFromVector(tt.v)
			if err != nil {
				t.Fatalf("SphereFromVector: %v", err)
			}
			if math.Abs(s.Lon-tt.lon) > 1e-12 || math.Abs(s.Lat-tt.lat) > 1e-12 {
				t.Errorf("got lon=%.12f lat=%.12f, want lon=%.1f lat=%.1f", s.Lon, s.Lat, tt.lon, tt.lat)
			}
			if s.Lon < 0 || s.Lon >= 360 {
				t.Errorf("longitude %.12f outside [0, 360)", s.Lon)
			}
		})
	}

	if _, err := SphereFromVector(Vector{}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("zero vector: err = %v, want ErrZeroVector", err)
	}
	if _, err := SphereFromVector(Vector{X: math.NaN()}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("NaN vector: err = %v, want ErrNonFinite", err)
	}
}

func TestRotationEQJToEQD(t *testing.T) {
	// At J2000 only nutation separates the frames (under 20 arcsec).
	m := RotationEQJToEQD(astrotime.FromTT(0))
	v := Vector{X: 1}
	out, err := m.Rotate(v)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	ang, err := AngleBetween(v, out)
	if err != nil {
		t.Fatalf("AngleBetween: %v", err)
	}
	if ang*3600 > 20 {
		t.Errorf("J2000 EQJ->EQD moved the equinox by %.2f arcsec", ang*3600)
	}

	// A century of precession moves the equinox by roughly 1.4 degrees.
	m = RotationEQJToEQD(astrotime.FromTT(astrotime.DaysPerCentury))
	out, err = m.Rotate(v)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	ang, _ = AngleBetween(v, out)
	if ang < 1.2 || ang > 1.5 {
		t.Errorf("century precession angle = %.4f deg, want ~1.4", ang)
	}

	// The matrix must stay orthonormal.
	p := Combine(m, m.Inverse())
	id := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(p[i][j]-id[i][j]) > 1e-12 {
				t.Fatalf("M·Mᵀ[%d][%d] = %.3e, want %v", i, j, p[i][j], id[i][j])
			}
		}
	}
}

func TestRotateRejectsNonFinite(t *testing.T) {
	_, err := Identity().Rotate(Vector{X: math.Inf(1)})
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("err = %v, want ErrNonFinite", err)
	}
}
