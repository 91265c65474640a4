package transform

import (
	"fmt"
	"math"
)

// Spherical holds angular coordinates in degrees and a distance in AU.
type Spherical struct {
	Lat  float64 // degrees, [-90, +90]
	Lon  float64 // degrees, [0, 360)
	Dist float64 // AU
}

// Equatorial holds right ascension and declination.
type Equatorial struct {
	RA   float64 // hours, [0, 24)
	Dec  float64 // degrees
	Dist float64 // AU
	Vec  Vector  // the Cartesian vector the angles came from
}

// Ecliptic holds ecliptic coordinates together with the ecliptic-frame vector.
type Ecliptic struct {
	Lon float64 // degrees, [0, 360)
	Lat float64 // degrees
	Vec Vector  // Cartesian vector in the ecliptic frame
}

// SphereFromVector converts a Cartesian vector to spherical coordinates.
// Longitude is atan2(y, x) shifted into [0, 360) by adding 360 when
// negative; latitude is asin(z/r).
func SphereFromVector(v Vector) (Spherical, error) {
	if err := v.Validate(); err != nil {
		return Spherical{}, err
	}
	r := v.Length()
	if r == 0 {
		return Spherical{}, fmt.Errorf("%w: cannot derive angles", ErrZeroVector)
	}
	lon := math.Atan2(v.Y, v.X) * rad2deg
	if lon < 0 {
		lon += 360
	}
	lat := math.Asin(math.Max(-1, math.Min(1, v.Z/r))) * rad2deg
	return Spherical{Lat: lat, Lon: lon, Dist: r}, nil
}

// VectorFromSphere converts spherical coordinates back to a Cartesian vector.
func VectorFromSphere(s Spherical, v Vector) Vector {
	lat := s.Lat * deg2rad
	lon := s.Lon * deg2rad
	return Vector{
		X: s.Dist * math.Cos(lat) * math.Cos(lon),
		Y: s.Dist * math.Cos(lat) * math.Sin(lon),
		Z: s.Dist * math.Sin(lat),
		T: v.T,
	}
}

// EquatorFromVector converts an equatorial Cartesian vector to RA/Dec.
func EquatorFromVector(v Vector) (Equatorial, error) {
	s, err := SphereFromVector(v)
	if err != nil {
		return Equatorial{}, err
	}
	ra := s.Lon / 15.0
	if ra >= 24 {
		ra -= 24
	}
	return Equatorial{RA: ra, Dec: s.Lat, Dist: s.Dist, Vec: v}, nil
}

// EclipticFromEQJ rotates an EQJ vector into the J2000 ecliptic and returns
// its longitude and latitude.
func EclipticFromEQJ(v Vector) (Ecliptic, error) {
	ecl, err := RotationEQJToECL().Rotate(v)
	if err != nil {
		return Ecliptic{}, err
	}
	s, err := SphereFromVector(ecl)
	if err != nil {
		return Ecliptic{}, err
	}
	return Ecliptic{Lon: s.Lon, Lat: s.Lat, Vec: ecl}, nil
}
