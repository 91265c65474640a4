package astrotime

// DeltaT returns TT−UT in seconds for ut days since J2000, using the
// Espenak & Meeus polynomial fits. Outside 1800–2150 the long-term parabola
// is used.
func DeltaT(ut float64) float64 {
	y := 2000.0 + (ut-14.0)/365.2425

	switch {
	case y < 1800 || y >= 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u
	case y < 1860:
		u := y - 1800
		return 13.72 - 0.332447*u + 0.0068612*u*u + 0.0041116*u*u*u -
			0.00037436*u*u*u*u + 0.0000121272*u*u*u*u*u -
			0.0000001699*u*u*u*u*u*u + 0.000000000875*u*u*u*u*u*u*u
	case y < 1900:
		u := y - 1860
		return 7.62 + 0.5737*u - 0.251754*u*u + 0.01680668*u*u*u -
			0.0004473624*u*u*u*u + u*u*u*u*u/233174
	case y < 1920:
		u := y - 1900
		return -2.79 + 1.494119*u - 0.0598939*u*u + 0.0061966*u*u*u - 0.000197*u*u*u*u
	case y < 1941:
		u := y - 1920
		return 21.20 + 0.84493*u - 0.076100*u*u + 0.0020936*u*u*u
	case y < 1961:
		u := y - 1950
		return 29.07 + 0.407*u - u*u/233 + u*u*u/2547
	case y < 1986:
		u := y - 1975
		return 45.45 + 1.067*u - u*u/260 - u*u*u/718
	case y < 2005:
		u := y - 2000
		return 63.86 + 0.3345*u - 0.060374*u*u + 0.0017275*u*u*u +
			0.000651814*u*u*u*u + 0.00002373599*u*u*u*u*u
	case y < 2050:
		u := y - 2000
		return 62.92 + 0.32217*u + 0.005589*u*u
	default:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	}
}
