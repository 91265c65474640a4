package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/ephem"
	"github.com/star/starephem/internal/transform"
)

func newPlutoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pluto",
		Short: "Print Pluto's heliocentric and geocentric position",
		RunE:  runPluto,
	}
	cmd.Flags().String("at", "", "time (RFC 3339 or YYYY-MM-DD, default now)")
	return cmd
}

func runPluto(cmd *cobra.Command, _ []string) error {
	log, err := logger(cmd)
	if err != nil {
		return err
	}
	s, _ := cmd.Flags().GetString("at")
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	at := astrotime.FromTime(t)
	eph := ephem.NewPluto(ephem.WithLogger(log))

	helio, err := eph.HeliocentricPosition(at)
	if err != nil {
		return err
	}
	geo, err := eph.GeocentricState(at)
	if err != nil {
		return err
	}
	eq, err := transform.EquatorFromVector(geo.Position())
	if err != nil {
		return err
	}
	ecl, err := transform.EclipticFromEQJ(geo.Position())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"t":               t.UTC().Format(time.RFC3339),
			"tt":              at.TT,
			"heliocentric_au": [3]float64{helio.X, helio.Y, helio.Z},
			"geocentric_au":   [3]float64{geo.X, geo.Y, geo.Z},
			"velocity_au_day": [3]float64{geo.VX, geo.VY, geo.VZ},
			"ra_hours":        eq.RA,
			"dec_deg":         eq.Dec,
			"dist_au":         eq.Dist,
			"ecl_lon_deg":     ecl.Lon,
			"ecl_lat_deg":     ecl.Lat,
		})
	}

	printf(out, "Pluto at %s (TT %+.5f)\n", t.UTC().Format(time.RFC3339), at.TT)
	printf(out, "  heliocentric EQJ  %12.6f %12.6f %12.6f AU (r=%.6f)\n", helio.X, helio.Y, helio.Z, helio.Length())
	printf(out, "  geocentric EQJ    %12.6f %12.6f %12.6f AU\n", geo.X, geo.Y, geo.Z)
	printf(out, "  geocentric vel    %12.9f %12.9f %12.9f AU/day\n", geo.VX, geo.VY, geo.VZ)
	printf(out, "  RA %.6f h  Dec %+.6f°  dist %.6f AU\n", eq.RA, eq.Dec, eq.Dist)
	printf(out, "  ecliptic lon %.6f°  lat %+.6f°\n", ecl.Lon, ecl.Lat)
	return nil
}
