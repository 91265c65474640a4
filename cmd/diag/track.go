package main

import (
	"encoding/json"
	"errors"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/ephem"
)

func newTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Print Pluto's geocentric track at a fixed step",
		RunE:  runTrack,
	}
	cmd.Flags().String("from", "", "first sample (RFC 3339 or YYYY-MM-DD, default now)")
	cmd.Flags().Duration("step", 24*time.Hour, "interval between samples")
	cmd.Flags().Int("count", 10, "number of samples")
	cmd.Flags().Int("workers", runtime.NumCPU(), "parallel propagation workers")
	return cmd
}

func runTrack(cmd *cobra.Command, _ []string) error {
	log, err := logger(cmd)
	if err != nil {
		return err
	}
	fromStr, _ := cmd.Flags().GetString("from")
	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	step, _ := cmd.Flags().GetDuration("step")
	count, _ := cmd.Flags().GetInt("count")
	workers, _ := cmd.Flags().GetInt("workers")
	if count < 1 || step <= 0 {
		return errors.New("count and step must be positive")
	}

	times := make([]astrotime.Time, count)
	for i := range times {
		times[i] = astrotime.FromTime(from.Add(time.Duration(i) * step))
	}

	eph := ephem.NewPluto(ephem.WithLogger(log))
	points, err := eph.Track(cmd.Context(), times, workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		type row struct {
			T   string  `json:"t"`
			RA  float64 `json:"ra_hours"`
			Dec float64 `json:"dec_deg"`
			Lon float64 `json:"ecl_lon_deg"`
			Lat float64 `json:"ecl_lat_deg"`
		}
		rows := make([]row, len(points))
		for i, p := range points {
			rows[i] = row{
				T:   p.Time.ToTime().Round(time.Second).Format(time.RFC3339),
				RA:  p.Equatorial.RA,
				Dec: p.Equatorial.Dec,
				Lon: p.Ecliptic.Lon,
				Lat: p.Ecliptic.Lat,
			}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	printf(out, "%-20s  %10s  %10s  %10s  %10s  %9s\n", "time", "RA (h)", "Dec (°)", "lon (°)", "lat (°)", "dist (AU)")
	for _, p := range points {
		printf(out, "%-20s  %10.5f  %+10.5f  %10.5f  %+10.5f  %9.5f\n",
			p.Time.ToTime().Round(time.Second).Format(time.RFC3339),
			p.Equatorial.RA, p.Equatorial.Dec, p.Ecliptic.Lon, p.Ecliptic.Lat, p.Equatorial.Dist)
	}
	return nil
}
