package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/starephem/internal/astrotime"
	"github.com/star/starephem/internal/engine"
	"github.com/star/starephem/internal/events"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "events <family>",
		Short:     "List periodic events in a time range",
		Long:      "Lists events of one family (" + strings.Join(events.FamilyNames, ", ") + ") whose time falls in [from, to).",
		Args:      cobra.ExactArgs(1),
		ValidArgs: events.FamilyNames,
		RunE:      runEvents,
	}
	cmd.Flags().String("from", "", "range start (RFC 3339 or YYYY-MM-DD, default now)")
	cmd.Flags().String("to", "", "range end (default one year after --from)")
	cmd.Flags().String("body", "mercury", "transiting planet for the transits family (mercury or venus)")
	cmd.Flags().Int("max", events.DefaultMaxEvents, "maximum events to enumerate")
	return cmd
}

func runEvents(cmd *cobra.Command, args []string) error {
	log, err := logger(cmd)
	if err != nil {
		return err
	}
	fromStr, _ := cmd.Flags().GetString("from")
	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to := from.AddDate(1, 0, 0)
	if s, _ := cmd.Flags().GetString("to"); s != "" {
		if to, err = parseTime(s); err != nil {
			return err
		}
	}
	bodyName, _ := cmd.Flags().GetString("body")
	body, err := engine.ParseBody(strings.ToLower(bodyName))
	if err != nil {
		return err
	}
	maxEvents, _ := cmd.Flags().GetInt("max")

	records, err := events.EnumerateRecords(args[0], body,
		astrotime.FromTime(from), astrotime.FromTime(to),
		events.WithMaxEvents(maxEvents), events.WithLogger(log))
	if err != nil {
		return fmt.Errorf("events %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	for _, r := range records {
		printf(out, "%s  %-14s", r.Time.Format(time.RFC3339), r.Kind)
		if r.Start != nil && r.Finish != nil {
			printf(out, "  %s → %s", r.Start.Format("15:04:05"), r.Finish.Format("15:04:05"))
		}
		keys := make([]string, 0, len(r.Values))
		for k := range r.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			printf(out, "  %s=%.4g", k, r.Values[k])
		}
		printf(out, "\n")
	}
	printf(out, "%d %s\n", len(records), args[0])
	return nil
}
