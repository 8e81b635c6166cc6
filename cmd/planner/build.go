package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/saviobatista/jet-itinerary/internal/catalog"
	"github.com/saviobatista/jet-itinerary/internal/itinerary"
	"github.com/saviobatista/jet-itinerary/internal/timecalc"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build an itinerary offline from a catalog CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog", Usage: "location catalog CSV", Required: true},
			&cli.StringFlag{Name: "home", Usage: "asset home base code"},
			&cli.Float64Flag{Name: "speed", Value: types.DefaultCruiseSpeed, Usage: "cruise speed in knots"},
			&cli.IntFlag{Name: "turnaround", Value: types.DefaultTurnaroundMinutes, Usage: "turnaround in minutes"},
			&cli.StringFlag{Name: "kind", Value: string(types.AssetAirplane), Usage: "airplane or helicopter"},
			&cli.StringFlag{Name: "mode", Value: string(types.ModeTaken), Usage: "taken, pickup or multileg"},
			&cli.StringFlag{Name: "from", Usage: "origin or pickup code"},
			&cli.StringFlag{Name: "to", Usage: "destination code"},
			&cli.StringFlag{Name: "date", Usage: "requested date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "time", Usage: "requested time (HH:MM)"},
			&cli.StringSliceFlag{Name: "leg", Usage: "multileg leg as FROM/TO/YYYY-MM-DD/HH:MM, repeatable"},
			&cli.StringFlag{Name: "timezone", Value: "UTC", Usage: "zone requested times are given in"},
			&cli.BoolFlag{Name: "json", Usage: "print the itinerary as JSON"},
		},
		Action: func(c *cli.Context) error {
			zone, err := time.LoadLocation(c.String("timezone"))
			if err != nil {
				return fmt.Errorf("invalid timezone: %w", err)
			}

			cat, err := catalog.LoadCSVFile(c.String("catalog"))
			if err != nil {
				return err
			}

			profile := types.AssetProfile{
				ID:                "cli",
				Kind:              types.AssetKind(c.String("kind")),
				CruiseSpeed:       c.Float64("speed"),
				TurnaroundMinutes: c.Int("turnaround"),
				HomeBase:          c.String("home"),
			}

			intent, err := intentFromFlags(c)
			if err != nil {
				return err
			}

			builder := itinerary.NewBuilder(cat.ForAsset(profile.Kind), profile, zone)
			it, err := builder.Build(intent)
			if err != nil {
				return err
			}

			out := c.App.Writer
			if c.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(it)
			}
			return printItinerary(out, it)
		},
	}
}

func intentFromFlags(c *cli.Context) (types.TripIntent, error) {
	intent := types.TripIntent{
		Mode:        types.TripMode(c.String("mode")),
		Origin:      c.String("from"),
		Destination: c.String("to"),
		Date:        c.String("date"),
		Time:        c.String("time"),
	}

	for _, raw := range c.StringSlice("leg") {
		leg, err := parseLeg(raw)
		if err != nil {
			return intent, err
		}
		intent.Legs = append(intent.Legs, leg)
	}
	return intent, nil
}

func parseLeg(raw string) (types.LegRequest, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 4 {
		return types.LegRequest{}, fmt.Errorf("invalid leg %q: want FROM/TO/YYYY-MM-DD/HH:MM", raw)
	}
	return types.LegRequest{
		Departure: strings.TrimSpace(parts[0]),
		Arrival:   strings.TrimSpace(parts[1]),
		Date:      strings.TrimSpace(parts[2]),
		Time:      strings.TrimSpace(parts[3]),
	}, nil
}

// printItinerary renders the itinerary as an aligned table followed by totals
// and any validation findings
func printItinerary(w io.Writer, it *types.Itinerary) error {
	fmt.Fprintln(w, it.Title())
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tFROM\tTO\tDEPARTS\tARRIVES\tDIST\tTIME")
	for i, leg := range it.Legs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s %s\t%s\t%d nm\t%s\n",
			i+1,
			leg.Kind,
			codeOrBlank(leg.Departure),
			codeOrBlank(leg.Arrival),
			leg.DepartureTime.Format(timecalc.DateLayout),
			timecalc.FormatClock(leg.DepartureTime),
			timecalc.FormatClock(leg.ArrivalTime),
			leg.DistanceNM,
			timecalc.FormatDuration(leg.DurationMinutes),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d nm, %s\n", it.TotalDistance(), timecalc.FormatDuration(it.TotalMinutes()))

	report := itinerary.Validate(it)
	for _, issue := range report.Problems {
		fmt.Fprintf(w, "problem: %s\n", issue.Message)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", issue.Message)
	}
	return nil
}

func codeOrBlank(loc *types.Location) string {
	if code := loc.Code(); code != "" {
		return code
	}
	return "?"
}
