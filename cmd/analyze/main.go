package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/hirase-art/inventory-risk/internal/ingest"
	"github.com/hirase-art/inventory-risk/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func main() {
	logger.SetOutput(os.Stderr, true)
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("analyze failed")
	}
}

// newApp builds the command. The decision table goes to stdout; logs go to
// stderr so the output stays machine readable.
func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "analyze",
		Usage:     "Classify stockout risk from local master, shipment, stock and inbound files",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "master", Usage: "Product master file", Required: true},
			&cli.StringFlag{Name: "shipments", Usage: "Shipment file (aggregated periods or raw lines)", Required: true},
			&cli.StringFlag{Name: "stock", Usage: "Stock file (wide or long form)", Required: true},
			&cli.StringFlag{Name: "inbound", Usage: "Inbound plan or purchase order file"},
			&cli.IntFlag{Name: "window", Usage: "Number of recent periods averaged", Value: 12, EnvVars: []string{"ANALYSIS_WINDOW_SIZE"}},
			&cli.StringFlag{Name: "period", Usage: "monthly or weekly", Value: "monthly", EnvVars: []string{"ANALYSIS_PERIOD_KIND"}},
			&cli.StringFlag{Name: "format", Usage: "Output format: csv or json", Value: "csv"},
			&cli.StringFlag{Name: "now", Usage: "Reference date (YYYY-MM-DD); defaults to today"},
			&cli.StringFlag{Name: "timezone", Value: "Asia/Tokyo", EnvVars: []string{"ANALYSIS_TIMEZONE"}},
			&cli.BoolFlag{Name: "eager-rounding", Usage: "Round the rate to one decimal before coverage math"},
			&cli.Float64Flag{Name: "safe", Usage: "Safe coverage threshold in periods", Value: 1.0},
			&cli.Float64Flag{Name: "overstock", Usage: "Overstock coverage threshold in periods; 0 disables", Value: 3.0},
			&cli.StringFlag{Name: "category", Usage: "Only print products of this risk category"},
			&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			logger.SetOutput(stderr, true)
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Action: func(c *cli.Context) error {
			return run(c, stdout)
		},
	}
}

func run(c *cli.Context, stdout io.Writer) error {
	opts, err := optionsFrom(c)
	if err != nil {
		return err
	}

	format := c.String("format")
	if format != "csv" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	var category forecast.Category
	if raw := c.String("category"); raw != "" {
		var ok bool
		if category, ok = parseCategory(raw); !ok {
			return fmt.Errorf("unknown category %q", raw)
		}
	}

	in, err := readInputs(c, opts)
	if err != nil {
		return err
	}

	assessments, err := forecast.Analyze(in.series, in.stock, in.inbound, in.master, opts)
	if err != nil {
		return err
	}

	event := logger.Log.Info()
	if in.diag.CoercionFallbacks > 0 {
		event = logger.Log.Warn().Interface("fallbacks", in.diag.ByColumn)
	}
	event.
		Int("products", len(in.master)).
		Int("shipping_products", in.series.Products()).
		Int("periods", len(in.series.Periods())).
		Int("assessed", len(assessments)).
		Interface("summary", forecast.Summarize(assessments)).
		Msg("analysis complete")

	assessments = filterCategory(assessments, category)
	if format == "json" {
		return writeJSON(stdout, assessments)
	}
	return writeCSV(stdout, assessments)
}

func optionsFrom(c *cli.Context) (forecast.Options, error) {
	kind, ok := forecast.ParsePeriodKind(c.String("period"))
	if !ok {
		return forecast.Options{}, fmt.Errorf("unknown period kind %q", c.String("period"))
	}

	loc, err := time.LoadLocation(c.String("timezone"))
	if err != nil {
		return forecast.Options{}, fmt.Errorf("invalid timezone %q: %w", c.String("timezone"), err)
	}

	now, err := parseNow(c.String("now"), loc, time.Now())
	if err != nil {
		return forecast.Options{}, err
	}

	rounding := forecast.RoundLazy
	if c.Bool("eager-rounding") {
		rounding = forecast.RoundEager
	}

	return forecast.Options{
		WindowSize: c.Int("window"),
		PeriodKind: kind,
		Thresholds: forecast.Thresholds{
			Safe:      decimal.NewFromFloat(c.Float64("safe")),
			Overstock: decimal.NewFromFloat(c.Float64("overstock")),
		},
		Rounding: rounding,
		Now:      now,
	}, nil
}

func parseNow(raw string, loc *time.Location, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback.In(loc), nil
	}
	t, ok := ingest.ParseDate(raw, loc)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --now %q", raw)
	}
	return t, nil
}

func parseCategory(raw string) (forecast.Category, bool) {
	for _, cat := range forecast.Categories {
		if string(cat) == raw {
			return cat, true
		}
	}
	return "", false
}

func filterCategory(assessments []forecast.RiskAssessment, category forecast.Category) []forecast.RiskAssessment {
	if category == "" {
		return assessments
	}
	out := make([]forecast.RiskAssessment, 0, len(assessments))
	for _, a := range assessments {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}
