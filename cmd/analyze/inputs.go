package main

import (
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/hirase-art/inventory-risk/internal/ingest"
	"github.com/urfave/cli/v2"
)

type inputs struct {
	master  []forecast.Product
	series  forecast.ShipmentSeries
	stock   []forecast.StockPosition
	inbound []forecast.InboundPlan
	diag    forecast.Diagnostics
}

// readInputs decodes the four files. Dates in shipment and inbound files are
// read in the location of opts.Now.
func readInputs(c *cli.Context, opts forecast.Options) (*inputs, error) {
	var in inputs
	loc := opts.Now.Location()

	table, err := ingest.ReadFile(c.String("master"))
	if err != nil {
		return nil, err
	}
	if in.master, err = ingest.Products(table); err != nil {
		return nil, err
	}

	if table, err = ingest.ReadFile(c.String("shipments")); err != nil {
		return nil, err
	}
	rows, err := ingest.ShipmentRows(table, opts.PeriodKind, loc, &in.diag)
	if err != nil {
		return nil, err
	}
	if in.series, err = forecast.NewShipmentSeries(rows); err != nil {
		return nil, err
	}

	if table, err = ingest.ReadFile(c.String("stock")); err != nil {
		return nil, err
	}
	if in.stock, err = ingest.StockPositions(table, &in.diag); err != nil {
		return nil, err
	}

	if path := c.String("inbound"); path != "" {
		if table, err = ingest.ReadFile(path); err != nil {
			return nil, err
		}
		if in.inbound, err = ingest.InboundPlans(table, loc, &in.diag); err != nil {
			return nil, err
		}
	}

	return &in, nil
}
