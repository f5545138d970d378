package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/hirase-art/inventory-risk/internal/forecast"
)

var csvHeader = []string{
	"product_id",
	"product_name",
	"major_category",
	"stock_total",
	"pending_inbound",
	"arrival_date",
	"rate",
	"current_coverage",
	"projected_coverage",
	"days_until_stockout",
	"days_until_arrival",
	"category",
	"trend",
}

func writeCSV(w io.Writer, assessments []forecast.RiskAssessment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range assessments {
		if err := cw.Write(csvRecord(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(a forecast.RiskAssessment) []string {
	arrival := ""
	if a.ArrivalDate != nil {
		arrival = a.ArrivalDate.Format("2006-01-02")
	}
	daysUntilArrival := ""
	if a.DaysUntilArrival != nil {
		daysUntilArrival = strconv.FormatInt(*a.DaysUntilArrival, 10)
	}

	trend := make([]string, len(a.Trend))
	for i, q := range a.Trend {
		trend[i] = q.String()
	}

	return []string{
		string(a.ProductID),
		a.ProductName,
		a.MajorCategory,
		a.StockTotal.String(),
		a.PendingInbound.String(),
		arrival,
		a.RateDisplay.StringFixed(1),
		a.CurrentCoverage.String(),
		a.ProjectedCoverage.String(),
		a.DaysUntilStockout.String(),
		daysUntilArrival,
		string(a.Category),
		strings.Join(trend, " "),
	}
}

func writeJSON(w io.Writer, assessments []forecast.RiskAssessment) error {
	if assessments == nil {
		assessments = []forecast.RiskAssessment{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"items":   assessments,
		"total":   len(assessments),
		"summary": forecast.Summarize(assessments),
	})
}
