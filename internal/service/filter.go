package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/hirase-art/inventory-risk/internal/config"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
)

const idWidth = 8

// Defaults fill in whatever a request leaves unset.
type Defaults struct {
	Unit       domain.Unit
	WindowSize int
	PeriodKind forecast.PeriodKind
	Thresholds forecast.Thresholds
	Rounding   forecast.RoundingPolicy
	Location   *time.Location
	Clock      func() time.Time
}

func DefaultDefaults() Defaults {
	return Defaults{
		Unit:       domain.UnitPack,
		WindowSize: domain.DefaultWindowSize,
		PeriodKind: forecast.Monthly,
		Thresholds: forecast.DefaultThresholds(),
		Rounding:   forecast.RoundLazy,
		Location:   time.UTC,
		Clock:      time.Now,
	}
}

// DefaultsFromConfig parses the analysis section of the configuration.
func DefaultsFromConfig(cfg config.AnalysisConfig) (Defaults, error) {
	d := DefaultDefaults()

	if cfg.DefaultUnit != "" {
		unit, ok := domain.ParseUnit(cfg.DefaultUnit)
		if !ok {
			return d, fmt.Errorf("invalid default unit %q", cfg.DefaultUnit)
		}
		d.Unit = unit
	}
	if cfg.WindowSize > 0 {
		d.WindowSize = ClampWindow(cfg.WindowSize)
	}
	if cfg.PeriodKind != "" {
		kind, ok := forecast.ParsePeriodKind(strings.ToLower(cfg.PeriodKind))
		if !ok {
			return d, fmt.Errorf("invalid period kind %q", cfg.PeriodKind)
		}
		d.PeriodKind = kind
	}
	if cfg.SafeCoverage != "" {
		safe, err := decimal.NewFromString(cfg.SafeCoverage)
		if err != nil {
			return d, fmt.Errorf("invalid safe coverage %q: %w", cfg.SafeCoverage, err)
		}
		d.Thresholds.Safe = safe
	}
	if cfg.OverstockCover != "" {
		overstock, err := decimal.NewFromString(cfg.OverstockCover)
		if err != nil {
			return d, fmt.Errorf("invalid overstock coverage %q: %w", cfg.OverstockCover, err)
		}
		d.Thresholds.Overstock = overstock
	}
	if cfg.EagerRounding {
		d.Rounding = forecast.RoundEager
	}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return d, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		d.Location = loc
	}
	return d, nil
}

// ClampWindow keeps a window size inside [MinWindowSize, MaxWindowSize].
// Zero or negative selects the default.
func ClampWindow(n int) int {
	switch {
	case n <= 0:
		return domain.DefaultWindowSize
	case n < domain.MinWindowSize:
		return domain.MinWindowSize
	case n > domain.MaxWindowSize:
		return domain.MaxWindowSize
	}
	return n
}

// NormalizeFilter applies defaults and clamps the window.
func NormalizeFilter(f domain.RiskFilter, d Defaults) domain.RiskFilter {
	if f.Unit == "" {
		f.Unit = d.Unit
	}
	if f.WindowSize == 0 {
		f.WindowSize = d.WindowSize
	}
	f.WindowSize = ClampWindow(f.WindowSize)
	if !f.PeriodKind.Valid() {
		f.PeriodKind = d.PeriodKind
	}
	f.MajorCategory = strings.TrimSpace(f.MajorCategory)
	f.NameQuery = strings.TrimSpace(f.NameQuery)

	if f.Now.IsZero() {
		clock := d.Clock
		if clock == nil {
			clock = time.Now
		}
		f.Now = clock()
	}
	if d.Location != nil {
		f.Now = f.Now.In(d.Location)
	}
	return f
}

// IsAllCategories reports whether a category value selects everything.
func IsAllCategories(category string) bool {
	c := strings.TrimSpace(category)
	return c == "" || c == domain.AllCategories || strings.EqualFold(c, "all")
}

// ParseIDQuery splits a comma-separated ID list. Purely numeric IDs are
// left-padded with zeros to eight digits.
func ParseIDQuery(query string) []string {
	var ids []string
	for _, part := range strings.Split(query, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if isDigits(id) && len(id) < idWidth {
			id = strings.Repeat("0", idWidth-len(id)) + id
		}
		ids = append(ids, id)
	}
	return ids
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FilterProducts applies the category, ID and name filters to the master
// list, keeping its order.
func FilterProducts(products []forecast.Product, f domain.RiskFilter) []forecast.Product {
	var ids map[forecast.ProductID]struct{}
	if parsed := ParseIDQuery(f.IDQuery); len(parsed) > 0 {
		ids = make(map[forecast.ProductID]struct{}, len(parsed))
		for _, id := range parsed {
			ids[forecast.ProductID(id)] = struct{}{}
		}
	}
	allCategories := IsAllCategories(f.MajorCategory)
	name := strings.TrimSpace(f.NameQuery)

	out := make([]forecast.Product, 0, len(products))
	for _, p := range products {
		if !allCategories && p.MajorCategory != strings.TrimSpace(f.MajorCategory) {
			continue
		}
		if ids != nil {
			if _, ok := ids[p.ID]; !ok {
				continue
			}
		}
		if name != "" && !strings.Contains(p.Name, name) {
			continue
		}
		out = append(out, p)
	}
	return out
}
