package service

import (
	"context"
	"sort"

	"github.com/hirase-art/inventory-risk/internal/cache"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/hirase-art/inventory-risk/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Repositories struct {
	Master    repository.MasterRepository
	Shipments repository.ShipmentRepository
	Stock     repository.StockRepository
	Inbound   repository.InboundRepository
}

type RiskService struct {
	repos    Repositories
	cache    cache.SnapshotCache
	defaults Defaults
}

func NewRiskService(repos Repositories, cacheImpl cache.SnapshotCache, defaults Defaults) *RiskService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSnapshotCache()
	}
	return &RiskService{repos: repos, cache: cacheImpl, defaults: defaults}
}

// Options converts a normalized filter into engine options.
func (s *RiskService) Options(f domain.RiskFilter) forecast.Options {
	return forecast.Options{
		WindowSize: f.WindowSize,
		PeriodKind: f.PeriodKind,
		Thresholds: s.defaults.Thresholds,
		Rounding:   s.defaults.Rounding,
		Now:        f.Now,
	}
}

// Assess runs the engine over the filtered products. The summary counts
// every assessed product; the item list honors filter.Category.
func (s *RiskService) Assess(ctx context.Context, filter domain.RiskFilter) (*domain.RiskReport, error) {
	filter = NormalizeFilter(filter, s.defaults)

	assessments, err := s.assess(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := assessments
	if filter.Category != "" {
		items = make([]forecast.RiskAssessment, 0, len(assessments))
		for _, a := range assessments {
			if a.Category == filter.Category {
				items = append(items, a)
			}
		}
	}

	return &domain.RiskReport{
		Unit:        filter.Unit,
		PeriodKind:  filter.PeriodKind.String(),
		WindowSize:  filter.WindowSize,
		GeneratedAt: filter.Now,
		Total:       len(items),
		Items:       items,
		Summary:     forecast.Summarize(assessments),
	}, nil
}

// Summary returns category counts only.
func (s *RiskService) Summary(ctx context.Context, filter domain.RiskFilter) (*domain.RiskSummary, error) {
	filter = NormalizeFilter(filter, s.defaults)

	assessments, err := s.assess(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.RiskSummary{
		Unit:        filter.Unit,
		PeriodKind:  filter.PeriodKind.String(),
		WindowSize:  filter.WindowSize,
		GeneratedAt: filter.Now,
		Total:       len(assessments),
		Counts:      forecast.Summarize(assessments),
	}, nil
}

func (s *RiskService) assess(ctx context.Context, filter domain.RiskFilter) ([]forecast.RiskAssessment, error) {
	snapshot, err := s.loadSnapshot(ctx, filter)
	if err != nil {
		return nil, err
	}

	series, err := forecast.NewShipmentSeries(snapshot.Shipments)
	if err != nil {
		return nil, err
	}

	master := FilterProducts(snapshot.Master, filter)
	assessments, err := forecast.Analyze(series, snapshot.Stock, snapshot.Inbound, master, s.Options(filter))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("unit", string(filter.Unit)).
		Str("period_kind", filter.PeriodKind.String()).
		Int("window", filter.WindowSize).
		Int("products", len(master)).
		Int("assessed", len(assessments)).
		Msg("risk: assessment complete")

	return assessments, nil
}

// ShipmentTrends builds the shipment history table: the filtered products
// that shipped at least once, with their quantities over the most recent
// window of periods.
func (s *RiskService) ShipmentTrends(ctx context.Context, filter domain.RiskFilter) (*domain.ShipmentTrendTable, error) {
	filter = NormalizeFilter(filter, s.defaults)

	var (
		master []forecast.Product
		rows   []forecast.ShipmentRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		master, err = s.loadMaster(gctx, filter.Unit)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.loadShipments(gctx, filter.PeriodKind)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series, err := forecast.NewShipmentSeries(rows)
	if err != nil {
		return nil, err
	}

	periods := series.Periods()
	if len(periods) > filter.WindowSize {
		periods = periods[:filter.WindowSize]
	}

	table := &domain.ShipmentTrendTable{
		PeriodKind: filter.PeriodKind.String(),
		Periods:    make([]string, len(periods)),
		Rows:       []domain.ShipmentTrend{},
	}
	for i, p := range periods {
		table.Periods[i] = string(p)
	}

	for _, p := range FilterProducts(master, filter) {
		if !series.HasProduct(p.ID) {
			continue
		}
		quantities := make([]decimal.Decimal, len(periods))
		for i, period := range periods {
			quantities[i] = series.Quantity(p.ID, period)
		}
		table.Rows = append(table.Rows, domain.ShipmentTrend{
			ProductID:     string(p.ID),
			ProductName:   p.Name,
			MajorCategory: p.MajorCategory,
			Quantities:    quantities,
			Trend:         forecast.ExtractTrend(series, p.ID, len(periods)),
		})
	}

	return table, nil
}

// Inventory joins the filtered master with the stock snapshot.
func (s *RiskService) Inventory(ctx context.Context, filter domain.RiskFilter) ([]domain.InventoryItem, error) {
	filter = NormalizeFilter(filter, s.defaults)

	var (
		master []forecast.Product
		stock  []forecast.StockPosition
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		master, err = s.loadMaster(gctx, filter.Unit)
		return err
	})
	g.Go(func() error {
		var err error
		stock, err = s.loadStock(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[forecast.ProductID]forecast.StockPosition, len(stock))
	for _, pos := range stock {
		if prev, ok := byID[pos.ProductID]; ok {
			locations := make(map[string]decimal.Decimal, len(prev.Locations)+len(pos.Locations))
			for name, qty := range prev.Locations {
				locations[name] = qty
			}
			for name, qty := range pos.Locations {
				locations[name] = locations[name].Add(qty)
			}
			pos = forecast.StockPosition{ProductID: pos.ProductID, Locations: locations, Total: prev.Total.Add(pos.Total)}
		}
		byID[pos.ProductID] = pos
	}

	items := []domain.InventoryItem{}
	seen := make(map[forecast.ProductID]struct{})
	for _, p := range FilterProducts(master, filter) {
		pos, ok := byID[p.ID]
		if !ok {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		items = append(items, domain.InventoryItem{
			ProductID:     string(p.ID),
			ProductName:   p.Name,
			MajorCategory: p.MajorCategory,
			MinorCategory: p.MinorCategory,
			Locations:     pos.Locations,
			Total:         pos.Total,
		})
	}
	return items, nil
}

// Categories lists the distinct major categories of a unit, sorted.
func (s *RiskService) Categories(ctx context.Context, unit domain.Unit) ([]string, error) {
	if unit == "" {
		unit = s.defaults.Unit
	}

	params := cache.Params{"unit": string(unit), "view": "categories"}
	var categories []string
	if ok, err := s.cache.Get(ctx, cache.KindMaster, params, &categories); err == nil && ok {
		return categories, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("risk: cache get categories failed")
	}

	categories, err := s.repos.Master.ListCategories(ctx, unit)
	if err != nil {
		return nil, err
	}
	sort.Strings(categories)

	if err := s.cache.Set(ctx, cache.KindMaster, params, categories); err != nil {
		log.Warn().Err(err).Msg("risk: cache set categories failed")
	}
	return categories, nil
}

// InvalidateCache drops every cached snapshot.
func (s *RiskService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
