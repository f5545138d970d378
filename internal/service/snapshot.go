package service

import (
	"context"

	"github.com/hirase-art/inventory-risk/internal/cache"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// loadSnapshot fetches the four engine inputs concurrently.
func (s *RiskService) loadSnapshot(ctx context.Context, filter domain.RiskFilter) (*domain.Snapshot, error) {
	var snap domain.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Master, err = s.loadMaster(gctx, filter.Unit)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Shipments, err = s.loadShipments(gctx, filter.PeriodKind)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Stock, err = s.loadStock(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Inbound, err = s.loadInbound(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RiskService) loadMaster(ctx context.Context, unit domain.Unit) ([]forecast.Product, error) {
	return readThrough(ctx, s.cache, cache.KindMaster, cache.Params{"unit": string(unit)},
		func(ctx context.Context) ([]forecast.Product, error) {
			return s.repos.Master.ListProducts(ctx, unit)
		})
}

func (s *RiskService) loadShipments(ctx context.Context, kind forecast.PeriodKind) ([]forecast.ShipmentRow, error) {
	return readThrough(ctx, s.cache, cache.KindShipments, cache.Params{"period_kind": kind.String()},
		func(ctx context.Context) ([]forecast.ShipmentRow, error) {
			return s.repos.Shipments.Aggregate(ctx, kind)
		})
}

func (s *RiskService) loadStock(ctx context.Context) ([]forecast.StockPosition, error) {
	return readThrough(ctx, s.cache, cache.KindStock, nil, s.repos.Stock.ListPositions)
}

func (s *RiskService) loadInbound(ctx context.Context) ([]forecast.InboundPlan, error) {
	return readThrough(ctx, s.cache, cache.KindInbound, nil, s.repos.Inbound.ListOpen)
}

// readThrough serves from the cache when possible. Cache errors are logged
// and bypassed.
func readThrough[T any](ctx context.Context, c cache.SnapshotCache, kind cache.Kind, params cache.Params, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := c.Get(ctx, kind, params, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("risk: cache get failed")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, kind, params, value); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("risk: cache set failed")
	}
	return value, nil
}
