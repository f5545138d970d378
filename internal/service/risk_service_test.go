package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hirase-art/inventory-risk/internal/cache"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	calls map[string]int
	err   error

	master     map[domain.Unit][]forecast.Product
	categories map[domain.Unit][]string
	shipments  map[forecast.PeriodKind][]forecast.ShipmentRow
	stock      []forecast.StockPosition
	inbound    []forecast.InboundPlan
}

func (f *fakeStore) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) ListProducts(ctx context.Context, unit domain.Unit) ([]forecast.Product, error) {
	f.hit("master")
	return f.master[unit], f.err
}

func (f *fakeStore) ListCategories(ctx context.Context, unit domain.Unit) ([]string, error) {
	f.hit("categories")
	return append([]string(nil), f.categories[unit]...), f.err
}

func (f *fakeStore) Aggregate(ctx context.Context, kind forecast.PeriodKind) ([]forecast.ShipmentRow, error) {
	f.hit("shipments")
	return f.shipments[kind], f.err
}

func (f *fakeStore) ListPositions(ctx context.Context) ([]forecast.StockPosition, error) {
	f.hit("stock")
	return f.stock, f.err
}

func (f *fakeStore) ListOpen(ctx context.Context) ([]forecast.InboundPlan, error) {
	f.hit("inbound")
	return f.inbound, f.err
}

// memoryCache round-trips values through JSON like the redis cache does.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failing bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, kind cache.Kind, params cache.Params, dest interface{}) (bool, error) {
	if m.failing {
		return false, errors.New("cache down")
	}
	m.mu.Lock()
	data, ok := m.entries[cache.BuildKey(kind, params)]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, kind cache.Kind, params cache.Params, value interface{}) error {
	if m.failing {
		return errors.New("cache down")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[cache.BuildKey(kind, params)] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) InvalidateKind(ctx context.Context, kind cache.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if len(key) > len(string(kind)) && key[:len("inventory:")+len(string(kind))] == "inventory:"+string(kind) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

func num(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func monthlyRows(id forecast.ProductID, quantities map[forecast.PeriodCode]int64) []forecast.ShipmentRow {
	rows := make([]forecast.ShipmentRow, 0, len(quantities))
	for period, qty := range quantities {
		rows = append(rows, forecast.ShipmentRow{ProductID: id, Period: period, Quantity: num(qty)})
	}
	return rows
}

func stockAt(id forecast.ProductID, qty int64) forecast.StockPosition {
	return forecast.NewStockPosition(id, map[string]decimal.Decimal{"本社": num(qty)})
}

var serviceNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func newFixture() *fakeStore {
	flat := map[forecast.PeriodCode]int64{"2312": 10, "2401": 10, "2402": 10, "2403": 10}

	var shipments []forecast.ShipmentRow
	shipments = append(shipments, monthlyRows("00000001", flat)...)
	shipments = append(shipments, monthlyRows("00000001", map[forecast.PeriodCode]int64{"2311": 99})...)
	shipments = append(shipments, monthlyRows("00000002", map[forecast.PeriodCode]int64{"2312": 4, "2401": 8, "2402": 12, "2403": 16})...)
	shipments = append(shipments, monthlyRows("00000003", flat)...)
	shipments = append(shipments, monthlyRows("00000006", flat)...)

	arrival := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	return &fakeStore{
		master: map[domain.Unit][]forecast.Product{
			domain.UnitPack: {
				{ID: "00000001", Name: "ノート A", MajorCategory: "文具"},
				{ID: "00000002", Name: "ノート B", MajorCategory: "文具"},
				{ID: "00000003", Name: "カップ", MajorCategory: "食器"},
				{ID: "00000004", Name: "皿", MajorCategory: "食器"},
				{ID: "00000005", Name: "在庫なし", MajorCategory: "食器"},
				{ID: "00000006", Name: "ボウル", MajorCategory: "食器"},
			},
			domain.UnitSet: {
				{ID: "S0000001", Name: "ノートセット", MajorCategory: "文具"},
			},
		},
		categories: map[domain.Unit][]string{
			domain.UnitPack: {"食器", "文具"},
		},
		shipments: map[forecast.PeriodKind][]forecast.ShipmentRow{forecast.Monthly: shipments},
		stock: []forecast.StockPosition{
			stockAt("00000001", 5),
			stockAt("00000002", 50),
			stockAt("00000003", 20),
			stockAt("00000004", 0),
			stockAt("00000006", 5),
		},
		inbound: []forecast.InboundPlan{
			{ProductID: "00000006", PendingQuantity: num(100), ArrivalDate: &arrival},
		},
	}
}

func newTestService(store *fakeStore, c cache.SnapshotCache) *RiskService {
	d := DefaultDefaults()
	d.Clock = func() time.Time { return serviceNow }
	repos := Repositories{Master: store, Shipments: store, Stock: store, Inbound: store}
	return NewRiskService(repos, c, d)
}

func categoriesByID(items []forecast.RiskAssessment) map[forecast.ProductID]forecast.Category {
	out := make(map[forecast.ProductID]forecast.Category, len(items))
	for _, item := range items {
		out[item.ProductID] = item.Category
	}
	return out
}

func TestRiskService_Assess(t *testing.T) {
	svc := newTestService(newFixture(), nil)

	report, err := svc.Assess(context.Background(), domain.RiskFilter{WindowSize: 4})
	require.NoError(t, err)

	assert.Equal(t, domain.UnitPack, report.Unit)
	assert.Equal(t, "monthly", report.PeriodKind)
	assert.Equal(t, 4, report.WindowSize)
	assert.True(t, report.GeneratedAt.Equal(serviceNow))
	assert.Equal(t, 5, report.Total)

	assert.Equal(t, map[forecast.ProductID]forecast.Category{
		"00000001": forecast.NeedsReorder,
		"00000002": forecast.Overstocked,
		"00000003": forecast.Safe,
		"00000004": forecast.NoActivity,
		"00000006": forecast.WillArriveLate,
	}, categoriesByID(report.Items))

	ids := make([]forecast.ProductID, len(report.Items))
	for i, item := range report.Items {
		ids[i] = item.ProductID
	}
	assert.Equal(t, []forecast.ProductID{"00000001", "00000002", "00000003", "00000004", "00000006"}, ids)

	assert.Equal(t, 1, report.Summary[forecast.NeedsReorder])
	assert.Equal(t, 1, report.Summary[forecast.WillArriveLate])
}

func TestRiskService_AssessCategoryFilter(t *testing.T) {
	svc := newTestService(newFixture(), nil)

	report, err := svc.Assess(context.Background(), domain.RiskFilter{
		WindowSize: 4,
		Category:   forecast.Safe,
	})
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, forecast.ProductID("00000003"), report.Items[0].ProductID)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Summary[forecast.Overstocked], "summary counts every assessed product")
}

func TestRiskService_AssessMasterFilters(t *testing.T) {
	svc := newTestService(newFixture(), nil)

	report, err := svc.Assess(context.Background(), domain.RiskFilter{
		WindowSize:    4,
		MajorCategory: "文具",
	})
	require.NoError(t, err)
	assert.Len(t, report.Items, 2)

	report, err = svc.Assess(context.Background(), domain.RiskFilter{WindowSize: 4, IDQuery: "3,6"})
	require.NoError(t, err)
	assert.Equal(t, map[forecast.ProductID]forecast.Category{
		"00000003": forecast.Safe,
		"00000006": forecast.WillArriveLate,
	}, categoriesByID(report.Items))
}

func TestRiskService_Summary(t *testing.T) {
	svc := newTestService(newFixture(), nil)

	summary, err := svc.Summary(context.Background(), domain.RiskFilter{WindowSize: 4, MajorCategory: "食器"})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Counts[forecast.Safe])
	assert.Equal(t, 1, summary.Counts[forecast.NoActivity])
	assert.Equal(t, 1, summary.Counts[forecast.WillArriveLate])
	assert.Equal(t, 0, summary.Counts[forecast.Overstocked])
}

func TestRiskService_RepositoryError(t *testing.T) {
	store := newFixture()
	store.err = errors.New("connection refused")
	svc := newTestService(store, nil)

	_, err := svc.Assess(context.Background(), domain.RiskFilter{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestRiskService_ShipmentTrends(t *testing.T) {
	svc := newTestService(newFixture(), nil)

	table, err := svc.ShipmentTrends(context.Background(), domain.RiskFilter{
		WindowSize:    4,
		MajorCategory: "文具",
	})
	require.NoError(t, err)

	assert.Equal(t, "monthly", table.PeriodKind)
	assert.Equal(t, []string{"2403", "2402", "2401", "2312"}, table.Periods)
	require.Len(t, table.Rows, 2)

	row := table.Rows[1]
	assert.Equal(t, "00000002", row.ProductID)
	assert.Equal(t, "ノート B", row.ProductName)
	assert.Equal(t, []string{"16", "12", "8", "4"}, decimalStrings(row.Quantities))
	assert.Equal(t, []string{"4", "8", "12", "16"}, decimalStrings(row.Trend))
}

func TestRiskService_ShipmentTrendsSkipsProductsWithoutHistory(t *testing.T) {
	svc := newTestService(newFixture(), nil)

	table, err := svc.ShipmentTrends(context.Background(), domain.RiskFilter{WindowSize: 24, MajorCategory: "食器"})
	require.NoError(t, err)

	assert.Len(t, table.Periods, 5)
	ids := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		ids[i] = row.ProductID
	}
	assert.Equal(t, []string{"00000003", "00000006"}, ids)
}

func TestRiskService_Inventory(t *testing.T) {
	store := newFixture()
	store.stock = append(store.stock, forecast.NewStockPosition("00000001", map[string]decimal.Decimal{
		"本社":  num(2),
		"倉庫B": num(3),
	}))
	svc := newTestService(store, nil)

	items, err := svc.Inventory(context.Background(), domain.RiskFilter{MajorCategory: "文具"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "00000001", first.ProductID)
	assert.Equal(t, "10", first.Total.String())
	assert.Equal(t, "7", first.Locations["本社"].String())
	assert.Equal(t, "3", first.Locations["倉庫B"].String())

	items, err = svc.Inventory(context.Background(), domain.RiskFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 5, "products without stock are not listed")
}

func TestRiskService_SetUnitUsesSetMaster(t *testing.T) {
	store := newFixture()
	store.stock = append(store.stock, stockAt("S0000001", 40))
	svc := newTestService(store, nil)

	report, err := svc.Assess(context.Background(), domain.RiskFilter{Unit: domain.UnitSet})
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, domain.UnitSet, report.Unit)
	assert.Equal(t, forecast.ProductID("S0000001"), report.Items[0].ProductID)
}

func TestRiskService_ReadThroughCache(t *testing.T) {
	store := newFixture()
	svc := newTestService(store, newMemoryCache())
	ctx := context.Background()

	first, err := svc.Assess(ctx, domain.RiskFilter{WindowSize: 4})
	require.NoError(t, err)
	second, err := svc.Assess(ctx, domain.RiskFilter{WindowSize: 4})
	require.NoError(t, err)

	for _, name := range []string{"master", "shipments", "stock", "inbound"} {
		assert.Equal(t, 1, store.count(name), name)
	}
	assert.Equal(t, categoriesByID(first.Items), categoriesByID(second.Items))

	require.NoError(t, svc.InvalidateCache(ctx))
	_, err = svc.Assess(ctx, domain.RiskFilter{WindowSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, store.count("master"))
}

func TestRiskService_CacheFailureFallsBack(t *testing.T) {
	store := newFixture()
	c := newMemoryCache()
	c.failing = true
	svc := newTestService(store, c)

	report, err := svc.Assess(context.Background(), domain.RiskFilter{WindowSize: 4})
	require.NoError(t, err)
	assert.Len(t, report.Items, 5)
}

func TestRiskService_Categories(t *testing.T) {
	store := newFixture()
	svc := newTestService(store, newMemoryCache())
	ctx := context.Background()

	categories, err := svc.Categories(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"文具", "食器"}, categories)

	_, err = svc.Categories(ctx, domain.UnitPack)
	require.NoError(t, err)
	assert.Equal(t, 1, store.count("categories"))
}

func decimalStrings(values []decimal.Decimal) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
