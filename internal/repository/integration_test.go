package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/hirase-art/inventory-risk/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*postgres.DB, func()) {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "1" {
		t.Skip("set RUN_INTEGRATION_TESTS=1 to run postgres integration tests")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	raw, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(ctx, raw))

	db := postgres.Wrap(sqlx.NewDb(raw, "postgres"), 4)

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRepositories_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	loader := NewLoader(db)

	_, err := loader.UpsertMaster(ctx, domain.UnitPack, []forecast.Product{
		{ID: "00000001", Name: "Alpha", MajorCategory: "food"},
		{ID: "00000002", Name: "Bravo", MajorCategory: "tools"},
		{ID: "00000003", Name: "Charlie"},
	})
	require.NoError(t, err)
	_, err = loader.UpsertMaster(ctx, domain.UnitSet, []forecast.Product{
		{ID: "S0001", Name: "Gift set", MajorCategory: "gift"},
	})
	require.NoError(t, err)

	n, err := loader.InsertShipments(ctx, []domain.ShipmentRecord{
		{ProductID: "00000001", ShippedAt: day(2024, 1, 10), Quantity: decimal.NewFromInt(60)},
		{ProductID: "00000001", ShippedAt: day(2024, 1, 20), Quantity: decimal.NewFromInt(40)},
		{ProductID: "00000001", ShippedAt: day(2024, 2, 5), Quantity: decimal.NewFromInt(120)},
		{ProductID: "00000001", ShippedAt: day(2024, 3, 6), Quantity: decimal.NewFromInt(80)},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = loader.ReplaceStock(ctx, []forecast.StockPosition{
		forecast.NewStockPosition("00000001", map[string]decimal.Decimal{
			"tokyo": decimal.NewFromInt(30),
			"osaka": decimal.NewFromInt(20),
		}),
		forecast.NewStockPosition("00000003", map[string]decimal.Decimal{"tokyo": decimal.NewFromInt(500)}),
	})
	require.NoError(t, err)

	_, err = loader.UpsertPurchaseOrderLines(ctx, []domain.PurchaseOrderLine{
		{PONumber: "PO-1", ProductID: "00000001", Quantity: decimal.NewFromInt(150), Status: 4, ExpectedAt: sql.NullTime{Time: day(2024, 4, 20), Valid: true}},
		{PONumber: "PO-2", ProductID: "00000001", Quantity: decimal.NewFromInt(50), Status: 0, ExpectedAt: sql.NullTime{Time: day(2024, 4, 11), Valid: true}},
		{PONumber: "PO-3", ProductID: "00000003", Quantity: decimal.NewFromInt(99), Status: 3},
	})
	require.NoError(t, err)

	t.Run("master", func(t *testing.T) {
		products, err := NewMasterRepository(db).ListProducts(ctx, domain.UnitPack)
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "food", products[0].MajorCategory)
		assert.Empty(t, products[2].MajorCategory)

		sets, err := NewMasterRepository(db).ListProducts(ctx, domain.UnitSet)
		require.NoError(t, err)
		require.Len(t, sets, 1)
		assert.Equal(t, forecast.ProductID("S0001"), sets[0].ID)

		categories, err := NewMasterRepository(db).ListCategories(ctx, domain.UnitPack)
		require.NoError(t, err)
		assert.Equal(t, []string{"food", "tools"}, categories)
	})

	t.Run("monthly shipments", func(t *testing.T) {
		rows, err := NewShipmentRepository(db).Aggregate(ctx, forecast.Monthly)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, forecast.PeriodCode("2403"), rows[0].Period)

		series, err := forecast.NewShipmentSeries(rows)
		require.NoError(t, err)
		assert.True(t, series.Quantity("00000001", "2401").Equal(decimal.NewFromInt(100)))
	})

	t.Run("weekly shipments", func(t *testing.T) {
		rows, err := NewShipmentRepository(db).Aggregate(ctx, forecast.Weekly)
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		// 2024-03-06 falls in the week starting Monday 2024-03-04.
		assert.Equal(t, forecast.WeeklyCode(day(2024, 3, 6)), rows[0].Period)
	})

	t.Run("stock", func(t *testing.T) {
		positions, err := NewStockRepository(db).ListPositions(ctx)
		require.NoError(t, err)
		require.Len(t, positions, 2)
		assert.True(t, positions[0].Total.Equal(decimal.NewFromInt(50)))
	})

	t.Run("inbound", func(t *testing.T) {
		plans, err := NewInboundRepository(db).ListOpen(ctx)
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.True(t, plans[0].PendingQuantity.Equal(decimal.NewFromInt(200)))
		require.NotNil(t, plans[0].ArrivalDate)
		assert.Equal(t, 11, plans[0].ArrivalDate.Day())
	})
}
