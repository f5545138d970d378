package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	unit      domain.Unit
	products  []forecast.Product
	shipments []domain.ShipmentRecord
	replace   bool
	stock     []forecast.StockPosition
	lines     []domain.PurchaseOrderLine
	err       error
}

func (s *recordingStore) UpsertMaster(ctx context.Context, unit domain.Unit, products []forecast.Product) (int, error) {
	s.unit, s.products = unit, products
	return len(products), s.err
}

func (s *recordingStore) InsertShipments(ctx context.Context, records []domain.ShipmentRecord, replace bool) (int, error) {
	s.shipments, s.replace = records, replace
	return len(records), s.err
}

func (s *recordingStore) ReplaceStock(ctx context.Context, positions []forecast.StockPosition) (int, error) {
	s.stock = positions
	return len(positions), s.err
}

func (s *recordingStore) UpsertPurchaseOrderLines(ctx context.Context, lines []domain.PurchaseOrderLine) (int, error) {
	s.lines = lines
	return len(lines), s.err
}

func TestLoad_Master(t *testing.T) {
	store := &recordingStore{}
	tbl := table([]string{"SET_ID", "セット構成名称", "大分類"},
		[]string{"S1", "ギフト", "贈答"},
	)

	result, err := Load(context.Background(), store, KindMaster, tbl, LoadOptions{Unit: domain.UnitSet})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, domain.UnitSet, store.unit)
	assert.Equal(t, "ギフト", store.products[0].Name)
}

func TestLoad_MasterDefaultsToPack(t *testing.T) {
	store := &recordingStore{}
	tbl := table([]string{"商品ID", "商品名"}, []string{"1", "ノート"})

	_, err := Load(context.Background(), store, KindMaster, tbl, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.UnitPack, store.unit)
}

func TestLoad_Shipments(t *testing.T) {
	store := &recordingStore{}
	jst := time.FixedZone("JST", 9*60*60)
	tbl := table([]string{"商品ID", "出荷確定日", "出荷数"},
		[]string{"1", "2024-03-01", "2"},
		[]string{"1", "bad", "2"},
	)

	result, err := Load(context.Background(), store, KindShipments, tbl, LoadOptions{Replace: true, Location: jst})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Diagnostics.CoercionFallbacks)
	assert.True(t, store.replace)
	assert.Equal(t, jst, store.shipments[0].ShippedAt.Location())
}

func TestLoad_StockAndInbound(t *testing.T) {
	store := &recordingStore{}

	_, err := Load(context.Background(), store, KindStock,
		table([]string{"商品ID", "東京"}, []string{"1", "3"}), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, store.stock, 1)

	_, err = Load(context.Background(), store, KindInbound,
		table([]string{"発注番号", "商品ID", "数量"}, []string{"PO-1", "1", "3"}), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, store.lines, 1)
}

func TestLoad_Errors(t *testing.T) {
	store := &recordingStore{}

	_, err := Load(context.Background(), store, Kind("bogus"), forecast.Table{}, LoadOptions{})
	assert.ErrorContains(t, err, "unknown ingest kind")

	_, err = Load(context.Background(), store, KindMaster, table([]string{"商品名"}, []string{"x"}), LoadOptions{})
	assert.True(t, forecast.IsInputShapeError(err))

	store.err = errors.New("tx aborted")
	_, err = Load(context.Background(), store, KindStock, table([]string{"商品ID", "東京"}, []string{"1", "3"}), LoadOptions{})
	assert.ErrorContains(t, err, "tx aborted")
}
