package ingest

import (
	"strings"

	"github.com/hirase-art/inventory-risk/internal/forecast"
)

// Columns only the ingest decoders use. The engine's canonical names live in
// the forecast package.
const (
	ColShippedAt  = "shipped_at"
	ColLocation   = "location"
	ColPONumber   = "po_number"
	ColStatus     = "status"
	ColExpectedAt = "expected_at"
)

const bom = "\ufeff"

// columnAliases maps source headers to canonical column names. Keys are
// compared after normalizeHeader.
var columnAliases = map[string]string{
	"商品id":    forecast.ColProductID,
	"商品コード":   forecast.ColProductID,
	"setid":   forecast.ColProductID,
	"set_id":  forecast.ColProductID,
	"sku":     forecast.ColProductID,
	"id":      forecast.ColProductID,
	"商品名":     forecast.ColProductName,
	"セット構成名称": forecast.ColProductName,
	"name":    forecast.ColProductName,
	"大分類":     forecast.ColMajorCategory,
	"中分類":     forecast.ColMinorCategory,
	"期間":      forecast.ColPeriod,
	"年月":      forecast.ColPeriod,
	"出荷数":     forecast.ColQuantity,
	"出荷数量":    forecast.ColQuantity,
	"数量":      forecast.ColQuantity,
	"在庫数":     forecast.ColQuantity,
	"qty":     forecast.ColQuantity,
	"合計":      forecast.ColTotal,
	"在庫合計":    forecast.ColTotal,
	"発注残":     forecast.ColPending,
	"入荷予定数":   forecast.ColPending,
	"pending": forecast.ColPending,
	"入荷予定日":   forecast.ColArrivalDate,
	"arrival": forecast.ColArrivalDate,
	"出荷確定日":   ColShippedAt,
	"出荷日":     ColShippedAt,
	"ship_date": ColShippedAt,
	"倉庫":      ColLocation,
	"拠点":      ColLocation,
	"warehouse": ColLocation,
	"発注番号":    ColPONumber,
	"po":      ColPONumber,
	"po_no":   ColPONumber,
	"ステータス":   ColStatus,
	"納期":      ColExpectedAt,
	"納品予定日":   ColExpectedAt,
	"eta":     ColExpectedAt,
}

// normalizeHeader trims a header, drops a UTF-8 BOM, lower-cases it and
// joins words with underscores.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, bom)
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// CanonicalColumn returns the canonical name of a source header. Headers
// without an alias are returned normalized, except that headers which are
// not plain identifiers (location names such as "東京倉庫") keep their
// spelling, trimmed.
func CanonicalColumn(header string) string {
	key := normalizeHeader(header)
	if canonical, ok := columnAliases[key]; ok {
		return canonical
	}
	if isIdentifier(key) {
		return key
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bom))
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// Normalize renames every column of t to its canonical name. Rows are
// shared with t.
func Normalize(t forecast.Table) forecast.Table {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = CanonicalColumn(c)
	}
	return forecast.Table{Name: t.Name, Columns: columns, Rows: t.Rows}
}
