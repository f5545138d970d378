package domain

import (
	"time"

	"github.com/hirase-art/inventory-risk/internal/forecast"
)

// AllCategories is the major-category value that disables category
// filtering, alongside "all" and the empty string.
const AllCategories = "すべて"

const (
	MinWindowSize     = 4
	MaxWindowSize     = 24
	DefaultWindowSize = 12
)

// RiskFilter selects the products and parameters of one analysis request.
type RiskFilter struct {
	Unit          Unit                `json:"unit"`
	MajorCategory string              `json:"major_category,omitempty"`
	IDQuery       string              `json:"id_query,omitempty"`
	NameQuery     string              `json:"name_query,omitempty"`
	WindowSize    int                 `json:"window_size"`
	PeriodKind    forecast.PeriodKind `json:"-"`
	Category      forecast.Category   `json:"category,omitempty"`
	Now           time.Time           `json:"-"`
}
