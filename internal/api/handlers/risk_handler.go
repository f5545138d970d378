package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/rs/zerolog/log"
)

// RiskService is the part of service.RiskService the handler needs.
type RiskService interface {
	Assess(ctx context.Context, filter domain.RiskFilter) (*domain.RiskReport, error)
	Summary(ctx context.Context, filter domain.RiskFilter) (*domain.RiskSummary, error)
	ShipmentTrends(ctx context.Context, filter domain.RiskFilter) (*domain.ShipmentTrendTable, error)
	Inventory(ctx context.Context, filter domain.RiskFilter) ([]domain.InventoryItem, error)
	Categories(ctx context.Context, unit domain.Unit) ([]string, error)
	InvalidateCache(ctx context.Context) error
}

type RiskHandler struct {
	service RiskService
}

func NewRiskHandler(service RiskService) *RiskHandler {
	return &RiskHandler{service: service}
}

// parseFilter reads the query string:
//
//	unit=pack|set  major_category=...  ids=12,345  name=...
//	window=4..24   period=monthly|weekly  category=needs_reorder
func (h *RiskHandler) parseFilter(c *gin.Context) (domain.RiskFilter, error) {
	var filter domain.RiskFilter

	if raw := strings.TrimSpace(c.Query("unit")); raw != "" {
		unit, ok := domain.ParseUnit(raw)
		if !ok {
			return filter, fmt.Errorf("invalid unit %q", raw)
		}
		filter.Unit = unit
	}

	filter.MajorCategory = strings.TrimSpace(c.Query("major_category"))
	filter.NameQuery = strings.TrimSpace(c.Query("name"))

	// ids may be repeated or comma-separated
	if ids := c.QueryArray("ids"); len(ids) > 0 {
		filter.IDQuery = strings.Join(ids, ",")
	}

	if raw := strings.TrimSpace(c.Query("window")); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil || window < 1 {
			return filter, fmt.Errorf("invalid window %q", raw)
		}
		filter.WindowSize = window
	}

	// invalid kind means unset: the service default applies
	filter.PeriodKind = forecast.PeriodKind(-1)
	if raw := strings.TrimSpace(c.Query("period")); raw != "" {
		kind, ok := forecast.ParsePeriodKind(strings.ToLower(raw))
		if !ok {
			return filter, fmt.Errorf("invalid period %q", raw)
		}
		filter.PeriodKind = kind
	}

	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category, ok := parseCategory(raw)
		if !ok {
			return filter, fmt.Errorf("invalid category %q", raw)
		}
		filter.Category = category
	}

	return filter, nil
}

func parseCategory(raw string) (forecast.Category, bool) {
	for _, c := range forecast.Categories {
		if strings.EqualFold(string(c), raw) {
			return c, true
		}
	}
	return "", false
}

func (h *RiskHandler) GetRisk(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Assess(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to assess risk", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *RiskHandler) GetSummary(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *RiskHandler) GetShipmentTrends(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, err := h.service.ShipmentTrends(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch shipment trends", err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *RiskHandler) GetStock(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.service.Inventory(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "failed to fetch stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *RiskHandler) GetCategories(c *gin.Context) {
	var unit domain.Unit
	if raw := strings.TrimSpace(c.Query("unit")); raw != "" {
		parsed, ok := domain.ParseUnit(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid unit %q", raw)})
			return
		}
		unit = parsed
	}

	categories, err := h.service.Categories(c.Request.Context(), unit)
	if err != nil {
		respondError(c, "failed to fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": append([]string{domain.AllCategories}, categories...),
	})
}

func (h *RiskHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.InvalidateCache(c.Request.Context()); err != nil {
		respondError(c, "failed to invalidate cache", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cache invalidated"})
}

// respondError maps engine errors onto client statuses. Anything else is a
// 500 with the cause in details.
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case forecast.IsInputShapeError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, forecast.ErrInvalidOptions):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
