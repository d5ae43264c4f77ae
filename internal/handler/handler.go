// Package handler exposes the pricing and invoicing services over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/tmcalister/crucible/internal/domain"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	pricing  domain.PricingService
	invoices domain.InvoiceService
	logger   *slog.Logger

	// ready reports whether downstream dependencies are reachable.
	ready func(echo.Context) error
}

// New creates a Handler.
func New(pricing domain.PricingService, invoices domain.InvoiceService, ready func(echo.Context) error, logger *slog.Logger) *Handler {
	return &Handler{
		pricing:  pricing,
		invoices: invoices,
		ready:    ready,
		logger:   logger,
	}
}

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// RegisterRoutes attaches all API routes to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	api := e.Group("/api")

	pricing := api.Group("/pricing")
	pricing.POST("/resolve", h.ResolvePrice)
	pricing.POST("/rules", h.CreatePricingRule)
	pricing.GET("/rules", h.ListPricingRules)
	pricing.DELETE("/rules/:id", h.DeactivatePricingRule)

	invoices := api.Group("/invoices")
	invoices.POST("", h.GenerateInvoice)
	invoices.GET("", h.ListInvoices)
	invoices.GET("/:id", h.GetInvoice)
	invoices.POST("/:id/transition", h.TransitionInvoice)
}

// Healthz reports liveness and database reachability.
func (h *Handler) Healthz(c echo.Context) error {
	if h.ready != nil {
		if err := h.ready(c); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
