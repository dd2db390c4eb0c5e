package api

import (
	"errors"
	"net/http"
	"strconv"

	"voyago/travel-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// RatesHandler holds the rate service dependency.
type RatesHandler struct {
	rateService service.RateService
}

// NewRatesHandler creates a new RatesHandler.
func NewRatesHandler(rateService service.RateService) *RatesHandler {
	return &RatesHandler{rateService: rateService}
}

// --- DTOs for API (Data Transfer Objects) ---

// SetManualRateRequest pins a manual rate for one currency.
type SetManualRateRequest struct {
	Rate float64 `json:"rate" binding:"required,gt=0"`
}

// SetEnabledRequest toggles the "use manual" flag for one currency.
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// --- Handler Methods ---

// GetRates fetches market rates for a base currency. A source failure is
// 502 with a connectivity message; the client retries manually.
func (h *RatesHandler) GetRates(c *gin.Context) {
	rates, err := h.rateService.FetchRates(c.Request.Context(), c.Param("base"))
	if err != nil {
		if errors.Is(err, service.ErrRateSource) {
			abortWithError(c, http.StatusBadGateway, "Could not reach the exchange rate service. Check your connection and retry.")
		} else {
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"base": c.Param("base"), "rates": rates})
}

// Convert computes a converted amount, applying an enabled manual override
// for the target currency over the fetched market rate.
func (h *RatesHandler) Convert(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'amount' must be a number.")
		return
	}
	base := c.DefaultQuery("base", "EUR")
	target := c.Query("target")
	if target == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'target' is required.")
		return
	}

	conversion, err := h.rateService.Convert(c.Request.Context(), amount, base, target)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateSource):
			abortWithError(c, http.StatusBadGateway, "Could not reach the exchange rate service. Check your connection and retry.")
		case errors.Is(err, service.ErrUnknownCurrency):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to convert.")
		}
		return
	}
	c.JSON(http.StatusOK, conversion)
}

// GetOverrides returns both override mappings.
func (h *RatesHandler) GetOverrides(c *gin.Context) {
	overrides, err := h.rateService.GetOverrides(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load overrides.")
		return
	}
	c.JSON(http.StatusOK, overrides)
}

// SetManualRate pins a manual rate for the currency in the path.
func (h *RatesHandler) SetManualRate(c *gin.Context) {
	var req SetManualRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.rateService.SetManualRate(c.Request.Context(), c.Param("code"), req.Rate); err != nil {
		if errors.Is(err, service.ErrInvalidRate) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save override.")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearManualRate removes the pinned rate (and flag) for the currency in
// the path.
func (h *RatesHandler) ClearManualRate(c *gin.Context) {
	if err := h.rateService.ClearManualRate(c.Request.Context(), c.Param("code")); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to clear override.")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetEnabled toggles the "use manual" flag for the currency in the path.
func (h *RatesHandler) SetEnabled(c *gin.Context) {
	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.rateService.SetEnabled(c.Request.Context(), c.Param("code"), *req.Enabled); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to save override.")
		return
	}
	c.Status(http.StatusNoContent)
}
