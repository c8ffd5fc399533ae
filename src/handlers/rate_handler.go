package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/processors"
	"github.com/username/leora/backend/src/security/validation"
	"github.com/username/leora/backend/src/services"
	"github.com/username/leora/backend/src/utils"
)

type RateHandler struct {
	rateService    services.RateService
	metricsService services.MetricsService
	currency       processors.CurrencyProcessor
	loc            *time.Location
	now            Clock
}

func NewRateHandler(rates services.RateService, metrics services.MetricsService, currency processors.CurrencyProcessor, loc *time.Location, now Clock) *RateHandler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RateHandler{rateService: rates, metricsService: metrics, currency: currency, loc: loc, now: now}
}

type rateTableResponse struct {
	Pivot             models.CurrencyCode `json:"pivot"`
	ReportingCurrency models.CurrencyCode `json:"reporting_currency"`
	models.RateTable
}

func (h *RateHandler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	table, err := h.rateService.GetRateTable(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error loading rate table", "error", err)
		utils.SendJSONError(w, "Error loading exchange rates", http.StatusServiceUnavailable)
		return
	}
	utils.SendJSONWithETag(w, r, rateTableResponse{
		Pivot:             models.PivotCurrency,
		ReportingCurrency: h.currency.DefaultCurrency(),
		RateTable:         table,
	})
}

// HandleRefreshRates pulls ECB reference rates for ?date= (default today) and
// drops memoized metrics computed with the old table.
func (h *RateHandler) HandleRefreshRates(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ref, err := referenceTime(r, h.loc, h.now)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("Refreshing exchange rates from ECB", "date", utils.DateKey(ref))
	table, err := h.rateService.RefreshFromECB(r.Context(), ref)
	if err != nil {
		log.Error("ECB refresh failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrRatesUnavailable) {
			status = http.StatusBadGateway
		}
		utils.SendJSONError(w, "Failed to refresh exchange rates", status)
		return
	}
	h.metricsService.Invalidate()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rateTableResponse{
		Pivot:             models.PivotCurrency,
		ReportingCurrency: h.currency.DefaultCurrency(),
		RateTable:         table,
	})
}

type conversionResponse struct {
	Amount    float64             `json:"amount"`
	From      models.CurrencyCode `json:"from"`
	To        models.CurrencyCode `json:"to"`
	Converted float64             `json:"converted"`
}

// HandleConvert converts ?amount= from ?from= to ?to= (default: reporting currency).
func (h *RateHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		utils.SendJSONError(w, "amount must be a number", http.StatusBadRequest)
		return
	}
	from, err := validation.ValidateCurrencyCode(q.Get("from"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	to := h.currency.DefaultCurrency()
	if raw := q.Get("to"); raw != "" {
		if to, err = validation.ValidateCurrencyCode(raw); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	table, err := h.rateService.GetRateTable(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Error loading rate table", "error", err)
		utils.SendJSONError(w, "Error loading exchange rates", http.StatusServiceUnavailable)
		return
	}

	utils.SendJSONWithETag(w, r, conversionResponse{
		Amount:    amount,
		From:      from,
		To:        to,
		Converted: utils.RoundFloat(h.currency.Convert(amount, from, to, table), 2),
	})
}
