package handlers

import (
	"net/http"
	"time"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/security/validation"
	"github.com/username/leora/backend/src/services"
	"github.com/username/leora/backend/src/utils"
)

type MetricsHandler struct {
	metricsService services.MetricsService
	loc            *time.Location
	now            Clock
}

func NewMetricsHandler(service services.MetricsService, loc *time.Location, now Clock) *MetricsHandler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &MetricsHandler{metricsService: service, loc: loc, now: now}
}

func (h *MetricsHandler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ref, err := referenceTime(r, h.loc, h.now)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("Handling GetAnalytics", "reference", ref)

	analytics, err := h.metricsService.GetAnalytics(r.Context(), ref)
	if err != nil {
		log.Error("Error computing analytics", "error", err)
		utils.SendJSONError(w, "Error computing analytics", http.StatusInternalServerError)
		return
	}
	utils.SendJSONWithETag(w, r, analytics)
}

func (h *MetricsHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ref, err := referenceTime(r, h.loc, h.now)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	progress, err := h.metricsService.GetProgress(r.Context(), ref)
	if err != nil {
		log.Error("Error computing progress", "error", err)
		utils.SendJSONError(w, "Error computing progress", http.StatusInternalServerError)
		return
	}
	utils.SendJSONWithETag(w, r, progress)
}

func (h *MetricsHandler) HandleGetBudgetHealth(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ref, err := referenceTime(r, h.loc, h.now)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	views, err := h.metricsService.GetBudgetHealth(r.Context(), ref)
	if err != nil {
		log.Error("Error computing budget health", "error", err)
		utils.SendJSONError(w, "Error computing budget health", http.StatusInternalServerError)
		return
	}
	if views == nil {
		views = []models.BudgetView{}
	}
	utils.SendJSONWithETag(w, r, views)
}

// HandleGetCalendar serves the calendar index, optionally narrowed to ?from=&to=.
func (h *MetricsHandler) HandleGetCalendar(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	ref, err := referenceTime(r, h.loc, h.now)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fromStr, toStr := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	var from, to time.Time
	filtered := fromStr != "" || toStr != ""
	if filtered {
		if from, err = validation.ValidateDateKey(fromStr, "from", h.loc); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if to, err = validation.ValidateDateKey(toStr, "to", h.loc); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err = validation.ValidateDateRange(from, to, validation.MaxCalendarRangeDays); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	index, err := h.metricsService.GetCalendar(r.Context(), ref)
	if err != nil {
		log.Error("Error building calendar index", "error", err)
		utils.SendJSONError(w, "Error building calendar", http.StatusInternalServerError)
		return
	}

	if filtered {
		// Date keys are YYYY-MM-DD, so lexical order is chronological.
		lo, hi := utils.DateKey(from), utils.DateKey(to)
		narrowed := make(models.CalendarIndex)
		for key, entry := range index {
			if key >= lo && key <= hi {
				narrowed[key] = entry
			}
		}
		index = narrowed
	}
	if index == nil {
		index = models.CalendarIndex{}
	}
	utils.SendJSONWithETag(w, r, index)
}

// HandleInvalidateSnapshot drops every memoized output so the next read recomputes.
func (h *MetricsHandler) HandleInvalidateSnapshot(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Info("Invalidating memoized metrics")
	h.metricsService.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
