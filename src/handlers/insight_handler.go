package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/security/validation"
	"github.com/username/leora/backend/src/services"
	"github.com/username/leora/backend/src/utils"
)

type InsightHandler struct {
	insightService services.InsightService
	loc            *time.Location
	now            Clock
}

func NewInsightHandler(service services.InsightService, loc *time.Location, now Clock) *InsightHandler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &InsightHandler{insightService: service, loc: loc, now: now}
}

// HandleGetDailyInsights serves the card feed for the reference day. ?force=true
// bypasses the day-bucket cache.
func (h *InsightHandler) HandleGetDailyInsights(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, h.loc, h.now)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		if force, err = validation.ValidateBoolString(raw, "force"); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	logger.FromContext(r.Context()).Info("Handling GetDailyInsights", "reference", ref, "force", force)

	feed := h.insightService.RequestDailyInsights(r.Context(), ref, services.InsightRequestOptions{Force: force})

	// A forced refresh must not be answered with 304.
	if force {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(feed)
		return
	}
	utils.SendJSONWithETag(w, r, feed)
}
