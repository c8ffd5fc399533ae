package handlers

import (
	"net/http"
	"time"

	"github.com/username/leora/backend/src/security/validation"
	"github.com/username/leora/backend/src/utils"
)

// Clock returns the current instant. Handlers take one so tests can pin "now".
type Clock func() time.Time

// referenceTime resolves the optional ?date=YYYY-MM-DD parameter. Today (or no
// date) is the current instant; any other day is the last instant of that day,
// so everything recorded on it is in view.
func referenceTime(r *http.Request, loc *time.Location, now Clock) (time.Time, error) {
	current := now().In(loc)
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return current, nil
	}
	day, err := validation.ValidateDateKey(raw, "date", loc)
	if err != nil {
		return time.Time{}, err
	}
	if utils.DateKey(day) == utils.DateKey(current) {
		return current, nil
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}
