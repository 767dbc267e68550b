package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autoparts/internal/domain"
	"autoparts/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// dateLayout is the format of the start_date/end_date query parameters
const dateLayout = "2006-01-02"

// envelope is the success body: {"success": true, "<entity>": value}
type envelope map[string]interface{}

func respond(w http.ResponseWriter, status int, body envelope) {
	body["success"] = true
	middleware.RespondWithJSON(w, status, body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respond(w, status, envelope{"message": message})
}

// pathID parses a numeric path parameter
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", raw, domain.ErrInvalidID)
	}
	return id, nil
}

// sortAscending reads ?sort=asc|desc, defaulting to newest first
func sortAscending(r *http.Request) (bool, error) {
	switch strings.ToLower(r.URL.Query().Get("sort")) {
	case "", "desc":
		return false, nil
	case "asc":
		return true, nil
	default:
		return false, domain.NewValidationError("sort", "sort must be asc or desc")
	}
}

// dateRange reads ?start_date&end_date as whole UTC days. The end date is
// inclusive, so the returned upper bound is the start of the following day.
func dateRange(r *http.Request) (from, to *time.Time, err error) {
	verr := &domain.ValidationError{}
	q := r.URL.Query()

	if raw := q.Get("start_date"); raw != "" {
		t, perr := time.Parse(dateLayout, raw)
		if perr != nil {
			verr.Add("start_date", "start_date must be YYYY-MM-DD")
		} else {
			from = &t
		}
	}
	if raw := q.Get("end_date"); raw != "" {
		t, perr := time.Parse(dateLayout, raw)
		if perr != nil {
			verr.Add("end_date", "end_date must be YYYY-MM-DD")
		} else {
			next := t.AddDate(0, 0, 1)
			to = &next
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
