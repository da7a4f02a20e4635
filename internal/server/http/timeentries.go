package http

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type upsertTimeEntryRequest struct {
	ProjectID   string  `json:"projectId" validate:"uuid"`
	Date        string  `json:"date" validate:"datetime=2006-01-02"`
	Minutes     int     `json:"minutes" validate:"min=1,max=1440"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type updateTimeEntryRequest struct {
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Minutes     *int    `json:"minutes" validate:"omitempty,min=1,max=1440"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// timeEntryQuery holds the optional list filters.
type timeEntryQuery struct {
	ProjectID *string `json:"projectId" validate:"omitempty,uuid"`
	From      *string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To        *string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type weekResponse struct {
	WeekStart string             `json:"weekStart"`
	Entries   []models.TimeEntry `json:"entries"`
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func filterFromQuery(r *http.Request) (models.TimeEntryFilter, error) {
	q := timeEntryQuery{
		ProjectID: optionalQuery(r, "projectId"),
		From:      optionalQuery(r, "from"),
		To:        optionalQuery(r, "to"),
	}
	if err := validateStruct(&q); err != nil {
		return models.TimeEntryFilter{}, err
	}
	return models.TimeEntryFilter{ProjectID: q.ProjectID, From: q.From, To: q.To}, nil
}

func entriesOrEmpty(list []models.TimeEntry) []models.TimeEntry {
	if list == nil {
		return []models.TimeEntry{}
	}
	return list
}

func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id, _ := IdentityFromContext(r.Context())
	list, err := h.entries.List(r.Context(), id, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entriesOrEmpty(list))
}

// mondayOf returns the Monday of the ISO week containing d.
func mondayOf(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekTimeEntries returns the week containing ?start= (or ?date=), today if
// neither is given. The week starts on Monday.
func (h *Handler) WeekTimeEntries(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("start")
	if raw == "" {
		raw = r.URL.Query().Get("date")
	}

	day := h.now().UTC()
	if raw != "" {
		parsed, err := time.Parse(common.DateLayout, raw)
		if err != nil {
			h.fail(w, r, invalid("start must be a date (YYYY-MM-DD)"))
			return
		}
		day = parsed
	}
	start := mondayOf(day).Format(common.DateLayout)

	id, _ := IdentityFromContext(r.Context())
	list, err := h.entries.Week(r.Context(), id, start)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, weekResponse{WeekStart: start, Entries: entriesOrEmpty(list)})
}

func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	e, err := h.entries.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

// UpsertTimeEntry records minutes for a project on a day, replacing an
// existing entry for the same day.
func (h *Handler) UpsertTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req upsertTimeEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	id, _ := IdentityFromContext(r.Context())
	e, err := h.entries.Upsert(r.Context(), id, models.TimeEntryInput{
		ProjectID:   req.ProjectID,
		Date:        req.Date,
		Minutes:     req.Minutes,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (h *Handler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req updateTimeEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	id, _ := IdentityFromContext(r.Context())
	e, err := h.entries.Update(r.Context(), id, chi.URLParam(r, "id"), models.TimeEntryUpdate{
		Date:        req.Date,
		Minutes:     req.Minutes,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	if err := h.entries.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, "time entry deleted")
}
