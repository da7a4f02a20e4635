package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type createProjectRequest struct {
	Name        string  `json:"name" validate:"min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	HourlyRate  *int64  `json:"hourlyRate" validate:"omitempty,min=0"`
	StartDate   string  `json:"startDate" validate:"day"`
	EndDate     *string `json:"endDate" validate:"omitempty,day"`
}

// nullableString tells an explicit null apart from an absent field.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

type updateProjectRequest struct {
	Name        *string        `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string        `json:"description" validate:"omitempty,max=500"`
	HourlyRate  *int64         `json:"hourlyRate" validate:"omitempty,min=0"`
	StartDate   *string        `json:"startDate" validate:"omitempty,day"`
	EndDate     nullableString `json:"endDate" validate:"-"`
	IsActive    *bool          `json:"isActive"`
}

func (req *createProjectRequest) toInput() (models.ProjectInput, error) {
	if err := validateStruct(req); err != nil {
		return models.ProjectInput{}, err
	}
	start, _ := normalizeDate(req.StartDate)
	in := models.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		StartDate:   start,
	}
	if req.EndDate != nil {
		end, _ := normalizeDate(*req.EndDate)
		in.EndDate = &end
	}
	return in, nil
}

func (req *updateProjectRequest) toUpdate() (models.ProjectUpdate, error) {
	upd := models.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		IsActive:    req.IsActive,
	}
	if err := validateStruct(req); err != nil {
		return upd, err
	}
	if req.StartDate != nil {
		start, _ := normalizeDate(*req.StartDate)
		upd.StartDate = &start
	}
	if req.EndDate.Set {
		if req.EndDate.Value == nil {
			upd.ClearEndDate = true
		} else {
			end, err := normalizeDate(*req.EndDate.Value)
			if err != nil {
				return upd, invalid("endDate must be a date (YYYY-MM-DD)")
			}
			upd.EndDate = &end
		}
	}
	return upd, nil
}

// ListProjects returns active projects, or all with ?includeInactive=true.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	includeInactive := r.URL.Query().Get("includeInactive") == "true"

	list, err := h.projects.List(r.Context(), id, includeInactive)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.ProjectWithStats{}
	}
	writeData(w, http.StatusOK, list)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	p, err := h.projects.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id, _ := IdentityFromContext(r.Context())
	p, err := h.projects.Create(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	upd, err := req.toUpdate()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id, _ := IdentityFromContext(r.Context())
	p, err := h.projects.Update(r.Context(), id, chi.URLParam(r, "id"), upd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	if err := h.projects.Delete(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, "project deleted")
}
