package models

import "time"

type TimeEntry struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Date        string    `json:"date"`
	Minutes     int       `json:"minutes"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Project *ProjectRef `json:"project,omitempty"`
}

// ProjectRef is the project summary embedded in time entry listings.
type ProjectRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HourlyRate *int64 `json:"hourlyRate"`
	IsActive   bool   `json:"isActive"`
}

// TimeEntryFilter narrows a listing. Each field is optional and independent.
type TimeEntryFilter struct {
	ProjectID *string
	From      *string
	To        *string
}

// TimeEntryUpdate carries a partial update; nil fields are left unchanged.
type TimeEntryUpdate struct {
	Date        *string
	Minutes     *int
	Description *string
}

// TimeEntryInput records minutes for a project on a day. Entries are unique
// per (project, date); recording again overwrites.
type TimeEntryInput struct {
	ProjectID   string
	Date        string
	Minutes     int
	Description *string
}
