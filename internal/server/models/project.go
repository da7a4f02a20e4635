package models

import "time"

// Project lives in a per-identity store. HourlyRate is in minor currency
// units. Dates are calendar days formatted as YYYY-MM-DD.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	HourlyRate  *int64    `json:"hourlyRate"`
	StartDate   string    `json:"startDate"`
	EndDate     *string   `json:"endDate"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectWithStats adds aggregated time to a Project. TotalAmount is nil when
// the project has no hourly rate.
type ProjectWithStats struct {
	Project
	TotalMinutes int64  `json:"totalMinutes"`
	TotalAmount  *int64 `json:"totalAmount"`
}

// ProjectUpdate carries a partial update; nil fields are left unchanged.
// ClearEndDate removes the end date, since a nil EndDate means "keep".
type ProjectUpdate struct {
	Name         *string
	Description  *string
	HourlyRate   *int64
	StartDate    *string
	EndDate      *string
	ClearEndDate bool
	IsActive     *bool
}

// ProjectInput is the data needed to create a project.
type ProjectInput struct {
	Name        string
	Description *string
	HourlyRate  *int64
	StartDate   string
	EndDate     *string
}
