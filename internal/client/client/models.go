package client

import "time"

type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Project struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	HourlyRate   *int64  `json:"hourlyRate"`
	StartDate    string  `json:"startDate"`
	EndDate      *string `json:"endDate"`
	IsActive     bool    `json:"isActive"`
	TotalMinutes int64   `json:"totalMinutes"`
	TotalAmount  *int64  `json:"totalAmount"`
}

// Session holds the tokens of a logged-in user.
type Session struct {
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
