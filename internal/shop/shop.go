package shop

import "time"

type Shop struct {
	ID          string
	Domain      string
	AccessToken string
	Scopes      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
