package entity

import "time"

// Event is a calendar entry owned by a single user.
type Event struct {
	ID        int64
	UserID    int64
	Title     string
	StartsAt  time.Time
	EndsAt    time.Time
	Location  *string
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
