package models

import "time"

// ClassSlot is a bookable fitness class with a fixed start instant.
type ClassSlot struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Instructor string `db:"instructor" json:"instructor"`
	// StartTime is the absolute instant; Timezone is the IANA zone it was authored in.
	StartTime         time.Time `db:"start_time" json:"datetime"`
	Timezone          string    `db:"timezone" json:"timezone"`
	Capacity          int       `db:"capacity" json:"capacity"`
	RemainingCapacity int       `db:"available_slots" json:"available_slots"`
}
