package models

import "time"

// Booking is a confirmed reservation against a ClassSlot. ClassName and
// ClassTime are copied at booking time and never refreshed.
type Booking struct {
	ID          string    `db:"booking_id" json:"booking_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	ClassName   string    `db:"class_name" json:"class_name"`
	ClientName  string    `db:"client_name" json:"client_name"`
	ClientEmail string    `db:"client_email" json:"client_email"`
	ClassTime   time.Time `db:"class_time" json:"class_time"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
