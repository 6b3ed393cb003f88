package service

import (
	"sync"

	"github.com/noah-isme/fitness-booking-api/internal/models"
)

// BookingIndex holds issued bookings in creation order.
type BookingIndex struct {
	mu       sync.RWMutex
	bookings []models.Booking
}

// NewBookingIndex builds an index from previously persisted bookings.
func NewBookingIndex(bookings []models.Booking) *BookingIndex {
	idx := &BookingIndex{}
	idx.replace(bookings)
	return idx
}

// ListByIdentity returns the bookings whose ClientEmail equals identity
// exactly, oldest first. No case folding is applied.
func (i *BookingIndex) ListByIdentity(identity string) []models.Booking {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]models.Booking, 0)
	for _, b := range i.bookings {
		if b.ClientEmail == identity {
			out = append(out, b)
		}
	}
	return out
}

// CountByClass returns how many bookings reference classID.
func (i *BookingIndex) CountByClass(classID string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	n := 0
	for _, b := range i.bookings {
		if b.ClassID == classID {
			n++
		}
	}
	return n
}

// Len reports the number of bookings.
func (i *BookingIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.bookings)
}

func (i *BookingIndex) replace(bookings []models.Booking) {
	copied := make([]models.Booking, len(bookings))
	copy(copied, bookings)
	i.mu.Lock()
	i.bookings = copied
	i.mu.Unlock()
}

// stagedAppend returns a copy of the index with b appended.
func (i *BookingIndex) stagedAppend(b models.Booking) []models.Booking {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]models.Booking, len(i.bookings), len(i.bookings)+1)
	copy(out, i.bookings)
	return append(out, b)
}

func (i *BookingIndex) append(b models.Booking) {
	i.mu.Lock()
	i.bookings = append(i.bookings, b)
	i.mu.Unlock()
}
