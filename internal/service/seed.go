package service

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"github.com/noah-isme/fitness-booking-api/internal/models"
)

const seedTimezone = "Asia/Kolkata"

type seedClass struct {
	name       string
	instructor string
	year       int
	month      time.Month
	day        int
	hour       int
	capacity   int
}

var defaultSeed = []seedClass{
	{name: "Yoga", instructor: "Alice", year: 2025, month: time.June, day: 9, hour: 7, capacity: 5},
	{name: "Zumba", instructor: "Bob", year: 2025, month: time.June, day: 9, hour: 9, capacity: 5},
	{name: "HIIT", instructor: "Charlie", year: 2025, month: time.June, day: 10, hour: 18, capacity: 3},
}

// DefaultClasses returns the catalog written on first start. Each call mints
// fresh ids.
func DefaultClasses() ([]models.ClassSlot, error) {
	loc, err := time.LoadLocation(seedTimezone)
	if err != nil {
		return nil, fmt.Errorf("load seed timezone: %w", err)
	}

	classes := make([]models.ClassSlot, 0, len(defaultSeed))
	for _, s := range defaultSeed {
		classes = append(classes, models.ClassSlot{
			ID:                uuid.NewString(),
			Name:              s.name,
			Instructor:        s.instructor,
			StartTime:         time.Date(s.year, s.month, s.day, s.hour, 0, 0, 0, loc),
			Timezone:          seedTimezone,
			Capacity:          s.capacity,
			RemainingCapacity: s.capacity,
		})
	}
	return classes, nil
}
