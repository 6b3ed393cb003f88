package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitness-booking-api/internal/models"
	"github.com/noah-isme/fitness-booking-api/pkg/jobs"
)

// JobTypeBookingCreated is the queue job type for confirmed bookings.
const JobTypeBookingCreated = "booking.created"

// EventPublisher sends an encoded event to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload []byte) error
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// BookingCreatedEvent is the payload published for every confirmed booking.
type BookingCreatedEvent struct {
	BookingID   string    `json:"booking_id"`
	ClassID     string    `json:"class_id"`
	ClassName   string    `json:"class_name"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClassTime   time.Time `json:"class_time"`
	BookedAt    time.Time `json:"booked_at"`
}

// BookingEvents hands confirmed bookings to the background queue so broker
// latency never reaches the booking request.
type BookingEvents struct {
	queue     jobEnqueuer
	publisher EventPublisher
	logger    *zap.Logger
}

// NewBookingEvents constructs the dispatcher. Call SetQueue before dispatching.
func NewBookingEvents(publisher EventPublisher, logger *zap.Logger) *BookingEvents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingEvents{publisher: publisher, logger: logger}
}

// SetQueue attaches the queue whose handler is HandleJob.
func (e *BookingEvents) SetQueue(queue jobEnqueuer) {
	e.queue = queue
}

// Dispatch schedules publication of a confirmed booking. It never blocks and
// never fails the caller; a full queue drops the event with a warning.
func (e *BookingEvents) Dispatch(booking models.Booking) {
	if e == nil || e.queue == nil || e.publisher == nil {
		return
	}
	err := e.queue.TryEnqueue(jobs.Job{
		ID:      booking.ID,
		Type:    JobTypeBookingCreated,
		Payload: booking,
	})
	if err != nil {
		e.logger.Warn("booking event dropped", zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

// HandleJob is the jobs.Handler for booking events.
func (e *BookingEvents) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeBookingCreated {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	booking, ok := job.Payload.(models.Booking)
	if !ok {
		e.logger.Error("invalid booking event payload", zap.String("job_id", job.ID))
		return nil
	}
	payload, err := json.Marshal(BookingCreatedEvent{
		BookingID:   booking.ID,
		ClassID:     booking.ClassID,
		ClassName:   booking.ClassName,
		ClientName:  booking.ClientName,
		ClientEmail: booking.ClientEmail,
		ClassTime:   booking.ClassTime.UTC(),
		BookedAt:    booking.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}
	return e.publisher.Publish(ctx, JobTypeBookingCreated, booking.ClassID, payload)
}
