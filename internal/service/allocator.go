package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-booking-api/internal/models"
	appErrors "github.com/noah-isme/fitness-booking-api/pkg/errors"
)

// SnapshotStore persists full copies of the catalog and the booking index.
type SnapshotStore interface {
	LoadClasses(ctx context.Context) ([]models.ClassSlot, error)
	LoadBookings(ctx context.Context) ([]models.Booking, error)
	PersistClasses(ctx context.Context, classes []models.ClassSlot) error
	PersistBookings(ctx context.Context, bookings []models.Booking) error
}

// Allocator is the only writer of class capacity and bookings. A single
// process-wide mutex covers the whole check, decrement, persist, mint, persist
// sequence because each persist rewrites a complete snapshot: two writers
// racing on the same file would drop one another's update.
type Allocator struct {
	mu      sync.Mutex
	catalog *Catalog
	index   *BookingIndex
	store   SnapshotStore
	metrics *MetricsService
	logger  *zap.Logger

	newID func() string
	now   func() time.Time
}

// NewAllocator wires an allocator over the shared catalog and index.
func NewAllocator(catalog *Catalog, index *BookingIndex, store SnapshotStore, metrics *MetricsService, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		catalog: catalog,
		index:   index,
		store:   store,
		metrics: metrics,
		logger:  logger,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Book reserves one slot of classID for the requester.
//
// Cancellation is honoured only before the exclusive section is entered. Once
// inside, the sequence runs to completion on a context detached from the
// caller, since no partial rollback is defined past that point.
func (a *Allocator) Book(ctx context.Context, classID, clientName, clientEmail string) (models.Booking, error) {
	if err := ctx.Err(); err != nil {
		a.metrics.RecordBooking(OutcomeCancelled)
		return models.Booking{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	class, ok := a.catalog.FindByID(classID)
	if !ok {
		a.metrics.RecordBooking(OutcomeClassNotFound)
		a.logger.Warn("booking failed: class not found", zap.String("class_id", classID))
		return models.Booking{}, appErrors.Clone(appErrors.ErrClassNotFound, "")
	}
	if class.RemainingCapacity <= 0 {
		a.metrics.RecordBooking(OutcomeCapacityExhausted)
		a.logger.Warn("booking failed: no available slots", zap.String("class_id", classID), zap.String("class_name", class.Name))
		return models.Booking{}, appErrors.Clone(appErrors.ErrCapacityExhausted, "")
	}

	// The decremented catalog is written before it becomes visible in memory,
	// so a failed write leaves nothing to revert.
	staged, err := a.catalog.stagedAdjust(classID, -1)
	if err != nil {
		a.metrics.RecordBooking(OutcomePersistenceFailure)
		return models.Booking{}, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to stage capacity change")
	}
	if err := a.persistClasses(ctx, staged); err != nil {
		a.metrics.RecordBooking(OutcomePersistenceFailure)
		a.logger.Error("booking failed: class snapshot not persisted", zap.String("class_id", classID), zap.Error(err))
		return models.Booking{}, appErrors.WrapAs(appErrors.ErrPersistence, err, "")
	}
	committed, err := a.catalog.adjustCapacity(classID, -1)
	if err != nil {
		// Unreachable while the mutex is held: the staged check above already passed.
		a.metrics.RecordBooking(OutcomePersistenceFailure)
		return models.Booking{}, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to commit capacity change")
	}
	a.metrics.SetRemainingCapacity(committed.ID, committed.Name, committed.RemainingCapacity)

	booking := models.Booking{
		ID:          a.newID(),
		ClassID:     class.ID,
		ClassName:   class.Name,
		ClientName:  clientName,
		ClientEmail: clientEmail,
		ClassTime:   class.StartTime,
		CreatedAt:   a.now(),
	}

	if err := a.persistBookings(ctx, a.index.stagedAppend(booking)); err != nil {
		// The slot stays consumed: giving it back would let a retry double-book
		// against a booking the client may already believe exists.
		a.metrics.RecordBooking(OutcomeNotRecorded)
		a.logger.Error("booking not recorded after capacity was consumed",
			zap.String("booking_id", booking.ID),
			zap.String("class_id", booking.ClassID),
			zap.String("client_email", booking.ClientEmail),
			zap.Error(err),
		)
		return models.Booking{}, appErrors.WrapAs(appErrors.ErrBookingNotRecorded, err, "")
	}
	a.index.append(booking)

	a.metrics.RecordBooking(OutcomeConfirmed)
	a.logger.Info("booking successful",
		zap.String("booking_id", booking.ID),
		zap.String("class_id", class.ID),
		zap.String("class_name", class.Name),
		zap.Int("remaining", committed.RemainingCapacity),
	)
	return booking, nil
}

func (a *Allocator) persistClasses(ctx context.Context, classes []models.ClassSlot) error {
	start := time.Now()
	err := a.store.PersistClasses(ctx, classes)
	a.metrics.ObservePersist("classes", err, time.Since(start))
	return err
}

func (a *Allocator) persistBookings(ctx context.Context, bookings []models.Booking) error {
	start := time.Now()
	err := a.store.PersistBookings(ctx, bookings)
	a.metrics.ObservePersist("bookings", err, time.Since(start))
	return err
}
