package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-booking-api/internal/models"
	"github.com/noah-isme/fitness-booking-api/internal/repository"
	appErrors "github.com/noah-isme/fitness-booking-api/pkg/errors"
)

type memStore struct {
	mu              sync.Mutex
	classes         []models.ClassSlot
	bookings        []models.Booking
	classErr        error
	bookingErr      error
	classWrites     int
	bookingWrites   int
	classesNotFound bool
}

func (s *memStore) LoadClasses(ctx context.Context) ([]models.ClassSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classesNotFound || s.classes == nil {
		return nil, repository.ErrSnapshotNotFound
	}
	return append([]models.ClassSlot(nil), s.classes...), nil
}

func (s *memStore) LoadBookings(ctx context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking{}, s.bookings...), nil
}

func (s *memStore) PersistClasses(ctx context.Context, classes []models.ClassSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.classErr != nil {
		return s.classErr
	}
	s.classWrites++
	s.classesNotFound = false
	s.classes = append([]models.ClassSlot(nil), classes...)
	return nil
}

func (s *memStore) PersistBookings(ctx context.Context, bookings []models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookingErr != nil {
		return s.bookingErr
	}
	s.bookingWrites++
	s.bookings = append([]models.Booking(nil), bookings...)
	return nil
}

func (s *memStore) persistedRemaining(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.classes {
		if c.ID == id {
			return c.RemainingCapacity
		}
	}
	return -1
}

func testClasses() []models.ClassSlot {
	start := time.Date(2025, time.June, 9, 1, 30, 0, 0, time.UTC)
	return []models.ClassSlot{
		{ID: "yoga", Name: "Yoga", Instructor: "Alice", StartTime: start, Timezone: "Asia/Kolkata", Capacity: 1, RemainingCapacity: 1},
		{ID: "zumba", Name: "Zumba", Instructor: "Bob", StartTime: start.Add(2 * time.Hour), Timezone: "Asia/Kolkata", Capacity: 5, RemainingCapacity: 5},
	}
}

func newAllocatorForTest(t *testing.T, classes []models.ClassSlot) (*Allocator, *Catalog, *BookingIndex, *memStore) {
	t.Helper()
	catalog, err := NewCatalog(classes)
	require.NoError(t, err)
	index := NewBookingIndex(nil)
	store := &memStore{classes: classes}
	return NewAllocator(catalog, index, store, NewMetricsService(), zap.NewNop()), catalog, index, store
}

func TestAllocatorBookSuccess(t *testing.T) {
	alloc, catalog, index, store := newAllocatorForTest(t, testClasses())
	alloc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	booking, err := alloc.Book(context.Background(), "zumba", "Jane", "jane@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "zumba", booking.ClassID)
	assert.Equal(t, "Zumba", booking.ClassName)
	assert.Equal(t, "Jane", booking.ClientName)
	assert.Equal(t, "jane@example.com", booking.ClientEmail)
	assert.True(t, booking.ClassTime.Equal(testClasses()[1].StartTime))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), booking.CreatedAt)

	class, ok := catalog.FindByID("zumba")
	require.True(t, ok)
	assert.Equal(t, 4, class.RemainingCapacity)
	assert.Equal(t, 4, store.persistedRemaining("zumba"))
	assert.Equal(t, 1, index.Len())
	assert.Len(t, store.bookings, 1)
}

func TestAllocatorSingleSlotThenExhausted(t *testing.T) {
	alloc, catalog, index, _ := newAllocatorForTest(t, testClasses())

	_, err := alloc.Book(context.Background(), "yoga", "Jane", "jane@example.com")
	require.NoError(t, err)

	_, err = alloc.Book(context.Background(), "yoga", "John", "john@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrCapacityExhausted)

	class, _ := catalog.FindByID("yoga")
	assert.Equal(t, 0, class.RemainingCapacity)
	assert.Equal(t, 1, index.Len())
}

func TestAllocatorUnknownClass(t *testing.T) {
	alloc, catalog, index, store := newAllocatorForTest(t, testClasses())

	_, err := alloc.Book(context.Background(), "pilates", "Jane", "jane@example.com")
	assert.ErrorIs(t, err, appErrors.ErrClassNotFound)
	assert.Equal(t, testClasses(), catalog.List())
	assert.Equal(t, 0, index.Len())
	assert.Equal(t, 0, store.classWrites)
}

func TestAllocatorClassPersistFailureLeavesCapacity(t *testing.T) {
	alloc, catalog, index, store := newAllocatorForTest(t, testClasses())
	store.classErr = errors.New("disk full")

	_, err := alloc.Book(context.Background(), "zumba", "Jane", "jane@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrPersistence)

	class, _ := catalog.FindByID("zumba")
	assert.Equal(t, 5, class.RemainingCapacity)
	assert.Equal(t, 0, index.Len())
	assert.Equal(t, 0, store.bookingWrites)
}

func TestAllocatorBookingPersistFailureKeepsSlotConsumed(t *testing.T) {
	alloc, catalog, index, store := newAllocatorForTest(t, testClasses())
	store.bookingErr = errors.New("disk full")

	_, err := alloc.Book(context.Background(), "zumba", "Jane", "jane@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrBookingNotRecorded)
	assert.False(t, errors.Is(err, appErrors.ErrPersistence))

	class, _ := catalog.FindByID("zumba")
	assert.Equal(t, 4, class.RemainingCapacity)
	assert.Equal(t, 4, store.persistedRemaining("zumba"))
	assert.Equal(t, 0, index.Len())
}

func TestAllocatorCancelledBeforeLock(t *testing.T) {
	alloc, catalog, _, store := newAllocatorForTest(t, testClasses())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := alloc.Book(ctx, "zumba", "Jane", "jane@example.com")
	assert.ErrorIs(t, err, context.Canceled)

	class, _ := catalog.FindByID("zumba")
	assert.Equal(t, 5, class.RemainingCapacity)
	assert.Equal(t, 0, store.classWrites)
}

func TestAllocatorConcurrentBookingsNeverOversell(t *testing.T) {
	const capacity = 3
	const attempts = 25
	classes := []models.ClassSlot{{ID: "hiit", Name: "HIIT", Capacity: capacity, RemainingCapacity: capacity, StartTime: time.Now()}}
	alloc, catalog, index, store := newAllocatorForTest(t, classes)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		exhausted int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := alloc.Book(context.Background(), "hiit", fmt.Sprintf("client-%d", n), fmt.Sprintf("client-%d@example.com", n))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case errors.Is(err, appErrors.ErrCapacityExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, confirmed)
	assert.Equal(t, attempts-capacity, exhausted)

	class, _ := catalog.FindByID("hiit")
	assert.Equal(t, 0, class.RemainingCapacity)
	assert.Equal(t, capacity, index.CountByClass("hiit"))
	assert.Equal(t, 0, store.persistedRemaining("hiit"))
	assert.Len(t, store.bookings, capacity)
}

func TestAllocatorConservesCapacity(t *testing.T) {
	alloc, catalog, index, _ := newAllocatorForTest(t, testClasses())

	for i := 0; i < 8; i++ {
		_, _ = alloc.Book(context.Background(), "zumba", "Jane", "jane@example.com")
		_, _ = alloc.Book(context.Background(), "yoga", "Jane", "jane@example.com")
	}

	for _, class := range catalog.List() {
		assert.GreaterOrEqual(t, class.RemainingCapacity, 0)
		assert.Equal(t, class.Capacity, class.RemainingCapacity+index.CountByClass(class.ID), class.ID)
	}
}

func TestAllocatorIssuesUniqueIDs(t *testing.T) {
	classes := []models.ClassSlot{{ID: "big", Name: "Big", Capacity: 50, RemainingCapacity: 50}}
	alloc, _, _, _ := newAllocatorForTest(t, classes)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		b, err := alloc.Book(context.Background(), "big", "Jane", "jane@example.com")
		require.NoError(t, err)
		_, dup := seen[b.ID]
		require.False(t, dup, "duplicate booking id %s", b.ID)
		seen[b.ID] = struct{}{}
	}
}
