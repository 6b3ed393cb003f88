package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-booking-api/internal/dto"
	"github.com/noah-isme/fitness-booking-api/internal/models"
	appErrors "github.com/noah-isme/fitness-booking-api/pkg/errors"
)

type memCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	deletes []string
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: map[string][]byte{}}
}

func (r *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = raw
	return nil
}

func (r *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	bookings []models.Booking
}

func (d *recordingDispatcher) Dispatch(booking models.Booking) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bookings = append(d.bookings, booking)
}

func newBookingServiceForTest(t *testing.T, store *memStore, cache *CacheService) (*BookingService, *recordingDispatcher) {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	svc := NewBookingService(store, cache, dispatcher, NewMetricsService(), nil, zap.NewNop(), "Asia/Kolkata")
	require.NoError(t, svc.Bootstrap(context.Background()))
	return svc, dispatcher
}

func TestBookingServiceBootstrapSeedsEmptyStore(t *testing.T) {
	store := &memStore{}
	svc, _ := newBookingServiceForTest(t, store, nil)

	assert.Equal(t, 1, store.classWrites)
	require.Len(t, store.classes, 3)

	views, err := svc.ListClasses(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Yoga", views[0].Name)
	assert.Equal(t, "2025-06-09T07:00:00+05:30", views[0].DisplayTime)
	assert.Equal(t, 5, views[0].RemainingCapacity)
}

func TestBookingServiceBootstrapLoadsExistingState(t *testing.T) {
	store := &memStore{
		classes:  testClasses(),
		bookings: []models.Booking{{ID: "b1", ClassID: "zumba", ClientEmail: "jane@example.com"}},
	}
	svc, _ := newBookingServiceForTest(t, store, nil)

	assert.Equal(t, 0, store.classWrites)
	bookings, err := svc.ListBookings(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestBookingServiceBootstrapFailsOnBrokenStore(t *testing.T) {
	store := &memStore{classErr: errors.New("read only")}
	svc := NewBookingService(store, nil, nil, nil, nil, nil, "")
	assert.Error(t, svc.Bootstrap(context.Background()))
}

func TestBookingServiceListClassesTimezones(t *testing.T) {
	svc, _ := newBookingServiceForTest(t, &memStore{classes: testClasses()}, nil)

	utc, err := svc.ListClasses(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09T01:30:00Z", utc[0].DisplayTime)

	ny, err := svc.ListClasses(context.Background(), "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-08T21:30:00-04:00", ny[0].DisplayTime)

	// Every rendering names the same instant.
	a, err := time.Parse(time.RFC3339, utc[0].DisplayTime)
	require.NoError(t, err)
	b, err := time.Parse(time.RFC3339, ny[0].DisplayTime)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestBookingServiceListClassesInvalidTimezone(t *testing.T) {
	svc, _ := newBookingServiceForTest(t, &memStore{classes: testClasses()}, nil)

	views, err := svc.ListClasses(context.Background(), "Mars/Olympus")
	assert.Nil(t, views)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTimezone)
}

func TestBookingServiceListClassesIsIdempotent(t *testing.T) {
	svc, _ := newBookingServiceForTest(t, &memStore{classes: testClasses()}, nil)

	first, err := svc.ListClasses(context.Background(), "UTC")
	require.NoError(t, err)
	second, err := svc.ListClasses(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBookingServiceBookClass(t *testing.T) {
	store := &memStore{classes: testClasses()}
	svc, dispatcher := newBookingServiceForTest(t, store, nil)

	resp, err := svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "zumba", ClientName: " Jane ", ClientEmail: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Booking successful", resp.Message)
	assert.NotEmpty(t, resp.BookingID)

	remaining, ok := svc.RemainingCapacity("zumba")
	require.True(t, ok)
	assert.Equal(t, 4, remaining)

	bookings, err := svc.ListBookings(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, resp.BookingID, bookings[0].ID)
	assert.Equal(t, "Jane", bookings[0].ClientName)

	require.Len(t, dispatcher.bookings, 1)
	assert.Equal(t, resp.BookingID, dispatcher.bookings[0].ID)
}

func TestBookingServiceBookClassValidation(t *testing.T) {
	store := &memStore{classes: testClasses()}
	svc, dispatcher := newBookingServiceForTest(t, store, nil)

	cases := []dto.BookClassRequest{
		{ClientName: "Jane", ClientEmail: "jane@example.com"},
		{ClassID: "zumba", ClientEmail: "jane@example.com"},
		{ClassID: "zumba", ClientName: "Jane", ClientEmail: "not-an-email"},
	}
	for _, req := range cases {
		_, err := svc.BookClass(context.Background(), req)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
	assert.Equal(t, 0, store.classWrites)
	assert.Empty(t, dispatcher.bookings)
}

func TestBookingServiceBookClassErrors(t *testing.T) {
	svc, dispatcher := newBookingServiceForTest(t, &memStore{classes: testClasses()}, nil)

	_, err := svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "missing", ClientName: "Jane", ClientEmail: "jane@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrClassNotFound)

	_, err = svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "yoga", ClientName: "Jane", ClientEmail: "jane@example.com"})
	require.NoError(t, err)
	_, err = svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "yoga", ClientName: "John", ClientEmail: "john@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrCapacityExhausted)

	assert.Len(t, dispatcher.bookings, 1)
}

func TestBookingServiceCachesListingAndInvalidatesOnBooking(t *testing.T) {
	repo := newMemCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc, _ := newBookingServiceForTest(t, &memStore{classes: testClasses()}, cache)

	first, err := svc.ListClasses(context.Background(), "UTC")
	require.NoError(t, err)
	require.Contains(t, repo.entries, "classes:UTC")

	second, err := svc.ListClasses(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "zumba", ClientName: "Jane", ClientEmail: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"classes:*"}, repo.deletes)
	assert.NotContains(t, repo.entries, "classes:UTC")

	third, err := svc.ListClasses(context.Background(), "UTC")
	require.NoError(t, err)
	assert.Equal(t, 4, third[1].RemainingCapacity)
}

func TestBookingServiceExportBookings(t *testing.T) {
	svc, _ := newBookingServiceForTest(t, &memStore{classes: testClasses()}, nil)
	_, err := svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "zumba", ClientName: "Jane", ClientEmail: "jane@example.com"})
	require.NoError(t, err)

	csvExport, err := svc.ExportBookings(context.Background(), "jane@example.com", dto.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", csvExport.ContentType)
	assert.Equal(t, "bookings-1.csv", csvExport.Filename)
	assert.Contains(t, string(csvExport.Body), "Zumba")

	pdfExport, err := svc.ExportBookings(context.Background(), "jane@example.com", dto.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfExport.ContentType)
	assert.True(t, strings.HasPrefix(string(pdfExport.Body), "%PDF"))

	_, err = svc.ExportBookings(context.Background(), "jane@example.com", dto.ExportFormat("xlsx"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ExportBookings(context.Background(), "", dto.ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestBookingServiceListBookingsByIdentity(t *testing.T) {
	svc, _ := newBookingServiceForTest(t, &memStore{classes: testClasses()}, nil)
	for _, email := range []string{"jane@example.com", "john@example.com", "jane@example.com"} {
		_, err := svc.BookClass(context.Background(), dto.BookClassRequest{ClassID: "zumba", ClientName: "Client", ClientEmail: email})
		require.NoError(t, err)
	}

	jane, err := svc.ListBookings(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.Len(t, jane, 2)
	for _, b := range jane {
		assert.Equal(t, "jane@example.com", b.ClientEmail)
	}
	assert.False(t, jane[1].CreatedAt.Before(jane[0].CreatedAt))

	nobody, err := svc.ListBookings(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.NotNil(t, nobody)
	assert.Empty(t, nobody)

	_, err = svc.ListBookings(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
