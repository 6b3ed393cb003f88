package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/fitness-booking-api/internal/dto"
	"github.com/noah-isme/fitness-booking-api/internal/models"
	"github.com/noah-isme/fitness-booking-api/internal/repository"
	appErrors "github.com/noah-isme/fitness-booking-api/pkg/errors"
	"github.com/noah-isme/fitness-booking-api/pkg/export"
)

const (
	classCacheKeyPrefix = "classes:"
	bookingSuccessMsg   = "Booking successful"
)

type bookingDispatcher interface {
	Dispatch(booking models.Booking)
}

// BookingService is the state container behind the HTTP layer. It owns the
// catalog, the booking index and the allocator that mutates them.
type BookingService struct {
	store      SnapshotStore
	catalog    *Catalog
	index      *BookingIndex
	allocator  *Allocator
	cache      *CacheService
	dispatcher bookingDispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger

	defaultTimezone string
	seed            func() ([]models.ClassSlot, error)
}

// NewBookingService constructs BookingService with an empty catalog; call
// Bootstrap to load persisted state.
func NewBookingService(store SnapshotStore, cache *CacheService, dispatcher bookingDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultTimezone string) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = seedTimezone
	}
	catalog := &Catalog{byID: map[string]int{}}
	index := NewBookingIndex(nil)
	return &BookingService{
		store:           store,
		catalog:         catalog,
		index:           index,
		allocator:       NewAllocator(catalog, index, store, metrics, logger),
		cache:           cache,
		dispatcher:      dispatcher,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		defaultTimezone: defaultTimezone,
		seed:            DefaultClasses,
	}
}

// Bootstrap loads classes and bookings from the store. When no class snapshot
// exists the default catalog is seeded and persisted immediately.
func (s *BookingService) Bootstrap(ctx context.Context) error {
	classes, err := s.store.LoadClasses(ctx)
	switch {
	case errors.Is(err, repository.ErrSnapshotNotFound):
		classes, err = s.seed()
		if err != nil {
			return fmt.Errorf("seed classes: %w", err)
		}
		if err := s.store.PersistClasses(ctx, classes); err != nil {
			return fmt.Errorf("persist seeded classes: %w", err)
		}
		s.logger.Info("seeded initial classes", zap.Int("count", len(classes)))
	case err != nil:
		return fmt.Errorf("load classes: %w", err)
	default:
		s.logger.Info("loaded classes", zap.Int("count", len(classes)))
	}

	bookings, err := s.store.LoadBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	if err := s.catalog.replace(classes); err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	s.index.replace(bookings)
	for _, class := range classes {
		s.metrics.SetRemainingCapacity(class.ID, class.Name, class.RemainingCapacity)
	}
	s.logger.Info("booking state ready", zap.Int("classes", len(classes)), zap.Int("bookings", len(bookings)))
	return nil
}

// ListClasses renders the catalog in the requested timezone. An empty
// timezone selects the configured default. The zone is resolved before any
// class is read.
func (s *BookingService) ListClasses(ctx context.Context, timezone string) ([]dto.ClassView, error) {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.logger.Warn("invalid timezone requested", zap.String("timezone", timezone))
		return nil, appErrors.WrapAs(appErrors.ErrInvalidTimezone, err, fmt.Sprintf("invalid timezone %q", timezone))
	}

	cacheKey := classCacheKeyPrefix + loc.String()
	var cached []dto.ClassView
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	classes := s.catalog.List()
	views := make([]dto.ClassView, 0, len(classes))
	for _, class := range classes {
		views = append(views, dto.ClassView{
			ID:                class.ID,
			Name:              class.Name,
			Instructor:        class.Instructor,
			DisplayTime:       class.StartTime.In(loc).Format(time.RFC3339),
			RemainingCapacity: class.RemainingCapacity,
		})
	}

	s.cache.Set(ctx, cacheKey, views, 0)
	s.logger.Debug("listed classes", zap.Int("count", len(views)), zap.String("timezone", timezone))
	return views, nil
}

// BookClass validates the request and reserves a slot.
func (s *BookingService) BookClass(ctx context.Context, req dto.BookClassRequest) (*dto.BookClassResponse, error) {
	req.ClassID = strings.TrimSpace(req.ClassID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err, "invalid booking payload")
	}

	booking, err := s.allocator.Book(ctx, req.ClassID, req.ClientName, req.ClientEmail)
	if err != nil {
		return nil, err
	}

	// Outside the allocator lock: cache and broker calls may block on the network.
	s.cache.Invalidate(context.WithoutCancel(ctx), classCacheKeyPrefix+"*")
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(booking)
	}

	return &dto.BookClassResponse{Message: bookingSuccessMsg, BookingID: booking.ID}, nil
}

// ListBookings returns the bookings made with the given email, oldest first.
// An unknown identity yields an empty slice.
func (s *BookingService) ListBookings(ctx context.Context, email string) ([]models.Booking, error) {
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	bookings := s.index.ListByIdentity(email)
	s.logger.Debug("listed bookings", zap.Int("count", len(bookings)))
	return bookings, nil
}

// ExportBookings renders the bookings of email as CSV or PDF.
func (s *BookingService) ExportBookings(ctx context.Context, email string, format dto.ExportFormat) (*dto.BookingExport, error) {
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Bookings for " + email,
		Headers: []string{"booking_id", "class_id", "class_name", "client_name", "client_email", "class_time", "booked_at"},
	}
	for _, b := range s.index.ListByIdentity(email) {
		data.Rows = append(data.Rows, map[string]string{
			"booking_id":   b.ID,
			"class_id":     b.ClassID,
			"class_name":   b.ClassName,
			"client_name":  b.ClientName,
			"client_email": b.ClientEmail,
			"class_time":   b.ClassTime.Format(time.RFC3339),
			"booked_at":    b.CreatedAt.Format(time.RFC3339),
		})
	}

	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case dto.ExportFormatCSV, "":
		format = dto.ExportFormatCSV
		exporter := export.NewCSVExporter()
		body, err = exporter.Render(data)
		contentType = exporter.ContentType()
	case dto.ExportFormatPDF:
		exporter := export.NewPDFExporter()
		body, err = exporter.Render(data)
		contentType = exporter.ContentType()
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to render bookings export")
	}

	return &dto.BookingExport{
		Filename:    "bookings-" + strconv.Itoa(len(data.Rows)) + "." + string(format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *BookingService) validateEmail(email string) error {
	if err := s.validator.Var(email, "required,email"); err != nil {
		return appErrors.WrapAs(appErrors.ErrValidation, err, "a valid email is required")
	}
	return nil
}

// RemainingCapacity reports the committed capacity of a class.
func (s *BookingService) RemainingCapacity(classID string) (int, bool) {
	class, ok := s.catalog.FindByID(classID)
	if !ok {
		return 0, false
	}
	return class.RemainingCapacity, true
}
