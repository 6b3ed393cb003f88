package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/fitness-booking-api/internal/models"
	"github.com/noah-isme/fitness-booking-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) error
	Read(filename string) ([]byte, error)
}

// FileSnapshotRepository keeps the class catalog and booking index as two
// independent JSON snapshot files. Every persist rewrites the whole file.
type FileSnapshotRepository struct {
	files        fileStorage
	classesFile  string
	bookingsFile string
	logger       *zap.Logger
}

// NewFileSnapshotRepository constructs a FileSnapshotRepository.
func NewFileSnapshotRepository(files fileStorage, classesFile, bookingsFile string, logger *zap.Logger) *FileSnapshotRepository {
	if classesFile == "" {
		classesFile = "classes_data.json"
	}
	if bookingsFile == "" {
		bookingsFile = "bookings_data.json"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSnapshotRepository{files: files, classesFile: classesFile, bookingsFile: bookingsFile, logger: logger}
}

// LoadClasses reads the class snapshot or returns ErrSnapshotNotFound.
func (r *FileSnapshotRepository) LoadClasses(ctx context.Context) ([]models.ClassSlot, error) {
	var classes []models.ClassSlot
	found, err := r.load(r.classesFile, &classes)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSnapshotNotFound
	}
	r.logger.Info("loaded classes snapshot", zap.String("file", r.classesFile), zap.Int("count", len(classes)))
	return classes, nil
}

// LoadBookings reads the booking snapshot; a missing file yields no bookings.
func (r *FileSnapshotRepository) LoadBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	found, err := r.load(r.bookingsFile, &bookings)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.Booking{}, nil
	}
	r.logger.Info("loaded bookings snapshot", zap.String("file", r.bookingsFile), zap.Int("count", len(bookings)))
	return bookings, nil
}

// PersistClasses overwrites the class snapshot.
func (r *FileSnapshotRepository) PersistClasses(ctx context.Context, classes []models.ClassSlot) error {
	if classes == nil {
		classes = []models.ClassSlot{}
	}
	if err := r.save(r.classesFile, classes); err != nil {
		return err
	}
	r.logger.Debug("saved classes snapshot", zap.String("file", r.classesFile), zap.Int("count", len(classes)))
	return nil
}

// PersistBookings overwrites the booking snapshot.
func (r *FileSnapshotRepository) PersistBookings(ctx context.Context, bookings []models.Booking) error {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	if err := r.save(r.bookingsFile, bookings); err != nil {
		return err
	}
	r.logger.Debug("saved bookings snapshot", zap.String("file", r.bookingsFile), zap.Int("count", len(bookings)))
	return nil
}

func (r *FileSnapshotRepository) load(filename string, dest interface{}) (bool, error) {
	raw, err := r.files.Read(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read snapshot %s: %w", filename, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", filename, err)
	}
	return true, nil
}

func (r *FileSnapshotRepository) save(filename string, value interface{}) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", filename, err)
	}
	if err := r.files.Save(filename, payload); err != nil {
		return fmt.Errorf("write snapshot %s: %w", filename, err)
	}
	return nil
}
