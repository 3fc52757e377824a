package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
	"github.com/campusops/registrar-api/pkg/export"
	"github.com/campusops/registrar-api/pkg/interval"
)

const availabilityCachePrefix = "rooms:availability"

// dailySlot is one cell column of the availability grid. Offsets are
// minutes from midnight.
type dailySlot struct {
	label       string
	startOffset int
	endOffset   int
}

// The grid covers six fixed 90-minute slots between 08:00 and 17:00.
var dailySlots = []dailySlot{
	{"08:00-09:30", 8 * 60, 9*60 + 30},
	{"09:30-11:00", 9*60 + 30, 11 * 60},
	{"11:00-12:30", 11 * 60, 12*60 + 30},
	{"12:30-14:00", 12*60 + 30, 14 * 60},
	{"14:00-15:30", 14 * 60, 15*60 + 30},
	{"15:30-17:00", 15*60 + 30, 17 * 60},
}

type roomLister interface {
	ListActive(ctx context.Context, roomType models.RoomType) ([]models.Room, error)
	FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.Room, error)
}

type bookingStore interface {
	HasConfirmedOverlap(ctx context.Context, q sqlx.ExtContext, roomID string, start, end time.Time) (bool, error)
	Create(ctx context.Context, q sqlx.ExtContext, booking *models.Booking) error
	ListConfirmedBetween(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.BookingDetail, error)
}

type roomUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// RoomService serves the availability grid and arbitrates room bookings.
type RoomService struct {
	rooms     roomLister
	bookings  bookingStore
	users     roomUserReader
	cache     availabilityCache
	tx        txProvider
	cacheTTL  time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService wires room booking dependencies.
func NewRoomService(
	rooms roomLister,
	bookings bookingStore,
	users roomUserReader,
	cache availabilityCache,
	tx txProvider,
	cacheTTL time.Duration,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &RoomService{
		rooms:     rooms,
		bookings:  bookings,
		users:     users,
		cache:     cache,
		tx:        tx,
		cacheTTL:  cacheTTL,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ListRooms returns active rooms.
func (s *RoomService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.ListActive(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// GetAvailability builds the per-room slot grid for one date. An empty room
// type means all rooms. Results are cached per (date, type); the returned
// bool reports whether the grid came from cache.
func (s *RoomService) GetAvailability(ctx context.Context, query dto.AvailabilityQuery) (*dto.AvailabilityGrid, bool, error) {
	// Clients may send the literal "All Rooms" for the unfiltered grid.
	if strings.EqualFold(query.RoomType, "All Rooms") {
		query.RoomType = ""
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}

	cacheKey := fmt.Sprintf("%s:%s:%s", availabilityCachePrefix, query.Date, query.RoomType)
	if s.cache != nil {
		var cached dto.AvailabilityGrid
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	day, err := time.ParseInLocation("2006-01-02", query.Date, time.UTC)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	dayStart := day
	dayEnd := day.Add(24 * time.Hour)

	rooms, err := s.rooms.ListActive(ctx, models.RoomType(query.RoomType))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}

	bookings, err := s.bookings.ListConfirmedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	byRoom := make(map[string][]models.Booking, len(bookings))
	for _, b := range bookings {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	grid := &dto.AvailabilityGrid{Date: query.Date, Rooms: make([]dto.RoomAvailability, 0, len(rooms))}
	for _, room := range rooms {
		availability := dto.RoomAvailability{
			RoomID:   room.ID,
			RoomCode: room.Code,
			Building: room.Building,
			RoomType: string(room.RoomType),
			Slots:    make([]dto.AvailabilityCell, 0, len(dailySlots)),
		}
		for _, slot := range dailySlots {
			span := interval.New(
				dayStart.Add(time.Duration(slot.startOffset)*time.Minute),
				dayStart.Add(time.Duration(slot.endOffset)*time.Minute),
			)
			cell := dto.AvailabilityCell{SlotLabel: slot.label, Status: dto.SlotFree}
			for _, b := range byRoom[room.ID] {
				if span.Overlaps(interval.New(b.StartTime, b.EndTime)) {
					cell.Status = dto.SlotBooked
					cell.Purpose = b.Purpose
					break
				}
			}
			availability.Slots = append(availability.Slots, cell)
		}
		grid.Rooms = append(grid.Rooms, availability)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, grid, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache availability grid", zap.Error(err))
		}
	}
	return grid, false, nil
}

// CreateBooking reserves a room. The room row is locked and the overlap
// check re-run inside the transaction, so of two concurrent overlapping
// requests exactly one commits.
func (s *RoomService) CreateBooking(ctx context.Context, requesterID string, req dto.CreateBookingRequest) (booking *models.Booking, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	span := interval.New(req.StartTime, req.EndTime)
	if !span.Valid() {
		return nil, appErrors.ErrInvalidInterval
	}

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "requester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requester")
	}
	if !requester.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "requester account inactive")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin booking")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.FindByIDForUpdate(ctx, tx, req.RoomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if !room.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "room is not bookable")
	}

	conflict, err := s.bookings.HasConfirmedOverlap(ctx, tx, room.ID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check booking overlap")
	}
	if conflict {
		return nil, appErrors.Clone(appErrors.ErrRoomConflict,
			fmt.Sprintf("room %s is already booked for the requested interval", room.Code))
	}

	booking = &models.Booking{
		RoomID:      room.ID,
		RequesterID: requesterID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.BookingStatusConfirmed,
		Purpose:     req.Purpose,
	}
	if err = s.bookings.Create(ctx, tx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit booking")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, availabilityCachePrefix+":*"); err != nil {
			s.logger.Warn("failed to invalidate availability cache", zap.Error(err))
		}
	}

	s.metrics.RecordBooking()
	s.logger.Info("room booked",
		zap.String("room_code", room.Code),
		zap.String("requester_id", requesterID),
		zap.Time("start", req.StartTime),
		zap.Time("end", req.EndTime))
	return booking, nil
}

// ListBookings returns the requester's bookings, most recent first.
func (s *RoomService) ListBookings(ctx context.Context, requesterID string) ([]models.BookingDetail, error) {
	details, err := s.bookings.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return details, nil
}

// ExportBookings renders the requester's bookings as a CSV or PDF table.
func (s *RoomService) ExportBookings(ctx context.Context, requesterID, format string) ([]byte, string, string, error) {
	details, err := s.ListBookings(ctx, requesterID)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Room", "Building", "Start", "End", "Status", "Purpose"},
		Rows:    make([]map[string]string, 0, len(details)),
	}
	for _, d := range details {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Room":     d.RoomCode,
			"Building": d.RoomBuilding,
			"Start":    d.StartTime.Format(time.RFC3339),
			"End":      d.EndTime.Format(time.RFC3339),
			"Status":   string(d.Status),
			"Purpose":  d.Purpose,
		})
	}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "bookings.csv", "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Room Bookings")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "bookings.pdf", "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
