package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/registrar-api/internal/models"
)

const roomColumns = `id, code, building, floor, capacity, room_type, active, created_at, updated_at`

// RoomRepository provides database access for bookable rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// ListActive returns active rooms, optionally filtered by type, ordered by
// building then code.
func (r *RoomRepository) ListActive(ctx context.Context, roomType models.RoomType) ([]models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE active = TRUE`, roomColumns)
	var args []interface{}
	if roomType != "" {
		query += ` AND room_type = $1`
		args = append(args, roomType)
	}
	query += ` ORDER BY building ASC, code ASC`

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a room by identifier.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = $1 LIMIT 1`, roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find room by id: %w", err)
	}
	return &room, nil
}

// FindByIDForUpdate locks the room row inside the caller's transaction.
// Booking writes serialize on this lock so the overlap re-check stays valid
// until commit.
func (r *RoomRepository) FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = $1 FOR UPDATE`, roomColumns)
	var room models.Room
	if err := sqlx.GetContext(ctx, q, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock room: %w", err)
	}
	return &room, nil
}
