package dto

import "time"

// Availability grid slot statuses.
const (
	SlotFree   = "Free"
	SlotBooked = "Booked"
)

// CreateBookingRequest reserves a room for a half-open interval.
type CreateBookingRequest struct {
	RoomID    string    `json:"room_id" validate:"required,uuid4"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Purpose   string    `json:"purpose" validate:"required,max=255"`
}

// AvailabilityQuery selects the day and optional room type for the grid.
type AvailabilityQuery struct {
	Date     string `form:"date" validate:"required,datetime=2006-01-02"`
	RoomType string `form:"type" validate:"omitempty,oneof=CLASSROOM LAB CONFERENCE AUDITORIUM"`
}

// AvailabilityCell is one (room, time slot) cell of the availability grid.
type AvailabilityCell struct {
	SlotLabel string `json:"slot_label"`
	Status    string `json:"status"`
	Purpose   string `json:"purpose,omitempty"`
}

// RoomAvailability lists the day's grid cells for one room.
type RoomAvailability struct {
	RoomID   string             `json:"room_id"`
	RoomCode string             `json:"room_code"`
	Building string             `json:"building"`
	RoomType string             `json:"room_type"`
	Slots    []AvailabilityCell `json:"slots"`
}

// AvailabilityGrid is the full response for one date.
type AvailabilityGrid struct {
	Date  string             `json:"date"`
	Rooms []RoomAvailability `json:"rooms"`
}
