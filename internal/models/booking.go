package models

import "time"

// BookingStatus represents the lifecycle of a room booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Booking reserves a room for a half-open interval [StartTime, EndTime).
// No two CONFIRMED bookings of the same room may overlap.
type Booking struct {
	ID          string        `db:"id" json:"id"`
	RoomID      string        `db:"room_id" json:"room_id"`
	RequesterID string        `db:"requester_id" json:"requester_id"`
	StartTime   time.Time     `db:"start_time" json:"start_time"`
	EndTime     time.Time     `db:"end_time" json:"end_time"`
	Status      BookingStatus `db:"status" json:"status"`
	Purpose     string        `db:"purpose" json:"purpose"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// BookingDetail joins a booking with its room for listings and exports.
type BookingDetail struct {
	Booking
	RoomCode     string `db:"room_code" json:"room_code"`
	RoomBuilding string `db:"room_building" json:"room_building"`
}
