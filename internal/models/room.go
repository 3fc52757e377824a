package models

import "time"

// RoomType categorizes bookable rooms.
type RoomType string

const (
	RoomTypeClassroom  RoomType = "CLASSROOM"
	RoomTypeLab        RoomType = "LAB"
	RoomTypeConference RoomType = "CONFERENCE"
	RoomTypeAuditorium RoomType = "AUDITORIUM"
)

// Room represents a bookable room.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Building  string    `db:"building" json:"building"`
	Floor     int       `db:"floor" json:"floor"`
	Capacity  int       `db:"capacity" json:"capacity"`
	RoomType  RoomType  `db:"room_type" json:"room_type"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
