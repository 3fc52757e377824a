package models

import "time"

// SlotStatus represents the lifecycle of an office hour slot.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

// OfficeHourSlot is one concrete bookable occurrence generated from a
// recurring weekly pattern. StartTime and EndTime are the absolute
// timestamps of the occurrence; DayOfWeek is denormalized for listings.
type OfficeHourSlot struct {
	ID              string     `db:"id" json:"id"`
	StaffID         string     `db:"staff_id" json:"staff_id"`
	DayOfWeek       string     `db:"day_of_week" json:"day_of_week"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Status          SlotStatus `db:"status" json:"status"`
	BookedBy        *string    `db:"booked_by" json:"booked_by,omitempty"`
	Purpose         *string    `db:"purpose" json:"purpose,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// SlotDetail joins a slot with the staff member's name for student listings.
type SlotDetail struct {
	OfficeHourSlot
	StaffName string `db:"staff_name" json:"staff_name"`
}
