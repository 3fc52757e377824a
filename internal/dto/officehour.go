package dto

// GenerateSlotsRequest describes a weekly recurring office hour pattern.
// StartTime and EndTime are wall-clock times in HH:MM form.
type GenerateSlotsRequest struct {
	DayOfWeek       string `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         string `json:"end_time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=5,max=240"`
	NumberOfWeeks   int    `json:"number_of_weeks" validate:"required,min=1"`
}

// BookSlotRequest claims an available slot.
type BookSlotRequest struct {
	Purpose string `json:"purpose" validate:"required,max=255"`
}

// SlotWindowQuery bounds slot listings. Both fields are optional dates in
// YYYY-MM-DD form.
type SlotWindowQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}
