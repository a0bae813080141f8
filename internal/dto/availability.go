package dto

// AvailabilityRequest captures the availability query after alias resolution.
type AvailabilityRequest struct {
	ProviderID      string `json:"provider_id" validate:"required,max=64"`
	StaffID         string `json:"staff_id" validate:"omitempty,max=64"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0,lte=1440"`
}
