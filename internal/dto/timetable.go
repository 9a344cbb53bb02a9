package dto

import "github.com/noah-isme/bunkbook/internal/models"

// ManualSlotRequest declares a recurring weekly class time.
type ManualSlotRequest struct {
	DayOfWeek   int                `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime   string             `json:"startTime" validate:"required,clock"`
	EndTime     string             `json:"endTime" validate:"required,clock"`
	SessionType models.SessionType `json:"sessionType" validate:"omitempty,oneof=regular lab tutorial"`
}

// ResolveConflictRequest picks the side of a timetable conflict to keep.
type ResolveConflictRequest struct {
	Keep models.ConflictKeep `json:"keep" validate:"required,oneof=manual auto"`
}
