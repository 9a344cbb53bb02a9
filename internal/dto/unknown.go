package dto

import "github.com/noah-isme/bunkbook/internal/models"

// ResolveUnknownRequest applies a resolution to a session the feed reported as Unknown.
type ResolveUnknownRequest struct {
	CourseID    string               `json:"courseId" validate:"required"`
	Date        string               `json:"date" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Action      models.UnknownAction `json:"action" validate:"required,oneof=confirm_present confirm_absent duty_leave revert"`
	Note        string               `json:"note" validate:"max=500"`
}
