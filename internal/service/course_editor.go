package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

const (
	minCredits = 1
	maxCredits = 10
)

// NewValidator returns a validator with the "clock" (HH:MM) tag registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerClockValidation(v)
	return v
}

func registerClockValidation(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := clockMinutes(fl.Field().String())
		return ok
	})
}

// CourseEditor applies user edits to course settings, custom courses and manual slots.
type CourseEditor struct {
	ledger *BunkLedger
}

// NewCourseEditor constructs an editor.
func NewCourseEditor(ledger *BunkLedger) *CourseEditor {
	return &CourseEditor{ledger: ledger}
}

// Configure updates credits, color, the timetable override and, for custom courses, the alias.
func (e *CourseEditor) Configure(courses []models.CourseBunkData, courseID string, req dto.ConfigureCourseRequest) ([]models.CourseBunkData, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	next := cloneCourses(courses)
	course := &next[idx]

	if req.Credits != nil {
		if *req.Credits < minCredits || *req.Credits > maxCredits {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("credits must be between %d and %d", minCredits, maxCredits))
		}
		course.Config.Credits = *req.Credits
	}
	if req.Alias != nil {
		if !course.IsCustomCourse {
			return nil, appErrors.Clone(appErrors.ErrValidation, "alias is derived from the LMS course name")
		}
		alias := strings.TrimSpace(*req.Alias)
		if alias == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "alias must not be empty")
		}
		course.Config.Alias = alias
		course.CourseName = alias
	}
	if req.Color != nil {
		course.Config.Color = strings.ToUpper(strings.TrimSpace(*req.Color))
	}
	if req.OverrideLmsSlots != nil {
		course.Config.OverrideLmsSlots = *req.OverrideLmsSlots
	}
	course.IsConfigured = course.Config.Credits > 0
	return next, nil
}

// AddCustomCourse appends a user-defined course with no feed records.
func (e *CourseEditor) AddCustomCourse(courses []models.CourseBunkData, req dto.CreateCustomCourseRequest) ([]models.CourseBunkData, models.CourseBunkData, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.CourseBunkData{}, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	if req.Credits < minCredits || req.Credits > maxCredits {
		return nil, models.CourseBunkData{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("credits must be between %d and %d", minCredits, maxCredits))
	}
	id := "custom-" + e.ledger.newID()
	color := strings.ToUpper(strings.TrimSpace(req.Color))
	if color == "" {
		color = PaletteColor(id)
	}
	course := models.CourseBunkData{
		CourseID:   id,
		CourseName: name,
		Config: models.CourseConfig{
			Credits:    req.Credits,
			Alias:      name,
			CourseCode: normalizeCourseCode(req.Code),
			Color:      color,
		},
		Bunks:          []models.BunkRecord{},
		ManualSlots:    []models.ManualSlot{},
		IsCustomCourse: true,
		IsConfigured:   true,
	}
	next := append(cloneCourses(courses), course)
	return next, course, nil
}

// RemoveCustomCourse deletes a custom course. Feed courses cannot be removed.
func (e *CourseEditor) RemoveCustomCourse(courses []models.CourseBunkData, courseID string) ([]models.CourseBunkData, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	if !courses[idx].IsCustomCourse {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only custom courses can be removed")
	}
	next := make([]models.CourseBunkData, 0, len(courses)-1)
	next = append(next, courses[:idx]...)
	next = append(next, courses[idx+1:]...)
	return next, nil
}

// AddManualSlot declares a weekly slot for the course.
func (e *CourseEditor) AddManualSlot(courses []models.CourseBunkData, courseID string, req dto.ManualSlotRequest) ([]models.CourseBunkData, models.ManualSlot, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, models.ManualSlot{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	slot := models.ManualSlot{
		ID:          e.ledger.newID(),
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: req.SessionType,
	}
	if slot.SessionType == "" {
		slot.SessionType = models.SessionTypeRegular
	}
	if err := validateManualSlot(slot, courses[idx].ManualSlots); err != nil {
		return nil, models.ManualSlot{}, err
	}
	next := cloneCourses(courses)
	next[idx].ManualSlots = append(cloneManualSlots(courses[idx].ManualSlots), slot)
	return next, slot, nil
}

// UpdateManualSlot replaces the times of an existing slot.
func (e *CourseEditor) UpdateManualSlot(courses []models.CourseBunkData, courseID, slotID string, req dto.ManualSlotRequest) ([]models.CourseBunkData, models.ManualSlot, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, models.ManualSlot{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	slots := cloneManualSlots(courses[idx].ManualSlots)
	for i := range slots {
		if slots[i].ID != slotID {
			continue
		}
		updated := models.ManualSlot{
			ID:          slotID,
			DayOfWeek:   req.DayOfWeek,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			SessionType: req.SessionType,
		}
		if updated.SessionType == "" {
			updated.SessionType = slots[i].SessionType
		}
		others := make([]models.ManualSlot, 0, len(slots)-1)
		others = append(others, slots[:i]...)
		others = append(others, slots[i+1:]...)
		if err := validateManualSlot(updated, others); err != nil {
			return nil, models.ManualSlot{}, err
		}
		slots[i] = updated
		next := cloneCourses(courses)
		next[idx].ManualSlots = slots
		return next, updated, nil
	}
	return nil, models.ManualSlot{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("slot %s not found", slotID))
}

// RemoveManualSlot deletes a slot.
func (e *CourseEditor) RemoveManualSlot(courses []models.CourseBunkData, courseID, slotID string) ([]models.CourseBunkData, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	slots := courses[idx].ManualSlots
	for i, slot := range slots {
		if slot.ID != slotID {
			continue
		}
		remaining := make([]models.ManualSlot, 0, len(slots)-1)
		remaining = append(remaining, slots[:i]...)
		remaining = append(remaining, slots[i+1:]...)
		next := cloneCourses(courses)
		next[idx].ManualSlots = remaining
		return next, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("slot %s not found", slotID))
}

func validateManualSlot(slot models.ManualSlot, existing []models.ManualSlot) error {
	if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
		return appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be between 0 and 6")
	}
	start, okStart := clockMinutes(slot.StartTime)
	end, okEnd := clockMinutes(slot.EndTime)
	if !okStart || !okEnd {
		return appErrors.Clone(appErrors.ErrValidation, "times must use HH:MM")
	}
	if end <= start {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	if !slot.SessionType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported session type %q", slot.SessionType))
	}
	for _, other := range existing {
		if other.DayOfWeek != slot.DayOfWeek {
			continue
		}
		otherStart, ok1 := clockMinutes(other.StartTime)
		otherEnd, ok2 := clockMinutes(other.EndTime)
		if ok1 && ok2 && start < otherEnd && otherStart < end {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("slot overlaps %s-%s", other.StartTime, other.EndTime))
		}
	}
	return nil
}
