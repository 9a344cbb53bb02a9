package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func editorFixture(t *testing.T) (*CourseEditor, []models.CourseBunkData) {
	t.Helper()
	ledger := newTestLedger(t, nil)
	courses := ledger.Sync([]models.CourseAttendance{feedCourse("c1", "CS2001 Data Structures")}, nil)
	return NewCourseEditor(ledger), courses
}

func TestCourseEditorConfigure(t *testing.T) {
	editor, courses := editorFixture(t)

	updated, err := editor.Configure(courses, "c1", dto.ConfigureCourseRequest{
		Credits:          intPtr(3),
		Color:            strPtr("#abcdef"),
		OverrideLmsSlots: boolPtr(true),
	})
	require.NoError(t, err)
	cfg := updated[0].Config
	assert.Equal(t, 3, cfg.Credits)
	assert.Equal(t, "#ABCDEF", cfg.Color)
	assert.True(t, cfg.OverrideLmsSlots)
	assert.True(t, updated[0].IsConfigured)
	assert.Equal(t, 0, courses[0].Config.Credits)

	_, err = editor.Configure(courses, "c1", dto.ConfigureCourseRequest{Credits: intPtr(11)})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = editor.Configure(courses, "c1", dto.ConfigureCourseRequest{Alias: strPtr("DSA")})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = editor.Configure(courses, "nope", dto.ConfigureCourseRequest{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseEditorCustomCourseLifecycle(t *testing.T) {
	editor, courses := editorFixture(t)

	withCustom, custom, err := editor.AddCustomCourse(courses, dto.CreateCustomCourseRequest{Name: " Yoga ", Credits: 2})
	require.NoError(t, err)
	require.Len(t, withCustom, 2)
	assert.True(t, custom.IsCustomCourse)
	assert.Equal(t, "Yoga", custom.Config.Alias)
	assert.NotEmpty(t, custom.Config.Color)

	renamed, err := editor.Configure(withCustom, custom.CourseID, dto.ConfigureCourseRequest{Alias: strPtr("Pilates")})
	require.NoError(t, err)
	assert.Equal(t, "Pilates", renamed[1].DisplayName())

	_, err = editor.RemoveCustomCourse(withCustom, "c1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	removed, err := editor.RemoveCustomCourse(withCustom, custom.CourseID)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	_, _, err = editor.AddCustomCourse(courses, dto.CreateCustomCourseRequest{Name: "Yoga", Credits: 0})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseEditorManualSlots(t *testing.T) {
	editor, courses := editorFixture(t)

	withSlot, slot, err := editor.AddManualSlot(courses, "c1", dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionTypeRegular, slot.SessionType)
	require.Len(t, withSlot[0].ManualSlots, 1)

	_, _, err = editor.AddManualSlot(withSlot, "c1", dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "09:30", EndTime: "10:30"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, _, err = editor.AddManualSlot(withSlot, "c1", dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "10:00", EndTime: "10:00"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = editor.AddManualSlot(withSlot, "c1", dto.ManualSlotRequest{DayOfWeek: 7, StartTime: "10:00", EndTime: "11:00"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = editor.AddManualSlot(withSlot, "c1", dto.ManualSlotRequest{DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00", SessionType: "seminar"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	moved, updated, err := editor.UpdateManualSlot(withSlot, "c1", slot.ID, dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "09:15", EndTime: "10:15", SessionType: models.SessionTypeLab})
	require.NoError(t, err)
	assert.Equal(t, "09:15", moved[0].ManualSlots[0].StartTime)
	assert.Equal(t, models.SessionTypeLab, updated.SessionType)

	removed, err := editor.RemoveManualSlot(moved, "c1", slot.ID)
	require.NoError(t, err)
	assert.Empty(t, removed[0].ManualSlots)

	_, err = editor.RemoveManualSlot(moved, "c1", "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestValidatorClockTag(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}))
	assert.Error(t, v.Struct(dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "9:00", EndTime: "10:00"}))
	assert.Error(t, v.Struct(dto.ManualSlotRequest{DayOfWeek: 1, StartTime: "09:00", EndTime: "24:00"}))
}
