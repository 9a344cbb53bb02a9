package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

func newTestSynthesizer() *TimetableSynthesizer {
	synth := NewTimetableSynthesizer(nil)
	synth.now = func() time.Time { return ledgerNow }
	return synth
}

func conflictFixture() ([]models.CourseAttendance, []models.CourseBunkData) {
	attendance := []models.CourseAttendance{
		feedCourse("c1", "Data Structures",
			present("Mon 5 Jan 2026 9AM - 10AM", "Lecture"),
			present("Mon 12 Jan 2026 9AM - 10AM", "Lecture"),
		),
	}
	courses := []models.CourseBunkData{
		{CourseID: "c1", CourseName: "Data Structures", ManualSlots: []models.ManualSlot{}},
		{CourseID: "c2", CourseName: "Yoga", IsCustomCourse: true, ManualSlots: []models.ManualSlot{
			{ID: "m1", DayOfWeek: 1, StartTime: "09:30", EndTime: "10:30", SessionType: models.SessionTypeRegular},
		}},
	}
	return attendance, courses
}

func TestTimetableGenerateDetectsConflict(t *testing.T) {
	attendance, courses := conflictFixture()
	tt := newTestSynthesizer().Generate(attendance, courses)

	require.Len(t, tt.Slots, 2)
	assert.Equal(t, "09:00", tt.Slots[0].StartTime)
	assert.False(t, tt.Slots[0].IsManual)
	assert.True(t, tt.Slots[1].IsManual)
	assert.True(t, tt.Slots[1].IsCustomCourse)

	require.Len(t, tt.Conflicts, 1)
	assert.Equal(t, "09:30", tt.Conflicts[0].ManualSlot.StartTime)
	assert.Equal(t, "09:00", tt.Conflicts[0].AutoSlot.StartTime)
	assert.Equal(t, ledgerNow, tt.GeneratedAt)
}

func TestTimetableGenerateBackToBackIsNotAConflict(t *testing.T) {
	attendance, courses := conflictFixture()
	courses[1].ManualSlots[0].StartTime = "10:00"
	courses[1].ManualSlots[0].EndTime = "11:00"

	tt := newTestSynthesizer().Generate(attendance, courses)
	assert.Empty(t, tt.Conflicts)
	assert.Len(t, tt.Slots, 2)
}

func TestTimetableGenerateManualWinsSameKey(t *testing.T) {
	attendance, courses := conflictFixture()
	courses[0].ManualSlots = []models.ManualSlot{{ID: "m0", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30", SessionType: models.SessionTypeTutorial}}
	courses = courses[:1]

	tt := newTestSynthesizer().Generate(attendance, courses)
	require.Len(t, tt.Slots, 1)
	assert.True(t, tt.Slots[0].IsManual)
	assert.Equal(t, models.SessionTypeTutorial, tt.Slots[0].SessionType)
	require.Len(t, tt.Conflicts, 1)
}

func TestTimetableGenerateOverrideSuppressesAutoSlots(t *testing.T) {
	attendance, courses := conflictFixture()
	courses[0].Config.OverrideLmsSlots = true

	tt := newTestSynthesizer().Generate(attendance, courses)
	require.Len(t, tt.Slots, 1)
	assert.True(t, tt.Slots[0].IsManual)
	assert.Empty(t, tt.Conflicts)
}

func TestTimetableConflictDetectionIsSymmetric(t *testing.T) {
	attendance, courses := conflictFixture()
	first := newTestSynthesizer().Generate(attendance, courses)

	reversed := []models.CourseBunkData{courses[1], courses[0]}
	second := newTestSynthesizer().Generate(attendance, reversed)

	assert.Equal(t, first.Slots, second.Slots)
	assert.ElementsMatch(t, first.Conflicts, second.Conflicts)
}

func TestResolveConflictKeepManual(t *testing.T) {
	attendance, courses := conflictFixture()
	tt := newTestSynthesizer().Generate(attendance, courses)

	resolved, err := ResolveConflict(tt, 0, models.ConflictKeepManual)
	require.NoError(t, err)
	require.Len(t, resolved.Slots, 1)
	assert.True(t, resolved.Slots[0].IsManual)
	assert.Empty(t, resolved.Conflicts)
}

func TestResolveConflictKeepAuto(t *testing.T) {
	attendance, courses := conflictFixture()
	tt := newTestSynthesizer().Generate(attendance, courses)

	resolved, err := ResolveConflict(tt, 0, models.ConflictKeepAuto)
	require.NoError(t, err)
	require.Len(t, resolved.Slots, 1)
	assert.False(t, resolved.Slots[0].IsManual)
	assert.Equal(t, "c1", resolved.Slots[0].CourseID)
}

func TestResolveConflictReinsertsShadowedAutoSlot(t *testing.T) {
	attendance, courses := conflictFixture()
	courses[0].ManualSlots = []models.ManualSlot{{ID: "m0", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30", SessionType: models.SessionTypeRegular}}
	courses = courses[:1]
	tt := newTestSynthesizer().Generate(attendance, courses)

	resolved, err := ResolveConflict(tt, 0, models.ConflictKeepAuto)
	require.NoError(t, err)
	require.Len(t, resolved.Slots, 1)
	assert.False(t, resolved.Slots[0].IsManual)
	assert.Equal(t, "10:00", resolved.Slots[0].EndTime)
}

func TestResolveConflictLeavesOtherConflicts(t *testing.T) {
	attendance, courses := conflictFixture()
	courses[1].ManualSlots = append(courses[1].ManualSlots, models.ManualSlot{ID: "m2", DayOfWeek: 1, StartTime: "08:30", EndTime: "09:15", SessionType: models.SessionTypeRegular})
	tt := newTestSynthesizer().Generate(attendance, courses)
	require.Len(t, tt.Conflicts, 2)

	resolved, err := ResolveConflict(tt, 1, models.ConflictKeepManual)
	require.NoError(t, err)
	require.Len(t, resolved.Conflicts, 1)
	assert.Equal(t, tt.Conflicts[0], resolved.Conflicts[0])
}

func TestResolveConflictRejectsInvalidInput(t *testing.T) {
	attendance, courses := conflictFixture()
	tt := newTestSynthesizer().Generate(attendance, courses)

	_, err := ResolveConflict(tt, 3, models.ConflictKeepManual)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = ResolveConflict(tt, 0, models.ConflictKeep("both"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func weeklySlots() []models.TimetableSlot {
	return []models.TimetableSlot{
		{CourseID: "a", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
		{CourseID: "b", DayOfWeek: 1, StartTime: "11:00", EndTime: "12:00"},
		{CourseID: "c", DayOfWeek: 1, StartTime: "14:00", EndTime: "15:00"},
		{CourseID: "d", DayOfWeek: 3, StartTime: "10:00", EndTime: "11:00"},
	}
}

func TestGetCurrentAndNextClass(t *testing.T) {
	monday := time.Date(2026, time.January, 5, 11, 30, 0, 0, time.UTC)
	result := GetCurrentAndNextClass(weeklySlots(), monday)
	require.NotNil(t, result.Current)
	assert.Equal(t, "b", result.Current.CourseID)
	require.NotNil(t, result.Next)
	assert.Equal(t, "c", result.Next.CourseID)

	friday := time.Date(2026, time.January, 9, 16, 0, 0, 0, time.UTC)
	result = GetCurrentAndNextClass(weeklySlots(), friday)
	assert.Nil(t, result.Current)
	require.NotNil(t, result.Next)
	assert.Equal(t, "a", result.Next.CourseID)

	result = GetCurrentAndNextClass(nil, friday)
	assert.Nil(t, result.Current)
	assert.Nil(t, result.Next)
}

func TestGetNearbySlots(t *testing.T) {
	monday := time.Date(2026, time.January, 5, 11, 30, 0, 0, time.UTC)
	nearby := GetNearbySlots(weeklySlots(), monday)
	require.Len(t, nearby.Previous, 1)
	assert.Equal(t, "a", nearby.Previous[0].CourseID)
	require.NotNil(t, nearby.Current)
	assert.Equal(t, "b", nearby.Current.CourseID)
	require.Len(t, nearby.Upcoming, 1)
	assert.Equal(t, "c", nearby.Upcoming[0].CourseID)

	tuesday := time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC)
	nearby = GetNearbySlots(weeklySlots(), tuesday)
	assert.Empty(t, nearby.Previous)
	assert.Nil(t, nearby.Current)
	assert.Empty(t, nearby.Upcoming)
}
