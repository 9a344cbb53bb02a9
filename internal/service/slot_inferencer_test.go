package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/models"
)

func TestSlotInferencerGroupsWithinTolerance(t *testing.T) {
	inferencer := NewSlotInferencer(nil)
	records := []models.AttendanceRecord{
		present("Tue 6 Jan 2026 2PM - 4PM", "Physics Lab"),
		present("Mon 5 Jan 2026 9AM - 10AM", "Lecture"),
		present("Mon 12 Jan 2026 9:03AM - 10AM", "Lecture"),
		absent("Mon 19 Jan 2026 11AM - 12PM", "Lecture"),
		present("Wed 7 Jan 2026", "Lecture"),
		present("no weekday here 9AM - 10AM", "Lecture"),
	}

	slots := inferencer.Infer(records, InferOptions{StartToleranceMinutes: 5})
	require.Len(t, slots, 3)

	assert.Equal(t, models.ManualSlot{ID: "auto-1-0900", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SessionType: models.SessionTypeRegular}, slots[0])
	assert.Equal(t, "auto-1-1100", slots[1].ID)
	assert.Equal(t, 2, slots[2].DayOfWeek)
	assert.Equal(t, models.SessionTypeLab, slots[2].SessionType)
}

func TestSlotInferencerZeroToleranceIsExact(t *testing.T) {
	inferencer := NewSlotInferencer(nil)
	records := []models.AttendanceRecord{
		present("Mon 5 Jan 2026 9AM - 10AM", "Lecture"),
		present("Mon 12 Jan 2026 9:03AM - 10AM", "Lecture"),
		present("Mon 19 Jan 2026 9AM - 10AM", "Lecture"),
	}

	slots := inferencer.Infer(records, InferOptions{})
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime)
	assert.Equal(t, "09:03", slots[1].StartTime)
}

func TestSlotInferencerEmptyInput(t *testing.T) {
	slots := NewSlotInferencer(nil).Infer(nil, InferOptions{StartToleranceMinutes: 5})
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}
