package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/models"
)

func TestRecordParserParseSlot(t *testing.T) {
	parser := NewRecordParser(RecordParserConfig{})

	slot := parser.ParseSlot("Thu 1 Jan 2026 11AM - 12PM")
	require.NotNil(t, slot)
	assert.Equal(t, 4, slot.DayOfWeek)
	assert.Equal(t, "11:00", slot.StartTime)
	assert.Equal(t, "12:00", slot.EndTime)

	slot = parser.ParseSlot("Monday 5 Jan 2026 10:30AM - 11:45AM")
	require.NotNil(t, slot)
	assert.Equal(t, 1, slot.DayOfWeek)
	assert.Equal(t, "10:30", slot.StartTime)
	assert.Equal(t, "11:45", slot.EndTime)
}

func TestRecordParserParseSlotMidnightAndNoon(t *testing.T) {
	parser := NewRecordParser(RecordParserConfig{})

	slot := parser.ParseSlot("Sat 3 Jan 2026 12AM - 1AM")
	require.NotNil(t, slot)
	assert.Equal(t, 6, slot.DayOfWeek)
	assert.Equal(t, "00:00", slot.StartTime)
	assert.Equal(t, "01:00", slot.EndTime)

	slot = parser.ParseSlot("Sun 4 Jan 2026 12PM to 2PM")
	require.NotNil(t, slot)
	assert.Equal(t, 0, slot.DayOfWeek)
	assert.Equal(t, "12:00", slot.StartTime)
	assert.Equal(t, "14:00", slot.EndTime)
}

func TestRecordParserParseSlotDegrades(t *testing.T) {
	parser := NewRecordParser(RecordParserConfig{})

	assert.Nil(t, parser.ParseSlot("1 Jan 2026 11AM - 12PM"))
	assert.Nil(t, parser.ParseSlot(""))

	slot := parser.ParseSlot("Fri 2 Jan 2026")
	require.NotNil(t, slot)
	assert.Equal(t, 5, slot.DayOfWeek)
	assert.Empty(t, slot.StartTime)
	assert.Empty(t, slot.EndTime)
}

func TestRecordParserParseDate(t *testing.T) {
	parser := NewRecordParser(RecordParserConfig{})
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"Thu 1 Jan 2026 11AM - 12PM", "Jan 1, 2026", "2026-01-01"} {
		got, ok := parser.ParseDate(raw, time.UTC)
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), raw)
	}

	_, ok := parser.ParseDate("Thu 31 Feb 2026", time.UTC)
	assert.False(t, ok)
	_, ok = parser.ParseDate("sometime soon", time.UTC)
	assert.False(t, ok)
}

func TestRecordParserClassify(t *testing.T) {
	parser := NewRecordParser(RecordParserConfig{})

	cases := []struct {
		description string
		start       string
		end         string
		want        models.SessionType
	}{
		{"Lab session", "09:00", "11:00", models.SessionTypeLab},
		{"Tutorial", "09:00", "09:55", models.SessionTypeTutorial},
		{"Lecture", "09:00", "09:55", models.SessionTypeRegular},
		{"Lecture", "09:00", "10:55", models.SessionTypeLab},
		{"Tutorial lab", "09:00", "12:00", models.SessionTypeTutorial},
		{"Physics LAB", "", "", models.SessionTypeLab},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parser.Classify(tc.description, tc.start, tc.end), tc.description)
		assert.Equal(t, parser.Classify(tc.description, tc.start, tc.end), parser.Classify(tc.description, tc.start, tc.end))
	}
}

func TestRecordParserClassifyCustomThreshold(t *testing.T) {
	parser := NewRecordParser(RecordParserConfig{LabThresholdMinutes: 60})
	assert.Equal(t, models.SessionTypeLab, parser.Classify("Lecture", "09:00", "10:00"))
	assert.Equal(t, models.SessionTypeRegular, parser.Classify("Lecture", "09:00", "09:59"))
}

func TestTimeSlotLabel(t *testing.T) {
	label := TimeSlotLabel("Thu 1 Jan 2026 11AM - 12PM")
	require.NotNil(t, label)
	assert.Equal(t, "11-12", *label)

	label = TimeSlotLabel("Thu 1 Jan 2026 10:30AM - 11:45AM")
	require.NotNil(t, label)
	assert.Equal(t, "10:30-11:45", *label)

	assert.Nil(t, TimeSlotLabel("Thu 1 Jan 2026"))
}

func TestDurationMinutes(t *testing.T) {
	assert.Equal(t, 55, DurationMinutes("09:00", "09:55"))
	assert.Equal(t, 0, DurationMinutes("10:00", "09:00"))
	assert.Equal(t, 0, DurationMinutes("", "09:00"))
	assert.Equal(t, 0, DurationMinutes("9:00", "10:00"))
}
