package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/bunkbook/internal/models"
)

// DefaultLabThresholdMinutes is the session length from which a block is treated as a lab.
const DefaultLabThresholdMinutes = 110

var (
	weekdayPattern   = regexp.MustCompile(`(?i)\b(sun(?:day)?|mon(?:day)?|tue(?:s|sday)?|wed(?:nesday)?|thu(?:r|rs|rsday)?|fri(?:day)?|sat(?:urday)?)\b`)
	timeRangePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(AM|PM)\s*(?:-|–|to)\s*(\d{1,2})(?::(\d{2}))?\s*(AM|PM)`)

	dayMonthYearPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[\s\-/]+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?[\s\-/,]+(\d{4})\b`)
	monthDayYearPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	isoDatePattern      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

var weekdayIndex = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// RecordParserConfig tunes classification.
type RecordParserConfig struct {
	LabThresholdMinutes int
}

// RecordParser turns free-text feed dates into structured slots and classifies sessions.
type RecordParser struct {
	labThreshold int
}

// NewRecordParser constructs a parser; a non-positive threshold uses the default.
func NewRecordParser(cfg RecordParserConfig) *RecordParser {
	if cfg.LabThresholdMinutes <= 0 {
		cfg.LabThresholdMinutes = DefaultLabThresholdMinutes
	}
	return &RecordParser{labThreshold: cfg.LabThresholdMinutes}
}

// ParseSlot extracts weekday and time range from strings like "Thu 1 Jan 2026 11AM - 12PM".
// It returns nil when no weekday is present. A missing time range leaves StartTime/EndTime empty.
func (p *RecordParser) ParseSlot(raw string) *models.ParsedSlot {
	dayMatch := weekdayPattern.FindStringSubmatch(raw)
	if dayMatch == nil {
		return nil
	}
	day, ok := weekdayIndex[strings.ToLower(dayMatch[1][:3])]
	if !ok {
		return nil
	}
	slot := &models.ParsedSlot{DayOfWeek: day}
	if start, end, ok := parseTimeRange(raw); ok {
		slot.StartTime = start
		slot.EndTime = end
	}
	return slot
}

// ParseDate extracts the calendar date of a feed string in loc.
// Accepted anchors are "1 Jan 2026", "Jan 1, 2026" and "2026-01-01".
func (p *RecordParser) ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if m := dayMonthYearPattern.FindStringSubmatch(raw); m != nil {
		return buildDate(m[3], monthIndex[strings.ToLower(m[2])], m[1], loc)
	}
	if m := monthDayYearPattern.FindStringSubmatch(raw); m != nil {
		return buildDate(m[3], monthIndex[strings.ToLower(m[1])], m[2], loc)
	}
	if m := isoDatePattern.FindStringSubmatch(raw); m != nil {
		month, err := strconv.Atoi(m[2])
		if err != nil || month < 1 || month > 12 {
			return time.Time{}, false
		}
		return buildDate(m[1], time.Month(month), m[3], loc)
	}
	return time.Time{}, false
}

// Classify applies the ordered policy: tutorial keyword, long duration, lab keyword, regular.
func (p *RecordParser) Classify(description, startTime, endTime string) models.SessionType {
	lower := strings.ToLower(description)
	if strings.Contains(lower, "tutorial") {
		return models.SessionTypeTutorial
	}
	if DurationMinutes(startTime, endTime) >= p.labThreshold {
		return models.SessionTypeLab
	}
	if strings.Contains(lower, "lab") {
		return models.SessionTypeLab
	}
	return models.SessionTypeRegular
}

// TimeSlotLabel renders the display slot of a feed string, e.g. "11-12" or "10:30-11:45".
func TimeSlotLabel(raw string) *string {
	start, end, ok := parseTimeRange(raw)
	if !ok {
		return nil
	}
	var label string
	if strings.HasSuffix(start, ":00") && strings.HasSuffix(end, ":00") {
		label = start[:2] + "-" + end[:2]
	} else {
		label = start + "-" + end
	}
	return &label
}

// DurationMinutes returns end-start in minutes, or 0 when either side is missing or the range is empty.
func DurationMinutes(startTime, endTime string) int {
	start, ok := clockMinutes(startTime)
	if !ok {
		return 0
	}
	end, ok := clockMinutes(endTime)
	if !ok || end <= start {
		return 0
	}
	return end - start
}

// clockMinutes parses "HH:MM" into minutes after midnight.
func clockMinutes(value string) (int, bool) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func parseTimeRange(raw string) (string, string, bool) {
	m := timeRangePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	start, ok := to24Hour(m[1], m[2], m[3])
	if !ok {
		return "", "", false
	}
	end, ok := to24Hour(m[4], m[5], m[6])
	if !ok {
		return "", "", false
	}
	return start, end, true
}

// to24Hour normalises 12-hour clock parts; 12AM is 00:00 and 12PM is 12:00.
func to24Hour(hourPart, minutePart, meridiem string) (string, bool) {
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 1 || hour > 12 {
		return "", false
	}
	minute := 0
	if minutePart != "" {
		minute, err = strconv.Atoi(minutePart)
		if err != nil || minute > 59 {
			return "", false
		}
	}
	hour %= 12
	if strings.EqualFold(meridiem, "PM") {
		hour += 12
	}
	return formatClock(hour*60 + minute), true
}

func buildDate(yearPart string, month time.Month, dayPart string, loc *time.Location) (time.Time, bool) {
	year, err := strconv.Atoi(yearPart)
	if err != nil || month == 0 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayPart)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if date.Day() != day || date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}
