package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
)

// TimetableSynthesizer builds the weekly schedule from feed history and manual slots.
type TimetableSynthesizer struct {
	parser *RecordParser
	now    func() time.Time
}

// NewTimetableSynthesizer constructs a synthesizer.
func NewTimetableSynthesizer(parser *RecordParser) *TimetableSynthesizer {
	if parser == nil {
		parser = NewRecordParser(RecordParserConfig{})
	}
	return &TimetableSynthesizer{parser: parser, now: time.Now}
}

type slotKey struct {
	day      int
	start    string
	courseID string
}

// Generate derives auto slots from the feed (exact weekday and start match),
// layers manual slots on top, and reports every same-day overlap between a
// manual and an auto slot. Courses with overrideLmsSlots contribute no auto slots.
func (t *TimetableSynthesizer) Generate(attendance []models.CourseAttendance, courses []models.CourseBunkData) models.Timetable {
	configs := make(map[string]models.CourseConfig, len(courses))
	for _, course := range courses {
		configs[course.CourseID] = course.Config
	}

	auto := make([]models.TimetableSlot, 0)
	autoSeen := make(map[slotKey]bool)
	for _, feed := range attendance {
		if cfg, ok := configs[feed.CourseID]; ok && cfg.OverrideLmsSlots {
			continue
		}
		for _, record := range feed.Records {
			parsed := t.parser.ParseSlot(record.Date)
			if parsed == nil || DurationMinutes(parsed.StartTime, parsed.EndTime) == 0 {
				continue
			}
			key := slotKey{day: parsed.DayOfWeek, start: parsed.StartTime, courseID: feed.CourseID}
			if autoSeen[key] {
				continue
			}
			autoSeen[key] = true
			auto = append(auto, models.TimetableSlot{
				CourseID:    feed.CourseID,
				DayOfWeek:   parsed.DayOfWeek,
				StartTime:   parsed.StartTime,
				EndTime:     parsed.EndTime,
				SessionType: t.parser.Classify(record.Description, parsed.StartTime, parsed.EndTime),
			})
		}
	}

	manual := make([]models.TimetableSlot, 0)
	for _, course := range courses {
		for _, slot := range course.ManualSlots {
			if DurationMinutes(slot.StartTime, slot.EndTime) == 0 {
				continue
			}
			sessionType := slot.SessionType
			if !sessionType.Valid() {
				sessionType = models.SessionTypeRegular
			}
			manual = append(manual, models.TimetableSlot{
				CourseID:       course.CourseID,
				DayOfWeek:      slot.DayOfWeek,
				StartTime:      slot.StartTime,
				EndTime:        slot.EndTime,
				SessionType:    sessionType,
				IsManual:       true,
				IsCustomCourse: course.IsCustomCourse,
			})
		}
	}

	conflicts := make([]models.SlotConflict, 0)
	for _, m := range manual {
		for _, a := range auto {
			if m.DayOfWeek == a.DayOfWeek && slotsOverlap(m, a) {
				conflicts = append(conflicts, models.SlotConflict{ManualSlot: m, AutoSlot: a})
			}
		}
	}

	merged := make(map[slotKey]models.TimetableSlot, len(auto)+len(manual))
	for _, slot := range auto {
		merged[keyOf(slot)] = slot
	}
	for _, slot := range manual {
		merged[keyOf(slot)] = slot
	}
	slots := make([]models.TimetableSlot, 0, len(merged))
	for _, slot := range merged {
		slots = append(slots, slot)
	}
	sortTimetableSlots(slots)

	return models.Timetable{
		Slots:       slots,
		Conflicts:   conflicts,
		GeneratedAt: t.now().UTC(),
	}
}

// ResolveConflict keeps one side of the conflict at index, removes the other
// from the schedule and drops that conflict. Other conflicts are untouched.
func ResolveConflict(tt models.Timetable, index int, keep models.ConflictKeep) (models.Timetable, error) {
	if index < 0 || index >= len(tt.Conflicts) {
		return models.Timetable{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("conflict %d not found", index))
	}
	conflict := tt.Conflicts[index]

	var kept, dropped models.TimetableSlot
	switch keep {
	case models.ConflictKeepManual:
		kept, dropped = conflict.ManualSlot, conflict.AutoSlot
	case models.ConflictKeepAuto:
		kept, dropped = conflict.AutoSlot, conflict.ManualSlot
	default:
		return models.Timetable{}, appErrors.Clone(appErrors.ErrValidation, "keep must be manual or auto")
	}

	slots := make([]models.TimetableSlot, 0, len(tt.Slots)+1)
	hasKept := false
	// Whole-value equality relies on Generate keeping (day, start, course,
	// isManual) unique. A slot field that breaks that uniqueness must change
	// this match too.
	for _, slot := range tt.Slots {
		if slot == dropped {
			continue
		}
		if slot == kept {
			hasKept = true
		}
		slots = append(slots, slot)
	}
	if !hasKept {
		slots = append(slots, kept)
		sortTimetableSlots(slots)
	}

	conflicts := make([]models.SlotConflict, 0, len(tt.Conflicts)-1)
	conflicts = append(conflicts, tt.Conflicts[:index]...)
	conflicts = append(conflicts, tt.Conflicts[index+1:]...)

	return models.Timetable{Slots: slots, Conflicts: conflicts, GeneratedAt: tt.GeneratedAt}, nil
}

// GetCurrentAndNextClass finds the slot in progress at now and the next slot
// to start, wrapping to the following week when nothing remains this week.
func GetCurrentAndNextClass(slots []models.TimetableSlot, now time.Time) models.CurrentAndNext {
	day := int(now.Weekday())
	minute := now.Hour()*60 + now.Minute()
	nowInWeek := day*minutesPerDay + minute

	var result models.CurrentAndNext
	bestDelta := -1
	for i := range slots {
		slot := slots[i]
		start, okStart := clockMinutes(slot.StartTime)
		end, okEnd := clockMinutes(slot.EndTime)
		if !okStart || !okEnd {
			continue
		}
		if result.Current == nil && slot.DayOfWeek == day && start <= minute && minute < end {
			current := slot
			result.Current = &current
		}
		delta := slot.DayOfWeek*minutesPerDay + start - nowInWeek
		if delta <= 0 {
			delta += minutesPerWeek
		}
		if bestDelta < 0 || delta < bestDelta {
			bestDelta = delta
			next := slot
			result.Next = &next
		}
	}
	return result
}

// GetNearbySlots splits today's slots into ended, in progress and not yet started.
func GetNearbySlots(slots []models.TimetableSlot, now time.Time) models.NearbySlots {
	day := int(now.Weekday())
	minute := now.Hour()*60 + now.Minute()

	today := make([]models.TimetableSlot, 0)
	for _, slot := range slots {
		if slot.DayOfWeek == day {
			today = append(today, slot)
		}
	}
	sortTimetableSlots(today)

	result := models.NearbySlots{Previous: []models.TimetableSlot{}, Upcoming: []models.TimetableSlot{}}
	for _, slot := range today {
		start, okStart := clockMinutes(slot.StartTime)
		end, okEnd := clockMinutes(slot.EndTime)
		if !okStart || !okEnd {
			continue
		}
		switch {
		case end <= minute:
			result.Previous = append(result.Previous, slot)
		case start <= minute && result.Current == nil:
			current := slot
			result.Current = &current
		default:
			result.Upcoming = append(result.Upcoming, slot)
		}
	}
	return result
}

func keyOf(slot models.TimetableSlot) slotKey {
	return slotKey{day: slot.DayOfWeek, start: slot.StartTime, courseID: slot.CourseID}
}

// slotsOverlap uses half-open intervals, so back-to-back slots do not overlap.
func slotsOverlap(a, b models.TimetableSlot) bool {
	aStart, ok1 := clockMinutes(a.StartTime)
	aEnd, ok2 := clockMinutes(a.EndTime)
	bStart, ok3 := clockMinutes(b.StartTime)
	bEnd, ok4 := clockMinutes(b.EndTime)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

func sortTimetableSlots(slots []models.TimetableSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		return !a.IsManual && b.IsManual
	})
}
