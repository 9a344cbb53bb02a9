package models

import "time"

// SessionType classifies a class session.
type SessionType string

const (
	SessionTypeRegular  SessionType = "regular"
	SessionTypeLab      SessionType = "lab"
	SessionTypeTutorial SessionType = "tutorial"
)

// Valid returns true when the session type is supported.
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeRegular, SessionTypeLab, SessionTypeTutorial:
		return true
	default:
		return false
	}
}

// ParsedSlot is the structured form of a feed date string.
// StartTime and EndTime are empty when no time range was found.
type ParsedSlot struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ManualSlot is a user-declared recurring weekly class time.
type ManualSlot struct {
	ID          string      `json:"id"`
	DayOfWeek   int         `json:"dayOfWeek"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	SessionType SessionType `json:"sessionType"`
}

// TimetableSlot is one entry of the synthesized weekly schedule.
type TimetableSlot struct {
	CourseID       string      `json:"courseId"`
	DayOfWeek      int         `json:"dayOfWeek"`
	StartTime      string      `json:"startTime"`
	EndTime        string      `json:"endTime"`
	SessionType    SessionType `json:"sessionType"`
	IsManual       bool        `json:"isManual"`
	IsCustomCourse bool        `json:"isCustomCourse"`
}

// SlotConflict pairs a manual slot with an overlapping auto slot on the same day.
type SlotConflict struct {
	ManualSlot TimetableSlot `json:"manualSlot"`
	AutoSlot   TimetableSlot `json:"autoSlot"`
}

// Timetable is the result of a synthesis run.
type Timetable struct {
	Slots       []TimetableSlot `json:"slots"`
	Conflicts   []SlotConflict  `json:"conflicts"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// ConflictKeep selects which side survives a conflict resolution.
type ConflictKeep string

const (
	ConflictKeepManual ConflictKeep = "manual"
	ConflictKeepAuto   ConflictKeep = "auto"
)

// CurrentAndNext is the "what now" view of the timetable.
type CurrentAndNext struct {
	Current *TimetableSlot `json:"current"`
	Next    *TimetableSlot `json:"next"`
}

// NearbySlots splits today's slots around the current moment.
type NearbySlots struct {
	Previous []TimetableSlot `json:"previous"`
	Current  *TimetableSlot  `json:"current"`
	Upcoming []TimetableSlot `json:"upcoming"`
}
