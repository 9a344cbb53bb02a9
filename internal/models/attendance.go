package models

import "strings"

// AttendanceStatus is the upstream verdict for a single session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLate    AttendanceStatus = "Late"
	AttendanceStatusExcused AttendanceStatus = "Excused"
	AttendanceStatusUnknown AttendanceStatus = "Unknown"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused, AttendanceStatusUnknown:
		return true
	default:
		return false
	}
}

// NormalizeAttendanceStatus maps free-form upstream values onto the known set.
// Anything unrecognised becomes Unknown.
func NormalizeAttendanceStatus(raw string) AttendanceStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present", "p":
		return AttendanceStatusPresent
	case "absent", "a":
		return AttendanceStatusAbsent
	case "late", "l":
		return AttendanceStatusLate
	case "excused", "e":
		return AttendanceStatusExcused
	default:
		return AttendanceStatusUnknown
	}
}

// AttendanceRecord is one session as reported by the LMS feed.
// The upstream has no stable id; (Date, Description) is the natural key.
type AttendanceRecord struct {
	Date        string           `json:"date"`
	Description string           `json:"description"`
	Status      AttendanceStatus `json:"status"`
	Remarks     string           `json:"remarks,omitempty"`
}

// Key returns the matching key for the record.
func (r AttendanceRecord) Key() RecordKey {
	return RecordKey{Date: r.Date, Description: r.Description}
}

// CourseAttendance groups the feed records of one course.
type CourseAttendance struct {
	CourseID           string             `json:"courseId"`
	CourseName         string             `json:"courseName"`
	AttendanceModuleID string             `json:"attendanceModuleId,omitempty"`
	Records            []AttendanceRecord `json:"records"`
}

// AttendanceSummary counts past sessions of a course by status.
type AttendanceSummary struct {
	CourseID   string  `json:"courseId"`
	CourseName string  `json:"courseName"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Excused    int     `json:"excused"`
	Unknown    int     `json:"unknown"`
	Upcoming   int     `json:"upcoming"`
	Total      int     `json:"total"`
	Percent    float64 `json:"percent"`
}
