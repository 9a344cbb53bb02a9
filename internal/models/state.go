package models

import "time"

// AppState is the persisted snapshot owned by the host application.
type AppState struct {
	Attendance   []CourseAttendance `json:"attendance"`
	Courses      []CourseBunkData   `json:"courses"`
	Timetable    Timetable          `json:"timetable"`
	LastSyncedAt *time.Time         `json:"lastSyncedAt,omitempty"`
}

// StateMeta is the small metadata record persisted next to the snapshot.
type StateMeta struct {
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	Version      int        `json:"version"`
}

// SyncStatus is the runtime view of the refresh lifecycle.
type SyncStatus struct {
	IsLoading    bool       `json:"isLoading"`
	LastError    string     `json:"lastError,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	LastAttempt  *time.Time `json:"lastAttemptAt,omitempty"`
	CourseCount  int        `json:"courseCount"`
}

// CourseOverview pairs a ledger course with its budget.
type CourseOverview struct {
	CourseBunkData
	Stats CourseStats `json:"stats"`
}
