package models

// RecordKey is the (date, description) pseudo-identity shared by feed records and bunks.
type RecordKey struct {
	Date        string
	Description string
}

// BunkSource records who produced a ledger entry.
type BunkSource string

const (
	BunkSourceLMS  BunkSource = "lms"
	BunkSourceUser BunkSource = "user"
)

// UnknownState tracks the resolution of a session the feed reported as Unknown.
type UnknownState string

const (
	UnknownStateAssumedPresent   UnknownState = "assumed_present"
	UnknownStateConfirmedPresent UnknownState = "confirmed_present"
	UnknownStateConfirmedAbsent  UnknownState = "confirmed_absent"
	UnknownStateDutyLeave        UnknownState = "duty_leave"
)

// Resolved reports whether the user has acted on the session.
func (s UnknownState) Resolved() bool {
	return s != "" && s != UnknownStateAssumedPresent
}

// BunkRecord is a ledger entry for one absence-like session.
type BunkRecord struct {
	ID              string       `json:"id"`
	Date            string       `json:"date"`
	Description     string       `json:"description"`
	TimeSlot        *string      `json:"timeSlot"`
	Note            string       `json:"note"`
	Source          BunkSource   `json:"source"`
	IsDutyLeave     bool         `json:"isDutyLeave"`
	DutyLeaveNote   string       `json:"dutyLeaveNote"`
	IsMarkedPresent bool         `json:"isMarkedPresent"`
	PresenceNote    string       `json:"presenceNote"`
	UnknownState    UnknownState `json:"unknownState,omitempty"`
}

// Key returns the matching key for the entry.
func (b BunkRecord) Key() RecordKey {
	return RecordKey{Date: b.Date, Description: b.Description}
}

// Counts reports whether the entry consumes allowance, ignoring the date.
func (b BunkRecord) Counts() bool {
	if b.IsDutyLeave || b.IsMarkedPresent {
		return false
	}
	return b.UnknownState != UnknownStateAssumedPresent
}

// CourseConfig holds the per-course settings that drive the budget.
type CourseConfig struct {
	Credits          int    `json:"credits"`
	Alias            string `json:"alias"`
	CourseCode       string `json:"courseCode"`
	Color            string `json:"color"`
	OverrideLmsSlots bool   `json:"overrideLmsSlots"`
}

// CourseBunkData is the ledger aggregate for one course.
type CourseBunkData struct {
	CourseID       string       `json:"courseId"`
	CourseName     string       `json:"courseName"`
	Config         CourseConfig `json:"config"`
	Bunks          []BunkRecord `json:"bunks"`
	ManualSlots    []ManualSlot `json:"manualSlots"`
	IsCustomCourse bool         `json:"isCustomCourse"`
	IsConfigured   bool         `json:"isConfigured"`
}

// DisplayName prefers the alias, then the course name, then the id.
func (c CourseBunkData) DisplayName() string {
	switch {
	case c.Config.Alias != "":
		return c.Config.Alias
	case c.CourseName != "":
		return c.CourseName
	default:
		return c.CourseID
	}
}

// CourseStats is the budget snapshot for a course.
type CourseStats struct {
	TotalBunks         int `json:"totalBunks"`
	UsedBunks          int `json:"usedBunks"`
	BunksLeft          int `json:"bunksLeft"`
	DutyLeaveCount     int `json:"dutyLeaveCount"`
	MarkedPresentCount int `json:"markedPresentCount"`
}

// DutyLeaveEntry is a duty-leave bunk flattened across courses.
type DutyLeaveEntry struct {
	CourseID   string     `json:"courseId"`
	CourseName string     `json:"courseName"`
	Bunk       BunkRecord `json:"bunk"`
}
