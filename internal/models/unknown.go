package models

// UnknownSession is a feed session with status Unknown and its resolution.
type UnknownSession struct {
	CourseID   string           `json:"courseId"`
	CourseName string           `json:"courseName"`
	Record     AttendanceRecord `json:"record"`
	State      UnknownState     `json:"state"`
	BunkID     string           `json:"bunkId,omitempty"`
	Note       string           `json:"note,omitempty"`
}

// UnknownAction is a user transition on an Unknown session.
type UnknownAction string

const (
	UnknownActionConfirmPresent UnknownAction = "confirm_present"
	UnknownActionConfirmAbsent  UnknownAction = "confirm_absent"
	UnknownActionDutyLeave      UnknownAction = "duty_leave"
	UnknownActionRevert         UnknownAction = "revert"
)
