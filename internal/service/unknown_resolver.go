package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

// UnknownResolver lets the user decide what happened in sessions the feed
// reports as Unknown. Unresolved sessions are assumed present.
type UnknownResolver struct {
	ledger *BunkLedger
}

// NewUnknownResolver constructs a resolver on top of the ledger.
func NewUnknownResolver(ledger *BunkLedger) *UnknownResolver {
	return &UnknownResolver{ledger: ledger}
}

// List returns every Unknown session with its current resolution.
// Unresolved sessions come first, newest first within each group.
func (r *UnknownResolver) List(attendance []models.CourseAttendance, courses []models.CourseBunkData) []models.UnknownSession {
	byCourse := make(map[string]models.CourseBunkData, len(courses))
	for _, course := range courses {
		byCourse[course.CourseID] = course
	}

	sessions := make([]models.UnknownSession, 0)
	for _, feed := range attendance {
		course, hasCourse := byCourse[feed.CourseID]
		name := feed.CourseName
		if hasCourse {
			name = course.DisplayName()
		}
		seen := make(map[models.RecordKey]bool)
		for _, record := range feed.Records {
			if record.Status != models.AttendanceStatusUnknown || seen[record.Key()] {
				continue
			}
			seen[record.Key()] = true
			session := models.UnknownSession{
				CourseID:   feed.CourseID,
				CourseName: name,
				Record:     record,
				State:      models.UnknownStateAssumedPresent,
			}
			if bunk, ok := findBunk(course.Bunks, record.Key()); ok {
				session.State = resolutionOf(bunk)
				session.BunkID = bunk.ID
				session.Note = resolutionNote(bunk)
			}
			sessions = append(sessions, session)
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		ri := sessions[i].State.Resolved()
		rj := sessions[j].State.Resolved()
		if ri != rj {
			return !ri
		}
		return r.ledger.newerFirst(sessions[i].Record.Date, sessions[j].Record.Date)
	})
	return sessions
}

// Apply performs a resolution action on an Unknown session and returns the updated ledger.
func (r *UnknownResolver) Apply(
	attendance []models.CourseAttendance,
	courses []models.CourseBunkData,
	courseID string,
	key models.RecordKey,
	action models.UnknownAction,
	note string,
) ([]models.CourseBunkData, error) {
	if !isUnknownSession(attendance, courseID, key) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown session not found")
	}
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	note = strings.TrimSpace(note)

	bunks := cloneBunks(courses[idx].Bunks)
	pos := -1
	for i, bunk := range bunks {
		if bunk.Key() == key {
			pos = i
			break
		}
	}

	if action == models.UnknownActionRevert {
		if pos < 0 {
			return courses, nil
		}
		entry := &bunks[pos]
		entry.IsDutyLeave = false
		entry.DutyLeaveNote = ""
		entry.IsMarkedPresent = false
		entry.PresenceNote = ""
		entry.UnknownState = models.UnknownStateAssumedPresent
		next := cloneCourses(courses)
		next[idx].Bunks = bunks
		return next, nil
	}

	if pos < 0 {
		bunks = append(bunks, models.BunkRecord{
			ID:           r.ledger.newID(),
			Date:         key.Date,
			Description:  key.Description,
			TimeSlot:     TimeSlotLabel(key.Date),
			Source:       models.BunkSourceUser,
			UnknownState: models.UnknownStateAssumedPresent,
		})
		pos = len(bunks) - 1
	}
	entry := &bunks[pos]

	switch action {
	case models.UnknownActionConfirmPresent:
		entry.IsMarkedPresent = true
		entry.PresenceNote = note
		entry.IsDutyLeave = false
		entry.DutyLeaveNote = ""
		entry.UnknownState = models.UnknownStateConfirmedPresent
	case models.UnknownActionConfirmAbsent:
		entry.IsMarkedPresent = false
		entry.PresenceNote = ""
		entry.IsDutyLeave = false
		entry.DutyLeaveNote = ""
		if note != "" {
			entry.Note = note
		}
		entry.UnknownState = models.UnknownStateConfirmedAbsent
	case models.UnknownActionDutyLeave:
		entry.IsDutyLeave = true
		entry.DutyLeaveNote = note
		entry.IsMarkedPresent = false
		entry.PresenceNote = ""
		entry.UnknownState = models.UnknownStateDutyLeave
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action %q", action))
	}

	next := cloneCourses(courses)
	next[idx].Bunks = bunks
	return next, nil
}

func isUnknownSession(attendance []models.CourseAttendance, courseID string, key models.RecordKey) bool {
	for _, feed := range attendance {
		if feed.CourseID != courseID {
			continue
		}
		for _, record := range feed.Records {
			if record.Status == models.AttendanceStatusUnknown && record.Key() == key {
				return true
			}
		}
	}
	return false
}

func findBunk(bunks []models.BunkRecord, key models.RecordKey) (models.BunkRecord, bool) {
	for _, bunk := range bunks {
		if bunk.Key() == key {
			return bunk, true
		}
	}
	return models.BunkRecord{}, false
}

func resolutionOf(bunk models.BunkRecord) models.UnknownState {
	switch {
	case bunk.IsMarkedPresent:
		return models.UnknownStateConfirmedPresent
	case bunk.IsDutyLeave:
		return models.UnknownStateDutyLeave
	case bunk.UnknownState == models.UnknownStateAssumedPresent:
		return models.UnknownStateAssumedPresent
	default:
		return models.UnknownStateConfirmedAbsent
	}
}

func resolutionNote(bunk models.BunkRecord) string {
	switch {
	case bunk.IsMarkedPresent:
		return bunk.PresenceNote
	case bunk.IsDutyLeave:
		return bunk.DutyLeaveNote
	default:
		return bunk.Note
	}
}
