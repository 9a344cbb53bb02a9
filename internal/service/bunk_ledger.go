package service

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

const (
	DefaultBunksPerCredit = 2
	DefaultBaseBunks      = 1
)

var (
	courseCodePattern   = regexp.MustCompile(`\b([A-Z]{2,4})\s?-?(\d{3,4}[A-Z]?)\b`)
	bracketedPattern    = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)
	courseColorPalette  = []string{"#4F46E5", "#0EA5E9", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#EC4899", "#14B8A6", "#F97316", "#64748B"}
	aliasTrimCharacters = " -:|,"
)

// BunkLedgerConfig carries the budget policy. Non-positive values fall back
// to the defaults, so the zero value yields 2*credits+1.
type BunkLedgerConfig struct {
	BunksPerCredit int
	BaseBunks      int
	CreditTable    map[string]int
	Location       *time.Location
}

// BunkLedger merges feed absences with local corrections and computes budgets.
// All methods are pure: inputs are never mutated and a new ledger is returned.
type BunkLedger struct {
	parser         *RecordParser
	bunksPerCredit int
	baseBunks      int
	credits        map[string]int
	loc            *time.Location
	newID          func() string
}

// NewBunkLedger constructs a ledger.
func NewBunkLedger(parser *RecordParser, cfg BunkLedgerConfig) *BunkLedger {
	if parser == nil {
		parser = NewRecordParser(RecordParserConfig{})
	}
	if cfg.BunksPerCredit <= 0 {
		cfg.BunksPerCredit = DefaultBunksPerCredit
	}
	if cfg.BaseBunks <= 0 {
		cfg.BaseBunks = DefaultBaseBunks
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	credits := make(map[string]int, len(cfg.CreditTable))
	for code, value := range cfg.CreditTable {
		credits[normalizeCourseCode(code)] = value
	}
	return &BunkLedger{
		parser:         parser,
		bunksPerCredit: cfg.BunksPerCredit,
		baseBunks:      cfg.BaseBunks,
		credits:        credits,
		loc:            cfg.Location,
		newID:          uuid.NewString,
	}
}

// Location returns the timezone used to decide what "today" is.
func (l *BunkLedger) Location() *time.Location {
	return l.loc
}

// Sync merges a fresh feed into the prior ledger. Corrections on entries the
// feed still reports as Absent are carried over; user entries survive; LMS
// entries that disappeared from the feed are dropped. Running Sync again with
// the same feed returns an equal ledger.
func (l *BunkLedger) Sync(fresh []models.CourseAttendance, prior []models.CourseBunkData) []models.CourseBunkData {
	priorByID := make(map[string]models.CourseBunkData, len(prior))
	for _, course := range prior {
		if _, exists := priorByID[course.CourseID]; !exists {
			priorByID[course.CourseID] = course
		}
	}

	result := make([]models.CourseBunkData, 0, len(fresh)+len(prior))
	seen := make(map[string]bool, len(fresh))
	for _, course := range fresh {
		if course.CourseID == "" || seen[course.CourseID] {
			continue
		}
		seen[course.CourseID] = true
		prev, hasPrev := priorByID[course.CourseID]
		result = append(result, l.syncCourse(course, prev, hasPrev))
	}

	for _, prev := range prior {
		if seen[prev.CourseID] {
			continue
		}
		seen[prev.CourseID] = true
		result = append(result, retainOrphanCourse(prev))
	}
	return result
}

// ResetToLms rebuilds the ledger from the feed, discarding every correction
// and user entry. Course settings and manual slots are kept; custom courses
// are kept with no bunks.
func (l *BunkLedger) ResetToLms(fresh []models.CourseAttendance, prior []models.CourseBunkData) []models.CourseBunkData {
	priorByID := make(map[string]models.CourseBunkData, len(prior))
	for _, course := range prior {
		priorByID[course.CourseID] = course
	}

	result := make([]models.CourseBunkData, 0, len(fresh))
	seen := make(map[string]bool, len(fresh))
	for _, course := range fresh {
		if course.CourseID == "" || seen[course.CourseID] {
			continue
		}
		seen[course.CourseID] = true
		prev, hasPrev := priorByID[course.CourseID]
		cfg := l.refreshConfig(course, prev, hasPrev)
		next := models.CourseBunkData{
			CourseID:     course.CourseID,
			CourseName:   course.CourseName,
			Config:       cfg,
			Bunks:        l.deriveLMSEntries(course.Records),
			ManualSlots:  cloneManualSlots(prev.ManualSlots),
			IsConfigured: cfg.Credits > 0,
		}
		result = append(result, next)
	}
	for _, prev := range prior {
		if seen[prev.CourseID] || !prev.IsCustomCourse {
			continue
		}
		custom := prev
		custom.Bunks = []models.BunkRecord{}
		custom.ManualSlots = cloneManualSlots(prev.ManualSlots)
		result = append(result, custom)
	}
	return result
}

func (l *BunkLedger) syncCourse(course models.CourseAttendance, prev models.CourseBunkData, hasPrev bool) models.CourseBunkData {
	lmsEntries := l.deriveLMSEntries(course.Records)
	lmsKeys := make(map[models.RecordKey]bool, len(lmsEntries))
	for _, entry := range lmsEntries {
		lmsKeys[entry.Key()] = true
	}

	priorLMS := make(map[models.RecordKey]models.BunkRecord)
	priorUser := make(map[models.RecordKey]models.BunkRecord)
	userEntries := make([]models.BunkRecord, 0)
	for _, bunk := range prev.Bunks {
		key := bunk.Key()
		if bunk.Source == models.BunkSourceUser {
			if !lmsKeys[key] {
				userEntries = append(userEntries, bunk)
				continue
			}
			if _, exists := priorUser[key]; !exists {
				priorUser[key] = bunk
			}
			continue
		}
		if _, exists := priorLMS[key]; !exists {
			priorLMS[key] = bunk
		}
	}

	for i := range lmsEntries {
		key := lmsEntries[i].Key()
		if match, ok := priorLMS[key]; ok {
			carryCorrections(&lmsEntries[i], match)
		} else if match, ok := priorUser[key]; ok {
			carryCorrections(&lmsEntries[i], match)
		}
	}

	cfg := l.refreshConfig(course, prev, hasPrev)
	return models.CourseBunkData{
		CourseID:       course.CourseID,
		CourseName:     course.CourseName,
		Config:         cfg,
		Bunks:          append(lmsEntries, userEntries...),
		ManualSlots:    cloneManualSlots(prev.ManualSlots),
		IsCustomCourse: false,
		IsConfigured:   cfg.Credits > 0,
	}
}

// deriveLMSEntries creates one blank entry per Absent record; repeated keys collapse to the first.
func (l *BunkLedger) deriveLMSEntries(records []models.AttendanceRecord) []models.BunkRecord {
	entries := make([]models.BunkRecord, 0)
	seen := make(map[models.RecordKey]bool)
	for _, record := range records {
		if record.Status != models.AttendanceStatusAbsent {
			continue
		}
		key := record.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, models.BunkRecord{
			ID:          l.newID(),
			Date:        record.Date,
			Description: record.Description,
			TimeSlot:    TimeSlotLabel(record.Date),
			Source:      models.BunkSourceLMS,
		})
	}
	return entries
}

func carryCorrections(dst *models.BunkRecord, src models.BunkRecord) {
	dst.ID = src.ID
	dst.Note = src.Note
	dst.IsDutyLeave = src.IsDutyLeave
	dst.DutyLeaveNote = src.DutyLeaveNote
	dst.IsMarkedPresent = src.IsMarkedPresent
	dst.PresenceNote = src.PresenceNote
}

// retainOrphanCourse keeps a course the feed no longer reports: settings,
// manual slots and user entries stay, LMS entries go.
func retainOrphanCourse(prev models.CourseBunkData) models.CourseBunkData {
	next := prev
	next.ManualSlots = cloneManualSlots(prev.ManualSlots)
	next.Bunks = make([]models.BunkRecord, 0, len(prev.Bunks))
	for _, bunk := range prev.Bunks {
		if bunk.Source == models.BunkSourceUser {
			next.Bunks = append(next.Bunks, bunk)
		}
	}
	return next
}

func (l *BunkLedger) refreshConfig(course models.CourseAttendance, prev models.CourseBunkData, hasPrev bool) models.CourseConfig {
	code, alias := DeriveCourseIdentity(course.CourseName)
	cfg := models.CourseConfig{Alias: alias, CourseCode: code}
	if hasPrev {
		cfg.Credits = prev.Config.Credits
		cfg.Color = prev.Config.Color
		cfg.OverrideLmsSlots = prev.Config.OverrideLmsSlots
	}
	if cfg.Credits <= 0 && code != "" {
		cfg.Credits = l.credits[code]
	}
	if cfg.Color == "" {
		cfg.Color = PaletteColor(course.CourseID)
	}
	return cfg
}

// DeriveCourseIdentity splits a raw LMS course name into a course code and a display alias.
// "CS2001 Data Structures (Section A)" yields ("CS2001", "Data Structures").
func DeriveCourseIdentity(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	code := ""
	rest := trimmed
	if loc := courseCodePattern.FindStringSubmatchIndex(trimmed); loc != nil {
		code = trimmed[loc[2]:loc[3]] + trimmed[loc[4]:loc[5]]
		rest = trimmed[:loc[0]] + " " + trimmed[loc[1]:]
	}
	alias := bracketedPattern.ReplaceAllString(rest, "")
	alias = strings.Join(strings.Fields(alias), " ")
	alias = strings.Trim(alias, aliasTrimCharacters)
	if alias == "" {
		alias = trimmed
	}
	return code, alias
}

// PaletteColor picks a stable color for a course id.
func PaletteColor(courseID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseID))
	return courseColorPalette[h.Sum32()%uint32(len(courseColorPalette))]
}

func normalizeCourseCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.Join(strings.Fields(code), ""), "-", ""))
}

// TotalBunks applies the allowance formula for the given credits.
func (l *BunkLedger) TotalBunks(credits int) int {
	return l.bunksPerCredit*credits + l.baseBunks
}

// SelectCourseStats computes the budget for a course as of now. Entries dated
// after today, or whose date cannot be parsed, are not counted.
func (l *BunkLedger) SelectCourseStats(course models.CourseBunkData, now time.Time) models.CourseStats {
	stats := models.CourseStats{TotalBunks: l.TotalBunks(course.Config.Credits)}
	for _, bunk := range course.Bunks {
		if !l.isPastOrToday(bunk.Date, now) {
			continue
		}
		switch {
		case bunk.IsDutyLeave:
			stats.DutyLeaveCount++
		case bunk.IsMarkedPresent:
			stats.MarkedPresentCount++
		case bunk.Counts():
			stats.UsedBunks++
		}
	}
	stats.BunksLeft = stats.TotalBunks - stats.UsedBunks
	return stats
}

// SelectAllDutyLeaves lists duty-leave entries across courses, newest first.
func (l *BunkLedger) SelectAllDutyLeaves(courses []models.CourseBunkData) []models.DutyLeaveEntry {
	entries := make([]models.DutyLeaveEntry, 0)
	for _, course := range courses {
		for _, bunk := range course.Bunks {
			if !bunk.IsDutyLeave {
				continue
			}
			entries = append(entries, models.DutyLeaveEntry{
				CourseID:   course.CourseID,
				CourseName: course.DisplayName(),
				Bunk:       bunk,
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return l.newerFirst(entries[i].Bunk.Date, entries[j].Bunk.Date)
	})
	return entries
}

// SelectAttendanceSummary counts the past feed records of a course. Unknown
// sessions are reported separately and stay out of the percentage.
func (l *BunkLedger) SelectAttendanceSummary(course models.CourseAttendance, now time.Time) models.AttendanceSummary {
	summary := models.AttendanceSummary{CourseID: course.CourseID, CourseName: course.CourseName}
	for _, record := range course.Records {
		if !l.isPastOrToday(record.Date, now) {
			summary.Upcoming++
			continue
		}
		summary.Total++
		switch record.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusExcused:
			summary.Excused++
		default:
			summary.Unknown++
		}
	}
	attended := summary.Present + summary.Late + summary.Excused
	if decided := attended + summary.Absent; decided > 0 {
		summary.Percent = math.Round(float64(attended)/float64(decided)*1000) / 10
	}
	return summary
}

func (l *BunkLedger) isPastOrToday(raw string, now time.Time) bool {
	date, ok := l.parser.ParseDate(raw, l.loc)
	if !ok {
		return false
	}
	local := now.In(l.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, l.loc)
	return !date.After(today)
}

// newerFirst orders by parsed date descending; unparseable dates sort last.
func (l *BunkLedger) newerFirst(a, b string) bool {
	da, okA := l.parser.ParseDate(a, l.loc)
	db, okB := l.parser.ParseDate(b, l.loc)
	switch {
	case okA && okB:
		return da.After(db)
	case okA != okB:
		return okA
	default:
		return false
	}
}

// --- Corrections ---

// UpdateNote replaces the free-text note of an entry.
func (l *BunkLedger) UpdateNote(courses []models.CourseBunkData, courseID, bunkID, note string) ([]models.CourseBunkData, error) {
	return updateBunk(courses, courseID, bunkID, func(b *models.BunkRecord) error {
		b.Note = strings.TrimSpace(note)
		return nil
	})
}

// SetDutyLeave excuses an entry from the budget. It clears any presence correction.
func (l *BunkLedger) SetDutyLeave(courses []models.CourseBunkData, courseID, bunkID, note string) ([]models.CourseBunkData, error) {
	return updateBunk(courses, courseID, bunkID, func(b *models.BunkRecord) error {
		b.IsDutyLeave = true
		b.DutyLeaveNote = strings.TrimSpace(note)
		b.IsMarkedPresent = false
		b.PresenceNote = ""
		if b.UnknownState != "" {
			b.UnknownState = models.UnknownStateDutyLeave
		}
		return nil
	})
}

// ClearDutyLeave removes a duty-leave correction.
func (l *BunkLedger) ClearDutyLeave(courses []models.CourseBunkData, courseID, bunkID string) ([]models.CourseBunkData, error) {
	return updateBunk(courses, courseID, bunkID, func(b *models.BunkRecord) error {
		b.IsDutyLeave = false
		b.DutyLeaveNote = ""
		if b.UnknownState == models.UnknownStateDutyLeave {
			b.UnknownState = models.UnknownStateConfirmedAbsent
		}
		return nil
	})
}

// SetMarkedPresent records that the absence was reported in error. It clears any duty leave.
func (l *BunkLedger) SetMarkedPresent(courses []models.CourseBunkData, courseID, bunkID, note string) ([]models.CourseBunkData, error) {
	return updateBunk(courses, courseID, bunkID, func(b *models.BunkRecord) error {
		b.IsMarkedPresent = true
		b.PresenceNote = strings.TrimSpace(note)
		b.IsDutyLeave = false
		b.DutyLeaveNote = ""
		if b.UnknownState != "" {
			b.UnknownState = models.UnknownStateConfirmedPresent
		}
		return nil
	})
}

// ClearMarkedPresent removes a presence correction.
func (l *BunkLedger) ClearMarkedPresent(courses []models.CourseBunkData, courseID, bunkID string) ([]models.CourseBunkData, error) {
	return updateBunk(courses, courseID, bunkID, func(b *models.BunkRecord) error {
		b.IsMarkedPresent = false
		b.PresenceNote = ""
		if b.UnknownState == models.UnknownStateConfirmedPresent {
			b.UnknownState = models.UnknownStateConfirmedAbsent
		}
		return nil
	})
}

// AddManualBunk logs a user entry. A second entry with the same (date, description) is rejected.
func (l *BunkLedger) AddManualBunk(courses []models.CourseBunkData, courseID, date, description, note string) ([]models.CourseBunkData, models.BunkRecord, error) {
	date = strings.TrimSpace(date)
	description = strings.TrimSpace(description)
	if date == "" || description == "" {
		return nil, models.BunkRecord{}, appErrors.Clone(appErrors.ErrValidation, "date and description are required")
	}
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, models.BunkRecord{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	key := models.RecordKey{Date: date, Description: description}
	for _, bunk := range courses[idx].Bunks {
		if bunk.Key() == key {
			return nil, models.BunkRecord{}, appErrors.Clone(appErrors.ErrConflict, "an entry for this session already exists")
		}
	}
	entry := models.BunkRecord{
		ID:          l.newID(),
		Date:        date,
		Description: description,
		TimeSlot:    TimeSlotLabel(date),
		Note:        strings.TrimSpace(note),
		Source:      models.BunkSourceUser,
	}
	next := cloneCourses(courses)
	next[idx].Bunks = append(cloneBunks(courses[idx].Bunks), entry)
	return next, entry, nil
}

// RemoveBunk deletes a user entry. Feed entries cannot be removed, only corrected.
func (l *BunkLedger) RemoveBunk(courses []models.CourseBunkData, courseID, bunkID string) ([]models.CourseBunkData, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	bunks := courses[idx].Bunks
	for i, bunk := range bunks {
		if bunk.ID != bunkID {
			continue
		}
		if bunk.Source != models.BunkSourceUser {
			return nil, appErrors.Clone(appErrors.ErrValidation, "feed entries cannot be removed; mark them as duty leave or present instead")
		}
		next := cloneCourses(courses)
		remaining := make([]models.BunkRecord, 0, len(bunks)-1)
		remaining = append(remaining, bunks[:i]...)
		remaining = append(remaining, bunks[i+1:]...)
		next[idx].Bunks = remaining
		return next, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("bunk %s not found", bunkID))
}

func updateBunk(courses []models.CourseBunkData, courseID, bunkID string, fn func(*models.BunkRecord) error) ([]models.CourseBunkData, error) {
	idx := courseIndex(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	for i, bunk := range courses[idx].Bunks {
		if bunk.ID != bunkID {
			continue
		}
		bunks := cloneBunks(courses[idx].Bunks)
		if err := fn(&bunks[i]); err != nil {
			return nil, err
		}
		next := cloneCourses(courses)
		next[idx].Bunks = bunks
		return next, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("bunk %s not found", bunkID))
}

func courseIndex(courses []models.CourseBunkData, courseID string) int {
	for i, course := range courses {
		if course.CourseID == courseID {
			return i
		}
	}
	return -1
}

func cloneCourses(courses []models.CourseBunkData) []models.CourseBunkData {
	next := make([]models.CourseBunkData, len(courses))
	copy(next, courses)
	return next
}

func cloneBunks(bunks []models.BunkRecord) []models.BunkRecord {
	next := make([]models.BunkRecord, len(bunks))
	copy(next, bunks)
	return next
}

func cloneManualSlots(slots []models.ManualSlot) []models.ManualSlot {
	next := make([]models.ManualSlot, len(slots))
	copy(next, slots)
	return next
}
