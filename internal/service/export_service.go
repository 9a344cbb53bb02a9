package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
	"github.com/noah-isme/bunkbook/pkg/export"
)

// Export datasets.
const (
	ExportDatasetTimetable = "timetable"
	ExportDatasetBunks     = "bunks"
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type snapshotSource interface {
	Snapshot() models.AppState
}

// ExportResult is a rendered export ready to be served.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the timetable and the bunk ledger as CSV or PDF.
type ExportService struct {
	source snapshotSource
	ledger *BunkLedger
	csv    export.Renderer
	pdf    export.Renderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source snapshotSource, ledger *BunkLedger, logger *zap.Logger, csv, pdf export.Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, ledger: ledger, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders dataset in the requested format.
func (s *ExportService) Export(dataset, rawFormat string) (*ExportResult, error) {
	format, err := export.ParseFormat(strings.ToLower(rawFormat))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	state := s.source.Snapshot()
	var data export.Dataset
	switch dataset {
	case ExportDatasetTimetable:
		data = s.timetableDataset(state)
	case ExportDatasetBunks:
		data = s.bunksDataset(state)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported dataset %q", dataset))
	}

	renderer := s.csv
	if format == export.FormatPDF {
		renderer = s.pdf
	}
	payload, err := renderer.Render(data)
	if err != nil {
		s.logger.Error("export render failed", zap.String("dataset", dataset), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("%s-%s.%s", dataset, s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *ExportService) timetableDataset(state models.AppState) export.Dataset {
	names := courseNames(state.Courses)
	rows := make([]map[string]string, 0, len(state.Timetable.Slots))
	for _, slot := range state.Timetable.Slots {
		source := "lms"
		if slot.IsManual {
			source = "manual"
		}
		rows = append(rows, map[string]string{
			"day":    dayName(slot.DayOfWeek),
			"start":  slot.StartTime,
			"end":    slot.EndTime,
			"course": lookupName(names, slot.CourseID),
			"type":   string(slot.SessionType),
			"source": source,
		})
	}
	return export.Dataset{
		Title:   "Weekly Timetable",
		Headers: []string{"day", "start", "end", "course", "type", "source"},
		Rows:    rows,
	}
}

func (s *ExportService) bunksDataset(state models.AppState) export.Dataset {
	now := s.now()
	rows := make([]map[string]string, 0)
	for _, course := range state.Courses {
		stats := s.ledger.SelectCourseStats(course, now)
		for _, bunk := range course.Bunks {
			slot := ""
			if bunk.TimeSlot != nil {
				slot = *bunk.TimeSlot
			}
			rows = append(rows, map[string]string{
				"course":      course.DisplayName(),
				"date":        bunk.Date,
				"slot":        slot,
				"description": bunk.Description,
				"status":      bunkStatus(bunk),
				"note":        bunk.Note,
				"bunksLeft":   strconv.Itoa(stats.BunksLeft),
			})
		}
	}
	return export.Dataset{
		Title:   "Bunk Ledger",
		Headers: []string{"course", "date", "slot", "description", "status", "note", "bunksLeft"},
		Rows:    rows,
	}
}

func bunkStatus(bunk models.BunkRecord) string {
	switch {
	case bunk.IsDutyLeave:
		return "duty leave"
	case bunk.IsMarkedPresent:
		return "marked present"
	case !bunk.Counts():
		return "assumed present"
	case bunk.Source == models.BunkSourceUser:
		return "manual"
	default:
		return "absent"
	}
}

func courseNames(courses []models.CourseBunkData) map[string]string {
	names := make(map[string]string, len(courses))
	for _, course := range courses {
		names[course.CourseID] = course.DisplayName()
	}
	return names
}

// lookupName falls back to the raw id for slots of removed courses.
func lookupName(names map[string]string, courseID string) string {
	if name, ok := names[courseID]; ok {
		return name
	}
	return courseID
}

func dayName(day int) string {
	if day < 0 || day >= len(weekdayNames) {
		return strconv.Itoa(day)
	}
	return weekdayNames[day]
}
