package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
	"github.com/noah-isme/bunkbook/pkg/jobs"
)

const (
	stateKeyAttendance = "attendance"
	stateKeyCourses    = "courses"
	stateKeyTimetable  = "timetable"
	stateKeyMeta       = "meta"

	stateVersion   = 1
	refreshJobType = "attendance_refresh"
)

type attendanceFeed interface {
	Fetch(ctx context.Context) ([]models.CourseAttendance, error)
}

type stateRepository interface {
	Load(ctx context.Context, key string, dest interface{}) error
	SaveAll(ctx context.Context, values map[string]interface{}) error
}

// AttendanceServiceConfig tunes the host store.
type AttendanceServiceConfig struct {
	KeyPrefix             string
	MinRefreshInterval    time.Duration
	StartToleranceMinutes int
}

// AttendanceService owns the application snapshot: it refreshes it from the
// feed, applies user edits through the ledger, and persists every change.
type AttendanceService struct {
	feed       attendanceFeed
	repo       stateRepository
	ledger     *BunkLedger
	resolver   *UnknownResolver
	editor     *CourseEditor
	inferencer *SlotInferencer
	synth      *TimetableSynthesizer
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        AttendanceServiceConfig
	now        func() time.Time

	queue *jobs.Queue

	mu          sync.RWMutex
	state       models.AppState
	loading     bool
	lastError   string
	lastAttempt time.Time
	seq         uint64
}

// NewAttendanceService constructs the host store.
func NewAttendanceService(
	feed attendanceFeed,
	repo stateRepository,
	parser *RecordParser,
	ledger *BunkLedger,
	cfg AttendanceServiceConfig,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
) *AttendanceService {
	if parser == nil {
		parser = NewRecordParser(RecordParserConfig{})
	}
	if ledger == nil {
		ledger = NewBunkLedger(parser, BunkLedgerConfig{})
	}
	if validate == nil {
		validate = NewValidator()
	} else {
		registerClockValidation(validate)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "bunkbook"
	}
	if cfg.StartToleranceMinutes < 0 {
		cfg.StartToleranceMinutes = DefaultStartToleranceMinutes
	}
	return &AttendanceService{
		feed:       feed,
		repo:       repo,
		ledger:     ledger,
		resolver:   NewUnknownResolver(ledger),
		editor:     NewCourseEditor(ledger),
		inferencer: NewSlotInferencer(parser),
		synth:      NewTimetableSynthesizer(parser),
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		state:      emptyState(),
	}
}

func emptyState() models.AppState {
	return models.AppState{
		Attendance: []models.CourseAttendance{},
		Courses:    []models.CourseBunkData{},
		Timetable:  models.Timetable{Slots: []models.TimetableSlot{}, Conflicts: []models.SlotConflict{}},
	}
}

// StartWorker starts the background refresh worker.
func (s *AttendanceService) StartWorker(ctx context.Context) {
	s.mu.Lock()
	if s.queue == nil {
		s.queue = jobs.NewQueue("attendance-refresh", s.handleRefreshJob, jobs.QueueConfig{
			Workers:    1,
			BufferSize: 1,
			Logger:     s.logger,
		})
	}
	queue := s.queue
	s.mu.Unlock()
	queue.Start(ctx)
}

// StopWorker stops the background refresh worker.
func (s *AttendanceService) StopWorker() {
	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()
	if queue != nil {
		queue.Stop()
	}
}

// Load restores the snapshot from the state repository. Missing keys leave the empty defaults.
func (s *AttendanceService) Load(ctx context.Context) error {
	state := emptyState()
	var meta models.StateMeta
	if err := s.load(ctx, stateKeyAttendance, &state.Attendance); err != nil {
		return err
	}
	if err := s.load(ctx, stateKeyCourses, &state.Courses); err != nil {
		return err
	}
	if err := s.load(ctx, stateKeyTimetable, &state.Timetable); err != nil {
		return err
	}
	if err := s.load(ctx, stateKeyMeta, &meta); err != nil {
		return err
	}
	state.LastSyncedAt = meta.LastSyncedAt
	normalizeState(&state)

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.metrics.SetLedgerSize(len(state.Courses), len(state.Timetable.Conflicts))
	s.logger.Info("state loaded", zap.Int("courses", len(state.Courses)), zap.Int("slots", len(state.Timetable.Slots)))
	return nil
}

func normalizeState(state *models.AppState) {
	if state.Attendance == nil {
		state.Attendance = []models.CourseAttendance{}
	}
	if state.Courses == nil {
		state.Courses = []models.CourseBunkData{}
	}
	if state.Timetable.Slots == nil {
		state.Timetable.Slots = []models.TimetableSlot{}
	}
	if state.Timetable.Conflicts == nil {
		state.Timetable.Conflicts = []models.SlotConflict{}
	}
}

// Snapshot returns the current application state.
func (s *AttendanceService) Snapshot() models.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status reports the refresh lifecycle.
func (s *AttendanceService) Status() models.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := models.SyncStatus{
		IsLoading:    s.loading,
		LastError:    s.lastError,
		LastSyncedAt: s.state.LastSyncedAt,
		CourseCount:  len(s.state.Courses),
	}
	if !s.lastAttempt.IsZero() {
		attempt := s.lastAttempt.UTC()
		status.LastAttempt = &attempt
	}
	return status
}

// RefreshNow fetches the feed and runs a sync inline.
func (s *AttendanceService) RefreshNow(ctx context.Context) error {
	seq, err := s.beginRefresh()
	if err != nil {
		return err
	}
	return s.runRefresh(ctx, seq)
}

// TriggerRefresh schedules a refresh on the background worker.
func (s *AttendanceService) TriggerRefresh(ctx context.Context) (models.SyncStatus, error) {
	seq, err := s.beginRefresh()
	if err != nil {
		return models.SyncStatus{}, err
	}
	s.mu.RLock()
	queue := s.queue
	s.mu.RUnlock()
	job := jobs.Job{ID: fmt.Sprintf("refresh-%d", seq), Type: refreshJobType, Payload: seq}
	if queue == nil || !queue.TryEnqueue(job) {
		s.abortRefresh(seq)
		return models.SyncStatus{}, appErrors.Clone(appErrors.ErrConflict, "refresh worker is unavailable")
	}
	return s.Status(), nil
}

func (s *AttendanceService) handleRefreshJob(ctx context.Context, job jobs.Job) error {
	seq, ok := job.Payload.(uint64)
	if !ok {
		return fmt.Errorf("unexpected refresh payload %T", job.Payload)
	}
	return s.runRefresh(ctx, seq)
}

func (s *AttendanceService) beginRefresh() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return 0, appErrors.Clone(appErrors.ErrConflict, "refresh already in progress")
	}
	now := s.now()
	if s.cfg.MinRefreshInterval > 0 && !s.lastAttempt.IsZero() {
		if wait := s.cfg.MinRefreshInterval - now.Sub(s.lastAttempt); wait > 0 {
			return 0, appErrors.Clone(appErrors.ErrTooManyRequests, fmt.Sprintf("refresh allowed again in %s", wait.Round(time.Second)))
		}
	}
	s.loading = true
	s.lastAttempt = now
	s.seq++
	return s.seq, nil
}

func (s *AttendanceService) abortRefresh(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == seq {
		s.loading = false
	}
}

// runRefresh fetches outside the lock; only the most recently started refresh may commit.
func (s *AttendanceService) runRefresh(ctx context.Context, seq uint64) error {
	started := time.Now()
	var (
		fresh []models.CourseAttendance
		err   error
	)
	if s.feed == nil {
		err = errors.New("attendance feed is not configured")
	} else {
		fresh, err = s.feed.Fetch(ctx)
		s.metrics.ObserveFeedFetch(time.Since(started))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.metrics.ObserveRefresh(RefreshResultSuperseded, time.Since(started))
		s.logger.Info("discarding superseded refresh", zap.Uint64("seq", seq), zap.Uint64("current", s.seq))
		return nil
	}
	s.loading = false

	if err != nil {
		s.lastError = err.Error()
		s.metrics.ObserveRefresh(RefreshResultFailure, time.Since(started))
		s.logger.Warn("attendance refresh failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrFeedUnavailable.Code, appErrors.ErrFeedUnavailable.Status, appErrors.ErrFeedUnavailable.Message)
	}
	if fresh == nil {
		fresh = []models.CourseAttendance{}
	}

	syncedAt := s.now().UTC()
	next := s.state
	next.Attendance = fresh
	next.Courses = s.ledger.Sync(fresh, s.state.Courses)
	next.Timetable = s.synth.Generate(fresh, next.Courses)
	next.LastSyncedAt = &syncedAt
	if err := s.persistLocked(ctx, next); err != nil {
		s.lastError = err.Error()
		s.metrics.ObserveRefresh(RefreshResultFailure, time.Since(started))
		return err
	}
	s.state = next
	s.lastError = ""
	s.metrics.ObserveRefresh(RefreshResultSuccess, time.Since(started))
	s.metrics.SetLedgerSize(len(next.Courses), len(next.Timetable.Conflicts))
	s.logger.Info("attendance refreshed",
		zap.Int("courses", len(next.Courses)),
		zap.Int("slots", len(next.Timetable.Slots)),
		zap.Int("conflicts", len(next.Timetable.Conflicts)),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// ResetToLms discards every correction and user entry and rebuilds from the last fetched feed.
func (s *AttendanceService) ResetToLms(ctx context.Context) error {
	return s.update(ctx, func(state models.AppState) (models.AppState, error) {
		state.Courses = s.ledger.ResetToLms(state.Attendance, state.Courses)
		state.Timetable = s.synth.Generate(state.Attendance, state.Courses)
		return state, nil
	})
}

// --- Queries ---

// Courses returns every ledger course with its budget.
func (s *AttendanceService) Courses() []models.CourseOverview {
	state := s.Snapshot()
	now := s.now()
	overviews := make([]models.CourseOverview, 0, len(state.Courses))
	for _, course := range state.Courses {
		overviews = append(overviews, models.CourseOverview{CourseBunkData: course, Stats: s.ledger.SelectCourseStats(course, now)})
	}
	return overviews
}

// Course returns one course with its budget.
func (s *AttendanceService) Course(courseID string) (models.CourseOverview, error) {
	state := s.Snapshot()
	idx := courseIndex(state.Courses, courseID)
	if idx < 0 {
		return models.CourseOverview{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	course := state.Courses[idx]
	return models.CourseOverview{CourseBunkData: course, Stats: s.ledger.SelectCourseStats(course, s.now())}, nil
}

// DutyLeaves lists duty-leave entries across courses.
func (s *AttendanceService) DutyLeaves() []models.DutyLeaveEntry {
	return s.ledger.SelectAllDutyLeaves(s.Snapshot().Courses)
}

// AttendanceSummary counts feed records per course.
func (s *AttendanceService) AttendanceSummary() []models.AttendanceSummary {
	state := s.Snapshot()
	now := s.now()
	summaries := make([]models.AttendanceSummary, 0, len(state.Attendance))
	for _, course := range state.Attendance {
		summaries = append(summaries, s.ledger.SelectAttendanceSummary(course, now))
	}
	return summaries
}

// Unknowns lists Unknown sessions and their resolutions.
func (s *AttendanceService) Unknowns() []models.UnknownSession {
	state := s.Snapshot()
	return s.resolver.List(state.Attendance, state.Courses)
}

// SuggestedSlots infers weekly slots from the feed history of a course.
func (s *AttendanceService) SuggestedSlots(courseID string) ([]models.ManualSlot, error) {
	state := s.Snapshot()
	if courseIndex(state.Courses, courseID) < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	}
	for _, course := range state.Attendance {
		if course.CourseID == courseID {
			return s.inferencer.Infer(course.Records, InferOptions{StartToleranceMinutes: s.cfg.StartToleranceMinutes}), nil
		}
	}
	return []models.ManualSlot{}, nil
}

// Timetable returns the current weekly schedule.
func (s *AttendanceService) Timetable() models.Timetable {
	return s.Snapshot().Timetable
}

// CurrentAndNext returns the class in progress and the next one, in the policy timezone.
func (s *AttendanceService) CurrentAndNext() models.CurrentAndNext {
	return GetCurrentAndNextClass(s.Snapshot().Timetable.Slots, s.now().In(s.ledger.Location()))
}

// Nearby splits today's schedule around the current moment, in the policy timezone.
func (s *AttendanceService) Nearby() models.NearbySlots {
	return GetNearbySlots(s.Snapshot().Timetable.Slots, s.now().In(s.ledger.Location()))
}

// --- Course settings ---

// ConfigureCourse updates course settings.
func (s *AttendanceService) ConfigureCourse(ctx context.Context, courseID string, req dto.ConfigureCourseRequest) (models.CourseOverview, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.CourseOverview{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course configuration")
	}
	err := s.updateCourses(ctx, req.OverrideLmsSlots != nil, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.editor.Configure(courses, courseID, req)
	})
	if err != nil {
		return models.CourseOverview{}, err
	}
	return s.Course(courseID)
}

// CreateCustomCourse adds a course the LMS does not know about.
func (s *AttendanceService) CreateCustomCourse(ctx context.Context, req dto.CreateCustomCourseRequest) (models.CourseOverview, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.CourseOverview{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid custom course payload")
	}
	var created models.CourseBunkData
	err := s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		next, course, err := s.editor.AddCustomCourse(courses, req)
		created = course
		return next, err
	})
	if err != nil {
		return models.CourseOverview{}, err
	}
	return s.Course(created.CourseID)
}

// DeleteCustomCourse removes a custom course.
func (s *AttendanceService) DeleteCustomCourse(ctx context.Context, courseID string) error {
	return s.updateCourses(ctx, true, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.editor.RemoveCustomCourse(courses, courseID)
	})
}

// --- Bunk corrections ---

// AddBunk logs a user entry.
func (s *AttendanceService) AddBunk(ctx context.Context, courseID string, req dto.AddBunkRequest) (models.BunkRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.BunkRecord{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bunk payload")
	}
	var entry models.BunkRecord
	err := s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		next, created, err := s.ledger.AddManualBunk(courses, courseID, req.Date, req.Description, req.Note)
		entry = created
		return next, err
	})
	return entry, err
}

// RemoveBunk deletes a user entry.
func (s *AttendanceService) RemoveBunk(ctx context.Context, courseID, bunkID string) error {
	return s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.ledger.RemoveBunk(courses, courseID, bunkID)
	})
}

// UpdateNote sets the note of an entry.
func (s *AttendanceService) UpdateNote(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	return s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.ledger.UpdateNote(courses, courseID, bunkID, req.Note)
	})
}

// SetDutyLeave marks an entry as duty leave.
func (s *AttendanceService) SetDutyLeave(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid duty leave payload")
	}
	return s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.ledger.SetDutyLeave(courses, courseID, bunkID, req.Note)
	})
}

// ClearDutyLeave removes a duty-leave correction.
func (s *AttendanceService) ClearDutyLeave(ctx context.Context, courseID, bunkID string) error {
	return s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.ledger.ClearDutyLeave(courses, courseID, bunkID)
	})
}

// SetMarkedPresent records that an absence was reported in error.
func (s *AttendanceService) SetMarkedPresent(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid presence payload")
	}
	return s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.ledger.SetMarkedPresent(courses, courseID, bunkID, req.Note)
	})
}

// ClearMarkedPresent removes a presence correction.
func (s *AttendanceService) ClearMarkedPresent(ctx context.Context, courseID, bunkID string) error {
	return s.updateCourses(ctx, false, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.ledger.ClearMarkedPresent(courses, courseID, bunkID)
	})
}

// ResolveUnknown applies a resolution to an Unknown session.
func (s *AttendanceService) ResolveUnknown(ctx context.Context, req dto.ResolveUnknownRequest) ([]models.UnknownSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	key := models.RecordKey{Date: req.Date, Description: req.Description}
	err := s.update(ctx, func(state models.AppState) (models.AppState, error) {
		courses, err := s.resolver.Apply(state.Attendance, state.Courses, req.CourseID, key, req.Action, req.Note)
		if err != nil {
			return state, err
		}
		state.Courses = courses
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Unknowns(), nil
}

// --- Manual slots and timetable ---

// AddManualSlot declares a weekly slot and regenerates the timetable.
func (s *AttendanceService) AddManualSlot(ctx context.Context, courseID string, req dto.ManualSlotRequest) (models.ManualSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ManualSlot{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	var slot models.ManualSlot
	err := s.updateCourses(ctx, true, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		next, created, err := s.editor.AddManualSlot(courses, courseID, req)
		slot = created
		return next, err
	})
	return slot, err
}

// UpdateManualSlot edits a weekly slot and regenerates the timetable.
func (s *AttendanceService) UpdateManualSlot(ctx context.Context, courseID, slotID string, req dto.ManualSlotRequest) (models.ManualSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ManualSlot{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	var slot models.ManualSlot
	err := s.updateCourses(ctx, true, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		next, updated, err := s.editor.UpdateManualSlot(courses, courseID, slotID, req)
		slot = updated
		return next, err
	})
	return slot, err
}

// RemoveManualSlot deletes a weekly slot and regenerates the timetable.
func (s *AttendanceService) RemoveManualSlot(ctx context.Context, courseID, slotID string) error {
	return s.updateCourses(ctx, true, func(courses []models.CourseBunkData) ([]models.CourseBunkData, error) {
		return s.editor.RemoveManualSlot(courses, courseID, slotID)
	})
}

// RegenerateTimetable rebuilds the timetable, discarding earlier conflict resolutions.
func (s *AttendanceService) RegenerateTimetable(ctx context.Context) (models.Timetable, error) {
	err := s.update(ctx, func(state models.AppState) (models.AppState, error) {
		state.Timetable = s.synth.Generate(state.Attendance, state.Courses)
		return state, nil
	})
	return s.Timetable(), err
}

// ResolveConflict keeps one side of a timetable conflict.
func (s *AttendanceService) ResolveConflict(ctx context.Context, index int, req dto.ResolveConflictRequest) (models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Timetable{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict resolution payload")
	}
	err := s.update(ctx, func(state models.AppState) (models.AppState, error) {
		tt, err := ResolveConflict(state.Timetable, index, req.Keep)
		if err != nil {
			return state, err
		}
		state.Timetable = tt
		return state, nil
	})
	if err != nil {
		return models.Timetable{}, err
	}
	return s.Timetable(), nil
}

// --- State plumbing ---

func (s *AttendanceService) updateCourses(ctx context.Context, regenerate bool, fn func([]models.CourseBunkData) ([]models.CourseBunkData, error)) error {
	return s.update(ctx, func(state models.AppState) (models.AppState, error) {
		courses, err := fn(state.Courses)
		if err != nil {
			return state, err
		}
		state.Courses = courses
		if regenerate {
			state.Timetable = s.synth.Generate(state.Attendance, courses)
		}
		return state, nil
	})
}

// update computes the next state, persists it and only then swaps it in.
func (s *AttendanceService) update(ctx context.Context, fn func(models.AppState) (models.AppState, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.state)
	if err != nil {
		return err
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.state = next
	s.metrics.SetLedgerSize(len(next.Courses), len(next.Timetable.Conflicts))
	return nil
}

func (s *AttendanceService) persistLocked(ctx context.Context, state models.AppState) error {
	if s.repo == nil {
		return nil
	}
	values := map[string]interface{}{
		s.key(stateKeyAttendance): state.Attendance,
		s.key(stateKeyCourses):    state.Courses,
		s.key(stateKeyTimetable):  state.Timetable,
		s.key(stateKeyMeta):       models.StateMeta{LastSyncedAt: state.LastSyncedAt, Version: stateVersion},
	}
	start := time.Now()
	err := s.repo.SaveAll(ctx, values)
	s.metrics.ObserveStoreOperation("save", time.Since(start), err)
	if err != nil {
		s.logger.Error("failed to persist state", zap.String("prefix", s.cfg.KeyPrefix), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist state")
	}
	return nil
}

func (s *AttendanceService) load(ctx context.Context, suffix string, dest interface{}) error {
	if s.repo == nil {
		return nil
	}
	start := time.Now()
	err := s.repo.Load(ctx, s.key(suffix), dest)
	if errors.Is(err, appErrors.ErrStateNotFound) {
		s.metrics.ObserveStoreOperation("load", time.Since(start), nil)
		return nil
	}
	s.metrics.ObserveStoreOperation("load", time.Since(start), err)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stored state")
	}
	return nil
}

func (s *AttendanceService) key(suffix string) string {
	return s.cfg.KeyPrefix + ":" + suffix
}
