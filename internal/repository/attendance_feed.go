package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bunkbook/internal/models"
)

const maxFeedBodyBytes = 16 << 20

// HTTPAttendanceFeedConfig points the feed client at the upstream endpoint.
type HTTPAttendanceFeedConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// HTTPAttendanceFeed fetches per-course attendance records from the LMS bridge.
// The body may be {"courses": [...]} or a bare array of courses.
type HTTPAttendanceFeed struct {
	url    string
	token  string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPAttendanceFeed constructs the feed client.
func NewHTTPAttendanceFeed(cfg HTTPAttendanceFeedConfig, client *http.Client, logger *zap.Logger) *HTTPAttendanceFeed {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPAttendanceFeed{url: cfg.URL, token: cfg.Token, client: client, logger: logger}
}

type feedEnvelope struct {
	Courses []models.CourseAttendance `json:"courses"`
}

// Fetch downloads and normalises the feed.
func (f *HTTPAttendanceFeed) Fetch(ctx context.Context) ([]models.CourseAttendance, error) {
	if f.url == "" {
		return nil, fmt.Errorf("feed url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("feed responded with status %d", resp.StatusCode)
	}

	courses, err := decodeFeed(body)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("feed fetched", zap.Int("courses", len(courses)), zap.Duration("duration", time.Since(start)))
	return courses, nil
}

func decodeFeed(body []byte) ([]models.CourseAttendance, error) {
	trimmed := bytes.TrimSpace(body)
	var courses []models.CourseAttendance
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &courses); err != nil {
			return nil, fmt.Errorf("decode feed: %w", err)
		}
	} else {
		var envelope feedEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode feed: %w", err)
		}
		courses = envelope.Courses
	}

	result := make([]models.CourseAttendance, 0, len(courses))
	for _, course := range courses {
		course.CourseID = strings.TrimSpace(course.CourseID)
		if course.CourseID == "" {
			continue
		}
		records := make([]models.AttendanceRecord, 0, len(course.Records))
		for _, record := range course.Records {
			record.Status = models.NormalizeAttendanceStatus(string(record.Status))
			records = append(records, record)
		}
		course.Records = records
		result = append(result, course)
	}
	return result, nil
}
