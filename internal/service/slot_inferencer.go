package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/bunkbook/internal/models"
)

// DefaultStartToleranceMinutes groups sessions whose start drifts by at most this much.
const DefaultStartToleranceMinutes = 5

// InferOptions tunes slot inference.
type InferOptions struct {
	StartToleranceMinutes int
}

// SlotInferencer derives recurring weekly slots from a course's history.
type SlotInferencer struct {
	parser *RecordParser
}

// NewSlotInferencer constructs an inferencer.
func NewSlotInferencer(parser *RecordParser) *SlotInferencer {
	if parser == nil {
		parser = NewRecordParser(RecordParserConfig{})
	}
	return &SlotInferencer{parser: parser}
}

type inferredGroup struct {
	day    int
	anchor int
	slot   models.ManualSlot
}

// Infer groups records by weekday and by start time within the tolerance.
// The first record of each group supplies the slot. Records without a
// weekday or a usable time range are ignored.
func (s *SlotInferencer) Infer(records []models.AttendanceRecord, opts InferOptions) []models.ManualSlot {
	tolerance := opts.StartToleranceMinutes
	if tolerance < 0 {
		tolerance = 0
	}

	groups := make([]inferredGroup, 0)
	for _, record := range records {
		parsed := s.parser.ParseSlot(record.Date)
		if parsed == nil || DurationMinutes(parsed.StartTime, parsed.EndTime) == 0 {
			continue
		}
		start, _ := clockMinutes(parsed.StartTime)

		best := -1
		for i, group := range groups {
			if group.day != parsed.DayOfWeek {
				continue
			}
			diff := absInt(group.anchor - start)
			if diff > tolerance {
				continue
			}
			if best < 0 || diff < absInt(groups[best].anchor-start) {
				best = i
			}
		}
		if best >= 0 {
			continue
		}

		groups = append(groups, inferredGroup{
			day:    parsed.DayOfWeek,
			anchor: start,
			slot: models.ManualSlot{
				ID:          autoSlotID(parsed.DayOfWeek, parsed.StartTime),
				DayOfWeek:   parsed.DayOfWeek,
				StartTime:   parsed.StartTime,
				EndTime:     parsed.EndTime,
				SessionType: s.parser.Classify(record.Description, parsed.StartTime, parsed.EndTime),
			},
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].day != groups[j].day {
			return groups[i].day < groups[j].day
		}
		return groups[i].anchor < groups[j].anchor
	})

	slots := make([]models.ManualSlot, 0, len(groups))
	for _, group := range groups {
		slots = append(slots, group.slot)
	}
	return slots
}

func autoSlotID(day int, start string) string {
	return fmt.Sprintf("auto-%d-%s", day, strings.ReplaceAll(start, ":", ""))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
