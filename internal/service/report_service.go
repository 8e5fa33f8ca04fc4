package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/acadsched/class-scheduler-api/internal/conflict"
	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/pkg/config"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
	"github.com/acadsched/class-scheduler-api/pkg/export"
)

type reportScheduleSource interface {
	ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error)
}

// ReportService aggregates weekly workload and room-utilization reports from
// the schedule table, with cache-aside Redis storage and CSV export.
type ReportService struct {
	schedules reportScheduleSource
	rooms     roomFinder
	cache     *CacheService
	exporter  *export.CSVExporter
	logger    *zap.Logger
	cfg       config.ReportsConfig
}

// NewReportService constructs the report service.
func NewReportService(schedules reportScheduleSource, rooms roomFinder, cache *CacheService, exporter *export.CSVExporter, logger *zap.Logger, cfg config.ReportsConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.NewCSVExporter()
	}
	if cfg.RoomWindowHours <= 0 {
		cfg.RoomWindowHours = 84
	}
	return &ReportService{
		schedules: schedules,
		rooms:     rooms,
		cache:     cache,
		exporter:  exporter,
		logger:    logger,
		cfg:       cfg,
	}
}

// Workload returns per-professor teaching totals for the given week. The
// second return value reports whether the result came from cache.
func (s *ReportService) Workload(ctx context.Context, weekStartDate int64) (*models.WorkloadReport, bool, error) {
	cacheKey := fmt.Sprintf("reports:workload:%d", weekStartDate)
	var cached models.WorkloadReport
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rows, err := s.schedules.ListForWeek(ctx, weekStartDate)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week schedules")
	}

	type accumulator struct {
		name     string
		minutes  int
		subjects map[string]struct{}
		classes  int
	}
	byProfessor := make(map[string]*accumulator)

	for _, row := range rows {
		span, err := conflict.SpanMinutes(row.StartTime, row.EndTime)
		if err != nil {
			s.logger.Warn("skipping schedule with malformed times", zap.String("schedule_id", row.ID), zap.Error(err))
			continue
		}
		acc, ok := byProfessor[row.ProfessorID]
		if !ok {
			acc = &accumulator{name: row.ProfessorName, subjects: make(map[string]struct{})}
			byProfessor[row.ProfessorID] = acc
		}
		acc.minutes += span
		acc.subjects[row.SubjectID] = struct{}{}
		acc.classes++
	}

	report := &models.WorkloadReport{WeekStartDate: weekStartDate, Items: make([]models.WorkloadReportItem, 0, len(byProfessor))}
	for id, acc := range byProfessor {
		report.Items = append(report.Items, models.WorkloadReportItem{
			ProfessorID:   id,
			ProfessorName: acc.name,
			TotalHours:    float64(acc.minutes) / 60,
			TotalSubjects: len(acc.subjects),
			TotalClasses:  acc.classes,
		})
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].ProfessorName == report.Items[j].ProfessorName {
			return report.Items[i].ProfessorID < report.Items[j].ProfessorID
		}
		return report.Items[i].ProfessorName < report.Items[j].ProfessorName
	})

	if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache workload report", zap.Error(err))
	}
	return report, false, nil
}

// RoomUtilization returns per-room booked hours for the given week measured
// against the configured weekly window. Only in-person classes occupy rooms.
func (s *ReportService) RoomUtilization(ctx context.Context, weekStartDate int64) (*models.RoomUtilizationReport, bool, error) {
	cacheKey := fmt.Sprintf("reports:room-utilization:%d", weekStartDate)
	var cached models.RoomUtilizationReport
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rows, err := s.schedules.ListForWeek(ctx, weekStartDate)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week schedules")
	}

	type accumulator struct {
		code     string
		minutes  int
		bookings int
	}
	byRoom := make(map[string]*accumulator)

	for _, row := range rows {
		if row.ClassType != conflict.InPerson || row.RoomID == nil || *row.RoomID == "" {
			continue
		}
		span, err := conflict.SpanMinutes(row.StartTime, row.EndTime)
		if err != nil {
			s.logger.Warn("skipping schedule with malformed times", zap.String("schedule_id", row.ID), zap.Error(err))
			continue
		}
		acc, ok := byRoom[*row.RoomID]
		if !ok {
			acc = &accumulator{}
			if row.RoomCode != nil {
				acc.code = *row.RoomCode
			}
			byRoom[*row.RoomID] = acc
		}
		acc.minutes += span
		acc.bookings++
	}

	report := &models.RoomUtilizationReport{
		WeekStartDate: weekStartDate,
		WindowHours:   s.cfg.RoomWindowHours,
		Items:         make([]models.RoomUtilizationItem, 0, len(byRoom)),
	}
	for id, acc := range byRoom {
		item := models.RoomUtilizationItem{
			RoomID:        id,
			RoomCode:      acc.code,
			TotalHours:    float64(acc.minutes) / 60,
			TotalBookings: acc.bookings,
		}
		item.UtilizationPercentage = item.TotalHours / s.cfg.RoomWindowHours * 100
		if room, err := s.lookupRoom(ctx, id); err == nil {
			item.RoomName = room.Name
			if item.RoomCode == "" {
				item.RoomCode = room.Code
			}
		}
		report.Items = append(report.Items, item)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].RoomCode == report.Items[j].RoomCode {
			return report.Items[i].RoomID < report.Items[j].RoomID
		}
		return report.Items[i].RoomCode < report.Items[j].RoomCode
	})

	if err := s.cache.Set(ctx, cacheKey, report, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache room utilization report", zap.Error(err))
	}
	return report, false, nil
}

// WorkloadCSV renders a workload report as CSV bytes.
func (s *ReportService) WorkloadCSV(report *models.WorkloadReport) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"professor_id", "professor_name", "total_hours", "total_subjects", "total_classes"},
	}
	for _, item := range report.Items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"professor_id":   item.ProfessorID,
			"professor_name": item.ProfessorName,
			"total_hours":    fmt.Sprintf("%.2f", item.TotalHours),
			"total_subjects": fmt.Sprintf("%d", item.TotalSubjects),
			"total_classes":  fmt.Sprintf("%d", item.TotalClasses),
		})
	}
	data, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render workload csv")
	}
	return data, nil
}

// RoomUtilizationCSV renders a room utilization report as CSV bytes.
func (s *ReportService) RoomUtilizationCSV(report *models.RoomUtilizationReport) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"room_id", "room_code", "room_name", "total_hours", "utilization_percentage", "total_bookings"},
	}
	for _, item := range report.Items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"room_id":                item.RoomID,
			"room_code":              item.RoomCode,
			"room_name":              item.RoomName,
			"total_hours":            fmt.Sprintf("%.2f", item.TotalHours),
			"utilization_percentage": fmt.Sprintf("%.2f", item.UtilizationPercentage),
			"total_bookings":         fmt.Sprintf("%d", item.TotalBookings),
		})
	}
	data, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render room utilization csv")
	}
	return data, nil
}

func (s *ReportService) lookupRoom(ctx context.Context, id string) (*models.Room, error) {
	if s.rooms == nil {
		return nil, sql.ErrNoRows
	}
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load room for report", zap.String("room_id", id), zap.Error(err))
		}
		return nil, err
	}
	return room, nil
}
