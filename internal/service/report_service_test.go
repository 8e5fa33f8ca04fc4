package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsched/class-scheduler-api/internal/conflict"
	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/pkg/config"
)

func weekRow(id, professorID, professorName, subjectID, roomID, start, end string, mode conflict.DeliveryMode) models.ScheduleDetails {
	details := models.ScheduleDetails{
		Schedule: models.Schedule{
			ID:            id,
			SubjectID:     subjectID,
			ProfessorID:   professorID,
			DayOfWeek:     conflict.Monday,
			StartTime:     start,
			EndTime:       end,
			ClassType:     mode,
			WeekStartDate: testWeek,
		},
		ProfessorName: professorName,
		SubjectCode:   strings.ToUpper(subjectID),
	}
	if roomID != "" {
		details.RoomID = &roomID
		code := "RM-" + roomID
		details.RoomCode = &code
	}
	return details
}

func newReportService(week []models.ScheduleDetails) *ReportService {
	_, _, rooms := testFinders()
	repo := &mockScheduleRepo{week: week}
	cfg := config.ReportsConfig{RoomWindowHours: 84}
	return NewReportService(repo, rooms, nil, nil, zap.NewNop(), cfg)
}

func TestReportServiceWorkload(t *testing.T) {
	service := newReportService([]models.ScheduleDetails{
		weekRow("s1", "p1", "Elena Reyes", "cs101", "r1", "08:00", "09:30", conflict.InPerson),
		weekRow("s2", "p1", "Elena Reyes", "math201", "", "10:00", "11:00", conflict.Remote),
		weekRow("s3", "p2", "Marco Cruz", "cs101", "r1", "13:00", "14:00", conflict.InPerson),
	})

	report, cacheHit, err := service.Workload(context.Background(), testWeek)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, testWeek, report.WeekStartDate)
	require.Len(t, report.Items, 2)

	// Sorted by professor name.
	assert.Equal(t, "Elena Reyes", report.Items[0].ProfessorName)
	assert.InDelta(t, 2.5, report.Items[0].TotalHours, 0.001)
	assert.Equal(t, 2, report.Items[0].TotalSubjects)
	assert.Equal(t, 2, report.Items[0].TotalClasses)

	assert.Equal(t, "Marco Cruz", report.Items[1].ProfessorName)
	assert.InDelta(t, 1.0, report.Items[1].TotalHours, 0.001)
	assert.Equal(t, 1, report.Items[1].TotalSubjects)
}

func TestReportServiceWorkloadSkipsMalformedTimes(t *testing.T) {
	bad := weekRow("s1", "p1", "Elena Reyes", "cs101", "", "8:00", "09:00", conflict.Remote)
	good := weekRow("s2", "p1", "Elena Reyes", "cs101", "", "09:00", "10:00", conflict.Remote)
	service := newReportService([]models.ScheduleDetails{bad, good})

	report, _, err := service.Workload(context.Background(), testWeek)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.InDelta(t, 1.0, report.Items[0].TotalHours, 0.001)
	assert.Equal(t, 1, report.Items[0].TotalClasses)
}

func TestReportServiceRoomUtilization(t *testing.T) {
	service := newReportService([]models.ScheduleDetails{
		weekRow("s1", "p1", "Elena Reyes", "cs101", "r1", "08:00", "10:00", conflict.InPerson),
		weekRow("s2", "p2", "Marco Cruz", "math201", "r1", "13:00", "14:00", conflict.InPerson),
		// Remote classes occupy no room.
		weekRow("s3", "p1", "Elena Reyes", "cs101", "r1", "15:00", "16:00", conflict.Remote),
	})

	report, cacheHit, err := service.RoomUtilization(context.Background(), testWeek)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.InDelta(t, 84, report.WindowHours, 0.001)
	require.Len(t, report.Items, 1)

	item := report.Items[0]
	assert.Equal(t, "r1", item.RoomID)
	assert.InDelta(t, 3.0, item.TotalHours, 0.001)
	assert.Equal(t, 2, item.TotalBookings)
	assert.InDelta(t, 3.0/84*100, item.UtilizationPercentage, 0.001)
	assert.Equal(t, "Room 204", item.RoomName)
}

func TestReportServiceWorkloadCSV(t *testing.T) {
	service := newReportService(nil)
	report := &models.WorkloadReport{
		WeekStartDate: testWeek,
		Items: []models.WorkloadReportItem{
			{ProfessorID: "p1", ProfessorName: "Elena Reyes", TotalHours: 2.5, TotalSubjects: 2, TotalClasses: 2},
		},
	}

	data, err := service.WorkloadCSV(report)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "professor_id,professor_name,total_hours,total_subjects,total_classes", lines[0])
	assert.Equal(t, "p1,Elena Reyes,2.50,2,2", lines[1])
}

func TestReportServiceRoomUtilizationCSV(t *testing.T) {
	service := newReportService(nil)
	report := &models.RoomUtilizationReport{
		WeekStartDate: testWeek,
		WindowHours:   84,
		Items: []models.RoomUtilizationItem{
			{RoomID: "r1", RoomCode: "RM-204", RoomName: "Room 204", TotalHours: 3, UtilizationPercentage: 3.57, TotalBookings: 2},
		},
	}

	data, err := service.RoomUtilizationCSV(report)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "RM-204")
	assert.Contains(t, lines[1], "3.57")
}
