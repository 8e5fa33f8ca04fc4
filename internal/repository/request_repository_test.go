package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadsched/class-scheduler-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAdjustmentRequestRepositoryListByStatus(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewAdjustmentRequestRepository(db)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "professor_id", "requested_changes", "reason", "status", "reviewed_by", "reviewed_at", "review_notes", "created_at", "updated_at"}).
		AddRow("req-1", "sched-1", "p1", []byte(`{"start_time":"14:00"}`), "room double booked by seminar", "pending", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM adjustment_requests WHERE 1=1 AND status = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("pending").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM adjustment_requests WHERE 1=1 AND status = $1")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.AdjustmentRequestFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustmentRequestRepositoryCreateAndUpdate(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewAdjustmentRequestRepository(db)

	mock.ExpectExec("INSERT INTO adjustment_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.AdjustmentRequest{
		ScheduleID:       "sched-1",
		ProfessorID:      "p1",
		RequestedChanges: []byte(`{"start_time":"14:00"}`),
		Reason:           "room double booked by seminar",
		Status:           models.RequestPending,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	assert.NotEmpty(t, request.ID)

	mock.ExpectExec("UPDATE adjustment_requests SET status").
		WillReturnResult(sqlmock.NewResult(1, 1))

	reviewer := "admin-1"
	now := time.Now()
	request.Status = models.RequestApproved
	request.ReviewedBy = &reviewer
	request.ReviewedAt = &now
	require.NoError(t, repo.Update(context.Background(), request))
	assert.NoError(t, mock.ExpectationsWereMet())
}
