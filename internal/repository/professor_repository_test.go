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

func newProfessorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProfessorRepositoryList(t *testing.T) {
	db, mock, cleanup := newProfessorRepoMock(t)
	defer cleanup()
	repo := NewProfessorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "department_id", "user_id", "subject_ids", "created_at", "updated_at"}).
		AddRow("p1", "Elena", "Reyes", "elena@example.edu", "d1", nil, "{}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, department_id, user_id, subject_ids, created_at, updated_at FROM professors WHERE 1=1 ORDER BY last_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM professors WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	professors, total, err := repo.List(context.Background(), models.ProfessorFilter{})
	require.NoError(t, err)
	require.Len(t, professors, 1)
	assert.Equal(t, "Elena Reyes", professors[0].FullName())
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfessorRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newProfessorRepoMock(t)
	defer cleanup()
	repo := NewProfessorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "department_id", "user_id", "subject_ids", "created_at", "updated_at"}).
		AddRow("p1", "Elena", "Reyes", "elena@example.edu", "d1", "u-reyes", "{}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM professors WHERE user_id = $1")).
		WithArgs("u-reyes").
		WillReturnRows(rows)

	professor, err := repo.FindByUserID(context.Background(), "u-reyes")
	require.NoError(t, err)
	assert.Equal(t, "p1", professor.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfessorRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newProfessorRepoMock(t)
	defer cleanup()
	repo := NewProfessorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM professors WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("elena@example.edu", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "elena@example.edu", "p2")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfessorRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newProfessorRepoMock(t)
	defer cleanup()
	repo := NewProfessorRepository(db)

	mock.ExpectExec("INSERT INTO professors").
		WillReturnResult(sqlmock.NewResult(1, 1))

	professor := &models.Professor{FirstName: "Elena", LastName: "Reyes", Email: "elena@example.edu", DepartmentID: "d1"}
	require.NoError(t, repo.Create(context.Background(), professor))
	assert.NotEmpty(t, professor.ID)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM professors WHERE id = $1")).
		WithArgs(professor.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), professor.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
