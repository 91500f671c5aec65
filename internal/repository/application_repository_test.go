package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-cell-api/internal/models"
)

func newApplicationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO job_applications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.JobApplication{ProfileID: "p1", JobID: "j1", Status: models.ApplicationApplied}
	require.NoError(t, repo.Create(context.Background(), app))
	assert.NotEmpty(t, app.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateDuplicatePair(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO job_applications").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.JobApplication{ProfileID: "p1", JobID: "j1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryExists(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM job_applications WHERE profile_id").
		WithArgs("p1", "j1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM job_applications WHERE profile_id").
		WithArgs("p1", "j2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "p1", "j1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "p1", "j2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListByJob(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "profile_id", "job_id", "status", "applied_on", "updated_at", "company", "job_role", "student_name", "student_email", "student_phone", "department", "roll_no", "overall_cgpa", "total_backlogs"}).
		AddRow("ap1", "p1", "j1", "Applied", time.Now(), time.Now(), "Acme", "Backend Engineer", "Asha Verma", "asha.verma@gmail.com", "9876543210", "CSE", "2021000042", 8.2, 0)
	mock.ExpectQuery("FROM job_applications ap").
		WithArgs("j1").
		WillReturnRows(rows)

	apps, err := repo.ListByJob(context.Background(), "j1")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Asha Verma", apps[0].StudentName)
	assert.Equal(t, 8.2, apps[0].OverallCGPA)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newApplicationMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("UPDATE job_applications SET status").
		WithArgs("ap1", models.ApplicationShortlisted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "ap1", models.ApplicationShortlisted))
	assert.NoError(t, mock.ExpectationsWereMet())
}
