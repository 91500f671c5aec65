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

	"github.com/noah-isme/placement-cell-api/internal/models"
)

func newJobMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func jobRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "company", "role", "location", "job_type", "salary", "description", "skills", "min_cgpa", "max_backlogs", "allowed_departments", "deadline", "posted_on", "updated_at"}).
		AddRow("j1", "Acme", "Backend Engineer", "Remote", "Full Time", "12 LPA", "Build services", "go,sql", 7.0, 1, "CSE, ECE", time.Now().Add(720*time.Hour), time.Now(), time.Now())
}

func TestJobRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newJobMock(t)
	defer cleanup()
	repo := NewJobRepository(db)

	mock.ExpectExec("INSERT INTO job_postings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.JobPosting{Company: "Acme", Role: "Backend Engineer", Type: models.JobFullTime}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.False(t, job.PostedOn.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryListEligible(t *testing.T) {
	db, mock, cleanup := newJobMock(t)
	defer cleanup()
	repo := NewJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE min_cgpa <= $1 AND max_backlogs >= $2 AND allowed_departments ILIKE '%' || $3 || '%'")).
		WithArgs(8.2, 0, "CSE").
		WillReturnRows(jobRows())

	jobs, err := repo.ListEligible(context.Background(), 8.2, 0, "CSE", 50)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryListFiltersByType(t *testing.T) {
	db, mock, cleanup := newJobMock(t)
	defer cleanup()
	repo := NewJobRepository(db)

	jobType := models.JobInternship
	mock.ExpectQuery("SELECT (.+) FROM job_postings WHERE 1=1 AND job_type").
		WithArgs(jobType).
		WillReturnRows(jobRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(jobType).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	jobs, total, err := repo.List(context.Background(), models.JobFilter{Type: &jobType})
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
