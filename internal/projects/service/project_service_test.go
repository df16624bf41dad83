package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testvault-io/testvault-backend/internal/projects/domain"
	"github.com/testvault-io/testvault-backend/internal/projects/repository"
)

var projectCols = []string{"id", "name", "description", "status", "owner_id", "created_at", "updated_at"}

func newServiceMock(t *testing.T) (*ProjectService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProjectService(repository.NewProjectRepository(db)), mock
}

func projectRow(id, ownerID int64) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(projectCols).AddRow(
		id, "Web App", "", domain.StatusActive, ownerID, now, now,
	)
}

func TestProjectService_Create(t *testing.T) {
	svc, mock := newServiceMock(t)

	t.Run("applies defaults before inserting", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO projects`)).
			WithArgs("Web App", "", domain.StatusActive, int64(1)).
			WillReturnRows(projectRow(5, 1))

		p, err := svc.Create(context.Background(), &domain.CreateProject{Name: "Web App"}, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, p.Status)
	})

	t.Run("rejects invalid payload without touching the db", func(t *testing.T) {
		_, err := svc.Create(context.Background(), &domain.CreateProject{Name: "  "}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.Create(context.Background(), &domain.CreateProject{Name: "x", Status: "closed"}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Get(t *testing.T) {
	svc, mock := newServiceMock(t)
	ctx := context.Background()

	t.Run("owner reads own project", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM projects WHERE id = $1`)).
			WithArgs(int64(5)).
			WillReturnRows(projectRow(5, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND owner_id = $2`)).
			WithArgs(int64(5), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		p, err := svc.Get(ctx, 5, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(5), p.ID)
	})

	t.Run("non-owner is denied, not told it is missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM projects WHERE id = $1`)).
			WithArgs(int64(5)).
			WillReturnRows(projectRow(5, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND owner_id = $2`)).
			WithArgs(int64(5), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := svc.Get(ctx, 5, 2)
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Update_AuthorizesBeforeWriting(t *testing.T) {
	svc, mock := newServiceMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM projects WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(projectRow(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND owner_id = $2`)).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	name := "Renamed"
	_, err := svc.Update(context.Background(), 5, 2, &domain.UpdateProject{Name: &name})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_Delete(t *testing.T) {
	svc, mock := newServiceMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM projects WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(projectRow(5, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND owner_id = $2`)).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM projects WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := svc.Delete(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
