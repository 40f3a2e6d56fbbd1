package projects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

func setupProjectsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Project{}, &models.Job{}))
	return db
}

func seedProject(t *testing.T, db *gorm.DB, name string, status enums.ProjectStatus) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, Status: status}
	require.NoError(t, db.Create(project).Error)
	return project
}

func seedProjectJob(t *testing.T, db *gorm.DB, projectID uint, status enums.JobStatus) {
	t.Helper()
	job := &models.Job{
		Title:           "install",
		JobType:         enums.JobTypeProject,
		Status:          status,
		ProjectID:       &projectID,
		CustomerName:    "Customer",
		CustomerPhone:   "02-000-0000",
		CustomerAddress: "Bangkok",
		ScheduledDate:   time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(job).Error)
}

func TestRepositoryJobRollups(t *testing.T) {
	db := setupProjectsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	p1 := seedProject(t, db, "Mall retrofit", enums.ProjectStatusActive)
	p2 := seedProject(t, db, "Hotel install", enums.ProjectStatusActive)

	seedProjectJob(t, db, p1.ID, enums.JobStatusCompleted)
	seedProjectJob(t, db, p1.ID, enums.JobStatusCompleted)
	seedProjectJob(t, db, p1.ID, enums.JobStatusPending)
	seedProjectJob(t, db, p2.ID, enums.JobStatusInProgress)

	rollups, err := repo.JobRollups(ctx, []uint{p1.ID, p2.ID})
	require.NoError(t, err)

	assert.EqualValues(t, 3, rollups[p1.ID].Total)
	assert.EqualValues(t, 2, rollups[p1.ID].Completed)
	assert.EqualValues(t, 1, rollups[p2.ID].Total)
	assert.EqualValues(t, 0, rollups[p2.ID].Completed)
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	db := setupProjectsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedProject(t, db, "Mall retrofit", enums.ProjectStatusActive)
	seedProject(t, db, "Old rollout", enums.ProjectStatusCompleted)

	active := enums.ProjectStatusActive
	rows, total, err := repo.List(ctx, &active, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mall retrofit", rows[0].Name)

	rows, total, err = repo.List(ctx, nil, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)
}

func TestRepositorySearchActive(t *testing.T) {
	db := setupProjectsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedProject(t, db, "Mall fit-out", enums.ProjectStatusActive)
	seedProject(t, db, "Mall renovation", enums.ProjectStatusOnHold)
	customer := "Siam Mall Co"
	byCustomer := &models.Project{Name: "HVAC overhaul", CustomerName: &customer, Status: enums.ProjectStatusActive}
	require.NoError(t, db.Create(byCustomer).Error)
	seedProject(t, db, "Warehouse wiring", enums.ProjectStatusActive)

	rows, err := repo.SearchActive(ctx, "mall")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Mall fit-out", rows[0].Name)
	assert.Equal(t, "HVAC overhaul", rows[1].Name)

	rows, err = repo.SearchActive(ctx, "nothing here")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestServiceSearchActiveEmptyTermListsAll(t *testing.T) {
	db := setupProjectsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	seedProject(t, db, "Mall fit-out", enums.ProjectStatusActive)
	seedProject(t, db, "Paused works", enums.ProjectStatusOnHold)

	list, err := svc.SearchActive(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mall fit-out", list[0].Name)
}

func TestServiceCompletionPercentage(t *testing.T) {
	db := setupProjectsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	project := seedProject(t, db, "Mall retrofit", enums.ProjectStatusActive)
	seedProjectJob(t, db, project.ID, enums.JobStatusCompleted)
	seedProjectJob(t, db, project.ID, enums.JobStatusPending)
	seedProjectJob(t, db, project.ID, enums.JobStatusPending)
	seedProjectJob(t, db, project.ID, enums.JobStatusCompleted)

	dto, err := svc.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, dto.JobCount)
	assert.EqualValues(t, 2, dto.CompletedJobCount)
	assert.InDelta(t, 50.0, dto.CompletionPercentage, 0.001)
}

func TestServiceCompletionPercentageNoJobs(t *testing.T) {
	db := setupProjectsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	project := seedProject(t, db, "Empty", enums.ProjectStatusActive)

	dto, err := svc.GetByID(context.Background(), project.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, dto.JobCount)
	assert.Zero(t, dto.CompletionPercentage)
}
