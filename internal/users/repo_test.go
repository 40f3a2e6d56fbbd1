package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Team{}, &models.User{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role enums.UserRole, telegramID *string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		FullName:     username,
		Role:         role,
		TelegramID:   telegramID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepositoryFindByTelegramID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	chat := "555001"
	seeded := seedUser(t, db, "somchai", enums.UserRoleTechnician, &chat)
	seedUser(t, db, "malee", enums.UserRoleStaff, nil)

	found, err := repo.FindByTelegramID(ctx, "555001")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByTelegramID(ctx, "000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryLinkTelegramID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "somchai", enums.UserRoleTechnician, nil)
	require.NoError(t, repo.LinkTelegramID(ctx, user.ID, "555001"))

	found, err := repo.FindByTelegramID(ctx, "555001")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedUser(t, db, "a", enums.UserRoleAdmin, nil)
	seedUser(t, db, "b", enums.UserRoleStaff, nil)
	seedUser(t, db, "c", enums.UserRoleTechnician, nil)

	rows, total, err := repo.List(ctx, pagination.Params{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Username)

	rows, _, err = repo.List(ctx, pagination.Params{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].Username)
}

func TestRepositoryPreloadsTeam(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	team := &models.Team{Name: "North Crew"}
	require.NoError(t, db.Create(team).Error)

	user := seedUser(t, db, "somchai", enums.UserRoleTechnician, nil)
	require.NoError(t, db.Model(user).UpdateColumn("team_id", team.ID).Error)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Team)
	assert.Equal(t, "North Crew", found.Team.Name)
}
