package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskbot/internal/entities"
	apperrors "taskbot/pkg/errors"
)

func TestAssignmentRepository_Integration_CreateAndFind(t *testing.T) {
	requirePool(t)
	cleanupTables(t)
	authorID, _ := seedUsers(t)
	repo := NewAssignmentRepository(testPool, zap.NewNop())
	ctx := context.Background()

	id := seedAssignment(t, authorID, "12.5")

	found, err := repo.FindAssignment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, authorID, found.AuthorID)
	assert.Equal(t, "design", found.WorkType)
	assert.Equal(t, "12.5", found.TotalVolume.String())
	assert.True(t, found.IsActive)
	assert.False(t, found.IsPublished())

	_, err = repo.FindAssignment(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAssignmentRepository_Integration_MarkPublishedOnce(t *testing.T) {
	requirePool(t)
	cleanupTables(t)
	authorID, _ := seedUsers(t)
	repo := NewAssignmentRepository(testPool, zap.NewNop())
	ctx := context.Background()

	id := seedAssignment(t, authorID, "10")

	require.NoError(t, repo.MarkPublished(ctx, id, -100500, 77))

	found, err := repo.FindAssignment(ctx, id)
	require.NoError(t, err)
	require.True(t, found.IsPublished())
	assert.Equal(t, int64(-100500), *found.PublishedChatID)
	assert.Equal(t, int64(77), *found.PublishedMessageID)

	// Повторная отметка невозможна.
	err = repo.MarkPublished(ctx, id, -100500, 78)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPublished)
}

func TestAssignmentRepository_Integration_DisableAndDelete(t *testing.T) {
	requirePool(t)
	cleanupTables(t)
	authorID, _ := seedUsers(t)
	repo := NewAssignmentRepository(testPool, zap.NewNop())
	ctx := context.Background()

	id := seedAssignment(t, authorID, "10")

	ok, err := repo.DisableAssignment(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	// Уже закрытое повторно не закрывается и не удаляется.
	ok, err = repo.DisableAssignment(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteAssignment(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// Активное удаляется.
	id2 := seedAssignment(t, authorID, "5")
	ok, err = repo.DeleteAssignment(ctx, id2)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repo.FindAssignment(ctx, id2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAssignmentRepository_Integration_Listings(t *testing.T) {
	requirePool(t)
	cleanupTables(t)
	authorID, executorID := seedUsers(t)
	repo := NewAssignmentRepository(testPool, zap.NewNop())
	ctx := context.Background()

	first := seedAssignment(t, authorID, "10")
	second := seedAssignment(t, authorID, "5")
	ok, err := repo.DisableAssignment(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)

	mine, err := repo.MyAssignments(ctx, authorID)
	require.NoError(t, err)
	assert.Len(t, mine, 2, "автору видны и закрытые задания")

	other, err := repo.MyAssignments(ctx, executorID)
	require.NoError(t, err)
	assert.Empty(t, other)

	active, err := repo.ListActiveAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first, active[0].ID)
}

func TestUserRepository_Integration_UpsertAndMembers(t *testing.T) {
	requirePool(t)
	cleanupTables(t)
	repo := NewUserRepository(testPool, zap.NewNop())
	ctx := context.Background()

	username := "ipetrov"
	fullName := "Иван Петров"
	require.NoError(t, repo.UpsertUser(ctx, entities.User{
		ID: 10, Username: &username, FullName: &fullName, IsMember: true,
	}))
	require.NoError(t, repo.UpsertUser(ctx, entities.User{ID: 11, IsAdmin: true, IsMember: true}))
	require.NoError(t, repo.UpsertUser(ctx, entities.User{ID: 12, IsMember: false}))

	isAdmin, err := repo.IsAdmin(ctx, 11)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	isAdmin, err = repo.IsAdmin(ctx, 10)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	members, err := repo.ListMemberIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11}, members)

	// Повторный /start обновляет данные, не плодя строк.
	newName := "Иван П."
	require.NoError(t, repo.UpsertUser(ctx, entities.User{
		ID: 10, Username: &username, FullName: &newName, IsMember: true,
	}))
	var count int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = 10`).Scan(&count))
	assert.Equal(t, 1, count)

	require.NoError(t, repo.SetMembership(ctx, 10, false))
	members, err = repo.ListMemberIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{11}, members)
}

func TestThreadBindingRepository_Integration(t *testing.T) {
	requirePool(t)
	cleanupTables(t)
	repo := NewThreadBindingRepository(testPool, zap.NewNop())
	ctx := context.Background()

	_, err := repo.GetBinding(ctx, "design")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.UpsertBinding(ctx, entities.ThreadBinding{WorkType: "design", ThreadID: 15}))
	binding, err := repo.GetBinding(ctx, "design")
	require.NoError(t, err)
	assert.Equal(t, int64(15), binding.ThreadID)

	// Повторная привязка перезаписывает тему.
	require.NoError(t, repo.UpsertBinding(ctx, entities.ThreadBinding{WorkType: "design", ThreadID: 16}))
	binding, err = repo.GetBinding(ctx, "design")
	require.NoError(t, err)
	assert.Equal(t, int64(16), binding.ThreadID)

	require.NoError(t, repo.UpsertBinding(ctx, entities.ThreadBinding{WorkType: "montage", ThreadID: 20}))
	bindings, err := repo.ListBindings(ctx)
	require.NoError(t, err)
	assert.Len(t, bindings, 2)
}
