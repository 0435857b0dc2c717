package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/daily-tracker/internal/models"
)

func TestMemoryBackend_PointerFieldsAreNotShared(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	folderID := "folder-1"
	trashedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	file := &models.File{ID: "f1", UserID: "u1", Name: "cv.pdf", FolderID: &folderID, TrashedAt: &trashedAt}
	require.NoError(t, m.CreateFile(ctx, file))

	// writes through the caller's pointers must not reach the table
	folderID = "folder-2"
	trashedAt = trashedAt.Add(time.Hour)

	got, err := m.GetFile(ctx, "f1")
	require.NoError(t, err)
	require.NotNil(t, got.FolderID)
	assert.Equal(t, "folder-1", *got.FolderID)
	assert.True(t, got.TrashedAt.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	// nor through pointers handed out by reads
	*got.FolderID = "folder-3"
	again, err := m.GetFile(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", *again.FolderID)

	listed, err := m.ListFiles(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	*listed[0].FolderID = "folder-4"
	again, err = m.GetFile(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", *again.FolderID)
}

func TestMemoryBackend_UpdateDoesNotAliasPatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	require.NoError(t, m.CreateFolder(ctx, &models.Folder{ID: "child", UserID: "u1", Name: "child"}))

	parent := "parent-1"
	updated, err := m.UpdateFolder(ctx, "child", FolderPatch{ParentID: &parent}, time.Now())
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)

	parent = "parent-2"
	*updated.ParentID = "parent-3"

	got, err := m.GetFolder(ctx, "child")
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, "parent-1", *got.ParentID)
}

func TestMemoryBackend_FindUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	phone := "+15550100"
	require.NoError(t, m.CreateUser(ctx, &models.User{ID: "u1", Email: "a@example.com", Phone: &phone}))

	found, err := m.FindUser(ctx, ByPhone, "+15550100")
	require.NoError(t, err)
	*found.Phone = "+15550199"

	found, err = m.FindUser(ctx, ByPhone, "+15550100")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
}
