package database

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/data"

func newTestStore(t *testing.T) (*FileStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := NewFileStore(fs, root, nil)
	require.NoError(t, err)
	return store, fs
}

func TestNewFileStore(t *testing.T) {
	store, fs := newTestStore(t)

	exists, err := afero.DirExists(fs, filepath.Join(root, "projects"))
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := afero.ReadFile(fs, filepath.Join(root, "projects.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects": []}`, string(data))

	// reopening keeps the existing index
	_, err = store.CreateProject(context.Background(), "p", "")
	require.NoError(t, err)
	reopened, err := NewFileStore(fs, root, nil)
	require.NoError(t, err)
	projects, err := reopened.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestFileStore_Projects(t *testing.T) {
	ctx := context.Background()
	store, fs := newTestStore(t)

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)

	a, err := store.CreateProject(ctx, "Project A", "first")
	require.NoError(t, err)
	assert.NoError(t, CheckID(a.ID))
	assert.Equal(t, "Project A", a.Name)
	assert.Equal(t, "first", a.Description)
	assert.NotEmpty(t, a.CreatedAt)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	b, err := store.CreateProject(ctx, "Project B", "")
	require.NoError(t, err)

	projects, err = store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Project A", projects[0].Name)
	assert.Equal(t, "Project B", projects[1].Name)

	detail, err := store.GetProject(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, detail.ProjectMetadata)
	assert.NotNil(t, detail.Sboms)
	assert.Empty(t, detail.Sboms)

	require.NoError(t, store.DeleteProject(ctx, a.ID))
	_, err = store.GetProject(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteProject(ctx, a.ID), ErrNotFound)

	exists, err := afero.DirExists(fs, filepath.Join(root, "projects", a.ID))
	require.NoError(t, err)
	assert.False(t, exists)

	projects, err = store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, b.ID, projects[0].ID)
}

func TestFileStore_SkipsCorruptedProjects(t *testing.T) {
	ctx := context.Background()
	store, fs := newTestStore(t)

	good, err := store.CreateProject(ctx, "good", "")
	require.NoError(t, err)
	bad, err := store.CreateProject(ctx, "bad", "")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(root, "projects", bad.ID, "metadata.json"), []byte("{"), 0o644))

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, good.ID, projects[0].ID)
}

func TestFileStore_InvalidIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	valid := "00000000-0000-0000-0000-000000000000"

	for _, id := range []string{"not-a-uuid", "../../etc/passwd", "", "00000000000000000000000000000000",
		"{00000000-0000-0000-0000-000000000000}"} {
		_, err := store.GetProject(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, store.DeleteProject(ctx, id), ErrInvalidID, id)
		_, err = store.GetSBOM(ctx, valid, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = store.SaveSBOM(ctx, id, map[string]interface{}{}, "")
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = store.UpdateSBOM(ctx, id, valid, map[string]interface{}{})
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, store.DeleteSBOM(ctx, valid, id), ErrInvalidID, id)
	}

	_, err := store.GetProject(ctx, valid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_SBOMs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	project, err := store.CreateProject(ctx, "p", "")
	require.NoError(t, err)

	var document map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"bomFormat": "CycloneDX",
		"specVersion": "1.6",
		"metadata": {"component": {"name": "svc", "version": "2.1"}}
	}`), &document))

	saved, err := store.SaveSBOM(ctx, project.ID, document, "")
	require.NoError(t, err)
	assert.NoError(t, CheckID(saved.ID))
	assert.Equal(t, "svc", saved.Name)
	assert.Equal(t, "2.1", saved.Version)
	assert.Equal(t, "2025-03-01T12:00:00Z", saved.UploadedAt)

	named, err := store.SaveSBOM(ctx, project.ID, map[string]interface{}{"bomFormat": "CycloneDX"}, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "explicit", named.Name)
	assert.Empty(t, named.Version)

	content, err := store.GetSBOM(ctx, project.ID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "CycloneDX", content["bomFormat"])
	assert.Equal(t, "2025-03-01T12:00:00Z", content["metadata"].(map[string]interface{})["timestamp"])

	sboms, err := store.ListSBOMs(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, sboms, 2)

	detail, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Sboms, 2)
	assert.Equal(t, "2025-03-01T12:00:00Z", detail.UpdatedAt)

	later := fixed.Add(time.Hour)
	store.now = func() time.Time { return later }
	updated, err := store.UpdateSBOM(ctx, project.ID, saved.ID, map[string]interface{}{
		"bomFormat": "CycloneDX",
		"metadata":  map[string]interface{}{"timestamp": "2000-01-01T00:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "2025-03-01T13:00:00Z", updated.UploadedAt)
	assert.Equal(t, saved.ID, updated.Name)

	detail, err = store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T13:00:00Z", detail.UpdatedAt)

	require.NoError(t, store.DeleteSBOM(ctx, project.ID, saved.ID))
	_, err = store.GetSBOM(ctx, project.ID, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSBOM(ctx, project.ID, saved.ID), ErrNotFound)
	_, err = store.UpdateSBOM(ctx, project.ID, saved.ID, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrNotFound)

	sboms, err = store.ListSBOMs(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, sboms, 1)
	assert.Equal(t, named.ID, sboms[0].ID)
}

func TestFileStore_SaveToMissingProject(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.SaveSBOM(context.Background(), "00000000-0000-0000-0000-000000000000",
		map[string]interface{}{"bomFormat": "CycloneDX"}, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ListSBOMs(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_DeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	project, err := store.CreateProject(ctx, "p", "")
	require.NoError(t, err)
	saved, err := store.SaveSBOM(ctx, project.ID, map[string]interface{}{}, "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteProject(ctx, project.ID))
	_, err = store.GetSBOM(ctx, project.ID, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStampDocument(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := map[string]interface{}{}
	stampDocument(doc, now, false)
	assert.Equal(t, map[string]interface{}{"timestamp": "2025-01-02T03:04:05Z"}, doc["metadata"])

	doc = map[string]interface{}{"metadata": map[string]interface{}{"timestamp": "keep"}}
	stampDocument(doc, now, false)
	assert.Equal(t, "keep", doc["metadata"].(map[string]interface{})["timestamp"])
	stampDocument(doc, now, true)
	assert.Equal(t, "2025-01-02T03:04:05Z", doc["metadata"].(map[string]interface{})["timestamp"])

	doc = map[string]interface{}{"metadata": "odd"}
	stampDocument(doc, now, true)
	assert.Equal(t, "odd", doc["metadata"])
}
