package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/model"
)

const (
	indexFile    = "projects.json"
	projectsDir  = "projects"
	metadataFile = "metadata.json"
	sbomsDir     = "sboms"
)

type projectIndex struct {
	Projects []string `json:"projects"`
}

// FileStore keeps everything under a root directory:
//
//	projects.json                              index of project ids
//	projects/<id>/metadata.json                project metadata
//	projects/<id>/sboms/<sbomID>.json          SBOM documents
//
// Files are written to a temporary name and renamed into place.
type FileStore struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
	now    func() time.Time

	mu sync.RWMutex
}

// NewFileStore prepares root on fs and returns a store over it.
func NewFileStore(fs afero.Fs, root string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{fs: fs, root: root, logger: logger, now: time.Now}

	if err := fs.MkdirAll(filepath.Join(root, projectsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	exists, err := afero.Exists(fs, s.indexPath())
	if err != nil {
		return nil, fmt.Errorf("stat project index: %w", err)
	}
	if !exists {
		if err := s.writeJSON(s.indexPath(), projectIndex{Projects: []string{}}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStore) indexPath() string {
	return filepath.Join(s.root, indexFile)
}

func (s *FileStore) projectDir(id string) string {
	return filepath.Join(s.root, projectsDir, id)
}

func (s *FileStore) sbomPath(projectID, sbomID string) string {
	return filepath.Join(s.projectDir(projectID), sbomsDir, sbomID+".json")
}

func (s *FileStore) readJSON(path string, v interface{}) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *FileStore) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func (s *FileStore) readIndex() (projectIndex, error) {
	var index projectIndex
	if err := s.readJSON(s.indexPath(), &index); err != nil {
		return index, fmt.Errorf("read project index: %w", err)
	}
	return index, nil
}

func (s *FileStore) readProject(id string) (model.ProjectMetadata, error) {
	var meta model.ProjectMetadata
	err := s.readJSON(filepath.Join(s.projectDir(id), metadataFile), &meta)
	if os.IsNotExist(err) {
		return meta, ErrNotFound
	}
	if err != nil {
		return meta, fmt.Errorf("read project %s: %w", id, err)
	}
	return meta, nil
}

// ListProjects returns the projects in creation order, skipping unreadable ones.
func (s *FileStore) ListProjects(_ context.Context) ([]model.ProjectMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}

	projects := make([]model.ProjectMetadata, 0, len(index.Projects))
	for _, id := range index.Projects {
		meta, err := s.readProject(id)
		if err != nil {
			s.logger.Warn("Skipping unreadable project", zap.String("project_id", id), zap.Error(err))
			continue
		}
		projects = append(projects, meta)
	}
	return projects, nil
}

// CreateProject stores a new project with a fresh id.
func (s *FileStore) CreateProject(_ context.Context, name, description string) (model.ProjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp(s.now())
	meta := model.ProjectMetadata{
		ID:          newID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.fs.MkdirAll(filepath.Join(s.projectDir(meta.ID), sbomsDir), 0o755); err != nil {
		return meta, fmt.Errorf("create project directory: %w", err)
	}
	if err := s.writeJSON(filepath.Join(s.projectDir(meta.ID), metadataFile), meta); err != nil {
		return meta, err
	}

	index, err := s.readIndex()
	if err != nil {
		return meta, err
	}
	index.Projects = append(index.Projects, meta.ID)
	if err := s.writeJSON(s.indexPath(), index); err != nil {
		return meta, err
	}

	s.logger.Info("Created project", zap.String("project_id", meta.ID), zap.String("name", name))
	return meta, nil
}

// GetProject returns a project with its SBOM list.
func (s *FileStore) GetProject(_ context.Context, id string) (model.ProjectDetail, error) {
	if err := CheckID(id); err != nil {
		return model.ProjectDetail{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.readProject(id)
	if err != nil {
		return model.ProjectDetail{}, err
	}
	return model.ProjectDetail{ProjectMetadata: meta, Sboms: s.listSBOMs(id)}, nil
}

// DeleteProject removes a project and every SBOM in it.
func (s *FileStore) DeleteProject(_ context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := afero.DirExists(s.fs, s.projectDir(id))
	if err != nil {
		return fmt.Errorf("stat project %s: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.fs.RemoveAll(s.projectDir(id)); err != nil {
		return fmt.Errorf("remove project %s: %w", id, err)
	}

	index, err := s.readIndex()
	if err != nil {
		return err
	}
	kept := index.Projects[:0]
	for _, pid := range index.Projects {
		if pid != id {
			kept = append(kept, pid)
		}
	}
	index.Projects = kept
	if err := s.writeJSON(s.indexPath(), index); err != nil {
		return err
	}

	s.logger.Info("Deleted project", zap.String("project_id", id))
	return nil
}

// ListSBOMs returns the metadata of every readable SBOM in a project.
func (s *FileStore) ListSBOMs(_ context.Context, projectID string) ([]model.SbomMetadata, error) {
	if err := CheckID(projectID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.readProject(projectID); err != nil {
		return nil, err
	}
	return s.listSBOMs(projectID), nil
}

func (s *FileStore) listSBOMs(projectID string) []model.SbomMetadata {
	sboms := []model.SbomMetadata{}

	entries, err := afero.ReadDir(s.fs, filepath.Join(s.projectDir(projectID), sbomsDir))
	if err != nil {
		return sboms
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sbomID := strings.TrimSuffix(entry.Name(), ".json")

		var content map[string]interface{}
		if err := s.readJSON(s.sbomPath(projectID, sbomID), &content); err != nil {
			s.logger.Warn("Skipping unreadable SBOM", zap.String("project_id", projectID),
				zap.String("sbom_id", sbomID), zap.Error(err))
			continue
		}
		sboms = append(sboms, model.SbomMetadataFromContent(sbomID, "", content))
	}
	return sboms
}

// SaveSBOM stores a new document in a project. A missing metadata.timestamp is filled in.
func (s *FileStore) SaveSBOM(_ context.Context, projectID string, document map[string]interface{}, name string) (model.SbomMetadata, error) {
	if err := CheckID(projectID); err != nil {
		return model.SbomMetadata{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readProject(projectID); err != nil {
		return model.SbomMetadata{}, err
	}

	sbomID := newID()
	stampDocument(document, s.now(), false)

	if err := s.fs.MkdirAll(filepath.Join(s.projectDir(projectID), sbomsDir), 0o755); err != nil {
		return model.SbomMetadata{}, fmt.Errorf("create sbom directory: %w", err)
	}
	if err := s.writeJSON(s.sbomPath(projectID, sbomID), document); err != nil {
		return model.SbomMetadata{}, err
	}
	s.touch(projectID)

	return model.SbomMetadataFromContent(sbomID, name, document), nil
}

// GetSBOM returns a stored document.
func (s *FileStore) GetSBOM(_ context.Context, projectID, sbomID string) (map[string]interface{}, error) {
	if err := CheckID(projectID, sbomID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var content map[string]interface{}
	err := s.readJSON(s.sbomPath(projectID, sbomID), &content)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read sbom %s: %w", sbomID, err)
	}
	return content, nil
}

// UpdateSBOM replaces a stored document and refreshes its metadata.timestamp.
func (s *FileStore) UpdateSBOM(_ context.Context, projectID, sbomID string, document map[string]interface{}) (model.SbomMetadata, error) {
	if err := CheckID(projectID, sbomID); err != nil {
		return model.SbomMetadata{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.sbomPath(projectID, sbomID)
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return model.SbomMetadata{}, fmt.Errorf("stat sbom %s: %w", sbomID, err)
	}
	if !exists {
		return model.SbomMetadata{}, ErrNotFound
	}

	stampDocument(document, s.now(), true)
	if err := s.writeJSON(path, document); err != nil {
		return model.SbomMetadata{}, err
	}
	s.touch(projectID)

	return model.SbomMetadataFromContent(sbomID, "", document), nil
}

// DeleteSBOM removes a stored document.
func (s *FileStore) DeleteSBOM(_ context.Context, projectID, sbomID string) error {
	if err := CheckID(projectID, sbomID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.sbomPath(projectID, sbomID))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove sbom %s: %w", sbomID, err)
	}
	s.touch(projectID)
	return nil
}

// touch bumps updated_at. Failures are logged; the SBOM write already succeeded.
func (s *FileStore) touch(projectID string) {
	meta, err := s.readProject(projectID)
	if err != nil {
		s.logger.Warn("Could not read project to update timestamp", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	meta.UpdatedAt = timestamp(s.now())
	if err := s.writeJSON(filepath.Join(s.projectDir(projectID), metadataFile), meta); err != nil {
		s.logger.Warn("Could not update project timestamp", zap.String("project_id", projectID), zap.Error(err))
	}
}
