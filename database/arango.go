package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/ortelius/gost-sbom/model"
)

const databaseName = "gostsbom"

// ArangoConfig holds the connection settings of an ArangoStore.
type ArangoConfig struct {
	URL      string
	User     string
	Password string
	// MaxElapsedTime bounds the connection retries; zero retries forever.
	MaxElapsedTime time.Duration
}

type projectDoc struct {
	Key         string `json:"_key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (p projectDoc) metadata() model.ProjectMetadata {
	return model.ProjectMetadata{
		ID:          p.Key,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type sbomDoc struct {
	Key       string                 `json:"_key"`
	ProjectID string                 `json:"project_id"`
	Name      string                 `json:"name"`
	Content   map[string]interface{} `json:"content"`
}

// ArangoStore keeps projects and SBOMs in the "project" and "sbom" collections.
type ArangoStore struct {
	db          arangodb.Database
	collections map[string]arangodb.Collection
	logger      *zap.Logger
	now         func() time.Time
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// NewArangoStore connects with exponential backoff, then creates the database,
// collections and indexes that are missing.
func NewArangoStore(ctx context.Context, cfg ArangoConfig, logger *zap.Logger) (*ArangoStore, error) {
	const initialInterval = 10 * time.Second
	const maxInterval = 2 * time.Minute

	if logger == nil {
		logger = zap.NewNop()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	var client arangodb.Client
	err := backoff.RetryNotify(func() error {
		logger.Info("Attempting to connect to ArangoDB", zap.String("url", cfg.URL))
		endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
		conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, cfg.User, cfg.Password))

		client = arangodb.NewClient(conn)

		versionInfo, err := client.Version(ctx)
		if err != nil {
			return err
		}

		logger.Sugar().Infof("Database has version '%s' and license '%s'", versionInfo.Version, versionInfo.License)
		return nil
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		logger.Warn("Retrying connection to ArangoDB", zap.Error(err), zap.Duration("next", next))
	})
	if err != nil {
		return nil, fmt.Errorf("connect to arangodb: %w", err)
	}

	db, err := ensureDatabase(ctx, client)
	if err != nil {
		return nil, err
	}

	collections := make(map[string]arangodb.Collection)
	for _, name := range []string{"project", "sbom"} {
		col, err := ensureCollection(ctx, db, name)
		if err != nil {
			return nil, err
		}
		collections[name] = col
	}

	if err := ensureIndex(ctx, collections["sbom"], "sbom_project_id", "project_id", logger); err != nil {
		return nil, err
	}

	logger.Info("Database initialization complete")
	return &ArangoStore{db: db, collections: collections, logger: logger, now: time.Now}, nil
}

func ensureDatabase(ctx context.Context, client arangodb.Client) (arangodb.Database, error) {
	dblist, err := client.Databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}

	for _, dbinfo := range dblist {
		if dbinfo.Name() == databaseName {
			var options arangodb.GetDatabaseOptions
			db, err := client.GetDatabase(ctx, databaseName, &options)
			if err != nil {
				return nil, fmt.Errorf("get database: %w", err)
			}
			return db, nil
		}
	}

	db, err := client.CreateDatabase(ctx, databaseName, nil)
	if err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}
	return db, nil
}

func ensureCollection(ctx context.Context, db arangodb.Database, name string) (arangodb.Collection, error) {
	exists, err := db.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check collection %s: %w", name, err)
	}

	if exists {
		var options arangodb.GetCollectionOptions
		col, err := db.GetCollection(ctx, name, &options)
		if err != nil {
			return nil, fmt.Errorf("use collection %s: %w", name, err)
		}
		return col, nil
	}

	col, err := db.CreateCollectionV2(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return col, nil
}

func ensureIndex(ctx context.Context, col arangodb.Collection, idxName, field string, logger *zap.Logger) error {
	if indexes, err := col.Indexes(ctx); err == nil {
		for _, index := range indexes {
			if index.Name == idxName {
				return nil
			}
		}
	}

	False := false
	indexOptions := arangodb.CreatePersistentIndexOptions{
		Unique: &False,
		Sparse: &False,
		Name:   idxName,
	}
	if _, _, err := col.EnsurePersistentIndex(ctx, []string{field}, &indexOptions); err != nil {
		return fmt.Errorf("create index %s: %w", idxName, err)
	}
	logger.Sugar().Infof("Created index: %s on %s", idxName, field)
	return nil
}

// exec runs an AQL statement whose result is not needed.
func (s *ArangoStore) exec(ctx context.Context, query string, bindVars map[string]interface{}) error {
	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// queryOne runs an AQL query and decodes the first result into out.
// It reports whether a result was found.
func (s *ArangoStore) queryOne(ctx context.Context, query string, bindVars map[string]interface{}, out interface{}) (bool, error) {
	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return false, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return false, nil
	}
	if _, err := cursor.ReadDocument(ctx, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ArangoStore) getProject(ctx context.Context, id string) (projectDoc, error) {
	var doc projectDoc
	found, err := s.queryOne(ctx, `
		FOR p IN project
			FILTER p._key == @key
			LIMIT 1
			RETURN p
	`, map[string]interface{}{"key": id}, &doc)
	if err != nil {
		return doc, fmt.Errorf("query project %s: %w", id, err)
	}
	if !found {
		return doc, ErrNotFound
	}
	return doc, nil
}

func (s *ArangoStore) getSBOM(ctx context.Context, projectID, sbomID string) (sbomDoc, error) {
	var doc sbomDoc
	found, err := s.queryOne(ctx, `
		FOR s IN sbom
			FILTER s._key == @key AND s.project_id == @project
			LIMIT 1
			RETURN s
	`, map[string]interface{}{"key": sbomID, "project": projectID}, &doc)
	if err != nil {
		return doc, fmt.Errorf("query sbom %s: %w", sbomID, err)
	}
	if !found {
		return doc, ErrNotFound
	}
	return doc, nil
}

// ListProjects returns projects ordered by creation time.
func (s *ArangoStore) ListProjects(ctx context.Context) ([]model.ProjectMetadata, error) {
	cursor, err := s.db.Query(ctx, `
		FOR p IN project
			SORT p.created_at
			RETURN p
	`, &arangodb.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer cursor.Close()

	projects := []model.ProjectMetadata{}
	for cursor.HasMore() {
		var doc projectDoc
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			s.logger.Warn("Skipping unreadable project", zap.Error(err))
			continue
		}
		projects = append(projects, doc.metadata())
	}
	return projects, nil
}

// CreateProject stores a new project with a fresh id.
func (s *ArangoStore) CreateProject(ctx context.Context, name, description string) (model.ProjectMetadata, error) {
	now := timestamp(s.now())
	doc := projectDoc{Key: newID(), Name: name, Description: description, CreatedAt: now, UpdatedAt: now}

	if _, err := s.collections["project"].CreateDocument(ctx, doc); err != nil {
		return model.ProjectMetadata{}, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("Created project", zap.String("project_id", doc.Key), zap.String("name", name))
	return doc.metadata(), nil
}

// GetProject returns a project with its SBOM list.
func (s *ArangoStore) GetProject(ctx context.Context, id string) (model.ProjectDetail, error) {
	if err := CheckID(id); err != nil {
		return model.ProjectDetail{}, err
	}

	doc, err := s.getProject(ctx, id)
	if err != nil {
		return model.ProjectDetail{}, err
	}

	sboms, err := s.listSBOMs(ctx, id)
	if err != nil {
		return model.ProjectDetail{}, err
	}
	return model.ProjectDetail{ProjectMetadata: doc.metadata(), Sboms: sboms}, nil
}

// DeleteProject removes a project and every SBOM in it.
func (s *ArangoStore) DeleteProject(ctx context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	if _, err := s.getProject(ctx, id); err != nil {
		return err
	}

	bindVars := map[string]interface{}{"project": id}
	if err := s.exec(ctx, `
		FOR s IN sbom
			FILTER s.project_id == @project
			REMOVE s IN sbom
	`, bindVars); err != nil {
		return fmt.Errorf("remove sboms of project %s: %w", id, err)
	}

	if err := s.exec(ctx, `REMOVE @project IN project`, bindVars); err != nil {
		return fmt.Errorf("remove project %s: %w", id, err)
	}

	s.logger.Info("Deleted project", zap.String("project_id", id))
	return nil
}

// ListSBOMs returns the metadata of every SBOM in a project.
func (s *ArangoStore) ListSBOMs(ctx context.Context, projectID string) ([]model.SbomMetadata, error) {
	if err := CheckID(projectID); err != nil {
		return nil, err
	}
	if _, err := s.getProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.listSBOMs(ctx, projectID)
}

func (s *ArangoStore) listSBOMs(ctx context.Context, projectID string) ([]model.SbomMetadata, error) {
	cursor, err := s.db.Query(ctx, `
		FOR s IN sbom
			FILTER s.project_id == @project
			RETURN s
	`, &arangodb.QueryOptions{BindVars: map[string]interface{}{"project": projectID}})
	if err != nil {
		return nil, fmt.Errorf("query sboms of project %s: %w", projectID, err)
	}
	defer cursor.Close()

	sboms := []model.SbomMetadata{}
	for cursor.HasMore() {
		var doc sbomDoc
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			s.logger.Warn("Skipping unreadable SBOM", zap.String("project_id", projectID), zap.Error(err))
			continue
		}
		sboms = append(sboms, model.SbomMetadataFromContent(doc.Key, doc.Name, doc.Content))
	}
	return sboms, nil
}

// SaveSBOM stores a new document in a project. A missing metadata.timestamp is filled in.
func (s *ArangoStore) SaveSBOM(ctx context.Context, projectID string, document map[string]interface{}, name string) (model.SbomMetadata, error) {
	if err := CheckID(projectID); err != nil {
		return model.SbomMetadata{}, err
	}
	if _, err := s.getProject(ctx, projectID); err != nil {
		return model.SbomMetadata{}, err
	}

	stampDocument(document, s.now(), false)
	doc := sbomDoc{Key: newID(), ProjectID: projectID, Name: name, Content: document}

	if _, err := s.collections["sbom"].CreateDocument(ctx, doc); err != nil {
		return model.SbomMetadata{}, fmt.Errorf("create sbom: %w", err)
	}
	s.touch(ctx, projectID)

	return model.SbomMetadataFromContent(doc.Key, name, document), nil
}

// GetSBOM returns a stored document.
func (s *ArangoStore) GetSBOM(ctx context.Context, projectID, sbomID string) (map[string]interface{}, error) {
	if err := CheckID(projectID, sbomID); err != nil {
		return nil, err
	}
	doc, err := s.getSBOM(ctx, projectID, sbomID)
	if err != nil {
		return nil, err
	}
	return doc.Content, nil
}

// UpdateSBOM replaces a stored document and refreshes its metadata.timestamp.
func (s *ArangoStore) UpdateSBOM(ctx context.Context, projectID, sbomID string, document map[string]interface{}) (model.SbomMetadata, error) {
	if err := CheckID(projectID, sbomID); err != nil {
		return model.SbomMetadata{}, err
	}
	doc, err := s.getSBOM(ctx, projectID, sbomID)
	if err != nil {
		return model.SbomMetadata{}, err
	}

	stampDocument(document, s.now(), true)
	update := map[string]interface{}{"content": document}
	if _, err := s.collections["sbom"].UpdateDocument(ctx, sbomID, update); err != nil {
		return model.SbomMetadata{}, fmt.Errorf("update sbom %s: %w", sbomID, err)
	}
	s.touch(ctx, projectID)

	return model.SbomMetadataFromContent(sbomID, doc.Name, document), nil
}

// DeleteSBOM removes a stored document.
func (s *ArangoStore) DeleteSBOM(ctx context.Context, projectID, sbomID string) error {
	if err := CheckID(projectID, sbomID); err != nil {
		return err
	}
	if _, err := s.getSBOM(ctx, projectID, sbomID); err != nil {
		return err
	}

	if err := s.exec(ctx, `REMOVE @key IN sbom`, map[string]interface{}{"key": sbomID}); err != nil {
		return fmt.Errorf("remove sbom %s: %w", sbomID, err)
	}
	s.touch(ctx, projectID)
	return nil
}

func (s *ArangoStore) touch(ctx context.Context, projectID string) {
	update := map[string]interface{}{"updated_at": timestamp(s.now())}
	if _, err := s.collections["project"].UpdateDocument(ctx, projectID, update); err != nil {
		s.logger.Warn("Could not update project timestamp", zap.String("project_id", projectID), zap.Error(err))
	}
}
