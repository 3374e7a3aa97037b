package store

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"research_portal/portal/schema"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds the endpoints for the two logical databases: one holding
// File content nodes, one holding the metadata graph.
type Neo4jConfig struct {
	FilesUri      string
	FilesUsername string
	FilesPassword string

	MetaUri      string
	MetaUsername string
	MetaPassword string
}

// lazyDriver creates the underlying neo4j driver on first use and shares it
// across all subsequent callers.
type lazyDriver struct {
	mu     sync.Mutex
	driver neo4j.DriverWithContext

	uri      string
	username string
	password string
}

func (d *lazyDriver) get() (neo4j.DriverWithContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.driver != nil {
		return d.driver, nil
	}

	driver, err := neo4j.NewDriverWithContext(d.uri, neo4j.BasicAuth(d.username, d.password, ""))
	if err != nil {
		slog.Error("error creating neo4j driver", "error", err)
		return nil, ErrStoreUnavailable
	}

	d.driver = driver
	return driver, nil
}

func (d *lazyDriver) close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.driver == nil {
		return nil
	}
	err := d.driver.Close(ctx)
	d.driver = nil
	return err
}

type Neo4jGateway struct {
	files *lazyDriver
	meta  *lazyDriver
}

func NewNeo4j(cfg Neo4jConfig) *Neo4jGateway {
	return &Neo4jGateway{
		files: &lazyDriver{uri: cfg.FilesUri, username: cfg.FilesUsername, password: cfg.FilesPassword},
		meta:  &lazyDriver{uri: cfg.MetaUri, username: cfg.MetaUsername, password: cfg.MetaPassword},
	}
}

func executeWrite(ctx context.Context, d *lazyDriver, query string, params map[string]any) ([]*neo4j.Record, error) {
	driver, err := d.get()
	if err != nil {
		return nil, err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	records, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func executeRead(ctx context.Context, d *lazyDriver, query string, params map[string]any) ([]*neo4j.Record, error) {
	driver, err := d.get()
	if err != nil {
		return nil, err
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func (g *Neo4jGateway) SaveFileContent(ctx context.Context, id string, content []byte) error {
	query := `
		CREATE (f:File {id: $id, content: $content, created_at: datetime()})`

	params := map[string]any{"id": id, "content": base64.StdEncoding.EncodeToString(content)}

	if _, err := executeWrite(ctx, g.files, query, params); err != nil {
		slog.Error("neo4j error saving file content", "file_id", id, "error", err)
		return ErrStoreUnavailable
	}
	return nil
}

func (g *Neo4jGateway) GetFileContent(ctx context.Context, id string) ([]byte, error) {
	query := `
		MATCH (f:File {id: $id}) RETURN f.content AS content`

	records, err := executeRead(ctx, g.files, query, map[string]any{"id": id})
	if err != nil {
		slog.Error("neo4j error fetching file content", "file_id", id, "error", err)
		return nil, ErrStoreUnavailable
	}
	if len(records) == 0 {
		return nil, ErrFileNotFound
	}

	encoded, ok := records[0].Get("content")
	if !ok {
		return nil, ErrFileNotFound
	}

	content, err := base64.StdEncoding.DecodeString(encoded.(string))
	if err != nil {
		slog.Error("error decoding stored file content", "file_id", id, "error", err)
		return nil, ErrStoreUnavailable
	}
	return content, nil
}

func (g *Neo4jGateway) CreateDataset(ctx context.Context, id string, meta schema.DatasetMetadata) error {
	// FOREACH rather than UNWIND so that empty author/team lists do not
	// short circuit the remaining clauses.
	query := `
		CREATE (d:Dataset {
			id: $id,
			title: $title,
			description: $description,
			type: $type,
			share_level: $share_level,
			version: $version,
			parent_version: $parent_version,
			tags: $tags,
			related_datasets: $related_datasets,
			created_at: datetime()
		})
		FOREACH (author IN $authors |
			MERGE (u:User {username: author})
			CREATE (u)-[:AUTHORED]->(d))
		FOREACH (team IN $teams |
			MERGE (t:Team {name: team})
			CREATE (d)-[:BELONGS_TO]->(t))`

	params := map[string]any{
		"id":               id,
		"title":            meta.Title,
		"description":      meta.Description,
		"type":             meta.DatasetType,
		"share_level":      meta.ShareLevel,
		"version":          meta.Version,
		"parent_version":   meta.ParentVersion,
		"tags":             meta.Tags,
		"related_datasets": meta.RelatedDatasets,
		"authors":          meta.Authors,
		"teams":            meta.Teams,
	}

	if _, err := executeWrite(ctx, g.meta, query, params); err != nil {
		slog.Error("neo4j error creating dataset node", "dataset_id", id, "error", err)
		return ErrStoreUnavailable
	}
	return nil
}

func (g *Neo4jGateway) GetDataset(ctx context.Context, id string) (schema.Dataset, error) {
	query := `
		MATCH (d:Dataset {id: $id})
		OPTIONAL MATCH (u:User)-[:AUTHORED]->(d)
		WITH d, collect(DISTINCT u.username) AS authors
		OPTIONAL MATCH (d)-[:BELONGS_TO]->(t:Team)
		RETURN d, authors, collect(DISTINCT t.name) AS teams`

	records, err := executeRead(ctx, g.meta, query, map[string]any{"id": id})
	if err != nil {
		slog.Error("neo4j error fetching dataset", "dataset_id", id, "error", err)
		return schema.Dataset{}, ErrStoreUnavailable
	}
	if len(records) == 0 {
		return schema.Dataset{}, ErrDatasetNotFound
	}

	return datasetFromRecord(records[0]), nil
}

func (g *Neo4jGateway) ListDatasets(ctx context.Context, filter DatasetFilter) ([]schema.Dataset, error) {
	query := `
		MATCH (d:Dataset)
		WHERE ($type = '' OR d.type = $type)
		  AND ($share_level = '' OR d.share_level = $share_level)
		  AND ($team = '' OR EXISTS { MATCH (d)-[:BELONGS_TO]->(:Team {name: $team}) })
		OPTIONAL MATCH (u:User)-[:AUTHORED]->(d)
		WITH d, collect(DISTINCT u.username) AS authors
		OPTIONAL MATCH (d)-[:BELONGS_TO]->(t:Team)
		RETURN d, authors, collect(DISTINCT t.name) AS teams
		ORDER BY d.created_at DESC`

	params := map[string]any{
		"type":        filter.DatasetType,
		"share_level": filter.ShareLevel,
		"team":        filter.Team,
	}

	records, err := executeRead(ctx, g.meta, query, params)
	if err != nil {
		slog.Error("neo4j error listing datasets", "error", err)
		return nil, ErrStoreUnavailable
	}

	datasets := make([]schema.Dataset, 0, len(records))
	for _, record := range records {
		datasets = append(datasets, datasetFromRecord(record))
	}
	return datasets, nil
}

func (g *Neo4jGateway) RecordUpdate(ctx context.Context, n schema.UpdateNotification) error {
	query := `
		MATCH (d:Dataset {id: $dataset_id})
		CREATE (n:UpdateNotification {
			id: $id,
			version: $version,
			updated_by: $updated_by,
			update_type: $update_type,
			description: $description,
			timestamp: datetime()
		})-[:UPDATES]->(d)
		RETURN n.id AS id`

	params := map[string]any{
		"dataset_id":  n.DatasetId,
		"id":          n.Id.String(),
		"version":     n.Version,
		"updated_by":  n.UpdatedBy,
		"update_type": n.UpdateType,
		"description": n.Description,
	}

	records, err := executeWrite(ctx, g.meta, query, params)
	if err != nil {
		slog.Error("neo4j error recording update notification", "dataset_id", n.DatasetId, "error", err)
		return ErrStoreUnavailable
	}
	if len(records) == 0 {
		return ErrDatasetNotFound
	}
	return nil
}

func (g *Neo4jGateway) ListUpdates(ctx context.Context, datasetId string) ([]schema.UpdateNotification, error) {
	query := `
		MATCH (n:UpdateNotification)-[:UPDATES]->(d:Dataset {id: $dataset_id})
		RETURN n
		ORDER BY n.timestamp DESC`

	records, err := executeRead(ctx, g.meta, query, map[string]any{"dataset_id": datasetId})
	if err != nil {
		slog.Error("neo4j error listing update notifications", "dataset_id", datasetId, "error", err)
		return nil, ErrStoreUnavailable
	}

	updates := make([]schema.UpdateNotification, 0, len(records))
	for _, record := range records {
		value, ok := record.Get("n")
		if !ok {
			continue
		}
		node := value.(neo4j.Node)

		id, _ := uuid.Parse(stringProp(node.Props, "id"))
		updates = append(updates, schema.UpdateNotification{
			Id:          id,
			DatasetId:   datasetId,
			Version:     stringProp(node.Props, "version"),
			UpdatedBy:   stringProp(node.Props, "updated_by"),
			UpdateType:  stringProp(node.Props, "update_type"),
			Description: stringProp(node.Props, "description"),
			Timestamp:   timeProp(node.Props, "timestamp"),
		})
	}
	return updates, nil
}

func (g *Neo4jGateway) EnsureUser(ctx context.Context, username string, passwordHash []byte) error {
	query := `
		MERGE (u:User {username: $username})
		SET u.password_hash = coalesce(u.password_hash, $hash)`

	params := map[string]any{"username": username, "hash": string(passwordHash)}

	if _, err := executeWrite(ctx, g.meta, query, params); err != nil {
		slog.Error("neo4j error upserting user", "username", username, "error", err)
		return ErrStoreUnavailable
	}
	return nil
}

func (g *Neo4jGateway) GetUserCredentials(ctx context.Context, username string) ([]byte, error) {
	query := `
		MATCH (u:User {username: $username})
		WHERE u.password_hash IS NOT NULL
		RETURN u.password_hash AS hash`

	records, err := executeRead(ctx, g.meta, query, map[string]any{"username": username})
	if err != nil {
		slog.Error("neo4j error fetching user credentials", "username", username, "error", err)
		return nil, ErrStoreUnavailable
	}
	if len(records) == 0 {
		return nil, ErrUserNotFound
	}

	hash, ok := records[0].Get("hash")
	if !ok {
		return nil, ErrUserNotFound
	}
	return []byte(hash.(string)), nil
}

func (g *Neo4jGateway) Close(ctx context.Context) error {
	if err := g.files.close(ctx); err != nil {
		return err
	}
	return g.meta.close(ctx)
}

func datasetFromRecord(record *neo4j.Record) schema.Dataset {
	var dataset schema.Dataset

	if value, ok := record.Get("d"); ok {
		node := value.(neo4j.Node)
		dataset = schema.Dataset{
			Id: stringProp(node.Props, "id"),
			DatasetMetadata: schema.DatasetMetadata{
				Title:           stringProp(node.Props, "title"),
				Description:     stringProp(node.Props, "description"),
				DatasetType:     stringProp(node.Props, "type"),
				ShareLevel:      stringProp(node.Props, "share_level"),
				Version:         stringProp(node.Props, "version"),
				ParentVersion:   stringProp(node.Props, "parent_version"),
				Tags:            stringListProp(node.Props, "tags"),
				RelatedDatasets: stringListProp(node.Props, "related_datasets"),
			},
			CreatedAt: timeProp(node.Props, "created_at"),
		}
	}

	if value, ok := record.Get("authors"); ok {
		dataset.Authors = stringList(value)
	}
	if value, ok := record.Get("teams"); ok {
		dataset.Teams = stringList(value)
	}

	return dataset
}

func stringProp(props map[string]any, key string) string {
	if value, ok := props[key].(string); ok {
		return value
	}
	return ""
}

func timeProp(props map[string]any, key string) time.Time {
	if value, ok := props[key].(time.Time); ok {
		return value
	}
	return time.Time{}
}

func stringListProp(props map[string]any, key string) []string {
	return stringList(props[key])
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			list = append(list, s)
		}
	}
	return list
}
