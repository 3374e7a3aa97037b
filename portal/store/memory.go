package store

import (
	"context"
	"encoding/base64"
	"slices"
	"sort"
	"sync"
	"time"

	"research_portal/portal/schema"
)

// Memory is an in process Gateway used for tests and local development. It
// mirrors the neo4j gateway's semantics, including the base64 encoding of
// file content and store assigned timestamps.
type Memory struct {
	mu sync.Mutex

	files    map[string]string
	datasets map[string]schema.Dataset
	updates  map[string][]schema.UpdateNotification
	users    map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string]string),
		datasets: make(map[string]schema.Dataset),
		updates:  make(map[string][]schema.UpdateNotification),
		users:    make(map[string][]byte),
	}
}

func (m *Memory) SaveFileContent(ctx context.Context, id string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[id] = base64.StdEncoding.EncodeToString(content)
	return nil
}

func (m *Memory) GetFileContent(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	encoded, ok := m.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return base64.StdEncoding.DecodeString(encoded)
}

func (m *Memory) CreateDataset(ctx context.Context, id string, meta schema.DatasetMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.datasets[id] = schema.Dataset{Id: id, DatasetMetadata: meta, CreatedAt: time.Now().UTC()}

	// Authors are upserted as users, matching the MERGE in the graph query.
	for _, author := range meta.Authors {
		if _, ok := m.users[author]; !ok {
			m.users[author] = nil
		}
	}
	return nil
}

func (m *Memory) GetDataset(ctx context.Context, id string) (schema.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dataset, ok := m.datasets[id]
	if !ok {
		return schema.Dataset{}, ErrDatasetNotFound
	}
	return dataset, nil
}

func (m *Memory) ListDatasets(ctx context.Context, filter DatasetFilter) ([]schema.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	datasets := make([]schema.Dataset, 0, len(m.datasets))
	for _, dataset := range m.datasets {
		if filter.DatasetType != "" && dataset.DatasetType != filter.DatasetType {
			continue
		}
		if filter.ShareLevel != "" && dataset.ShareLevel != filter.ShareLevel {
			continue
		}
		if filter.Team != "" && !slices.Contains(dataset.Teams, filter.Team) {
			continue
		}
		datasets = append(datasets, dataset)
	}

	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].CreatedAt.After(datasets[j].CreatedAt)
	})
	return datasets, nil
}

func (m *Memory) RecordUpdate(ctx context.Context, n schema.UpdateNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.datasets[n.DatasetId]; !ok {
		return ErrDatasetNotFound
	}

	n.Timestamp = time.Now().UTC()
	m.updates[n.DatasetId] = append(m.updates[n.DatasetId], n)
	return nil
}

func (m *Memory) ListUpdates(ctx context.Context, datasetId string) ([]schema.UpdateNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.updates[datasetId]

	// Reverse insertion order first so that equal timestamps still list
	// newest entries before older ones after the stable sort.
	updates := make([]schema.UpdateNotification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		updates = append(updates, stored[i])
	}

	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Timestamp.After(updates[j].Timestamp)
	})
	return updates, nil
}

func (m *Memory) EnsureUser(ctx context.Context, username string, passwordHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.users[username]; ok && existing != nil {
		return nil
	}
	m.users[username] = passwordHash
	return nil
}

func (m *Memory) GetUserCredentials(ctx context.Context, username string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash, ok := m.users[username]
	if !ok || hash == nil {
		return nil, ErrUserNotFound
	}
	return hash, nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// NumFiles and NumDatasets are used by tests to verify that rejected
// submissions never reach the store.
func (m *Memory) NumFiles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *Memory) NumDatasets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.datasets)
}
