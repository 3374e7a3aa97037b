package store

import (
	"context"
	"errors"

	"research_portal/portal/schema"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrDatasetNotFound  = errors.New("dataset not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrStoreUnavailable = errors.New("graph store access failed")
)

// DatasetFilter narrows ListDatasets results. Empty fields match everything.
type DatasetFilter struct {
	DatasetType string
	ShareLevel  string
	Team        string
}

// Gateway is the only component permitted to issue graph database operations.
// All errors are one of the sentinel errors above, possibly wrapped, so that
// callers never see driver internals or connection strings.
type Gateway interface {
	// SaveFileContent stores the payload under a File node keyed by id. The
	// content is base64 encoded before storage. Single atomic write.
	SaveFileContent(ctx context.Context, id string, content []byte) error

	// GetFileContent returns the decoded payload, or ErrFileNotFound.
	GetFileContent(ctx context.Context, id string) ([]byte, error)

	// CreateDataset creates the Dataset node with all metadata attributes,
	// upserts User nodes with AUTHORED edges and Team nodes with BELONGS_TO
	// edges, all in one write transaction.
	CreateDataset(ctx context.Context, id string, meta schema.DatasetMetadata) error

	// GetDataset returns the metadata record for id, or ErrDatasetNotFound.
	GetDataset(ctx context.Context, id string) (schema.Dataset, error)

	ListDatasets(ctx context.Context, filter DatasetFilter) ([]schema.Dataset, error)

	// RecordUpdate appends a notification for an existing dataset. Returns
	// ErrDatasetNotFound if the targeted dataset does not exist.
	RecordUpdate(ctx context.Context, n schema.UpdateNotification) error

	// ListUpdates returns all notifications for the dataset ordered by
	// timestamp descending. An unknown dataset id yields an empty slice.
	ListUpdates(ctx context.Context, datasetId string) ([]schema.UpdateNotification, error)

	// EnsureUser upserts a User node by username. The password hash is only
	// set if the user has no credentials yet, so re-provisioning is safe.
	EnsureUser(ctx context.Context, username string, passwordHash []byte) error

	// GetUserCredentials returns the stored password hash for a user that can
	// log in, or ErrUserNotFound.
	GetUserCredentials(ctx context.Context, username string) ([]byte, error)

	Close(ctx context.Context) error
}
