package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	FlightData    = "flight_data"
	Simulation    = "simulation"
	SensorData    = "sensor_data"
	Analysis      = "analysis"
	Visualization = "visualization"
	Test          = "test"
)

const (
	Private = "private"
	Team    = "team"
	Group   = "group"
	Public  = "public"
)

var (
	ErrMissingTitle       = errors.New("dataset title must be specified")
	ErrInvalidDatasetType = errors.New("invalid dataset type")
	ErrInvalidShareLevel  = errors.New("invalid share level")
)

var datasetTypes = map[string]struct{}{
	FlightData: {}, Simulation: {}, SensorData: {}, Analysis: {}, Visualization: {}, Test: {},
}

var shareLevels = map[string]struct{}{
	Private: {}, Team: {}, Group: {}, Public: {},
}

func CheckValidDatasetType(datasetType string) error {
	if _, ok := datasetTypes[datasetType]; !ok {
		return fmt.Errorf("%w: '%v'", ErrInvalidDatasetType, datasetType)
	}
	return nil
}

func CheckValidShareLevel(shareLevel string) error {
	if _, ok := shareLevels[shareLevel]; !ok {
		return fmt.Errorf("%w: '%v'", ErrInvalidShareLevel, shareLevel)
	}
	return nil
}

// DatasetMetadata is the caller supplied portion of a dataset submission.
type DatasetMetadata struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DatasetType     string   `json:"dataset_type"`
	ShareLevel      string   `json:"share_level"`
	Version         string   `json:"version"`
	ParentVersion   string   `json:"parent_version,omitempty"`
	Tags            []string `json:"tags"`
	Authors         []string `json:"authors"`
	Teams           []string `json:"teams"`
	RelatedDatasets []string `json:"related_datasets"`
}

// Validate must pass before any persistence call is made.
func (m *DatasetMetadata) Validate() error {
	if m.Title == "" {
		return ErrMissingTitle
	}
	if err := CheckValidDatasetType(m.DatasetType); err != nil {
		return err
	}
	if err := CheckValidShareLevel(m.ShareLevel); err != nil {
		return err
	}
	return nil
}

// Dataset is the persisted metadata record for one uploaded artifact. The id
// is assigned once at upload time and never mutated.
type Dataset struct {
	Id string `json:"id"`
	DatasetMetadata
	CreatedAt time.Time `json:"created_at"`
}

// UpdateNotification is one entry in the append-only log of mutations against
// a dataset. Timestamp is assigned by the store at creation.
type UpdateNotification struct {
	Id          uuid.UUID `json:"id"`
	DatasetId   string    `json:"dataset_id"`
	Version     string    `json:"version"`
	UpdatedBy   string    `json:"updated_by"`
	UpdateType  string    `json:"update_type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
