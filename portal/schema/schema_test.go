package schema

import (
	"errors"
	"testing"
)

func validMetadata() DatasetMetadata {
	return DatasetMetadata{
		Title:       "Wind Tunnel Run 12",
		DatasetType: SensorData,
		ShareLevel:  Team,
		Version:     "1.0.0",
		Authors:     []string{"alice"},
		Teams:       []string{"aero"},
	}
}

func TestValidateAcceptsAllEnumValues(t *testing.T) {
	for _, datasetType := range []string{FlightData, Simulation, SensorData, Analysis, Visualization, Test} {
		for _, shareLevel := range []string{Private, Team, Group, Public} {
			meta := validMetadata()
			meta.DatasetType = datasetType
			meta.ShareLevel = shareLevel
			if err := meta.Validate(); err != nil {
				t.Fatalf("expected type '%v' share level '%v' to be valid: %v", datasetType, shareLevel, err)
			}
		}
	}
}

func TestValidateRejectsMissingTitle(t *testing.T) {
	meta := validMetadata()
	meta.Title = ""
	if err := meta.Validate(); !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected missing title error, got: %v", err)
	}
}

func TestValidateRejectsUnknownDatasetType(t *testing.T) {
	meta := validMetadata()
	meta.DatasetType = "bogus_type"
	if err := meta.Validate(); !errors.Is(err, ErrInvalidDatasetType) {
		t.Fatalf("expected invalid dataset type error, got: %v", err)
	}
}

func TestValidateRejectsUnknownShareLevel(t *testing.T) {
	meta := validMetadata()
	meta.ShareLevel = "everyone"
	if err := meta.Validate(); !errors.Is(err, ErrInvalidShareLevel) {
		t.Fatalf("expected invalid share level error, got: %v", err)
	}
}
