package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"research_portal/portal/schema"

	"github.com/google/uuid"
)

func TestMemoryFileContentRoundTrip(t *testing.T) {
	memory := NewMemory()
	ctx := context.Background()

	content := []byte{0x00, 0x01, 0x02, 0xff}
	if err := memory.SaveFileContent(ctx, "run_1", content); err != nil {
		t.Fatal(err)
	}

	fetched, err := memory.GetFileContent(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fetched, content) {
		t.Fatalf("fetched %v, expected %v", fetched, content)
	}

	_, err = memory.GetFileContent(ctx, "missing")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got: %v", err)
	}
}

func TestMemoryRecordUpdateRequiresDataset(t *testing.T) {
	memory := NewMemory()
	ctx := context.Background()

	err := memory.RecordUpdate(ctx, schema.UpdateNotification{Id: uuid.New(), DatasetId: "missing"})
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got: %v", err)
	}
}

func TestMemoryListUpdatesOrdering(t *testing.T) {
	memory := NewMemory()
	ctx := context.Background()

	meta := schema.DatasetMetadata{Title: "Run", DatasetType: schema.SensorData, ShareLevel: schema.Team}
	if err := memory.CreateDataset(ctx, "run_1", meta); err != nil {
		t.Fatal(err)
	}

	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		n := schema.UpdateNotification{Id: uuid.New(), DatasetId: "run_1", UpdateType: "revision"}
		if err := memory.RecordUpdate(ctx, n); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, n.Id)
	}

	updates, err := memory.ListUpdates(ctx, "run_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}

	// Newest first, even when timestamps tie within a clock tick.
	for i, update := range updates {
		if update.Id != ids[len(ids)-1-i] {
			t.Fatalf("updates out of order: %v", updates)
		}
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Timestamp.After(updates[i-1].Timestamp) {
			t.Fatal("timestamps are not descending")
		}
	}

	empty, err := memory.ListUpdates(ctx, "unknown")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatal("unknown dataset should yield an empty update list")
	}
}

func TestMemoryDatasetFilters(t *testing.T) {
	memory := NewMemory()
	ctx := context.Background()

	sensor := schema.DatasetMetadata{Title: "A", DatasetType: schema.SensorData, ShareLevel: schema.Team, Teams: []string{"aero"}}
	sim := schema.DatasetMetadata{Title: "B", DatasetType: schema.Simulation, ShareLevel: schema.Public, Teams: []string{"propulsion"}}

	if err := memory.CreateDataset(ctx, "a", sensor); err != nil {
		t.Fatal(err)
	}
	if err := memory.CreateDataset(ctx, "b", sim); err != nil {
		t.Fatal(err)
	}

	all, err := memory.ListDatasets(ctx, DatasetFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(all))
	}

	sims, err := memory.ListDatasets(ctx, DatasetFilter{DatasetType: schema.Simulation})
	if err != nil {
		t.Fatal(err)
	}
	if len(sims) != 1 || sims[0].Id != "b" {
		t.Fatalf("unexpected filter result: %+v", sims)
	}

	aero, err := memory.ListDatasets(ctx, DatasetFilter{Team: "aero"})
	if err != nil {
		t.Fatal(err)
	}
	if len(aero) != 1 || aero[0].Id != "a" {
		t.Fatalf("unexpected filter result: %+v", aero)
	}
}

func TestMemoryEnsureUserDoesNotOverwriteCredentials(t *testing.T) {
	memory := NewMemory()
	ctx := context.Background()

	if err := memory.EnsureUser(ctx, "alice", []byte("hash1")); err != nil {
		t.Fatal(err)
	}
	if err := memory.EnsureUser(ctx, "alice", []byte("hash2")); err != nil {
		t.Fatal(err)
	}

	hash, err := memory.GetUserCredentials(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if string(hash) != "hash1" {
		t.Fatalf("credentials were overwritten: %v", string(hash))
	}

	_, err = memory.GetUserCredentials(ctx, "bob")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestMemoryAuthorUpsertHasNoCredentials(t *testing.T) {
	memory := NewMemory()
	ctx := context.Background()

	meta := schema.DatasetMetadata{Title: "Run", DatasetType: schema.SensorData, ShareLevel: schema.Team, Authors: []string{"dave"}}
	if err := memory.CreateDataset(ctx, "run_1", meta); err != nil {
		t.Fatal(err)
	}

	_, err := memory.GetUserCredentials(ctx, "dave")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("author node must not be login capable, got: %v", err)
	}

	// Granting credentials later upgrades the same node.
	if err := memory.EnsureUser(ctx, "dave", []byte("hash")); err != nil {
		t.Fatal(err)
	}
	if _, err := memory.GetUserCredentials(ctx, "dave"); err != nil {
		t.Fatal(err)
	}
}
