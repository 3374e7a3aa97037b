package tests

import (
	"errors"
	"fmt"
	"testing"
)

func TestListUpdatesUnknownDatasetIsEmpty(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	updates, err := admin.listUpdates("nonexistent_id")
	if err != nil {
		t.Fatal(err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected empty update list, got %d entries", len(updates))
	}
}

func TestRecordAndListUpdatesOrdered(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	fileId, err := user.upload("run12.csv", []byte("data"), sensorMetadata("Wind Tunnel Run 12"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		err := user.recordUpdate(fileId, fmt.Sprintf("1.0.%d", i), "revision", fmt.Sprintf("revision %d", i))
		if err != nil {
			t.Fatal(err)
		}
	}

	updates, err := user.listUpdates(fileId)
	if err != nil {
		t.Fatal(err)
	}

	// 3 revisions plus the create notification from the upload itself.
	if len(updates) != 4 {
		t.Fatalf("expected 4 update notifications, got %d", len(updates))
	}

	for i := 1; i < len(updates); i++ {
		if updates[i].Timestamp.After(updates[i-1].Timestamp) {
			t.Fatal("updates are not ordered by timestamp descending")
		}
	}

	if updates[0].Version != "1.0.3" || updates[0].UpdateType != "revision" {
		t.Fatalf("most recent update is wrong: %+v", updates[0])
	}
	if updates[len(updates)-1].UpdateType != "create" {
		t.Fatalf("oldest update should be the create notification: %+v", updates[len(updates)-1])
	}
}

func TestRecordUpdateUnknownDataset(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	err = admin.recordUpdate("nonexistent_id", "1.0.0", "revision", "should fail")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got: %v", err)
	}
}

func TestRecordUpdateRequiresUpdateType(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	fileId, err := user.upload("run12.csv", []byte("data"), sensorMetadata("Wind Tunnel Run 12"))
	if err != nil {
		t.Fatal(err)
	}

	err = user.recordUpdate(fileId, "1.0.1", "", "missing type")
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request error, got: %v", err)
	}
}
