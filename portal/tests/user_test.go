package tests

import (
	"errors"
	"testing"
)

func TestLoginBadPassword(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	err := c.login(adminUsername, "wrong_password")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got: %v", err)
	}

	err = c.login("no_such_user", "password")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got: %v", err)
	}
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("bob")
	if err != nil {
		t.Fatal(err)
	}

	err = user.createUser("eve", "eve_password")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden error, got: %v", err)
	}
}

func TestNewUserCanLoginAndUpload(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("carol")
	if err != nil {
		t.Fatal(err)
	}

	fileId, err := user.upload("data.csv", []byte("payload"), sensorMetadata("Carol Run"))
	if err != nil {
		t.Fatal(err)
	}

	content, err := user.fetchFile(fileId)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "payload" {
		t.Fatal("fetched content does not match upload")
	}
}

func TestAuthorBecomesLoginCapable(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	// The upload upserts a credential-less User node for author "dave".
	metadata := sensorMetadata("Shared Run")
	metadata.Set("authors", "dave")
	if _, err := user.upload("run.csv", []byte("data"), metadata); err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	err = c.login("dave", "dave_password")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("author without credentials must not be able to log in, got: %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.createUser("dave", "dave_password"); err != nil {
		t.Fatal(err)
	}

	if err := c.login("dave", "dave_password"); err != nil {
		t.Fatal(err)
	}
}
