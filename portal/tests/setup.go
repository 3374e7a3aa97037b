package tests

import (
	"context"
	"testing"

	"research_portal/portal/auth"
	"research_portal/portal/config"
	"research_portal/portal/services"
	"research_portal/portal/store"

	"github.com/go-chi/chi/v5"
)

type testEnv struct {
	portal services.Portal
	api    chi.Router
	store  *store.Memory
}

const (
	adminUsername = "admin123"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	memory := store.NewMemory()

	provider, err := auth.NewProvider(context.Background(), memory, auth.ProviderArgs{
		Secret:        []byte("290zcv02ai249"),
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
	})
	if err != nil {
		t.Fatal(err)
	}

	portal := services.NewPortal(memory, provider, config.Default())

	return &testEnv{portal: portal, api: portal.Routes(), store: memory}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(adminUsername, adminPassword)
	return c, err
}

func (t *testEnv) newUser(username string) (client, error) {
	admin, err := t.adminClient()
	if err != nil {
		return client{}, err
	}

	err = admin.createUser(username, username+"_password")
	if err != nil {
		return client{}, err
	}

	c := t.newClient()
	err = c.login(username, username+"_password")
	if err != nil {
		return client{}, err
	}

	return c, nil
}
