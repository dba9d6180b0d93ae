package storage

import (
	"testing"

	"mcpchat/config"
)

func newTestStore(t *testing.T) *ServerStore {
	t.Helper()
	store, err := NewServerStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewServerStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestServerStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(config.ServerConfig{
		Name:    "github",
		Kind:    "github",
		Env:     map[string]string{"GITHUB_PERSONAL_ACCESS_TOKEN": "ghp_x"},
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save should generate an ID")
	}

	got, err := store.Get(id)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Name != "github" || got.Env["GITHUB_PERSONAL_ACCESS_TOKEN"] != "ghp_x" || !got.Enabled {
		t.Errorf("round trip = %+v", got)
	}

	// update in place
	got.Args = []string{"--read-only"}
	got.Enabled = false
	if _, err := store.Save(*got); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, _ := store.FindByName("github")
	if updated == nil || len(updated.Args) != 1 || updated.Enabled {
		t.Errorf("updated = %+v", updated)
	}

	missing, err := store.Get("nope")
	if err != nil || missing != nil {
		t.Errorf("missing server = %v, %v", missing, err)
	}
}

func TestServerStoreRejectsDuplicateNames(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(config.ServerConfig{Name: "files", Kind: "filesystem", Path: "/a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(config.ServerConfig{Name: "files", Kind: "filesystem", Path: "/b"}); err == nil {
		t.Error("duplicate name should fail")
	}
	if _, err := store.Save(config.ServerConfig{Kind: "custom"}); err == nil {
		t.Error("empty name should fail")
	}
}

func TestServerStoreActive(t *testing.T) {
	store := newTestStore(t)

	active, err := store.Active()
	if err != nil || active != nil {
		t.Fatalf("empty store active = %v, %v", active, err)
	}

	disabled, _ := store.Save(config.ServerConfig{Name: "old", Kind: "custom", Command: "x"})
	first, _ := store.Save(config.ServerConfig{Name: "files", Kind: "filesystem", Path: "/", Enabled: true})
	second, _ := store.Save(config.ServerConfig{Name: "db", Kind: "sqlite", Path: "/x.db", Enabled: true})

	tests := []struct {
		name   string
		setup  func() error
		wantID string
	}{
		{
			name:   "first enabled by default",
			setup:  func() error { return nil },
			wantID: first,
		},
		{
			name:   "explicit selection",
			setup:  func() error { return store.SetActive(second) },
			wantID: second,
		},
		{
			name:   "selection may be a disabled server",
			setup:  func() error { return store.SetActive(disabled) },
			wantID: disabled,
		},
		{
			name:   "deleting the active server falls back",
			setup:  func() error { return store.Delete(disabled) },
			wantID: first,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.setup(); err != nil {
				t.Fatalf("setup: %v", err)
			}
			active, err := store.Active()
			if err != nil || active == nil {
				t.Fatalf("Active: %v %v", active, err)
			}
			if active.ID != tt.wantID {
				t.Errorf("active = %s (%s), want %s", active.Name, active.ID, tt.wantID)
			}
		})
	}

	if err := store.SetActive("missing"); err == nil {
		t.Error("activating an unknown server should fail")
	}
}

func TestServerStoreSeed(t *testing.T) {
	store := newTestStore(t)

	servers := []config.ServerConfig{
		{Name: "files", Kind: "filesystem", Path: "~/src", Enabled: true},
		{Name: "gh", Kind: "github", Enabled: true},
	}
	if err := store.Seed(servers, "gh"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	list, err := store.List()
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if list[0].Name != "files" || list[1].Name != "gh" {
		t.Errorf("order = %s, %s", list[0].Name, list[1].Name)
	}

	active, _ := store.Active()
	if active == nil || active.Name != "gh" {
		t.Errorf("active = %+v", active)
	}

	// A second seed is a no-op once servers exist.
	if err := store.Seed([]config.ServerConfig{{Name: "other", Kind: "custom", Command: "x"}}, ""); err != nil {
		t.Fatal(err)
	}
	if list, _ := store.List(); len(list) != 2 {
		t.Errorf("seed should not touch a populated store, got %d servers", len(list))
	}
}

func TestServerStorePersists(t *testing.T) {
	dir := t.TempDir()

	store, err := NewServerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := store.Save(config.ServerConfig{Name: "remote", Kind: "http", URL: "https://x/mcp", Headers: map[string]string{"Authorization": "Bearer t"}})
	store.SetActive(id)
	store.Close()

	reopened, err := NewServerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	active, err := reopened.Active()
	if err != nil || active == nil || active.Headers["Authorization"] != "Bearer t" {
		t.Errorf("active after reopen = %+v, %v", active, err)
	}
}
