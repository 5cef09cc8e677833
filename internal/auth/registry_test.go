package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-chat-assistant/internal/core/errors"
)

type fakeStore struct {
	data    map[string]json.RawMessage
	getErr  error
	saveErr error
	saves   int
}

func (s *fakeStore) GetSetting(_ context.Context, key string, target interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}

	raw, ok := s.data[key]
	if !ok {
		return nil
	}

	return json.Unmarshal(raw, target)
}

func (s *fakeStore) SaveSetting(_ context.Context, key string, value interface{}) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.data == nil {
		s.data = map[string]json.RawMessage{}
	}

	s.data[key] = raw
	s.saves++

	return nil
}

func (s *fakeStore) whitelist(t *testing.T) Whitelist {
	t.Helper()

	var wl Whitelist
	if raw, ok := s.data[whitelistKey]; ok {
		if err := json.Unmarshal(raw, &wl); err != nil {
			t.Fatalf("unmarshal stored whitelist: %v", err)
		}
	}

	return wl
}

func newTestRegistry(store Store, preapproved []string) *Registry {
	logger := zerolog.Nop()

	return New(store, preapproved, &logger)
}

func seedStore(t *testing.T, wl Whitelist) *fakeStore {
	t.Helper()

	store := &fakeStore{}
	if err := store.SaveSetting(context.Background(), whitelistKey, wl); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	store.saves = 0

	return store
}

func TestClassify(t *testing.T) {
	wl := Whitelist{
		Users:  []string{"42", "alice"},
		Groups: []string{"-100"},
	}
	preapproved := map[string]struct{}{"root": {}}

	tests := []struct {
		name   string
		user   Principal
		chatID int64
		want   Verdict
	}{
		{"by id", Principal{ID: 42, Handle: "somebody"}, 1, ByID},
		{"by handle", Principal{ID: 7, Handle: "alice"}, 1, ByHandle},
		{"by preapproved", Principal{ID: 8, Handle: "root"}, 1, ByPreapproved},
		{"by group", Principal{ID: 9, Handle: "stranger"}, -100, ByGroup},
		{"unauthorized", Principal{ID: 9, Handle: "stranger"}, 1, Unauthorized},
		{"empty handle never matches preapproved", Principal{ID: 9}, 1, Unauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(wl, preapproved, tt.user, tt.chatID)

			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizeMigratesHandle(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, Whitelist{Users: []string{"alice", "bob"}})
	registry := newTestRegistry(store, nil)

	user := Principal{ID: 42, Handle: "alice"}

	if !registry.Authorize(ctx, user, 1) {
		t.Fatal("expected handle match to authorize")
	}

	wl := store.whitelist(t)
	if contains(wl.Users, "alice") {
		t.Errorf("handle entry survived migration: %v", wl.Users)
	}

	if !contains(wl.Users, "42") {
		t.Errorf("id entry missing after migration: %v", wl.Users)
	}

	if !contains(wl.Users, "bob") {
		t.Errorf("unrelated entry lost during migration: %v", wl.Users)
	}

	// Second call resolves by id and must not write again.
	saves := store.saves
	if !registry.Authorize(ctx, user, 1) {
		t.Fatal("expected id match to authorize after migration")
	}

	if store.saves != saves {
		t.Errorf("migration repeated: saves went %d -> %d", saves, store.saves)
	}

	if got := registry.Lookup(ctx, user, 1); got != ByID {
		t.Errorf("Lookup after migration = %v, want %v", got, ByID)
	}
}

func TestAuthorizeMigrationPersistFailure(t *testing.T) {
	store := seedStore(t, Whitelist{Users: []string{"alice"}})
	store.saveErr = errors.New("db down")
	registry := newTestRegistry(store, nil)

	if !registry.Authorize(context.Background(), Principal{ID: 42, Handle: "alice"}, 1) {
		t.Error("persist failure must not revoke an authorization already granted")
	}
}

func TestAuthorizeFailsOpenOnLoadError(t *testing.T) {
	store := &fakeStore{getErr: errors.New("db down")}
	registry := newTestRegistry(store, []string{"root"})

	if registry.Authorize(context.Background(), Principal{ID: 1, Handle: "stranger"}, 1) {
		t.Error("load failure must classify against an empty document")
	}

	// Pre-approved handles survive a broken store.
	if !registry.Authorize(context.Background(), Principal{ID: 2, Handle: "root"}, 1) {
		t.Error("pre-approved handle must authorize even when the store is down")
	}
}

func TestAddUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("denies unapproved caller", func(t *testing.T) {
		store := seedStore(t, Whitelist{})
		registry := newTestRegistry(store, nil)

		_, err := registry.AddUsers(ctx, Principal{ID: 1, Handle: "stranger"}, []string{"alice"})
		if !errors.Is(err, apperrors.ErrNotAuthorized) {
			t.Errorf("got %v, want %v", err, apperrors.ErrNotAuthorized)
		}

		if store.saves != 0 {
			t.Error("denied call must not persist")
		}
	})

	t.Run("strips at sign and skips numeric and duplicate entries", func(t *testing.T) {
		store := seedStore(t, Whitelist{Users: []string{"alice"}})
		registry := newTestRegistry(store, []string{"root"})

		added, err := registry.AddUsers(ctx, Principal{ID: 1, Handle: "root"},
			[]string{"@bob", "alice", "12345", "carol", "@"})
		if err != nil {
			t.Fatalf("AddUsers: %v", err)
		}

		want := []string{"bob", "carol"}
		if len(added) != len(want) || added[0] != want[0] || added[1] != want[1] {
			t.Errorf("added = %v, want %v", added, want)
		}

		wl := store.whitelist(t)
		if contains(wl.Users, "12345") {
			t.Error("bare numeric entry must be skipped")
		}
	})

	t.Run("nothing added does not persist", func(t *testing.T) {
		store := seedStore(t, Whitelist{Users: []string{"alice", "1"}})
		registry := newTestRegistry(store, nil)

		added, err := registry.AddUsers(ctx, Principal{ID: 1}, []string{"alice", "@alice"})
		if err != nil {
			t.Fatalf("AddUsers: %v", err)
		}

		if added != nil {
			t.Errorf("added = %v, want nil", added)
		}

		if store.saves != 0 {
			t.Error("no-op call must not persist")
		}
	})

	t.Run("id-approved caller may mutate", func(t *testing.T) {
		store := seedStore(t, Whitelist{Users: []string{"7"}})
		registry := newTestRegistry(store, nil)

		added, err := registry.AddUsers(ctx, Principal{ID: 7, Handle: "whoever"}, []string{"dave"})
		if err != nil {
			t.Fatalf("AddUsers: %v", err)
		}

		if len(added) != 1 || added[0] != "dave" {
			t.Errorf("added = %v, want [dave]", added)
		}
	})
}

func TestAddGroup(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, Whitelist{})
	registry := newTestRegistry(store, nil)

	added, err := registry.AddGroup(ctx, -100)
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	if !added {
		t.Error("first AddGroup must report added")
	}

	added, err = registry.AddGroup(ctx, -100)
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	if added {
		t.Error("repeated AddGroup must report already present")
	}

	wl := store.whitelist(t)
	if len(wl.Groups) != 1 || wl.Groups[0] != "-100" {
		t.Errorf("groups = %v, want [-100]", wl.Groups)
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"12345", true},
		{"0", true},
		{"", false},
		{"12a45", false},
		{"-123", false},
		{"alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isNumeric(tt.input); got != tt.want {
				t.Errorf("isNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
