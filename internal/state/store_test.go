package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/tkb/internal/state"
)

// testStore exercises the Store contract shared by every backend.
func testStore(t *testing.T, store state.Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx, "missing")
	if err != nil {
		t.Fatalf("Load(missing) error = %v", err)
	}
	if got != state.Default() {
		t.Errorf("Load(missing) = %+v, want Default()", got)
	}

	saved := state.State{
		Data:              "1\tX.1\tAlgebra\t3\t\t\tDr. A\tThứ 2,1-2,R101\t1-3",
		ByWeek:            true,
		Week:              4,
		ShowOnlyAvailable: true,
		OnlyToday:         false,
		AutoFit:           true,
		HidePanel:         true,
		UpdatedAt:         time.Date(2026, time.October, 19, 8, 30, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, "u1", saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err = store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Errorf("UpdatedAt = %s, want %s", got.UpdatedAt, saved.UpdatedAt)
	}
	got.UpdatedAt = saved.UpdatedAt
	if got != saved {
		t.Errorf("Load() = %+v, want %+v", got, saved)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err = store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() after Delete error = %v", err)
	}
	if got != state.Default() {
		t.Errorf("Load() after Delete = %+v, want Default()", got)
	}

	if err := store.Delete(ctx, "never-saved"); err != nil {
		t.Errorf("Delete(never-saved) error = %v", err)
	}
	if err := store.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, state.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "states"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	testStore(t, store)
}

func TestFileStore_RejectsPathLikeIDs(t *testing.T) {
	store, err := state.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	err = store.Save(context.Background(), "../escape", state.Default())
	if !errors.Is(err, state.ErrInvalid) {
		t.Errorf("Save(../escape) error = %v, want ErrInvalid", err)
	}
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := state.NewFileStore(dir)
	for i := 0; i < 3; i++ {
		if err := store.Save(context.Background(), "u1", state.State{Week: i + 1}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "u1.yaml" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want [u1.yaml]", names)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, _ := state.NewFileStore(dir)
	os.WriteFile(filepath.Join(dir, "u1.yaml"), []byte("data: [\n"), 0o644)

	if _, err := store.Load(context.Background(), "u1"); err == nil {
		t.Error("Load() should fail on a corrupt file")
	}
}

// testUpdater checks that concurrent read-modify-write cycles through two
// services on the same store never lose a change.
func testUpdater(t *testing.T, store state.Store) {
	t.Helper()
	if _, ok := store.(state.Updater); !ok {
		t.Fatalf("%T does not implement Updater", store)
	}

	t.Run("concurrent updates", func(t *testing.T) {
		ctx := t.Context()
		a, b := state.NewService(store), state.NewService(store)

		const perService = 5
		var wg sync.WaitGroup
		for _, svc := range []*state.Service{a, b} {
			for range perService {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Update(ctx, "race", func(s *state.State) error {
						s.Week++
						return nil
					})
					if err != nil {
						t.Errorf("Update() error = %v", err)
					}
				}()
			}
		}
		wg.Wait()

		got, err := store.Load(ctx, "race")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		// Week starts at 1 for a new id.
		if want := 1 + 2*perService; got.Week != want {
			t.Errorf("Week = %d, want %d", got.Week, want)
		}
	})

	t.Run("failed update writes nothing", func(t *testing.T) {
		ctx := t.Context()
		u := store.(state.Updater)
		boom := errors.New("boom")
		_, err := u.Update(ctx, "race", func(s *state.State) error {
			s.Data = "discarded"
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v, want boom", err)
		}
		got, _ := store.Load(ctx, "race")
		if got.Data == "discarded" {
			t.Error("failed Update() was saved")
		}
	})
}
