package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/oas2postman/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunCRUD(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	run := &types.Run{
		Source:         types.SourceCLI,
		Input:          "petstore.yaml",
		Output:         "petstore.postman.json",
		Format:         "json",
		Title:          "Petstore",
		OpenAPIVersion: "3.0.3",
		BaseURL:        "https://api.example.com",
		FolderCount:    2,
		RequestCount:   3,
		ItemCount:      4,
		Warnings:       []string{"something odd"},
	}
	collection := []byte(`{"info":{"name":"Petstore"}}`)
	if err := s.CreateRun(run, collection); err != nil {
		t.Fatal(err)
	}
	wantPrefix := "run_" + time.Now().UTC().Format("20060102") + "_"
	if !strings.HasPrefix(run.ID, wantPrefix) || !strings.HasSuffix(run.ID, "_001") {
		t.Fatalf("unexpected run id %q", run.ID)
	}
	if run.Status != types.StatusOK {
		t.Fatalf("expected default status ok, got %q", run.Status)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Petstore" || got.RequestCount != 3 || got.ItemCount != 4 || got.FolderCount != 2 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if len(got.Warnings) != 1 || got.Warnings[0] != "something odd" {
		t.Fatalf("warnings not round-tripped: %v", got.Warnings)
	}

	data, err := s.GetCollection(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(collection) {
		t.Fatalf("unexpected collection %s", data)
	}

	if err := s.DeleteRun(run.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRun(run.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteRun(run.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if _, err := s.GetCollection("run_19700101_001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown collection, got %v", err)
	}
}

func TestRunIDsIncrementAndListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.CreateRun(&types.Run{Source: types.SourceHTTP, Input: fmt.Sprintf("in-%d", i)}, nil); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if !strings.HasSuffix(runs[0].ID, "_003") || !strings.HasSuffix(runs[2].ID, "_001") {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[2].ID)
	}

	limited, err := s.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs with limit, got %d", len(limited))
	}
}

func TestFailedRunKeepsError(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	run := &types.Run{Source: types.SourceCLI, Input: "bad.yaml", Status: types.StatusFailed, Error: `missing required field "paths"`}
	if err := s.CreateRun(run, nil); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.StatusFailed || got.Error == "" {
		t.Fatalf("unexpected failed run: %+v", got)
	}
	if data, err := s.GetCollection(run.ID); err != nil || len(data) != 0 {
		t.Fatalf("expected empty collection, got %q err=%v", data, err)
	}
}

func TestConcurrentCreateAndList(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.CreateRun(&types.Run{Source: types.SourceHTTP, Input: fmt.Sprintf("in-%d", i)}, []byte("{}"))
		}(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ListRuns(0)
		}()
	}
	wg.Wait()

	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, r := range runs {
		if seen[r.ID] {
			t.Fatalf("duplicate run id %s", r.ID)
		}
		seen[r.ID] = true
	}
	if len(runs) == 0 {
		t.Fatalf("expected runs")
	}
}
