package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeChecker struct {
	approved map[string]bool
	comments map[string]int
	fail     map[string]bool
}

func (f *fakeChecker) Approved(ctx context.Context, entityID, username string) (bool, error) {
	if f.fail[entityID] {
		return false, errors.New("server returned 500")
	}
	return f.approved[entityID], nil
}

func (f *fakeChecker) ListComments(ctx context.Context, entityID, username string) (int, error) {
	return f.comments[entityID], nil
}

func TestStatusBatch_Check(t *testing.T) {
	checker := &fakeChecker{
		approved: map[string]bool{"M2": true},
		comments: map[string]int{"M1": 3},
		fail:     map[string]bool{"M3": true},
	}
	batch := NewStatusBatch(checker, "Alice", 2)

	statuses := batch.Check(context.Background(), []string{"M3", "M1", "M2"})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].EntityID != "M1" || statuses[1].EntityID != "M2" || statuses[2].EntityID != "M3" {
		t.Errorf("expected sorted statuses, got %s %s %s", statuses[0].EntityID, statuses[1].EntityID, statuses[2].EntityID)
	}
	if statuses[0].Approved || statuses[0].Comments != 3 {
		t.Errorf("unexpected M1 status: %+v", statuses[0])
	}
	if !statuses[1].Approved {
		t.Errorf("expected M2 approved")
	}
	if statuses[2].GetError() == nil {
		t.Errorf("expected M3 error")
	}
}

func TestStatusBatch_Empty(t *testing.T) {
	batch := NewStatusBatch(&fakeChecker{}, "Alice", 2)
	if got := batch.Check(context.Background(), nil); len(got) != 0 {
		t.Errorf("expected 0 statuses, got %d", len(got))
	}
}

func writeIDs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadEntityIDsFromFile(t *testing.T) {
	path := writeIDs(t, "M1\n# comment\n  M2  \n\nM1\nQ42\n")

	ids, err := ReadEntityIDsFromFile(path)
	if err != nil {
		t.Fatalf("ReadEntityIDsFromFile failed: %v", err)
	}
	expected := []string{"M1", "M2", "Q42"}
	if len(ids) != len(expected) {
		t.Fatalf("expected %d ids, got %v", len(expected), ids)
	}
	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("expected %s at %d, got %s", expected[i], i, id)
		}
	}
}

func TestReadEntityIDsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadEntityIDsFromFile("no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestStatusBatch_CheckFile(t *testing.T) {
	path := writeIDs(t, "M1\nM2\n")
	batch := NewStatusBatch(&fakeChecker{}, "Alice", 2)

	statuses, err := batch.CheckFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CheckFile failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Errorf("expected 2 statuses, got %d", len(statuses))
	}
}
