package storage

import (
	"os"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	return store
}

func TestSaveAndReadContent(t *testing.T) {
	store := newTestStore(t)

	content := "20250218080534,0001,6C,02\n20250218080534,0001,6C,02,TAG-1"
	info, err := store.Save("20250218080534.csv", strings.NewReader(content))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if info.ID == "" {
		t.Error("Expected a generated ID")
	}
	if info.Name != "20250218080534.csv" {
		t.Errorf("Expected original name preserved, got %s", info.Name)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Expected size %d, got %d", len(content), info.Size)
	}

	data, err := store.ReadContent(info.ID)
	if err != nil {
		t.Fatalf("ReadContent failed: %v", err)
	}
	if string(data) != content {
		t.Errorf("Content mismatch: got %q", string(data))
	}

	name, err := store.FileName(info.ID)
	if err != nil || name != "20250218080534.csv" {
		t.Errorf("FileName = %q, %v", name, err)
	}
}

func TestSaveBytes(t *testing.T) {
	store := newTestStore(t)

	info, err := store.SaveBytes("a.csv", []byte("20250218080534,0001,6C,02"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}

	got, err := store.Get(info.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Size != 25 {
		t.Errorf("Expected size 25, got %d", got.Size)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get("nope"); err == nil {
		t.Error("Expected error for unknown ID")
	}
	if _, err := store.ReadContent("nope"); err == nil {
		t.Error("Expected error for unknown ID")
	}
	if _, err := store.FileName("nope"); err == nil {
		t.Error("Expected error for unknown ID")
	}
}

func TestListLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.SaveBytes("f.csv", []byte("x")); err != nil {
			t.Fatalf("SaveBytes failed: %v", err)
		}
	}

	list, err := store.List(3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(list))
	}

	all, err := store.List(100)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("Expected 5 entries, got %d", len(all))
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	info, err := store.SaveBytes("a.csv", []byte("data"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}
	path, err := store.GetFilePath(info.ID)
	if err != nil {
		t.Fatalf("GetFilePath failed: %v", err)
	}

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(info.ID); err == nil {
		t.Error("Expected metadata gone after delete")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file removed from disk")
	}

	if err := store.Delete(info.ID); err == nil {
		t.Error("Expected error deleting twice")
	}
}

func TestRename(t *testing.T) {
	store := newTestStore(t)

	info, err := store.SaveBytes("old.csv", []byte("data"))
	if err != nil {
		t.Fatalf("SaveBytes failed: %v", err)
	}

	renamed, err := store.Rename(info.ID, "new.csv")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "new.csv" {
		t.Errorf("Expected new.csv, got %s", renamed.Name)
	}

	data, err := store.ReadContent(info.ID)
	if err != nil || string(data) != "data" {
		t.Errorf("Content must survive rename: %q, %v", string(data), err)
	}

	if _, err := store.Rename("nope", "x.csv"); err == nil {
		t.Error("Expected error renaming unknown ID")
	}
}
