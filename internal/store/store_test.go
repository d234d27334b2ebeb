package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func openTestStore(t *testing.T, db *sql.DB, scope string) *Store {
	t.Helper()
	s := New(db, scope)
	s.now = func() time.Time {
		return time.Date(2026, time.February, 22, 13, 30, 0, 0, time.UTC)
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func TestStoreGet_ReturnsDefaultWhenMissing(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	s := openTestStore(t, db, "install-a")
	got, err := s.Get(context.Background(), "usage_history", []byte("[]"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "[]" {
		t.Fatalf("Get = %q, want default", got)
	}
}

func TestStoreSet_UpsertsAndScopes(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	a := openTestStore(t, db, "install-a")
	b := openTestStore(t, db, "install-b")

	if err := a.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := a.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, err := a.Get(ctx, "k", nil)
	if err != nil || string(got) != "two" {
		t.Fatalf("Get = %q, %v; want two", got, err)
	}

	other, err := b.Get(ctx, "k", []byte("none"))
	if err != nil || string(other) != "none" {
		t.Fatalf("other scope Get = %q, %v; want default", other, err)
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	ts, ok, err := a.UpdatedAt(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("UpdatedAt = %v, %v, %v", ts, ok, err)
	}
	if !ts.Equal(time.Date(2026, time.February, 22, 13, 30, 0, 0, time.UTC)) {
		t.Fatalf("UpdatedAt = %v", ts)
	}
}

func TestStoreDelete(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	s := openTestStore(t, db, "install-a")
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.UpdatedAt(ctx, "k"); ok {
		t.Fatal("key still present after Delete")
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")
	s, err := Open(path, "scope")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.Set(context.Background(), "k", nil); err != nil {
		t.Fatalf("Set nil value: %v", err)
	}
	got, err := s.Get(context.Background(), "k", []byte("default"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Get = %q, want empty stored value", got)
	}
}
