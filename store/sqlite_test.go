package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tasublog/domain"
)

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	b, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteBackendCRUD(t *testing.T) {
	ctx := context.Background()
	b := openTestSQLite(t)

	older := domain.Post{Title: "Older", Content: "c", Tags: []string{"x"}, Date: "Jan 1, 2024", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := domain.Post{Title: "Newer", Subtitle: "sub", Content: "c", Date: "Feb 1, 2024", Slug: "newer", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	oldID, err := b.Insert(ctx, older)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	newID, err := b.Insert(ctx, newer)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if oldID == "" || oldID == newID {
		t.Fatalf("ids = %q, %q", oldID, newID)
	}

	posts, err := b.ListAll(ctx, OrderByDate)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != newID || posts[1].ID != oldID {
		t.Fatalf("ListAll order = %+v", posts)
	}
	if posts[1].Slug != "" || posts[1].Subtitle != "" {
		t.Errorf("absent fields came back non-empty: %+v", posts[1])
	}
	if posts[0].Subtitle != "sub" || !posts[0].CreatedAt.Equal(newer.CreatedAt) {
		t.Errorf("fields lost: %+v", posts[0])
	}

	older.Title = "Renamed"
	if err := b.Replace(ctx, oldID, older); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := b.Replace(ctx, "missing", older); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace(missing) = %v", err)
	}
	if err := b.Remove(ctx, newID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := b.Remove(ctx, newID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove twice = %v", err)
	}

	posts, err = b.ListAll(ctx, "")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Renamed" || len(posts[0].Tags) != 1 {
		t.Errorf("after mutations = %+v", posts)
	}

	if _, err := b.ListAll(ctx, "title; DROP TABLE articles"); err == nil {
		t.Error("unknown order field accepted")
	}
}

func TestSQLiteReopenKeepsSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "blog.db")
	b, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := b.Insert(ctx, domain.Post{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	b.Close()

	b, err = OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("OpenSQLite reopen: %v", err)
	}
	defer b.Close()
	posts, err := b.ListAll(ctx, OrderByDate)
	if err != nil || len(posts) != 1 {
		t.Fatalf("ListAll after reopen = %v, %v", posts, err)
	}
}

func TestPostStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	s := NewPostStore(openTestSQLite(t))
	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := s.Create(ctx, domain.Draft{Title: "The Future of AI!", Content: "body", Tags: []string{"AI"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	posts, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != p.ID || posts[0].Slug != "the-future-of-ai" {
		t.Errorf("loaded = %+v", posts)
	}
}
