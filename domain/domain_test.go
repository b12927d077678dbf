package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Future of AI!", "the-future-of-ai"},
		{"  Hello,   World  ", "hello-world"},
		{"Go 1.22 -- released", "go-1-22-released"},
		{"already-a-slug", "already-a-slug"},
		{"", ""},
		{"!!!", ""},
		{"Café au lait", "caf-au-lait"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugIdempotent(t *testing.T) {
	for _, title := range []string{"The Future of AI!", "--a--b--", "Minimalism in Design", "x_y.z"} {
		once := Slug(title)
		if twice := Slug(once); twice != once {
			t.Errorf("Slug(Slug(%q)) = %q, want %q", title, twice, once)
		}
	}
}

func TestEnsureSlugBackfills(t *testing.T) {
	p := Post{ID: "1", Title: "Exploring the Night", Date: "Mar 4, 2024"}
	p.EnsureSlug()
	if p.Slug != "exploring-the-night" {
		t.Errorf("slug = %q", p.Slug)
	}
	if p.CreatedAt.IsZero() || p.CreatedAt.Year() != 2024 {
		t.Errorf("createdAt = %v", p.CreatedAt)
	}

	kept := Post{Title: "New Title", Slug: "old-slug"}
	kept.EnsureSlug()
	if kept.Slug != "old-slug" {
		t.Errorf("existing slug overwritten: %q", kept.Slug)
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (Draft{Title: "t", Content: "c"}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, d := range []Draft{{Content: "c"}, {Title: "t"}, {Title: "  ", Content: "c"}} {
		if err := d.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("Validate(%+v) = %v, want ErrValidation", d, err)
		}
	}
}

func samplePosts() []Post {
	return []Post{
		{ID: "1", Title: "Minimalism in Design", Tags: []string{"Design", "UX"}},
		{ID: "2", Title: "Exploring the Night", Tags: []string{"Photography", "Travel"}},
	}
}

func ids(posts []Post) []string {
	var out []string
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	posts := samplePosts()
	tests := []struct {
		query string
		want  []string
	}{
		{"design", []string{"1"}},
		{"travel", []string{"2"}},
		{"", []string{"1", "2"}},
		{"NIGHT", []string{"2"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		if got := ids(Filter(posts, tt.query)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestAllTags(t *testing.T) {
	posts := append(samplePosts(), Post{ID: "3", Title: "x", Tags: []string{"UX", "Travel", "Code"}})
	want := []string{"Design", "UX", "Photography", "Travel", "Code"}
	if got := AllTags(posts); !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags = %v, want %v", got, want)
	}
	if got := AllTags(nil); len(got) != 0 {
		t.Errorf("AllTags(nil) = %v", got)
	}
}

func TestSelectionToggleReversible(t *testing.T) {
	s := NewSelection("Design", "UX")
	before := s.Tags()

	s.Toggle("Travel")
	if !s.Has("Travel") {
		t.Fatal("Travel not selected after toggle")
	}
	s.Toggle("Travel")
	if got := s.Tags(); !reflect.DeepEqual(got, before) {
		t.Errorf("after double toggle = %v, want %v", got, before)
	}

	s.Toggle("Design")
	s.Toggle("Design")
	if !s.Has("Design") || len(s.Tags()) != 2 {
		t.Errorf("double toggle of selected tag changed selection: %v", s.Tags())
	}
}

func TestSelectionResetAndUnion(t *testing.T) {
	s := NewSelection("a")
	s.Reset([]string{"Design", "UX"})
	if s.Has("a") {
		t.Error("reset kept previous tag")
	}
	got := s.Union(" UX, Travel ,, Code")
	want := []string{"Design", "UX", "Travel", "Code"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Union = %v, want %v", got, want)
	}

	var zero Selection
	zero.Toggle("x")
	if !zero.Has("x") {
		t.Error("zero Selection toggle failed")
	}
}
