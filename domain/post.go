package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the display format stamped into Post.Date.
const DateLayout = "Jan 2, 2006"

var ErrValidation = errors.New("validation failed")

type Post struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	Date      string    `json:"date"`
	Slug      string    `json:"slug,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Draft is what the admin form submits.
type Draft struct {
	Title    string
	Subtitle string
	Content  string
	Tags     []string
	Image    string
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	return nil
}

// EnsureSlug backfills Slug for records stored before slugs existed, and
// CreatedAt from the display date when only that is known.
func (p *Post) EnsureSlug() {
	if p.Slug == "" {
		p.Slug = Slug(p.Title)
	}
	if p.CreatedAt.IsZero() && p.Date != "" {
		if t, err := time.Parse(DateLayout, p.Date); err == nil {
			p.CreatedAt = t
		}
	}
}

// Matches reports whether query is a case-insensitive substring of the
// title or of any tag.
func (p Post) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Filter keeps the posts matching query, preserving order. An empty query
// keeps everything.
func Filter(posts []Post, query string) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if query == "" || p.Matches(query) {
			out = append(out, p)
		}
	}
	return out
}

func (p Post) Clone() Post {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}
