package domain

import "strings"

// AllTags returns every distinct tag across posts in first-seen order.
func AllTags(posts []Post) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, p := range posts {
		for _, tag := range p.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// SplitTags parses comma-separated tag text, dropping blanks.
func SplitTags(text string) []string {
	var tags []string
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Selection is the chip-picker state of the post being edited.
type Selection struct {
	order []string
	set   map[string]bool
}

func NewSelection(tags ...string) *Selection {
	s := &Selection{}
	s.Reset(tags)
	return s
}

// Reset replaces the selection with exactly tags.
func (s *Selection) Reset(tags []string) {
	s.order = nil
	s.set = make(map[string]bool, len(tags))
	for _, tag := range tags {
		s.add(tag)
	}
}

func (s *Selection) Toggle(tag string) {
	if s.set[tag] {
		delete(s.set, tag)
		for i, t := range s.order {
			if t == tag {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	s.add(tag)
}

func (s *Selection) Has(tag string) bool {
	return s.set[tag]
}

func (s *Selection) Tags() []string {
	return append([]string(nil), s.order...)
}

// Union returns the selected tags followed by the typed ones, with
// duplicates removed.
func (s *Selection) Union(typed string) []string {
	out := s.Tags()
	seen := make(map[string]bool, len(out))
	for _, t := range out {
		seen[t] = true
	}
	for _, t := range SplitTags(typed) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func (s *Selection) add(tag string) {
	if s.set == nil {
		s.set = make(map[string]bool)
	}
	if s.set[tag] {
		return
	}
	s.set[tag] = true
	s.order = append(s.order, tag)
}
