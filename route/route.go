// Package route maps address state to one of the three views.
package route

import (
	"strings"
	"sync"

	"tasublog/domain"
)

type View string

const (
	Home    View = "home"
	Article View = "article"
	Admin   View = "admin"
)

const (
	AdminPath     = "/admin"
	articlePrefix = "/article/"
)

// Route is a resolved (view, post) pair. Post is set only for Article.
type Route struct {
	View View
	Post *domain.Post
}

// Lookup finds a post by slug, falling back to id.
type Lookup func(slugOrID string) (domain.Post, bool)

// Resolve maps a location in fragment form ("", "/", "/admin",
// "/article/<slug-or-id>", optionally prefixed with "#") to a route.
// Anything unrecognised, including an article that does not exist,
// resolves to Home.
func Resolve(location string, lookup Lookup) Route {
	loc := strings.TrimPrefix(location, "#")
	switch {
	case loc == "" || loc == "/":
		return Route{View: Home}
	case loc == AdminPath:
		return Route{View: Admin}
	case strings.HasPrefix(loc, articlePrefix):
		key := strings.TrimPrefix(loc, articlePrefix)
		if lookup != nil {
			if p, ok := lookup(key); ok {
				return Route{View: Article, Post: &p}
			}
		}
	}
	return Route{View: Home}
}

// ArticlePath is the location of a post, by slug when it has one.
func ArticlePath(p domain.Post) string {
	key := p.Slug
	if key == "" {
		key = domain.Slug(p.Title)
	}
	if key == "" {
		key = p.ID
	}
	return articlePrefix + key
}

// Router holds the current location and its route, re-resolving on every
// navigation and whenever the post collection changes underneath it.
type Router struct {
	lookup Lookup

	mu       sync.Mutex
	location string
	current  Route
	subs     []func(Route)
}

// New resolves initial once and returns the router.
func New(initial string, lookup Lookup) *Router {
	r := &Router{lookup: lookup, location: initial}
	r.current = Resolve(initial, lookup)
	return r
}

func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Navigate moves to location and notifies subscribers.
func (r *Router) Navigate(location string) Route {
	r.mu.Lock()
	r.location = location
	r.current = Resolve(location, r.lookup)
	cur := r.current
	subs := append(([]func(Route))(nil), r.subs...)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(cur)
	}
	return cur
}

// Refresh re-resolves the current location, e.g. after the post behind an
// article route was edited or deleted.
func (r *Router) Refresh() Route {
	return r.Navigate(r.Location())
}

// OnChange registers fn to run after every resolution.
func (r *Router) OnChange(fn func(Route)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}
