package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"tasublog/domain"
)

// PostStore is the single source of truth for the running process. Every
// mutation goes to the backend first and lands in memory only once the
// backend accepted it.
type PostStore struct {
	backend  Backend
	log      *zap.Logger
	timeout  time.Duration
	attempts int
	now      func() time.Time

	mu         sync.RWMutex
	posts      []domain.Post
	loadFailed bool

	// serializes mutations so the backend and memory never interleave
	writeMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]func([]domain.Post)
	nextSub int
}

type Option func(*PostStore)

func WithLogger(log *zap.Logger) Option {
	return func(s *PostStore) { s.log = log }
}

// WithTimeout bounds every backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *PostStore) { s.timeout = d }
}

// WithLoadAttempts sets how many times Load asks the backend before giving up.
func WithLoadAttempts(n int) Option {
	return func(s *PostStore) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PostStore) { s.now = now }
}

func NewPostStore(backend Backend, opts ...Option) *PostStore {
	s := &PostStore{
		backend:  backend,
		log:      zap.NewNop(),
		timeout:  10 * time.Second,
		attempts: 1,
		now:      time.Now,
		subs:     map[int]func([]domain.Post){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the backend's records, newest first,
// with missing slugs backfilled. On failure the collection is emptied and
// LoadFailed reports true: an empty result then means "unknown".
func (s *PostStore) Load(ctx context.Context) ([]domain.Post, error) {
	var (
		posts []domain.Post
		err   error
	)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		posts, err = s.list(ctx)
		if err == nil || ctx.Err() != nil {
			break
		}
		s.log.Warn("loading articles", zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		s.log.Error("error loading articles", zap.Error(err))
		s.mu.Lock()
		s.posts = nil
		s.loadFailed = true
		s.mu.Unlock()
		return []domain.Post{}, &OpError{Op: "load", Err: fmt.Errorf("%w: %w", ErrBackendUnavailable, err)}
	}

	for i := range posts {
		posts[i].EnsureSlug()
	}
	// records stored without a creation time only get one from EnsureSlug
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	s.mu.Lock()
	s.posts = posts
	s.loadFailed = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("loaded articles", zap.Int("count", len(snap)))
	s.notify(snap)
	return snap, nil
}

func (s *PostStore) list(ctx context.Context) ([]domain.Post, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.backend.ListAll(ctx, OrderByDate)
}

// LoadFailed reports whether the last Load could not reach the backend.
func (s *PostStore) LoadFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadFailed
}

// Snapshot returns a copy of the current collection.
func (s *PostStore) Snapshot() []domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Find looks a post up by slug, falling back to id.
func (s *PostStore) Find(slugOrID string) (domain.Post, bool) {
	return FindPost(s.Snapshot(), slugOrID)
}

// FindPost is the slug-then-id lookup over an arbitrary collection.
func FindPost(posts []domain.Post, slugOrID string) (domain.Post, bool) {
	if slugOrID == "" {
		return domain.Post{}, false
	}
	for _, p := range posts {
		if p.Slug == slugOrID {
			return p, true
		}
	}
	for _, p := range posts {
		if p.ID == slugOrID {
			return p, true
		}
	}
	return domain.Post{}, false
}

func (s *PostStore) Create(ctx context.Context, d domain.Draft) (domain.Post, error) {
	if err := d.Validate(); err != nil {
		return domain.Post{}, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	p := domain.Post{
		Title:     d.Title,
		Subtitle:  d.Subtitle,
		Content:   d.Content,
		Tags:      append([]string(nil), d.Tags...),
		Image:     d.Image,
		Slug:      domain.Slug(d.Title),
		Date:      now.Format(domain.DateLayout),
		CreatedAt: now,
	}

	bctx, cancel := s.bound(ctx)
	id, err := s.backend.Insert(bctx, p)
	cancel()
	if err != nil {
		return domain.Post{}, s.fail("create", err)
	}
	if id == "" {
		id = strconv.FormatInt(now.UnixMilli(), 10)
	}
	p.ID = id

	s.mu.Lock()
	s.posts = append([]domain.Post{p}, s.posts...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("article created", zap.String("id", p.ID), zap.String("slug", p.Slug))
	s.notify(snap)
	return p.Clone(), nil
}

// Update merges d into the post with the given id. The slug follows the
// new title; id, date and creation time are kept.
func (s *PostStore) Update(ctx context.Context, id string, d domain.Draft) (domain.Post, error) {
	if err := d.Validate(); err != nil {
		return domain.Post{}, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok := s.byID(id)
	if !ok {
		return domain.Post{}, &OpError{Op: "update", Err: ErrNotFound}
	}
	p := existing.Clone()
	p.Title = d.Title
	p.Subtitle = d.Subtitle
	p.Content = d.Content
	p.Tags = append([]string(nil), d.Tags...)
	p.Image = d.Image
	p.Slug = domain.Slug(d.Title)

	bctx, cancel := s.bound(ctx)
	err := s.backend.Replace(bctx, id, p)
	cancel()
	if errors.Is(err, ErrNotFound) {
		s.log.Warn("article vanished from backend", zap.String("id", id))
		return domain.Post{}, &OpError{Op: "update", Err: ErrNotFound}
	}
	if err != nil {
		return domain.Post{}, s.fail("update", err)
	}

	s.mu.Lock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts[i] = p
			break
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("article updated", zap.String("id", id), zap.String("slug", p.Slug))
	s.notify(snap)
	return p.Clone(), nil
}

// Delete removes the post. A post that is already gone, here or in the
// backend, is not an error.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, ok := s.byID(id); !ok {
		return nil
	}

	bctx, cancel := s.bound(ctx)
	err := s.backend.Remove(bctx, id)
	cancel()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return s.fail("delete", err)
	}

	s.mu.Lock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts = append(s.posts[:i:i], s.posts[i+1:]...)
			break
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("article deleted", zap.String("id", id))
	s.notify(snap)
	return nil
}

// Subscribe registers fn to receive the collection after every successful
// load or mutation. The returned func unregisters it.
func (s *PostStore) Subscribe(fn func([]domain.Post)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()
	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *PostStore) notify(snap []domain.Post) {
	s.subsMu.Lock()
	fns := make([]func([]domain.Post), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(clonePosts(snap))
	}
}

func (s *PostStore) fail(op string, err error) error {
	s.log.Error("backend call failed", zap.String("op", op), zap.Error(err))
	return &OpError{Op: op, Err: fmt.Errorf("%w: %w", ErrBackendUnavailable, err)}
}

func (s *PostStore) byID(id string) (domain.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Post{}, false
}

func (s *PostStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostStore) snapshotLocked() []domain.Post {
	return clonePosts(s.posts)
}

func clonePosts(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}
