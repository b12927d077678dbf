package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"tasublog/domain"
	"tasublog/kv"
)

// LegacySnapshotKey is where the local-storage revision kept its posts.
const LegacySnapshotKey = "tasu_blog_posts"

// LocalBackend keeps the whole collection as one JSON array under a single
// key, the way the browser local-storage revision did. Ids are derived from
// the insertion time in milliseconds.
type LocalBackend struct {
	KV  kv.Store
	Key string
	Now func() time.Time

	mu     sync.Mutex
	lastID int64
}

func NewLocalBackend(store kv.Store) *LocalBackend {
	return &LocalBackend{KV: store, Key: LegacySnapshotKey, Now: time.Now}
}

func (b *LocalBackend) ListAll(ctx context.Context, orderBy string) ([]domain.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	posts, err := b.read(ctx)
	if err != nil {
		return nil, err
	}
	switch orderBy {
	case "":
	case OrderByDate:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	default:
		return nil, fmt.Errorf("unsupported order field %q", orderBy)
	}
	return posts, nil
}

func (b *LocalBackend) Insert(ctx context.Context, p domain.Post) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	posts, err := b.read(ctx)
	if err != nil {
		return "", err
	}
	p.ID = b.nextID()
	posts = append([]domain.Post{p}, posts...)
	if err := b.write(ctx, posts); err != nil {
		return "", err
	}
	return p.ID, nil
}

func (b *LocalBackend) Replace(ctx context.Context, id string, p domain.Post) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	posts, err := b.read(ctx)
	if err != nil {
		return err
	}
	i := indexOf(posts, id)
	if i < 0 {
		return ErrNotFound
	}
	p.ID = id
	posts[i] = p
	return b.write(ctx, posts)
}

func (b *LocalBackend) Remove(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	posts, err := b.read(ctx)
	if err != nil {
		return err
	}
	i := indexOf(posts, id)
	if i < 0 {
		return ErrNotFound
	}
	posts = append(posts[:i], posts[i+1:]...)
	return b.write(ctx, posts)
}

func (b *LocalBackend) read(ctx context.Context) ([]domain.Post, error) {
	raw, found, err := b.KV.Get(ctx, b.Key)
	if err != nil {
		return nil, err
	}
	posts := []domain.Post{}
	if !found || len(raw) == 0 {
		return posts, nil
	}
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", b.Key, err)
	}
	return posts, nil
}

func (b *LocalBackend) write(ctx context.Context, posts []domain.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return b.KV.Set(ctx, b.Key, raw)
}

// nextID returns the current time in milliseconds, bumped past the last
// id handed out so two inserts in the same millisecond stay distinct.
func (b *LocalBackend) nextID() string {
	n := b.Now().UnixMilli()
	if n <= b.lastID {
		n = b.lastID + 1
	}
	b.lastID = n
	return strconv.FormatInt(n, 10)
}

func indexOf(posts []domain.Post, id string) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
