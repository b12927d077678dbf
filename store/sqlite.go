package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tasublog/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteBackend is the document store: one row per post in the articles
// table, keyed by a generated UUID.
type SQLiteBackend struct {
	DB *sql.DB
}

// OpenSQLite opens dsn and brings the schema to the latest version.
func OpenSQLite(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and avoids
	// writer contention on file databases
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error during database schema migration: %w", err)
	}
	return &SQLiteBackend{DB: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.DB.Close()
}

var orderClauses = map[string]string{
	"":          "rowid",
	OrderByDate: "created_at DESC, rowid DESC",
}

func (b *SQLiteBackend) ListAll(ctx context.Context, orderBy string) ([]domain.Post, error) {
	clause, ok := orderClauses[orderBy]
	if !ok {
		return nil, fmt.Errorf("unsupported order field %q", orderBy)
	}
	rows, err := b.DB.QueryContext(ctx, "SELECT id, title, subtitle, content, tags, date, slug, image, created_at FROM articles ORDER BY "+clause)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		var (
			p                     domain.Post
			subtitle, slug, image sql.NullString
			tags                  string
			createdAt             sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Title, &subtitle, &p.Content, &tags, &p.Date, &slug, &image, &createdAt); err != nil {
			return nil, err
		}
		p.Subtitle = subtitle.String
		p.Slug = slug.String
		p.Image = image.String
		p.CreatedAt = createdAt.Time
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
				return nil, fmt.Errorf("decoding tags of %s: %w", p.ID, err)
			}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (b *SQLiteBackend) Insert(ctx context.Context, p domain.Post) (string, error) {
	id := uuid.NewString()
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return "", err
	}
	_, err = b.DB.ExecContext(ctx,
		"INSERT INTO articles (id, title, subtitle, content, tags, date, slug, image, created_at) VALUES (?,?,?,?,?,?,?,?,?)",
		id, p.Title, nullString(p.Subtitle), p.Content, tags, p.Date, nullString(p.Slug), nullString(p.Image), nullTime(p))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *SQLiteBackend) Replace(ctx context.Context, id string, p domain.Post) error {
	tags, err := encodeTags(p.Tags)
	if err != nil {
		return err
	}
	res, err := b.DB.ExecContext(ctx,
		"UPDATE articles SET title = ?, subtitle = ?, content = ?, tags = ?, date = ?, slug = ?, image = ?, created_at = ? WHERE id = ?",
		p.Title, nullString(p.Subtitle), p.Content, tags, p.Date, nullString(p.Slug), nullString(p.Image), nullTime(p), id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (b *SQLiteBackend) Remove(ctx context.Context, id string) error {
	res, err := b.DB.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(p domain.Post) sql.NullTime {
	return sql.NullTime{Time: p.CreatedAt.UTC(), Valid: !p.CreatedAt.IsZero()}
}
