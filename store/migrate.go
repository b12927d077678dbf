package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tasublog/domain"
	"tasublog/kv"
)

const (
	// MigrationFlagKey holds the MigrationRecord of the legacy import.
	MigrationFlagKey = "tasu_migrated_to_firestore"

	legacyMigrationVersion = 1
	legacyMigrationKey     = "local-posts-to-documents"
)

// MigrationRecord is the versioned completion marker of the legacy import.
// Uploaded lists the legacy records already copied, so a run interrupted
// half way does not upload them twice when retried.
type MigrationRecord struct {
	Version     int       `json:"version"`
	Key         string    `json:"key"`
	Done        bool      `json:"done"`
	Migrated    int       `json:"migrated"`
	Uploaded    []string  `json:"uploaded,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitzero"`
}

type MigrationReport struct {
	Ran      bool
	Migrated int
	Skipped  int
	Reason   string
}

// Notice is the message shown after a run that uploaded something.
func (r MigrationReport) Notice() string {
	if !r.Ran || r.Migrated == 0 {
		return ""
	}
	return fmt.Sprintf("Successfully migrated %d articles to cloud storage!", r.Migrated)
}

// Migrator moves the legacy local snapshot into the document backend once.
type Migrator struct {
	KV      kv.Store
	Backend Backend
	Posts   *PostStore
	Log     *zap.Logger
	Timeout time.Duration
	Now     func() time.Time

	running sync.Mutex
}

func NewMigrator(store kv.Store, backend Backend, posts *PostStore, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{KV: store, Backend: backend, Posts: posts, Log: log, Timeout: 10 * time.Second, Now: time.Now}
}

// MigrateLegacy is safe to call on every startup: it does nothing once the
// record says done or when there is no snapshot. A call made while another
// is still running returns immediately.
func (m *Migrator) MigrateLegacy(ctx context.Context) (MigrationReport, error) {
	if !m.running.TryLock() {
		return MigrationReport{Reason: "migration already in progress"}, nil
	}
	defer m.running.Unlock()

	rec, err := m.readRecord(ctx)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("%w: reading record: %w", ErrMigration, err)
	}
	if rec.Done {
		return MigrationReport{Reason: "already migrated"}, nil
	}

	raw, found, err := m.KV.Get(ctx, LegacySnapshotKey)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("%w: reading snapshot: %w", ErrMigration, err)
	}
	var legacy []domain.Post
	if found && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &legacy); err != nil {
			m.Log.Error("migration error", zap.Error(err))
			return MigrationReport{}, fmt.Errorf("%w: decoding snapshot: %w", ErrMigration, err)
		}
	}
	if len(legacy) == 0 {
		if err := m.finish(ctx, rec, found); err != nil {
			return MigrationReport{}, err
		}
		return MigrationReport{Reason: "no legacy snapshot"}, nil
	}

	m.Log.Info("migrating articles from local storage", zap.Int("count", len(legacy)))
	done := make(map[string]bool, len(rec.Uploaded))
	for _, k := range rec.Uploaded {
		done[k] = true
	}
	report := MigrationReport{Ran: true}
	for _, p := range legacy {
		key := legacyKey(p)
		if done[key] {
			report.Skipped++
			continue
		}
		p.ID = ""
		p.EnsureSlug()
		if err := m.insert(ctx, p); err != nil {
			m.Log.Error("migration error", zap.String("title", p.Title), zap.Error(err))
			if serr := m.writeRecord(ctx, rec); serr != nil {
				m.Log.Error("saving migration progress", zap.Error(serr))
			}
			return report, fmt.Errorf("%w: uploaded %d of %d: %w", ErrMigration, report.Migrated, len(legacy), err)
		}
		report.Migrated++
		rec.Uploaded = append(rec.Uploaded, key)
		done[key] = true
		if err := m.writeRecord(ctx, rec); err != nil {
			m.Log.Warn("saving migration progress", zap.Error(err))
		}
	}

	_, loadErr := m.Posts.Load(ctx)
	rec.Migrated += report.Migrated
	if err := m.finish(ctx, rec, true); err != nil {
		return report, err
	}
	m.Log.Info("migration complete", zap.Int("migrated", report.Migrated), zap.Int("skipped", report.Skipped))
	return report, loadErr
}

func (m *Migrator) insert(ctx context.Context, p domain.Post) error {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	_, err := m.Backend.Insert(ctx, p)
	return err
}

// finish marks the record done and clears the snapshot.
func (m *Migrator) finish(ctx context.Context, rec MigrationRecord, clearSnapshot bool) error {
	rec.Done = true
	rec.Uploaded = nil
	rec.CompletedAt = m.Now().UTC()
	if err := m.writeRecord(ctx, rec); err != nil {
		return fmt.Errorf("%w: writing record: %w", ErrMigration, err)
	}
	if clearSnapshot {
		if err := m.KV.Delete(ctx, LegacySnapshotKey); err != nil {
			m.Log.Warn("clearing legacy snapshot", zap.Error(err))
		}
	}
	return nil
}

func (m *Migrator) readRecord(ctx context.Context) (MigrationRecord, error) {
	rec := MigrationRecord{Version: legacyMigrationVersion, Key: legacyMigrationKey}
	raw, found, err := m.KV.Get(ctx, MigrationFlagKey)
	if err != nil || !found {
		return rec, err
	}
	raw = bytes.TrimSpace(raw)
	// the first revision stored a bare "true"
	if bytes.Equal(raw, []byte("true")) || bytes.Equal(raw, []byte(`"true"`)) {
		rec.Done = true
		return rec, nil
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, err
	}
	if rec.Key != legacyMigrationKey || rec.Version < legacyMigrationVersion {
		return MigrationRecord{Version: legacyMigrationVersion, Key: legacyMigrationKey}, nil
	}
	return rec, nil
}

func (m *Migrator) writeRecord(ctx context.Context, rec MigrationRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.KV.Set(ctx, MigrationFlagKey, raw)
}

func legacyKey(p domain.Post) string {
	if p.ID != "" {
		return p.ID
	}
	return domain.Slug(p.Title) + "|" + p.Date
}
