package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tasublog/config"
	"tasublog/handler"
	"tasublog/kv"
	"tasublog/store"
	"tasublog/view"
)

// app is everything one process needs, built from config.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	kv       kv.Store
	backend  store.Backend
	posts    *store.PostStore
	migrator *store.Migrator
	closers  []func() error
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	switch cfg.KVDriver {
	case "memory":
		a.kv = kv.NewMemoryStore()
	case "redis":
		rs := kv.NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, "tasublog:")
		a.kv = rs
		a.closers = append(a.closers, rs.Close)
	default:
		fs, err := kv.NewFileStore(cfg.KVPath)
		if err != nil {
			return nil, fmt.Errorf("opening key-value file: %w", err)
		}
		a.kv = fs
	}

	switch cfg.Backend {
	case "local":
		a.backend = store.NewLocalBackend(a.kv)
	default:
		db, err := store.OpenSQLite(cfg.DBURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening document store: %w", err)
		}
		a.backend = db
		a.closers = append(a.closers, db.Close)
	}

	a.posts = store.NewPostStore(a.backend,
		store.WithLogger(log.Named("posts")),
		store.WithTimeout(cfg.BackendTimeout),
		store.WithLoadAttempts(cfg.LoadAttempts),
	)
	a.migrator = store.NewMigrator(a.kv, a.backend, a.posts, log.Named("migrate"))
	return a, nil
}

// startup loads the collection and then runs the legacy migration, the
// same order a page load follows. Failures become notices, not exits.
func (a *app) startup(ctx context.Context) string {
	if _, err := a.posts.Load(ctx); err != nil {
		a.log.Error("loading articles", zap.Error(err))
		return store.Notice(err)
	}
	if a.cfg.Backend == "local" {
		return ""
	}
	report, err := a.migrator.MigrateLegacy(ctx)
	if err != nil {
		a.log.Error("legacy migration failed", zap.Int("migrated", report.Migrated), zap.Error(err))
		return store.Notice(err)
	}
	if report.Ran {
		a.log.Info("legacy migration finished", zap.Int("migrated", report.Migrated), zap.Int("skipped", report.Skipped))
	} else {
		a.log.Debug("legacy migration skipped", zap.String("reason", report.Reason))
	}
	return report.Notice()
}

func (a *app) handler() (*handler.Handler, error) {
	md, err := view.NewMarkdown(a.cfg.Markdown)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	return &handler.Handler{
		Posts:        a.posts,
		Markdown:     md,
		Site:         a.cfg.Site(),
		JWTSecret:    a.cfg.JWTSecret,
		PasswordHash: hash,
		Environment:  a.cfg.Env,
		Log:          a.log.Named("http"),
	}, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
