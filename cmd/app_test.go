package cmd

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"tasublog/config"
	"tasublog/store"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Env = config.DevEnv
	cfg.KVDriver = "memory"
	cfg.DBURL = ":memory:"
	cfg.JWTSecret = "test"
	cfg.AdminPassword = "secret"
	return cfg
}

func TestStartupMigratesLegacySnapshot(t *testing.T) {
	a, err := newApp(testConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	legacy := `[{"id":"1700000000000","title":"From Local","content":"body","tags":["old"],"date":"Nov 14, 2023"}]`
	if err := a.kv.Set(ctx, store.LegacySnapshotKey, []byte(legacy)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	notice := a.startup(ctx)
	if notice != "Successfully migrated 1 articles to cloud storage!" {
		t.Fatalf("notice = %q", notice)
	}
	p, ok := a.posts.Find("from-local")
	if !ok {
		t.Fatal("migrated post not found by slug")
	}
	if p.ID == "1700000000000" {
		t.Errorf("legacy id was kept")
	}

	if notice := a.startup(ctx); notice != "" {
		t.Errorf("second startup notice = %q, want none", notice)
	}
	if n := len(a.posts.Snapshot()); n != 1 {
		t.Errorf("posts = %d, want 1", n)
	}
}

func TestStartupLocalBackendSkipsMigration(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = "local"
	a, err := newApp(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	legacy := `[{"id":"1","title":"Kept Here","content":"body","date":"Nov 14, 2023"}]`
	if err := a.kv.Set(ctx, store.LegacySnapshotKey, []byte(legacy)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if notice := a.startup(ctx); notice != "" {
		t.Errorf("notice = %q", notice)
	}
	if _, ok := a.posts.Find("kept-here"); !ok {
		t.Error("local backend should read the snapshot in place")
	}
}

func TestHandlerFromConfig(t *testing.T) {
	a, err := newApp(testConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()
	h, err := a.handler()
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if h.JWTSecret != "test" || len(h.PasswordHash) == 0 {
		t.Errorf("handler = %+v", h)
	}
}
