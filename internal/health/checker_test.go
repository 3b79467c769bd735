package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dayquest/dayquest/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	db := newTestDB(t)

	c := NewChecker(db, t.TempDir(), nil)
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 2 {
		t.Errorf("checks = %d, want 2", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	db := newTestDB(t)

	c := NewChecker(db, t.TempDir(), nil)
	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("Statuses() = %d, want 2", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, t.TempDir(), nil)

	// No statuses yet: vacuously healthy
	if !c.IsHealthy() {
		t.Error("IsHealthy() before first run should be true")
	}
}

func TestChecker_SQLiteClosed(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	c := NewChecker(db, t.TempDir(), nil)
	db.Close()

	c.runAll(context.Background())
	for _, s := range c.Statuses() {
		if s.Name == "sqlite" && s.Healthy {
			t.Error("sqlite check should fail on a closed database")
		}
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false")
	}
}

func TestChecker_DataDirRecovers(t *testing.T) {
	db := newTestDB(t)
	dataDir := filepath.Join(t.TempDir(), "missing")

	c := NewChecker(db, dataDir, nil)
	c.runAll(context.Background())
	if c.IsHealthy() {
		t.Fatal("missing data dir should be unhealthy")
	}

	// Recovery recreated the directory; the next run passes
	if _, err := os.Stat(dataDir); err != nil {
		t.Fatalf("recovery should create the dir: %v", err)
	}
	c.runAll(context.Background())
	if !c.IsHealthy() {
		t.Errorf("after recovery: %+v", c.Statuses())
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	os.WriteFile(path, []byte("x"), 0644)

	if err := checkWritable(path); err == nil {
		t.Error("a plain file should not pass the data dir check")
	}
}

func TestChecker_CustomCheck(t *testing.T) {
	c := &Checker{}
	c.AddCheck(Check{
		Name: "always_pass",
		CheckFn: func(ctx context.Context) error {
			return nil
		},
	})

	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if !statuses[0].Healthy {
		t.Error("always_pass check should be healthy")
	}
}

func TestChecker_FailingCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_fail",
				CheckFn: func(ctx context.Context) error {
					return os.ErrPermission
				},
			},
		},
	}

	c.runAll(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, t.TempDir(), nil)
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()

	// Verify it's a copy, not the same slice
	if len(s1) > 0 {
		s1[0].Healthy = false
		if !s2[0].Healthy {
			t.Error("Statuses() should return a copy, not a reference")
		}
	}
}
