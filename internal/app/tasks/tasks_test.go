package tasks_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dayquest/dayquest/internal/app/tasks"
	"github.com/dayquest/dayquest/internal/domain"
	"github.com/dayquest/dayquest/internal/infra/sqlite"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func setup(t *testing.T, loc *time.Location) (*tasks.Service, *sqlite.DB, *fakeClock) {
	t.Helper()
	db := testDB(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := db.InsertUser(context.Background(), domain.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		DayStartTime: "09:00:00",
		CreatedAt:    created,
		UpdatedAt:    created,
	}); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	clock := &fakeClock{now: created}
	svc := tasks.NewService(db, loc, nil)
	svc.SetClock(clock.Now)
	return svc, db, clock
}

func utc(s string) time.Time {
	ts, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return ts
}

func mustCreate(t *testing.T, svc *tasks.Service, d domain.Difficulty) domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), "u1", tasks.CreateInput{Title: "write report", Difficulty: d})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return task
}

func assertLedgerMatches(t *testing.T, db *sqlite.DB, userID string) {
	t.Helper()
	ctx := context.Background()
	user, err := db.UserByID(ctx, userID)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	sum, err := db.LedgerSum(ctx, userID)
	if err != nil {
		t.Fatalf("ledger sum: %v", err)
	}
	if sum != user.TotalPoints {
		t.Errorf("ledger sum %d != total points %d", sum, user.TotalPoints)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Create & Update
// ═══════════════════════════════════════════════════════════════════════════

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := setup(t, time.UTC)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: "  ", Difficulty: domain.DifficultyEasy}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("blank title: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", tasks.CreateInput{Title: "x", Difficulty: "epic"}); !errors.Is(err, domain.ErrUnknownDifficulty) {
		t.Errorf("bad difficulty: expected ErrUnknownDifficulty, got %v", err)
	}

	task := mustCreate(t, svc, domain.DifficultyEasy)
	if task.Status != domain.TaskPending || task.PointsEarned != 0 || task.CompletedAt != nil {
		t.Errorf("new task not pending: %+v", task)
	}
}

func TestUpdate_OnlyPending(t *testing.T) {
	svc, _, clock := setup(t, time.UTC)
	ctx := context.Background()
	task := mustCreate(t, svc, domain.DifficultyEasy)

	title := "rewritten"
	hard := domain.DifficultyDifficult
	got, err := svc.Update(ctx, "u1", task.ID, tasks.UpdateInput{Title: &title, Difficulty: &hard})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "rewritten" || got.Difficulty != domain.DifficultyDifficult {
		t.Errorf("update not applied: %+v", got)
	}

	clock.Set(utc("2024-01-02T09:10"))
	if _, err := svc.Complete(ctx, "u1", task.ID, "done"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err = svc.Update(ctx, "u1", task.ID, tasks.UpdateInput{Title: &title})
	if !errors.Is(err, domain.ErrTaskNotPending) {
		t.Errorf("expected ErrTaskNotPending, got %v", err)
	}
}

func TestUpdate_UnknownTask(t *testing.T) {
	svc, _, _ := setup(t, time.UTC)
	title := "x"
	_, err := svc.Update(context.Background(), "u1", "missing", tasks.UpdateInput{Title: &title})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Complete
// ═══════════════════════════════════════════════════════════════════════════

func TestComplete_AwardsPointsAndStreak(t *testing.T) {
	svc, db, clock := setup(t, time.UTC)
	ctx := context.Background()

	first := mustCreate(t, svc, domain.DifficultyMedium)
	clock.Set(utc("2024-01-02T09:01"))
	c, err := svc.Complete(ctx, "u1", first.ID, "  quick win  ")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.PointsEarned != 70 {
		t.Errorf("points = %d, want 70", c.PointsEarned)
	}
	if c.Task.Reflection != "quick win" || c.Task.Status != domain.TaskCompleted {
		t.Errorf("task = %+v", c.Task)
	}
	if c.User.TotalPoints != 70 || c.User.CurrentStreak != 1 || c.User.MaxStreak != 1 {
		t.Errorf("user = %+v", c.User)
	}

	second := mustCreate(t, svc, domain.DifficultyDifficult)
	clock.Set(utc("2024-01-03T13:00"))
	c, err = svc.Complete(ctx, "u1", second.ID, "hard one")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.PointsEarned != 25 {
		t.Errorf("points = %d, want 25", c.PointsEarned)
	}
	if c.User.TotalPoints != 95 || c.User.CurrentStreak != 2 || c.User.MaxStreak != 2 {
		t.Errorf("user = %+v", c.User)
	}
	if c.User.LastTaskDate == nil || c.User.LastTaskDate.String() != "2024-01-03" {
		t.Errorf("LastTaskDate = %v", c.User.LastTaskDate)
	}

	stored, _ := db.TaskByID(ctx, "u1", second.ID)
	if stored.PointsEarned != 25 || !stored.CompletedAt.Equal(utc("2024-01-03T13:00")) {
		t.Errorf("stored task = %+v", stored)
	}
	assertLedgerMatches(t, db, "u1")
}

func TestComplete_BeforeDayStartUsesPreviousDay(t *testing.T) {
	svc, _, clock := setup(t, time.UTC)
	task := mustCreate(t, svc, domain.DifficultyEasy)

	clock.Set(utc("2024-01-02T07:00"))
	c, err := svc.Complete(context.Background(), "u1", task.ID, "late night")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.PointsEarned != 2 {
		t.Errorf("points = %d, want 2", c.PointsEarned)
	}
}

func TestComplete_UsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	svc, _, clock := setup(t, loc)
	task := mustCreate(t, svc, domain.DifficultyEasy)

	// 02:00 UTC on the 3rd is 21:00 on the 2nd locally: 12h after 09:00
	clock.Set(utc("2024-01-03T02:00"))
	c, err := svc.Complete(context.Background(), "u1", task.ID, "evening")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.PointsEarned != 4 {
		t.Errorf("points = %d, want 4", c.PointsEarned)
	}
	if c.User.LastTaskDate.String() != "2024-01-02" {
		t.Errorf("LastTaskDate = %s, want 2024-01-02", c.User.LastTaskDate)
	}
}

func TestComplete_AfterTimezoneMovesWest(t *testing.T) {
	svc, db, clock := setup(t, time.UTC)
	ctx := context.Background()
	first := mustCreate(t, svc, domain.DifficultyEasy)
	second := mustCreate(t, svc, domain.DifficultyEasy)

	// 02:00 UTC on the 3rd is stored as a 2024-01-03 completion
	clock.Set(utc("2024-01-03T02:00"))
	if _, err := svc.Complete(ctx, "u1", first.ID, "late night"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	west := tasks.NewService(db, time.FixedZone("UTC-5", -5*60*60), nil)
	west.SetClock(clock.Now)
	clock.Set(utc("2024-01-03T03:00"))
	c, err := west.Complete(ctx, "u1", second.ID, "still the 2nd here")
	if err != nil {
		t.Fatalf("complete after timezone change: %v", err)
	}
	if c.User.LastTaskDate.String() != "2024-01-02" || c.User.CurrentStreak != 1 {
		t.Errorf("streak = %d on %s, want 1 on 2024-01-02", c.User.CurrentStreak, c.User.LastTaskDate)
	}
	assertLedgerMatches(t, db, "u1")
}

func TestComplete_RejectsRepeatAndMissingReflection(t *testing.T) {
	svc, db, clock := setup(t, time.UTC)
	ctx := context.Background()
	task := mustCreate(t, svc, domain.DifficultyEasy)
	clock.Set(utc("2024-01-02T10:00"))

	if _, err := svc.Complete(ctx, "u1", task.ID, " "); !errors.Is(err, domain.ErrReflectionRequired) {
		t.Errorf("expected ErrReflectionRequired, got %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", task.ID, "ok"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	clock.Set(utc("2024-01-02T15:00"))
	_, err := svc.Complete(ctx, "u1", task.ID, "again")
	if !errors.Is(err, domain.ErrTaskAlreadyCompleted) {
		t.Errorf("expected ErrTaskAlreadyCompleted, got %v", err)
	}
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Errorf("ErrTaskAlreadyCompleted should wrap ErrPreconditionFailed")
	}

	user, _ := db.UserByID(ctx, "u1")
	if user.TotalPoints != 50 {
		t.Errorf("total = %d, want 50 (points awarded once)", user.TotalPoints)
	}
}

func TestComplete_ConcurrentAwardsOnce(t *testing.T) {
	svc, db, clock := setup(t, time.UTC)
	ctx := context.Background()
	task := mustCreate(t, svc, domain.DifficultyDifficult)
	clock.Set(utc("2024-01-02T09:30"))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Complete(ctx, "u1", task.ID, "race"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	user, _ := db.UserByID(ctx, "u1")
	if user.TotalPoints != 100 {
		t.Errorf("total = %d, want 100", user.TotalPoints)
	}
	assertLedgerMatches(t, db, "u1")
}

// ═══════════════════════════════════════════════════════════════════════════
// Delete
// ═══════════════════════════════════════════════════════════════════════════

func TestDelete_ReversesPointsAndStreak(t *testing.T) {
	svc, db, clock := setup(t, time.UTC)
	ctx := context.Background()

	day1 := mustCreate(t, svc, domain.DifficultyMedium)
	day2 := mustCreate(t, svc, domain.DifficultyDifficult)
	clock.Set(utc("2024-01-02T09:30"))
	svc.Complete(ctx, "u1", day1.ID, "one")
	clock.Set(utc("2024-01-03T13:00"))
	svc.Complete(ctx, "u1", day2.ID, "two")

	clock.Set(utc("2024-01-03T14:00"))
	d, err := svc.Delete(ctx, "u1", day2.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if d.PointsLost != 25 {
		t.Errorf("points lost = %d, want 25", d.PointsLost)
	}
	if d.User.TotalPoints != 70 || d.User.CurrentStreak != 1 || d.User.MaxStreak != 2 {
		t.Errorf("user = %+v", d.User)
	}
	if d.User.LastTaskDate == nil || d.User.LastTaskDate.String() != "2024-01-02" {
		t.Errorf("LastTaskDate = %v, want 2024-01-02", d.User.LastTaskDate)
	}

	d, err = svc.Delete(ctx, "u1", day1.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if d.User.TotalPoints != 0 || d.User.CurrentStreak != 0 || d.User.MaxStreak != 2 || d.User.LastTaskDate != nil {
		t.Errorf("user after deleting everything = %+v", d.User)
	}
	assertLedgerMatches(t, db, "u1")

	if _, err := svc.Delete(ctx, "u1", day1.ID); !errors.Is(err, domain.ErrTaskDeleted) {
		t.Errorf("expected ErrTaskDeleted, got %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", day1.ID, "zombie"); !errors.Is(err, domain.ErrTaskDeleted) {
		t.Errorf("expected ErrTaskDeleted, got %v", err)
	}
}

func TestDelete_ClearsCompletion(t *testing.T) {
	svc, _, clock := setup(t, time.UTC)
	ctx := context.Background()
	task := mustCreate(t, svc, domain.DifficultyMedium)

	clock.Set(utc("2024-01-02T09:30"))
	if _, err := svc.Complete(ctx, "u1", task.ID, "done"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.Delete(ctx, "u1", task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := svc.Get(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TaskDeleted || got.PointsEarned != 0 || got.CompletedAt != nil {
		t.Errorf("deleted task = status %s, points %d, completed_at %v",
			got.Status, got.PointsEarned, got.CompletedAt)
	}

	deleted, err := svc.List(ctx, "u1", "deleted")
	if err != nil {
		t.Fatalf("list deleted: %v", err)
	}
	if len(deleted) != 1 || deleted[0].PointsEarned != 0 || deleted[0].CompletedAt != nil {
		t.Errorf("deleted list = %+v", deleted)
	}
}

func TestDelete_OlderTaskKeepsStreak(t *testing.T) {
	svc, _, clock := setup(t, time.UTC)
	ctx := context.Background()

	a := mustCreate(t, svc, domain.DifficultyEasy)
	b := mustCreate(t, svc, domain.DifficultyEasy)
	clock.Set(utc("2024-01-02T09:30"))
	svc.Complete(ctx, "u1", a.ID, "a")
	clock.Set(utc("2024-01-03T09:30"))
	svc.Complete(ctx, "u1", b.ID, "b")

	d, err := svc.Delete(ctx, "u1", a.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if d.User.CurrentStreak != 2 || d.User.MaxStreak != 2 {
		t.Errorf("streak = %d/%d, want stored 2/2", d.User.CurrentStreak, d.User.MaxStreak)
	}
	if d.User.TotalPoints != 50 {
		t.Errorf("total = %d, want 50", d.User.TotalPoints)
	}
}

func TestDelete_PendingLosesNothing(t *testing.T) {
	svc, _, _ := setup(t, time.UTC)
	task := mustCreate(t, svc, domain.DifficultyEasy)

	d, err := svc.Delete(context.Background(), "u1", task.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if d.PointsLost != 0 || d.User.TotalPoints != 0 {
		t.Errorf("deletion = %+v", d)
	}

	list, _ := svc.List(context.Background(), "u1", "")
	if len(list) != 0 {
		t.Errorf("deleted task still listed: %+v", list)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Revision, Stats & Suggestions
// ═══════════════════════════════════════════════════════════════════════════

func TestReviseDifficulty(t *testing.T) {
	svc, db, clock := setup(t, time.UTC)
	ctx := context.Background()
	task := mustCreate(t, svc, domain.DifficultyEasy)

	clock.Set(utc("2024-01-02T13:00"))
	c, _ := svc.Complete(ctx, "u1", task.ID, "r")
	if c.PointsEarned != 13 {
		t.Fatalf("points = %d, want 13", c.PointsEarned)
	}

	clock.Set(utc("2024-01-05T10:00"))
	revised, err := svc.ReviseDifficulty(ctx, task.ID, domain.DifficultyDifficult)
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if revised.PointsEarned != 25 || revised.Difficulty != domain.DifficultyDifficult {
		t.Errorf("revised = %+v", revised)
	}
	user, _ := db.UserByID(ctx, "u1")
	if user.TotalPoints != 25 {
		t.Errorf("total = %d, want 25", user.TotalPoints)
	}
	assertLedgerMatches(t, db, "u1")

	pending := mustCreate(t, svc, domain.DifficultyEasy)
	if _, err := svc.ReviseDifficulty(ctx, pending.ID, domain.DifficultyMedium); !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Errorf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, _, clock := setup(t, time.UTC)
	ctx := context.Background()

	a := mustCreate(t, svc, domain.DifficultyMedium)
	b := mustCreate(t, svc, domain.DifficultyEasy)
	clock.Set(utc("2024-01-02T09:30"))
	svc.Complete(ctx, "u1", a.ID, "a")
	clock.Set(utc("2024-01-20T09:30"))
	svc.Complete(ctx, "u1", b.ID, "b")

	stats, err := svc.Stats(ctx, "u1", 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TasksCompleted != 1 || stats.TotalPoints != 50 || stats.PeriodDays != 7 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := svc.Stats(ctx, "u1", 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSuggestions_Defaults(t *testing.T) {
	svc, _, clock := setup(t, time.UTC)
	clock.Set(utc("2024-01-10T12:00"))

	got, err := svc.Suggestions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d suggestions, want 2 defaults", len(got))
	}
}

func TestList_BadStatus(t *testing.T) {
	svc, _, _ := setup(t, time.UTC)
	if _, err := svc.List(context.Background(), "u1", "archived"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
