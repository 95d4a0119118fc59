package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/contribot/contribot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetUserMissing(t *testing.T) {
	s := newTestStore(t)

	user, err := s.GetUser(42)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestUpsertUserLastWriteWins(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(1, "tg", "alice", "token-1"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertUser(1, "tg", "alice2", "token-2"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	user, err := s.GetUser(1)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user == nil {
		t.Fatal("user not found after upsert")
	}
	if user.GithubUsername != "alice2" || user.GithubToken != "token-2" {
		t.Fatalf("got %q/%q, want alice2/token-2", user.GithubUsername, user.GithubToken)
	}
	if user.LastNotifiedAt != nil {
		t.Fatal("fresh user should have no last-notified time")
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}
}

func TestTouchLastNotified(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(7, "", "carol", "tok"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	when := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := s.TouchLastNotified(7, when); err != nil {
		t.Fatalf("TouchLastNotified: %v", err)
	}

	user, err := s.GetUser(7)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.LastNotifiedAt == nil || !user.LastNotifiedAt.Equal(when) {
		t.Fatalf("last notified = %v, want %v", user.LastNotifiedAt, when)
	}
}

func TestRandomTemplateScopedToCategory(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertTemplate(models.CategoryGentle, "keep going"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTemplate(models.CategoryHarsh, "code now"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	for i := 0; i < 10; i++ {
		tmpl, err := s.RandomTemplate(models.CategoryGentle)
		if err != nil {
			t.Fatalf("RandomTemplate: %v", err)
		}
		if tmpl == nil || tmpl.Message != "keep going" {
			t.Fatalf("got %+v, want the gentle template", tmpl)
		}
	}

	tmpl, err := s.RandomTemplate(models.CategoryMedium)
	if err != nil {
		t.Fatalf("RandomTemplate: %v", err)
	}
	if tmpl != nil {
		t.Fatalf("expected nil for empty category, got %+v", tmpl)
	}
}

func TestAdjustRatingGoesNegative(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertTemplate(models.CategoryGentle, "msg"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	tmpl, err := s.RandomTemplate(models.CategoryGentle)
	if err != nil || tmpl == nil {
		t.Fatalf("pick template: %v %v", tmpl, err)
	}
	if tmpl.Rating != 0 {
		t.Fatalf("initial rating = %d, want 0", tmpl.Rating)
	}

	for i := 0; i < 3; i++ {
		if err := s.AdjustRating(tmpl.ID, -1); err != nil {
			t.Fatalf("AdjustRating: %v", err)
		}
	}
	tmpl, err = s.RandomTemplate(models.CategoryGentle)
	if err != nil {
		t.Fatalf("pick template: %v", err)
	}
	if tmpl.Rating != -3 {
		t.Fatalf("rating = %d, want -3", tmpl.Rating)
	}
}

func TestPruneLowestRated(t *testing.T) {
	s := newTestStore(t)

	// 20 templates rated 0..19; floor(20*0.15) = 3 should go.
	for i := 0; i < 20; i++ {
		if err := s.InsertTemplate(models.CategoryGentle, "msg"); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	for i := 0; i < 20; i++ {
		if err := s.AdjustRating(int64(i+1), i); err != nil {
			t.Fatalf("rate %d: %v", i, err)
		}
	}

	removed, err := s.PruneLowestRated(0.15)
	if err != nil {
		t.Fatalf("PruneLowestRated: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed %d rows, want 3", removed)
	}

	count, err := s.CountTemplates(models.CategoryGentle)
	if err != nil {
		t.Fatalf("CountTemplates: %v", err)
	}
	if count != 17 {
		t.Fatalf("count = %d, want 17", count)
	}

	// The survivors must all outrank every removed row (ratings 0, 1, 2).
	for i := 0; i < 40; i++ {
		tmpl, err := s.RandomTemplate(models.CategoryGentle)
		if err != nil {
			t.Fatalf("RandomTemplate: %v", err)
		}
		if tmpl.Rating < 3 {
			t.Fatalf("template with rating %d survived the prune", tmpl.Rating)
		}
	}
}

func TestPruneFewTemplatesIsNoop(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.InsertTemplate(models.CategoryHarsh, "msg"); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	// floor(5*0.15) = 0: nothing may be deleted.
	removed, err := s.PruneLowestRated(0.15)
	if err != nil {
		t.Fatalf("PruneLowestRated: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed %d rows, want 0", removed)
	}
}
