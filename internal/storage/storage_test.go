package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/park285/numguess/internal/domain"
)

func sampleProfile(id string) *domain.Profile {
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	p := domain.NewProfile(id, ts)
	p.Name = "Ada"
	p.Avatar = "owl"
	p.Stats.GamesPlayed = 3
	p.Stats.GamesWon = 2
	p.Stats.CurrentStreak = 1
	p.Stats.BestStreak = 2
	p.Stats.TotalGuesses = 9
	p.Stats.CorrectGuesses = 2
	p.Stats.HighScores["medium"] = 840
	p.Stats.AvgGuessSeconds = 4.5
	p.Stats.BestTime = 12 * time.Second
	p.Achievements = []string{"first_win"}
	p.History = []domain.RoundRecord{{
		ID:           "r1",
		Difficulty:   "medium",
		Mode:         "classic",
		Target:       7,
		AttemptsUsed: 3,
		Guesses:      []int{3, 10, 7},
		Won:          true,
		Score:        840,
		Elapsed:      12 * time.Second,
		PlayedAt:     ts,
	}}
	return p
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	fresh, err := repo.Load(ctx, "nobody")
	if err != nil {
		t.Fatalf("Load unknown: %v", err)
	}
	if fresh.ID != "nobody" || fresh.Name != domain.DefaultPlayerName || fresh.Stats.GamesPlayed != 0 {
		t.Fatalf("unexpected default profile: %+v", fresh)
	}
	if fresh.Stats.HighScores == nil {
		t.Fatalf("default profile must carry an empty high score map")
	}

	want := sampleProfile("p1")
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	got.Stats.GamesPlayed = 4
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	again, err := repo.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load overwrite: %v", err)
	}
	if again.Stats.GamesPlayed != 4 {
		t.Fatalf("expected overwrite to persist, got %d", again.Stats.GamesPlayed)
	}

	if err := repo.Save(ctx, nil); err != ErrNilProfile {
		t.Fatalf("expected ErrNilProfile, got %v", err)
	}
	if _, err := repo.Load(ctx, "  "); err != ErrEmptyID {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepositoryIsolatesCallers(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	p := sampleProfile("p1")
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p.Stats.HighScores["medium"] = 1
	got, _ := repo.Load(ctx, "p1")
	if got.Stats.HighScores["medium"] != 840 {
		t.Fatalf("stored profile aliased caller map")
	}
}

func TestFileRepository(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	exerciseRepository(t, repo)
}

func TestFileRepositorySanitizesID(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	p := sampleProfile("../../etc/passwd")
	if err := repo.Save(context.Background(), p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one profile file in data dir, got %d", len(entries))
	}
}

func TestFileRepositoryFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	legacy := `{"name": "", "stats": {"games_played": 2, "games_won": 5, "total_guesses": 4, "correct_guesses": 1}}`
	if err := os.WriteFile(filepath.Join(dir, "profile_old.json"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, err := repo.Load(context.Background(), "old")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ID != "old" || p.Name != domain.DefaultPlayerName || p.Avatar != domain.DefaultAvatar {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if p.Stats.GamesWon != 2 {
		t.Fatalf("games won should be clamped to games played, got %d", p.Stats.GamesWon)
	}
	if p.Stats.HighScores == nil || p.Achievements == nil || p.History == nil {
		t.Fatalf("nil collections after normalize: %+v", p)
	}
}

func TestFileRepositoryRejectsCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "profile_bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := repo.Load(context.Background(), "bad"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	exerciseRepository(t, NewRedisStore(rdb, 0))
	if !mr.Exists(redisKeyPrefix + "p1") {
		t.Fatalf("expected key %s", redisKeyPrefix+"p1")
	}
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisStore(rdb, time.Hour)
	if err := store.Save(context.Background(), sampleProfile("p1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(redisKeyPrefix + "p1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
	mr.FastForward(2 * time.Hour)
	p, err := store.Load(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Stats.GamesPlayed != 0 {
		t.Fatalf("expected expired profile to reset, got %+v", p.Stats)
	}
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("NUMGUESS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("NUMGUESS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM guess_profiles WHERE id IN ('p1', 'nobody')`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	exerciseRepository(t, repo)
}

func TestNormalizeNil(t *testing.T) {
	now := time.Now()
	p := Normalize(nil, "x", now)
	if p.ID != "x" || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestNormalizeTrimsHistory(t *testing.T) {
	p := &domain.Profile{ID: "x"}
	for i := 0; i < 130; i++ {
		p.History = append(p.History, domain.RoundRecord{Target: i})
	}
	Normalize(p, "x", time.Now())
	if len(p.History) != 100 || p.History[0].Target != 30 {
		t.Fatalf("expected last 100 records, got %d starting at %d", len(p.History), p.History[0].Target)
	}
}
