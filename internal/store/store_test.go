package store

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAPIKeyLifecycle(t *testing.T) {
	s := openTestStore(t)

	key, err := s.APIKey()
	if err != nil {
		t.Fatalf("APIKey on empty store: %v", err)
	}
	if key != "" {
		t.Errorf("empty store returned key %q", key)
	}

	if err := s.SaveAPIKey("sk-first"); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
	// Overwrite: single fixed slot, last write wins.
	if err := s.SaveAPIKey("sk-second"); err != nil {
		t.Fatalf("SaveAPIKey overwrite: %v", err)
	}

	key, err = s.APIKey()
	if err != nil {
		t.Fatal(err)
	}
	if key != "sk-second" {
		t.Errorf("key = %q, want sk-second", key)
	}

	if err := s.ClearAPIKey(); err != nil {
		t.Fatalf("ClearAPIKey: %v", err)
	}
	key, _ = s.APIKey()
	if key != "" {
		t.Errorf("key survives clear: %q", key)
	}
}

func TestRunHistory(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		err := s.SaveRun(RunRecord{
			ID:          string(rune('a' + i)),
			Subreddit:   "grillsgonewild",
			Limit:       5,
			HumanReview: i%2 == 0,
			Processed:   i,
			Started:     base,
			Finished:    base.Add(time.Duration(i) * time.Minute),
			Outcome:     "complete",
		})
		if err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}

	runs, err := s.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].Processed != 2 {
		t.Errorf("newest run first: processed = %d, want 2", runs[0].Processed)
	}
	if !runs[0].HumanReview {
		t.Errorf("human_review flag lost on round trip")
	}
}
