package services

import (
	"math/rand"
	"testing"
)

func TestPickClearWinner(t *testing.T) {
	router := NewRouter(DefaultProfiles(), KeywordScorer{}, rand.New(rand.NewSource(1)))

	tests := []struct {
		prompt string
		want   string
	}{
		{"debug this function and fix the sql query in my code", "gemini-2.5-flash"},
		{"write a creative story, almost a poem, and analyze its themes", "claude-sonnet-4"},
		{"summarize and translate this email, then rewrite it", "gpt-5-nano"},
	}
	for _, tt := range tests {
		if got := router.Pick(tt.prompt); got != tt.want {
			t.Errorf("Pick(%q) = %q, want %q", tt.prompt, got, tt.want)
		}
	}
}

func TestPickTieBreakIsSeeded(t *testing.T) {
	profiles := []ModelProfile{
		{Name: "left", Base: 1.0},
		{Name: "right", Base: 1.0},
	}

	// Same seed, same sequence of coin flips.
	a := NewRouter(profiles, KeywordScorer{}, rand.New(rand.NewSource(42)))
	b := NewRouter(profiles, KeywordScorer{}, rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		pa, pb := a.Pick("anything"), b.Pick("anything")
		if pa != pb {
			t.Fatalf("flip %d diverged: %q vs %q", i, pa, pb)
		}
	}

	// Over enough flips both sides must show up.
	seen := map[string]bool{}
	r := NewRouter(profiles, KeywordScorer{}, rand.New(rand.NewSource(7)))
	for i := 0; i < 50; i++ {
		seen[r.Pick("anything")] = true
	}
	if !seen["left"] || !seen["right"] {
		t.Errorf("tie break never alternated: %v", seen)
	}
}

func TestPickNoTieBreakOutsideMargin(t *testing.T) {
	profiles := []ModelProfile{
		{Name: "strong", Base: 2.0},
		{Name: "weak", Base: 1.0},
	}
	r := NewRouter(profiles, KeywordScorer{}, rand.New(rand.NewSource(3)))
	for i := 0; i < 20; i++ {
		if got := r.Pick("anything"); got != "strong" {
			t.Fatalf("Pick() = %q, want the clear leader", got)
		}
	}
}

func TestPickEmptyProfiles(t *testing.T) {
	r := NewRouter(nil, KeywordScorer{}, rand.New(rand.NewSource(1)))
	if got := r.Pick("anything"); got != "" {
		t.Errorf("Pick() with no profiles = %q, want empty", got)
	}
}

func TestKeywordScorer(t *testing.T) {
	profile := ModelProfile{Name: "m", Keywords: []string{"code", "sql"}, Base: 0.5}
	s := KeywordScorer{}

	if got := s.Score("no hits here", profile); got != 0.5 {
		t.Errorf("base-only score = %v, want 0.5", got)
	}
	if got := s.Score("Fix my CODE and the SQL", profile); got != 2.5 {
		t.Errorf("two-hit score = %v, want 2.5", got)
	}
}
