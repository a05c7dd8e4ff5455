package services

import (
	"math/rand"
	"strings"
	"sync"
)

// tieBreakMargin is how close the top two scores must be before the router
// flips a coin between them instead of always picking the leader.
const tieBreakMargin = 0.5

// ModelProfile describes one routable model: its identifier and the keywords
// that suggest a prompt plays to its strengths.
type ModelProfile struct {
	Name     string
	Keywords []string
	Base     float64
}

// Scorer rates how well a model profile fits a prompt. Higher is better.
type Scorer interface {
	Score(prompt string, profile ModelProfile) float64
}

// KeywordScorer counts keyword hits in the prompt, weighted by the profile's
// base score. Deliberately approximate.
type KeywordScorer struct{}

func (KeywordScorer) Score(prompt string, profile ModelProfile) float64 {
	lower := strings.ToLower(prompt)
	score := profile.Base
	for _, kw := range profile.Keywords {
		if strings.Contains(lower, kw) {
			score += 1.0
		}
	}
	return score
}

// Router picks a model for a prompt using a pluggable scorer. The randomized
// near-tie break keeps responses diverse; the rand source is injected so
// tests can seed it.
type Router struct {
	mu       sync.Mutex
	scorer   Scorer
	profiles []ModelProfile
	rng      *rand.Rand
}

func NewRouter(profiles []ModelProfile, scorer Scorer, rng *rand.Rand) *Router {
	return &Router{scorer: scorer, profiles: profiles, rng: rng}
}

// Pick returns the best-scoring model's name. When the top two scores are
// within tieBreakMargin of each other, the winner is chosen at random
// between them.
func (r *Router) Pick(prompt string) string {
	if len(r.profiles) == 0 {
		return ""
	}

	best, second := 0, -1
	bestScore, secondScore := r.scorer.Score(prompt, r.profiles[0]), 0.0
	for i := 1; i < len(r.profiles); i++ {
		s := r.scorer.Score(prompt, r.profiles[i])
		if s > bestScore {
			second, secondScore = best, bestScore
			best, bestScore = i, s
		} else if second == -1 || s > secondScore {
			second, secondScore = i, s
		}
	}

	if second >= 0 && bestScore-secondScore < tieBreakMargin {
		r.mu.Lock()
		flip := r.rng.Intn(2)
		r.mu.Unlock()
		if flip == 1 {
			return r.profiles[second].Name
		}
	}
	return r.profiles[best].Name
}

// DefaultProfiles is the fixed per-model keyword table the smart mode routes
// against.
func DefaultProfiles() []ModelProfile {
	return []ModelProfile{
		{
			Name:     "gpt-5-nano",
			Keywords: []string{"summarize", "explain", "translate", "email", "rewrite"},
			Base:     1.0,
		},
		{
			Name:     "claude-sonnet-4",
			Keywords: []string{"essay", "story", "creative", "poem", "analyze", "argue"},
			Base:     1.0,
		},
		{
			Name:     "gemini-2.5-flash",
			Keywords: []string{"code", "debug", "function", "algorithm", "sql", "regex"},
			Base:     1.0,
		},
		{
			Name:     "llama-3.3-70b",
			Keywords: []string{"math", "calculate", "proof", "logic", "solve"},
			Base:     0.5,
		},
		{
			Name:     "mistral-large",
			Keywords: []string{"list", "plan", "steps", "compare", "brainstorm"},
			Base:     0.5,
		},
	}
}
