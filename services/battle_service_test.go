package services

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"promptarena/models"
)

func TestNewBattleIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^\d+-[0-9a-f]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := newBattleID()
		if !pattern.MatchString(id) {
			t.Fatalf("newBattleID() = %q, want millis-hexsuffix", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Error("expected distinct ids across calls")
	}
}

func TestBattleExpired(t *testing.T) {
	now := time.Now()
	b := models.Battle{EndTime: now.Add(time.Minute)}
	if b.Expired(now) {
		t.Error("battle ending in the future must not be expired")
	}
	b.EndTime = now.Add(-time.Second)
	if !b.Expired(now) {
		t.Error("battle past its end time must be expired")
	}
}

func TestClassifyVoteFailure(t *testing.T) {
	now := time.Now()
	active := func() *models.Battle {
		return &models.Battle{
			IsActive:     true,
			EndTime:      now.Add(time.Hour),
			Participants: []string{"alice"},
		}
	}

	t.Run("already voted", func(t *testing.T) {
		if err := classifyVoteFailure(active(), "alice", now); !errors.Is(err, ErrAlreadyVoted) {
			t.Errorf("got %v, want ErrAlreadyVoted", err)
		}
	})

	t.Run("already voted wins over closed", func(t *testing.T) {
		b := active()
		b.IsActive = false
		if err := classifyVoteFailure(b, "alice", now); !errors.Is(err, ErrAlreadyVoted) {
			t.Errorf("got %v, want ErrAlreadyVoted", err)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		b := active()
		b.IsActive = false
		if err := classifyVoteFailure(b, "bob", now); !errors.Is(err, ErrBattleClosed) {
			t.Errorf("got %v, want ErrBattleClosed", err)
		}
	})

	t.Run("expired but still flagged active", func(t *testing.T) {
		b := active()
		b.EndTime = now.Add(-time.Minute)
		if err := classifyVoteFailure(b, "bob", now); !errors.Is(err, ErrBattleClosed) {
			t.Errorf("got %v, want ErrBattleClosed", err)
		}
	})

	t.Run("lost race", func(t *testing.T) {
		if err := classifyVoteFailure(active(), "bob", now); !errors.Is(err, ErrBattleClosed) {
			t.Errorf("got %v, want ErrBattleClosed", err)
		}
	})
}
