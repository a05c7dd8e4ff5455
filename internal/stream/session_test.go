package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"promptarena/models"
)

type fakeProvider struct {
	mu       sync.Mutex
	chunks   map[string][]string
	errs     map[string]error
	delay    time.Duration
	audioURL string
	audioErr error
}

func (f *fakeProvider) StreamText(ctx context.Context, model, prompt string, onChunk func(string)) (string, error) {
	f.mu.Lock()
	chunks := f.chunks[model]
	err := f.errs[model]
	delay := f.delay
	f.mu.Unlock()

	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range chunks {
		if delay > 0 {
			time.Sleep(delay)
		}
		onChunk(c)
		b.WriteString(c)
	}
	return b.String(), nil
}

func (f *fakeProvider) GenerateAudio(ctx context.Context, prompt, voice string) (string, error) {
	return f.audioURL, f.audioErr
}

type savedChat struct {
	chatID   string
	title    string
	messages []models.ChatMessage
	mode     string
}

type fakeSaver struct {
	mu      sync.Mutex
	nextID  string
	creates []savedChat
	updates []savedChat
}

func (f *fakeSaver) Create(ctx context.Context, title string, messages []models.ChatMessage, mode, generationType string, modelNames []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, savedChat{chatID: f.nextID, title: title, messages: messages, mode: mode})
	return f.nextID, nil
}

func (f *fakeSaver) Update(ctx context.Context, chatID string, messages []models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, savedChat{chatID: chatID, messages: messages})
	return nil
}

func (f *fakeSaver) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates), len(f.updates)
}

type usageRecorder struct {
	mu    sync.Mutex
	calls []int64
}

func (u *usageRecorder) add(ctx context.Context, tokens int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, tokens)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func newTestSession(provider Provider, saver Saver, usage *usageRecorder) *Session {
	cfg := Config{
		Provider:  provider,
		Saver:     saver,
		SaveDelay: 30 * time.Millisecond,
	}
	if usage != nil {
		cfg.AddUsage = usage.add
	}
	return NewSession(cfg)
}

func TestSingleModeStreaming(t *testing.T) {
	provider := &fakeProvider{chunks: map[string][]string{"model-a": {"Hel", "lo ", "world"}}}
	saver := &fakeSaver{nextID: "chat-1"}
	usage := &usageRecorder{}
	s := newTestSession(provider, saver, usage)
	defer s.Close()
	s.SelectModels([]string{"model-a"})

	if err := s.Prompt(context.Background(), "say hello", models.TypeText, ""); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}

	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[0].Role != models.RoleUser || transcript[0].Content != "say hello" {
		t.Errorf("unexpected user message: %+v", transcript[0])
	}
	if transcript[1].Role != models.RoleAssistant || transcript[1].Content != "Hello world" {
		t.Errorf("unexpected assistant message: %+v", transcript[1])
	}
	if transcript[1].Model != "model-a" {
		t.Errorf("expected model-a, got %s", transcript[1].Model)
	}
	if got := s.LaneState("model-a"); got != LaneSettled {
		t.Errorf("expected settled lane, got %v", got)
	}
	if s.ChatID() != "chat-1" {
		t.Errorf("expected adopted chat id chat-1, got %q", s.ChatID())
	}

	waitFor(t, time.Second, func() bool {
		usage.mu.Lock()
		defer usage.mu.Unlock()
		return len(usage.calls) == 1
	})
	usage.mu.Lock()
	defer usage.mu.Unlock()
	if len(usage.calls) != 1 {
		t.Fatalf("expected 1 usage flush per turn, got %d", len(usage.calls))
	}
	want := EstimateTokens("say hello") + EstimateTokens("Hello world")
	if usage.calls[0] != want {
		t.Errorf("usage = %d, want %d", usage.calls[0], want)
	}
}

func TestCompareFanOut(t *testing.T) {
	provider := &fakeProvider{chunks: map[string][]string{
		"model-a": {"alpha"},
		"model-b": {"beta"},
		"model-c": {"gamma"},
	}}
	saver := &fakeSaver{nextID: "chat-2"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()

	if err := s.SetMode(models.ModeCompare); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	s.SelectModels([]string{"model-a", "model-b", "model-c"})

	if err := s.Prompt(context.Background(), "compare these", models.TypeText, ""); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}

	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	transcript := s.Transcript()
	if len(transcript) != 4 {
		t.Fatalf("expected 1 user + 3 assistant messages, got %d", len(transcript))
	}
	byModel := map[string]string{}
	for _, m := range transcript[1:] {
		byModel[m.Model] = m.Content
	}
	want := map[string]string{"model-a": "alpha", "model-b": "beta", "model-c": "gamma"}
	for model, content := range want {
		if byModel[model] != content {
			t.Errorf("model %s content = %q, want %q", model, byModel[model], content)
		}
	}
}

func TestCompareLaneCap(t *testing.T) {
	chunks := map[string][]string{}
	names := []string{"m1", "m2", "m3", "m4", "m5", "m6"}
	for _, n := range names {
		chunks[n] = []string{"x"}
	}
	provider := &fakeProvider{chunks: chunks}
	saver := &fakeSaver{nextID: "chat-3"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()

	s.SetMode(models.ModeCompare)
	s.SelectModels(names)

	if err := s.Prompt(context.Background(), "q", models.TypeText, ""); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	// The sixth selection is silently ignored.
	if got := len(s.Transcript()); got != 1+MaxCompareLanes {
		t.Errorf("expected %d messages, got %d", 1+MaxCompareLanes, got)
	}
	if got := s.LaneState("m6"); got != LaneIdle {
		t.Errorf("expected m6 lane idle, got %v", got)
	}
}

func TestErroredLaneGetsFixedMessage(t *testing.T) {
	provider := &fakeProvider{
		chunks: map[string][]string{"good": {"fine"}},
		errs:   map[string]error{"bad": errors.New("provider down")},
	}
	saver := &fakeSaver{nextID: "chat-4"}
	usage := &usageRecorder{}
	s := newTestSession(provider, saver, usage)
	defer s.Close()

	s.SetMode(models.ModeCompare)
	s.SelectModels([]string{"good", "bad"})

	if err := s.Prompt(context.Background(), "try", models.TypeText, ""); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	var badContent string
	for _, m := range s.Transcript() {
		if m.Model == "bad" {
			badContent = m.Content
		}
	}
	if badContent != generationErrorText {
		t.Errorf("errored lane content = %q, want fixed error text", badContent)
	}
	if got := s.LaneState("bad"); got != LaneIdle {
		t.Errorf("expected errored lane back to idle, got %v", got)
	}

	// Only the settled lane's text counts toward usage.
	waitFor(t, time.Second, func() bool {
		usage.mu.Lock()
		defer usage.mu.Unlock()
		return len(usage.calls) == 1
	})
	usage.mu.Lock()
	defer usage.mu.Unlock()
	if len(usage.calls) != 1 {
		t.Fatalf("expected 1 usage flush, got %d", len(usage.calls))
	}
	want := EstimateTokens("try") + EstimateTokens("fine")
	if usage.calls[0] != want {
		t.Errorf("usage = %d, want %d", usage.calls[0], want)
	}
}

func TestAudioBypassesStreaming(t *testing.T) {
	provider := &fakeProvider{audioURL: "https://audio.example/clip.mp3"}
	saver := &fakeSaver{nextID: "chat-5"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()

	if err := s.Prompt(context.Background(), "read this aloud", models.TypeAudio, "alloy"); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}

	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[1].AudioURL != "https://audio.example/clip.mp3" {
		t.Errorf("audioUrl = %q", transcript[1].AudioURL)
	}
	if transcript[1].Type != models.TypeAudio {
		t.Errorf("type = %q, want audio", transcript[1].Type)
	}
	if transcript[1].ImageURL != "" {
		t.Error("imageUrl must not be set on an audio message")
	}
}

func TestAudioDisabledInCompareMode(t *testing.T) {
	provider := &fakeProvider{audioURL: "https://audio.example/clip.mp3"}
	s := newTestSession(provider, &fakeSaver{}, nil)
	defer s.Close()

	s.SetMode(models.ModeCompare)
	err := s.Prompt(context.Background(), "read this", models.TypeAudio, "")
	if !errors.Is(err, ErrAudioInCompare) {
		t.Errorf("expected ErrAudioInCompare, got %v", err)
	}
	if len(s.Transcript()) != 0 {
		t.Error("rejected audio turn must not touch the transcript")
	}
}

func TestDebouncedSaveFiresOnce(t *testing.T) {
	provider := &fakeProvider{
		chunks: map[string][]string{"model-a": {"a", "b", "c", "d"}},
		delay:  5 * time.Millisecond,
	}
	saver := &fakeSaver{nextID: "chat-6"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()
	s.SelectModels([]string{"model-a"})

	if err := s.Prompt(context.Background(), "q", models.TypeText, ""); err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}

	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})
	// Let another debounce window pass; no further save should fire.
	time.Sleep(80 * time.Millisecond)
	creates, updates := saver.counts()
	if creates != 1 || updates != 0 {
		t.Errorf("saves = %d creates, %d updates; want exactly one create", creates, updates)
	}
}

func TestSecondTurnUpdatesSameChat(t *testing.T) {
	provider := &fakeProvider{chunks: map[string][]string{"model-a": {"one"}}}
	saver := &fakeSaver{nextID: "chat-7"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()
	s.SelectModels([]string{"model-a"})

	s.Prompt(context.Background(), "first", models.TypeText, "")
	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	s.Prompt(context.Background(), "second", models.TypeText, "")
	waitFor(t, time.Second, func() bool {
		_, u := saver.counts()
		return u == 1
	})

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if saver.updates[0].chatID != "chat-7" {
		t.Errorf("update keyed by %q, want the adopted id chat-7", saver.updates[0].chatID)
	}
	if len(saver.updates[0].messages) != 4 {
		t.Errorf("expected full 4-message transcript in update, got %d", len(saver.updates[0].messages))
	}
}

func TestModeSwitchDropsChatID(t *testing.T) {
	provider := &fakeProvider{chunks: map[string][]string{"model-a": {"one"}}}
	saver := &fakeSaver{nextID: "chat-8"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()
	s.SelectModels([]string{"model-a"})

	s.Prompt(context.Background(), "first", models.TypeText, "")
	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	s.SetMode(models.ModeCompare)
	if s.ChatID() != "" {
		t.Error("mode switch must drop the held chat id")
	}
}

func TestSmartModeUsesPicker(t *testing.T) {
	provider := &fakeProvider{chunks: map[string][]string{"picked-model": {"smart answer"}}}
	saver := &fakeSaver{nextID: "chat-9"}
	var pickedPrompt string
	s := NewSession(Config{
		Provider:  provider,
		Saver:     saver,
		SaveDelay: 30 * time.Millisecond,
		SmartPick: func(prompt string) string {
			pickedPrompt = prompt
			return "picked-model"
		},
	})
	defer s.Close()

	s.SetMode(models.ModeSmart)
	s.Prompt(context.Background(), "route me", models.TypeText, "")
	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	if pickedPrompt != "route me" {
		t.Errorf("picker saw %q, want the prompt", pickedPrompt)
	}
	transcript := s.Transcript()
	if transcript[1].Model != "picked-model" {
		t.Errorf("lane model = %q, want picked-model", transcript[1].Model)
	}
}

func TestClearDropsEverything(t *testing.T) {
	provider := &fakeProvider{chunks: map[string][]string{"model-a": {"one"}}}
	saver := &fakeSaver{nextID: "chat-10"}
	s := newTestSession(provider, saver, nil)
	defer s.Close()
	s.SelectModels([]string{"model-a"})

	s.Prompt(context.Background(), "first", models.TypeText, "")
	waitFor(t, time.Second, func() bool {
		c, _ := saver.counts()
		return c == 1
	})

	s.Clear()
	if len(s.Transcript()) != 0 || s.ChatID() != "" {
		t.Error("Clear must wipe the transcript and the chat id")
	}

	// An empty transcript never auto-saves.
	time.Sleep(80 * time.Millisecond)
	creates, updates := saver.counts()
	if creates != 1 || updates != 0 {
		t.Errorf("no save may fire after Clear; got %d creates, %d updates", creates, updates)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 100), 25},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("a", 60)
	tests := []struct {
		name       string
		transcript []models.ChatMessage
		want       string
	}{
		{
			"short user message",
			[]models.ChatMessage{{Role: models.RoleUser, Content: "hello there"}},
			"hello there",
		},
		{
			"long user message truncated",
			[]models.ChatMessage{{Role: models.RoleUser, Content: long}},
			strings.Repeat("a", 50) + "...",
		},
		{
			"skips assistant messages",
			[]models.ChatMessage{
				{Role: models.RoleAssistant, Content: "ignored"},
				{Role: models.RoleUser, Content: "the real title"},
			},
			"the real title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.transcript); got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}

	// No user message falls back to a dated default.
	if got := DeriveTitle(nil); !strings.HasPrefix(got, "Chat ") {
		t.Errorf("fallback title = %q", got)
	}
}
