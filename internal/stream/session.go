// Package stream coordinates one conversation's fan-out to model backends:
// one lane per model, chunk accumulation into the shared transcript, debounced
// auto-save, and per-turn token accounting.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"promptarena/internal/metrics"
	"promptarena/models"

	"github.com/rs/zerolog/log"
)

// LaneState tracks one model lane through a turn.
type LaneState int

const (
	LaneIdle LaneState = iota
	LaneStreaming
	LaneSettled
	LaneErrored
)

const (
	// Compare mode fans out to at most this many lanes; extra selections
	// are silently ignored.
	MaxCompareLanes = 5

	defaultSaveDelay = 3 * time.Second

	// Terminal message shown in place of a response when a lane fails.
	generationErrorText = "Sorry, something went wrong while generating this response. Please try again."
)

var ErrAudioInCompare = errors.New("audio generation is not available in compare mode")

// Provider produces model output. StreamText must invoke onChunk for every
// partial fragment in arrival order and return the full accumulated text.
type Provider interface {
	StreamText(ctx context.Context, model, prompt string, onChunk func(string)) (string, error)
	GenerateAudio(ctx context.Context, prompt, voice string) (string, error)
}

// Saver persists the conversation. Create returns the chat id that keys all
// subsequent updates.
type Saver interface {
	Create(ctx context.Context, title string, messages []models.ChatMessage, mode, generationType string, modelNames []string) (string, error)
	Update(ctx context.Context, chatID string, messages []models.ChatMessage) error
}

// Event is pushed to the session's sink as lanes progress.
type Event struct {
	Type    string `json:"type"` // chunk, settled, error, audio, saved
	Model   string `json:"model,omitempty"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
	Message string `json:"message,omitempty"`
}

type Sink func(Event)

type Config struct {
	Provider  Provider
	Saver     Saver
	AddUsage  func(ctx context.Context, tokens int64)
	SmartPick func(prompt string) string
	Sink      Sink
	SaveDelay time.Duration
	DefaultModel string
}

type lane struct {
	model  string
	state  LaneState
	msgIdx int // index of the in-flight assistant message in the transcript
}

// Session owns one conversation's lanes and transcript. All mutation goes
// through the session mutex; lanes stream concurrently but never block each
// other.
type Session struct {
	mu  sync.Mutex
	cfg Config

	mode           string
	generationType string
	selected       []string

	lanes      map[string]*lane
	transcript []models.ChatMessage

	chatID    string
	saveTimer *time.Timer
	closed    bool
}

func NewSession(cfg Config) *Session {
	if cfg.SaveDelay == 0 {
		cfg.SaveDelay = defaultSaveDelay
	}
	if cfg.Sink == nil {
		cfg.Sink = func(Event) {}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemini-2.5-flash"
	}
	return &Session{
		cfg:            cfg,
		mode:           models.ModeSingle,
		generationType: models.TypeText,
		lanes:          map[string]*lane{},
	}
}

// SetMode switches the conversation mode. A mode change drops the held chat
// id so the next auto-save creates a new document instead of overwriting.
func (s *Session) SetMode(mode string) error {
	switch mode {
	case models.ModeSingle, models.ModeCompare, models.ModeSmart:
	default:
		return errors.New("mode must be single, compare or smart")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode != s.mode {
		s.mode = mode
		s.chatID = ""
		s.lanes = map[string]*lane{}
	}
	return nil
}

// SelectModels sets the models in play. In compare mode anything beyond the
// lane cap is silently dropped.
func (s *Session) SelectModels(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	selected := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		if s.mode == models.ModeCompare && len(selected) == MaxCompareLanes {
			break
		}
		seen[n] = true
		selected = append(selected, n)
	}
	s.selected = selected
}

// Clear resets the conversation: transcript, lanes and the held chat id.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
	s.lanes = map[string]*lane{}
	s.chatID = ""
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
}

// Close stops the debounce timer; in-flight lanes finish but no further save
// fires.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
}

// Transcript returns a copy of the current conversation.
func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// ChatID returns the persisted conversation id, empty until the first save.
func (s *Session) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// LaneState reports the state of one model's lane.
func (s *Session) LaneState(model string) LaneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[model]; ok {
		return l.state
	}
	return LaneIdle
}

// turnModels resolves which models handle this prompt under the current mode.
func (s *Session) turnModels(prompt string) []string {
	switch s.mode {
	case models.ModeCompare:
		if len(s.selected) > MaxCompareLanes {
			return s.selected[:MaxCompareLanes]
		}
		return s.selected
	case models.ModeSmart:
		if s.cfg.SmartPick != nil {
			if picked := s.cfg.SmartPick(prompt); picked != "" {
				return []string{picked}
			}
		}
		return []string{s.cfg.DefaultModel}
	default:
		if len(s.selected) > 0 {
			return s.selected[:1]
		}
		return []string{s.cfg.DefaultModel}
	}
}

// Prompt runs one user turn: fan-out to the mode's lanes, stream chunks into
// the transcript, account tokens once when every lane has finished. Audio
// turns bypass streaming entirely.
func (s *Session) Prompt(ctx context.Context, prompt, generationType, voice string) error {
	if generationType == "" {
		generationType = models.TypeText
	}
	if generationType == models.TypeAudio {
		return s.audioTurn(ctx, prompt, voice)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	s.generationType = generationType
	turn := s.turnModels(prompt)
	if len(turn) == 0 {
		s.mu.Unlock()
		return errors.New("no models selected")
	}

	now := time.Now()
	s.transcript = append(s.transcript, models.ChatMessage{
		Role:      models.RoleUser,
		Content:   prompt,
		Timestamp: now,
		Type:      generationType,
	})

	type launch struct {
		model  string
		msgIdx int
	}
	launches := make([]launch, 0, len(turn))
	for _, model := range turn {
		s.transcript = append(s.transcript, models.ChatMessage{
			Role:      models.RoleAssistant,
			Timestamp: now,
			Model:     model,
			Type:      models.TypeText,
		})
		idx := len(s.transcript) - 1
		s.lanes[model] = &lane{model: model, state: LaneStreaming, msgIdx: idx}
		launches = append(launches, launch{model: model, msgIdx: idx})
		metrics.StreamLanes.Inc()
	}
	s.mu.Unlock()
	s.scheduleSave()

	var wg sync.WaitGroup
	var tokenMu sync.Mutex
	turnTokens := EstimateTokens(prompt)

	for _, l := range launches {
		wg.Add(1)
		go func(model string, msgIdx int) {
			defer wg.Done()
			defer metrics.StreamLanes.Dec()

			final, err := s.cfg.Provider.StreamText(ctx, model, prompt, func(chunk string) {
				s.appendChunk(model, msgIdx, chunk)
			})
			if err != nil {
				s.failLane(model, msgIdx)
				return
			}
			s.settleLane(model, final)
			tokenMu.Lock()
			turnTokens += EstimateTokens(final)
			tokenMu.Unlock()
		}(l.model, l.msgIdx)
	}

	go func() {
		wg.Wait()
		if s.cfg.AddUsage != nil {
			s.cfg.AddUsage(ctx, turnTokens)
		}
	}()
	return nil
}

// audioTurn performs the synchronous audio path: one provider call producing
// a URL wrapped in a single assistant message. Disabled in compare mode.
func (s *Session) audioTurn(ctx context.Context, prompt, voice string) error {
	s.mu.Lock()
	if s.mode == models.ModeCompare {
		s.mu.Unlock()
		return ErrAudioInCompare
	}
	s.generationType = models.TypeAudio
	model := s.cfg.DefaultModel
	if len(s.selected) > 0 {
		model = s.selected[0]
	}
	now := time.Now()
	s.transcript = append(s.transcript, models.ChatMessage{
		Role:      models.RoleUser,
		Content:   prompt,
		Timestamp: now,
		Type:      models.TypeAudio,
	})
	s.mu.Unlock()

	url, err := s.cfg.Provider.GenerateAudio(ctx, prompt, voice)

	s.mu.Lock()
	msg := models.ChatMessage{
		Role:      models.RoleAssistant,
		Timestamp: time.Now(),
		Model:     model,
		Type:      models.TypeAudio,
	}
	if err != nil {
		msg.Type = models.TypeText
		msg.Content = generationErrorText
	} else {
		msg.AudioURL = url
	}
	s.transcript = append(s.transcript, msg)
	s.mu.Unlock()
	s.scheduleSave()

	if err != nil {
		s.cfg.Sink(Event{Type: "error", Model: model, Message: generationErrorText})
		return nil
	}
	s.cfg.Sink(Event{Type: "audio", Model: model, URL: url})
	if s.cfg.AddUsage != nil {
		s.cfg.AddUsage(ctx, EstimateTokens(prompt))
	}
	return nil
}

// appendChunk grows the lane's in-flight message in place so the client sees
// accumulating text rather than discrete messages.
func (s *Session) appendChunk(model string, msgIdx int, chunk string) {
	s.mu.Lock()
	// A Clear may have raced the stream; stale indexes are dropped.
	if msgIdx >= len(s.transcript) {
		s.mu.Unlock()
		return
	}
	s.transcript[msgIdx].Content += chunk
	s.mu.Unlock()
	s.cfg.Sink(Event{Type: "chunk", Model: model, Text: chunk})
	s.scheduleSave()
}

func (s *Session) settleLane(model, final string) {
	s.mu.Lock()
	if l, ok := s.lanes[model]; ok {
		l.state = LaneSettled
	}
	s.mu.Unlock()
	s.cfg.Sink(Event{Type: "settled", Model: model, Text: final})
	s.scheduleSave()
}

// failLane appends the fixed error text and returns the lane to Idle. If the
// accumulator message is still empty it carries the error text itself;
// otherwise a separate terminal message is appended after the partial output.
func (s *Session) failLane(model string, msgIdx int) {
	s.mu.Lock()
	if msgIdx >= len(s.transcript) {
		if l, ok := s.lanes[model]; ok {
			l.state = LaneIdle
		}
		s.mu.Unlock()
		return
	}
	if s.transcript[msgIdx].Content == "" {
		s.transcript[msgIdx].Content = generationErrorText
	} else {
		s.transcript = append(s.transcript, models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   generationErrorText,
			Timestamp: time.Now(),
			Model:     model,
			Type:      models.TypeText,
		})
	}
	if l, ok := s.lanes[model]; ok {
		l.state = LaneIdle
	}
	s.mu.Unlock()
	s.cfg.Sink(Event{Type: "error", Model: model, Message: generationErrorText})
	s.scheduleSave()
}

// scheduleSave restarts the auto-save debounce timer.
func (s *Session) scheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.cfg.SaveDelay, s.autoSave)
}

// autoSave persists the conversation once no lane is streaming and the
// transcript is non-empty. The first successful create adopts the returned
// chat id; later fires update the same document. Failures are logged and
// never retried.
func (s *Session) autoSave() {
	s.mu.Lock()
	if s.closed || len(s.transcript) == 0 {
		s.mu.Unlock()
		return
	}
	for _, l := range s.lanes {
		if l.state == LaneStreaming {
			// A settle or chunk will re-arm the timer.
			s.mu.Unlock()
			return
		}
	}
	transcript := make([]models.ChatMessage, len(s.transcript))
	copy(transcript, s.transcript)
	chatID := s.chatID
	mode := s.mode
	generationType := s.generationType
	modelNames := append([]string(nil), s.selected...)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if chatID == "" {
		title := DeriveTitle(transcript)
		id, err := s.cfg.Saver.Create(ctx, title, transcript, mode, generationType, modelNames)
		if err != nil {
			log.Error().Err(err).Msg("auto-save create failed")
			return
		}
		s.mu.Lock()
		s.chatID = id
		s.mu.Unlock()
		s.cfg.Sink(Event{Type: "saved", ChatID: id})
		return
	}

	if err := s.cfg.Saver.Update(ctx, chatID, transcript); err != nil {
		log.Error().Err(err).Str("chatId", chatID).Msg("auto-save update failed")
		return
	}
	s.cfg.Sink(Event{Type: "saved", ChatID: chatID})
}

// EstimateTokens approximates a token count as text length divided by 4,
// rounded up.
func EstimateTokens(text string) int64 {
	return int64((len(text) + 3) / 4)
}

// DeriveTitle builds a title from the first user message, truncated to 50
// characters plus an ellipsis, with a date-stamped fallback.
func DeriveTitle(transcript []models.ChatMessage) string {
	for _, m := range transcript {
		if m.Role == models.RoleUser && m.Content != "" {
			runes := []rune(m.Content)
			if len(runes) > 50 {
				return string(runes[:50]) + "..."
			}
			return m.Content
		}
	}
	return "Chat " + time.Now().Format("Jan 2, 2006")
}
