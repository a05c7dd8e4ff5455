package websocket

import (
	"context"
	"net/http"
	"sync"

	"promptarena/middlewares"
	"promptarena/internal/stream"
	"promptarena/models"
	"promptarena/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var smartRouter *services.Router

// Init wires the shared smart-mode router. Called once at boot.
func Init(router *services.Router) {
	smartRouter = router
}

// clientMessage is what the browser sends over the stream socket.
type clientMessage struct {
	Type           string   `json:"type"` // mode, prompt, clear
	Mode           string   `json:"mode"`
	Models         []string `json:"models"`
	Prompt         string   `json:"prompt"`
	GenerationType string   `json:"generationType"`
	Voice          string   `json:"voice"`
}

// geminiProvider adapts the generation services to the stream.Provider
// contract.
type geminiProvider struct{}

func (geminiProvider) StreamText(ctx context.Context, model, prompt string, onChunk func(string)) (string, error) {
	return services.StreamModelText(ctx, model, prompt, onChunk)
}

func (geminiProvider) GenerateAudio(ctx context.Context, prompt, voice string) (string, error) {
	return services.BuildAudioURL(prompt, voice)
}

// chatSaver adapts the chat service to the stream.Saver contract, bound to
// one authenticated user.
type chatSaver struct {
	userID string
}

func (s chatSaver) Create(ctx context.Context, title string, messages []models.ChatMessage, mode, generationType string, modelNames []string) (string, error) {
	return services.SaveTranscript(ctx, s.userID, title, messages, mode, generationType, modelNames)
}

func (s chatSaver) Update(ctx context.Context, chatID string, messages []models.ChatMessage) error {
	return services.UpdateTranscript(ctx, s.userID, chatID, messages)
}

// StreamHandler upgrades the connection and runs one stream session per
// socket: prompts fan out to lanes, lane events flow back as JSON frames.
func StreamHandler(c *gin.Context) {
	userID := middlewares.GetUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	writeEvent := func(ev stream.Event) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
		}
	}

	var smartPick func(string) string
	if smartRouter != nil {
		smartPick = smartRouter.Pick
	}

	session := stream.NewSession(stream.Config{
		Provider: geminiProvider{},
		Saver:    chatSaver{userID: userID},
		AddUsage: func(ctx context.Context, tokens int64) {
			if _, err := services.AddTokenUsage(ctx, userID, tokens); err != nil {
				log.Warn().Err(err).Str("userId", userID).Msg("token usage update failed")
			}
		},
		SmartPick: smartPick,
		Sink:      writeEvent,
	})
	defer session.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		switch msg.Type {
		case "mode":
			if err := session.SetMode(msg.Mode); err != nil {
				writeEvent(stream.Event{Type: "error", Message: err.Error()})
				continue
			}
			if len(msg.Models) > 0 {
				session.SelectModels(msg.Models)
			}
		case "prompt":
			if msg.Prompt == "" {
				writeEvent(stream.Event{Type: "error", Message: "prompt is required"})
				continue
			}
			if len(msg.Models) > 0 {
				session.SelectModels(msg.Models)
			}
			if err := session.Prompt(ctx, msg.Prompt, msg.GenerationType, msg.Voice); err != nil {
				writeEvent(stream.Event{Type: "error", Message: err.Error()})
			}
		case "clear":
			session.Clear()
		default:
			writeEvent(stream.Event{Type: "error", Message: "unknown message type"})
		}
	}
}
