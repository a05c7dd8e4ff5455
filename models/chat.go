package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation modes and message roles/types. These are part of the wire
// contract and the stored documents, so they live next to the models.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	ModeSingle  = "single"
	ModeCompare = "compare"
	ModeSmart   = "smart"

	TypeText  = "text"
	TypeImage = "image"
	TypeAudio = "audio"
)

// ChatMessage is one turn in a conversation. Timestamp is always set
// server-side; at most one of ImageURL/AudioURL is set, and only when Type
// matches.
type ChatMessage struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Model     string    `bson:"model,omitempty" json:"model,omitempty"`
	Type      string    `bson:"type,omitempty" json:"type,omitempty"`
	ImageURL  string    `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	AudioURL  string    `bson:"audioUrl,omitempty" json:"audioUrl,omitempty"`
}

// Chat is a persisted conversation owned by one user. ChatID is the opaque
// identifier handed to clients; the Mongo _id never leaves the backend.
type Chat struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ChatID         string             `bson:"chatId" json:"chatId"`
	UserID         primitive.ObjectID `bson:"userId" json:"-"`
	Title          string             `bson:"title" json:"title"`
	Messages       []ChatMessage      `bson:"messages" json:"messages"`
	Mode           string             `bson:"mode" json:"mode"`
	GenerationType string             `bson:"generationType" json:"generationType"`
	Models         []string           `bson:"models,omitempty" json:"models,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
