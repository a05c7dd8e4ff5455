package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"promptarena/models"
	"promptarena/structs"

	"promptarena/db"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateChat validates and stores a new conversation, returning its id.
// Every message is stamped with a server timestamp; client timestamps are
// never trusted.
func CreateChat(ctx context.Context, userID string, req structs.SaveChatRequest) (string, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", ErrNotFound
	}
	if len(req.Title) < 1 || len(req.Title) > 100 {
		return "", validationError("title must be 1-100 characters")
	}
	if len(req.Messages) == 0 {
		return "", validationError("messages must not be empty")
	}
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return "", err
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeSingle
	}
	if mode != models.ModeSingle && mode != models.ModeCompare && mode != models.ModeSmart {
		return "", validationError("mode must be single, compare or smart")
	}
	generationType := req.GenerationType
	if generationType == "" {
		generationType = models.TypeText
	}
	if err := validateType(generationType); err != nil {
		return "", err
	}

	now := time.Now()
	chat := models.Chat{
		ChatID:         uuid.NewString(),
		UserID:         oid,
		Title:          req.Title,
		Messages:       messages,
		Mode:           mode,
		GenerationType: generationType,
		Models:         req.Models,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := db.ChatCollection.InsertOne(ctx, chat); err != nil {
		return "", err
	}
	return chat.ChatID, nil
}

// ListChats returns the caller's chats, most recently touched first.
func ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := db.ChatCollection.Find(ctx, bson.M{"userId": oid}, opts)
	if err != nil {
		return nil, err
	}
	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChat fetches one of the caller's chats by its public id.
func GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	var chat models.Chat
	err = db.ChatCollection.FindOne(ctx, bson.M{"chatId": chatID, "userId": oid}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// UpdateChat applies a partial update: title and/or a full message list
// replacement. updatedAt is refreshed on every call.
func UpdateChat(ctx context.Context, userID, chatID string, req structs.UpdateChatRequest) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != nil {
		if len(*req.Title) < 1 || len(*req.Title) > 100 {
			return validationError("title must be 1-100 characters")
		}
		set["title"] = *req.Title
	}
	if req.Messages != nil {
		messages, err := convertMessages(*req.Messages)
		if err != nil {
			return err
		}
		set["messages"] = messages
	}

	res, err := db.ChatCollection.UpdateOne(ctx, bson.M{"chatId": chatID, "userId": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChat removes one of the caller's chats.
func DeleteChat(ctx context.Context, userID, chatID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	res, err := db.ChatCollection.DeleteOne(ctx, bson.M{"chatId": chatID, "userId": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchChats returns the caller's chats whose title or any message content
// contains the query, case-insensitively, most recently touched first.
func SearchChats(ctx context.Context, userID, query string) ([]models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"userId": oid,
		"$or": []bson.M{
			{"title": pattern},
			{"messages.content": pattern},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := db.ChatCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// SaveTranscript persists a server-assembled conversation (the stream
// session's auto-save path). Messages are already stamped; an empty
// transcript is rejected under the same rule as the explicit save endpoint.
func SaveTranscript(ctx context.Context, userID, title string, messages []models.ChatMessage, mode, generationType string, modelNames []string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", ErrNotFound
	}
	if len(messages) == 0 {
		return "", validationError("messages must not be empty")
	}

	now := time.Now()
	chat := models.Chat{
		ChatID:         uuid.NewString(),
		UserID:         oid,
		Title:          title,
		Messages:       messages,
		Mode:           mode,
		GenerationType: generationType,
		Models:         modelNames,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := db.ChatCollection.InsertOne(ctx, chat); err != nil {
		return "", err
	}
	return chat.ChatID, nil
}

// UpdateTranscript replaces a saved conversation's messages in place.
func UpdateTranscript(ctx context.Context, userID, chatID string, messages []models.ChatMessage) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	res, err := db.ChatCollection.UpdateOne(ctx,
		bson.M{"chatId": chatID, "userId": oid},
		bson.M{"$set": bson.M{"messages": messages, "updatedAt": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func convertMessages(inputs []structs.MessageInput) ([]models.ChatMessage, error) {
	now := time.Now()
	messages := make([]models.ChatMessage, 0, len(inputs))
	for i, in := range inputs {
		if in.Role != models.RoleUser && in.Role != models.RoleAssistant {
			return nil, validationError("message %d: role must be user or assistant", i)
		}
		if in.Type != "" {
			if err := validateType(in.Type); err != nil {
				return nil, validationError("message %d: %v", i, err)
			}
		}
		if in.ImageURL != "" && in.AudioURL != "" {
			return nil, validationError("message %d: at most one of imageUrl/audioUrl may be set", i)
		}
		if in.ImageURL != "" && in.Type != models.TypeImage {
			return nil, validationError("message %d: imageUrl requires type image", i)
		}
		if in.AudioURL != "" && in.Type != models.TypeAudio {
			return nil, validationError("message %d: audioUrl requires type audio", i)
		}
		messages = append(messages, models.ChatMessage{
			Role:      in.Role,
			Content:   in.Content,
			Timestamp: now,
			Model:     in.Model,
			Type:      in.Type,
			ImageURL:  in.ImageURL,
			AudioURL:  in.AudioURL,
		})
	}
	return messages, nil
}

func validateType(t string) error {
	switch t {
	case models.TypeText, models.TypeImage, models.TypeAudio:
		return nil
	}
	return validationError("type must be text, image or audio")
}
