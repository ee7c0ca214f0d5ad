package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sublet/rentals/internal/db"
	"sublet/rentals/internal/models"
)

// IChatService stores the transcript of chats opened by accepted requests.
type IChatService interface {
	FetchMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, chatID string, data models.SendMessageData) (*models.ChatMessage, error)
}

type chatService struct {
	db *mongo.Database
}

// NewChatService creates a new ChatService.
func NewChatService(database *mongo.Database) IChatService {
	return &chatService{db: database}
}

// FetchMessages returns the chat's messages, oldest first.
func (s *chatService) FetchMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cursor, err := s.db.Collection(db.ChatMessagesCollection).Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding messages for chat %s: %w", chatID, err)
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("error decoding messages for chat %s: %w", chatID, err)
	}
	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, chatID string, data models.SendMessageData) (*models.ChatMessage, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	collection := s.db.Collection(db.ChatMessagesCollection)
	now := time.Now().UTC()
	var msg *models.ChatMessage
	operation := func() error {
		msg = &models.ChatMessage{
			ChatID:     chatID,
			Body:       strings.TrimSpace(data.Body),
			FromUserID: data.FromUserID,
			ToUserID:   data.ToUserID,
			SentAt:     now,
		}
		msg.GenID()
		_, insertErr := collection.InsertOne(ctx, msg)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}
	return msg, nil
}
