package models

import (
	"errors"
	"strings"
	"time"
)

// ChatMessage is one entry of the transcript opened when a request is accepted.
type ChatMessage struct {
	Base       `bson:",inline"`
	ChatID     string    `bson:"chat_id" json:"chat_id"`
	Body       string    `bson:"body" json:"body"`
	FromUserID string    `bson:"from_user_id" json:"from_user_id"`
	ToUserID   string    `bson:"to_user_id" json:"to_user_id"`
	SentAt     time.Time `bson:"sent_at" json:"sent_at"`
}

// SendMessageData is the payload accepted by the chat contract.
type SendMessageData struct {
	Body       string `json:"body"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

func (d SendMessageData) Validate() error {
	if strings.TrimSpace(d.Body) == "" {
		return errors.New("message body is required")
	}
	if d.FromUserID == "" || d.ToUserID == "" {
		return errors.New("message sender and recipient are required")
	}
	return nil
}
