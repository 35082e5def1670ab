package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

// ChatMessage is one turn of a durable conversation. IndexOrder is strictly
// increasing per conversation and is the replay order for building model
// input.
type ChatMessage struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	MessageType    string    `gorm:"column:message_type;not null" json:"message_type"`
	Content        string    `gorm:"column:content;not null" json:"content"`
	IndexOrder     int       `gorm:"column:index_order;not null" json:"index_order"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
