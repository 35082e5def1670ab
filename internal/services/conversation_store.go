package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/repos"
	"github.com/contractoros/contractoros-backend/internal/types"
)

// StoredMessage is one replayable history entry, independent of which tier
// it came from.
type StoredMessage struct {
	MessageType string
	Content     string
	IndexOrder  int
}

// ConversationStore replays and appends per-conversation history. Two
// implementations back the two persistence tiers: Postgres rows for valid
// UUID ids, an in-process map for everything else.
type ConversationStore interface {
	History(ctx context.Context, conversationID string) ([]StoredMessage, error)
	Append(ctx context.Context, conversationID string, messageType string, content string) error
}

// ---- Durable tier ----

type durableConversationStore struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.ChatMessageRepo
}

func NewDurableConversationStore(log *logger.Logger, conversationRepo repos.ConversationRepo, messageRepo repos.ChatMessageRepo) ConversationStore {
	return &durableConversationStore{
		log:           log.With("service", "DurableConversationStore"),
		conversations: conversationRepo,
		messages:      messageRepo,
	}
}

func (s *durableConversationStore) History(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation id is not a uuid: %w", err)
	}
	rows, err := s.messages.ListByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]StoredMessage, 0, len(rows))
	for _, m := range rows {
		out = append(out, StoredMessage{
			MessageType: m.MessageType,
			Content:     m.Content,
			IndexOrder:  m.IndexOrder,
		})
	}
	return out, nil
}

func (s *durableConversationStore) Append(ctx context.Context, conversationID string, messageType string, content string) error {
	id, err := uuid.Parse(conversationID)
	if err != nil {
		return fmt.Errorf("conversation id is not a uuid: %w", err)
	}

	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		title := content
		if runes := []rune(title); len(runes) > 60 {
			title = string(runes[:60])
		}
		if _, err := s.conversations.Create(ctx, nil, &types.Conversation{ID: id, Title: title}); err != nil {
			return err
		}
	}

	if _, err := s.messages.Append(ctx, nil, &types.ChatMessage{
		ConversationID: id,
		MessageType:    messageType,
		Content:        content,
	}); err != nil {
		return err
	}
	if err := s.conversations.Touch(ctx, id); err != nil {
		s.log.Warn("Failed to touch conversation", "conversation_id", conversationID, "error", err)
	}
	return nil
}

// ---- Ephemeral tier ----

// Keyed by the literal id string; lost on process restart. Concurrent
// writers to the same id race last-write-wins, which is acceptable for a
// best-effort tier.
type ephemeralConversationStore struct {
	mu   sync.RWMutex
	byID map[string][]StoredMessage
}

func NewEphemeralConversationStore() ConversationStore {
	return &ephemeralConversationStore{byID: make(map[string][]StoredMessage)}
}

func (s *ephemeralConversationStore) History(_ context.Context, conversationID string) ([]StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.byID[conversationID]
	out := make([]StoredMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *ephemeralConversationStore) Append(_ context.Context, conversationID string, messageType string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.byID[conversationID]
	s.byID[conversationID] = append(msgs, StoredMessage{
		MessageType: messageType,
		Content:     content,
		IndexOrder:  len(msgs),
	})
	return nil
}
