package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
)

const fallbackSnippetLimit = 220

const apologyReply = "I apologize, but the AI assistant is currently unavailable and I could not find relevant content in your documents. Please try again later."

// ChatService is the per-conversation session manager: it replays history,
// runs the RAG graph, and degrades to a retrieval-only reply when the chat
// backend is down. The chat turn itself never fails once input validation
// passes; persistence problems are logged and absorbed.
type ChatService interface {
	SendMessage(ctx context.Context, conversationID string, text string) (*types.ChatReply, error)
	History(ctx context.Context, conversationID string) ([]StoredMessage, error)
}

type chatService struct {
	log       *logger.Logger
	models    *ModelProvider
	graph     *RAGGraph
	store     VectorStore
	durable   ConversationStore
	ephemeral ConversationStore
}

func NewChatService(log *logger.Logger, models *ModelProvider, graph *RAGGraph, store VectorStore, durable ConversationStore, ephemeral ConversationStore) ChatService {
	return &chatService{
		log:       log.With("service", "ChatService"),
		models:    models,
		graph:     graph,
		store:     store,
		durable:   durable,
		ephemeral: ephemeral,
	}
}

func (s *chatService) SendMessage(ctx context.Context, conversationID string, text string) (*types.ChatReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.InvalidInput("message is required")
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apierr.InvalidInput("conversation_id is required")
	}

	store := s.routeStore(conversationID)

	// Best-effort read: a broken history store degrades to an empty
	// replay, it does not fail the turn.
	history, err := store.History(ctx, conversationID)
	if err != nil {
		s.log.Warn("Failed to load conversation history", "conversation_id", conversationID, "error", err)
		history = nil
	}

	if err := store.Append(ctx, conversationID, types.MessageTypeUser, text); err != nil {
		s.log.Warn("Failed to persist user message", "conversation_id", conversationID, "error", err)
	}

	s.models.EnsureReady()

	msgs := buildModelInput(history, text)
	reply, err := s.graph.Run(ctx, msgs)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			s.log.Warn("RAG graph failed; using fallback reply", "conversation_id", conversationID, "error", err)
		}
		reply = s.fallbackReply(ctx, text)
	}

	if err := store.Append(ctx, conversationID, types.MessageTypeAI, reply); err != nil {
		s.log.Warn("Failed to persist assistant reply", "conversation_id", conversationID, "error", err)
	}

	return &types.ChatReply{ConversationID: conversationID, Reply: reply}, nil
}

func (s *chatService) History(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apierr.InvalidInput("conversation_id is required")
	}
	return s.routeStore(conversationID).History(ctx, conversationID)
}

// routeStore picks the persistence tier: a syntactically valid UUID goes to
// Postgres, anything else to the in-process map.
func (s *chatService) routeStore(conversationID string) ConversationStore {
	if _, err := uuid.Parse(conversationID); err == nil {
		return s.durable
	}
	return s.ephemeral
}

// buildModelInput replays stored history in index order and appends the new
// user message.
func buildModelInput(history []StoredMessage, text string) []ModelMessage {
	msgs := make([]ModelMessage, 0, len(history)+1)
	for _, m := range history {
		role := RoleUser
		if m.MessageType == types.MessageTypeAI {
			role = RoleAssistant
		}
		msgs = append(msgs, ModelMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, ModelMessage{Role: RoleUser, Content: text})
	return msgs
}

// fallbackReply bypasses the graph and answers from retrieval alone. When
// retrieval is also unavailable, the fixed apology goes out; the chat
// endpoint still succeeds.
func (s *chatService) fallbackReply(ctx context.Context, query string) string {
	results, err := s.store.Search(ctx, query, 3)
	if err != nil || len(results) == 0 {
		if err != nil {
			s.log.Warn("Fallback retrieval failed", "error", err)
		}
		return apologyReply
	}

	var b strings.Builder
	b.WriteString("The AI assistant is currently unavailable, but here is the most relevant content from your documents:\n\n")
	for _, r := range results {
		snippet := strings.TrimSpace(r.Content)
		if runes := []rune(snippet); len(runes) > fallbackSnippetLimit {
			snippet = string(runes[:fallbackSnippetLimit]) + "..."
		}
		b.WriteString(fmt.Sprintf("From %s: %s\n\n", r.Metadata.Filename, snippet))
	}
	b.WriteString("(fallback mode: answers are limited to document search until the assistant is back online)")
	return b.String()
}
