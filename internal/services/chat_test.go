package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/types"
)

func chatWith(t *testing.T, client ModelClient, store VectorStore) (ChatService, ConversationStore) {
	log := testLogger(t)
	provider := NewModelProviderWithFactories(log, func() (ModelClient, error) { return client, nil })
	graph := NewRAGGraph(log, provider, store)
	ephemeral := NewEphemeralConversationStore()
	// No durable tier in unit tests; non-UUID ids never reach it.
	svc := NewChatService(log, provider, graph, store, nil, ephemeral)
	return svc, ephemeral
}

func TestSendMessageHappyPath(t *testing.T) {
	client := &fakeModelClient{turns: []*ModelMessage{
		{Role: RoleAssistant, Content: "Answer one."},
		{Role: RoleAssistant, Content: "Answer two."},
	}}
	svc, _ := chatWith(t, client, &fakeVectorStore{})

	reply, err := svc.SendMessage(context.Background(), "session-abc", "first question")
	require.NoError(t, err)
	assert.Equal(t, "session-abc", reply.ConversationID)
	assert.Equal(t, "Answer one.", reply.Reply)

	// Second turn replays the first exchange before the new message.
	_, err = svc.SendMessage(context.Background(), "session-abc", "second question")
	require.NoError(t, err)
	require.Len(t, client.calls, 2)
	second := client.calls[1]
	require.Len(t, second, 3)
	assert.Equal(t, "first question", second[0].Content)
	assert.Equal(t, RoleAssistant, second[1].Role)
	assert.Equal(t, "Answer one.", second[1].Content)
	assert.Equal(t, "second question", second[2].Content)
}

// A non-UUID conversation id lives entirely in the ephemeral tier and keeps
// continuity across turns within the process.
func TestSendMessageEphemeralContinuity(t *testing.T) {
	client := &fakeModelClient{turns: []*ModelMessage{
		{Role: RoleAssistant, Content: "hi"},
	}}
	svc, ephemeral := chatWith(t, client, &fakeVectorStore{})

	_, err := svc.SendMessage(context.Background(), "not-a-uuid", "hello")
	require.NoError(t, err)

	history, err := svc.History(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, types.MessageTypeUser, history[0].MessageType)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, types.MessageTypeAI, history[1].MessageType)
	assert.Equal(t, "hi", history[1].Content)
	assert.Equal(t, 0, history[0].IndexOrder)
	assert.Equal(t, 1, history[1].IndexOrder)

	stored, err := ephemeral.History(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSendMessageFallbackWithSnippets(t *testing.T) {
	client := &fakeModelClient{chatErr: fmt.Errorf("connection refused")}
	long := strings.Repeat("b", fallbackSnippetLimit+100)
	store := &fakeVectorStore{searchResults: []types.ChunkResult{
		{Content: "Concrete pour scheduled for June.", Metadata: types.ChunkMetadata{Filename: "schedule.pdf"}},
		{Content: long, Metadata: types.ChunkMetadata{Filename: "spec-book.pdf"}},
	}}
	svc, _ := chatWith(t, client, store)

	reply, err := svc.SendMessage(context.Background(), "s1", "when is the pour?")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "From schedule.pdf: Concrete pour scheduled for June.")
	assert.Contains(t, reply.Reply, "From spec-book.pdf: "+strings.Repeat("b", fallbackSnippetLimit)+"...")
	assert.Contains(t, reply.Reply, "fallback mode")

	// The fallback search reuses the user's message as the query.
	assert.Equal(t, []string{"when is the pour?"}, store.queries)
}

// Fallback snippets are limited by character count; multibyte document text
// must not be cut mid-rune in the user-facing reply.
func TestSendMessageFallbackMultibyteSnippet(t *testing.T) {
	client := &fakeModelClient{chatErr: fmt.Errorf("connection refused")}
	store := &fakeVectorStore{searchResults: []types.ChunkResult{
		{Content: "a" + strings.Repeat("é", fallbackSnippetLimit), Metadata: types.ChunkMetadata{Filename: "devis.pdf"}},
	}}
	svc, _ := chatWith(t, client, store)

	reply, err := svc.SendMessage(context.Background(), "s1", "q")
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(reply.Reply))
	assert.Contains(t, reply.Reply, "From devis.pdf: a"+strings.Repeat("é", fallbackSnippetLimit-1)+"...")
}

func TestSendMessageApologyWhenRetrievalAlsoFails(t *testing.T) {
	client := &fakeModelClient{chatErr: fmt.Errorf("backend down")}
	store := &fakeVectorStore{searchErr: fmt.Errorf("db down")}
	svc, _ := chatWith(t, client, store)

	reply, err := svc.SendMessage(context.Background(), "s1", "anything")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, reply.Reply)
}

func TestSendMessageApologyOnNoMatches(t *testing.T) {
	client := &fakeModelClient{chatErr: fmt.Errorf("backend down")}
	svc, _ := chatWith(t, client, &fakeVectorStore{})

	reply, err := svc.SendMessage(context.Background(), "s1", "anything")
	require.NoError(t, err)
	assert.Equal(t, apologyReply, reply.Reply)
}

// An empty assistant reply is treated the same as a graph failure.
func TestSendMessageEmptyReplyFallsBack(t *testing.T) {
	client := &fakeModelClient{turns: []*ModelMessage{
		{Role: RoleAssistant, Content: "   "},
	}}
	store := &fakeVectorStore{searchResults: []types.ChunkResult{
		{Content: "something", Metadata: types.ChunkMetadata{Filename: "a.pdf"}},
	}}
	svc, _ := chatWith(t, client, store)

	reply, err := svc.SendMessage(context.Background(), "s1", "q")
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "From a.pdf")
}

func TestSendMessageValidation(t *testing.T) {
	svc, _ := chatWith(t, &fakeModelClient{}, &fakeVectorStore{})

	_, err := svc.SendMessage(context.Background(), "s1", "   ")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeInvalidInput))

	_, err = svc.SendMessage(context.Background(), "", "hello")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeInvalidInput))
}

// The fallback reply is still recorded, so the failed turn shows up in
// later history replays.
func TestFallbackReplyPersisted(t *testing.T) {
	client := &fakeModelClient{chatErr: fmt.Errorf("down")}
	svc, ephemeral := chatWith(t, client, &fakeVectorStore{})

	_, err := svc.SendMessage(context.Background(), "s1", "q")
	require.NoError(t, err)

	history, err := ephemeral.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, apologyReply, history[1].Content)
}
