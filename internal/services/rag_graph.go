package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
)

// The conversational retrieval flow is a small finite-state machine:
//
//	queryOrRespond --(tool call)--> retrieve --> generate --> done
//	queryOrRespond --(direct answer)-----------------------> done
//
// One Run is one user turn, single-threaded and synchronous. The model first
// decides whether it needs document context; if it requests the retrieval
// tool, a similarity search feeds a second generation call.
type ragState int

const (
	stateQueryOrRespond ragState = iota
	stateRetrieve
	stateGenerate
	stateDone
)

const retrieveToolName = "retrieve_documents"

const retrievedSnippetLimit = 500

const generateSystemPrompt = `You are an assistant for a construction management platform.
Answer the user's question using the following content retrieved from their uploaded project documents.
If the content does not answer the question, say so instead of guessing.

Retrieved content:
%s`

var retrieveToolDef = ToolDef{
	Type: "function",
	Function: ToolFunction{
		Name:        retrieveToolName,
		Description: "Search the user's uploaded project documents for content relevant to a query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
	},
}

type RAGGraph struct {
	log    *logger.Logger
	models *ModelProvider
	store  VectorStore
}

func NewRAGGraph(log *logger.Logger, models *ModelProvider, store VectorStore) *RAGGraph {
	return &RAGGraph{
		log:    log.With("service", "RAGGraph"),
		models: models,
		store:  store,
	}
}

// Run drives the state machine over the replayed history (ending with the
// new user message) and returns the final assistant text. Backend
// unavailability comes back as a typed ServiceUnavailable error; nothing
// panics out of the graph.
func (g *RAGGraph) Run(ctx context.Context, history []ModelMessage) (string, error) {
	if len(history) == 0 {
		return "", apierr.InvalidInput("empty conversation history")
	}
	client, err := g.models.Client()
	if err != nil {
		return "", err
	}

	state := stateQueryOrRespond
	var answer string
	var toolQuery string
	var retrieved string

	for state != stateDone {
		switch state {
		case stateQueryOrRespond:
			turn, cErr := client.Chat(ctx, history, []ToolDef{retrieveToolDef})
			if cErr != nil {
				return "", apierr.ServiceUnavailable("chat backend call failed: %v", cErr)
			}
			if q, ok := retrievalQuery(turn); ok {
				toolQuery = q
				state = stateRetrieve
				break
			}
			answer = StripThink(turn.Content)
			state = stateDone

		case stateRetrieve:
			retrieved = g.retrieve(ctx, toolQuery)
			state = stateGenerate

		case stateGenerate:
			msgs := append([]ModelMessage{
				{Role: RoleSystem, Content: fmt.Sprintf(generateSystemPrompt, retrieved)},
			}, filterHistory(history)...)
			turn, cErr := client.Chat(ctx, msgs, nil)
			if cErr != nil {
				return "", apierr.ServiceUnavailable("chat backend call failed: %v", cErr)
			}
			answer = StripThink(turn.Content)
			state = stateDone
		}
	}
	return answer, nil
}

// retrievalQuery extracts the query argument when the assistant turn is a
// retrieval tool invocation rather than a direct answer.
func retrievalQuery(turn *ModelMessage) (string, bool) {
	for _, tc := range turn.ToolCalls {
		if tc.Function.Name != retrieveToolName {
			continue
		}
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err == nil {
			if q := strings.TrimSpace(args.Query); q != "" {
				return q, true
			}
		}
	}
	return "", false
}

// retrieve runs the tool: top-3 similarity search, serialized one match per
// block. Retrieval failure degrades to an empty context rather than
// aborting the turn.
func (g *RAGGraph) retrieve(ctx context.Context, query string) string {
	results, err := g.store.Search(ctx, query, 3)
	if err != nil {
		g.log.Warn("Retrieval tool failed", "query", query, "error", err)
		return "No document content could be retrieved."
	}
	if len(results) == 0 {
		return "No matching document content was found."
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		content := r.Content
		// Character limit, not bytes; slicing a rune in half would feed
		// invalid UTF-8 into the generation prompt.
		if runes := []rune(content); len(runes) > retrievedSnippetLimit {
			content = string(runes[:retrievedSnippetLimit])
		}
		blocks = append(blocks, fmt.Sprintf("Document: %s\nContent: %s...", r.Metadata.Filename, content))
	}
	return strings.Join(blocks, "\n\n")
}

// filterHistory keeps user/system messages and assistant messages that are
// not themselves tool invocations; tool plumbing never reaches the final
// generation prompt.
func filterHistory(history []ModelMessage) []ModelMessage {
	out := make([]ModelMessage, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleUser, RoleSystem:
			out = append(out, m)
		case RoleAssistant:
			if len(m.ToolCalls) == 0 && strings.TrimSpace(m.Content) != "" {
				out = append(out, m)
			}
		}
	}
	return out
}
