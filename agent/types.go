package agent

import (
	"context"

	"github.com/pedalhaus/pedalhaus/plugin/llm"
	"github.com/pedalhaus/pedalhaus/plugin/vectorstore"
	"github.com/pedalhaus/pedalhaus/store"
)

// Generator is the text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, system string, msgs []llm.Message) (string, error)
}

// Searcher is the knowledge-base search collaborator.
type Searcher interface {
	Search(ctx context.Context, query, sourceID string, k int) ([]vectorstore.Snippet, error)
}

// LeadCreator is the CRM collaborator.
type LeadCreator interface {
	CreateLead(ctx context.Context, name, email, phone string) (string, error)
}

// Memory is the long-term memory collaborator. Both operations are
// best-effort from the orchestrator's perspective.
type Memory interface {
	Recall(ctx context.Context, userID, query string) ([]string, error)
	Store(ctx context.Context, userID, userMsg, assistantMsg string) error
}

// ProductRecord is a catalog product as returned to the API caller.
type ProductRecord struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Brand       string   `json:"brand"`
	PriceEUR    int      `json:"price_eur"`
	KeyFeatures string   `json:"key_features"`
	IntendedUse []string `json:"intended_use"`
}

// promptMessages wraps a rendered prompt as a single user message.
func promptMessages(prompt string) []llm.Message {
	return []llm.Message{{Role: "user", Content: prompt}}
}

// historyMessages converts session turns into generation messages.
func historyMessages(turns []store.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == store.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	return msgs
}

// Result is the structured outcome of one conversation turn.
type Result struct {
	Text        string
	Products    []ProductRecord
	LeadCreated bool
}
