package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pedalhaus/pedalhaus/plugin/vectorstore"
)

// FAQ topic words given priority during query condensation.
var faqTopics = []string{"warranty", "delivery", "return", "payment", "shipping", "size", "maintenance"}

var questionWords = map[string]bool{
	"what": true, "how": true, "when": true, "where": true, "why": true,
	"can": true, "do": true, "does": true, "is": true, "are": true,
}

// FAQEntry is a parsed question/answer pair from the FAQ source.
type FAQEntry struct {
	Question string
	Answer   string
}

// FAQHandler answers general questions from the FAQ knowledge source.
type FAQHandler struct {
	kb   Searcher
	llm  Generator
	topK int
}

// NewFAQHandler creates an FAQ retrieval handler.
func NewFAQHandler(kb Searcher, llm Generator) *FAQHandler {
	return &FAQHandler{kb: kb, llm: llm, topK: 2}
}

// Search retrieves FAQ entries for the query. Failures and empty result
// sets both yield an empty list, never an error.
func (h *FAQHandler) Search(ctx context.Context, query string) []FAQEntry {
	condensed := CondenseFAQQuery(query)

	snippets, err := h.kb.Search(ctx, condensed, vectorstore.SourceFAQ, h.topK*2)
	if err != nil {
		slog.Warn("faq retrieval failed", "query", condensed, "err", err)
		return nil
	}

	entries := make([]FAQEntry, 0, h.topK)
	for _, sn := range snippets {
		if e, ok := parseFAQ(sn.Content); ok {
			entries = append(entries, e)
		}
		if len(entries) == h.topK {
			break
		}
	}
	return entries
}

// Answer writes a natural-language answer from the retrieved entries.
// Generation failures degrade to the top entry's answer text.
func (h *FAQHandler) Answer(ctx context.Context, query string, entries []FAQEntry) string {
	if len(entries) == 0 {
		return noFAQReply
	}

	prompt := buildFAQPrompt(query, formatFAQEntries(entries))
	text, err := h.llm.Generate(ctx, "You are a helpful customer service assistant.", promptMessages(prompt))
	if err != nil {
		slog.Warn("faq answer generation failed", "err", err)
		return entries[0].Answer
	}
	return text
}

// CondenseFAQQuery reduces a question to 2-5 keywords: known FAQ topics
// first, then content words that are not question words.
func CondenseFAQQuery(query string) string {
	lower := strings.ToLower(query)
	var keywords []string
	for _, topic := range faqTopics {
		if strings.Contains(lower, topic) {
			keywords = append(keywords, topic)
		}
	}
	for _, w := range strings.Fields(lower) {
		w = strings.Trim(w, ".,!?")
		if len(w) > 3 && !questionWords[w] && !containsString(keywords, w) {
			keywords = append(keywords, w)
		}
		if len(keywords) >= 5 {
			break
		}
	}
	if len(keywords) == 0 {
		keywords = []string{"faq"}
	}
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return strings.Join(keywords, " ")
}

// parseFAQ extracts a Q:/A: pair from snippet content. Content without
// that structure becomes a general-information entry.
func parseFAQ(content string) (FAQEntry, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return FAQEntry{}, false
	}

	lines := strings.Split(content, "\n")
	var question string
	var answer strings.Builder
	inAnswer := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Q:") || strings.HasPrefix(line, "Question:"):
			question = strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
			inAnswer = false
		case strings.HasPrefix(line, "A:") || strings.HasPrefix(line, "Answer:"):
			answer.WriteString(strings.TrimSpace(strings.SplitN(line, ":", 2)[1]))
			inAnswer = true
		case inAnswer && line != "":
			answer.WriteString(" " + line)
		}
	}

	if question != "" && answer.Len() > 0 {
		return FAQEntry{Question: question, Answer: answer.String()}, true
	}
	return FAQEntry{Question: "General information", Answer: content}, true
}

func formatFAQEntries(entries []FAQEntry) string {
	var sb strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&sb, "FAQ %d:\nQ: %s\nA: %s\n\n", i+1, e.Question, e.Answer)
	}
	return sb.String()
}
