package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pedalhaus/pedalhaus/store"
)

// Intent is the classified purpose of a single user message.
type Intent string

const (
	IntentProductInquiry Intent = "product_inquiry"
	IntentFAQQuestion    Intent = "faq_question"
	IntentLeadInfo       Intent = "lead_info"
	IntentInterestSignal Intent = "interest_signal"
	IntentChitchat       Intent = "chitchat"
)

// Keyword heuristics per intent. These word lists are tuning data, not
// architecture; adjust freely.
var (
	productKeywords = []string{
		"bike", "bicycle", "mountain", "road", "city", "electric", "ebike",
		"recommend", "looking for", "price", "cost", "gravel", "hybrid",
	}
	faqKeywords = []string{
		"warranty", "delivery", "ship", "return", "payment", "financing",
		"repair", "maintenance", "insurance", "spare parts",
	}
	interestKeywords = []string{
		"interested", "buy", "purchase", "order", "like this", "want this",
		"i'll take", "looks perfect", "sounds great", "that's the one",
	}
	leadPhrases = []string{"my name is", "my email", "my phone", "my number"}
)

// Classifier assigns exactly one Intent to a user message. The keyword
// tier is deterministic; the LLM tier is a fallback and its failure never
// fails the turn.
type Classifier struct {
	llm Generator // may be nil; heuristics-only then
}

// NewClassifier creates an intent classifier. llm may be nil to disable
// the LLM fallback tier.
func NewClassifier(llm Generator) *Classifier {
	return &Classifier{llm: llm}
}

// Classify returns the intent for message given minimal recent history.
func (c *Classifier) Classify(ctx context.Context, message string, history []store.Turn) Intent {
	lower := strings.ToLower(message)

	// Lead-info patterns override everything: a message carrying an email
	// address or a phone-shaped token is always lead_info, regardless of
	// what other keywords it happens to contain.
	if containsLeadInfo(lower) {
		return IntentLeadInfo
	}

	if containsAny(lower, interestKeywords) {
		return IntentInterestSignal
	}
	if containsAny(lower, faqKeywords) {
		return IntentFAQQuestion
	}
	if containsAny(lower, productKeywords) {
		return IntentProductInquiry
	}

	return c.classifyWithLLM(ctx, message, history)
}

// containsLeadInfo reports whether the message unambiguously carries
// contact details: an email address, a phone-shaped token, or a
// name-introduction phrase.
func containsLeadInfo(lower string) bool {
	if emailRe.MatchString(lower) {
		return true
	}
	if phoneExactRe.MatchString(stripPhoneSeparators(lower)) {
		return true
	}
	for _, p := range leadPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// classifyWithLLM asks the generation collaborator for a single label.
// Any failure falls back to chitchat; the generic reply path handles it.
func (c *Classifier) classifyWithLLM(ctx context.Context, message string, history []store.Turn) Intent {
	if c.llm == nil {
		return IntentChitchat
	}
	out, err := c.llm.Generate(ctx, intentExamples, promptMessages(buildIntentPrompt(message, history)))
	if err != nil {
		slog.Warn("intent classification failed", "err", err)
		return IntentChitchat
	}
	return parseIntentLabel(out)
}

func parseIntentLabel(out string) Intent {
	lower := strings.ToLower(out)
	for _, intent := range []Intent{
		IntentProductInquiry, IntentFAQQuestion, IntentLeadInfo,
		IntentInterestSignal, IntentChitchat,
	} {
		if strings.Contains(lower, string(intent)) {
			return intent
		}
	}
	slog.Warn("unparseable intent label, defaulting to chitchat", "label", out)
	return IntentChitchat
}
