package agent

import (
	"fmt"
	"strings"

	"github.com/pedalhaus/pedalhaus/store"
)

// Canned replies used when a collaborator fails or returns nothing.
const (
	welcomeMessage = "Hello! I'm your bike shop assistant. What type of bike are you looking for today?"

	apologyReply = "I apologize, but I encountered an error. Could you please try again?"

	noProductsReply = "I couldn't find any bikes matching your criteria. Could you tell me more about what you're looking for?"

	noFAQReply = "I'm not sure about that. Could you rephrase your question or contact our customer service?"

	greetingChitchatReply = "Hello! I'm here to help you find the perfect bike. What type of bike are you looking for?"

	genericChitchatReply = "I'm here to help you find the perfect bike. Is there anything specific you'd like to know about our bikes or services?"
)

// Lead collection prompts.
const (
	askNamePrompt  = "Great! To help you further, may I have your name?"
	askPhonePrompt = "Perfect! And your phone number? (You can say \"skip\" if you prefer not to share it.)"
)

func askEmailPrompt(name string) string {
	return fmt.Sprintf("Thanks %s! What's your email address?", name)
}

func confirmLeadPrompt(name string) string {
	return fmt.Sprintf("Excellent, %s! I've created your profile. A sales consultant will reach out to you within 24 hours. Is there anything else I can help you with today?", name)
}

func manualFollowupPrompt(name, ref string) string {
	return fmt.Sprintf("Thank you, %s! I've noted your details (reference %s). A sales consultant will contact you soon.", name, ref)
}

const systemPromptTemplate = `You are a friendly and knowledgeable sales agent for an online bike shop.

Your goals:
1. Understand customer needs (bike type, budget, intended use)
2. Recommend bikes from the catalog using the retrieved information
3. Answer general questions from the FAQ knowledge base
4. Collect customer details (name, email, phone) when interest is confirmed

Guidelines:
- Be conversational and helpful
- Ask clarifying questions when needed
- Use retrieved product/FAQ data - don't hallucinate
- Keep responses concise (2-3 sentences)
- When showing products, include name, price, and key features

Current conversation state: %s
Customer preferences: %s
Customer info collected: %s`

// buildSystemPrompt renders the system prompt for generic replies.
func buildSystemPrompt(sess *store.Session, recall []string) string {
	var prefs []string
	if sess.Preferences.BikeType != "" {
		prefs = append(prefs, "Type: "+sess.Preferences.BikeType)
	}
	if sess.Preferences.BudgetEUR > 0 {
		prefs = append(prefs, fmt.Sprintf("Budget: €%d", sess.Preferences.BudgetEUR))
	}
	if len(sess.Preferences.IntendedUse) > 0 {
		prefs = append(prefs, "Use: "+strings.Join(sess.Preferences.IntendedUse, ", "))
	}
	prefsStr := "Not yet determined"
	if len(prefs) > 0 {
		prefsStr = strings.Join(prefs, ", ")
	}

	var collected []string
	if sess.Collected.Name != "" {
		collected = append(collected, "Name: "+sess.Collected.Name)
	}
	if sess.Collected.Email != "" {
		collected = append(collected, "Email: "+sess.Collected.Email)
	}
	if sess.Collected.Phone != "" {
		collected = append(collected, "Phone: "+sess.Collected.Phone)
	}
	collectedStr := "None"
	if len(collected) > 0 {
		collectedStr = strings.Join(collected, ", ")
	}

	prompt := fmt.Sprintf(systemPromptTemplate, sess.State, prefsStr, collectedStr)
	if len(recall) > 0 {
		prompt += "\n\nWhat you remember about this customer from earlier conversations:\n- " +
			strings.Join(recall, "\n- ")
	}
	return prompt
}

const intentExamples = `Examples:

Message: "I need a mountain bike for trail riding"
Intent: product_inquiry

Message: "What's the warranty on electric bikes?"
Intent: faq_question

Message: "My name is John Doe"
Intent: lead_info

Message: "The Trailblazer 500 looks perfect!"
Intent: interest_signal

Message: "Hello!"
Intent: chitchat

Message: "Do you ship to Austria?"
Intent: faq_question

Message: "I'm interested in the Urban Cruiser"
Intent: interest_signal

Message: "john@example.com"
Intent: lead_info`

const intentPromptTemplate = `Classify the user's intent from their message.

Intent types:
1. product_inquiry: User wants bike recommendations or asks about bike features
2. faq_question: General question about delivery, warranty, payment, services, etc.
3. lead_info: User provides personal details (name, email, phone)
4. interest_signal: User shows buying intent ("I like this", "interested", "want to buy")
5. chitchat: Greeting, small talk, off-topic

User message: "%s"

Recent context:
%s

Respond with ONLY the intent type, exactly one of the 5 labels above.`

// buildIntentPrompt renders the LLM fallback classification prompt with up
// to two turns of recent context.
func buildIntentPrompt(message string, history []store.Turn) string {
	var lines []string
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	for _, t := range history[start:] {
		switch t.Role {
		case store.RoleUser:
			lines = append(lines, "User: "+t.Text)
		case store.RoleAssistant:
			lines = append(lines, "Assistant: "+t.Text)
		}
	}
	contextStr := "No prior context"
	if len(lines) > 0 {
		contextStr = strings.Join(lines, "\n")
	}
	return fmt.Sprintf(intentPromptTemplate, message, contextStr)
}

const recommendationPromptTemplate = `Based on the customer's needs, recommend the most suitable bikes from the search results.

Customer query: "%s"
Customer preferences:
- Type: %s
- Budget: %s
- Intended use: %s

Retrieved products:
%s

Provide a natural, conversational response recommending the top 2-3 bikes. Include:
- Product name and price
- Key features that match their needs
- Why it's a good fit

Use only the products listed above. Do not invent bikes or attributes.
Keep it concise and friendly.`

func buildRecommendationPrompt(query string, prefs store.Preferences, products string) string {
	bikeType := prefs.BikeType
	if bikeType == "" {
		bikeType = "Not specified"
	}
	budget := "Not specified"
	if prefs.BudgetEUR > 0 {
		budget = fmt.Sprintf("€%d", prefs.BudgetEUR)
	}
	use := "Not specified"
	if len(prefs.IntendedUse) > 0 {
		use = strings.Join(prefs.IntendedUse, ", ")
	}
	return fmt.Sprintf(recommendationPromptTemplate, query, bikeType, budget, use, products)
}

const faqPromptTemplate = `Answer the customer's question using the FAQ information provided.

Customer question: "%s"

Relevant FAQ entries:
%s

Provide a natural, helpful answer based on the FAQ. Don't add information not in the FAQ.
Keep it concise (2-3 sentences).`

func buildFAQPrompt(query, entries string) string {
	return fmt.Sprintf(faqPromptTemplate, query, entries)
}
