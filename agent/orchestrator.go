package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/pedalhaus/pedalhaus/store"
)

// Orchestrator coordinates one conversation turn: classify the message,
// dispatch to a handler, mutate the session, produce a structured result.
// All collaborator failures are degraded inside the turn; the only error
// surfaced to the caller is store.ErrSessionNotFound.
type Orchestrator struct {
	sessions   *store.Store
	classifier *Classifier
	products   *ProductHandler
	faq        *FAQHandler
	llm        Generator
	crm        LeadCreator
	memory     Memory // nil disables recall/persist
}

// New creates an orchestrator wired to its collaborators. memory may be
// nil.
func New(sessions *store.Store, kb Searcher, llm Generator, crm LeadCreator, memory Memory) *Orchestrator {
	return &Orchestrator{
		sessions:   sessions,
		classifier: NewClassifier(llm),
		products:   NewProductHandler(kb, llm),
		faq:        NewFAQHandler(kb, llm),
		llm:        llm,
		crm:        crm,
		memory:     memory,
	}
}

// WelcomeMessage is the assistant's opening line for a new conversation.
func WelcomeMessage() string { return welcomeMessage }

// ProcessMessage runs one turn for the session. It returns
// store.ErrSessionNotFound when the session is unknown or expired.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, message string) (*Result, error) {
	var res Result
	_, err := o.sessions.Update(ctx, sessionID, func(sess *store.Session) error {
		o.processTurn(ctx, sess, message, &res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (o *Orchestrator) processTurn(ctx context.Context, sess *store.Session, message string, res *Result) {
	maxTurns := o.sessions.MaxTurns()
	sess.AppendTurn(store.RoleUser, message, maxTurns)

	intent := o.classifier.Classify(ctx, message, sess.RecentHistory(4))
	slog.Info("turn", "session", sess.ID, "state", sess.State, "intent", intent)

	userID := sess.UserID()

	switch {
	case intent == IntentFAQQuestion:
		o.handleFAQ(ctx, sess, message, res)

	case inLeadFlow(sess.State) || intent == IntentLeadInfo:
		o.handleLeadCollection(ctx, sess, message, res)

	case sess.State == store.StateRecommendation &&
		(intent == IntentInterestSignal || DetectInterest(message, len(sess.ShownProducts) > 0)):
		sess.State = store.StateInterestConfirmed
		res.Text = askNamePrompt

	case intent == IntentProductInquiry || intent == IntentInterestSignal:
		// Interest voiced before any recommendation is treated as a
		// product inquiry; there is nothing to confirm yet.
		o.handleProductInquiry(ctx, sess, message, res)

	default:
		o.handleChitchat(ctx, sess, message, res)
	}

	sess.AppendTurn(store.RoleAssistant, res.Text, maxTurns)
	res.LeadCreated = sess.LeadCreated
	o.rememberAsync(userID, message, res.Text)
}

// inLeadFlow reports whether the state is in the middle of lead
// collection or submission. FAQ questions still interrupt this flow; any
// other message is treated as input for the pending field. LEAD_CREATED
// is not part of the flow: once the lead exists the conversation routes
// normally again.
func inLeadFlow(s store.State) bool {
	switch s {
	case store.StateInterestConfirmed, store.StateNameCollected,
		store.StateEmailCollected, store.StatePhoneCollected:
		return true
	}
	return false
}

func (o *Orchestrator) handleProductInquiry(ctx context.Context, sess *store.Session, message string, res *Result) {
	ExtractPreferences(message, &sess.Preferences)

	products := o.products.Search(ctx, message, sess.Preferences.BudgetEUR)
	if len(products) == 0 {
		res.Text = noProductsReply
		return
	}

	recall := o.recallMemories(ctx, sess, message)
	res.Text = o.products.Recommend(ctx, message, products, sess.Preferences, recall)
	res.Products = products

	for _, p := range products {
		sess.MarkShown(p.ID)
	}
	if sess.State == store.StateGreeting || sess.State == store.StateDiscovery {
		sess.State = store.StateRecommendation
	}
}

// handleFAQ answers from the FAQ source. FAQ_MODE is transient: the prior
// state is restored before the turn ends, whatever it was.
func (o *Orchestrator) handleFAQ(ctx context.Context, sess *store.Session, message string, res *Result) {
	prior := sess.State
	sess.State = store.StateFAQMode
	defer func() { sess.State = prior }()

	entries := o.faq.Search(ctx, message)
	res.Text = o.faq.Answer(ctx, message, entries)
}

func (o *Orchestrator) handleChitchat(ctx context.Context, sess *store.Session, message string, res *Result) {
	if sess.State == store.StateGreeting {
		// First contact: greet and move on to discovering needs.
		sess.State = store.StateDiscovery
		res.Text = greetingChitchatReply
		return
	}

	recall := o.recallMemories(ctx, sess, message)
	system := buildSystemPrompt(sess, recall)
	text, err := o.llm.Generate(ctx, system, historyMessages(sess.RecentHistory(6)))
	if err != nil {
		slog.Warn("chitchat generation failed", "err", err)
		res.Text = genericChitchatReply
		return
	}
	res.Text = text
}

// handleLeadCollection advances the name → email → phone sub-machine by
// one step. Validation failures re-prompt the same field without touching
// state; the CRM is called at most once per turn, guarded by LeadCreated.
func (o *Orchestrator) handleLeadCollection(ctx context.Context, sess *store.Session, message string, res *Result) {
	switch sess.State {
	case store.StateInterestConfirmed:
		name, err := ExtractName(message)
		if err != nil {
			res.Text = validationReply(err)
			return
		}
		sess.Collected.Name = name
		sess.State = store.StateNameCollected
		res.Text = askEmailPrompt(name)

	case store.StateNameCollected:
		email, err := ExtractEmail(message)
		if err != nil {
			res.Text = validationReply(err)
			return
		}
		sess.Collected.Email = email
		sess.State = store.StateEmailCollected
		// Required fields are now complete; submit without waiting for
		// the optional phone number.
		o.submitLead(ctx, sess)
		res.Text = askPhonePrompt

	case store.StateEmailCollected:
		if isSkip(message) {
			o.finishLead(ctx, sess, res)
			return
		}
		phone, err := ExtractPhone(message)
		if err != nil {
			// A repeated email while submission is still pending
			// re-enters the submission path instead of complaining
			// about the phone.
			if _, emailErr := ExtractEmail(message); emailErr == nil && !sess.LeadCreated {
				o.submitLead(ctx, sess)
				res.Text = askPhonePrompt
				return
			}
			res.Text = validationReply(err)
			return
		}
		sess.Collected.Phone = phone
		o.finishLead(ctx, sess, res)

	case store.StatePhoneCollected:
		// Submission still pending from an earlier failure.
		o.finishLead(ctx, sess, res)

	case store.StateLeadCreated:
		// Contact details volunteered again after the lead exists.
		res.Text = confirmLeadPrompt(sess.Collected.Name)

	default:
		// Contact details volunteered before any interest was confirmed.
		res.Text = "Let me help you find the perfect bike first. What are you looking for?"
	}
}

// finishLead closes the collection flow: the phone step is done (captured
// or skipped), so attempt submission if still pending and settle the
// final state.
func (o *Orchestrator) finishLead(ctx context.Context, sess *store.Session, res *Result) {
	sess.State = store.StatePhoneCollected
	if o.submitLead(ctx, sess) {
		sess.State = store.StateLeadCreated
		res.Text = confirmLeadPrompt(sess.Collected.Name)
		return
	}
	// CRM unavailable: hold the pre-created state so a later turn can
	// retry, and promise a manual follow-up.
	res.Text = manualFollowupPrompt(sess.Collected.Name, sess.LeadRef)
}

// submitLead calls the CRM exactly once per turn and never twice for one
// session: LeadCreated guards re-entry.
func (o *Orchestrator) submitLead(ctx context.Context, sess *store.Session) bool {
	if sess.LeadCreated {
		return true
	}
	if sess.LeadRef == "" {
		sess.LeadRef = shortuuid.New()[:8]
	}
	id, err := o.crm.CreateLead(ctx, sess.Collected.Name, sess.Collected.Email, sess.Collected.Phone)
	if err != nil {
		slog.Warn("crm lead submission failed", "session", sess.ID, "err", err)
		return false
	}
	if id != "" {
		sess.LeadRef = id
	}
	sess.LeadCreated = true
	slog.Info("lead created", "session", sess.ID, "lead", sess.LeadRef)
	return true
}

func (o *Orchestrator) recallMemories(ctx context.Context, sess *store.Session, query string) []string {
	if o.memory == nil {
		return nil
	}
	mems, err := o.memory.Recall(ctx, sess.UserID(), query)
	if err != nil {
		slog.Debug("memory recall failed", "err", err)
		return nil
	}
	return mems
}

// rememberAsync persists the turn pair after the reply is computed. Runs
// detached from the request; failures only reach the log.
func (o *Orchestrator) rememberAsync(userID, userMsg, reply string) {
	if o.memory == nil || reply == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.memory.Store(ctx, userID, userMsg, reply); err != nil {
			slog.Warn("memory store failed", "user", userID, "err", err)
		}
	}()
}

func validationReply(err error) string {
	if verr, ok := err.(*ValidationError); ok {
		return verr.Reply
	}
	return apologyReply
}

func isSkip(message string) bool {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(message), ".,!?")) {
	case "skip", "no", "no thanks", "rather not", "none":
		return true
	}
	return false
}
