package store

import (
	"strings"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// State is a conversation state machine state.
type State string

const (
	StateGreeting          State = "GREETING"
	StateDiscovery         State = "DISCOVERY"
	StateRecommendation    State = "RECOMMENDATION"
	StateInterestConfirmed State = "INTEREST_CONFIRMED"
	StateNameCollected     State = "NAME_COLLECTED"
	StateEmailCollected    State = "EMAIL_COLLECTED"
	StatePhoneCollected    State = "PHONE_COLLECTED"
	StateLeadCreated       State = "LEAD_CREATED"
	StateFAQMode           State = "FAQ_MODE"
)

// Valid reports whether s is a member of the defined state set.
func (s State) Valid() bool {
	switch s {
	case StateGreeting, StateDiscovery, StateRecommendation,
		StateInterestConfirmed, StateNameCollected, StateEmailCollected,
		StatePhoneCollected, StateLeadCreated, StateFAQMode:
		return true
	}
	return false
}

// Turn is a single message within a session.
type Turn struct {
	Role      string    `json:"role"` // "user" | "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectedInfo is the partial lead record captured across turns.
// Fields are empty until captured and are only set after validation.
type CollectedInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Preferences holds customer preferences discovered during the conversation.
type Preferences struct {
	BikeType    string   `json:"bike_type,omitempty"`
	BudgetEUR   int      `json:"budget_eur,omitempty"`
	IntendedUse []string `json:"intended_use,omitempty"`
}

// Session is one conversation between a user and the agent.
type Session struct {
	ID            string        `json:"id"`
	State         State         `json:"state"`
	History       []Turn        `json:"history"`
	Collected     CollectedInfo `json:"collected_info"`
	Preferences   Preferences   `json:"preferences"`
	ShownProducts []int         `json:"shown_products,omitempty"`
	LeadCreated   bool          `json:"lead_created"`
	LeadRef       string        `json:"lead_ref,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	LastActiveAt  time.Time     `json:"last_active_at"`
}

// AppendTurn appends a turn to the history, dropping the oldest entries
// when the history exceeds maxTurns. The turn being appended is never
// dropped.
func (s *Session) AppendTurn(role, text string, maxTurns int) {
	s.History = append(s.History, Turn{Role: role, Text: text, Timestamp: time.Now().UTC()})
	if maxTurns > 0 && len(s.History) > maxTurns {
		s.History = s.History[len(s.History)-maxTurns:]
	}
	s.LastActiveAt = time.Now().UTC()
}

// MarkShown records product ids already presented to the user.
func (s *Session) MarkShown(ids ...int) {
	for _, id := range ids {
		seen := false
		for _, existing := range s.ShownProducts {
			if existing == id {
				seen = true
				break
			}
		}
		if !seen {
			s.ShownProducts = append(s.ShownProducts, id)
		}
	}
}

// Expired reports whether the session idled past the ttl.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(s.LastActiveAt) > ttl
}

// RecentHistory returns the last n turns, oldest first.
func (s *Session) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// UserID identifies the user for the long-term memory collaborator.
// Falls back to the session id until an email is collected.
func (s *Session) UserID() string {
	if email := strings.TrimSpace(s.Collected.Email); email != "" {
		return email
	}
	return s.ID
}
