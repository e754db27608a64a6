package agent

import "strings"

// Short affirmations that count as buying interest, but only right after a
// recommendation and only in very short messages.
var contextualAffirmations = []string{
	"yes", "perfect", "great", "good", "that works", "sounds good", "definitely",
}

// DetectInterest reports whether the message signals buying interest.
// hasRecommendations widens detection to short affirmations once products
// have been shown.
func DetectInterest(message string, hasRecommendations bool) bool {
	lower := strings.ToLower(message)

	if containsAny(lower, interestKeywords) {
		return true
	}

	if hasRecommendations && len(strings.Fields(lower)) <= 3 {
		for _, kw := range contextualAffirmations {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
