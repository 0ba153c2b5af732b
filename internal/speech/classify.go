package speech

import "strings"

// Outcome classifies a patient's spoken reply to the medication checklist.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeDenied    Outcome = "denied"
	OutcomeUnclear   Outcome = "unclear"
)

var affirmativeKeywords = []string{"yes", "yeah", "yep", "correct", "taken", "took"}

var negativeKeywords = []string{"no", "nope", "not", "haven't", "have not"}

const (
	confirmedReply = "Thank you for confirming. Have a great day!"
	deniedReply    = "Please take your medication now. We will call you back later to confirm."
	unclearReply   = "I did not understand your response. Please try again."
)

// Classify maps a transcript to an outcome plus the reply spoken back to the
// patient. Matching is case-insensitive substring search; when both an
// affirmative and a negative keyword appear, the affirmative wins. This
// precedence is intentional product behavior ("yes, not sure" counts as
// confirmed).
func Classify(transcript string) (Outcome, string) {
	lower := strings.ToLower(transcript)

	for _, kw := range affirmativeKeywords {
		if strings.Contains(lower, kw) {
			return OutcomeConfirmed, confirmedReply
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return OutcomeDenied, deniedReply
		}
	}
	return OutcomeUnclear, unclearReply
}
