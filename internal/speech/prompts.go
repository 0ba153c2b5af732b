package speech

import "strings"

// VoicemailMessage is left when a reminder call goes unanswered. The same
// text is sent as the follow-up SMS.
const VoicemailMessage = "We called to check on your medication but couldn't reach you. " +
	"Please call us back or take your medications if you haven't done so."

// MedicationPrompt builds the checklist prompt spoken when the patient
// answers.
func MedicationPrompt(medications []string) string {
	return "Hello, this is a reminder from your healthcare provider to confirm your " +
		"medications for the day. Please confirm if you have taken your " +
		strings.Join(medications, ", ") + " today."
}
