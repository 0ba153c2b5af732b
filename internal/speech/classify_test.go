package speech

import (
	"strings"
	"testing"
)

func TestClassify_AffirmativeKeywords(t *testing.T) {
	for _, in := range []string{
		"yes",
		"Yes I have",
		"yeah, all of them",
		"yep",
		"that is correct",
		"I have taken them",
		"took them this morning",
	} {
		outcome, reply := Classify(in)
		if outcome != OutcomeConfirmed {
			t.Fatalf("expected confirmed for %q, got %q", in, outcome)
		}
		if reply == "" {
			t.Fatalf("expected reply message for %q", in)
		}
	}
}

func TestClassify_NegativeKeywords(t *testing.T) {
	for _, in := range []string{
		"Nope",
		"I haven't",
		"have not had the chance",
	} {
		outcome, _ := Classify(in)
		if outcome != OutcomeDenied {
			t.Fatalf("expected denied for %q, got %q", in, outcome)
		}
	}
}

func TestClassify_Unclear(t *testing.T) {
	for _, in := range []string{"", "what?", "maybe later", "banana"} {
		outcome, _ := Classify(in)
		if outcome != OutcomeUnclear {
			t.Fatalf("expected unclear for %q, got %q", in, outcome)
		}
	}
}

func TestClassify_AffirmativeWinsOverNegative(t *testing.T) {
	// Documented precedence: the affirmative check runs first.
	outcome, _ := Classify("yes, not sure")
	if outcome != OutcomeConfirmed {
		t.Fatalf("expected confirmed, got %q", outcome)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	outcome, _ := Classify("YES I TOOK THEM")
	if outcome != OutcomeConfirmed {
		t.Fatalf("expected confirmed, got %q", outcome)
	}
}

func TestMedicationPrompt(t *testing.T) {
	p := MedicationPrompt([]string{"Aspirin", "Metformin"})
	if want := "Aspirin, Metformin"; !strings.Contains(p, want) {
		t.Fatalf("expected %q in prompt: %s", want, p)
	}
	if !strings.Contains(p, "reminder from your healthcare provider") {
		t.Fatalf("unexpected prompt: %s", p)
	}
}
