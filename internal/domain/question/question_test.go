package question

import "testing"

func TestDetect_Conceptual(t *testing.T) {
	c := NewClassifier(nil)

	cases := []string{
		"what is love",
		"What is a programming language?",
		"please define recursion",
		"explain the meaning of TCP slow start",
		"why does the sky look blue",
		"什么是编程语言",
		"为什么天空是蓝色的",
	}
	for _, q := range cases {
		if got := c.Detect(q); got != Conceptual {
			t.Errorf("Detect(%q) = %s, want conceptual", q, got)
		}
	}
}

func TestDetect_Factual(t *testing.T) {
	c := NewClassifier(nil)

	cases := []string{
		"how many moons does Jupiter have",
		"list the HTTP status codes for redirects",
		"when was Go released",
	}
	for _, q := range cases {
		if got := c.Detect(q); got != Factual {
			t.Errorf("Detect(%q) = %s, want factual", q, got)
		}
	}
}

func TestDetect_CustomRules(t *testing.T) {
	c := NewClassifier([]Rule{{Trigger: "qu'est-ce que", Type: Conceptual}})

	if got := c.Detect("Qu'est-ce que l'amour?"); got != Conceptual {
		t.Errorf("custom rule not applied, got %s", got)
	}
	// Default rules are replaced, not merged.
	if got := c.Detect("what is love"); got != Factual {
		t.Errorf("expected factual with custom-only rules, got %s", got)
	}
}
