// Package question classifies questions into typed categories via a
// trigger-phrase rule table, evaluated once per question so downstream
// components never re-scan the raw string.
package question

import "strings"

// Type is the question category consumed by the relevance pipeline.
type Type string

const (
	// Conceptual marks definitional questions, handled with thresholds
	// favoring breadth and recall.
	Conceptual Type = "conceptual"
	// Factual marks everything else.
	Factual Type = "factual"
)

// Rule maps a trigger phrase to a question type.
type Rule struct {
	Trigger string
	Type    Type
}

// DefaultRules returns the built-in trigger table. English and Chinese
// definitional phrases both mark a question conceptual.
func DefaultRules() []Rule {
	return []Rule{
		{Trigger: "what is", Type: Conceptual},
		{Trigger: "define", Type: Conceptual},
		{Trigger: "meaning", Type: Conceptual},
		{Trigger: "explain", Type: Conceptual},
		{Trigger: "why", Type: Conceptual},
		{Trigger: "什么是", Type: Conceptual},
		{Trigger: "什么叫", Type: Conceptual},
		{Trigger: "定义", Type: Conceptual},
		{Trigger: "概念", Type: Conceptual},
		{Trigger: "含义", Type: Conceptual},
		{Trigger: "解释", Type: Conceptual},
		{Trigger: "为什么", Type: Conceptual},
	}
}

// Classifier detects a question's type from a rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier. Empty rules fall back to DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Detect returns the type of the first matching rule, or Factual if none match.
func (c *Classifier) Detect(q string) Type {
	lowered := strings.ToLower(q)
	for _, r := range c.rules {
		if strings.Contains(lowered, strings.ToLower(r.Trigger)) {
			return r.Type
		}
	}
	return Factual
}
