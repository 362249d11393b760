package strategy

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Strategy
	}{
		{0.9, ContextOnly},
		{0.71, ContextOnly},
		{0.7, BalancedHybrid},
		{0.5, BalancedHybrid},
		{0.41, BalancedHybrid},
		{0.4, ModelPrimary},
		{0.1, ModelPrimary},
		{0.0, ModelPrimary},
	}

	s := NewSelector()
	for _, tt := range tests {
		if got := s.Select(tt.confidence); got != tt.want {
			t.Errorf("Select(%v) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	s := NewSelector()
	kept := []domain.ScoredPassage{
		{Passage: domain.Passage{Text: "first passage"}},
		{Passage: domain.Passage{Text: "second passage"}},
	}

	for _, strat := range []Strategy{ContextOnly, BalancedHybrid, ModelPrimary} {
		prompt := s.BuildPrompt(strat, "what is love", kept)

		if !strings.Contains(prompt, "first passage\n\nsecond passage") {
			t.Errorf("%v prompt missing joined passages:\n%s", strat, prompt)
		}
		if !strings.Contains(prompt, "what is love") {
			t.Errorf("%v prompt missing question", strat)
		}
	}
}

func TestBuildPrompt_TemplatesDiffer(t *testing.T) {
	s := NewSelector()
	kept := []domain.ScoredPassage{{Passage: domain.Passage{Text: "p"}}}

	contextOnly := s.BuildPrompt(ContextOnly, "q", kept)
	balanced := s.BuildPrompt(BalancedHybrid, "q", kept)
	modelPrimary := s.BuildPrompt(ModelPrimary, "q", kept)

	if contextOnly == balanced || balanced == modelPrimary || contextOnly == modelPrimary {
		t.Error("strategy prompts must use distinct templates")
	}
}
