// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/outreach-agent/internal/llm"
)

// Reply is one scripted model answer
type Reply struct {
	Text string
	Err  error
}

// Scripted replays replies in order and records every prompt it receives.
// When Respond is set it takes precedence over the queued replies.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	Respond func(prompt string) (string, error)
	Prompts []string
	Tiers   []llm.ModelTier
	Closed  bool
}

// New returns a client that answers with the given texts in order
func New(texts ...string) *Scripted {
	s := &Scripted{}
	for _, t := range texts {
		s.replies = append(s.replies, Reply{Text: t})
	}
	return s
}

// Queue appends a reply
func (s *Scripted) Queue(r Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, r)
	return s
}

// GenerateContent implements llm.Client
func (s *Scripted) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, prompt)
	s.Tiers = append(s.Tiers, tier)

	if s.Respond != nil {
		return s.Respond(prompt)
	}
	if len(s.replies) == 0 {
		return "", fmt.Errorf("llmtest: no scripted reply for call %d", len(s.Prompts))
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.Text, r.Err
}

// Calls returns how many prompts were sent
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}

// GetModel implements llm.Client
func (s *Scripted) GetModel(tier llm.ModelTier) string {
	return "scripted-" + string(tier)
}

// Close implements llm.Client
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}
