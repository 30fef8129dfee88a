package prompt

import (
	"context"
	"strconv"
	"sync"
)

// Scripted answers prompts from preset values, for non-interactive runs. A
// pick is matched against the options verbatim or as a 1-based index. Each
// text prompt consumes the next alias; running out means the prompt was
// dismissed.
type Scripted struct {
	mu      sync.Mutex
	pick    string
	aliases []string
}

func NewScripted(pick string, aliases []string) *Scripted {
	return &Scripted{pick: pick, aliases: append([]string(nil), aliases...)}
}

func (s *Scripted) PickOne(_ context.Context, options []string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pick == "" {
		return "", false, nil
	}
	for _, opt := range options {
		if opt == s.pick {
			return opt, true, nil
		}
	}
	if n, err := strconv.Atoi(s.pick); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true, nil
	}
	return "", false, nil
}

func (s *Scripted) PromptText(_ context.Context, _ string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.aliases) == 0 {
		return "", false, nil
	}
	alias := s.aliases[0]
	s.aliases = s.aliases[1:]
	return alias, true, nil
}
