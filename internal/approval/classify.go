package approval

import (
	"strings"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
)

// Verdict is how a reply to a pending action is read.
type Verdict int

const (
	Ambiguous Verdict = iota
	Affirmative
	Negative
	NewRequest
)

func (v Verdict) String() string {
	switch v {
	case Affirmative:
		return "affirmative"
	case Negative:
		return "negative"
	case NewRequest:
		return "new_request"
	default:
		return "ambiguous"
	}
}

// Classifier matches replies against keyword lists, case-insensitively.
// ASCII tokens must appear as whole words so "ok" does not fire on "look";
// other tokens match as substrings since Hebrew attaches prefixes to words.
type Classifier struct {
	affirmative []string
	negative    []string
	newRequest  []string
}

func NewClassifier(k config.Keywords) *Classifier {
	return &Classifier{
		affirmative: lowerAll(k.Affirmative),
		negative:    lowerAll(k.Negative),
		newRequest:  lowerAll(k.NewRequest),
	}
}

// Classify checks affirmative first, then negative, then new-request.
func (c *Classifier) Classify(text string) Verdict {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, c.affirmative):
		return Affirmative
	case containsAny(lower, c.negative):
		return Negative
	case containsAny(lower, c.newRequest):
		return NewRequest
	default:
		return Ambiguous
	}
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if isASCII(t) {
			if containsWord(s, t) {
				return true
			}
			continue
		}
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in s with no ASCII letter or
// digit directly before or after it.
func containsWord(s, word string) bool {
	for i := 0; i <= len(s)-len(word); {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if !isWordByte(s, start-1) && !isWordByte(s, end) {
			return true
		}
		i = start + 1
	}
	return false
}

func isWordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func lowerAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
