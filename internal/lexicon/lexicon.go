// Package lexicon holds the keyword lists the scoring engine matches against.
//
// Lists are plain configuration data keyed by category so they can be replaced
// or localized from a file without touching any analyzer.
package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category names a phrase list.
type Category string

const (
	Empathy     Category = "empathy"
	Resolution  Category = "resolution"
	Frustration Category = "frustration"
	Fallback    Category = "fallback"
	Greeting    Category = "greeting"
)

// Categories lists every category the engine consults.
var Categories = []Category{Empathy, Resolution, Frustration, Fallback, Greeting}

// Set maps each category to its phrases.
type Set map[Category][]string

// Default returns the built-in English lexicon.
func Default() Set {
	return Set{
		Empathy: {
			"understand", "sorry", "apologize", "help",
			"appreciate", "thank", "please", "would you",
		},
		Resolution: {
			"solved", "resolved", "fixed", "completed", "done",
			"helped", "thank you", "thanks", "great", "perfect",
		},
		Frustration: {
			"not working", "still not", "wrong", "incorrect",
			"frustrated", "angry", "upset", "escalate", "supervisor",
			"manager", "not helping", "useless",
		},
		Fallback: {
			"i don't know", "i'm not sure", "i cannot", "i can't",
			"unable to", "don't understand", "cannot help",
		},
		Greeting: {"hello", "hi", "thanks", "thank you"},
	}
}

// Load reads a YAML (or JSON) file of category -> phrases and merges it over
// the defaults. Categories absent from the file keep their built-in phrases.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lexicon file: %w", err)
	}

	set := Default()
	for name, phrases := range raw {
		cat := Category(strings.ToLower(strings.TrimSpace(name)))
		if !cat.known() {
			return nil, fmt.Errorf("unknown lexicon category %q", name)
		}
		set[cat] = phrases
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate ensures every category has at least one non-blank phrase.
func (s Set) Validate() error {
	for _, cat := range Categories {
		phrases, ok := s[cat]
		if !ok || len(phrases) == 0 {
			return fmt.Errorf("lexicon category %q is empty", cat)
		}
		for _, p := range phrases {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("lexicon category %q contains a blank phrase", cat)
			}
		}
	}
	return nil
}

// Matcher returns a case-insensitive matcher for one category. Entries that
// differ only in case or surrounding space collapse into one phrase.
func (s Set) Matcher(cat Category) Matcher {
	seen := make(map[string]struct{}, len(s[cat]))
	phrases := make([]string, 0, len(s[cat]))
	for _, p := range s[cat] {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	return Matcher{phrases: phrases}
}

func (c Category) known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Matcher tests text for case-insensitive substring presence of phrases.
type Matcher struct {
	phrases []string
}

// ContainsAny reports whether any phrase occurs in text.
func (m Matcher) ContainsAny(text string) bool {
	text = strings.ToLower(text)
	for _, p := range m.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// CountPresent returns how many distinct phrases occur in text. A phrase that
// appears several times is counted once.
func (m Matcher) CountPresent(text string) int {
	text = strings.ToLower(text)
	n := 0
	for _, p := range m.phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}
