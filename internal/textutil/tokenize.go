// Package textutil splits free-form English text into sentences and words.
//
// Sentence boundaries come from the punkt model trained on English, so
// abbreviations such as "Mr.", "i.e." and "U.S." do not end a sentence.
package textutil

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	sentenceModel     *sentences.DefaultSentenceTokenizer
	sentenceModelOnce sync.Once
	// sentenceMu serializes Tokenize; the tokenizer does not document
	// itself as safe for concurrent use.
	sentenceMu sync.Mutex
)

func sentenceTokenizer() *sentences.DefaultSentenceTokenizer {
	sentenceModelOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			panic(fmt.Sprintf("textutil: load English sentence model: %v", err))
		}
		sentenceModel = t
	})
	return sentenceModel
}

// Sentences splits text into sentences. Empty fragments are dropped, so empty
// or whitespace-only input yields an empty slice.
func Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tok := sentenceTokenizer()
	sentenceMu.Lock()
	parts := tok.Tokenize(text)
	sentenceMu.Unlock()

	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p.Text); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Fields splits text on whitespace. Punctuation stays attached to its word.
func Fields(text string) []string {
	return strings.Fields(text)
}

// Words returns the word tokens of text: maximal runs of letters, digits and
// inner apostrophes. Punctuation is discarded and case is preserved.
func Words(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’')
	})
	out := tokens[:0]
	for _, t := range tokens {
		t = strings.Trim(t, "'’")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// WordSet returns the distinct lower-cased words of text.
func WordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Words(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
