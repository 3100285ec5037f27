// score prints the analysis of a transcript file without touching a store.
//
// Usage:
//
//	score [-lexicon phrases.yaml] [-id conversation-id] [transcript.json]
//
// The transcript is read from stdin when no file is given and has the form
// {"messages":[{"sender":"user","text":"...","timestamp":"2024-05-01T10:00:00Z"}]}.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
	"github.com/ashureev/convoscore/internal/scoring"
)

type transcript struct {
	ID       string           `json:"id"`
	Messages []domain.Message `json:"messages"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "score:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	lexiconPath := fs.String("lexicon", "", "YAML or JSON file overriding lexicon categories")
	id := fs.String("id", "", "conversation id to stamp on the result")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lex := lexicon.Default()
	if *lexiconPath != "" {
		var err error
		if lex, err = lexicon.Load(*lexiconPath); err != nil {
			return err
		}
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	var t transcript
	if err := json.NewDecoder(in).Decode(&t); err != nil {
		return fmt.Errorf("decode transcript: %w", err)
	}
	if len(t.Messages) == 0 {
		return errors.New("could not analyze conversation: no messages")
	}
	if *id != "" {
		t.ID = *id
	}
	conv := domain.Conversation{ID: t.ID, Title: "transcript", Messages: t.Messages}
	if err := conv.Validate(); err != nil {
		return err
	}

	result := scoring.NewEngine(lex).Score(conv.Messages).Result(conv.ID)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
