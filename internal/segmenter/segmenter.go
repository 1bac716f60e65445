// Package segmenter turns extracted document text into clause-sized units.
package segmenter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences/english"
)

// MinClauseLength is the exclusive lower bound, in characters, for a clause.
const MinClauseLength = 10

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	anySpace        = regexp.MustCompile(`\s+`)
	// A line that starts a new block rather than continuing the previous one.
	blockStart  = regexp.MustCompile(`^\s*(?:\d+\.|\([a-z\d]+\)|[A-Z\s]{5,})`)
	boilerplate = regexp.MustCompile(`(?i)^(?:Lessor|Lessee|Date:)`)
	enumeration = regexp.MustCompile(`^\s*(?:\d+(?:\.\d+)*\.|\([a-zA-Z\d]+\))\s*`)
)

// SentenceSplitter splits a block of prose into sentences.
type SentenceSplitter interface {
	Split(text string) []string
}

type punkt struct {
	tokenize func(string) []string
}

func (p punkt) Split(text string) []string { return p.tokenize(text) }

// NewPunktSplitter returns a splitter backed by the pre-trained English
// Punkt model.
func NewPunktSplitter() (SentenceSplitter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	return punkt{tokenize: func(text string) []string {
		sents := tok.Tokenize(text)
		out := make([]string, 0, len(sents))
		for _, s := range sents {
			out = append(out, s.Text)
		}
		return out
	}}, nil
}

type Options struct {
	// HeadingAware keeps line breaks that precede numbered items, lettered
	// items and upper-case headings, and splits blocks on them.
	HeadingAware bool
}

type Segmenter struct {
	splitter SentenceSplitter
	opts     Options
}

func New(splitter SentenceSplitter, opts Options) *Segmenter {
	return &Segmenter{splitter: splitter, opts: opts}
}

// NewDefault builds a heading-aware segmenter on the Punkt splitter.
func NewDefault() (*Segmenter, error) {
	sp, err := NewPunktSplitter()
	if err != nil {
		return nil, err
	}
	return New(sp, Options{HeadingAware: true}), nil
}

// Segment returns the clauses of text in document order. Empty input gives
// an empty, non-nil slice. Heading-aware segmenters filter whole blocks
// before sentence splitting; flat ones filter each sentence.
func (s *Segmenter) Segment(text string) []string {
	clauses := []string{}
	keep := func(sent string) {
		sent = strings.TrimSpace(sent)
		if utf8.RuneCountInString(sent) > MinClauseLength {
			clauses = append(clauses, sent)
		}
	}

	if !s.opts.HeadingAware {
		text = strings.TrimSpace(anySpace.ReplaceAllString(text, " "))
		if text == "" {
			return clauses
		}
		for _, sent := range s.splitter.Split(text) {
			if unit, ok := clean(sent); ok {
				keep(unit)
			}
		}
		return clauses
	}

	for _, block := range s.blocks(text) {
		unit, ok := clean(block)
		if !ok {
			continue
		}
		for _, sent := range s.splitter.Split(unit) {
			keep(sent)
		}
	}
	return clauses
}

// clean drops labels and boilerplate and strips a leading enumeration
// marker. It reports false when nothing is left.
func clean(unit string) (string, bool) {
	unit = strings.TrimSpace(unit)
	if unit == "" || isLabel(unit) || boilerplate.MatchString(unit) {
		return "", false
	}
	unit = enumeration.ReplaceAllString(unit, "")
	unit = strings.TrimSpace(anySpace.ReplaceAllString(unit, " "))
	return unit, unit != ""
}

// blocks splits text before numbered items, lettered items and upper-case
// headings, joining the lines in between.
func (s *Segmenter) blocks(text string) []string {
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	var blocks []string
	var cur strings.Builder
	for i, line := range lines {
		if i > 0 && blockStart.MatchString(line) {
			blocks = append(blocks, cur.String())
			cur.Reset()
		} else if i > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(line)
	}
	return append(blocks, cur.String())
}

// isLabel reports a short caption such as "Witnesses:".
func isLabel(block string) bool {
	return len(strings.Fields(block)) < 3 && strings.HasSuffix(block, ":")
}
