package moderation

import (
	"guard-lab/errors"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Screener matches message text against a banned-word dictionary.
// Matching is noise-tolerant: punctuation, spacing, and common
// leet-speak substitutions inside a word do not defeat it.
type Screener struct {
	machine     *goahocorasick.Machine
	replacement rune
}

func NewScreener(words []string, replacement rune) (*Screener, error) {
	if len(words) == 0 {
		return nil, errors.ErrEmptyDictionary
	}
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		folded, _ := fold(word)
		if len(folded) == 0 {
			continue
		}
		patterns = append(patterns, folded)
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyDictionary
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Screener{machine: machine, replacement: replacement}, nil
}

// Screen returns the censored rendition of text and whether any banned
// word was found. Replacement covers the full original span of each
// hit, noise characters included, so spacing is preserved.
func (s *Screener) Screen(text string) (string, bool) {
	folded, sourceIdx := fold(text)
	if len(folded) == 0 {
		return text, false
	}
	hits := s.machine.MultiPatternSearch(folded, false)
	if len(hits) == 0 {
		return text, false
	}

	runes := []rune(text)
	for _, hit := range hits {
		start := hit.Pos
		end := start + len(hit.Word)
		if start < 0 || end > len(sourceIdx) {
			continue
		}
		for i := sourceIdx[start]; i <= sourceIdx[end-1]; i++ {
			runes[i] = s.replacement
		}
	}
	return string(runes), true
}

// fold lowercases, undoes leet substitutions, and strips noise runes,
// keeping a map from folded positions back to the original rune index.
func fold(text string) ([]rune, []int) {
	source := []rune(text)
	folded := make([]rune, 0, len(source))
	sourceIdx := make([]int, 0, len(source))
	for i, r := range source {
		if mapped, ok := leetFold[r]; ok {
			r = mapped
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		folded = append(folded, unicode.ToLower(r))
		sourceIdx = append(sourceIdx, i)
	}
	return folded, sourceIdx
}

var leetFold = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}
