package recognizer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls token post-processing.
type CleanOptions struct {
	NormalizeForm      string            // "NFC" (default), "NFKC", "NFD", "NFKD"
	RemoveControlChars bool              // drop non-printable runes
	RemoveZeroWidth    bool              // drop zero-width spaces and joiners
	ReplaceMap         map[string]string // replacements applied after normalization
	DropNoise          bool              // drop tokens without a single letter or digit
}

// DefaultCleanOptions returns the defaults used for engine output.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFC",
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
		ReplaceMap:         DefaultReplaceMap(),
		DropNoise:          true,
	}
}

// DefaultReplaceMap maps typographic artifacts to their ASCII form.
func DefaultReplaceMap() map[string]string {
	return map[string]string{
		"\u2018": "'",
		"\u2019": "'",
		"\u201C": "\"",
		"\u201D": "\"",
		"\u2013": "-",
		"\u2014": "-",
		"\u00A0": " ",
		"\u2009": " ",
		"\u20AC": "", // euro sign glued to amounts
	}
}

// CleanToken normalizes one token and collapses its whitespace.
func CleanToken(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}
	switch strings.ToUpper(opts.NormalizeForm) {
	case "NFC", "":
		s = norm.NFC.String(s)
	case "NFKC":
		s = norm.NFKC.String(s)
	case "NFD":
		s = norm.NFD.String(s)
	case "NFKD":
		s = norm.NFKD.String(s)
	}
	if opts.RemoveZeroWidth {
		s = removeZeroWidth(s)
	}
	if opts.RemoveControlChars {
		s = removeControlChars(s)
	}
	if len(opts.ReplaceMap) > 0 {
		s = applyReplaceMap(s, opts.ReplaceMap)
	}
	return strings.Join(strings.Fields(s), " ")
}

// CleanTokens cleans every token and drops the ones that end up empty
// (or carry no text when DropNoise is set). Order is preserved.
func CleanTokens(tokens []string, opts CleanOptions) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = CleanToken(t, opts)
		if t == "" || (opts.DropNoise && !hasText(t)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

var phraseSep = regexp.MustCompile(`\s{2,}|\t`)

// SplitText cuts raw engine output into tokens according to mode.
func SplitText(text string, mode TokenMode) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		switch mode {
		case TokenModeLine:
			if l := strings.TrimSpace(line); l != "" {
				out = append(out, l)
			}
		case TokenModeWord:
			out = append(out, strings.Fields(line)...)
		default:
			for _, p := range phraseSep.Split(line, -1) {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

// ReadTokens reads one token per line; blank lines are skipped.
func ReadTokens(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	return out, nil
}

func applyReplaceMap(s string, replaceMap map[string]string) string {
	keys := make([]string, 0, len(replaceMap))
	for k := range replaceMap {
		keys = append(keys, k)
	}
	// longer keys first so overlapping keys replace deterministically
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		s = strings.ReplaceAll(s, k, replaceMap[k])
	}
	return s
}

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func removeZeroWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasText(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
