package receipt

// DefaultFuzzyThreshold is the share of keyword characters that must match.
const DefaultFuzzyThreshold = 0.6

// Matcher classifies tokens against keywords by positional character
// agreement. It tolerates substitutions and trailing garbage but not a
// shifted start, and scores against the keyword length only.
type Matcher struct {
	Threshold float64
}

// Score returns the number of positions where token and keyword agree,
// divided by the keyword length.
func (m Matcher) Score(token, keyword string) float64 {
	kw := []rune(keyword)
	if len(kw) == 0 {
		return 0
	}
	tok := []rune(token)
	hits := 0
	for i := range min(len(tok), len(kw)) {
		if tok[i] == kw[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(kw))
}

// Match reports whether token is close enough to keyword.
func (m Matcher) Match(token, keyword string) bool {
	return m.Score(token, keyword) >= m.Threshold
}

// IsLike matches with the default threshold.
func IsLike(token, keyword string) bool {
	return Matcher{Threshold: DefaultFuzzyThreshold}.Match(token, keyword)
}
