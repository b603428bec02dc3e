// Package preview builds short, local previews of extracted document text:
// a frequency-ranked digest and query-term matching for chunk highlighting.
package preview

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	stopwords  = newStopwords()
)

// Sentences splits text into trimmed sentences. A trailing fragment without
// terminal punctuation is kept as the last sentence.
func Sentences(text string) []string {
	spans := sentenceSpans(text)
	if len(spans) == 0 {
		return nil
	}
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = text[sp[0]:sp[1]]
	}
	return out
}

// sentenceSpans returns the byte ranges of the trimmed sentences in text,
// covering the tail after the last terminator too.
func sentenceSpans(text string) [][2]int {
	var spans [][2]int
	add := func(start, end int) {
		seg := text[start:end]
		trimmed := strings.TrimLeftFunc(seg, unicode.IsSpace)
		start += len(seg) - len(trimmed)
		end = start + len(strings.TrimRightFunc(trimmed, unicode.IsSpace))
		if end > start {
			spans = append(spans, [2]int{start, end})
		}
	}
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		add(last, loc[1])
		last = loc[1]
	}
	add(last, len(text))
	return spans
}

// Digest picks up to maxSentences sentences that best represent text, scored
// by normalised word frequency with stopwords removed. The chosen sentences
// keep their original order.
func Digest(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := Sentences(text)
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " ")
	}

	freq := map[string]float64{}
	for _, s := range sentences {
		for _, tok := range tokens(s) {
			if _, ok := stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, s := range sentences {
		toks := tokens(s)
		total := 0.0
		for _, tok := range toks {
			total += freq[tok]
		}
		// long sentences would otherwise always win
		if n := float64(len(toks)); n > 0 {
			total /= math.Sqrt(n)
		}
		scores[i] = scored{i, total}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	picked := make([]int, maxSentences)
	for i := range picked {
		picked[i] = scores[i].idx
	}
	sort.Ints(picked)
	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

// BestMatch returns the byte range of the sentence in text sharing the most
// distinct words with query. start is -1 when query has no words or nothing
// overlaps. Offsets index into text itself, so callers can decorate the match
// and leave the rest untouched.
func BestMatch(text, query string) (start, end int) {
	q := tokenSet(query)
	if len(q) == 0 {
		return -1, -1
	}
	start, end = -1, -1
	bestScore := 0
	for _, sp := range sentenceSpans(text) {
		if score := overlap(q, text[sp[0]:sp[1]]); score > bestScore {
			start, end, bestScore = sp[0], sp[1], score
		}
	}
	return start, end
}

func tokens(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

func tokenSet(s string) map[string]struct{} {
	toks := tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	seen := map[string]struct{}{}
	for _, t := range tokens(sentence) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}

func newStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
