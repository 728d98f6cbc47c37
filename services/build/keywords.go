package build

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	wordsPerMinute = 200

	// IndexKeywordLimit is used for records of the search index,
	// MetadataKeywordLimit for the metadata file and SEO block.
	IndexKeywordLimit    = 15
	MetadataKeywordLimit = 10
)

var keywordRegex = regexp.MustCompile(`\b[a-z]{4,}\b`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"of": {}, "with": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "should": {},
	"can": {}, "could": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"what": {}, "which": {}, "who": {}, "when": {}, "where": {}, "why": {}, "how": {}, "all": {}, "each": {},
	"every": {}, "both": {}, "few": {}, "more": {}, "most": {}, "other": {}, "some": {}, "such": {},
}

func isStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

type wordCount struct {
	word  string
	count int
}

// ExtractKeywords returns the most frequent words of four or more letters in
// the title and body, most frequent first with ties in order of first
// appearance. The lowercased category, when given, is prepended and may
// appear again among the ranked words.
func ExtractKeywords(title string, body string, category string, limit int) []string {
	text := strings.ToLower(title + " " + StripHTML(body))
	category = strings.ToLower(category)

	counts := []wordCount{}
	positions := map[string]int{}
	for _, word := range keywordRegex.FindAllString(text, -1) {
		if isStopWord(word) {
			continue
		}
		if i, seen := positions[word]; seen {
			counts[i].count++
			continue
		}
		positions[word] = len(counts)
		counts = append(counts, wordCount{word: word, count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})

	keywords := make([]string, 0, limit+1)
	if category != "" {
		keywords = append(keywords, category)
	}
	for i := 0; i < len(counts) && i < limit; i++ {
		keywords = append(keywords, counts[i].word)
	}

	return keywords
}

// CalculateReadingTime estimates minutes at 200 words per minute, never less than one.
func CalculateReadingTime(body string) int {
	words := len(strings.Fields(StripHTML(body)))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}
