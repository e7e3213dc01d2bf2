package similarity

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// TitleIndex is a small TF-IDF index over normalized titles, used to catch
// near-duplicate items at ingestion. Not a search engine: the corpus is the
// set of already stored titles and the only query is "is this new title a
// near-duplicate of anything".
//
// Titles shorter than minTokens fall back to exact string equality, which
// bounds false positives on short generic titles.
type TitleIndex struct {
	docs      []indexedDoc
	docFreq   map[string]int
	threshold float64
	minTokens int
}

type indexedDoc struct {
	id     string
	title  string
	counts map[string]int
	tokens int
}

// NewTitleIndex builds an index; threshold is the cosine similarity above
// which two titles count as duplicates.
func NewTitleIndex(threshold float64) *TitleIndex {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &TitleIndex{
		docFreq:   make(map[string]int),
		threshold: threshold,
		minTokens: 4,
	}
}

// Add inserts a normalized title under an id.
func (x *TitleIndex) Add(id, normalizedTitle string) {
	counts := termCounts(normalizedTitle)
	doc := indexedDoc{id: id, title: normalizedTitle, counts: counts}
	for term, n := range counts {
		doc.tokens += n
		x.docFreq[term]++
	}
	x.docs = append(x.docs, doc)
}

// Match returns the id of a stored near-duplicate of the normalized title,
// or "" when none crosses the threshold.
func (x *TitleIndex) Match(normalizedTitle string) string {
	counts := termCounts(normalizedTitle)
	tokens := 0
	for _, n := range counts {
		tokens += n
	}

	if tokens < x.minTokens {
		for _, doc := range x.docs {
			if doc.title == normalizedTitle {
				return doc.id
			}
		}
		return ""
	}

	bestID := ""
	bestScore := x.threshold
	for _, doc := range x.docs {
		score := x.cosine(counts, doc.counts)
		if score >= bestScore {
			bestID = doc.id
			bestScore = score
		}
	}
	return bestID
}

// cosine computes TF-IDF weighted cosine similarity over the union vocabulary
// of the two documents.
func (x *TitleIndex) cosine(a, b map[string]int) float64 {
	vocab := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for term := range a {
		vocab = append(vocab, term)
		seen[term] = true
	}
	for term := range b {
		if !seen[term] {
			vocab = append(vocab, term)
		}
	}

	n := float64(len(x.docs) + 1)
	va := make([]float64, len(vocab))
	vb := make([]float64, len(vocab))
	for i, term := range vocab {
		idf := math.Log(n/(1+float64(x.docFreq[term]))) + 1
		va[i] = float64(a[term]) * idf
		vb[i] = float64(b[term]) * idf
	}

	normA := floats.Norm(va, 2)
	normB := floats.Norm(vb, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(va, vb) / (normA * normB)
}

func termCounts(normalizedTitle string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(normalizedTitle) {
		counts[tok]++
	}
	return counts
}
