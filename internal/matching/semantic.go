package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the a an and or but in on at to for of with by from as is was are were been
		be have has had do does did will would could should may might must can i you
		he she it we they my your his her its our their this that these those me am
		about into over also just very`) {
		stopWords[w] = struct{}{}
	}
}

// tokenize lower-cases text, splits on anything that is not a letter or digit
// and drops stop words and single-rune tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

func profileText(p *Profile) string {
	parts := make([]string, 0, 4)
	parts = append(parts, p.Bio)
	parts = append(parts, p.Interests...)
	parts = append(parts, p.Industries...)
	parts = append(parts, p.Goals...)
	return strings.Join(parts, " ")
}

type vector map[string]float64

// tfidf weights term frequency by a smoothed inverse document frequency so
// terms present in every document of the corpus still count.
func tfidf(tokens []string, corpus [][]string) vector {
	if len(tokens) == 0 {
		return vector{}
	}
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	n := float64(len(corpus))
	v := make(vector, len(counts))
	for term, c := range counts {
		df := 0
		for _, doc := range corpus {
			for _, t := range doc {
				if t == term {
					df++
					break
				}
			}
		}
		idf := math.Log((1+n)/(1+float64(df))) + 1
		v[term] = float64(c) / float64(len(tokens)) * idf
	}
	return v
}

// cosine iterates terms in sorted order so the result does not depend on map
// iteration and is identical for (a,b) and (b,a).
func cosine(a, b vector) float64 {
	terms := make([]string, 0, len(a)+len(b))
	for t := range a {
		terms = append(terms, t)
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)

	var dot, ma, mb float64
	for _, t := range terms {
		x, y := a[t], b[t]
		dot += x * y
		ma += x * x
		mb += y * y
	}
	if ma == 0 || mb == 0 {
		return 0
	}
	return dot / (math.Sqrt(ma) * math.Sqrt(mb))
}

func textSimilarity(x, y []string) float64 {
	corpus := [][]string{x, y}
	return cosine(tfidf(x, corpus), tfidf(y, corpus))
}

// semantic returns a 0-100 similarity of the two profiles' free text and
// tags, whether it was measured, and the shared keywords. When either
// profile has no text at all it returns the neutral score unmeasured.
func semantic(a, b *Profile, neutral float64) (float64, bool, []string) {
	ta, tb := tokenize(profileText(a)), tokenize(profileText(b))
	if len(ta) == 0 || len(tb) == 0 {
		return neutral, false, nil
	}

	type part struct {
		weight float64
		value  float64
	}
	parts := []part{{0.5, textSimilarity(ta, tb)}}

	if ba, bb := tokenize(a.Bio), tokenize(b.Bio); len(ba) > 0 && len(bb) > 0 {
		parts = append(parts, part{0.3, textSimilarity(ba, bb)})
	}
	if len(a.Interests) > 0 && len(b.Interests) > 0 {
		j, _ := jaccard(a.Interests, b.Interests)
		parts = append(parts, part{0.2, j})
	}

	var sum, weights float64
	for _, p := range parts {
		sum += p.weight * p.value
		weights += p.weight
	}

	return 100 * sum / weights, true, commonKeywords(ta, tb)
}

func commonKeywords(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, t := range a {
		if _, ok := inB[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
