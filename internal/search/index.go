// Package search implements entity search over ontology labels and
// synonyms. Every rdfs:label, skos:prefLabel, skos:altLabel, and oboInOwl
// synonym annotation in an ontology's imports closure is indexed; queries
// match by exact phrase, by token, and by Porter-stemmed token, and results
// come back ranked with deterministic ordering.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Rank orders match quality. Lower is better.
type Rank int

const (
	RankExactLabel Rank = iota
	RankExactSynonym
	RankAllStems
	RankPartial
)

func (r Rank) String() string {
	switch r {
	case RankExactLabel:
		return "exact label"
	case RankExactSynonym:
		return "exact synonym"
	case RankAllStems:
		return "stemmed"
	case RankPartial:
		return "partial"
	}
	return "unranked"
}

// Entry is one indexed text for one entity. An entity with three synonyms
// contributes four entries: the label plus one per synonym.
type Entry struct {
	IRI      owl.IRI
	Kind     owl.EntityKind
	Label    string  // the entity's rdfs:label, "" if it has none
	Text     string  // the indexed text
	Property owl.IRI // annotation property the text came from

	norm  string
	stems map[string]bool
}

// Match is a ranked search hit.
type Match struct {
	Entry
	Rank Rank
}

// Index is the in-memory search index.
type Index struct {
	entries []Entry
}

// normalizeText lowercases and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokenize splits normalized text on non-alphanumeric runes.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stem maps a token to its Porter stem. Tokens the stemmer rejects are
// indexed verbatim.
func stem(token string) string {
	stemmed, err := snowball.Stem(token, "english", true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

func stemSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range tokenize(text) {
		set[stem(token)] = true
	}
	return set
}

// indexedProperties is the set of annotation properties whose values are
// searchable.
var indexedProperties = func() map[string]bool {
	m := map[string]bool{vocab.RDFSLabel: true}
	for _, p := range vocab.SynonymProperties {
		m[p] = true
	}
	return m
}()

// Build indexes all labels and synonyms in the imports closure of an
// ontology.
func Build(ont *owl.Ontology) *Index {
	timer := logging.StartTimer(logging.CategorySearch, "build index for "+string(ont.IRI()))
	defer timer.StopWithInfo()

	kinds := make(map[owl.IRI]owl.EntityKind)
	labels := make(map[owl.IRI]string)
	var assertions []owl.AnnotationAssertion

	for _, o := range ont.ImportsClosure() {
		for _, ax := range o.Axioms() {
			switch a := ax.(type) {
			case owl.Declaration:
				kinds[a.Subject] = a.Kind
			case owl.AnnotationAssertion:
				lit, ok := a.Value.(owl.Literal)
				if !ok || !indexedProperties[string(a.Property)] {
					continue
				}
				if string(a.Property) == vocab.RDFSLabel {
					if _, dup := labels[a.Subject]; !dup {
						labels[a.Subject] = lit.Value
					}
				}
				assertions = append(assertions, a)
			}
		}
	}

	ix := &Index{}
	for _, a := range assertions {
		text := a.Value.(owl.Literal).Value
		ix.entries = append(ix.entries, Entry{
			IRI:      a.Subject,
			Kind:     kinds[a.Subject],
			Label:    labels[a.Subject],
			Text:     text,
			Property: a.Property,
			norm:     normalizeText(text),
			stems:    stemSet(text),
		})
	}
	logging.SearchDebug("indexed %d texts for %d entities", len(ix.entries), len(kinds))
	return ix
}

// Size returns the number of indexed texts.
func (ix *Index) Size() int { return len(ix.entries) }

// Search matches a query against the index. Each entity appears at most
// once, under its best-ranked matching text. Ordering: rank, then IRI, so
// results are stable across runs. Distinct entities whose labels share a
// stem are all returned for a query with that stem.
func (ix *Index) Search(query string) []Match {
	norm := normalizeText(query)
	if norm == "" {
		return nil
	}
	queryStems := stemSet(query)

	best := make(map[owl.IRI]Match)
	for _, e := range ix.entries {
		rank, ok := matchRank(e, norm, queryStems)
		if !ok {
			continue
		}
		prev, seen := best[e.IRI]
		if !seen || rank < prev.Rank {
			best[e.IRI] = Match{Entry: e, Rank: rank}
		}
	}

	matches := make([]Match, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Rank != matches[j].Rank {
			return matches[i].Rank < matches[j].Rank
		}
		return matches[i].IRI < matches[j].IRI
	})
	logging.Search("query %q: %d matches", query, len(matches))
	return matches
}

func matchRank(e Entry, norm string, queryStems map[string]bool) (Rank, bool) {
	if e.norm == norm {
		if string(e.Property) == vocab.RDFSLabel {
			return RankExactLabel, true
		}
		return RankExactSynonym, true
	}

	hits := 0
	for s := range queryStems {
		if e.stems[s] {
			hits++
		}
	}
	if hits == 0 {
		return 0, false
	}
	if hits == len(queryStems) {
		return RankAllStems, true
	}
	return RankPartial, true
}
